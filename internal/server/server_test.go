package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) (*Server, net.Listener) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(handler, 0, time.Second, time.Second, time.Second, logger), ln
}

func TestServe_ShutdownRunsHooksLIFO(t *testing.T) {
	srv, ln := newTestServer(t)

	var order []string
	srv.OnShutdown("redis", func(context.Context) error {
		order = append(order, "redis")
		return nil
	})
	srv.OnShutdown("postgres", func(context.Context) error {
		order = append(order, "postgres")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp := waitForServer(t, "http://"+ln.Addr().String())
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("unexpected body %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	if strings.Join(order, ",") != "postgres,redis" {
		t.Errorf("expected hooks in reverse order, got %v", order)
	}
}

func TestServe_HookErrorsJoined(t *testing.T) {
	srv, ln := newTestServer(t)

	errCache := errors.New("cache close failed")
	srv.OnShutdown("redis", func(context.Context) error { return errCache })
	srv.OnShutdown("backend", func(context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := srv.Serve(ctx, ln)
	if !errors.Is(err, errCache) {
		t.Fatalf("expected joined hook error, got %v", err)
	}
	if !strings.Contains(err.Error(), "redis") {
		t.Errorf("expected hook name in error, got %v", err)
	}
}

func TestRun_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(http.NotFoundHandler(), 0, time.Second, time.Second, time.Second, logger)
	srv.httpServer.Addr = ln.Addr().String()

	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected error for address in use")
	}
}

func waitForServer(t *testing.T, url string) *http.Response {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			return resp
		}
		if time.Now().After(deadline) {
			t.Fatalf("server not reachable: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
