package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/reacts/reacts/internal/export"
	"github.com/reacts/reacts/internal/repository"
	"github.com/reacts/reacts/internal/service"
)

type output struct {
	File      string `json:"file"`
	Rows      int    `json:"rows"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		file        = flag.String("file", "", "CSV file with product,status,method,amount columns (- for stdin)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "-file is required")
		os.Exit(1)
	}

	in, err := openInput(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open csv:", err)
		os.Exit(1)
	}
	defer in.Close()

	rows, err := export.ReadCSV(in)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read csv:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	sales := service.NewSalesService(repository.NewSalesTable(repo), nil, logger)
	res := sales.Import(ctx, "", rows)

	out := output{
		File:      *file,
		Rows:      len(rows),
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Printf("imported %d of %d rows (%d failed)\n", out.Succeeded, out.Rows, out.Failed)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}

	if out.Rows > 0 && out.Succeeded == 0 {
		os.Exit(1)
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}
