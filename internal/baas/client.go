package baas

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"
)

// Client is the REST client for a hosted backend. It implements
// AuthProvider, ObjectStore and SalesTable.
type Client struct {
	baseURL string
	anonKey string
	http    *resty.Client
}

// Options configures a Client.
type Options struct {
	BaseURL string
	AnonKey string
	Timeout time.Duration
}

// New creates a backend client.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("apikey", opts.AnonKey).
		SetHeader("Accept", "application/json")

	return &Client{
		baseURL: base,
		anonKey: opts.AnonKey,
		http:    rc,
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// request starts a request authorised as the given user, or as the anon
// role when accessToken is empty.
func (c *Client) request(ctx context.Context, accessToken string) *resty.Request {
	token := accessToken
	if token == "" {
		token = c.anonKey
	}
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(token)
}

// check turns transport failures and non-2xx responses into errors.
func check(op string, res *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("baas: %s: %w: %v", op, ErrUnavailable, err)
	}
	if res.IsError() {
		return decodeError(res.StatusCode(), res.String())
	}
	return nil
}

// errorBody covers the error shapes of the auth, storage and table APIs.
type errorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
	ErrorCode        string `json:"error_code"`
	Code             any    `json:"code"`
}

func decodeError(status int, body string) *Error {
	var eb errorBody
	if err := json.Unmarshal([]byte(body), &eb); err != nil {
		return NewError(status, "")
	}

	msg := firstNonEmpty(eb.Msg, eb.ErrorDescription, eb.Message, eb.Error)
	e := NewError(status, msg)
	e.Code = eb.ErrorCode
	if e.Code == "" {
		if s, ok := eb.Code.(string); ok {
			e.Code = s
		}
	}
	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
