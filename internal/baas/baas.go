// Package baas talks to the hosted backend: its auth API, its object
// store and the sales table exposed through its REST layer.
package baas

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/reacts/reacts/internal/model"
)

// Sentinel errors. A *Error matches them through errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("backend unavailable")
)

// Error is a decoded error body from the backend.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is maps HTTP status classes onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrUnavailable:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

// NewError builds an *Error, falling back to the status text when msg is empty.
func NewError(status int, msg string) *Error {
	if strings.TrimSpace(msg) == "" {
		msg = http.StatusText(status)
	}
	return &Error{Status: status, Message: msg}
}

// Message returns the flat, user-facing message for err.
func Message(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// UserAttributes is the body of an update-user call. Empty fields are left alone.
type UserAttributes struct {
	Email    string         `json:"email,omitempty"`
	Password string         `json:"password,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// AuthProvider is the backend's auth API.
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*model.AuthTokens, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*model.User, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	VerifyOTP(ctx context.Context, tokenHash, otpType string) (*model.AuthTokens, error)
	RefreshSession(ctx context.Context, refreshToken string) (*model.AuthTokens, error)
	GetUser(ctx context.Context, accessToken string) (*model.User, error)
	UpdateUser(ctx context.Context, accessToken string, attrs UserAttributes) (*model.User, error)
	Ping(ctx context.Context) error
}

// ObjectStore is the backend's bucket storage.
type ObjectStore interface {
	Upload(ctx context.Context, accessToken, bucket, path, contentType string, body []byte) error
	Remove(ctx context.Context, accessToken, bucket string, paths ...string) error
	PublicURL(bucket, path string) string
}

// SalesTable is the remote sales collection.
type SalesTable interface {
	List(ctx context.Context, accessToken string) ([]*model.Sale, error)
	Insert(ctx context.Context, accessToken string, in model.SaleInput) (*model.Sale, error)
	Update(ctx context.Context, accessToken, id string, in model.SaleInput) (*model.Sale, error)
	Delete(ctx context.Context, accessToken, id string) error
}

// BulkDeleter is implemented by tables that can delete a selection in one
// round trip. DeleteMany returns the ids that were removed.
type BulkDeleter interface {
	DeleteMany(ctx context.Context, accessToken string, ids []string) ([]string, error)
}

// ObjectPath reverses PublicURL. ok is false when url does not point
// into bucket on store.
func ObjectPath(store ObjectStore, bucket, url string) (path string, ok bool) {
	prefix := store.PublicURL(bucket, "")
	if url == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	path = strings.TrimPrefix(url, prefix)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return path, path != ""
}
