package middleware

import (
	"errors"
	"net/mail"
	"net/url"
	"strings"

	"github.com/reacts/reacts/internal/model"
)

// Validation limits.
const (
	// MaxEmailLength is the maximum length of an email address.
	MaxEmailLength = 254

	// MaxNameLength is the maximum length of a display name.
	MaxNameLength = 100

	// MaxPasswordLength is the maximum accepted password length.
	MaxPasswordLength = 128

	// MaxSaleFieldLength is the maximum length of any sale field.
	MaxSaleFieldLength = 200

	// MaxBulkIDs caps a bulk delete, export or summary selection.
	MaxBulkIDs = 1000
)

// Validation errors. Their text is shown to the user as-is.
var (
	ErrEmailRequired    = errors.New("Email is required")
	ErrEmailInvalid     = errors.New("Email address is invalid")
	ErrPasswordRequired = errors.New("Password is required")
	ErrPasswordTooLong  = errors.New("Password is too long")
	ErrNameTooLong      = errors.New("Name is too long")
	ErrFieldTooLong     = errors.New("Field is too long")
	ErrTooManyIDs       = errors.New("Too many rows selected")
)

// ValidateEmail checks that email is a single plain address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > MaxEmailLength {
		return ErrEmailInvalid
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return ErrEmailInvalid
	}
	return nil
}

// ValidatePassword checks presence and length only; strength rules
// belong to the backend.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateName checks a display name.
func ValidateName(name string) error {
	if len([]rune(strings.TrimSpace(name))) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// ValidateSaleInput checks field lengths. Required fields are checked by
// the sales service.
func ValidateSaleInput(in model.SaleInput) error {
	for _, v := range []string{in.Product, in.Status, in.Method, in.Amount} {
		if len([]rune(v)) > MaxSaleFieldLength {
			return ErrFieldTooLong
		}
	}
	return nil
}

// ValidateIDs checks the size of a row selection.
func ValidateIDs(ids []string) error {
	if len(ids) > MaxBulkIDs {
		return ErrTooManyIDs
	}
	return nil
}

// SafeNextPath returns next when it is a local absolute path, "/" otherwise.
// It blocks open redirects such as "//evil.example" or "/\evil.example".
func SafeNextPath(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return "/"
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") || strings.ContainsAny(next, "\r\n") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}
