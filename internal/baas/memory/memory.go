// Package memory is an in-process backend for local development and tests.
// It implements baas.AuthProvider, baas.ObjectStore and baas.SalesTable.
package memory

import (
	"crypto/rand"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/reacts/reacts/internal/auth"
	"github.com/reacts/reacts/internal/model"
)

const (
	defaultTokenTTL  = time.Hour
	minPasswordChars = 6
)

// Options configures a Backend.
type Options struct {
	// JWTSecret signs access tokens. A random secret is used when empty.
	JWTSecret string
	// PublicURL is the externally visible base URL used for object links.
	PublicURL  string
	TokenTTL   time.Duration
	HashParams auth.HashParams
	Logger     *slog.Logger
	Now        func() time.Time
}

type user struct {
	model.User
	passwordHash string
}

type recovery struct {
	userID    string
	expiresAt time.Time
}

// Backend holds users, objects and sales in memory.
type Backend struct {
	mu sync.RWMutex

	secret     []byte
	publicURL  string
	tokenTTL   time.Duration
	hashParams auth.HashParams
	logger     *slog.Logger
	now        func() time.Time

	users         map[string]*user
	emails        map[string]string
	refreshTokens map[string]string
	recoveries    map[string]recovery
	objects       map[string]object
	sales         map[string]*model.Sale
}

type object struct {
	contentType string
	body        []byte
}

// New creates an empty Backend.
func New(opts Options) *Backend {
	secret := []byte(opts.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	params := opts.HashParams
	if params.KeyLen == 0 {
		params = auth.DefaultHashParams
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Backend{
		secret:        secret,
		publicURL:     strings.TrimRight(opts.PublicURL, "/"),
		tokenTTL:      ttl,
		hashParams:    params,
		logger:        logger,
		now:           now,
		users:         make(map[string]*user),
		emails:        make(map[string]string),
		refreshTokens: make(map[string]string),
		recoveries:    make(map[string]recovery),
		objects:       make(map[string]object),
		sales:         make(map[string]*model.Sale),
	}
}

func newUserID() string {
	return uuid.NewString()
}

func newULID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func copyMetadata(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (u *user) public() *model.User {
	return &model.User{
		ID:       u.ID,
		Email:    u.Email,
		Metadata: copyMetadata(u.Metadata),
	}
}
