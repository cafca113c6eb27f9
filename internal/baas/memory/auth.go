package memory

import (
	"context"
	"net/http"
	"time"

	"github.com/reacts/reacts/internal/auth"
	"github.com/reacts/reacts/internal/baas"
	"github.com/reacts/reacts/internal/model"
)

const recoveryTTL = time.Hour

var (
	errInvalidCredentials = baas.NewError(http.StatusBadRequest, "Invalid login credentials")
	errEmailTaken         = baas.NewError(http.StatusUnprocessableEntity, "User already registered")
	errWeakPassword       = baas.NewError(http.StatusUnprocessableEntity, "Password should be at least 6 characters")
	errMissingEmail       = baas.NewError(http.StatusBadRequest, "Email address is required")
	errInvalidToken       = baas.NewError(http.StatusUnauthorized, "Invalid JWT")
	errInvalidRefresh     = baas.NewError(http.StatusBadRequest, "Invalid Refresh Token")
	errOTPExpired         = baas.NewError(http.StatusForbidden, "Email link is invalid or has expired")
)

// SignInWithPassword checks the password and issues a token pair.
func (b *Backend) SignInWithPassword(_ context.Context, email, password string) (*model.AuthTokens, error) {
	b.mu.RLock()
	u, ok := b.users[b.emails[normalizeEmail(email)]]
	b.mu.RUnlock()
	if !ok {
		return nil, errInvalidCredentials
	}

	match, err := auth.VerifyPassword(password, u.passwordHash)
	if err != nil || !match {
		return nil, errInvalidCredentials
	}
	return b.issueTokens(u)
}

// SignUp registers and confirms a user immediately.
func (b *Backend) SignUp(_ context.Context, email, password string, metadata map[string]any) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, errMissingEmail
	}
	if len(password) < minPasswordChars {
		return nil, errWeakPassword
	}

	hash, err := b.hashParams.Hash(password)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.emails[email]; exists {
		return nil, errEmailTaken
	}

	u := &user{
		User: model.User{
			ID:       newUserID(),
			Email:    email,
			Metadata: copyMetadata(metadata),
		},
		passwordHash: hash,
	}
	b.users[u.ID] = u
	b.emails[email] = u.ID

	b.logger.Info("memory backend: user registered", "user_id", u.ID)
	return u.public(), nil
}

// SignOut revokes every refresh token of the token's user.
func (b *Backend) SignOut(_ context.Context, accessToken string) error {
	u, err := b.userFromToken(accessToken)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for rt, uid := range b.refreshTokens {
		if uid == u.ID {
			delete(b.refreshTokens, rt)
		}
	}
	return nil
}

// ResetPasswordForEmail records a recovery token and logs the link that
// would have been emailed. Unknown addresses succeed silently.
func (b *Backend) ResetPasswordForEmail(_ context.Context, email, redirectTo string) error {
	email = normalizeEmail(email)
	if email == "" {
		return errMissingEmail
	}

	b.mu.Lock()
	uid, ok := b.emails[email]
	if !ok {
		b.mu.Unlock()
		return nil
	}
	tokenHash := newULID(b.now())
	b.recoveries[tokenHash] = recovery{userID: uid, expiresAt: b.now().Add(recoveryTTL)}
	b.mu.Unlock()

	b.logger.Info("memory backend: password recovery issued",
		"user_id", uid,
		"redirect_to", redirectTo,
		"token_hash", tokenHash,
	)
	return nil
}

// VerifyOTP consumes a recovery token and signs its user in.
func (b *Backend) VerifyOTP(_ context.Context, tokenHash, otpType string) (*model.AuthTokens, error) {
	if otpType != "recovery" && otpType != "email" && otpType != "signup" {
		return nil, errOTPExpired
	}

	b.mu.Lock()
	rec, ok := b.recoveries[tokenHash]
	delete(b.recoveries, tokenHash)
	u := b.users[rec.userID]
	b.mu.Unlock()

	if !ok || u == nil || b.now().After(rec.expiresAt) {
		return nil, errOTPExpired
	}
	return b.issueTokens(u)
}

// RecoveryTokens lists outstanding recovery tokens for email.
func (b *Backend) RecoveryTokens(email string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	uid := b.emails[normalizeEmail(email)]
	var out []string
	for token, rec := range b.recoveries {
		if rec.userID == uid {
			out = append(out, token)
		}
	}
	return out
}

// RefreshSession rotates a refresh token.
func (b *Backend) RefreshSession(_ context.Context, refreshToken string) (*model.AuthTokens, error) {
	b.mu.Lock()
	uid, ok := b.refreshTokens[refreshToken]
	delete(b.refreshTokens, refreshToken)
	u := b.users[uid]
	b.mu.Unlock()

	if !ok || u == nil {
		return nil, errInvalidRefresh
	}
	return b.issueTokens(u)
}

func (b *Backend) GetUser(_ context.Context, accessToken string) (*model.User, error) {
	u, err := b.userFromToken(accessToken)
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return u.public(), nil
}

// UpdateUser applies attrs. Metadata keys are merged; a nil value removes the key.
func (b *Backend) UpdateUser(_ context.Context, accessToken string, attrs baas.UserAttributes) (*model.User, error) {
	u, err := b.userFromToken(accessToken)
	if err != nil {
		return nil, err
	}

	var hash string
	if attrs.Password != "" {
		if len(attrs.Password) < minPasswordChars {
			return nil, errWeakPassword
		}
		if hash, err = b.hashParams.Hash(attrs.Password); err != nil {
			return nil, err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if email := normalizeEmail(attrs.Email); email != "" && email != u.Email {
		if _, taken := b.emails[email]; taken {
			return nil, errEmailTaken
		}
		delete(b.emails, u.Email)
		b.emails[email] = u.ID
		u.Email = email
	}
	if hash != "" {
		u.passwordHash = hash
	}
	for k, v := range attrs.Data {
		if v == nil || v == "" {
			delete(u.Metadata, k)
			continue
		}
		if u.Metadata == nil {
			u.Metadata = make(map[string]any)
		}
		u.Metadata[k] = v
	}
	return u.public(), nil
}

// Ping always succeeds.
func (b *Backend) Ping(context.Context) error {
	return nil
}

func (b *Backend) issueTokens(u *user) (*model.AuthTokens, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	access, exp, err := auth.SignAccessToken(b.secret, u.ID, u.Email, u.Metadata, b.tokenTTL)
	if err != nil {
		return nil, err
	}
	refresh := newULID(b.now())
	b.refreshTokens[refresh] = u.ID

	return &model.AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(b.tokenTTL.Seconds()),
		ExpiresAt:    exp.Unix(),
		User:         u.public(),
	}, nil
}

func (b *Backend) userFromToken(accessToken string) (*user, error) {
	claims, err := auth.ParseAccessToken(b.secret, accessToken)
	if err != nil {
		return nil, errInvalidToken
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	u, ok := b.users[claims.Subject]
	if !ok {
		return nil, baas.NewError(http.StatusNotFound, "User not found")
	}
	return u, nil
}

