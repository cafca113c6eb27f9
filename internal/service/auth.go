package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reacts/reacts/internal/auth"
	"github.com/reacts/reacts/internal/baas"
	"github.com/reacts/reacts/internal/metrics"
	"github.com/reacts/reacts/internal/model"
)

const (
	callbackPath      = "/auth/callback"
	resetPasswordPath = "/auth/reset-password"

	// DefaultOrigin is used for email links when neither the request nor
	// the configuration names one.
	DefaultOrigin = "http://localhost:3000"

	defaultRefreshWindow = time.Minute
)

// SessionStore persists signed-in sessions.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*model.Session, error)
	SaveSession(ctx context.Context, s *model.Session, ttl time.Duration) error
	DeleteSession(ctx context.Context, id string) error
}

// AuthConfig configures AuthService.
type AuthConfig struct {
	SessionTTL    time.Duration
	RefreshWindow time.Duration
	// JWTSecret, when set, lets sessions be checked locally before use.
	JWTSecret string
}

// AuthService turns auth form submissions into backend calls and sessions.
type AuthService struct {
	provider baas.AuthProvider
	sessions SessionStore
	cfg      AuthConfig
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(provider baas.AuthProvider, sessions SessionStore, cfg AuthConfig, recorder metrics.Recorder, logger *slog.Logger) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RefreshWindow <= 0 {
		cfg.RefreshWindow = defaultRefreshWindow
	}
	return &AuthService{
		provider: provider,
		sessions: sessions,
		cfg:      cfg,
		metrics:  recorder,
		logger:   logger,
	}
}

// SignIn authenticates with email and password and opens a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	start := time.Now()
	tokens, err := s.provider.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	observe(s.metrics, "sign_in", start, err)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return s.openSession(ctx, tokens)
}

// SignUp registers a user, storing name as the full_name metadata.
func (s *AuthService) SignUp(ctx context.Context, email, password, name string) (*model.User, error) {
	metadata := map[string]any{model.MetaFullName: strings.TrimSpace(name)}

	start := time.Now()
	user, err := s.provider.SignUp(ctx, strings.TrimSpace(email), password, metadata)
	observe(s.metrics, "sign_up", start, err)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return user, nil
}

// SignOut ends the session. The backend call is best effort; the local
// session is always removed.
func (s *AuthService) SignOut(ctx context.Context, session *model.Session) error {
	if session == nil {
		return nil
	}

	start := time.Now()
	err := s.provider.SignOut(ctx, session.AccessToken)
	observe(s.metrics, "sign_out", start, err)
	if err != nil {
		s.logger.Warn("backend sign out failed", "user_id", session.UserID, "error", err)
	}

	if err := s.sessions.DeleteSession(ctx, session.ID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// ForgotPassword asks the backend to email a recovery link that lands on
// the reset-password page through the auth callback.
func (s *AuthService) ForgotPassword(ctx context.Context, email, origin string) error {
	start := time.Now()
	err := s.provider.ResetPasswordForEmail(ctx, strings.TrimSpace(email), RecoveryRedirect(origin))
	observe(s.metrics, "recover", start, err)
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// RecoveryRedirect builds the redirect target embedded in recovery emails.
func RecoveryRedirect(origin string) string {
	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		origin = DefaultOrigin
	}
	return origin + callbackPath + "?next=" + resetPasswordPath
}

// ResetPassword sets a new password for the signed-in user.
func (s *AuthService) ResetPassword(ctx context.Context, session *model.Session, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if session == nil {
		return ErrNotSignedIn
	}

	start := time.Now()
	_, err := s.provider.UpdateUser(ctx, session.AccessToken, baas.UserAttributes{Password: password})
	observe(s.metrics, "update_user", start, err)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// CompleteCallback exchanges a one-time email token for a session.
func (s *AuthService) CompleteCallback(ctx context.Context, tokenHash, otpType string) (*model.Session, error) {
	if tokenHash == "" || otpType == "" {
		return nil, fmt.Errorf("callback: %w", baas.ErrUnauthorized)
	}

	start := time.Now()
	tokens, err := s.provider.VerifyOTP(ctx, tokenHash, otpType)
	observe(s.metrics, "verify", start, err)
	if err != nil {
		return nil, fmt.Errorf("callback: %w", err)
	}
	return s.openSession(ctx, tokens)
}

// Resolve loads the session behind a cookie value, refreshing its tokens
// when they are close to expiry. It returns nil, nil for signed-out
// visitors, including sessions that can no longer be refreshed.
func (s *AuthService) Resolve(ctx context.Context, id string) (*model.Session, error) {
	if auth.ValidateSessionID(id) != nil {
		return nil, nil
	}

	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if s.cfg.JWTSecret != "" {
		_, err := auth.ParseAccessToken([]byte(s.cfg.JWTSecret), session.AccessToken)
		if err != nil && !errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Warn("dropping session with invalid access token", "user_id", session.UserID, "error", err)
			_ = s.sessions.DeleteSession(ctx, id)
			return nil, nil
		}
	}

	if !session.NeedsRefresh(s.cfg.RefreshWindow) {
		return session, nil
	}

	start := time.Now()
	tokens, err := s.provider.RefreshSession(ctx, session.RefreshToken)
	observe(s.metrics, "refresh", start, err)
	if err != nil {
		s.logger.Info("session refresh failed, signing out", "user_id", session.UserID, "error", err)
		_ = s.sessions.DeleteSession(ctx, id)
		return nil, nil
	}

	refreshed := tokens.ToSession(id, time.Now())
	if refreshed.UserID == "" {
		refreshed.UserID, refreshed.Email = session.UserID, session.Email
	}
	if err := s.sessions.SaveSession(ctx, refreshed, s.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	s.metrics.IncSessionRefreshed()
	return refreshed, nil
}

// CurrentUser fetches the signed-in user from the backend.
func (s *AuthService) CurrentUser(ctx context.Context, session *model.Session) (*model.User, error) {
	if session == nil {
		return nil, ErrNotSignedIn
	}

	start := time.Now()
	user, err := s.provider.GetUser(ctx, session.AccessToken)
	observe(s.metrics, "get_user", start, err)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user, nil
}

// Ping checks the auth backend.
func (s *AuthService) Ping(ctx context.Context) error {
	return s.provider.Ping(ctx)
}

func (s *AuthService) openSession(ctx context.Context, tokens *model.AuthTokens) (*model.Session, error) {
	id, err := auth.NewSessionID()
	if err != nil {
		return nil, err
	}

	session := tokens.ToSession(id, time.Now())
	if session.UserID == "" && s.cfg.JWTSecret != "" {
		if claims, err := auth.ParseAccessToken([]byte(s.cfg.JWTSecret), tokens.AccessToken); err == nil {
			session.UserID, session.Email = claims.Subject, claims.Email
		}
	}

	if err := s.sessions.SaveSession(ctx, session, s.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}
