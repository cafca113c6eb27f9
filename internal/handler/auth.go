package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/reacts/reacts/internal/auth"
	"github.com/reacts/reacts/internal/metrics"
	"github.com/reacts/reacts/internal/middleware"
	"github.com/reacts/reacts/internal/service"
)

// Auth action messages.
const (
	msgSignedIn         = "Signed in successfully"
	msgSignedOut        = "Signed out successfully"
	msgCheckEmail       = "Check your email to verify your account"
	msgResetLinkSent    = "Check your email for a password reset link"
	msgPasswordUpdated  = "Password updated successfully"
	msgPasswordMismatch = "Passwords do not match"
)

// AuthConfig holds what the form actions need besides the service.
type AuthConfig struct {
	Cookie middleware.CookieConfig
	// SiteURL is the origin used in email links when the request has no Origin header.
	SiteURL string
}

// AuthHandler turns auth form posts into backend calls and redirects.
type AuthHandler struct {
	svc     *service.AuthService
	cfg     AuthConfig
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, cfg AuthConfig, recorder metrics.Recorder, logger *slog.Logger) *AuthHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthHandler{
		svc:     svc,
		cfg:     cfg,
		metrics: recorder,
		logger:  logger,
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if err := firstError(middleware.ValidateEmail(email), middleware.ValidatePassword(password)); err != nil {
		h.fail(w, r, "login", "/login", err, err.Error())
		return
	}

	session, err := h.svc.SignIn(r.Context(), email, password)
	if err != nil {
		h.fail(w, r, "login", "/login", err, userMessage(err))
		return
	}

	middleware.SetSessionCookie(w, h.cfg.Cookie, session.ID)
	h.succeed(r, "login", session.UserID)
	redirectWith(w, r, "/", "toast", msgSignedIn)
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	name := strings.TrimSpace(r.FormValue("name"))

	err := firstError(
		middleware.ValidateEmail(email),
		middleware.ValidatePassword(password),
		middleware.ValidateName(name),
	)
	if err != nil {
		h.fail(w, r, "signup", "/signup", err, err.Error())
		return
	}

	user, err := h.svc.SignUp(r.Context(), email, password, name)
	if err != nil {
		h.fail(w, r, "signup", "/signup", err, userMessage(err))
		return
	}

	h.succeed(r, "signup", user.ID)
	redirectWith(w, r, "/verify-email", "toast", msgCheckEmail)
}

// Signout handles POST /auth/signout. It always ends on the login page.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if err := h.svc.SignOut(r.Context(), session); err != nil {
		h.logger.Error("sign out failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}

	middleware.ClearSessionCookie(w, h.cfg.Cookie)
	h.metrics.IncAuthAction("signout", metrics.OutcomeSuccess)
	redirectWith(w, r, "/login", "toast", msgSignedOut)
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	if err := middleware.ValidateEmail(email); err != nil {
		h.fail(w, r, "forgot_password", "/forgot-password", err, err.Error())
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), email, h.origin(r)); err != nil {
		h.fail(w, r, "forgot_password", "/forgot-password", err, userMessage(err))
		return
	}

	h.succeed(r, "forgot_password", "")
	redirectWith(w, r, "/forgot-password", "message", msgResetLinkSent)
}

// ResetPassword handles POST /auth/reset-password. The session comes from
// the recovery link's callback.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	password := r.FormValue("password")
	confirm := r.FormValue("confirmPassword")

	if password != confirm {
		h.fail(w, r, "reset_password", "/auth/reset-password", service.ErrPasswordMismatch, msgPasswordMismatch)
		return
	}
	if err := middleware.ValidatePassword(password); err != nil {
		h.fail(w, r, "reset_password", "/auth/reset-password", err, err.Error())
		return
	}

	session := auth.SessionFromContext(r.Context())
	if err := h.svc.ResetPassword(r.Context(), session, password, confirm); err != nil {
		h.fail(w, r, "reset_password", "/auth/reset-password", err, userMessage(err))
		return
	}

	h.succeed(r, "reset_password", session.UserID)
	redirectWith(w, r, "/login", "message", msgPasswordUpdated)
}

// Callback handles GET /auth/callback, exchanging the one-time token from
// an email link for a session and continuing to next.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	session, err := h.svc.CompleteCallback(r.Context(), q.Get("token_hash"), q.Get("type"))
	if err != nil {
		h.logger.Warn("auth callback failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		h.metrics.IncAuthAction("callback", metrics.OutcomeFailure)
		http.Redirect(w, r, "/error", http.StatusSeeOther)
		return
	}

	middleware.SetSessionCookie(w, h.cfg.Cookie, session.ID)
	h.succeed(r, "callback", session.UserID)
	http.Redirect(w, r, middleware.SafeNextPath(q.Get("next")), http.StatusSeeOther)
}

// origin is the request's Origin header, else the configured site URL.
// The service falls back to localhost when both are empty.
func (h *AuthHandler) origin(r *http.Request) string {
	if o := r.Header.Get("Origin"); o != "" && o != "null" {
		return o
	}
	return h.cfg.SiteURL
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, action, page string, err error, msg string) {
	h.logger.Warn("auth action failed",
		slog.String("action", action),
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.metrics.IncAuthAction(action, metrics.OutcomeFailure)
	redirectWith(w, r, page, "error", msg)
}

func (h *AuthHandler) succeed(r *http.Request, action, userID string) {
	h.logger.Info("auth action",
		slog.String("action", action),
		slog.String("user_id", userID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.metrics.IncAuthAction(action, metrics.OutcomeSuccess)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
