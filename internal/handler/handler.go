// Package handler provides HTTP request handlers.
package handler

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/reacts/reacts/internal/auth"
	"github.com/reacts/reacts/internal/baas"
	"github.com/reacts/reacts/internal/handler/dto"
	"github.com/reacts/reacts/internal/middleware"
	"github.com/reacts/reacts/internal/model"
	"github.com/reacts/reacts/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names, one template file each.
const (
	pageLanding        = "landing"
	pageLogin          = "login"
	pageSignup         = "signup"
	pageForgotPassword = "forgot-password"
	pageResetPassword  = "reset-password"
	pageVerifyEmail    = "verify-email"
	pageError          = "error"
	pageDashboard      = "dashboard"
)

var pageTitles = map[string]string{
	pageLanding:        "Welcome",
	pageLogin:          "Sign in",
	pageSignup:         "Sign up",
	pageForgotPassword: "Forgot password",
	pageResetPassword:  "Reset password",
	pageVerifyEmail:    "Verify your email",
	pageError:          "Error",
	pageDashboard:      "Dashboard",
}

// Notice is the toast shown at the top of a page.
type Notice struct {
	Kind string // "success" or "error"
	Text string
}

// PageData is passed to every page template.
type PageData struct {
	Title  string
	Notice *Notice
	User   *model.Profile
}

// Handler renders the server-side pages.
type Handler struct {
	pages    map[string]*template.Template
	profiles *service.ProfileService
	logger   *slog.Logger
}

// New parses the page templates and creates a new Handler.
func New(profiles *service.ProfileService, logger *slog.Logger) (*Handler, error) {
	pages := make(map[string]*template.Template, len(pageTitles))
	for name := range pageTitles {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Handler{
		pages:    pages,
		profiles: profiles,
		logger:   logger,
	}, nil
}

// Static serves the stylesheet and dashboard script.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Landing renders the landing page. Signed-in users go to the dashboard,
// keeping the query so a sign-in toast survives the hop.
// GET /
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	if auth.SessionFromContext(r.Context()) != nil {
		target := "/dashboard"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	h.render(w, r, pageLanding, nil)
}

// Dashboard renders the sales dashboard with the user card.
// GET /dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	profile, err := h.profiles.Me(r.Context(), session)
	if err != nil {
		h.logger.Error("failed to load profile",
			slog.String("user_id", session.UserID),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		if errors.Is(err, baas.ErrUnauthorized) {
			http.Redirect(w, r, "/login?error="+url.QueryEscape(userMessage(err)), http.StatusSeeOther)
			return
		}
		// Fall back to what the session knows.
		fallback := (&model.User{ID: session.UserID, Email: session.Email}).ToProfile()
		profile = &fallback
	}

	h.render(w, r, pageDashboard, profile)
}

// Page returns a handler for a static page.
func (h *Handler) Page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, name, nil)
	}
}

// Login renders the sign-in page.
func (h *Handler) Login() http.HandlerFunc { return h.Page(pageLogin) }

// Signup renders the sign-up page.
func (h *Handler) Signup() http.HandlerFunc { return h.Page(pageSignup) }

// ForgotPassword renders the forgot-password page.
func (h *Handler) ForgotPassword() http.HandlerFunc { return h.Page(pageForgotPassword) }

// ResetPassword renders the reset-password page.
func (h *Handler) ResetPassword() http.HandlerFunc { return h.Page(pageResetPassword) }

// VerifyEmail renders the check-your-inbox page.
func (h *Handler) VerifyEmail() http.HandlerFunc { return h.Page(pageVerifyEmail) }

// ErrorPage renders the generic error page.
func (h *Handler) ErrorPage() http.HandlerFunc { return h.Page(pageError) }

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "resource not found"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	h.render(w, r, pageError, nil)
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, dto.ErrorResponse{Error: "method not allowed"})
}

// render executes a page with the notice taken from the query string.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, user *model.Profile) {
	data := PageData{
		Title:  pageTitles[name],
		Notice: noticeFromQuery(r.URL.Query()),
		User:   user,
	}
	if data.User == nil {
		if s := auth.SessionFromContext(r.Context()); s != nil {
			data.User = &model.Profile{ID: s.UserID, Email: s.Email}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[name].ExecuteTemplate(w, "layout", data); err != nil {
		h.logger.Error("failed to render page",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
	}
}

// noticeFromQuery maps toast and message to a success notice and error to
// an error notice. error wins when several are present.
func noticeFromQuery(q url.Values) *Notice {
	if msg := q.Get("error"); msg != "" {
		return &Notice{Kind: "error", Text: msg}
	}
	if msg := q.Get("toast"); msg != "" {
		return &Notice{Kind: "success", Text: msg}
	}
	if msg := q.Get("message"); msg != "" {
		return &Notice{Kind: "success", Text: msg}
	}
	return nil
}

// userMessage flattens err into the single message shown to the user.
func userMessage(err error) string {
	var be *baas.Error
	switch {
	case errors.As(err, &be):
		return be.Message
	case errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrUnsupportedImage),
		errors.Is(err, service.ErrAvatarTooLarge),
		errors.Is(err, service.ErrEmptyFile):
		return rootMessage(err)
	case errors.Is(err, service.ErrNotSignedIn), errors.Is(err, baas.ErrUnauthorized):
		return "Auth session missing"
	case errors.Is(err, baas.ErrUnavailable):
		return "Service unavailable. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// rootMessage returns the innermost error's text.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// statusFor maps a service or backend error onto an HTTP status.
func statusFor(err error) int {
	var be *baas.Error
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotSignedIn), errors.Is(err, baas.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, baas.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, baas.ErrUnavailable):
		return http.StatusBadGateway
	case errors.As(err, &be) && be.Status >= 400 && be.Status < 500:
		return be.Status
	default:
		return http.StatusInternalServerError
	}
}

// redirectWith sends a 303 to path with a single query message.
func redirectWith(w http.ResponseWriter, r *http.Request, path, key, msg string) {
	http.Redirect(w, r, path+"?"+key+"="+url.QueryEscape(msg), http.StatusSeeOther)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// The status line is already out; nothing useful left to send.
		_ = err
	}
}
