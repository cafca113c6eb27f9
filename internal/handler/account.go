package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/reacts/reacts/internal/auth"
	"github.com/reacts/reacts/internal/handler/dto"
	"github.com/reacts/reacts/internal/middleware"
	"github.com/reacts/reacts/internal/model"
	"github.com/reacts/reacts/internal/service"
)

// Account messages.
const (
	msgProfileUpdated = "Profile updated successfully"
	msgAvatarUpdated  = "Avatar updated successfully"
	msgAvatarRemoved  = "Avatar removed successfully"
	msgNoFile         = "No file uploaded"
)

// AccountHandler serves the settings dialog. Every result is JSON.
type AccountHandler struct {
	svc            *service.ProfileService
	avatarMaxBytes int64
	logger         *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc *service.ProfileService, avatarMaxBytes int64, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		svc:            svc,
		avatarMaxBytes: avatarMaxBytes,
		logger:         logger,
	}
}

// Me handles GET /account/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	profile, err := h.svc.Me(r.Context(), session)
	if err != nil {
		h.handleServiceError(w, r, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles POST /account/profile.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())
	fullName := strings.TrimSpace(r.FormValue("fullName"))
	email := strings.TrimSpace(r.FormValue("email"))

	if err := middleware.ValidateName(fullName); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if email != "" {
		if err := middleware.ValidateEmail(email); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
	}

	user, err := h.svc.UpdateProfile(r.Context(), session, fullName, email)
	if err != nil {
		h.handleServiceError(w, r, "update profile", err)
		return
	}

	h.logger.Info("profile_updated", "user_id", session.UserID)
	h.writeProfile(w, msgProfileUpdated, user)
}

// UpdatePassword handles POST /account/password.
func (h *AccountHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())
	password := r.FormValue("password")
	confirm := r.FormValue("confirmPassword")

	if password == confirm {
		if err := middleware.ValidatePassword(password); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
	}

	if err := h.svc.UpdatePassword(r.Context(), session, password, confirm); err != nil {
		h.handleServiceError(w, r, "update password", err)
		return
	}

	h.logger.Info("password_updated", "user_id", session.UserID)
	writeJSON(w, http.StatusOK, dto.AccountResponse{Success: true, Message: msgPasswordUpdated})
}

// UploadAvatar handles POST /account/avatar (multipart field "avatar").
func (h *AccountHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	file, _, err := r.FormFile("avatar")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: msgNoFile})
		return
	}
	defer file.Close()

	// Read one byte past the limit so oversized files are detected.
	var src io.Reader = file
	if h.avatarMaxBytes > 0 {
		src = io.LimitReader(file, h.avatarMaxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		h.handleServiceError(w, r, "read avatar", err)
		return
	}

	user, err := h.svc.UploadAvatar(r.Context(), session, data)
	if err != nil {
		h.handleServiceError(w, r, "upload avatar", err)
		return
	}

	h.logger.Info("avatar_uploaded", "user_id", session.UserID, "bytes", len(data))
	h.writeProfile(w, msgAvatarUpdated, user)
}

// RemoveAvatar handles DELETE /account/avatar.
func (h *AccountHandler) RemoveAvatar(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	user, err := h.svc.RemoveAvatar(r.Context(), session)
	if err != nil {
		h.handleServiceError(w, r, "remove avatar", err)
		return
	}

	h.logger.Info("avatar_removed", "user_id", session.UserID)
	h.writeProfile(w, msgAvatarRemoved, user)
}

func (h *AccountHandler) writeProfile(w http.ResponseWriter, msg string, user *model.User) {
	profile := user.ToProfile()
	writeJSON(w, http.StatusOK, dto.AccountResponse{Success: true, Message: msg, Profile: &profile})
}

// handleServiceError maps service errors to HTTP responses.
func (h *AccountHandler) handleServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrEmptyFile),
		errors.Is(err, service.ErrUnsupportedImage):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: userMessage(err)})
	case errors.Is(err, service.ErrAvatarTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: userMessage(err)})
	default:
		h.logger.Error("account_error",
			slog.String("op", op),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeJSON(w, statusFor(err), dto.ErrorResponse{Error: userMessage(err)})
	}
}
