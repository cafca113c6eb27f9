package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/reacts/reacts/internal/baas"
	"github.com/reacts/reacts/internal/metrics"
	"github.com/reacts/reacts/internal/model"
)

// avatarTypes maps sniffed content types to object extensions.
var avatarTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ProfileConfig configures ProfileService.
type ProfileConfig struct {
	AvatarBucket   string
	AvatarMaxBytes int64
}

// ProfileService manages the signed-in user's profile, password and avatar.
type ProfileService struct {
	provider baas.AuthProvider
	store    baas.ObjectStore
	cfg      ProfileConfig
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(provider baas.AuthProvider, store baas.ObjectStore, cfg ProfileConfig, recorder metrics.Recorder, logger *slog.Logger) *ProfileService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		provider: provider,
		store:    store,
		cfg:      cfg,
		metrics:  recorder,
		logger:   logger,
	}
}

// Me returns the user card for the signed-in user.
func (s *ProfileService) Me(ctx context.Context, session *model.Session) (*model.Profile, error) {
	user, err := s.user(ctx, session)
	if err != nil {
		return nil, err
	}
	profile := user.ToProfile()
	return &profile, nil
}

// UpdateProfile sets the display name and, when it changed, requests an
// email change.
func (s *ProfileService) UpdateProfile(ctx context.Context, session *model.Session, fullName, email string) (*model.User, error) {
	current, err := s.user(ctx, session)
	if err != nil {
		return nil, err
	}

	attrs := baas.UserAttributes{
		Data: map[string]any{model.MetaFullName: strings.TrimSpace(fullName)},
	}
	if email = strings.TrimSpace(email); email != "" && !strings.EqualFold(email, current.Email) {
		attrs.Email = email
	}

	return s.update(ctx, session, attrs, "update profile")
}

// UpdatePassword sets a new password after checking the confirmation.
func (s *ProfileService) UpdatePassword(ctx context.Context, session *model.Session, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if session == nil {
		return ErrNotSignedIn
	}
	_, err := s.update(ctx, session, baas.UserAttributes{Password: password}, "update password")
	return err
}

// UploadAvatar stores a new avatar image, points the profile at it and
// removes the previous image when it lived in the avatar bucket.
func (s *ProfileService) UploadAvatar(ctx context.Context, session *model.Session, data []byte) (*model.User, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if s.cfg.AvatarMaxBytes > 0 && int64(len(data)) > s.cfg.AvatarMaxBytes {
		return nil, ErrAvatarTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := avatarTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedImage
	}

	current, err := s.user(ctx, session)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s/%s.%s", current.ID, ulid.Make().String(), ext)

	start := time.Now()
	err = s.store.Upload(ctx, session.AccessToken, s.cfg.AvatarBucket, path, contentType, data)
	observe(s.metrics, "upload", start, err)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	updated, err := s.update(ctx, session, baas.UserAttributes{
		Data: map[string]any{model.MetaAvatarURL: s.store.PublicURL(s.cfg.AvatarBucket, path)},
	}, "upload avatar")
	if err != nil {
		return nil, err
	}

	s.removeObject(ctx, session, current.AvatarURL())
	return updated, nil
}

// RemoveAvatar clears the avatar and deletes its object when it is ours.
func (s *ProfileService) RemoveAvatar(ctx context.Context, session *model.Session) (*model.User, error) {
	current, err := s.user(ctx, session)
	if err != nil {
		return nil, err
	}

	updated, err := s.update(ctx, session, baas.UserAttributes{
		Data: map[string]any{model.MetaAvatarURL: nil},
	}, "remove avatar")
	if err != nil {
		return nil, err
	}

	s.removeObject(ctx, session, current.AvatarURL())
	return updated, nil
}

func (s *ProfileService) removeObject(ctx context.Context, session *model.Session, url string) {
	path, ok := baas.ObjectPath(s.store, s.cfg.AvatarBucket, url)
	if !ok {
		return
	}

	start := time.Now()
	err := s.store.Remove(ctx, session.AccessToken, s.cfg.AvatarBucket, path)
	observe(s.metrics, "remove", start, err)
	if err != nil {
		s.logger.Warn("failed to remove old avatar", "user_id", session.UserID, "path", path, "error", err)
	}
}

func (s *ProfileService) user(ctx context.Context, session *model.Session) (*model.User, error) {
	if session == nil {
		return nil, ErrNotSignedIn
	}

	start := time.Now()
	user, err := s.provider.GetUser(ctx, session.AccessToken)
	observe(s.metrics, "get_user", start, err)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *ProfileService) update(ctx context.Context, session *model.Session, attrs baas.UserAttributes, op string) (*model.User, error) {
	start := time.Now()
	user, err := s.provider.UpdateUser(ctx, session.AccessToken, attrs)
	observe(s.metrics, "update_user", start, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}
