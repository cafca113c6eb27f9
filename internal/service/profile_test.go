package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reacts/reacts/internal/baas"
	"github.com/reacts/reacts/internal/metrics"
	"github.com/reacts/reacts/internal/testutil"
)

var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")

func newProfileEnv(t *testing.T, maxBytes int64) (*authEnv, *ProfileService) {
	t.Helper()
	env := newAuthEnv(t)
	svc := NewProfileService(env.backend, env.backend, ProfileConfig{
		AvatarBucket:   "avatars",
		AvatarMaxBytes: maxBytes,
	}, metrics.NewNoop(), testutil.DiscardLogger())
	return env, svc
}

func TestProfileService_Me(t *testing.T) {
	t.Parallel()
	env, svc := newProfileEnv(t, 1024)
	session := env.signedIn(t)

	me, err := svc.Me(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "Ann", me.Name)
	assert.Equal(t, "A", me.Initial)
	assert.Equal(t, "ann@example.com", me.Email)

	_, err = svc.Me(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestProfileService_UpdateProfile(t *testing.T) {
	t.Parallel()
	env, svc := newProfileEnv(t, 1024)
	session := env.signedIn(t)

	user, err := svc.UpdateProfile(context.Background(), session, "  Ann Lee ", "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", user.DisplayName())
	assert.Equal(t, "ann@example.com", user.Email, "same email in other case is not a change")

	user, err = svc.UpdateProfile(context.Background(), session, "Ann Lee", "lee@example.com")
	require.NoError(t, err)
	assert.Equal(t, "lee@example.com", user.Email)
}

func TestProfileService_UpdatePassword(t *testing.T) {
	t.Parallel()
	env, svc := newProfileEnv(t, 1024)
	session := env.signedIn(t)

	assert.ErrorIs(t, svc.UpdatePassword(context.Background(), session, "abcdefg", "abcdefh"), ErrPasswordMismatch)
	require.NoError(t, svc.UpdatePassword(context.Background(), session, "abcdefg", "abcdefg"))

	_, err := env.svc.SignIn(context.Background(), "ann@example.com", "abcdefg")
	assert.NoError(t, err)
}

func TestProfileService_UploadAvatar(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env, svc := newProfileEnv(t, 1024)
	session := env.signedIn(t)

	first, err := svc.UploadAvatar(ctx, session, pngHeader)
	require.NoError(t, err)
	firstURL := first.AvatarURL()
	assert.True(t, strings.HasPrefix(firstURL, "http://localhost:3000/storage/v1/object/public/avatars/"+session.UserID+"/"))
	assert.True(t, strings.HasSuffix(firstURL, ".png"))

	second, err := svc.UploadAvatar(ctx, session, pngHeader)
	require.NoError(t, err)
	assert.NotEqual(t, firstURL, second.AvatarURL())

	// The replaced object is gone.
	oldPath, ok := baas.ObjectPath(env.backend, "avatars", firstURL)
	require.True(t, ok)
	assert.ErrorIs(t, env.backend.Remove(ctx, session.AccessToken, "avatars", oldPath), baas.ErrNotFound)

	cleared, err := svc.RemoveAvatar(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, cleared.AvatarURL())
}

func TestProfileService_UploadAvatar_Rejects(t *testing.T) {
	t.Parallel()
	env, svc := newProfileEnv(t, 32)
	session := env.signedIn(t)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmptyFile},
		{"too large", bytes.Repeat([]byte("a"), 33), ErrAvatarTooLarge},
		{"not an image", []byte("hello, world"), ErrUnsupportedImage},
		{"pdf", []byte("%PDF-1.4 fake"), ErrUnsupportedImage},
	}

	for _, tt := range tests {
		_, err := svc.UploadAvatar(context.Background(), session, tt.data)
		assert.ErrorIs(t, err, tt.want, tt.name)
	}
}
