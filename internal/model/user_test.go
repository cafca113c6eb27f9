package model

import (
	"testing"
	"time"
)

func TestUser_DisplayNameFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		meta map[string]any
		want string
	}{
		{"full name wins", map[string]any{"full_name": "Ada Lovelace", "name": "ada"}, "Ada Lovelace"},
		{"name", map[string]any{"name": "ada"}, "ada"},
		{"username", map[string]any{"username": "ada99"}, "ada99"},
		{"display name", map[string]any{"display_name": "Countess"}, "Countess"},
		{"blank skipped", map[string]any{"full_name": "  ", "name": "ada"}, "ada"},
		{"non-string skipped", map[string]any{"full_name": 42}, "User"},
		{"nil metadata", nil, "User"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u := &User{Metadata: tt.meta}
			if got := u.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUser_ToProfile(t *testing.T) {
	t.Parallel()

	u := &User{
		ID:    "u1",
		Email: "ada@example.com",
		Metadata: map[string]any{
			"full_name": "émilie",
			"picture":   "https://cdn.example.com/p.png",
		},
	}

	p := u.ToProfile()
	if p.Name != "émilie" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.Initial != "É" {
		t.Errorf("Initial = %q, want É", p.Initial)
	}
	if p.AvatarURL != "https://cdn.example.com/p.png" {
		t.Errorf("AvatarURL = %q", p.AvatarURL)
	}

	anon := (&User{}).ToProfile()
	if anon.Name != "User" || anon.Initial != "U" {
		t.Errorf("anon profile = %+v", anon)
	}
}

func TestAuthTokens_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)

	abs := &AuthTokens{ExpiresAt: 1_700_003_600, ExpiresIn: 10}
	if got := abs.Expiry(now); !got.Equal(time.Unix(1_700_003_600, 0)) {
		t.Errorf("expires_at should win, got %v", got)
	}

	rel := &AuthTokens{ExpiresIn: 3600}
	if got := rel.Expiry(now); !got.Equal(now.Add(time.Hour)) {
		t.Errorf("expires_in expiry = %v", got)
	}

	if got := (&AuthTokens{}).Expiry(now); !got.IsZero() {
		t.Errorf("expected zero expiry, got %v", got)
	}
}

func TestSession_NeedsRefresh(t *testing.T) {
	t.Parallel()

	s := &Session{ExpiresAt: time.Now().Add(30 * time.Second)}
	if !s.NeedsRefresh(time.Minute) {
		t.Error("expected refresh within a minute of expiry")
	}

	s.ExpiresAt = time.Now().Add(time.Hour)
	if s.NeedsRefresh(time.Minute) {
		t.Error("did not expect refresh an hour before expiry")
	}

	if (&Session{}).NeedsRefresh(time.Minute) {
		t.Error("zero expiry never needs refresh")
	}
}
