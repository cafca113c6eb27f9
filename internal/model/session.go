package model

import "time"

// Session is the server-side half of a signed-in browser.
// The browser only holds the opaque session ID in a cookie.
type Session struct {
	ID           string    `json:"-"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NeedsRefresh reports whether the access token expires within the window.
func (s *Session) NeedsRefresh(window time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(window).After(s.ExpiresAt)
}

// AuthTokens is what the BaaS returns on sign-in, refresh or verify.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user"`
}

// Expiry resolves the absolute expiry, preferring expires_at.
func (t *AuthTokens) Expiry(now time.Time) time.Time {
	if t.ExpiresAt > 0 {
		return time.Unix(t.ExpiresAt, 0)
	}
	if t.ExpiresIn > 0 {
		return now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

// ToSession builds a Session from freshly issued tokens.
func (t *AuthTokens) ToSession(id string, now time.Time) *Session {
	s := &Session{
		ID:           id,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.Expiry(now),
	}
	if t.User != nil {
		s.UserID = t.User.ID
		s.Email = t.User.Email
	}
	return s
}
