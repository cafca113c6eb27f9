// Package model defines domain entities for the application.
package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Metadata keys read from and written to the BaaS user record.
const (
	MetaFullName    = "full_name"
	MetaName        = "name"
	MetaUsername    = "username"
	MetaDisplayName = "display_name"
	MetaAvatarURL   = "avatar_url"
	MetaPicture     = "picture"
)

// DefaultDisplayName is shown when no name metadata is present.
const DefaultDisplayName = "User"

// User is the identity record owned by the BaaS auth service.
// Only Email and Metadata are consumed; metadata is free-form.
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata"`
}

// DisplayName returns the first non-empty name found in metadata.
func (u *User) DisplayName() string {
	if name := u.firstMeta(MetaFullName, MetaName, MetaUsername, MetaDisplayName); name != "" {
		return name
	}
	return DefaultDisplayName
}

// AvatarURL returns the stored avatar, falling back to an OAuth picture.
func (u *User) AvatarURL() string {
	return u.firstMeta(MetaAvatarURL, MetaPicture)
}

// Initial is the avatar fallback letter.
func (u *User) Initial() string {
	r, _ := utf8.DecodeRuneInString(u.DisplayName())
	if r == utf8.RuneError {
		return "U"
	}
	return string(unicode.ToUpper(r))
}

// MetaString returns a metadata value as a trimmed string.
func (u *User) MetaString(key string) string {
	if u == nil || u.Metadata == nil {
		return ""
	}
	s, ok := u.Metadata[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func (u *User) firstMeta(keys ...string) string {
	for _, k := range keys {
		if v := u.MetaString(k); v != "" {
			return v
		}
	}
	return ""
}

// Profile is the view of a user rendered by the user card and /account/me.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Initial   string `json:"initial"`
}

// ToProfile flattens the metadata fallbacks into a Profile.
func (u *User) ToProfile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.DisplayName(),
		AvatarURL: u.AvatarURL(),
		Initial:   u.Initial(),
	}
}
