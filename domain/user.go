// Package domain contains core concepts of the messaging system.
// This file defines User entities and their public projection.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// User is the full account record as persisted.
// PasswordHash never leaves the repository/service layers.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Roles        []string  `json:"roles"`
	IsOnline     bool      `json:"is_online"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is what other users are allowed to see in the directory.
type PublicUser struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
	IsOnline  bool   `json:"is_online"`
}

// Public strips credentials and private fields.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
		IsOnline:  u.IsOnline,
	}
}
