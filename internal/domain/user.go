package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated principal. A user always has at least
// one authentication method: a password hash, or an OAuth-linked account.
type User struct {
	ID                 uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	Email              string            `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash       *string           `json:"-" gorm:"column:password_hash"`
	OAuthLinked        bool              `json:"oauth_linked" gorm:"column:oauth_linked;not null;default:false"`
	ConnectedPlatforms map[string]string `json:"connected_platforms" gorm:"serializer:json"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// HasCredential reports whether password authentication is enabled.
func (u *User) HasCredential() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Authenticatable reports whether the user satisfies the invariant that at
// least one authentication method exists.
func (u *User) Authenticatable() bool {
	return u.HasCredential() || u.OAuthLinked
}
