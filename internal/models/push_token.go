package models

import (
	"strings"
	"time"
)

const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

// Structural bounds for provider-issued registration tokens. Anything
// outside this range cannot be a live token and is filtered before any
// network round trip.
const (
	minTokenLength = 50
	maxTokenLength = 500
)

// PushToken is one registered device endpoint for a user.
type PushToken struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UserID     string    `gorm:"size:64;not null;uniqueIndex:idx_user_token" json:"user_id"`
	Token      string    `gorm:"size:512;not null;uniqueIndex:idx_user_token" json:"token"`
	Platform   string    `gorm:"size:10;not null" json:"platform"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Valid reports whether the token is structurally plausible: non-empty,
// sane length, known platform. This is a cheap pre-filter, not provider
// validation.
func (t PushToken) Valid() bool {
	n := len(t.Token)
	if n < minTokenLength || n > maxTokenLength {
		return false
	}
	switch strings.ToLower(t.Platform) {
	case PlatformIOS, PlatformAndroid:
		return true
	default:
		return false
	}
}

// IsIOS reports whether the token belongs to an iOS device.
func (t PushToken) IsIOS() bool {
	return strings.ToLower(t.Platform) == PlatformIOS
}
