// Package entity defines the domain entities for the users feature.
package entity

import (
	"encoding/json"
	"log/slog"
	"time"
)

const redacted = "[REDACTED]"

var redactedJSON, _ = json.Marshal(redacted)

// User represents a registered user in the system.
// Records are created once at signup and never updated afterwards.
type User struct {
	// ID is assigned by the store and never changes.
	ID uint `gorm:"primaryKey"`

	// Email must be unique across all users. Compared case-sensitively.
	Email string `gorm:"uniqueIndex:users_email_key;size:255;not null"`

	// Username must be unique across all users.
	Username string `gorm:"uniqueIndex:users_username_key;size:25;not null"`

	// PasswordHash is the encoded scrypt hash. Never the plaintext.
	PasswordHash PasswordHash `gorm:"column:password_hash;type:text;not null"`

	FullName  *string    `gorm:"size:60"`
	BirthDate *time.Time `gorm:"type:date"`

	// CreatedAt is set by the database default on insert.
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;autoCreateTime:false"`
}

// PasswordHash is an encoded password hash.
// It renders as a redacted placeholder in logs, JSON and formatted output.
type PasswordHash string

func (PasswordHash) String() string               { return redacted }
func (PasswordHash) GoString() string             { return redacted }
func (PasswordHash) LogValue() slog.Value         { return slog.StringValue(redacted) }
func (PasswordHash) MarshalJSON() ([]byte, error) { return redactedJSON, nil }

// Plaintext is a password as typed by the user.
// Like PasswordHash it never renders its content.
type Plaintext string

func (Plaintext) String() string               { return redacted }
func (Plaintext) GoString() string             { return redacted }
func (Plaintext) LogValue() slog.Value         { return slog.StringValue(redacted) }
func (Plaintext) MarshalJSON() ([]byte, error) { return redactedJSON, nil }
