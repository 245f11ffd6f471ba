package models

import (
	"time"
)

// User represents a registered account
type User struct {
	ID              string     `json:"id" db:"id"`
	Email           string     `json:"email" db:"email"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	Name            string     `json:"name" db:"name"`
	Role            UserRole   `json:"role" db:"role"`
	ResetTokenHash  string     `json:"-" db:"reset_token_hash"`
	ResetTokenExp   *time.Time `json:"-" db:"reset_token_expires"`
	VerifyTokenHash string     `json:"-" db:"verify_token_hash"`
	VerifyTokenExp  *time.Time `json:"-" db:"verify_token_expires"`
	EmailVerified   bool       `json:"email_verified" db:"email_verified"`
	IsActive        bool       `json:"is_active" db:"is_active"`
	LastLogin       *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// UserRole represents user roles
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// APIKey represents an issued API key. Only the SHA-256 hash of the secret
// is persisted; the raw value is handed out once, at issuance.
type APIKey struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"-" db:"user_id"`
	KeyHash    string     `json:"-" db:"key_hash"`
	Name       string     `json:"name" db:"name"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	LastUsed   *time.Time `json:"last_used" db:"last_used"`
	IsActive   bool       `json:"is_active" db:"is_active"`
	UsageCount int        `json:"usage_count" db:"usage_count"`
}
