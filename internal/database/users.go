package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/textsimplify/api/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

var (
	// ErrDuplicateEmail is returned when registering an email that is taken
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUserNotFound is returned when no matching user exists
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidToken is returned when a reset/verification token does not
	// match any user or has expired
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Users

// CreateUser creates a new user record with a hashed password
func (r *Repository) CreateUser(ctx context.Context, user *models.User, password string) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	query := `
		INSERT INTO users (id, email, password_hash, name, role, email_verified, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Role,
		user.EmailVerified, user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

const userColumns = `id, email, password_hash, name, role,
	       coalesce(reset_token_hash, ''), reset_token_expires,
	       coalesce(verify_token_hash, ''), verify_token_expires,
	       email_verified, is_active, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Role,
		&user.ResetTokenHash, &user.ResetTokenExp,
		&user.VerifyTokenHash, &user.VerifyTokenExp,
		&user.EmailVerified, &user.IsActive, &user.LastLogin,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by lowercase email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.Pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

// GetUserByID retrieves a user by ID
func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.Pool.QueryRow(ctx, query, id))
}

// UpdateLastLogin stamps the user's last login time
func (r *Repository) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET last_login = now(), updated_at = now() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// UpdatePassword overwrites the user's password hash
func (r *Repository) UpdatePassword(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		userID, string(hash))
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateProfile updates name and email only
func (r *Repository) UpdateProfile(ctx context.Context, userID, name, email string) (*models.User, error) {
	query := `
		UPDATE users SET name = $2, email = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query,
		userID, name, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

// Reset and verification tokens

// IssueResetToken generates a password reset token for the user, stores its
// hash with a 30 minute expiry, and returns the raw value
func (r *Repository) IssueResetToken(ctx context.Context, userID string) (string, error) {
	raw, hash, err := generateSecret()
	if err != nil {
		return "", err
	}

	expires := time.Now().Add(30 * time.Minute)
	_, err = r.db.Pool.Exec(ctx,
		`UPDATE users SET reset_token_hash = $2, reset_token_expires = $3, updated_at = now() WHERE id = $1`,
		userID, hash, expires)
	if err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	return raw, nil
}

// ClearResetToken removes any outstanding reset token, e.g. after a failed
// email delivery
func (r *Repository) ClearResetToken(ctx context.Context, userID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET reset_token_hash = NULL, reset_token_expires = NULL, updated_at = now() WHERE id = $1`,
		userID)
	if err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}
	return nil
}

// ResetPassword consumes an unexpired reset token: the password hash is
// overwritten and the token fields cleared in one statement
func (r *Repository) ResetPassword(ctx context.Context, rawToken, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, reset_token_hash = NULL, reset_token_expires = NULL, updated_at = now()
		WHERE reset_token_hash = $1 AND reset_token_expires > now()
	`, hashSecret(rawToken), string(hash))
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidToken
	}
	return nil
}

// IssueVerifyToken generates an email verification token for the user,
// stores its hash with a 24 hour expiry, and returns the raw value
func (r *Repository) IssueVerifyToken(ctx context.Context, userID string) (string, error) {
	raw, hash, err := generateSecret()
	if err != nil {
		return "", err
	}

	expires := time.Now().Add(24 * time.Hour)
	_, err = r.db.Pool.Exec(ctx,
		`UPDATE users SET verify_token_hash = $2, verify_token_expires = $3, updated_at = now() WHERE id = $1`,
		userID, hash, expires)
	if err != nil {
		return "", fmt.Errorf("failed to store verification token: %w", err)
	}

	return raw, nil
}

// ClearVerifyToken removes any outstanding verification token
func (r *Repository) ClearVerifyToken(ctx context.Context, userID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET verify_token_hash = NULL, verify_token_expires = NULL, updated_at = now() WHERE id = $1`,
		userID)
	if err != nil {
		return fmt.Errorf("failed to clear verification token: %w", err)
	}
	return nil
}

// VerifyEmail consumes an unexpired verification token and marks the email
// as verified
func (r *Repository) VerifyEmail(ctx context.Context, rawToken string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE users
		SET email_verified = true, verify_token_hash = NULL, verify_token_expires = NULL, updated_at = now()
		WHERE verify_token_hash = $1 AND verify_token_expires > now()
	`, hashSecret(rawToken))
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidToken
	}
	return nil
}

// API keys

// CreateAPIKey issues a new API key for the user and returns the raw secret
func (r *Repository) CreateAPIKey(ctx context.Context, userID, name string) (string, *models.APIKey, error) {
	raw, hash, err := generateSecret()
	if err != nil {
		return "", nil, err
	}

	key := &models.APIKey{
		ID:       uuid.New().String(),
		UserID:   userID,
		KeyHash:  hash,
		Name:     name,
		IsActive: true,
	}

	query := `
		INSERT INTO api_keys (id, user_id, key_hash, name, is_active, usage_count)
		VALUES ($1, $2, $3, $4, $5, 0)
		RETURNING created_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		key.ID, key.UserID, key.KeyHash, key.Name, key.IsActive,
	).Scan(&key.CreatedAt)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create api key: %w", err)
	}

	return raw, key, nil
}

// ListAPIKeys retrieves the user's API keys, oldest first. Secrets are
// never retrievable.
func (r *Repository) ListAPIKeys(ctx context.Context, userID string) ([]*models.APIKey, error) {
	query := `
		SELECT id, user_id, name, created_at, last_used, is_active, usage_count
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var key models.APIKey
		err := rows.Scan(&key.ID, &key.UserID, &key.Name, &key.CreatedAt,
			&key.LastUsed, &key.IsActive, &key.UsageCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, &key)
	}

	return keys, nil
}

// ValidateAPIKey resolves a raw API key to its owning user. The key and the
// user must both be active. Usage stats are bumped on success.
func (r *Repository) ValidateAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	var userID, keyID string

	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, user_id FROM api_keys
		WHERE key_hash = $1 AND is_active = true
	`, hashSecret(apiKey)).Scan(&keyID, &userID)
	if err == pgx.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up api key: %w", err)
	}

	user, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	_, err = r.db.Pool.Exec(ctx,
		`UPDATE api_keys SET last_used = now(), usage_count = usage_count + 1 WHERE id = $1`, keyID)
	if err != nil {
		return nil, fmt.Errorf("failed to update api key usage: %w", err)
	}

	return user, nil
}
