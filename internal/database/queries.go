package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/textsimplify/api/pkg/models"
)

// ErrQueryNotFound is returned when a query does not exist or belongs to a
// different user. Ownership failures are indistinguishable from absence.
var ErrQueryNotFound = errors.New("query not found")

// CreateQuery creates a new query record
func (r *Repository) CreateQuery(ctx context.Context, q *models.Query) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}

	query := `
		INSERT INTO queries (id, user_id, original_text, level, simplified_text, key_points, reading_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		q.ID, q.UserID, q.OriginalText, q.Level, q.SimplifiedText,
		q.KeyPoints, q.ReadingLevel,
	).Scan(&q.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create query: %w", err)
	}

	return nil
}

// ListQueriesByUser retrieves the user's queries newest first with pagination
func (r *Repository) ListQueriesByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Query, error) {
	query := `
		SELECT id, user_id, original_text, level, simplified_text, key_points, reading_level, created_at
		FROM queries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer rows.Close()

	var queries []*models.Query
	for rows.Next() {
		var q models.Query
		err := rows.Scan(&q.ID, &q.UserID, &q.OriginalText, &q.Level,
			&q.SimplifiedText, &q.KeyPoints, &q.ReadingLevel, &q.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		queries = append(queries, &q)
	}

	return queries, nil
}

// CountQueriesByUser returns the user's total query count
func (r *Repository) CountQueriesByUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM queries WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count queries: %w", err)
	}
	return total, nil
}

// GetQueryByID retrieves a single query scoped to its owner
func (r *Repository) GetQueryByID(ctx context.Context, userID, id string) (*models.Query, error) {
	query := `
		SELECT id, user_id, original_text, level, simplified_text, key_points, reading_level, created_at
		FROM queries
		WHERE id = $1 AND user_id = $2
	`

	var q models.Query
	err := r.db.Pool.QueryRow(ctx, query, id, userID).Scan(
		&q.ID, &q.UserID, &q.OriginalText, &q.Level,
		&q.SimplifiedText, &q.KeyPoints, &q.ReadingLevel, &q.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrQueryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get query: %w", err)
	}

	return &q, nil
}

// DeleteQuery deletes a query scoped to its owner
func (r *Repository) DeleteQuery(ctx context.Context, userID, id string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM queries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete query: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQueryNotFound
	}
	return nil
}
