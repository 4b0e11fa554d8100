package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository defines the notification repository interface
type Repository interface {
	Create(ctx context.Context, profileID int64, kind string, payload json.RawMessage) (*Notification, error)
	ListForProfile(ctx context.Context, profileID int64, unreadOnly bool, limit, offset int) ([]*Notification, error)
	MarkRead(ctx context.Context, id, profileID int64) error
	MarkAllRead(ctx context.Context, profileID int64) error
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, profileID int64, kind string, payload json.RawMessage) (*Notification, error) {
	query := `
		INSERT INTO notifications (profile_id, kind, payload, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, profile_id, kind, payload, read_at, created_at`

	var n Notification
	err := r.db.QueryRowxContext(ctx, query, profileID, kind, payload).StructScan(&n)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return &n, nil
}

func (r *postgresRepository) ListForProfile(ctx context.Context, profileID int64, unreadOnly bool, limit, offset int) ([]*Notification, error) {
	query := `
		SELECT id, profile_id, kind, payload, read_at, created_at
		FROM notifications
		WHERE profile_id = $1`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	var notifications []*Notification
	err := r.db.SelectContext(ctx, &notifications, query, profileID, limit, offset)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *postgresRepository) MarkRead(ctx context.Context, id, profileID int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read_at = NOW()
		WHERE id = $1 AND profile_id = $2 AND read_at IS NULL`,
		id, profileID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *postgresRepository) MarkAllRead(ctx context.Context, profileID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read_at = NOW()
		WHERE profile_id = $1 AND read_at IS NULL`,
		profileID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
