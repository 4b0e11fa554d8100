package dining

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tablemates/tablemates-backend/internal/common/timeslot"
)

// Repository defines the dining repository interface
type Repository interface {
	Create(ctx context.Context, d *Dining) (*Dining, error)
	GetByID(ctx context.Context, id int64) (*Dining, error)
	ListForProfile(ctx context.Context, profileID int64, limit, offset int) ([]*Dining, error)

	// AcceptedWindows returns the time windows of all accepted or
	// confirmed engagements a profile participates in.
	AcceptedWindows(ctx context.Context, profileID int64) ([]TimeWindow, error)

	// Conditional status updates. Each returns ErrInvalidState when the
	// expected prior state no longer holds.
	AcceptDirect(ctx context.Context, id, guestID int64) error
	Decline(ctx context.Context, id int64) error
	Confirm(ctx context.Context, id int64) error
	Cancel(ctx context.Context, id int64, from DiningStatus, reason string) error
	Complete(ctx context.Context, id int64, from DiningStatus, bill, commission, discount float64) error
	MarkExpired(ctx context.Context, id int64) error
	SweepExpired(ctx context.Context, now time.Time) (int64, error)

	CreateJoinRequest(ctx context.Context, diningID, requesterID int64) (*JoinRequest, error)
	GetJoinRequest(ctx context.Context, id int64) (*JoinRequest, error)
	ListJoinRequests(ctx context.Context, diningID int64) ([]*JoinRequest, error)
	AcceptJoinRequest(ctx context.Context, diningID, requestID, requesterID int64) error
	DeclineJoinRequest(ctx context.Context, requestID int64) error

	AddReview(ctx context.Context, diningID, profileID int64, rating int, comment *string) (*Review, error)
	GetReviews(ctx context.Context, diningID int64) ([]*Review, error)

	MapListing(ctx context.Context, slot timeslot.Slot, now time.Time) ([]*MapEntry, error)
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const diningColumns = `
	id, host_id, guest_id, restaurant_id, date, time, estimated_duration,
	type, status, bill, commission, discount, cancel_reason, cancelled_at,
	expires_at, created_at, updated_at`

// Create inserts a new engagement in pending status
func (r *postgresRepository) Create(ctx context.Context, d *Dining) (*Dining, error) {
	query := fmt.Sprintf(`
		INSERT INTO personal_dining (
			host_id, guest_id, restaurant_id, date, time, estimated_duration,
			type, status, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING %s`, diningColumns)

	var created Dining
	err := r.db.QueryRowxContext(ctx, query,
		d.HostID, d.GuestID, d.RestaurantID, d.Date, d.Time, d.EstimatedDuration,
		d.Type, d.Status, d.ExpiresAt,
	).StructScan(&created)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to create dining: %w", err)
	}

	return &created, nil
}

// GetByID retrieves an engagement by id
func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Dining, error) {
	var d Dining
	query := fmt.Sprintf(`SELECT %s FROM personal_dining WHERE id = $1`, diningColumns)

	err := r.db.GetContext(ctx, &d, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dining: %w", err)
	}

	return &d, nil
}

// ListForProfile retrieves engagements where the profile is host or guest
func (r *postgresRepository) ListForProfile(ctx context.Context, profileID int64, limit, offset int) ([]*Dining, error) {
	var dinings []*Dining
	query := fmt.Sprintf(`
		SELECT %s FROM personal_dining
		WHERE host_id = $1 OR guest_id = $1
		ORDER BY date DESC, time DESC
		LIMIT $2 OFFSET $3`, diningColumns)

	if err := r.db.SelectContext(ctx, &dinings, query, profileID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list dinings: %w", err)
	}

	return dinings, nil
}

// AcceptedWindows gathers the buffered-conflict obligations of a profile
func (r *postgresRepository) AcceptedWindows(ctx context.Context, profileID int64) ([]TimeWindow, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, date, time, estimated_duration
		FROM personal_dining
		WHERE (host_id = $1 OR guest_id = $1)
		  AND status IN ('accepted', 'confirmed')`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accepted windows: %w", err)
	}
	defer rows.Close()

	var windows []TimeWindow
	for rows.Next() {
		var (
			id       int64
			date     time.Time
			wall     string
			duration int
		)
		if err := rows.Scan(&id, &date, &wall, &duration); err != nil {
			return nil, err
		}
		start := combineDateTime(date, wall)
		windows = append(windows, TimeWindow{
			ID:    id,
			Start: start,
			End:   start.Add(time.Duration(duration) * time.Minute),
		})
	}

	return windows, rows.Err()
}

// AcceptDirect moves a pending direct invitation to accepted, guarded on
// the pre-assigned guest and prior status.
func (r *postgresRepository) AcceptDirect(ctx context.Context, id, guestID int64) error {
	return r.conditionalUpdate(ctx, `
		UPDATE personal_dining SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND guest_id = $2`, id, guestID)
}

// Decline moves a pending invitation to declined
func (r *postgresRepository) Decline(ctx context.Context, id int64) error {
	return r.conditionalUpdate(ctx, `
		UPDATE personal_dining SET status = 'declined', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id)
}

// Confirm moves an accepted engagement to confirmed
func (r *postgresRepository) Confirm(ctx context.Context, id int64) error {
	return r.conditionalUpdate(ctx, `
		UPDATE personal_dining SET status = 'confirmed', updated_at = NOW()
		WHERE id = $1 AND status = 'accepted'`, id)
}

// Cancel records the reason and timestamp, guarded on the prior status
func (r *postgresRepository) Cancel(ctx context.Context, id int64, from DiningStatus, reason string) error {
	return r.conditionalUpdate(ctx, `
		UPDATE personal_dining SET
			status = 'cancelled', cancel_reason = $3, cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $2`, id, from, reason)
}

// Complete closes out the engagement with bill, commission and discount
func (r *postgresRepository) Complete(ctx context.Context, id int64, from DiningStatus, bill, commission, discount float64) error {
	return r.conditionalUpdate(ctx, `
		UPDATE personal_dining SET
			status = 'completed', bill = $3, commission = $4, discount = $5, updated_at = NOW()
		WHERE id = $1 AND status = $2`, id, from, bill, commission, discount)
}

// MarkExpired lazily cancels a pending engagement whose expiry passed
func (r *postgresRepository) MarkExpired(ctx context.Context, id int64) error {
	return r.conditionalUpdate(ctx, `
		UPDATE personal_dining SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND expires_at < NOW()`, id)
}

// SweepExpired cancels every overdue pending engagement and reports the count
func (r *postgresRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE personal_dining SET status = 'cancelled', updated_at = NOW()
		WHERE status = 'pending' AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired dinings: %w", err)
	}

	return result.RowsAffected()
}

func (r *postgresRepository) conditionalUpdate(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update dining: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvalidState
	}

	return nil
}

// CreateJoinRequest records a pending request. A partial unique index on
// (dining_id, requester_id) WHERE status = 'pending' blocks duplicate
// outstanding requests while letting declined requesters try again.
func (r *postgresRepository) CreateJoinRequest(ctx context.Context, diningID, requesterID int64) (*JoinRequest, error) {
	var req JoinRequest
	query := `
		INSERT INTO dining_join_requests (dining_id, requester_id, status, created_at, updated_at)
		VALUES ($1, $2, 'pending', NOW(), NOW())
		RETURNING id, dining_id, requester_id, status, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, diningID, requesterID).StructScan(&req)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return nil, ErrDuplicateRequest
			case "23503":
				return nil, ErrNotFound
			}
		}
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}

	return &req, nil
}

// GetJoinRequest retrieves a join request by id
func (r *postgresRepository) GetJoinRequest(ctx context.Context, id int64) (*JoinRequest, error) {
	var req JoinRequest
	query := `
		SELECT id, dining_id, requester_id, status, created_at, updated_at
		FROM dining_join_requests WHERE id = $1`

	err := r.db.GetContext(ctx, &req, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get join request: %w", err)
	}

	return &req, nil
}

// ListJoinRequests retrieves all requests on an engagement, oldest first
func (r *postgresRepository) ListJoinRequests(ctx context.Context, diningID int64) ([]*JoinRequest, error) {
	var reqs []*JoinRequest
	query := `
		SELECT id, dining_id, requester_id, status, created_at, updated_at
		FROM dining_join_requests
		WHERE dining_id = $1
		ORDER BY created_at ASC`

	if err := r.db.SelectContext(ctx, &reqs, query, diningID); err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}

	return reqs, nil
}

// AcceptJoinRequest performs the arbitration inside one transaction:
// the winning request is accepted, the engagement takes the requester as
// guest and moves to accepted, and every other pending request on the
// same engagement is declined. Each step is guarded on the expected
// prior state so a concurrent accept loses cleanly.
func (r *postgresRepository) AcceptJoinRequest(ctx context.Context, diningID, requestID, requesterID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE personal_dining SET guest_id = $2, status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND guest_id IS NULL`, diningID, requesterID)
	if err != nil {
		return fmt.Errorf("failed to assign guest: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvalidState
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE dining_join_requests SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, requestID)
	if err != nil {
		return fmt.Errorf("failed to accept join request: %w", err)
	}
	rows, err = result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE dining_join_requests SET status = 'declined', updated_at = NOW()
		WHERE dining_id = $1 AND id != $2 AND status = 'pending'`, diningID, requestID); err != nil {
		return fmt.Errorf("failed to decline competing requests: %w", err)
	}

	return tx.Commit()
}

// DeclineJoinRequest declines a single pending request
func (r *postgresRepository) DeclineJoinRequest(ctx context.Context, requestID int64) error {
	return r.conditionalUpdate(ctx, `
		UPDATE dining_join_requests SET status = 'declined', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, requestID)
}

// AddReview records one review per participant per engagement, enforced
// by a unique index on (dining_id, profile_id).
func (r *postgresRepository) AddReview(ctx context.Context, diningID, profileID int64, rating int, comment *string) (*Review, error) {
	var review Review
	query := `
		INSERT INTO dining_reviews (dining_id, profile_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, dining_id, profile_id, rating, comment, created_at`

	err := r.db.QueryRowxContext(ctx, query, diningID, profileID, rating, comment).StructScan(&review)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	return &review, nil
}

// GetReviews retrieves the reviews on an engagement
func (r *postgresRepository) GetReviews(ctx context.Context, diningID int64) ([]*Review, error) {
	var reviews []*Review
	query := `
		SELECT id, dining_id, profile_id, rating, comment, created_at
		FROM dining_reviews
		WHERE dining_id = $1
		ORDER BY created_at ASC`

	if err := r.db.SelectContext(ctx, &reviews, query, diningID); err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}

// MapListing retrieves open, unexpired, guestless engagements for the
// discovery map, optionally filtered to a time slot.
func (r *postgresRepository) MapListing(ctx context.Context, slot timeslot.Slot, now time.Time) ([]*MapEntry, error) {
	query := `
		SELECT d.id, d.host_id, d.restaurant_id, r.name AS restaurant,
			r.latitude, r.longitude, d.date, d.time
		FROM personal_dining d
		JOIN restaurants r ON r.id = d.restaurant_id
		WHERE d.type = 'open'
		  AND d.status = 'pending'
		  AND d.guest_id IS NULL
		  AND (d.expires_at IS NULL OR d.expires_at >= $1)
		  AND d.date >= $1::date`
	if timeslot.Valid(slot) {
		query += " AND " + timeslot.RangeCondition(slot, "d.time")
	}
	query += " ORDER BY d.date ASC, d.time ASC"

	var entries []*MapEntry
	if err := r.db.SelectContext(ctx, &entries, query, now); err != nil {
		return nil, fmt.Errorf("failed to get map listing: %w", err)
	}

	return entries, nil
}
