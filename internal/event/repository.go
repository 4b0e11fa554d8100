package event

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines the event repository interface
type Repository interface {
	Create(ctx context.Context, e *Event) (*Event, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context, filter *ListFilter) ([]*Event, error)
	Update(ctx context.Context, id int64, req *UpdateEventRequest, start, end *time.Time) (*Event, error)
	DeleteCascade(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, from, to EventStatus) error

	Join(ctx context.Context, eventID, profileID int64) error
	Leave(ctx context.Context, eventID, profileID int64) error
	GetParticipants(ctx context.Context, eventID int64) ([]*Participation, error)
	IsAttending(ctx context.Context, eventID, profileID int64) (bool, error)
	GetAttendedEventIDs(ctx context.Context, profileID int64) ([]int64, error)
	ListAttending(ctx context.Context, profileID int64, limit, offset int) ([]*Event, error)

	SuggestionCandidates(ctx context.Context, profileID int64, now, availFrom, availTo time.Time) ([]*Event, error)
	RelaxedSuggestionCandidates(ctx context.Context, profileID int64, now time.Time) ([]*Event, error)

	AddReview(ctx context.Context, eventID, profileID int64, rating int, comment *string) (*Review, error)
	GetReviews(ctx context.Context, eventID int64, limit, offset int) ([]*Review, error)
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const eventColumns = `
	id, host_id, restaurant_id, title, description, pictures,
	start_date, end_date, capacity, slots, ticket_price,
	latitude, longitude, address, visibility, status, created_at, updated_at`

// Create inserts a new event with slots initialized to capacity
func (r *postgresRepository) Create(ctx context.Context, e *Event) (*Event, error) {
	query := fmt.Sprintf(`
		INSERT INTO events (
			host_id, restaurant_id, title, description, pictures,
			start_date, end_date, capacity, slots, ticket_price,
			latitude, longitude, address, visibility, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING %s`, eventColumns)

	var created Event
	err := r.db.QueryRowxContext(ctx, query,
		e.HostID, e.RestaurantID, e.Title, e.Description, pq.Array(e.Pictures),
		e.StartDate, e.EndDate, e.Capacity, e.TicketPrice,
		e.Latitude, e.Longitude, e.Address, e.Visibility, e.Status,
	).StructScan(&created)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return &created, nil
}

// GetByID retrieves an event by id
func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Event, error) {
	var e Event
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)

	err := r.db.GetContext(ctx, &e, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &e, nil
}

// List retrieves events matching the filter, soonest first
func (r *postgresRepository) List(ctx context.Context, filter *ListFilter) ([]*Event, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	argCount := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filter.Status)
		argCount++
	}
	if filter.Visibility != nil {
		conditions = append(conditions, fmt.Sprintf("visibility = $%d", argCount))
		args = append(args, *filter.Visibility)
		argCount++
	}
	if filter.HostID != nil {
		conditions = append(conditions, fmt.Sprintf("host_id = $%d", argCount))
		args = append(args, *filter.HostID)
		argCount++
	}
	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*filter.Search+"%")
		argCount++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("start_date >= $%d", argCount))
		args = append(args, *filter.From)
		argCount++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_date <= $%d", argCount))
		args = append(args, *filter.To)
		argCount++
	}
	if filter.MinCapacity != nil {
		conditions = append(conditions, fmt.Sprintf("capacity >= $%d", argCount))
		args = append(args, *filter.MinCapacity)
		argCount++
	}

	query := fmt.Sprintf(`
		SELECT %s FROM events
		WHERE %s
		ORDER BY start_date ASC, id ASC
		LIMIT $%d OFFSET $%d`,
		eventColumns, strings.Join(conditions, " AND "), argCount, argCount+1)
	args = append(args, filter.Limit, filter.Offset)

	var events []*Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

// Update applies a partial update to an event. Capacity changes recompute
// slots so that slots = max(0, capacity - attendee count).
func (r *postgresRepository) Update(ctx context.Context, id int64, req *UpdateEventRequest, start, end *time.Time) (*Event, error) {
	var setClauses []string
	var args []interface{}
	argCount := 1

	if req.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argCount))
		args = append(args, *req.Title)
		argCount++
	}
	if req.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argCount))
		args = append(args, *req.Description)
		argCount++
	}
	if req.Pictures != nil {
		setClauses = append(setClauses, fmt.Sprintf("pictures = $%d", argCount))
		args = append(args, pq.Array(req.Pictures))
		argCount++
	}
	if start != nil {
		setClauses = append(setClauses, fmt.Sprintf("start_date = $%d", argCount))
		args = append(args, *start)
		argCount++
	}
	if end != nil {
		setClauses = append(setClauses, fmt.Sprintf("end_date = $%d", argCount))
		args = append(args, *end)
		argCount++
	}
	if req.Capacity != nil {
		setClauses = append(setClauses, fmt.Sprintf("capacity = $%d", argCount))
		args = append(args, *req.Capacity)
		argCount++
		setClauses = append(setClauses, fmt.Sprintf(
			"slots = GREATEST(0, $%d - (SELECT COUNT(*) FROM event_participations WHERE event_id = events.id))", argCount))
		args = append(args, *req.Capacity)
		argCount++
	}
	if req.TicketPrice != nil {
		setClauses = append(setClauses, fmt.Sprintf("ticket_price = $%d", argCount))
		args = append(args, *req.TicketPrice)
		argCount++
	}
	if req.Latitude != nil {
		setClauses = append(setClauses, fmt.Sprintf("latitude = $%d", argCount))
		args = append(args, *req.Latitude)
		argCount++
	}
	if req.Longitude != nil {
		setClauses = append(setClauses, fmt.Sprintf("longitude = $%d", argCount))
		args = append(args, *req.Longitude)
		argCount++
	}
	if req.Address != nil {
		setClauses = append(setClauses, fmt.Sprintf("address = $%d", argCount))
		args = append(args, *req.Address)
		argCount++
	}
	if req.Visibility != nil {
		setClauses = append(setClauses, fmt.Sprintf("visibility = $%d", argCount))
		args = append(args, *req.Visibility)
		argCount++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE events SET %s WHERE id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argCount, eventColumns)

	var e Event
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&e)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return &e, nil
}

// DeleteCascade removes an event with its participations and reviews
func (r *postgresRepository) DeleteCascade(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM event_participations WHERE event_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete participations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_reviews WHERE event_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrEventNotFound
	}

	return tx.Commit()
}

// SetStatus transitions the event status with a conditional update so
// concurrent writers cannot race each other into an illegal state.
func (r *postgresRepository) SetStatus(ctx context.Context, id int64, from, to EventStatus) error {
	query := `UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to set event status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInvalidTransition
	}

	return nil
}

// Join atomically claims a slot and records the participation. The slot
// decrement is conditional on slots > 0 so two concurrent joins cannot
// both take the last seat.
func (r *postgresRepository) Join(ctx context.Context, eventID, profileID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO event_participations (event_id, profile_id, joined_at)
		VALUES ($1, $2, NOW())`, eventID, profileID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrAlreadyJoined
			case "23503":
				return ErrEventNotFound
			}
		}
		return fmt.Errorf("failed to record participation: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE events SET slots = slots - 1, updated_at = NOW()
		WHERE id = $1 AND slots > 0`, eventID)
	if err != nil {
		return fmt.Errorf("failed to claim slot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrEventFull
	}

	return tx.Commit()
}

// Leave removes the participation and returns the slot, capped at capacity
func (r *postgresRepository) Leave(ctx context.Context, eventID, profileID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM event_participations WHERE event_id = $1 AND profile_id = $2`,
		eventID, profileID)
	if err != nil {
		return fmt.Errorf("failed to remove participation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotAttending
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE events SET slots = slots + 1, updated_at = NOW()
		WHERE id = $1 AND slots < capacity`, eventID); err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}

	return tx.Commit()
}

// GetParticipants retrieves all participations for an event
func (r *postgresRepository) GetParticipants(ctx context.Context, eventID int64) ([]*Participation, error) {
	var participants []*Participation
	query := `
		SELECT id, event_id, profile_id, joined_at
		FROM event_participations
		WHERE event_id = $1
		ORDER BY joined_at ASC`

	if err := r.db.SelectContext(ctx, &participants, query, eventID); err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}

	return participants, nil
}

// IsAttending reports whether a profile attends an event
func (r *postgresRepository) IsAttending(ctx context.Context, eventID, profileID int64) (bool, error) {
	var attending bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM event_participations WHERE event_id = $1 AND profile_id = $2
		)`

	if err := r.db.GetContext(ctx, &attending, query, eventID, profileID); err != nil {
		return false, fmt.Errorf("failed to check attendance: %w", err)
	}

	return attending, nil
}

// GetAttendedEventIDs lists the event ids a profile attends
func (r *postgresRepository) GetAttendedEventIDs(ctx context.Context, profileID int64) ([]int64, error) {
	var ids []int64
	query := `SELECT event_id FROM event_participations WHERE profile_id = $1`

	if err := r.db.SelectContext(ctx, &ids, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to get attended events: %w", err)
	}

	return ids, nil
}

// ListAttending retrieves the events a profile has joined, soonest first
func (r *postgresRepository) ListAttending(ctx context.Context, profileID int64, limit, offset int) ([]*Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM events e
		JOIN event_participations p ON p.event_id = e.id
		WHERE p.profile_id = $1
		ORDER BY e.start_date ASC, e.id ASC
		LIMIT $2 OFFSET $3`, prefixColumns("e"))

	var events []*Event
	if err := r.db.SelectContext(ctx, &events, query, profileID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list attended events: %w", err)
	}

	return events, nil
}

// SuggestionCandidates retrieves events intersecting the availability
// window that the profile could still join.
func (r *postgresRepository) SuggestionCandidates(ctx context.Context, profileID int64, now, availFrom, availTo time.Time) ([]*Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM events e
		WHERE e.status NOT IN ('pending', 'completed', 'cancelled')
		  AND e.slots > 0
		  AND e.start_date >= $2
		  AND e.start_date <= $4
		  AND e.end_date >= $3
		  AND NOT EXISTS (
			SELECT 1 FROM event_participations p
			WHERE p.event_id = e.id AND p.profile_id = $1
		  )`, prefixColumns("e"))

	var events []*Event
	err := r.db.SelectContext(ctx, &events, query, profileID, now, availFrom, availTo)
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion candidates: %w", err)
	}

	return events, nil
}

// RelaxedSuggestionCandidates ignores the availability window and keeps
// only future, joinable events.
func (r *postgresRepository) RelaxedSuggestionCandidates(ctx context.Context, profileID int64, now time.Time) ([]*Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM events e
		WHERE e.status NOT IN ('pending', 'completed', 'cancelled')
		  AND e.slots > 0
		  AND e.start_date >= $2
		  AND NOT EXISTS (
			SELECT 1 FROM event_participations p
			WHERE p.event_id = e.id AND p.profile_id = $1
		  )`, prefixColumns("e"))

	var events []*Event
	err := r.db.SelectContext(ctx, &events, query, profileID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get relaxed suggestion candidates: %w", err)
	}

	return events, nil
}

// AddReview inserts a review for a completed event. The unique index on
// (event_id, profile_id) enforces one review per attendee.
func (r *postgresRepository) AddReview(ctx context.Context, eventID, profileID int64, rating int, comment *string) (*Review, error) {
	var review Review
	query := `
		INSERT INTO event_reviews (event_id, profile_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, event_id, profile_id, rating, comment, created_at`

	err := r.db.QueryRowxContext(ctx, query, eventID, profileID, rating, comment).StructScan(&review)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	return &review, nil
}

// GetReviews retrieves reviews for an event, newest first
func (r *postgresRepository) GetReviews(ctx context.Context, eventID int64, limit, offset int) ([]*Review, error) {
	var reviews []*Review
	query := `
		SELECT id, event_id, profile_id, rating, comment, created_at
		FROM event_reviews
		WHERE event_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	if err := r.db.SelectContext(ctx, &reviews, query, eventID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}

func prefixColumns(alias string) string {
	cols := strings.Split(strings.ReplaceAll(eventColumns, "\n", " "), ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
