package profile

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines the profile repository interface
type Repository interface {
	CreateProfile(ctx context.Context, userID int64, req *CreateProfileRequest, dob *time.Time) (*Profile, error)
	GetProfileByID(ctx context.Context, id int64) (*Profile, error)
	GetProfileByUserID(ctx context.Context, userID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest, dob *time.Time) (*Profile, error)
	UpdateAvailability(ctx context.Context, userID int64, from, to time.Time) error
	SetApproved(ctx context.Context, id int64) error

	// Delete-account guards
	CountLiveHostedEvents(ctx context.Context, profileID int64, now time.Time) (int, error)
	CountUpcomingHostedEventsWithAttendees(ctx context.Context, profileID int64, now time.Time) (int, error)
	CountLiveAttendedEvents(ctx context.Context, profileID int64, now time.Time) (int, error)
	DeleteProfileCascade(ctx context.Context, userID int64, profileID int64) error
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// CreateProfile inserts a new profile for a user
func (r *postgresRepository) CreateProfile(ctx context.Context, userID int64, req *CreateProfileRequest, dob *time.Time) (*Profile, error) {
	query := `
		INSERT INTO profiles (
			user_id, full_name, phone, date_of_birth, bio, profession,
			industry, gender, interests, goals, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, user_id, full_name, phone, date_of_birth, bio, profession,
			industry, gender, interests, goals, profile_pictures, address,
			latitude, longitude, available_from, available_to, is_approved,
			created_at, updated_at`

	var profile Profile
	err := r.db.QueryRowxContext(ctx, query,
		userID, req.FullName, req.Phone, dob, req.Bio, req.Profession,
		req.Industry, req.Gender, pq.Array(req.Interests), pq.Array(req.Goals),
	).StructScan(&profile)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return &profile, nil
}

// GetProfileByID retrieves a profile by its id
func (r *postgresRepository) GetProfileByID(ctx context.Context, id int64) (*Profile, error) {
	var profile Profile
	query := `SELECT * FROM profiles WHERE id = $1`

	err := r.db.GetContext(ctx, &profile, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

// GetProfileByUserID retrieves the profile belonging to a user
func (r *postgresRepository) GetProfileByUserID(ctx context.Context, userID int64) (*Profile, error) {
	var profile Profile
	query := `SELECT * FROM profiles WHERE user_id = $1`

	err := r.db.GetContext(ctx, &profile, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

// UpdateProfile applies a partial update to a user's profile
func (r *postgresRepository) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest, dob *time.Time) (*Profile, error) {
	var setClauses []string
	var args []interface{}
	argCount := 1

	if req.FullName != nil {
		setClauses = append(setClauses, fmt.Sprintf("full_name = $%d", argCount))
		args = append(args, *req.FullName)
		argCount++
	}
	if req.Phone != nil {
		setClauses = append(setClauses, fmt.Sprintf("phone = $%d", argCount))
		args = append(args, *req.Phone)
		argCount++
	}
	if dob != nil {
		setClauses = append(setClauses, fmt.Sprintf("date_of_birth = $%d", argCount))
		args = append(args, *dob)
		argCount++
	}
	if req.Bio != nil {
		setClauses = append(setClauses, fmt.Sprintf("bio = $%d", argCount))
		args = append(args, *req.Bio)
		argCount++
	}
	if req.Profession != nil {
		setClauses = append(setClauses, fmt.Sprintf("profession = $%d", argCount))
		args = append(args, *req.Profession)
		argCount++
	}
	if req.Industry != nil {
		setClauses = append(setClauses, fmt.Sprintf("industry = $%d", argCount))
		args = append(args, *req.Industry)
		argCount++
	}
	if req.Gender != nil {
		setClauses = append(setClauses, fmt.Sprintf("gender = $%d", argCount))
		args = append(args, *req.Gender)
		argCount++
	}
	if req.Interests != nil {
		setClauses = append(setClauses, fmt.Sprintf("interests = $%d", argCount))
		args = append(args, pq.Array(req.Interests))
		argCount++
	}
	if req.Goals != nil {
		setClauses = append(setClauses, fmt.Sprintf("goals = $%d", argCount))
		args = append(args, pq.Array(req.Goals))
		argCount++
	}
	if req.ProfilePictures != nil {
		setClauses = append(setClauses, fmt.Sprintf("profile_pictures = $%d", argCount))
		args = append(args, pq.Array(req.ProfilePictures))
		argCount++
	}
	if req.Address != nil {
		setClauses = append(setClauses, fmt.Sprintf("address = $%d", argCount))
		args = append(args, *req.Address)
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

	if len(setClauses) == 0 {
		return r.GetProfileByUserID(ctx, userID)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, userID)

	query := fmt.Sprintf(`
		UPDATE profiles SET %s WHERE user_id = $%d
		RETURNING id, user_id, full_name, phone, date_of_birth, bio, profession,
			industry, gender, interests, goals, profile_pictures, address,
			latitude, longitude, available_from, available_to, is_approved,
			created_at, updated_at`,
		strings.Join(setClauses, ", "), argCount)

	var profile Profile
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&profile)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return &profile, nil
}

// UpdateAvailability persists the window a diner is free to attend events
func (r *postgresRepository) UpdateAvailability(ctx context.Context, userID int64, from, to time.Time) error {
	query := `
		UPDATE profiles SET available_from = $1, available_to = $2, updated_at = NOW()
		WHERE user_id = $3`

	result, err := r.db.ExecContext(ctx, query, from, to, userID)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// SetApproved marks a profile as approved
func (r *postgresRepository) SetApproved(ctx context.Context, id int64) error {
	query := `UPDATE profiles SET is_approved = true, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to approve profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// CountLiveHostedEvents counts events hosted by the profile that are in progress
func (r *postgresRepository) CountLiveHostedEvents(ctx context.Context, profileID int64, now time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM events
		WHERE host_id = $1
		  AND status NOT IN ('completed', 'cancelled')
		  AND start_date <= $2
		  AND end_date >= $2`

	if err := r.db.GetContext(ctx, &count, query, profileID, now); err != nil {
		return 0, fmt.Errorf("failed to count live hosted events: %w", err)
	}

	return count, nil
}

// CountUpcomingHostedEventsWithAttendees counts future hosted events that
// already have seats taken.
func (r *postgresRepository) CountUpcomingHostedEventsWithAttendees(ctx context.Context, profileID int64, now time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM events e
		WHERE e.host_id = $1
		  AND e.status NOT IN ('completed', 'cancelled')
		  AND e.start_date > $2
		  AND EXISTS (
			SELECT 1 FROM event_participations p WHERE p.event_id = e.id
		  )`

	if err := r.db.GetContext(ctx, &count, query, profileID, now); err != nil {
		return 0, fmt.Errorf("failed to count upcoming hosted events: %w", err)
	}

	return count, nil
}

// CountLiveAttendedEvents counts in-progress events the profile is attending
func (r *postgresRepository) CountLiveAttendedEvents(ctx context.Context, profileID int64, now time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM events e
		JOIN event_participations p ON p.event_id = e.id
		WHERE p.profile_id = $1
		  AND e.status NOT IN ('completed', 'cancelled')
		  AND e.start_date <= $2
		  AND e.end_date >= $2`

	if err := r.db.GetContext(ctx, &count, query, profileID, now); err != nil {
		return 0, fmt.Errorf("failed to count live attended events: %w", err)
	}

	return count, nil
}

// DeleteProfileCascade removes the profile, its participations, dining
// records and the owning user inside one transaction.
func (r *postgresRepository) DeleteProfileCascade(ctx context.Context, userID int64, profileID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Free up seats on events the profile was attending
	if _, err := tx.ExecContext(ctx, `
		UPDATE events SET slots = slots + 1, updated_at = NOW()
		WHERE id IN (SELECT event_id FROM event_participations WHERE profile_id = $1)
		  AND slots < capacity`, profileID); err != nil {
		return fmt.Errorf("failed to release event slots: %w", err)
	}

	statements := []string{
		`DELETE FROM event_participations WHERE profile_id = $1`,
		`DELETE FROM event_reviews WHERE profile_id = $1`,
		`DELETE FROM dining_reviews WHERE profile_id = $1`,
		`DELETE FROM dining_join_requests WHERE requester_id = $1`,
		`DELETE FROM personal_dining WHERE host_id = $1 OR guest_id = $1`,
		`DELETE FROM events WHERE host_id = $1`,
		`DELETE FROM profiles WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, profileID); err != nil {
			return fmt.Errorf("failed to cascade delete profile: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return tx.Commit()
}
