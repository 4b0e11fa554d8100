package restaurant

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines the restaurant repository interface
type Repository interface {
	Create(ctx context.Context, req *CreateRestaurantRequest) (*Restaurant, error)
	BulkCreate(ctx context.Context, reqs []CreateRestaurantRequest) ([]*Restaurant, error)
	GetByID(ctx context.Context, id int64) (*Restaurant, error)
	List(ctx context.Context, filter *ListFilter) ([]*Restaurant, error)
	Nearby(ctx context.Context, filter *NearbyFilter) ([]*Restaurant, error)
	EventMap(ctx context.Context, filter *NearbyFilter) ([]*EventMapEntry, error)
	Update(ctx context.Context, id int64, req *UpdateRestaurantRequest) (*Restaurant, error)
	Deactivate(ctx context.Context, id int64) error

	AddReview(ctx context.Context, restaurantID, profileID int64, rating int, comment *string) (*Review, error)
	GetReviews(ctx context.Context, restaurantID int64, limit, offset int) ([]*Review, error)
}

// postgresRepository implements Repository using PostgreSQL
type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

const restaurantColumns = `
	id, name, address, city, latitude, longitude, cuisines, pictures,
	opening_hours, platform_discount, commission_percent, diner_discount,
	average_rating, review_count, is_active, created_at, updated_at`

// Create inserts a new restaurant
func (r *postgresRepository) Create(ctx context.Context, req *CreateRestaurantRequest) (*Restaurant, error) {
	return insertRestaurant(ctx, r.db, req)
}

// BulkCreate inserts several restaurants inside one transaction
func (r *postgresRepository) BulkCreate(ctx context.Context, reqs []CreateRestaurantRequest) ([]*Restaurant, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	restaurants := make([]*Restaurant, 0, len(reqs))
	for i := range reqs {
		restaurant, err := insertRestaurant(ctx, tx, &reqs[i])
		if err != nil {
			return nil, fmt.Errorf("failed to insert restaurant %q: %w", reqs[i].Name, err)
		}
		restaurants = append(restaurants, restaurant)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return restaurants, nil
}

type execer interface {
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

func insertRestaurant(ctx context.Context, db execer, req *CreateRestaurantRequest) (*Restaurant, error) {
	hours := req.OpeningHours
	if hours == nil {
		hours = OpeningHours{}
	}

	query := fmt.Sprintf(`
		INSERT INTO restaurants (
			name, address, city, latitude, longitude, cuisines, pictures,
			opening_hours, platform_discount, commission_percent, diner_discount,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			COALESCE($9, 10), COALESCE($10, 5), COALESCE($11, 5),
			NOW(), NOW()
		)
		RETURNING %s`, restaurantColumns)

	var restaurant Restaurant
	err := db.QueryRowxContext(ctx, query,
		req.Name, req.Address, req.City, req.Latitude, req.Longitude,
		pq.Array(req.Cuisines), pq.Array(req.Pictures), hours,
		req.PlatformDiscount, req.CommissionPercent, req.DinerDiscount,
	).StructScan(&restaurant)
	if err != nil {
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}

	return &restaurant, nil
}

// GetByID retrieves a restaurant by id
func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Restaurant, error) {
	var restaurant Restaurant
	query := fmt.Sprintf(`SELECT %s FROM restaurants WHERE id = $1`, restaurantColumns)

	err := r.db.GetContext(ctx, &restaurant, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}

	return &restaurant, nil
}

// List retrieves active restaurants matching the filter
func (r *postgresRepository) List(ctx context.Context, filter *ListFilter) ([]*Restaurant, error) {
	conditions := []string{"is_active = true"}
	var args []interface{}
	argCount := 1

	if filter.City != nil {
		conditions = append(conditions, fmt.Sprintf("LOWER(city) = LOWER($%d)", argCount))
		args = append(args, *filter.City)
		argCount++
	}
	if filter.Cuisine != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(cuisines)", argCount))
		args = append(args, *filter.Cuisine)
		argCount++
	}
	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argCount))
		args = append(args, "%"+*filter.Search+"%")
		argCount++
	}
	if filter.MinRating != nil {
		conditions = append(conditions, fmt.Sprintf("average_rating >= $%d", argCount))
		args = append(args, *filter.MinRating)
		argCount++
	}

	query := fmt.Sprintf(`
		SELECT %s FROM restaurants
		WHERE %s
		ORDER BY average_rating DESC, id ASC
		LIMIT $%d OFFSET $%d`,
		restaurantColumns, strings.Join(conditions, " AND "), argCount, argCount+1)
	args = append(args, filter.Limit, filter.Offset)

	var restaurants []*Restaurant
	if err := r.db.SelectContext(ctx, &restaurants, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}

	return restaurants, nil
}

// Nearby retrieves active restaurants within the radius, closest first.
// Distance uses the haversine formula with an earth radius of 6371 km.
func (r *postgresRepository) Nearby(ctx context.Context, filter *NearbyFilter) ([]*Restaurant, error) {
	query := fmt.Sprintf(`
		SELECT %s, distance_km FROM (
			SELECT *, 6371 * 2 * ASIN(SQRT(
				POWER(SIN(RADIANS(latitude - $1) / 2), 2) +
				COS(RADIANS($1)) * COS(RADIANS(latitude)) *
				POWER(SIN(RADIANS(longitude - $2) / 2), 2)
			)) AS distance_km
			FROM restaurants
			WHERE is_active = true
		) sub
		WHERE distance_km <= $3
		ORDER BY distance_km ASC
		LIMIT $4`, restaurantColumns)

	var restaurants []*Restaurant
	err := r.db.SelectContext(ctx, &restaurants, query,
		filter.Latitude, filter.Longitude, filter.RadiusKm, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby restaurants: %w", err)
	}

	return restaurants, nil
}

// EventMap retrieves restaurants within the radius that host at least one
// upcoming public event, closest first.
func (r *postgresRepository) EventMap(ctx context.Context, filter *NearbyFilter) ([]*EventMapEntry, error) {
	query := `
		SELECT id, name, address, latitude, longitude, average_rating,
			distance_km, event_count, next_event_at
		FROM (
			SELECT r.id, r.name, r.address, r.latitude, r.longitude, r.average_rating,
				6371 * 2 * ASIN(SQRT(
					POWER(SIN(RADIANS(r.latitude - $1) / 2), 2) +
					COS(RADIANS($1)) * COS(RADIANS(r.latitude)) *
					POWER(SIN(RADIANS(r.longitude - $2) / 2), 2)
				)) AS distance_km,
				COUNT(e.id) AS event_count,
				MIN(e.start_date) AS next_event_at
			FROM restaurants r
			JOIN events e ON e.restaurant_id = r.id
			WHERE r.is_active = true
				AND e.visibility = 'public'
				AND e.status = 'upcoming'
				AND e.start_date >= NOW()
				AND e.slots > 0
			GROUP BY r.id
		) sub
		WHERE distance_km <= $3
		ORDER BY distance_km ASC
		LIMIT $4`

	var entries []*EventMapEntry
	err := r.db.SelectContext(ctx, &entries, query,
		filter.Latitude, filter.Longitude, filter.RadiusKm, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build event map: %w", err)
	}

	return entries, nil
}

// Update applies a partial update to a restaurant
func (r *postgresRepository) Update(ctx context.Context, id int64, req *UpdateRestaurantRequest) (*Restaurant, error) {
	var setClauses []string
	var args []interface{}
	argCount := 1

	if req.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argCount))
		args = append(args, *req.Name)
		argCount++
	}
	if req.Address != nil {
		setClauses = append(setClauses, fmt.Sprintf("address = $%d", argCount))
		args = append(args, *req.Address)
		argCount++
	}
	if req.City != nil {
		setClauses = append(setClauses, fmt.Sprintf("city = $%d", argCount))
		args = append(args, *req.City)
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
	if req.Cuisines != nil {
		setClauses = append(setClauses, fmt.Sprintf("cuisines = $%d", argCount))
		args = append(args, pq.Array(req.Cuisines))
		argCount++
	}
	if req.Pictures != nil {
		setClauses = append(setClauses, fmt.Sprintf("pictures = $%d", argCount))
		args = append(args, pq.Array(req.Pictures))
		argCount++
	}
	if req.OpeningHours != nil {
		setClauses = append(setClauses, fmt.Sprintf("opening_hours = $%d", argCount))
		args = append(args, req.OpeningHours)
		argCount++
	}
	if req.PlatformDiscount != nil {
		setClauses = append(setClauses, fmt.Sprintf("platform_discount = $%d", argCount))
		args = append(args, *req.PlatformDiscount)
		argCount++
	}
	if req.CommissionPercent != nil {
		setClauses = append(setClauses, fmt.Sprintf("commission_percent = $%d", argCount))
		args = append(args, *req.CommissionPercent)
		argCount++
	}
	if req.DinerDiscount != nil {
		setClauses = append(setClauses, fmt.Sprintf("diner_discount = $%d", argCount))
		args = append(args, *req.DinerDiscount)
		argCount++
	}
	if req.IsActive != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", argCount))
		args = append(args, *req.IsActive)
		argCount++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE restaurants SET %s WHERE id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argCount, restaurantColumns)

	var restaurant Restaurant
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&restaurant)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to update restaurant: %w", err)
	}

	return &restaurant, nil
}

// Deactivate marks a restaurant as inactive
func (r *postgresRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE restaurants SET is_active = false, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate restaurant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRestaurantNotFound
	}

	return nil
}

// AddReview inserts a review and recomputes the restaurant's average rating
// inside one transaction.
func (r *postgresRepository) AddReview(ctx context.Context, restaurantID, profileID int64, rating int, comment *string) (*Review, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var review Review
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO restaurant_reviews (restaurant_id, profile_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, restaurant_id, profile_id, rating, comment, created_at`,
		restaurantID, profileID, rating, comment,
	).StructScan(&review)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to add review: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE restaurants SET
			average_rating = sub.avg_rating,
			review_count = sub.total,
			updated_at = NOW()
		FROM (
			SELECT AVG(rating)::numeric(3,2) AS avg_rating, COUNT(*) AS total
			FROM restaurant_reviews WHERE restaurant_id = $1
		) sub
		WHERE id = $1`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to update restaurant rating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &review, nil
}

// GetReviews retrieves reviews for a restaurant, newest first
func (r *postgresRepository) GetReviews(ctx context.Context, restaurantID int64, limit, offset int) ([]*Review, error) {
	var reviews []*Review
	query := `
		SELECT id, restaurant_id, profile_id, rating, comment, created_at
		FROM restaurant_reviews
		WHERE restaurant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	if err := r.db.SelectContext(ctx, &reviews, query, restaurantID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}
