package restaurant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tablemates/tablemates-backend/internal/config"
)

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrInvalidHours       = errors.New("invalid opening hours")
)

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// Service defines the restaurant service interface
type Service interface {
	Create(ctx context.Context, req *CreateRestaurantRequest) (*Restaurant, error)
	BulkCreate(ctx context.Context, req *BulkCreateRequest) ([]*Restaurant, error)
	Get(ctx context.Context, id int64) (*Restaurant, error)
	List(ctx context.Context, filter *ListFilter) ([]*Restaurant, error)
	Nearby(ctx context.Context, filter *NearbyFilter) ([]*Restaurant, error)
	EventMap(ctx context.Context, filter *NearbyFilter) ([]*EventMapEntry, error)
	Update(ctx context.Context, id int64, req *UpdateRestaurantRequest) (*Restaurant, error)
	Deactivate(ctx context.Context, id int64) error
	AddReview(ctx context.Context, restaurantID, profileID int64, req *AddReviewRequest) (*Review, error)
	GetReviews(ctx context.Context, restaurantID int64, limit, offset int) ([]*Review, error)
}

type service struct {
	repo   Repository
	redis  *redis.Client
	cfg    *config.Config
	logger *slog.Logger
}

// NewService creates a new restaurant service. The redis client may be
// nil, in which case the event map is served uncached.
func NewService(repo Repository, redisClient *redis.Client, cfg *config.Config, logger *slog.Logger) Service {
	return &service{repo: repo, redis: redisClient, cfg: cfg, logger: logger}
}

// Create validates opening hours and inserts the restaurant
func (s *service) Create(ctx context.Context, req *CreateRestaurantRequest) (*Restaurant, error) {
	if err := validateOpeningHours(req.OpeningHours); err != nil {
		return nil, err
	}

	restaurant, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("restaurant created", "restaurant_id", restaurant.ID, "name", restaurant.Name)
	return restaurant, nil
}

// BulkCreate validates and inserts several restaurants atomically
func (s *service) BulkCreate(ctx context.Context, req *BulkCreateRequest) ([]*Restaurant, error) {
	for i := range req.Restaurants {
		if err := validateOpeningHours(req.Restaurants[i].OpeningHours); err != nil {
			return nil, fmt.Errorf("restaurant %q: %w", req.Restaurants[i].Name, err)
		}
	}

	restaurants, err := s.repo.BulkCreate(ctx, req.Restaurants)
	if err != nil {
		return nil, err
	}

	s.logger.Info("restaurants bulk created", "count", len(restaurants))
	return restaurants, nil
}

// Get retrieves a restaurant by id
func (s *service) Get(ctx context.Context, id int64) (*Restaurant, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves restaurants matching the filter
func (s *service) List(ctx context.Context, filter *ListFilter) ([]*Restaurant, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// Nearby retrieves restaurants around a point, closest first
func (s *service) Nearby(ctx context.Context, filter *NearbyFilter) ([]*Restaurant, error) {
	if filter.RadiusKm <= 0 {
		filter.RadiusKm = 5
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.repo.Nearby(ctx, filter)
}

// EventMap serves the discovery map of restaurants with upcoming public
// events, cached briefly in redis keyed by a coarse location grid.
func (s *service) EventMap(ctx context.Context, filter *NearbyFilter) ([]*EventMapEntry, error) {
	if filter.RadiusKm <= 0 {
		filter.RadiusKm = 5
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	cacheKey := fmt.Sprintf("restaurants:eventmap:%.2f:%.2f:%.0f",
		filter.Latitude, filter.Longitude, filter.RadiusKm)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var entries []*EventMapEntry
			if json.Unmarshal([]byte(cached), &entries) == nil {
				return entries, nil
			}
		}
	}

	entries, err := s.repo.EventMap(ctx, filter)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if payload, err := json.Marshal(entries); err == nil {
			s.redis.Set(ctx, cacheKey, payload, s.cfg.MapCacheTTL)
		}
	}

	return entries, nil
}

// Update validates and applies a partial update
func (s *service) Update(ctx context.Context, id int64, req *UpdateRestaurantRequest) (*Restaurant, error) {
	if err := validateOpeningHours(req.OpeningHours); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, req)
}

// Deactivate marks a restaurant as inactive
func (s *service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info("restaurant deactivated", "restaurant_id", id)
	return nil
}

// AddReview records a review and refreshes the restaurant's average rating
func (s *service) AddReview(ctx context.Context, restaurantID, profileID int64, req *AddReviewRequest) (*Review, error) {
	return s.repo.AddReview(ctx, restaurantID, profileID, req.Rating, req.Comment)
}

// GetReviews retrieves reviews for a restaurant
func (s *service) GetReviews(ctx context.Context, restaurantID int64, limit, offset int) ([]*Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetReviews(ctx, restaurantID, limit, offset)
}

// validateOpeningHours checks weekday keys and that open precedes close
// for days that are not marked closed. Hours spanning midnight are allowed
// when close is earlier than open.
func validateOpeningHours(hours OpeningHours) error {
	for day, h := range hours {
		if !weekdays[strings.ToLower(day)] {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidHours, day)
		}
		if h.Closed {
			continue
		}
		if h.Open == "" || h.Close == "" {
			return fmt.Errorf("%w: %s must set open and close or be marked closed", ErrInvalidHours, day)
		}
		if _, err := time.Parse("15:04", h.Open); err != nil {
			return fmt.Errorf("%w: %s open %q", ErrInvalidHours, day, h.Open)
		}
		if _, err := time.Parse("15:04", h.Close); err != nil {
			return fmt.Errorf("%w: %s close %q", ErrInvalidHours, day, h.Close)
		}
	}
	return nil
}

// IsOpenAt reports whether the restaurant is open at the given time.
// Restaurants without recorded hours are treated as always open.
func IsOpenAt(r *Restaurant, t time.Time) bool {
	if len(r.OpeningHours) == 0 {
		return true
	}

	day := strings.ToLower(t.Weekday().String())
	h, ok := r.OpeningHours[day]
	if !ok {
		return true
	}
	if h.Closed {
		return false
	}
	if h.Open == "" || h.Close == "" {
		return true
	}

	minutes := t.Hour()*60 + t.Minute()
	open := hhmmToMinutes(h.Open)
	close := hhmmToMinutes(h.Close)

	if close < open {
		// Spans midnight
		return minutes >= open || minutes < close
	}
	return minutes >= open && minutes < close
}

func hhmmToMinutes(s string) int {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}
