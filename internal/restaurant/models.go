package restaurant

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// DayHours describes a restaurant's hours for one weekday
type DayHours struct {
	Open   string `json:"open,omitempty" validate:"omitempty,datetime=15:04"`
	Close  string `json:"close,omitempty" validate:"omitempty,datetime=15:04"`
	Closed bool   `json:"closed"`
}

// OpeningHours maps lowercase weekday names to hours
type OpeningHours map[string]DayHours

// Scan implements sql.Scanner for OpeningHours
// This allows us to read JSON from PostgreSQL JSONB columns
func (o *OpeningHours) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	default:
		return nil
	}
}

// Value implements driver.Valuer for OpeningHours
func (o OpeningHours) Value() (driver.Value, error) {
	return json.Marshal(o)
}

// Restaurant represents a partner restaurant
type Restaurant struct {
	ID                 int64          `json:"id" db:"id"`
	Name               string         `json:"name" db:"name"`
	Address            string         `json:"address" db:"address"`
	City               *string        `json:"city,omitempty" db:"city"`
	Latitude           float64        `json:"latitude" db:"latitude"`
	Longitude          float64        `json:"longitude" db:"longitude"`
	Cuisines           pq.StringArray `json:"cuisines" db:"cuisines"`
	Pictures           pq.StringArray `json:"pictures" db:"pictures"`
	OpeningHours       OpeningHours   `json:"opening_hours" db:"opening_hours"`
	PlatformDiscount   float64        `json:"platform_discount" db:"platform_discount"`
	CommissionPercent  float64        `json:"commission_percent" db:"commission_percent"`
	DinerDiscount      float64        `json:"diner_discount" db:"diner_discount"`
	AverageRating      float64        `json:"average_rating" db:"average_rating"`
	ReviewCount        int            `json:"review_count" db:"review_count"`
	IsActive           bool           `json:"is_active" db:"is_active"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`

	// DistanceKm is populated by nearby queries, not stored
	DistanceKm *float64 `json:"distance_km,omitempty" db:"distance_km"`
}

// Review represents a diner review of a restaurant
type Review struct {
	ID           int64     `json:"id" db:"id"`
	RestaurantID int64     `json:"restaurant_id" db:"restaurant_id"`
	ProfileID    int64     `json:"profile_id" db:"profile_id"`
	Rating       int       `json:"rating" db:"rating"`
	Comment      *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// CreateRestaurantRequest is the payload for creating one restaurant
type CreateRestaurantRequest struct {
	Name              string       `json:"name" validate:"required,min=2,max=150"`
	Address           string       `json:"address" validate:"required,max=255"`
	City              *string      `json:"city,omitempty" validate:"omitempty,max=100"`
	Latitude          float64      `json:"latitude" validate:"latitude"`
	Longitude         float64      `json:"longitude" validate:"longitude"`
	Cuisines          []string     `json:"cuisines,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
	Pictures          []string     `json:"pictures,omitempty" validate:"omitempty,max=10,dive,url"`
	OpeningHours      OpeningHours `json:"opening_hours,omitempty"`
	PlatformDiscount  *float64     `json:"platform_discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	CommissionPercent *float64     `json:"commission_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	DinerDiscount     *float64     `json:"diner_discount,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// BulkCreateRequest creates several restaurants at once
type BulkCreateRequest struct {
	Restaurants []CreateRestaurantRequest `json:"restaurants" validate:"required,min=1,max=100,dive"`
}

// UpdateRestaurantRequest is the payload for partial restaurant updates
type UpdateRestaurantRequest struct {
	Name              *string      `json:"name,omitempty" validate:"omitempty,min=2,max=150"`
	Address           *string      `json:"address,omitempty" validate:"omitempty,max=255"`
	City              *string      `json:"city,omitempty" validate:"omitempty,max=100"`
	Latitude          *float64     `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude         *float64     `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Cuisines          []string     `json:"cuisines,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
	Pictures          []string     `json:"pictures,omitempty" validate:"omitempty,max=10,dive,url"`
	OpeningHours      OpeningHours `json:"opening_hours,omitempty"`
	PlatformDiscount  *float64     `json:"platform_discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	CommissionPercent *float64     `json:"commission_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	DinerDiscount     *float64     `json:"diner_discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	IsActive          *bool        `json:"is_active,omitempty"`
}

// AddReviewRequest is the payload for reviewing a restaurant
type AddReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=500"`
}

// ListFilter narrows restaurant listings
type ListFilter struct {
	City      *string
	Cuisine   *string
	Search    *string
	MinRating *float64
	Limit     int
	Offset    int
}

// NearbyFilter finds restaurants around a point
type NearbyFilter struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Limit     int
}

// EventMapEntry is a restaurant currently hosting upcoming public events,
// for the discovery map.
type EventMapEntry struct {
	ID            int64      `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Address       string     `json:"address" db:"address"`
	Latitude      float64    `json:"latitude" db:"latitude"`
	Longitude     float64    `json:"longitude" db:"longitude"`
	AverageRating float64    `json:"average_rating" db:"average_rating"`
	DistanceKm    float64    `json:"distance_km" db:"distance_km"`
	EventCount    int        `json:"event_count" db:"event_count"`
	NextEventAt   *time.Time `json:"next_event_at,omitempty" db:"next_event_at"`
}
