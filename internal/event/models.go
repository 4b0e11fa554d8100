package event

import (
	"time"

	"github.com/lib/pq"
)

// EventStatus represents the lifecycle state of a group event
type EventStatus string

const (
	StatusDraft     EventStatus = "pending"
	StatusUpcoming  EventStatus = "upcoming"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

// Visibility controls who can discover an event
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Event represents a group dining event
type Event struct {
	ID           int64          `json:"id" db:"id"`
	HostID       int64          `json:"host_id" db:"host_id"`
	RestaurantID *int64         `json:"restaurant_id,omitempty" db:"restaurant_id"`
	Title        string         `json:"title" db:"title"`
	Description  string         `json:"description" db:"description"`
	Pictures     pq.StringArray `json:"pictures" db:"pictures"`
	StartDate    time.Time      `json:"start_date" db:"start_date"`
	EndDate      time.Time      `json:"end_date" db:"end_date"`
	Capacity     int            `json:"capacity" db:"capacity"`
	Slots        int            `json:"slots" db:"slots"`
	TicketPrice  float64        `json:"ticket_price" db:"ticket_price"`
	Latitude     *float64       `json:"latitude,omitempty" db:"latitude"`
	Longitude    *float64       `json:"longitude,omitempty" db:"longitude"`
	Address      *string        `json:"address,omitempty" db:"address"`
	Visibility   Visibility     `json:"visibility" db:"visibility"`
	Status       EventStatus    `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Participation links a profile to an event it attends
type Participation struct {
	ID        int64     `json:"id" db:"id"`
	EventID   int64     `json:"event_id" db:"event_id"`
	ProfileID int64     `json:"profile_id" db:"profile_id"`
	JoinedAt  time.Time `json:"joined_at" db:"joined_at"`
}

// Review represents an attendee review of a completed event
type Review struct {
	ID        int64     `json:"id" db:"id"`
	EventID   int64     `json:"event_id" db:"event_id"`
	ProfileID int64     `json:"profile_id" db:"profile_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateEventRequest is the payload for creating an event
type CreateEventRequest struct {
	RestaurantID *int64   `json:"restaurant_id,omitempty"`
	Title        string   `json:"title" validate:"required,min=3,max=150"`
	Description  string   `json:"description" validate:"required,max=2000"`
	Pictures     []string `json:"pictures,omitempty" validate:"omitempty,max=10,dive,url"`
	StartDate    string   `json:"start_date" validate:"required"`
	EndDate      string   `json:"end_date" validate:"required"`
	Capacity     int      `json:"capacity" validate:"required,min=1,max=1000"`
	TicketPrice  float64  `json:"ticket_price" validate:"gte=0"`
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Address      *string  `json:"address,omitempty" validate:"omitempty,max=255"`
	Visibility   string   `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
}

// UpdateEventRequest is the payload for partial event updates
type UpdateEventRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=3,max=150"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Pictures    []string `json:"pictures,omitempty" validate:"omitempty,max=10,dive,url"`
	StartDate   *string  `json:"start_date,omitempty"`
	EndDate     *string  `json:"end_date,omitempty"`
	Capacity    *int     `json:"capacity,omitempty" validate:"omitempty,min=1,max=1000"`
	TicketPrice *float64 `json:"ticket_price,omitempty" validate:"omitempty,gte=0"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Address     *string  `json:"address,omitempty" validate:"omitempty,max=255"`
	Visibility  *string  `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
}

// AddReviewRequest is the payload for reviewing a completed event
type AddReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=500"`
}

// SuggestRequest carries the caller's availability window for matching
type SuggestRequest struct {
	AvailableFrom string `json:"available_from" validate:"required"`
	AvailableTo   string `json:"available_to" validate:"required"`
}

// SuggestResponse is the outcome of a best-match run
type SuggestResponse struct {
	Event *Event  `json:"event"`
	Score float64 `json:"score"`
}

// ListFilter narrows event listings
type ListFilter struct {
	Status      *EventStatus
	Visibility  *Visibility
	HostID      *int64
	Search      *string
	From        *time.Time
	To          *time.Time
	MinCapacity *int
	Limit       int
	Offset      int
}
