package dining

import (
	"time"
)

// DiningStatus represents the lifecycle state of a personal dining engagement
type DiningStatus string

const (
	StatusPending   DiningStatus = "pending"
	StatusAccepted  DiningStatus = "accepted"
	StatusConfirmed DiningStatus = "confirmed"
	StatusDeclined  DiningStatus = "declined"
	StatusCancelled DiningStatus = "cancelled"
	StatusCompleted DiningStatus = "completed"
)

// transitions is the exhaustive set of legal status moves. Declined,
// cancelled and completed are terminal.
var transitions = map[DiningStatus][]DiningStatus{
	StatusPending:   {StatusAccepted, StatusDeclined, StatusCancelled},
	StatusAccepted:  {StatusConfirmed, StatusCompleted, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether moving from one status to another is legal
func CanTransition(from, to DiningStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status admits no further transitions
func IsTerminal(s DiningStatus) bool {
	return len(transitions[s]) == 0
}

// InvitationType distinguishes direct invitations from open tables
type InvitationType string

const (
	TypeDirect InvitationType = "direct"
	TypeOpen   InvitationType = "open"
)

// JoinRequestStatus tracks the state of a request to join an open table
type JoinRequestStatus string

const (
	RequestPending  JoinRequestStatus = "pending"
	RequestAccepted JoinRequestStatus = "accepted"
	RequestDeclined JoinRequestStatus = "declined"
)

// Dining represents a one-on-one personal dining engagement
type Dining struct {
	ID                int64          `json:"id" db:"id"`
	HostID            int64          `json:"host_id" db:"host_id"`
	GuestID           *int64         `json:"guest_id,omitempty" db:"guest_id"`
	RestaurantID      int64          `json:"restaurant_id" db:"restaurant_id"`
	Date              time.Time      `json:"date" db:"date"`
	Time              string         `json:"time" db:"time"`
	EstimatedDuration int            `json:"estimated_duration" db:"estimated_duration"`
	Type              InvitationType `json:"type" db:"type"`
	Status            DiningStatus   `json:"status" db:"status"`
	Bill              *float64       `json:"bill,omitempty" db:"bill"`
	Commission        *float64       `json:"commission,omitempty" db:"commission"`
	Discount          *float64       `json:"discount,omitempty" db:"discount"`
	CancelReason      *string        `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CancelledAt       *time.Time     `json:"cancelled_at,omitempty" db:"cancelled_at"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// StartsAt combines the engagement's date and wall-clock time
func (d *Dining) StartsAt() time.Time {
	return combineDateTime(d.Date, d.Time)
}

// EndsAt is StartsAt plus the estimated duration
func (d *Dining) EndsAt() time.Time {
	return d.StartsAt().Add(time.Duration(d.EstimatedDuration) * time.Minute)
}

// Expired reports whether a pending engagement's expiry has passed
func (d *Dining) Expired(now time.Time) bool {
	return d.Status == StatusPending && d.ExpiresAt != nil && d.ExpiresAt.Before(now)
}

func combineDateTime(date time.Time, wallClock string) time.Time {
	t, err := time.Parse("15:04", wallClock)
	if err != nil {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0, date.Location())
}

// JoinRequest is a request from a profile to become the guest on an
// open engagement.
type JoinRequest struct {
	ID          int64             `json:"id" db:"id"`
	DiningID    int64             `json:"dining_id" db:"dining_id"`
	RequesterID int64             `json:"requester_id" db:"requester_id"`
	Status      JoinRequestStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

// Review is a post-completion review by the host or the guest
type Review struct {
	ID        int64     `json:"id" db:"id"`
	DiningID  int64     `json:"dining_id" db:"dining_id"`
	ProfileID int64     `json:"profile_id" db:"profile_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateDiningRequest is the payload for creating an engagement
type CreateDiningRequest struct {
	RestaurantID      int64  `json:"restaurant_id" validate:"required"`
	GuestID           *int64 `json:"guest_id,omitempty"`
	Date              string `json:"date" validate:"required,datetime=2006-01-02"`
	Time              string `json:"time" validate:"required,datetime=15:04"`
	EstimatedDuration int    `json:"estimated_duration" validate:"required,min=30,max=300"`
	Type              string `json:"type" validate:"required,oneof=direct open"`
}

// RespondRequest accepts or declines a direct invitation
type RespondRequest struct {
	Action string `json:"action" validate:"required,oneof=accept decline"`
}

// RespondJoinRequest accepts or declines a join request
type RespondJoinRequest struct {
	Action string `json:"action" validate:"required,oneof=accept decline"`
}

// CancelRequest cancels an engagement with a reason
type CancelRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}

// CompleteRequest closes out an engagement with the final bill
type CompleteRequest struct {
	Bill float64 `json:"bill" validate:"gte=0"`
}

// AddReviewRequest is the payload for reviewing a completed engagement
type AddReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=500"`
}

// MapEntry is an open engagement shown on the discovery map
type MapEntry struct {
	ID           int64     `json:"id" db:"id"`
	HostID       int64     `json:"host_id" db:"host_id"`
	RestaurantID int64     `json:"restaurant_id" db:"restaurant_id"`
	Restaurant   string    `json:"restaurant" db:"restaurant"`
	Latitude     float64   `json:"latitude" db:"latitude"`
	Longitude    float64   `json:"longitude" db:"longitude"`
	Date         time.Time `json:"date" db:"date"`
	Time         string    `json:"time" db:"time"`
}
