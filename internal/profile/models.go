package profile

import (
	"time"

	"github.com/lib/pq"
)

// Profile represents a diner profile
type Profile struct {
	ID              int64          `json:"id" db:"id"`
	UserID          int64          `json:"user_id" db:"user_id"`
	FullName        string         `json:"full_name" db:"full_name"`
	Phone           *string        `json:"phone,omitempty" db:"phone"`
	DateOfBirth     *time.Time     `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Bio             *string        `json:"bio,omitempty" db:"bio"`
	Profession      *string        `json:"profession,omitempty" db:"profession"`
	Industry        *string        `json:"industry,omitempty" db:"industry"`
	Gender          *string        `json:"gender,omitempty" db:"gender"`
	Interests       pq.StringArray `json:"interests" db:"interests"`
	Goals           pq.StringArray `json:"goals" db:"goals"`
	ProfilePictures pq.StringArray `json:"profile_pictures" db:"profile_pictures"`
	Address         *string        `json:"address,omitempty" db:"address"`
	Latitude        *float64       `json:"latitude,omitempty" db:"latitude"`
	Longitude       *float64       `json:"longitude,omitempty" db:"longitude"`
	AvailableFrom   *time.Time     `json:"available_from,omitempty" db:"available_from"`
	AvailableTo     *time.Time     `json:"available_to,omitempty" db:"available_to"`
	IsApproved      bool           `json:"is_approved" db:"is_approved"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// CreateProfileRequest is the payload for creating a profile
type CreateProfileRequest struct {
	FullName    string   `json:"full_name" validate:"required,min=2,max=100"`
	Phone       *string  `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	DateOfBirth *string  `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Bio         *string  `json:"bio,omitempty" validate:"omitempty,max=500"`
	Profession  *string  `json:"profession,omitempty" validate:"omitempty,max=100"`
	Industry    *string  `json:"industry,omitempty" validate:"omitempty,max=100"`
	Gender      *string  `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Interests   []string `json:"interests,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
	Goals       []string `json:"goals,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// UpdateProfileRequest is the payload for partial profile updates
type UpdateProfileRequest struct {
	FullName        *string  `json:"full_name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone           *string  `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	DateOfBirth     *string  `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Bio             *string  `json:"bio,omitempty" validate:"omitempty,max=500"`
	Profession      *string  `json:"profession,omitempty" validate:"omitempty,max=100"`
	Industry        *string  `json:"industry,omitempty" validate:"omitempty,max=100"`
	Gender          *string  `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Interests       []string `json:"interests,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
	Goals           []string `json:"goals,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
	ProfilePictures []string `json:"profile_pictures,omitempty" validate:"omitempty,max=10,dive,url"`
	Address         *string  `json:"address,omitempty" validate:"omitempty,max=255"`
	Latitude        *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude       *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// UpdateAvailabilityRequest sets the window a diner is free to eat out
type UpdateAvailabilityRequest struct {
	AvailableFrom string `json:"available_from" validate:"required"`
	AvailableTo   string `json:"available_to" validate:"required"`
}

// ApproveProfileRequest approves a profile by matching email and date of birth
type ApproveProfileRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
}
