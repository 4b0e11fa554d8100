package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tablemates/tablemates-backend/internal/auth"
)

var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrProfileExists     = errors.New("profile already exists for this user")
	ErrInvalidWindow     = errors.New("available_from must not be after available_to")
	ErrApprovalMismatch  = errors.New("email or date of birth does not match")
	ErrHostingLiveEvent  = errors.New("cannot delete account while hosting a live event")
	ErrHostingWithGuests = errors.New("cannot delete account while hosting an upcoming event with attendees")
	ErrAttendingLive     = errors.New("cannot delete account while attending a live event")
)

// Service defines the profile service interface
type Service interface {
	CreateProfile(ctx context.Context, userID int64, req *CreateProfileRequest) (*Profile, error)
	GetProfile(ctx context.Context, id int64) (*Profile, error)
	GetOwnProfile(ctx context.Context, userID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*Profile, error)
	UpdateAvailability(ctx context.Context, userID int64, req *UpdateAvailabilityRequest) (*Profile, error)
	ApproveProfile(ctx context.Context, userID int64, req *ApproveProfileRequest) error
	DeleteAccount(ctx context.Context, userID int64) error
}

type service struct {
	repo        Repository
	authService auth.Service
	logger      *slog.Logger
}

// NewService creates a new profile service
func NewService(repo Repository, authService auth.Service, logger *slog.Logger) Service {
	return &service{
		repo:        repo,
		authService: authService,
		logger:      logger,
	}
}

// CreateProfile creates a profile for a user and links it to the account
func (s *service) CreateProfile(ctx context.Context, userID int64, req *CreateProfileRequest) (*Profile, error) {
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	profile, err := s.repo.CreateProfile(ctx, userID, req, dob)
	if err != nil {
		return nil, err
	}

	if err := s.authService.LinkProfile(ctx, userID, profile.ID); err != nil {
		s.logger.Error("failed to link profile to user",
			"user_id", userID, "profile_id", profile.ID, "error", err)
	}

	s.logger.Info("profile created", "user_id", userID, "profile_id", profile.ID)
	return profile, nil
}

// GetProfile retrieves a profile by id
func (s *service) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	return s.repo.GetProfileByID(ctx, id)
}

// GetOwnProfile retrieves the caller's own profile
func (s *service) GetOwnProfile(ctx context.Context, userID int64) (*Profile, error) {
	return s.repo.GetProfileByUserID(ctx, userID)
}

// UpdateProfile applies a partial update to the caller's profile
func (s *service) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*Profile, error) {
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	return s.repo.UpdateProfile(ctx, userID, req, dob)
}

// UpdateAvailability stores the caller's dining availability window
func (s *service) UpdateAvailability(ctx context.Context, userID int64, req *UpdateAvailabilityRequest) (*Profile, error) {
	from, err := time.Parse(time.RFC3339, req.AvailableFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid available_from: %w", err)
	}
	to, err := time.Parse(time.RFC3339, req.AvailableTo)
	if err != nil {
		return nil, fmt.Errorf("invalid available_to: %w", err)
	}
	if from.After(to) {
		return nil, ErrInvalidWindow
	}

	if err := s.repo.UpdateAvailability(ctx, userID, from, to); err != nil {
		return nil, err
	}

	return s.repo.GetProfileByUserID(ctx, userID)
}

// ApproveProfile approves a profile once the supplied email and date of
// birth match the stored account and profile.
func (s *service) ApproveProfile(ctx context.Context, userID int64, req *ApproveProfileRequest) error {
	user, err := s.authService.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	profile, err := s.repo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return err
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return fmt.Errorf("invalid date_of_birth: %w", err)
	}

	if user.Email != req.Email || profile.DateOfBirth == nil ||
		!sameDate(*profile.DateOfBirth, dob) {
		return ErrApprovalMismatch
	}

	if err := s.repo.SetApproved(ctx, profile.ID); err != nil {
		return err
	}

	s.logger.Info("profile approved", "profile_id", profile.ID)
	return nil
}

// DeleteAccount removes the account and all profile data unless the
// profile is tied up in live or seated events.
func (s *service) DeleteAccount(ctx context.Context, userID int64) error {
	profile, err := s.repo.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			// Account without a profile has nothing blocking deletion
			return s.authService.DeleteUser(ctx, userID)
		}
		return err
	}

	now := time.Now()

	liveHosted, err := s.repo.CountLiveHostedEvents(ctx, profile.ID, now)
	if err != nil {
		return err
	}
	if liveHosted > 0 {
		return ErrHostingLiveEvent
	}

	upcomingSeated, err := s.repo.CountUpcomingHostedEventsWithAttendees(ctx, profile.ID, now)
	if err != nil {
		return err
	}
	if upcomingSeated > 0 {
		return ErrHostingWithGuests
	}

	liveAttended, err := s.repo.CountLiveAttendedEvents(ctx, profile.ID, now)
	if err != nil {
		return err
	}
	if liveAttended > 0 {
		return ErrAttendingLive
	}

	if err := s.repo.DeleteProfileCascade(ctx, userID, profile.ID); err != nil {
		return err
	}

	s.logger.Info("account deleted", "user_id", userID, "profile_id", profile.ID)
	return nil
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, fmt.Errorf("invalid date_of_birth: %w", err)
	}
	return &t, nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
