package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tablemates/tablemates-backend/internal/profile"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventFull         = errors.New("event has no remaining slots")
	ErrAlreadyJoined     = errors.New("already joined this event")
	ErrNotAttending      = errors.New("not attending this event")
	ErrAlreadyReviewed   = errors.New("event already reviewed")
	ErrInvalidTransition = errors.New("invalid event status transition")
	ErrNotHost           = errors.New("only the host may perform this action")
	ErrHostCannotJoin    = errors.New("hosts cannot join their own event")
	ErrNotCompleted      = errors.New("event is not completed")
	ErrNotAttended       = errors.New("only attendees can review an event")
	ErrInvalidDates      = errors.New("end date must be after start date and both must be in the future")
	ErrNoEventsAvailable = errors.New("no events available")
)

// Service defines the event service interface
type Service interface {
	Create(ctx context.Context, userID int64, req *CreateEventRequest) (*Event, error)
	Get(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context, filter *ListFilter) ([]*Event, error)
	ListMine(ctx context.Context, userID int64, role string, limit, offset int) ([]*Event, error)
	Update(ctx context.Context, userID, id int64, req *UpdateEventRequest) (*Event, error)
	Delete(ctx context.Context, userID, id int64) error
	Cancel(ctx context.Context, userID, id int64) error
	Complete(ctx context.Context, userID, id int64) error

	Join(ctx context.Context, userID, eventID int64) error
	Leave(ctx context.Context, userID, eventID int64) error
	GetParticipants(ctx context.Context, eventID int64) ([]*Participation, error)

	Suggest(ctx context.Context, userID int64, req *SuggestRequest) (*SuggestResponse, error)

	AddReview(ctx context.Context, userID, eventID int64, req *AddReviewRequest) (*Review, error)
	GetReviews(ctx context.Context, eventID int64, limit, offset int) ([]*Review, error)
}

type service struct {
	repo           Repository
	profileService profile.Service
	engine         MatchingEngine
	metrics        *Metrics
	logger         *slog.Logger
}

// NewService creates a new event service
func NewService(repo Repository, profileService profile.Service, engine MatchingEngine, metrics *Metrics, logger *slog.Logger) Service {
	return &service{
		repo:           repo,
		profileService: profileService,
		engine:         engine,
		metrics:        metrics,
		logger:         logger,
	}
}

// Create validates dates and inserts a new upcoming event hosted by the caller
func (s *service) Create(ctx context.Context, userID int64, req *CreateEventRequest) (*Event, error) {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	start, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date: %w", err)
	}
	if !end.After(start) || start.Before(time.Now()) {
		return nil, ErrInvalidDates
	}

	visibility := VisibilityPublic
	if req.Visibility == string(VisibilityPrivate) {
		visibility = VisibilityPrivate
	}

	e := &Event{
		HostID:       prof.ID,
		RestaurantID: req.RestaurantID,
		Title:        req.Title,
		Description:  req.Description,
		Pictures:     req.Pictures,
		StartDate:    start,
		EndDate:      end,
		Capacity:     req.Capacity,
		TicketPrice:  req.TicketPrice,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Address:      req.Address,
		Visibility:   visibility,
		Status:       StatusUpcoming,
	}

	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return nil, err
	}

	s.metrics.EventsCreated.Inc()
	s.logger.Info("event created", "event_id", created.ID, "host_id", prof.ID)
	return created, nil
}

// Get retrieves an event by id
func (s *service) Get(ctx context.Context, id int64) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves events matching the filter
func (s *service) List(ctx context.Context, filter *ListFilter) ([]*Event, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// ListMine retrieves the caller's events, hosted or attending
func (s *service) ListMine(ctx context.Context, userID int64, role string, limit, offset int) ([]*Event, error) {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	if role == "hosted" {
		return s.repo.List(ctx, &ListFilter{HostID: &prof.ID, Limit: limit, Offset: offset})
	}
	return s.repo.ListAttending(ctx, prof.ID, limit, offset)
}

// Update applies a partial update; only the host may edit
func (s *service) Update(ctx context.Context, userID, id int64, req *UpdateEventRequest) (*Event, error) {
	e, err := s.hostedEvent(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	var start, end *time.Time
	if req.StartDate != nil {
		t, err := time.Parse(time.RFC3339, *req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start_date: %w", err)
		}
		start = &t
	}
	if req.EndDate != nil {
		t, err := time.Parse(time.RFC3339, *req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date: %w", err)
		}
		end = &t
	}

	newStart := e.StartDate
	if start != nil {
		newStart = *start
	}
	newEnd := e.EndDate
	if end != nil {
		newEnd = *end
	}
	if !newEnd.After(newStart) {
		return nil, ErrInvalidDates
	}

	return s.repo.Update(ctx, id, req, start, end)
}

// Delete removes a hosted event and cascades participations and reviews
func (s *service) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.hostedEvent(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		return err
	}

	s.logger.Info("event deleted", "event_id", id)
	return nil
}

// Cancel transitions a hosted event to cancelled
func (s *service) Cancel(ctx context.Context, userID, id int64) error {
	e, err := s.hostedEvent(ctx, userID, id)
	if err != nil {
		return err
	}
	if e.Status == StatusCompleted || e.Status == StatusCancelled {
		return ErrInvalidTransition
	}

	if err := s.repo.SetStatus(ctx, id, e.Status, StatusCancelled); err != nil {
		return err
	}

	s.logger.Info("event cancelled", "event_id", id)
	return nil
}

// Complete transitions a hosted event to completed
func (s *service) Complete(ctx context.Context, userID, id int64) error {
	e, err := s.hostedEvent(ctx, userID, id)
	if err != nil {
		return err
	}
	if e.Status != StatusUpcoming {
		return ErrInvalidTransition
	}

	if err := s.repo.SetStatus(ctx, id, e.Status, StatusCompleted); err != nil {
		return err
	}

	s.logger.Info("event completed", "event_id", id)
	return nil
}

// Join claims a slot for the caller on an upcoming event
func (s *service) Join(ctx context.Context, userID, eventID int64) error {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return err
	}

	e, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if e.Status != StatusUpcoming {
		return ErrInvalidTransition
	}
	if e.HostID == prof.ID {
		return ErrHostCannotJoin
	}

	if err := s.repo.Join(ctx, eventID, prof.ID); err != nil {
		return err
	}

	s.metrics.EventJoins.Inc()
	s.logger.Info("event joined", "event_id", eventID, "profile_id", prof.ID)
	return nil
}

// Leave gives the caller's slot back
func (s *service) Leave(ctx context.Context, userID, eventID int64) error {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Leave(ctx, eventID, prof.ID); err != nil {
		return err
	}

	s.logger.Info("event left", "event_id", eventID, "profile_id", prof.ID)
	return nil
}

// GetParticipants retrieves an event's attendees
func (s *service) GetParticipants(ctx context.Context, eventID int64) ([]*Participation, error) {
	if _, err := s.repo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.GetParticipants(ctx, eventID)
}

// Suggest persists the caller's availability window, gathers joinable
// candidates and returns the best scoring event. When nothing intersects
// the window, a relaxed pool of future joinable events is tried before
// giving up.
func (s *service) Suggest(ctx context.Context, userID int64, req *SuggestRequest) (*SuggestResponse, error) {
	prof, err := s.profileService.UpdateAvailability(ctx, userID, &profile.UpdateAvailabilityRequest{
		AvailableFrom: req.AvailableFrom,
		AvailableTo:   req.AvailableTo,
	})
	if err != nil {
		return nil, err
	}

	window := Window{From: *prof.AvailableFrom, To: *prof.AvailableTo}
	now := time.Now()

	candidates, err := s.repo.SuggestionCandidates(ctx, prof.ID, now, window.From, window.To)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		candidates, err = s.repo.RelaxedSuggestionCandidates(ctx, prof.ID, now)
		if err != nil {
			return nil, err
		}
	}

	best, ok := s.engine.FindBestMatch(prof, candidates, window)
	if !ok {
		return nil, ErrNoEventsAvailable
	}

	s.metrics.SuggestionsServed.Inc()
	s.metrics.MatchScores.Observe(best.Score)
	s.logger.Info("event suggested",
		"profile_id", prof.ID, "event_id", best.Event.ID, "score", best.Score)

	return &SuggestResponse{Event: best.Event, Score: best.Score}, nil
}

// AddReview records a review once the event completed; hosts and
// attendees may review, at most once each.
func (s *service) AddReview(ctx context.Context, userID, eventID int64, req *AddReviewRequest) (*Review, error) {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	e, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.Status != StatusCompleted {
		return nil, ErrNotCompleted
	}

	if e.HostID != prof.ID {
		attending, err := s.repo.IsAttending(ctx, eventID, prof.ID)
		if err != nil {
			return nil, err
		}
		if !attending {
			return nil, ErrNotAttended
		}
	}

	return s.repo.AddReview(ctx, eventID, prof.ID, req.Rating, req.Comment)
}

// GetReviews retrieves reviews for an event
func (s *service) GetReviews(ctx context.Context, eventID int64, limit, offset int) ([]*Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetReviews(ctx, eventID, limit, offset)
}

func (s *service) hostedEvent(ctx context.Context, userID, id int64) (*Event, error) {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.HostID != prof.ID {
		return nil, ErrNotHost
	}

	return e, nil
}
