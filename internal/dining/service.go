package dining

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tablemates/tablemates-backend/internal/common/timeslot"
	"github.com/tablemates/tablemates-backend/internal/config"
	"github.com/tablemates/tablemates-backend/internal/profile"
	"github.com/tablemates/tablemates-backend/internal/restaurant"
)

var (
	ErrNotFound           = errors.New("dining engagement not found")
	ErrInvalidState       = errors.New("operation not allowed in current state")
	ErrDuplicateRequest   = errors.New("a pending join request already exists")
	ErrSchedulingConflict = errors.New("conflicts with an existing accepted engagement")
	ErrUnauthorized       = errors.New("only the host or guest may perform this action")
	ErrExpired            = errors.New("invitation has expired")
	ErrPastDate           = errors.New("engagement must be scheduled in the future")
	ErrRestaurantClosed   = errors.New("restaurant is closed at the requested time")
	ErrDirectNeedsGuest   = errors.New("direct invitations require a guest")
	ErrOpenHasGuest       = errors.New("open invitations cannot pre-assign a guest")
	ErrSelfInvite         = errors.New("cannot invite yourself")
)

// Notifier pushes realtime notifications to connected profiles.
// Delivery is best effort; failures never block the operation.
type Notifier interface {
	Notify(ctx context.Context, profileID int64, kind string, payload interface{})
}

// Service defines the dining service interface
type Service interface {
	Create(ctx context.Context, userID int64, req *CreateDiningRequest) (*Dining, error)
	Get(ctx context.Context, id int64) (*Dining, error)
	ListMine(ctx context.Context, userID int64, limit, offset int) ([]*Dining, error)

	Respond(ctx context.Context, userID, id int64, req *RespondRequest) (*Dining, error)
	RequestToJoin(ctx context.Context, userID, id int64) (*JoinRequest, error)
	RespondToJoinRequest(ctx context.Context, userID, requestID int64, req *RespondJoinRequest) (*Dining, error)
	ListJoinRequests(ctx context.Context, userID, id int64) ([]*JoinRequest, error)
	Confirm(ctx context.Context, userID, id int64) (*Dining, error)
	Cancel(ctx context.Context, userID, id int64, req *CancelRequest) (*Dining, error)
	Complete(ctx context.Context, userID, id int64, req *CompleteRequest) (*Dining, error)

	AddReview(ctx context.Context, userID, id int64, req *AddReviewRequest) (*Review, error)
	GetReviews(ctx context.Context, id int64) ([]*Review, error)

	MapListing(ctx context.Context, slot timeslot.Slot) ([]*MapEntry, error)
	SweepExpired(ctx context.Context) (int64, error)
}

type service struct {
	repo              Repository
	profileService    profile.Service
	restaurantService restaurant.Service
	notifier          Notifier
	redis             *redis.Client
	cfg               *config.Config
	metrics           *Metrics
	logger            *slog.Logger
}

// NewService creates a new dining service. The redis client may be nil,
// in which case map listings are served uncached.
func NewService(
	repo Repository,
	profileService profile.Service,
	restaurantService restaurant.Service,
	notifier Notifier,
	redisClient *redis.Client,
	cfg *config.Config,
	metrics *Metrics,
	logger *slog.Logger,
) Service {
	return &service{
		repo:              repo,
		profileService:    profileService,
		restaurantService: restaurantService,
		notifier:          notifier,
		redis:             redisClient,
		cfg:               cfg,
		metrics:           metrics,
		logger:            logger,
	}
}

// Create validates and inserts a new pending engagement. Open invitations
// get an expiry; direct invitations notify the invited guest.
func (s *service) Create(ctx context.Context, userID int64, req *CreateDiningRequest) (*Dining, error) {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	start := combineDateTime(date, req.Time)
	if start.Before(time.Now()) {
		return nil, ErrPastDate
	}

	rest, err := s.restaurantService.Get(ctx, req.RestaurantID)
	if err != nil {
		if errors.Is(err, restaurant.ErrRestaurantNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !restaurant.IsOpenAt(rest, start) {
		return nil, ErrRestaurantClosed
	}

	invType := InvitationType(req.Type)
	switch invType {
	case TypeDirect:
		if req.GuestID == nil {
			return nil, ErrDirectNeedsGuest
		}
		if *req.GuestID == prof.ID {
			return nil, ErrSelfInvite
		}
		if _, err := s.profileService.GetProfile(ctx, *req.GuestID); err != nil {
			return nil, err
		}
	case TypeOpen:
		if req.GuestID != nil {
			return nil, ErrOpenHasGuest
		}
	}

	d := &Dining{
		HostID:            prof.ID,
		GuestID:           req.GuestID,
		RestaurantID:      req.RestaurantID,
		Date:              date,
		Time:              req.Time,
		EstimatedDuration: req.EstimatedDuration,
		Type:              invType,
		Status:            StatusPending,
	}
	if invType == TypeOpen {
		expires := time.Now().Add(s.cfg.InvitationExpiry)
		d.ExpiresAt = &expires
	}

	created, err := s.repo.Create(ctx, d)
	if err != nil {
		return nil, err
	}

	s.metrics.Created.Inc()
	s.invalidateMapCache(ctx)
	if created.GuestID != nil {
		s.notifier.Notify(ctx, *created.GuestID, "dining.invited", created)
	}

	s.logger.Info("dining created",
		"dining_id", created.ID, "host_id", prof.ID, "type", created.Type)
	return created, nil
}

// Get retrieves an engagement, lazily cancelling it when expired
func (s *service) Get(ctx context.Context, id int64) (*Dining, error) {
	d, _, err := s.getFresh(ctx, id)
	return d, err
}

// ListMine retrieves the caller's engagements as host or guest
func (s *service) ListMine(ctx context.Context, userID int64, limit, offset int) ([]*Dining, error) {
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
	return s.repo.ListForProfile(ctx, prof.ID, limit, offset)
}

// Respond lets the pre-assigned guest accept or decline a direct
// invitation. Accepting runs the conflict check against the guest's
// accepted obligations.
func (s *service) Respond(ctx context.Context, userID, id int64, req *RespondRequest) (*Dining, error) {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	d, expired, err := s.getFresh(ctx, id)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrExpired
	}
	if d.Status != StatusPending {
		return nil, ErrInvalidState
	}
	if d.GuestID == nil || *d.GuestID != prof.ID {
		return nil, ErrUnauthorized
	}

	if req.Action == "decline" {
		if err := s.repo.Decline(ctx, id); err != nil {
			return nil, err
		}
		s.notifier.Notify(ctx, d.HostID, "dining.declined", d)
		return s.repo.GetByID(ctx, id)
	}

	if err := s.checkConflict(ctx, prof.ID, d); err != nil {
		return nil, err
	}

	if err := s.repo.AcceptDirect(ctx, id, prof.ID); err != nil {
		return nil, err
	}

	s.metrics.Accepted.Inc()
	s.notifier.Notify(ctx, d.HostID, "dining.accepted", d)
	s.logger.Info("dining accepted", "dining_id", id, "guest_id", prof.ID)
	return s.repo.GetByID(ctx, id)
}

// RequestToJoin files a join request on an open engagement
func (s *service) RequestToJoin(ctx context.Context, userID, id int64) (*JoinRequest, error) {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	d, expired, err := s.getFresh(ctx, id)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, ErrExpired
	}
	if d.Type != TypeOpen || d.Status != StatusPending || d.GuestID != nil {
		return nil, ErrInvalidState
	}
	if d.HostID == prof.ID {
		return nil, ErrUnauthorized
	}

	if err := s.checkConflict(ctx, prof.ID, d); err != nil {
		return nil, err
	}

	req, err := s.repo.CreateJoinRequest(ctx, id, prof.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.JoinRequests.Inc()
	s.notifier.Notify(ctx, d.HostID, "dining.join_requested", req)
	s.logger.Info("join request created", "dining_id", id, "requester_id", prof.ID)
	return req, nil
}

// RespondToJoinRequest lets the host arbitrate a join request. Accepting
// re-runs the conflict check for the requester and atomically declines
// every competing pending request.
func (s *service) RespondToJoinRequest(ctx context.Context, userID, requestID int64, req *RespondJoinRequest) (*Dining, error) {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	jr, err := s.repo.GetJoinRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	d, expired, err := s.getFresh(ctx, jr.DiningID)
	if err != nil {
		return nil, err
	}
	if d.HostID != prof.ID {
		return nil, ErrUnauthorized
	}
	if expired {
		return nil, ErrExpired
	}
	if jr.Status != RequestPending {
		return nil, ErrInvalidState
	}

	if req.Action == "decline" {
		if err := s.repo.DeclineJoinRequest(ctx, requestID); err != nil {
			return nil, err
		}
		s.notifier.Notify(ctx, jr.RequesterID, "dining.join_declined", jr)
		return d, nil
	}

	if err := s.checkConflict(ctx, jr.RequesterID, d); err != nil {
		return nil, err
	}

	if err := s.repo.AcceptJoinRequest(ctx, d.ID, requestID, jr.RequesterID); err != nil {
		return nil, err
	}

	s.metrics.Accepted.Inc()
	s.invalidateMapCache(ctx)
	s.notifier.Notify(ctx, jr.RequesterID, "dining.join_accepted", jr)
	s.logger.Info("join request accepted",
		"dining_id", d.ID, "request_id", requestID, "guest_id", jr.RequesterID)
	return s.repo.GetByID(ctx, d.ID)
}

// ListJoinRequests lets the host inspect requests on their engagement
func (s *service) ListJoinRequests(ctx context.Context, userID, id int64) ([]*JoinRequest, error) {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.HostID != prof.ID {
		return nil, ErrUnauthorized
	}

	return s.repo.ListJoinRequests(ctx, id)
}

// Confirm moves an accepted engagement to confirmed; host or guest only
func (s *service) Confirm(ctx context.Context, userID, id int64) (*Dining, error) {
	d, _, err := s.participantEngagement(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(d.Status, StatusConfirmed) {
		return nil, ErrInvalidState
	}

	if err := s.repo.Confirm(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info("dining confirmed", "dining_id", id)
	return s.repo.GetByID(ctx, id)
}

// Cancel moves any non-terminal engagement to cancelled with a reason;
// host or guest only.
func (s *service) Cancel(ctx context.Context, userID, id int64, req *CancelRequest) (*Dining, error) {
	d, prof, err := s.participantEngagement(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(d.Status, StatusCancelled) {
		return nil, ErrInvalidState
	}

	if err := s.repo.Cancel(ctx, id, d.Status, req.Reason); err != nil {
		return nil, err
	}

	s.metrics.Cancelled.Inc()
	s.invalidateMapCache(ctx)
	if other := s.counterparty(d, prof.ID); other != 0 {
		s.notifier.Notify(ctx, other, "dining.cancelled", d)
	}

	s.logger.Info("dining cancelled", "dining_id", id, "by", prof.ID)
	return s.repo.GetByID(ctx, id)
}

// Complete closes out an accepted or confirmed engagement. Commission and
// diner discount are flat rates on the final bill; the restaurant's own
// configurable percentages are intentionally not consulted here.
func (s *service) Complete(ctx context.Context, userID, id int64, req *CompleteRequest) (*Dining, error) {
	d, _, err := s.participantEngagement(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(d.Status, StatusCompleted) {
		return nil, ErrInvalidState
	}

	commission := req.Bill * s.cfg.PlatformCommissionRate
	discount := req.Bill * s.cfg.DinerDiscountRate

	if err := s.repo.Complete(ctx, id, d.Status, req.Bill, commission, discount); err != nil {
		return nil, err
	}

	s.metrics.Completed.Inc()
	s.metrics.CommissionEarned.Add(commission)
	if d.GuestID != nil {
		s.notifier.Notify(ctx, *d.GuestID, "dining.completed", d)
	}

	s.logger.Info("dining completed",
		"dining_id", id, "bill", req.Bill, "commission", commission, "discount", discount)
	return s.repo.GetByID(ctx, id)
}

// AddReview records a post-completion review, one per participant
func (s *service) AddReview(ctx context.Context, userID, id int64, req *AddReviewRequest) (*Review, error) {
	d, prof, err := s.participantEngagement(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusCompleted {
		return nil, ErrInvalidState
	}

	review, err := s.repo.AddReview(ctx, id, prof.ID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}

	// Reviews also feed the restaurant's public rating
	if _, err := s.restaurantService.AddReview(ctx, d.RestaurantID, prof.ID, &restaurant.AddReviewRequest{
		Rating:  req.Rating,
		Comment: req.Comment,
	}); err != nil {
		s.logger.Error("failed to propagate review to restaurant",
			"dining_id", id, "restaurant_id", d.RestaurantID, "error", err)
	}

	return review, nil
}

// GetReviews retrieves the reviews on an engagement
func (s *service) GetReviews(ctx context.Context, id int64) ([]*Review, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetReviews(ctx, id)
}

// MapListing serves the discovery map, cached briefly in redis since the
// map is the hottest read path.
func (s *service) MapListing(ctx context.Context, slot timeslot.Slot) ([]*MapEntry, error) {
	cacheKey := "dining:map:" + string(slot)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var entries []*MapEntry
			if json.Unmarshal([]byte(cached), &entries) == nil {
				return entries, nil
			}
		}
	}

	entries, err := s.repo.MapListing(ctx, slot, time.Now())
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

// SweepExpired cancels every overdue pending invitation
func (s *service) SweepExpired(ctx context.Context) (int64, error) {
	swept, err := s.repo.SweepExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		s.metrics.Expired.Add(float64(swept))
		s.invalidateMapCache(ctx)
		s.logger.Info("expired dinings swept", "count", swept)
	}
	return swept, nil
}

// getFresh loads an engagement and applies lazy expiry: an overdue
// pending record is cancelled before being returned. The second return
// reports whether expiry fired on this read.
func (s *service) getFresh(ctx context.Context, id int64) (*Dining, bool, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if d.Expired(time.Now()) {
		if err := s.repo.MarkExpired(ctx, id); err != nil && !errors.Is(err, ErrInvalidState) {
			return nil, false, err
		}
		s.metrics.Expired.Inc()
		d, err = s.repo.GetByID(ctx, id)
		return d, true, err
	}

	return d, false, nil
}

func (s *service) checkConflict(ctx context.Context, profileID int64, d *Dining) error {
	windows, err := s.repo.AcceptedWindows(ctx, profileID)
	if err != nil {
		return err
	}

	candidate := TimeWindow{ID: d.ID, Start: d.StartsAt(), End: d.EndsAt()}
	if HasConflict(candidate, windows, s.cfg.ConflictBuffer) {
		s.metrics.Conflicts.Inc()
		return ErrSchedulingConflict
	}
	return nil
}

func (s *service) participantEngagement(ctx context.Context, userID, id int64) (*Dining, *profile.Profile, error) {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	d, _, err := s.getFresh(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if d.HostID != prof.ID && (d.GuestID == nil || *d.GuestID != prof.ID) {
		return nil, nil, ErrUnauthorized
	}

	return d, prof, nil
}

func (s *service) counterparty(d *Dining, profileID int64) int64 {
	if d.HostID != profileID {
		return d.HostID
	}
	if d.GuestID != nil {
		return *d.GuestID
	}
	return 0
}

func (s *service) invalidateMapCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	for _, slot := range []timeslot.Slot{"", timeslot.Morning, timeslot.Afternoon, timeslot.Night} {
		s.redis.Del(ctx, "dining:map:"+string(slot))
	}
}
