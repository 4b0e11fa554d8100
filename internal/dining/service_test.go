package dining

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemates/tablemates-backend/internal/common/timeslot"
	"github.com/tablemates/tablemates-backend/internal/config"
	"github.com/tablemates/tablemates-backend/internal/profile"
	"github.com/tablemates/tablemates-backend/internal/restaurant"
)

// Collectors register globally, so create them once for the test binary
var testMetrics = NewMetrics()

type fakeRepo struct {
	mu       sync.Mutex
	nextID   int64
	dinings  map[int64]*Dining
	requests map[int64]*JoinRequest
	reviews  map[int64][]*Review
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		nextID:   1,
		dinings:  make(map[int64]*Dining),
		requests: make(map[int64]*JoinRequest),
		reviews:  make(map[int64][]*Review),
	}
}

func (f *fakeRepo) Create(_ context.Context, d *Dining) (*Dining, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *d
	stored.ID = f.nextID
	f.nextID++
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.dinings[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (*Dining, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dinings[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *d
	return &out, nil
}

func (f *fakeRepo) ListForProfile(_ context.Context, profileID int64, _, _ int) ([]*Dining, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Dining
	for _, d := range f.dinings {
		if d.HostID == profileID || (d.GuestID != nil && *d.GuestID == profileID) {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRepo) AcceptedWindows(_ context.Context, profileID int64) ([]TimeWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var windows []TimeWindow
	for _, d := range f.dinings {
		if d.Status != StatusAccepted && d.Status != StatusConfirmed {
			continue
		}
		if d.HostID == profileID || (d.GuestID != nil && *d.GuestID == profileID) {
			windows = append(windows, TimeWindow{ID: d.ID, Start: d.StartsAt(), End: d.EndsAt()})
		}
	}
	return windows, nil
}

func (f *fakeRepo) AcceptDirect(_ context.Context, id, guestID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dinings[id]
	if !ok || d.Status != StatusPending || d.GuestID == nil || *d.GuestID != guestID {
		return ErrInvalidState
	}
	d.Status = StatusAccepted
	return nil
}

func (f *fakeRepo) Decline(_ context.Context, id int64) error {
	return f.transition(id, StatusPending, StatusDeclined)
}

func (f *fakeRepo) Confirm(_ context.Context, id int64) error {
	return f.transition(id, StatusAccepted, StatusConfirmed)
}

func (f *fakeRepo) Cancel(_ context.Context, id int64, from DiningStatus, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dinings[id]
	if !ok || d.Status != from {
		return ErrInvalidState
	}
	now := time.Now()
	d.Status = StatusCancelled
	d.CancelReason = &reason
	d.CancelledAt = &now
	return nil
}

func (f *fakeRepo) Complete(_ context.Context, id int64, from DiningStatus, bill, commission, discount float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dinings[id]
	if !ok || d.Status != from {
		return ErrInvalidState
	}
	d.Status = StatusCompleted
	d.Bill = &bill
	d.Commission = &commission
	d.Discount = &discount
	return nil
}

func (f *fakeRepo) MarkExpired(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dinings[id]
	if !ok || d.Status != StatusPending || d.ExpiresAt == nil || d.ExpiresAt.After(time.Now()) {
		return ErrInvalidState
	}
	d.Status = StatusCancelled
	return nil
}

func (f *fakeRepo) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var swept int64
	for _, d := range f.dinings {
		if d.Status == StatusPending && d.ExpiresAt != nil && d.ExpiresAt.Before(now) {
			d.Status = StatusCancelled
			swept++
		}
	}
	return swept, nil
}

func (f *fakeRepo) CreateJoinRequest(_ context.Context, diningID, requesterID int64) (*JoinRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.DiningID == diningID && r.RequesterID == requesterID && r.Status == RequestPending {
			return nil, ErrDuplicateRequest
		}
	}
	req := &JoinRequest{
		ID:          f.nextID,
		DiningID:    diningID,
		RequesterID: requesterID,
		Status:      RequestPending,
		CreatedAt:   time.Now(),
	}
	f.nextID++
	f.requests[req.ID] = req
	out := *req
	return &out, nil
}

func (f *fakeRepo) GetJoinRequest(_ context.Context, id int64) (*JoinRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

func (f *fakeRepo) ListJoinRequests(_ context.Context, diningID int64) ([]*JoinRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*JoinRequest
	for _, r := range f.requests {
		if r.DiningID == diningID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRepo) AcceptJoinRequest(_ context.Context, diningID, requestID, requesterID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dinings[diningID]
	if !ok || d.Status != StatusPending || d.GuestID != nil {
		return ErrInvalidState
	}
	r, ok := f.requests[requestID]
	if !ok || r.Status != RequestPending {
		return ErrInvalidState
	}
	d.GuestID = &requesterID
	d.Status = StatusAccepted
	r.Status = RequestAccepted
	for _, other := range f.requests {
		if other.DiningID == diningID && other.ID != requestID && other.Status == RequestPending {
			other.Status = RequestDeclined
		}
	}
	return nil
}

func (f *fakeRepo) DeclineJoinRequest(_ context.Context, requestID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[requestID]
	if !ok || r.Status != RequestPending {
		return ErrInvalidState
	}
	r.Status = RequestDeclined
	return nil
}

func (f *fakeRepo) AddReview(_ context.Context, diningID, profileID int64, rating int, comment *string) (*Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews[diningID] {
		if r.ProfileID == profileID {
			return nil, ErrInvalidState
		}
	}
	review := &Review{
		ID:        f.nextID,
		DiningID:  diningID,
		ProfileID: profileID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
	f.nextID++
	f.reviews[diningID] = append(f.reviews[diningID], review)
	out := *review
	return &out, nil
}

func (f *fakeRepo) GetReviews(_ context.Context, diningID int64) ([]*Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Review(nil), f.reviews[diningID]...), nil
}

func (f *fakeRepo) MapListing(_ context.Context, _ timeslot.Slot, _ time.Time) ([]*MapEntry, error) {
	return nil, nil
}

func (f *fakeRepo) transition(id int64, from, to DiningStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dinings[id]
	if !ok || d.Status != from {
		return ErrInvalidState
	}
	d.Status = to
	return nil
}

// fakeProfiles maps user ids straight onto profile ids
type fakeProfiles struct{}

func (fakeProfiles) CreateProfile(context.Context, int64, *profile.CreateProfileRequest) (*profile.Profile, error) {
	return nil, nil
}

func (fakeProfiles) GetProfile(_ context.Context, id int64) (*profile.Profile, error) {
	return &profile.Profile{ID: id, UserID: id}, nil
}

func (fakeProfiles) GetOwnProfile(_ context.Context, userID int64) (*profile.Profile, error) {
	return &profile.Profile{ID: userID, UserID: userID}, nil
}

func (fakeProfiles) UpdateProfile(context.Context, int64, *profile.UpdateProfileRequest) (*profile.Profile, error) {
	return nil, nil
}

func (fakeProfiles) UpdateAvailability(context.Context, int64, *profile.UpdateAvailabilityRequest) (*profile.Profile, error) {
	return nil, nil
}

func (fakeProfiles) ApproveProfile(context.Context, int64, *profile.ApproveProfileRequest) error {
	return nil
}

func (fakeProfiles) DeleteAccount(context.Context, int64) error { return nil }

// fakeRestaurants serves one always-open restaurant per id
type fakeRestaurants struct{}

func (fakeRestaurants) Create(context.Context, *restaurant.CreateRestaurantRequest) (*restaurant.Restaurant, error) {
	return nil, nil
}

func (fakeRestaurants) BulkCreate(context.Context, *restaurant.BulkCreateRequest) ([]*restaurant.Restaurant, error) {
	return nil, nil
}

func (fakeRestaurants) Get(_ context.Context, id int64) (*restaurant.Restaurant, error) {
	return &restaurant.Restaurant{ID: id, IsActive: true}, nil
}

func (fakeRestaurants) List(context.Context, *restaurant.ListFilter) ([]*restaurant.Restaurant, error) {
	return nil, nil
}

func (fakeRestaurants) Nearby(context.Context, *restaurant.NearbyFilter) ([]*restaurant.Restaurant, error) {
	return nil, nil
}

func (fakeRestaurants) EventMap(context.Context, *restaurant.NearbyFilter) ([]*restaurant.EventMapEntry, error) {
	return nil, nil
}

func (fakeRestaurants) Update(context.Context, int64, *restaurant.UpdateRestaurantRequest) (*restaurant.Restaurant, error) {
	return nil, nil
}

func (fakeRestaurants) Deactivate(context.Context, int64) error { return nil }

func (fakeRestaurants) AddReview(context.Context, int64, int64, *restaurant.AddReviewRequest) (*restaurant.Review, error) {
	return nil, nil
}

func (fakeRestaurants) GetReviews(context.Context, int64, int, int) ([]*restaurant.Review, error) {
	return nil, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (n *recordingNotifier) Notify(_ context.Context, _ int64, kind string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
}

func newTestService(repo *fakeRepo) (Service, *recordingNotifier) {
	notifier := &recordingNotifier{}
	cfg := &config.Config{
		ConflictBuffer:         2 * time.Hour,
		InvitationExpiry:       7 * 24 * time.Hour,
		PlatformCommissionRate: 0.05,
		DinerDiscountRate:      0.05,
		MapCacheTTL:            30 * time.Second,
	}
	svc := NewService(repo, fakeProfiles{}, fakeRestaurants{}, notifier, nil, cfg, testMetrics, slog.Default())
	return svc, notifier
}

func futureDate() string {
	return time.Now().AddDate(0, 1, 0).Format("2006-01-02")
}

func TestCreate_OpenInvitationGetsExpiry(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	d, err := svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		Date:              futureDate(),
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "open",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, d.Status)
	assert.Nil(t, d.GuestID)
	require.NotNil(t, d.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), *d.ExpiresAt, time.Minute)
}

func TestCreate_DirectInvitationRules(t *testing.T) {
	repo := newFakeRepo()
	svc, notifier := newTestService(repo)
	guest := int64(2)

	_, err := svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		Date:              futureDate(),
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "direct",
	})
	assert.ErrorIs(t, err, ErrDirectNeedsGuest)

	self := int64(1)
	_, err = svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		GuestID:           &self,
		Date:              futureDate(),
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "direct",
	})
	assert.ErrorIs(t, err, ErrSelfInvite)

	d, err := svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		GuestID:           &guest,
		Date:              futureDate(),
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "direct",
	})
	require.NoError(t, err)
	assert.Nil(t, d.ExpiresAt)
	assert.Contains(t, notifier.kinds, "dining.invited")
}

func TestCreate_PastDateRejected(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		Date:              "2020-01-01",
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "open",
	})
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestRespond_AcceptAndDecline(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	guest := int64(2)

	d, err := svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		GuestID:           &guest,
		Date:              futureDate(),
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "direct",
	})
	require.NoError(t, err)

	// Only the assigned guest may respond
	_, err = svc.Respond(context.Background(), 3, d.ID, &RespondRequest{Action: "accept"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	accepted, err := svc.Respond(context.Background(), guest, d.ID, &RespondRequest{Action: "accept"})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)

	// Accepting again is no longer pending
	_, err = svc.Respond(context.Background(), guest, d.ID, &RespondRequest{Action: "accept"})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRespond_SchedulingConflict(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	guest := int64(2)
	date := futureDate()

	first, err := svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		GuestID:           &guest,
		Date:              date,
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "direct",
	})
	require.NoError(t, err)
	_, err = svc.Respond(context.Background(), guest, first.ID, &RespondRequest{Action: "accept"})
	require.NoError(t, err)

	// Ends 20:30; 21:00 start is inside the 2 hour buffer
	second, err := svc.Create(context.Background(), 3, &CreateDiningRequest{
		RestaurantID:      10,
		GuestID:           &guest,
		Date:              date,
		Time:              "21:00",
		EstimatedDuration: 60,
		Type:              "direct",
	})
	require.NoError(t, err)
	_, err = svc.Respond(context.Background(), guest, second.ID, &RespondRequest{Action: "accept"})
	assert.ErrorIs(t, err, ErrSchedulingConflict)

	// 23:00 is 2.5 hours clear of the first engagement
	third, err := svc.Create(context.Background(), 4, &CreateDiningRequest{
		RestaurantID:      10,
		GuestID:           &guest,
		Date:              date,
		Time:              "23:00",
		EstimatedDuration: 60,
		Type:              "direct",
	})
	require.NoError(t, err)
	_, err = svc.Respond(context.Background(), guest, third.ID, &RespondRequest{Action: "accept"})
	assert.NoError(t, err)
}

func TestRespond_ConfirmedEngagementStillBlocks(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	guest := int64(2)
	date := futureDate()

	first, err := svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		GuestID:           &guest,
		Date:              date,
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "direct",
	})
	require.NoError(t, err)
	_, err = svc.Respond(context.Background(), guest, first.ID, &RespondRequest{Action: "accept"})
	require.NoError(t, err)

	// A seated engagement keeps blocking the window
	repo.mu.Lock()
	repo.dinings[first.ID].Status = StatusConfirmed
	repo.mu.Unlock()

	second, err := svc.Create(context.Background(), 3, &CreateDiningRequest{
		RestaurantID:      10,
		GuestID:           &guest,
		Date:              date,
		Time:              "20:00",
		EstimatedDuration: 60,
		Type:              "direct",
	})
	require.NoError(t, err)
	_, err = svc.Respond(context.Background(), guest, second.ID, &RespondRequest{Action: "accept"})
	assert.ErrorIs(t, err, ErrSchedulingConflict)
}

func TestRespond_ExpiredInvitationCancelled(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	guest := int64(2)

	d, err := svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		GuestID:           &guest,
		Date:              futureDate(),
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "direct",
	})
	require.NoError(t, err)

	// Force the invitation past its expiry
	past := time.Now().Add(-time.Hour)
	repo.mu.Lock()
	repo.dinings[d.ID].ExpiresAt = &past
	repo.mu.Unlock()

	_, err = svc.Respond(context.Background(), guest, d.ID, &RespondRequest{Action: "accept"})
	assert.ErrorIs(t, err, ErrExpired)

	// Lazy expiry cancelled the record as a side effect
	got, err := repo.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestJoinRequestArbitration(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	d, err := svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		Date:              futureDate(),
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "open",
	})
	require.NoError(t, err)

	// Host cannot request their own table
	_, err = svc.RequestToJoin(context.Background(), 1, d.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	reqA, err := svc.RequestToJoin(context.Background(), 2, d.ID)
	require.NoError(t, err)
	reqB, err := svc.RequestToJoin(context.Background(), 3, d.ID)
	require.NoError(t, err)

	// Duplicate pending request is rejected
	_, err = svc.RequestToJoin(context.Background(), 2, d.ID)
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	// Only the host arbitrates
	_, err = svc.RespondToJoinRequest(context.Background(), 2, reqA.ID, &RespondJoinRequest{Action: "accept"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	updated, err := svc.RespondToJoinRequest(context.Background(), 1, reqA.ID, &RespondJoinRequest{Action: "accept"})
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, updated.Status)
	require.NotNil(t, updated.GuestID)
	assert.Equal(t, int64(2), *updated.GuestID)

	// The competing request was auto-declined
	other, err := repo.GetJoinRequest(context.Background(), reqB.ID)
	require.NoError(t, err)
	assert.Equal(t, RequestDeclined, other.Status)

	// Accepting the declined request now fails
	_, err = svc.RespondToJoinRequest(context.Background(), 1, reqB.ID, &RespondJoinRequest{Action: "accept"})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteComputesFlatCommission(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	guest := int64(2)

	d, err := svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		GuestID:           &guest,
		Date:              futureDate(),
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "direct",
	})
	require.NoError(t, err)

	// Cannot complete while pending
	_, err = svc.Complete(context.Background(), 1, d.ID, &CompleteRequest{Bill: 200})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Respond(context.Background(), guest, d.ID, &RespondRequest{Action: "accept"})
	require.NoError(t, err)

	done, err := svc.Complete(context.Background(), 1, d.ID, &CompleteRequest{Bill: 200})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	require.NotNil(t, done.Commission)
	require.NotNil(t, done.Discount)
	assert.InDelta(t, 10.0, *done.Commission, 1e-9)
	assert.InDelta(t, 10.0, *done.Discount, 1e-9)
}

func TestCancelByParticipantOnly(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	guest := int64(2)

	d, err := svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		GuestID:           &guest,
		Date:              futureDate(),
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "direct",
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), 5, d.ID, &CancelRequest{Reason: "not mine"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	cancelled, err := svc.Cancel(context.Background(), guest, d.ID, &CancelRequest{Reason: "can't make it"})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "can't make it", *cancelled.CancelReason)
	assert.NotNil(t, cancelled.CancelledAt)

	// Terminal states stay terminal
	_, err = svc.Cancel(context.Background(), 1, d.ID, &CancelRequest{Reason: "again"})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReviewsOnlyAfterCompletion(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	guest := int64(2)

	d, err := svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		GuestID:           &guest,
		Date:              futureDate(),
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "direct",
	})
	require.NoError(t, err)
	_, err = svc.Respond(context.Background(), guest, d.ID, &RespondRequest{Action: "accept"})
	require.NoError(t, err)

	_, err = svc.AddReview(context.Background(), 1, d.ID, &AddReviewRequest{Rating: 5})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Complete(context.Background(), 1, d.ID, &CompleteRequest{Bill: 100})
	require.NoError(t, err)

	_, err = svc.AddReview(context.Background(), 1, d.ID, &AddReviewRequest{Rating: 5})
	require.NoError(t, err)
	_, err = svc.AddReview(context.Background(), guest, d.ID, &AddReviewRequest{Rating: 4})
	require.NoError(t, err)

	// One review per participant
	_, err = svc.AddReview(context.Background(), 1, d.ID, &AddReviewRequest{Rating: 3})
	assert.ErrorIs(t, err, ErrInvalidState)

	// Outsiders cannot review
	_, err = svc.AddReview(context.Background(), 9, d.ID, &AddReviewRequest{Rating: 1})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSweepExpired(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	d, err := svc.Create(context.Background(), 1, &CreateDiningRequest{
		RestaurantID:      10,
		Date:              futureDate(),
		Time:              "19:00",
		EstimatedDuration: 90,
		Type:              "open",
	})
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	repo.mu.Lock()
	repo.dinings[d.ID].ExpiresAt = &past
	repo.mu.Unlock()

	swept, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	got, err := repo.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}
