package event

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemates/tablemates-backend/internal/profile"
)

var testMetrics = NewMetrics()

// fakeEventRepo mirrors the repository's slot semantics in memory: the
// participation insert is guarded by a per-event uniqueness check and the
// decrement only happens while slots > 0.
type fakeEventRepo struct {
	mu             sync.Mutex
	events         map[int64]*Event
	participations map[int64]map[int64]time.Time
	nextID         int64
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		events:         make(map[int64]*Event),
		participations: make(map[int64]map[int64]time.Time),
		nextID:         1,
	}
}

func (f *fakeEventRepo) add(e *Event) *Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	e.ID = f.nextID
	f.nextID++
	f.events[e.ID] = e
	f.participations[e.ID] = make(map[int64]time.Time)
	return e
}

func (f *fakeEventRepo) Create(_ context.Context, e *Event) (*Event, error) {
	return f.add(e), nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id int64) (*Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeEventRepo) List(context.Context, *ListFilter) ([]*Event, error) { return nil, nil }

func (f *fakeEventRepo) Update(context.Context, int64, *UpdateEventRequest, *time.Time, *time.Time) (*Event, error) {
	return nil, nil
}

func (f *fakeEventRepo) DeleteCascade(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.events, id)
	delete(f.participations, id)
	return nil
}

func (f *fakeEventRepo) SetStatus(_ context.Context, id int64, from, to EventStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[id]
	if !ok || e.Status != from {
		return ErrEventNotFound
	}
	e.Status = to
	return nil
}

func (f *fakeEventRepo) Join(_ context.Context, eventID, profileID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	if _, dup := f.participations[eventID][profileID]; dup {
		return ErrAlreadyJoined
	}
	if e.Slots <= 0 {
		return ErrEventFull
	}

	f.participations[eventID][profileID] = time.Now()
	e.Slots--
	return nil
}

func (f *fakeEventRepo) Leave(_ context.Context, eventID, profileID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	if _, joined := f.participations[eventID][profileID]; !joined {
		return ErrNotAttending
	}

	delete(f.participations[eventID], profileID)
	if e.Slots < e.Capacity {
		e.Slots++
	}
	return nil
}

func (f *fakeEventRepo) GetParticipants(_ context.Context, eventID int64) ([]*Participation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*Participation
	for pid, joined := range f.participations[eventID] {
		out = append(out, &Participation{EventID: eventID, ProfileID: pid, JoinedAt: joined})
	}
	return out, nil
}

func (f *fakeEventRepo) IsAttending(_ context.Context, eventID, profileID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.participations[eventID][profileID]
	return ok, nil
}

func (f *fakeEventRepo) GetAttendedEventIDs(context.Context, int64) ([]int64, error) {
	return nil, nil
}

func (f *fakeEventRepo) ListAttending(context.Context, int64, int, int) ([]*Event, error) {
	return nil, nil
}

func (f *fakeEventRepo) SuggestionCandidates(context.Context, int64, time.Time, time.Time, time.Time) ([]*Event, error) {
	return nil, nil
}

func (f *fakeEventRepo) RelaxedSuggestionCandidates(context.Context, int64, time.Time) ([]*Event, error) {
	return nil, nil
}

func (f *fakeEventRepo) AddReview(context.Context, int64, int64, int, *string) (*Review, error) {
	return nil, nil
}

func (f *fakeEventRepo) GetReviews(context.Context, int64, int, int) ([]*Review, error) {
	return nil, nil
}

// slots plus attendees must always equal capacity
func (f *fakeEventRepo) checkConservation(t *testing.T, eventID int64) {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	e := f.events[eventID]
	require.NotNil(t, e)
	assert.GreaterOrEqual(t, e.Slots, 0)
	assert.Equal(t, e.Capacity, e.Slots+len(f.participations[eventID]))
}

// fakeProfileService hands back a profile whose id matches the user id
type fakeProfileService struct{}

func (fakeProfileService) CreateProfile(context.Context, int64, *profile.CreateProfileRequest) (*profile.Profile, error) {
	return nil, nil
}

func (fakeProfileService) GetProfile(_ context.Context, id int64) (*profile.Profile, error) {
	return &profile.Profile{ID: id, UserID: id}, nil
}

func (fakeProfileService) GetOwnProfile(_ context.Context, userID int64) (*profile.Profile, error) {
	return &profile.Profile{ID: userID, UserID: userID}, nil
}

func (fakeProfileService) UpdateProfile(context.Context, int64, *profile.UpdateProfileRequest) (*profile.Profile, error) {
	return nil, nil
}

func (fakeProfileService) UpdateAvailability(context.Context, int64, *profile.UpdateAvailabilityRequest) (*profile.Profile, error) {
	return nil, nil
}

func (fakeProfileService) ApproveProfile(context.Context, int64, *profile.ApproveProfileRequest) error {
	return nil
}

func (fakeProfileService) DeleteAccount(context.Context, int64) error { return nil }

func newLedgerTestService(repo *fakeEventRepo) Service {
	engine := NewMatchingEngine(defaultWeights(), 5)
	return NewService(repo, fakeProfileService{}, engine, testMetrics, slog.Default())
}

func upcomingEvent(capacity int) *Event {
	start := time.Now().Add(48 * time.Hour)
	return &Event{
		HostID:    1,
		Title:     "Dim sum Saturday",
		StartDate: start,
		EndDate:   start.Add(2 * time.Hour),
		Capacity:  capacity,
		Slots:     capacity,
		Status:    StatusUpcoming,
	}
}

func TestJoinLeave_SlotConservation(t *testing.T) {
	t.Parallel()

	repo := newFakeEventRepo()
	svc := newLedgerTestService(repo)
	ctx := context.Background()

	e := repo.add(upcomingEvent(3))

	require.NoError(t, svc.Join(ctx, 2, e.ID))
	require.NoError(t, svc.Join(ctx, 3, e.ID))
	repo.checkConservation(t, e.ID)

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Slots)

	require.NoError(t, svc.Leave(ctx, 2, e.ID))
	repo.checkConservation(t, e.ID)

	got, err = svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Slots)
}

func TestJoin_SecondJoinRejected(t *testing.T) {
	t.Parallel()

	repo := newFakeEventRepo()
	svc := newLedgerTestService(repo)
	ctx := context.Background()

	e := repo.add(upcomingEvent(3))

	require.NoError(t, svc.Join(ctx, 2, e.ID))
	err := svc.Join(ctx, 2, e.ID)
	require.ErrorIs(t, err, ErrAlreadyJoined)

	// The duplicate must not burn a slot
	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Slots)
	repo.checkConservation(t, e.ID)
}

func TestJoin_FullEventRejected(t *testing.T) {
	t.Parallel()

	repo := newFakeEventRepo()
	svc := newLedgerTestService(repo)
	ctx := context.Background()

	e := repo.add(upcomingEvent(2))

	require.NoError(t, svc.Join(ctx, 2, e.ID))
	require.NoError(t, svc.Join(ctx, 3, e.ID))

	err := svc.Join(ctx, 4, e.ID)
	require.ErrorIs(t, err, ErrEventFull)

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Slots)
	repo.checkConservation(t, e.ID)

	attending, err := svc.GetParticipants(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, attending, 2)
}

func TestJoin_HostAndStatusGuards(t *testing.T) {
	t.Parallel()

	repo := newFakeEventRepo()
	svc := newLedgerTestService(repo)
	ctx := context.Background()

	e := repo.add(upcomingEvent(4))
	err := svc.Join(ctx, e.HostID, e.ID)
	require.ErrorIs(t, err, ErrHostCannotJoin)

	cancelled := upcomingEvent(4)
	cancelled.Status = StatusCancelled
	c := repo.add(cancelled)
	err = svc.Join(ctx, 2, c.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestLeave_NotAttending(t *testing.T) {
	t.Parallel()

	repo := newFakeEventRepo()
	svc := newLedgerTestService(repo)
	ctx := context.Background()

	e := repo.add(upcomingEvent(3))

	err := svc.Leave(ctx, 9, e.ID)
	require.ErrorIs(t, err, ErrNotAttending)

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Slots)
}
