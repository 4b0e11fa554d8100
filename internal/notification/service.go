package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/tablemates/tablemates-backend/internal/profile"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// Service defines the notification service interface. Notify is the
// delivery entry point other packages call when something happens to a
// profile's engagement.
type Service interface {
	Notify(ctx context.Context, profileID int64, kind string, payload interface{})
	List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

type service struct {
	repo           Repository
	profileService profile.Service
	hub            *Hub
	logger         *slog.Logger
}

// NewService creates a new notification service
func NewService(repo Repository, profileService profile.Service, hub *Hub, logger *slog.Logger) Service {
	return &service{
		repo:           repo,
		profileService: profileService,
		hub:            hub,
		logger:         logger,
	}
}

// Notify persists the notification and pushes it live when the profile
// has an open websocket. Delivery is best effort and never fails the
// caller's operation.
func (s *service) Notify(ctx context.Context, profileID int64, kind string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal notification payload",
			"profile_id", profileID, "kind", kind, "error", err)
		data = json.RawMessage(`{}`)
	}

	stored, err := s.repo.Create(ctx, profileID, kind, data)
	if err != nil {
		s.logger.Error("failed to store notification",
			"profile_id", profileID, "kind", kind, "error", err)
		return
	}

	frame, err := json.Marshal(stored)
	if err != nil {
		return
	}
	s.hub.SendToProfile(profileID, WSMessage{
		Type:      kind,
		Data:      frame,
		Timestamp: time.Now(),
	})
}

func (s *service) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*Notification, error) {
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
	return s.repo.ListForProfile(ctx, prof.ID, unreadOnly, limit, offset)
}

func (s *service) MarkRead(ctx context.Context, userID, id int64) error {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, id, prof.ID)
}

func (s *service) MarkAllRead(ctx context.Context, userID int64) error {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.MarkAllRead(ctx, prof.ID)
}
