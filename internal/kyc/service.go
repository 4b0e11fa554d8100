package kyc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tablemates/tablemates-backend/internal/auth"
	"github.com/tablemates/tablemates-backend/internal/profile"
)

var (
	ErrVerificationFailed = errors.New("identity verification failed")
)

// Service defines the KYC service interface
type Service interface {
	Verify(ctx context.Context, userID int64, req *VerifyRequest) (*VerifyResponse, error)
}

type service struct {
	client         *SmileIDClient
	authService    auth.Service
	profileService profile.Service
	logger         *slog.Logger
}

// NewService creates a new KYC service
func NewService(client *SmileIDClient, authService auth.Service, profileService profile.Service, logger *slog.Logger) Service {
	return &service{
		client:         client,
		authService:    authService,
		profileService: profileService,
		logger:         logger,
	}
}

// Verify runs a document verification job for the caller's profile and
// marks the account verified when the provider approves it.
func (s *service) Verify(ctx context.Context, userID int64, req *VerifyRequest) (*VerifyResponse, error) {
	prof, err := s.profileService.GetOwnProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.client.VerifyDocument(ctx, prof.ID, req.Selfie, req.Document)
	if err != nil {
		s.logger.Warn("identity verification failed",
			"user_id", userID, "profile_id", prof.ID, "error", err)
		return nil, err
	}

	if err := s.authService.MarkVerified(ctx, userID); err != nil {
		return nil, err
	}

	s.logger.Info("identity verified",
		"user_id", userID, "profile_id", prof.ID, "verification_id", result.VerificationID)
	return result, nil
}
