package payment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tablemates/tablemates-backend/internal/auth"
)

var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrDuplicateReference = errors.New("payment reference already exists")
	ErrGatewayDeclined    = errors.New("payment gateway declined the request")
)

// Service defines the payment service interface
type Service interface {
	Initialize(ctx context.Context, userID int64, req *InitializePaymentRequest) (*InitializePaymentResponse, error)
	Verify(ctx context.Context, reference string) (*Payment, error)
	ListMine(ctx context.Context, userID int64, limit, offset int) ([]*Payment, error)
}

type service struct {
	repo        Repository
	authService auth.Service
	gateway     *PaystackClient
	metrics     *Metrics
	logger      *slog.Logger
}

// NewService creates a new payment service
func NewService(repo Repository, authService auth.Service, gateway *PaystackClient, metrics *Metrics, logger *slog.Logger) Service {
	return &service{
		repo:        repo,
		authService: authService,
		gateway:     gateway,
		metrics:     metrics,
		logger:      logger,
	}
}

// Initialize starts a gateway transaction for the caller and records it
// as pending until verification settles it.
func (s *service) Initialize(ctx context.Context, userID int64, req *InitializePaymentRequest) (*InitializePaymentResponse, error) {
	user, err := s.authService.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	reference := uuid.NewString()
	result, err := s.gateway.Initialize(ctx, user.Email, req.Amount, reference)
	if err != nil {
		s.logger.Error("payment initialization failed",
			"user_id", userID, "amount", req.Amount, "error", err)
		return nil, err
	}

	p, err := s.repo.Create(ctx, &Payment{
		UserID:    userID,
		Email:     user.Email,
		Amount:    req.Amount,
		Reference: result.Reference,
		Status:    StatusPending,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Initialized.Inc()
	s.logger.Info("payment initialized",
		"user_id", userID, "reference", p.Reference, "amount", p.Amount)

	return &InitializePaymentResponse{
		Payment:    p,
		PaymentURL: result.AuthorizationURL,
	}, nil
}

// Verify settles a pending payment against the gateway's record
func (s *service) Verify(ctx context.Context, reference string) (*Payment, error) {
	if _, err := s.repo.GetByReference(ctx, reference); err != nil {
		return nil, err
	}

	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		s.logger.Error("payment verification failed", "reference", reference, "error", err)
		return nil, err
	}

	status := StatusFailed
	if result.Status == "success" {
		status = StatusSuccess
	}

	if err := s.repo.UpdateStatus(ctx, reference, status); err != nil {
		return nil, err
	}

	if status == StatusSuccess {
		s.metrics.Succeeded.Inc()
	} else {
		s.metrics.Failed.Inc()
	}
	s.logger.Info("payment verified", "reference", reference, "status", status)

	return s.repo.GetByReference(ctx, reference)
}

// ListMine retrieves the caller's payment history
func (s *service) ListMine(ctx context.Context, userID int64, limit, offset int) ([]*Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListForUser(ctx, userID, limit, offset)
}
