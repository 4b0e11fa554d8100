package payment

import "time"

// PaymentStatus represents the lifecycle of a transaction
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusSuccess PaymentStatus = "success"
	StatusFailed  PaymentStatus = "failed"
)

// Payment represents a gateway transaction initiated by a user
type Payment struct {
	ID        int64         `db:"id" json:"id"`
	UserID    int64         `db:"user_id" json:"user_id"`
	Email     string        `db:"email" json:"email"`
	Amount    int64         `db:"amount" json:"amount"` // smallest currency unit
	Reference string        `db:"reference" json:"reference"`
	Status    PaymentStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// InitializePaymentRequest is the payload to start a transaction
type InitializePaymentRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// InitializePaymentResponse carries the gateway checkout link
type InitializePaymentResponse struct {
	Payment    *Payment `json:"payment"`
	PaymentURL string   `json:"payment_url"`
}
