package kyc

// VerifyRequest carries the base64-encoded images for a document
// verification job.
type VerifyRequest struct {
	Selfie   string `json:"selfie" validate:"required"`
	Document string `json:"document" validate:"required"`
}

// VerifyResponse is the outcome of a verification job
type VerifyResponse struct {
	VerificationID string `json:"verification_id,omitempty"`
	Status         string `json:"status"`
}
