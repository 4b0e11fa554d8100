package kyc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	jobTypeDocumentVerification = 2

	imageTypeSelfie   = 0
	imageTypeDocument = 1
)

// SmileIDClient submits verification jobs to the Smile ID API
type SmileIDClient struct {
	httpClient *http.Client
	baseURL    string
	partnerID  string
	authToken  string
}

// NewSmileIDClient creates a new Smile ID API client
func NewSmileIDClient(baseURL, partnerID, authToken string) *SmileIDClient {
	return &SmileIDClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		partnerID:  partnerID,
		authToken:  authToken,
	}
}

type jobImage struct {
	ImageTypeID int    `json:"image_type_id"`
	Image       string `json:"image"`
}

type jobRequest struct {
	PartnerID        string     `json:"partner_id"`
	JobType          int        `json:"job_type"`
	UserID           string     `json:"user_id"`
	Images           []jobImage `json:"images"`
	SourceSDK        string     `json:"source_sdk"`
	SourceSDKVersion string     `json:"source_sdk_version"`
}

type jobResponse struct {
	Success        bool   `json:"success"`
	VerificationID string `json:"verificationId"`
	Status         string `json:"status"`
}

// VerifyDocument submits a document verification job for a profile.
// Returns ErrVerificationFailed when the provider rejects the job.
func (c *SmileIDClient) VerifyDocument(ctx context.Context, profileID int64, selfie, document string) (*VerifyResponse, error) {
	payload, err := json.Marshal(jobRequest{
		PartnerID: c.partnerID,
		JobType:   jobTypeDocumentVerification,
		UserID:    fmt.Sprintf("%d", profileID),
		Images: []jobImage{
			{ImageTypeID: imageTypeSelfie, Image: selfie},
			{ImageTypeID: imageTypeDocument, Image: document},
		},
		SourceSDK:        "go",
		SourceSDKVersion: "1.0",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/job", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	var result jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode verification response: %w", err)
	}
	if !result.Success {
		return nil, ErrVerificationFailed
	}

	status := result.Status
	if status == "" {
		status = "Approved"
	}
	return &VerifyResponse{
		VerificationID: result.VerificationID,
		Status:         status,
	}, nil
}
