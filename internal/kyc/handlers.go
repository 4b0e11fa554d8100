package kyc

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tablemates/tablemates-backend/internal/auth"
	"github.com/tablemates/tablemates-backend/internal/common/utils"
	"github.com/tablemates/tablemates-backend/internal/profile"
)

// Handler handles HTTP requests for identity verification
type Handler struct {
	service Service
}

// NewHandler creates a new KYC handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Verify handles POST /api/v1/kyc/verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Verify(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrVerificationFailed):
			utils.RespondWithError(w, http.StatusUnauthorized, "Verification failed")
		case errors.Is(err, profile.ErrProfileNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "Profile not found")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Verification process failed")
		}
		return
	}

	utils.RespondWithData(w, http.StatusOK, "User verified", result)
}
