package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tablemates/tablemates-backend/internal/auth"
	"github.com/tablemates/tablemates-backend/internal/common/utils"
)

// Handler handles HTTP requests for payments
type Handler struct {
	service Service
}

// NewHandler creates a new payment handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Initialize handles POST /api/v1/payments
func (h *Handler) Initialize(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req InitializePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Initialize(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrGatewayDeclined) {
			utils.RespondWithError(w, http.StatusBadRequest, "Payment was declined by the gateway")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Payment initialization failed")
		return
	}

	utils.RespondWithData(w, http.StatusCreated, "Payment initialized", resp)
}

// Verify handles GET /api/v1/payments/verify/{reference}
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	reference := mux.Vars(r)["reference"]
	if reference == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing payment reference")
		return
	}

	p, err := h.service.Verify(r.Context(), reference)
	if err != nil {
		switch {
		case errors.Is(err, ErrPaymentNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "Payment not found")
		case errors.Is(err, ErrGatewayDeclined):
			utils.RespondWithError(w, http.StatusBadRequest, "Payment verification was declined")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Payment verification failed")
		}
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Payment verified", p)
}

// ListMine handles GET /api/v1/payments
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	payments, err := h.service.ListMine(r.Context(), userID, 20, 0)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list payments")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Payments retrieved", payments)
}
