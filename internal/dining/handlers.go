package dining

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tablemates/tablemates-backend/internal/auth"
	"github.com/tablemates/tablemates-backend/internal/common/timeslot"
	"github.com/tablemates/tablemates-backend/internal/common/utils"
)

// Handler handles HTTP requests for personal dining
type Handler struct {
	service Service
}

// NewHandler creates a new dining handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/v1/dining
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateDiningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to create dining")
		return
	}

	utils.RespondWithData(w, http.StatusCreated, "Dining created", d)
}

// Get handles GET /api/v1/dining/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := diningID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid dining id")
		return
	}

	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "Failed to fetch dining")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Dining retrieved", d)
}

// ListMine handles GET /api/v1/dining
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	dinings, err := h.service.ListMine(r.Context(), userID,
		parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list dinings")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Dinings retrieved", dinings)
}

// Respond handles POST /api/v1/dining/{id}/respond
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := diningID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid dining id")
		return
	}

	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.service.Respond(r.Context(), userID, id, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to respond to invitation")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Response recorded", d)
}

// RequestToJoin handles POST /api/v1/dining/{id}/join-requests
func (h *Handler) RequestToJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := diningID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid dining id")
		return
	}

	req, err := h.service.RequestToJoin(r.Context(), userID, id)
	if err != nil {
		h.respondServiceError(w, err, "Failed to request to join")
		return
	}

	utils.RespondWithData(w, http.StatusCreated, "Join request created", req)
}

// ListJoinRequests handles GET /api/v1/dining/{id}/join-requests
func (h *Handler) ListJoinRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := diningID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid dining id")
		return
	}

	reqs, err := h.service.ListJoinRequests(r.Context(), userID, id)
	if err != nil {
		h.respondServiceError(w, err, "Failed to list join requests")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Join requests retrieved", reqs)
}

// RespondToJoinRequest handles POST /api/v1/dining/join-requests/{id}/respond
func (h *Handler) RespondToJoinRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := diningID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	var req RespondJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.service.RespondToJoinRequest(r.Context(), userID, id, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to respond to join request")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Join request response recorded", d)
}

// Confirm handles POST /api/v1/dining/{id}/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := diningID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid dining id")
		return
	}

	d, err := h.service.Confirm(r.Context(), userID, id)
	if err != nil {
		h.respondServiceError(w, err, "Failed to confirm dining")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Dining confirmed", d)
}

// Cancel handles POST /api/v1/dining/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := diningID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid dining id")
		return
	}

	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.service.Cancel(r.Context(), userID, id, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to cancel dining")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Dining cancelled", d)
}

// Complete handles POST /api/v1/dining/{id}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := diningID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid dining id")
		return
	}

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.service.Complete(r.Context(), userID, id, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to complete dining")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Dining completed", d)
}

// AddReview handles POST /api/v1/dining/{id}/reviews
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := diningID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid dining id")
		return
	}

	var req AddReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.service.AddReview(r.Context(), userID, id, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to add review")
		return
	}

	utils.RespondWithData(w, http.StatusCreated, "Review added", review)
}

// GetReviews handles GET /api/v1/dining/{id}/reviews
func (h *Handler) GetReviews(w http.ResponseWriter, r *http.Request) {
	id, err := diningID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid dining id")
		return
	}

	reviews, err := h.service.GetReviews(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "Failed to fetch reviews")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Reviews retrieved", reviews)
}

// MapListing handles GET /api/v1/dining/map?slot=morning|afternoon|night
func (h *Handler) MapListing(w http.ResponseWriter, r *http.Request) {
	slot := timeslot.Slot(r.URL.Query().Get("slot"))
	if slot != "" && !timeslot.Valid(slot) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid time slot")
		return
	}

	entries, err := h.service.MapListing(r.Context(), slot)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch map listing")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Map listing retrieved", entries)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnauthorized):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrDuplicateRequest):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrSchedulingConflict):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrExpired):
		utils.RespondWithError(w, http.StatusGone, err.Error())
	case errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrPastDate),
		errors.Is(err, ErrRestaurantClosed),
		errors.Is(err, ErrDirectNeedsGuest),
		errors.Is(err, ErrOpenHasGuest),
		errors.Is(err, ErrSelfInvite):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func diningID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
