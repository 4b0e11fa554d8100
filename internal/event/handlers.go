package event

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tablemates/tablemates-backend/internal/auth"
	"github.com/tablemates/tablemates-backend/internal/common/utils"
)

// Handler handles HTTP requests for events
type Handler struct {
	service Service
}

// NewHandler creates a new event handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/v1/events
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrInvalidDates) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	utils.RespondWithData(w, http.StatusCreated, "Event created", e)
}

// ListMine handles GET /api/v1/events/mine?role=hosted|attending
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	role := r.URL.Query().Get("role")
	if role != "hosted" {
		role = "attending"
	}

	events, err := h.service.ListMine(r.Context(), userID, role,
		parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		h.respondServiceError(w, err, "Failed to list events")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Events retrieved", events)
}

// Get handles GET /api/v1/events/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Event not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch event")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Event retrieved", e)
}

// List handles GET /api/v1/events
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := &ListFilter{
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	}
	if v := q.Get("status"); v != "" {
		status := EventStatus(v)
		filter.Status = &status
	}
	if v := q.Get("visibility"); v != "" {
		visibility := Visibility(v)
		filter.Visibility = &visibility
	}
	if v := q.Get("host_id"); v != "" {
		if hostID, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.HostID = &hostID
		}
	}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = &t
		}
	}
	if v := q.Get("min_capacity"); v != "" {
		if capacity, err := strconv.Atoi(v); err == nil {
			filter.MinCapacity = &capacity
		}
	}

	// year/month shortcuts expand into a start_date window
	if year := parseIntQuery(r, "year", 0); year > 0 {
		from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(1, 0, 0).Add(-time.Second)
		if month := parseIntQuery(r, "month", 0); month >= 1 && month <= 12 {
			from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
			to = from.AddDate(0, 1, 0).Add(-time.Second)
		}
		filter.From = &from
		filter.To = &to
	}

	events, err := h.service.List(r.Context(), filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Events retrieved", events)
}

// Update handles PATCH /api/v1/events/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := eventID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	var req UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.service.Update(r.Context(), userID, id, &req)
	if err != nil {
		h.respondServiceError(w, err, "Failed to update event")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Event updated", e)
}

// Delete handles DELETE /api/v1/events/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := eventID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		h.respondServiceError(w, err, "Failed to delete event")
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Event deleted")
}

// Cancel handles POST /api/v1/events/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := eventID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	if err := h.service.Cancel(r.Context(), userID, id); err != nil {
		h.respondServiceError(w, err, "Failed to cancel event")
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Event cancelled")
}

// Complete handles POST /api/v1/events/{id}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := eventID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	if err := h.service.Complete(r.Context(), userID, id); err != nil {
		h.respondServiceError(w, err, "Failed to complete event")
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Event completed")
}

// Join handles POST /api/v1/events/{id}/join
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := eventID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	if err := h.service.Join(r.Context(), userID, id); err != nil {
		h.respondServiceError(w, err, "Failed to join event")
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Joined event")
}

// Leave handles POST /api/v1/events/{id}/leave
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := eventID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	if err := h.service.Leave(r.Context(), userID, id); err != nil {
		h.respondServiceError(w, err, "Failed to leave event")
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Left event")
}

// GetParticipants handles GET /api/v1/events/{id}/participants
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	participants, err := h.service.GetParticipants(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Event not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch participants")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Participants retrieved", participants)
}

// Suggest handles POST /api/v1/events/suggest
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestion, err := h.service.Suggest(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrNoEventsAvailable) {
			utils.RespondWithError(w, http.StatusNotFound, "No events available")
			return
		}
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Event suggested", suggestion)
}

// AddReview handles POST /api/v1/events/{id}/reviews
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := eventID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event id")
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

// GetReviews handles GET /api/v1/events/{id}/reviews
func (h *Handler) GetReviews(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event id")
		return
	}

	reviews, err := h.service.GetReviews(r.Context(), id,
		parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch reviews")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Reviews retrieved", reviews)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrEventNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
	case errors.Is(err, ErrNotHost):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrEventFull):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrAlreadyJoined),
		errors.Is(err, ErrAlreadyReviewed),
		errors.Is(err, ErrHostCannotJoin):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotAttending),
		errors.Is(err, ErrNotAttended),
		errors.Is(err, ErrNotCompleted),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInvalidDates):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func eventID(r *http.Request) (int64, error) {
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
