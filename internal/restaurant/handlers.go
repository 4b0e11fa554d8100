package restaurant

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tablemates/tablemates-backend/internal/auth"
	"github.com/tablemates/tablemates-backend/internal/common/utils"
	"github.com/tablemates/tablemates-backend/internal/profile"
)

// Handler handles HTTP requests for restaurants
type Handler struct {
	service        Service
	profileService profile.Service
}

// NewHandler creates a new restaurant handler
func NewHandler(service Service, profileService profile.Service) *Handler {
	return &Handler{service: service, profileService: profileService}
}

// Create handles POST /api/v1/restaurants
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	restaurant, err := h.service.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidHours) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create restaurant")
		return
	}

	utils.RespondWithData(w, http.StatusCreated, "Restaurant created", restaurant)
}

// BulkCreate handles POST /api/v1/restaurants/bulk
func (h *Handler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req BulkCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	restaurants, err := h.service.BulkCreate(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidHours) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create restaurants")
		return
	}

	utils.RespondWithData(w, http.StatusCreated, "Restaurants created", restaurants)
}

// Get handles GET /api/v1/restaurants/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid restaurant id")
		return
	}

	restaurant, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRestaurantNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Restaurant not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch restaurant")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Restaurant retrieved", restaurant)
}

// List handles GET /api/v1/restaurants
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := &ListFilter{
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	}
	if v := r.URL.Query().Get("city"); v != "" {
		filter.City = &v
	}
	if v := r.URL.Query().Get("cuisine"); v != "" {
		filter.Cuisine = &v
	}
	if v := r.URL.Query().Get("search"); v != "" {
		filter.Search = &v
	}
	if v := r.URL.Query().Get("min_rating"); v != "" {
		if rating, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinRating = &rating
		}
	}

	restaurants, err := h.service.List(r.Context(), filter)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list restaurants")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Restaurants retrieved", restaurants)
}

// Nearby handles GET /api/v1/restaurants/nearby?lat=&lon=&radius_km=
func (h *Handler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "lat and lon query parameters are required")
		return
	}

	radius, _ := strconv.ParseFloat(r.URL.Query().Get("radius_km"), 64)

	restaurants, err := h.service.Nearby(r.Context(), &NearbyFilter{
		Latitude:  lat,
		Longitude: lon,
		RadiusKm:  radius,
		Limit:     parseIntQuery(r, "limit", 20),
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to find nearby restaurants")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Nearby restaurants retrieved", restaurants)
}

// EventMap handles GET /api/v1/restaurants/events-map
func (h *Handler) EventMap(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "lat and lon query parameters are required")
		return
	}

	radius, _ := strconv.ParseFloat(r.URL.Query().Get("radius_km"), 64)

	entries, err := h.service.EventMap(r.Context(), &NearbyFilter{
		Latitude:  lat,
		Longitude: lon,
		RadiusKm:  radius,
		Limit:     parseIntQuery(r, "limit", 50),
	})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to build event map")
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Event map retrieved", entries)
}

// Update handles PATCH /api/v1/restaurants/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid restaurant id")
		return
	}

	var req UpdateRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	restaurant, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrRestaurantNotFound):
			utils.RespondWithError(w, http.StatusNotFound, "Restaurant not found")
		case errors.Is(err, ErrInvalidHours):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update restaurant")
		}
		return
	}

	utils.RespondWithData(w, http.StatusOK, "Restaurant updated", restaurant)
}

// Deactivate handles DELETE /api/v1/restaurants/{id}
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid restaurant id")
		return
	}

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, ErrRestaurantNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Restaurant not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to deactivate restaurant")
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "Restaurant deactivated")
}

// AddReview handles POST /api/v1/restaurants/{id}/reviews
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid restaurant id")
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

	prof, err := h.profileService.GetOwnProfile(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Profile not found")
		return
	}

	review, err := h.service.AddReview(r.Context(), id, prof.ID, &req)
	if err != nil {
		if errors.Is(err, ErrRestaurantNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Restaurant not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to add review")
		return
	}

	utils.RespondWithData(w, http.StatusCreated, "Review added", review)
}

// GetReviews handles GET /api/v1/restaurants/{id}/reviews
func (h *Handler) GetReviews(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid restaurant id")
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
