package profile

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tablemates/tablemates-backend/internal/auth"
)

// RegisterRoutes registers all profile routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	profileRouter := router.PathPrefix("/api/v1/profiles").Subrouter()
	profileRouter.Use(authMiddleware.Authenticate)

	profileRouter.HandleFunc("", handler.CreateProfile).Methods(http.MethodPost)
	profileRouter.HandleFunc("/me", handler.GetOwnProfile).Methods(http.MethodGet)
	profileRouter.HandleFunc("/me", handler.UpdateProfile).Methods(http.MethodPatch)
	profileRouter.HandleFunc("/me", handler.DeleteAccount).Methods(http.MethodDelete)
	profileRouter.HandleFunc("/me/availability", handler.UpdateAvailability).Methods(http.MethodPut)
	profileRouter.HandleFunc("/me/approve", handler.ApproveProfile).Methods(http.MethodPost)
	profileRouter.HandleFunc("/{id:[0-9]+}", handler.GetProfile).Methods(http.MethodGet)
}
