package restaurant

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tablemates/tablemates-backend/internal/auth"
)

// RegisterRoutes registers all restaurant routes. Read endpoints are
// public so the discovery map works before sign-in.
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	publicRouter := router.PathPrefix("/api/v1/restaurants").Subrouter()
	publicRouter.Use(authMiddleware.OptionalAuthenticate)

	publicRouter.HandleFunc("", handler.List).Methods(http.MethodGet)
	publicRouter.HandleFunc("/nearby", handler.Nearby).Methods(http.MethodGet)
	publicRouter.HandleFunc("/events-map", handler.EventMap).Methods(http.MethodGet)
	publicRouter.HandleFunc("/{id:[0-9]+}", handler.Get).Methods(http.MethodGet)
	publicRouter.HandleFunc("/{id:[0-9]+}/reviews", handler.GetReviews).Methods(http.MethodGet)

	protectedRouter := router.PathPrefix("/api/v1/restaurants").Subrouter()
	protectedRouter.Use(authMiddleware.Authenticate)

	protectedRouter.HandleFunc("", handler.Create).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/bulk", handler.BulkCreate).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{id:[0-9]+}", handler.Update).Methods(http.MethodPatch)
	protectedRouter.HandleFunc("/{id:[0-9]+}", handler.Deactivate).Methods(http.MethodDelete)
	protectedRouter.HandleFunc("/{id:[0-9]+}/reviews", handler.AddReview).Methods(http.MethodPost)
}
