package event

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tablemates/tablemates-backend/internal/auth"
)

// RegisterRoutes registers all event routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	eventRouter := router.PathPrefix("/api/v1/events").Subrouter()
	eventRouter.Use(authMiddleware.Authenticate)

	eventRouter.HandleFunc("", handler.Create).Methods(http.MethodPost)
	eventRouter.HandleFunc("", handler.List).Methods(http.MethodGet)
	eventRouter.HandleFunc("/mine", handler.ListMine).Methods(http.MethodGet)
	eventRouter.HandleFunc("/suggest", handler.Suggest).Methods(http.MethodPost)
	eventRouter.HandleFunc("/{id:[0-9]+}", handler.Get).Methods(http.MethodGet)
	eventRouter.HandleFunc("/{id:[0-9]+}", handler.Update).Methods(http.MethodPatch)
	eventRouter.HandleFunc("/{id:[0-9]+}", handler.Delete).Methods(http.MethodDelete)
	eventRouter.HandleFunc("/{id:[0-9]+}/cancel", handler.Cancel).Methods(http.MethodPost)
	eventRouter.HandleFunc("/{id:[0-9]+}/complete", handler.Complete).Methods(http.MethodPost)
	eventRouter.HandleFunc("/{id:[0-9]+}/join", handler.Join).Methods(http.MethodPost)
	eventRouter.HandleFunc("/{id:[0-9]+}/leave", handler.Leave).Methods(http.MethodPost)
	eventRouter.HandleFunc("/{id:[0-9]+}/participants", handler.GetParticipants).Methods(http.MethodGet)
	eventRouter.HandleFunc("/{id:[0-9]+}/reviews", handler.AddReview).Methods(http.MethodPost)
	eventRouter.HandleFunc("/{id:[0-9]+}/reviews", handler.GetReviews).Methods(http.MethodGet)
}
