package dining

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tablemates/tablemates-backend/internal/auth"
)

// RegisterRoutes registers all dining routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	diningRouter := router.PathPrefix("/api/v1/dining").Subrouter()
	diningRouter.Use(authMiddleware.Authenticate)

	diningRouter.HandleFunc("", handler.Create).Methods(http.MethodPost)
	diningRouter.HandleFunc("", handler.ListMine).Methods(http.MethodGet)
	diningRouter.HandleFunc("/map", handler.MapListing).Methods(http.MethodGet)
	diningRouter.HandleFunc("/join-requests/{id:[0-9]+}/respond", handler.RespondToJoinRequest).Methods(http.MethodPost)
	diningRouter.HandleFunc("/{id:[0-9]+}", handler.Get).Methods(http.MethodGet)
	diningRouter.HandleFunc("/{id:[0-9]+}/respond", handler.Respond).Methods(http.MethodPost)
	diningRouter.HandleFunc("/{id:[0-9]+}/join-requests", handler.RequestToJoin).Methods(http.MethodPost)
	diningRouter.HandleFunc("/{id:[0-9]+}/join-requests", handler.ListJoinRequests).Methods(http.MethodGet)
	diningRouter.HandleFunc("/{id:[0-9]+}/confirm", handler.Confirm).Methods(http.MethodPost)
	diningRouter.HandleFunc("/{id:[0-9]+}/cancel", handler.Cancel).Methods(http.MethodPost)
	diningRouter.HandleFunc("/{id:[0-9]+}/complete", handler.Complete).Methods(http.MethodPost)
	diningRouter.HandleFunc("/{id:[0-9]+}/reviews", handler.AddReview).Methods(http.MethodPost)
	diningRouter.HandleFunc("/{id:[0-9]+}/reviews", handler.GetReviews).Methods(http.MethodGet)
}
