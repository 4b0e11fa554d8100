package notification

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tablemates/tablemates-backend/internal/auth"
)

// RegisterRoutes registers all notification routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	notifRouter := router.PathPrefix("/api/v1/notifications").Subrouter()
	notifRouter.Use(authMiddleware.Authenticate)

	notifRouter.HandleFunc("", handler.List).Methods(http.MethodGet)
	notifRouter.HandleFunc("/ws", handler.Connect).Methods(http.MethodGet)
	notifRouter.HandleFunc("/read-all", handler.MarkAllRead).Methods(http.MethodPost)
	notifRouter.HandleFunc("/{id:[0-9]+}/read", handler.MarkRead).Methods(http.MethodPost)
}
