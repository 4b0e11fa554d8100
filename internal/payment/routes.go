package payment

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tablemates/tablemates-backend/internal/auth"
)

// RegisterRoutes registers all payment routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	paymentRouter := router.PathPrefix("/api/v1/payments").Subrouter()
	paymentRouter.Use(authMiddleware.Authenticate)

	paymentRouter.HandleFunc("", handler.Initialize).Methods(http.MethodPost)
	paymentRouter.HandleFunc("", handler.ListMine).Methods(http.MethodGet)
	paymentRouter.HandleFunc("/verify/{reference}", handler.Verify).Methods(http.MethodGet)
}
