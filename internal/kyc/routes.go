package kyc

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tablemates/tablemates-backend/internal/auth"
)

// RegisterRoutes registers all KYC routes
func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	kycRouter := router.PathPrefix("/api/v1/kyc").Subrouter()
	kycRouter.Use(authMiddleware.Authenticate)

	kycRouter.HandleFunc("/verify", handler.Verify).Methods(http.MethodPost)
}
