package auth

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes registers all auth routes
func RegisterRoutes(router *mux.Router, handler *Handler, middleware *Middleware) {
	authRouter := router.PathPrefix("/api/v1/auth").Subrouter()

	authRouter.HandleFunc("/register", handler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", handler.Login).Methods(http.MethodPost)
	authRouter.HandleFunc("/refresh", handler.Refresh).Methods(http.MethodPost)

	protected := authRouter.NewRoute().Subrouter()
	protected.Use(middleware.Authenticate)
	protected.HandleFunc("/me", handler.Me).Methods(http.MethodGet)
}
