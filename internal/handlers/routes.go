package handlers

import (
	"net/http"

	"github.com/Abiorh001/notify-hub/internal/middleware"
	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the auth, user and recipient endpoints on router.
// adminRoles is the allow-list for role management and recipient routes.
func RegisterRoutes(
	router *mux.Router,
	authHandlers *AuthHandlers,
	userHandlers *UserHandlers,
	recipientHandlers *RecipientHandlers,
	authMiddleware *middleware.AuthMiddleware,
	adminRoles []string,
) {
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(authMiddleware.RequireRole(adminRoles...)(h))
	}

	auth := router.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login/", authHandlers.Login).Methods("POST", "OPTIONS")
	auth.Handle("/refresh/", authed(authHandlers.RefreshToken)).Methods("POST", "OPTIONS")
	auth.Handle("/logout/", authed(authHandlers.Logout)).Methods("POST", "OPTIONS")

	users := router.PathPrefix("/users").Subrouter()
	users.HandleFunc("/", userHandlers.Register).Methods("POST", "OPTIONS")
	users.Handle("/", authed(userHandlers.GetByEmail)).Methods("GET")
	users.Handle("/", authed(userHandlers.Update)).Methods("PATCH")
	users.Handle("/", authed(userHandlers.Delete)).Methods("DELETE")
	users.Handle("/profile", authed(userHandlers.Profile)).Methods("GET", "OPTIONS")
	users.Handle("/roles", admin(userHandlers.CreateRole)).Methods("POST", "OPTIONS")
	users.Handle("/assign-user-role/", admin(userHandlers.AssignRole)).Methods("PATCH", "OPTIONS")

	recipients := router.PathPrefix("/recipients").Subrouter()
	recipients.Handle("/", admin(recipientHandlers.Create)).Methods("POST", "OPTIONS")
	recipients.Handle("/", admin(recipientHandlers.List)).Methods("GET")
	recipients.Handle("/{id}", admin(recipientHandlers.Get)).Methods("GET", "OPTIONS")
}
