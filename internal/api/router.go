package api

import (
	"net/http"

	"github.com/pulseboard/backend/internal/auth"
	apperrors "github.com/pulseboard/backend/internal/errors"
)

type Router struct {
	mux          *http.ServeMux
	authHandlers *auth.Handlers
	authService  *auth.Service
	postHandlers *PostHandlers
	voteHandlers *VoteHandlers
	health       http.Handler
}

func NewRouter(authHandlers *auth.Handlers, authService *auth.Service, postHandlers *PostHandlers, voteHandlers *VoteHandlers, health http.Handler) *Router {
	r := &Router{
		mux:          http.NewServeMux(),
		authHandlers: authHandlers,
		authService:  authService,
		postHandlers: postHandlers,
		voteHandlers: voteHandlers,
		health:       health,
	}
	r.setupRoutes()
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) setupRoutes() {
	r.mux.HandleFunc("GET /{$}", welcomeHandler)
	if r.health != nil {
		r.mux.Handle("GET /health", r.health)
	}

	// Public routes
	r.mux.Handle("POST /users", apperrors.HandleFunc(r.authHandlers.Register))
	r.mux.Handle("GET /users/{id}", apperrors.HandleFunc(r.authHandlers.GetUser))
	r.mux.Handle("POST /login", apperrors.HandleFunc(r.authHandlers.Login))

	// Protected routes
	r.mux.Handle("GET /posts", r.protected(r.postHandlers.List))
	r.mux.Handle("POST /posts", r.protected(r.postHandlers.Create))
	r.mux.Handle("GET /posts/{id}", r.protected(r.postHandlers.Get))
	r.mux.Handle("PUT /posts/{id}", r.protected(r.postHandlers.Update))
	r.mux.Handle("DELETE /posts/{id}", r.protected(r.postHandlers.Delete))
	r.mux.Handle("POST /vote", r.protected(r.voteHandlers.Vote))
}

// protected wraps a handler with the current-user resolver so it runs before
// any business logic.
func (r *Router) protected(h apperrors.Handler) http.Handler {
	return auth.Middleware(r.authService)(apperrors.HandleFunc(h))
}

func welcomeHandler(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, map[string]string{
		"message": "welcome to the pulseboard api",
	})
}
