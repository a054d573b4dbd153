package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/sowilo/internal/importer"
	"github.com/starford/sowilo/internal/ledger"
	"github.com/starford/sowilo/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(db ledger.WorkoutLedger, store storage.Provider, imp *importer.Importer, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(db, store, imp)
	uh := NewUploadHandler(imp)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Workouts.
	r.Get("/workouts", h.ListWorkouts)
	r.Get("/workouts/*", h.GetWorkout)
	r.Delete("/workouts/*", h.DeleteWorkout)

	// Search.
	r.Get("/search", h.Search)

	// Imports.
	r.Post("/imports", uh.Upload)
	r.Get("/imports", h.ListImports)

	// GPX routes.
	r.Get("/routes/*", h.ServeRoute)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
