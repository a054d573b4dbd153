package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/sowilo/internal/apperr"
	"github.com/starford/sowilo/internal/importer"
	"github.com/starford/sowilo/internal/ledger"
	"github.com/starford/sowilo/internal/storage"
)

// Handler holds API route handlers.
type Handler struct {
	db    ledger.WorkoutLedger
	store storage.Provider
	imp   *importer.Importer
}

// NewHandler creates a new Handler.
func NewHandler(db ledger.WorkoutLedger, store storage.Provider, imp *importer.Importer) *Handler {
	return &Handler{db: db, store: store, imp: imp}
}

// wildcardPath extracts the note path from the URL wildcard. Supports
// encoded slashes from OpenAPI clients (e.g. Workouts%2Fnote.md).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListWorkouts handles GET /api/workouts.
//
//	@Summary		List workouts with optional pagination and filtering
//	@Tags			workouts
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			type	query		string	false	"Filter by workout type"
//	@Param			sort	query		string	false	"Sort field"	Enums(started_at, workout_type, note_path)
//	@Success		200		{object}	WorkoutListResponse
//	@Security		BearerAuth
//	@Router			/workouts [get]
func (h *Handler) ListWorkouts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	workoutType := q.Get("type")
	sort := q.Get("sort")

	rows, total, err := h.db.ListWorkouts(limit, offset, workoutType, sort)
	if err != nil {
		slog.Error("list workouts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	items := make([]WorkoutListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, listItem(row))
	}
	writeJSON(w, http.StatusOK, WorkoutListResponse{Workouts: items, Total: total})
}

// GetWorkout handles GET /api/workouts/*.
//
//	@Summary		Get a single workout note by path
//	@Tags			workouts
//	@Produce		json
//	@Param			path	path		string	true	"Note path"
//	@Success		200		{object}	WorkoutDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/workouts/{path} [get]
func (h *Handler) GetWorkout(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	row, err := h.db.GetWorkout(path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get workout failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	content, err := h.store.Read(path)
	if err != nil {
		slog.Error("read note failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, WorkoutDetail{
		WorkoutListItem: listItem(*row),
		Content:         string(content),
	})
}

// DeleteWorkout handles DELETE /api/workouts/*. Removes the note and its
// route file from the vault along with the ledger row.
//
//	@Summary		Delete a workout note
//	@Tags			workouts
//	@Param			path	path	string	true	"Note path"
//	@Success		204		"Workout deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/workouts/{path} [delete]
func (h *Handler) DeleteWorkout(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if _, err := h.db.GetWorkout(path); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if err := h.store.Delete(path); err != nil {
		slog.Error("delete note failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if routePath := routeForNote(path); h.store.Exists(routePath) {
		_ = h.store.Delete(routePath)
	}
	if err := h.db.DeleteWorkout(path); err != nil {
		slog.Error("delete ledger row failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across workout notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.db.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	results := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, SearchResult{Path: row.NotePath, Title: row.Title, Snippet: row.Snippet})
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// ListImports handles GET /api/imports.
//
//	@Summary		List recent archive imports
//	@Tags			imports
//	@Produce		json
//	@Param			limit	query		int	false	"Max results"
//	@Success		200		{object}	ImportListResponse
//	@Security		BearerAuth
//	@Router			/imports [get]
func (h *Handler) ListImports(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.db.ListImports(limit)
	if err != nil {
		slog.Error("list imports failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	items := make([]ImportListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ImportListItem{
			Checksum:   row.Checksum,
			FileName:   row.FileName,
			Workouts:   row.Workouts,
			Errors:     row.Errors,
			ImportedAt: row.ImportedAt,
		})
	}
	writeJSON(w, http.StatusOK, ImportListResponse{Imports: items})
}

// ServeRoute handles GET /api/routes/*. Streams the GPX file from the vault.
//
//	@Summary		Download a workout's GPX route
//	@Tags			routes
//	@Produce		application/gpx+xml
//	@Param			path	path	string	true	"Route path"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/routes/{path} [get]
func (h *Handler) ServeRoute(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" || !strings.HasSuffix(path, ".gpx") {
		writeJSON(w, http.StatusBadRequest, errorBody("a .gpx path is required"))
		return
	}
	data, err := h.store.Read(path)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.Header().Set("Content-Type", "application/gpx+xml")
	_, _ = w.Write(data)
}

func listItem(row ledger.WorkoutRow) WorkoutListItem {
	return WorkoutListItem{
		Path:            row.NotePath,
		Title:           row.Title,
		WorkoutType:     row.WorkoutType,
		StartedAt:       row.StartedAt,
		DurationSeconds: row.DurationSeconds,
		UpdatedAt:       row.UpdatedAt,
	}
}

// routeForNote maps "Workouts/<stem>.md" to "Workouts/routes/<stem>.gpx".
func routeForNote(notePath string) string {
	dir, file := "", notePath
	if i := strings.LastIndex(notePath, "/"); i >= 0 {
		dir, file = notePath[:i], notePath[i+1:]
	}
	stem := strings.TrimSuffix(file, ".md")
	if dir == "" {
		return "routes/" + stem + ".gpx"
	}
	return dir + "/routes/" + stem + ".gpx"
}
