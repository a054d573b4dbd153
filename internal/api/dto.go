package api

import (
	"time"

	"github.com/starford/sowilo/internal/importer"
)

// WorkoutListItem is a lightweight item in a list response.
type WorkoutListItem struct {
	Path            string    `json:"path" example:"Workouts/Running 2024-09-02 13.52.08.md" validate:"required"`
	Title           string    `json:"title" example:"Running 2024-09-02 13:52" validate:"required"`
	WorkoutType     string    `json:"workout_type" example:"Running" validate:"required"`
	StartedAt       time.Time `json:"started_at" validate:"required"`
	DurationSeconds int       `json:"duration_seconds" example:"2730" validate:"required"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WorkoutListResponse wraps paginated workout listings.
type WorkoutListResponse struct {
	Workouts []WorkoutListItem `json:"workouts" validate:"required"`
	Total    int               `json:"total" example:"42" validate:"required"`
}

// WorkoutDetail is the full workout response including the rendered note.
type WorkoutDetail struct {
	WorkoutListItem
	Content string `json:"content" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"Workouts/Running 2024-09-02 13.52.08.md" validate:"required"`
	Title   string `json:"title" example:"Running 2024-09-02 13:52" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// ImportResponse is returned after an archive upload.
type ImportResponse = importer.Result

// ImportListItem is one row of import history.
type ImportListItem struct {
	Checksum   string    `json:"checksum" validate:"required"`
	FileName   string    `json:"file_name" example:"HealthExport.zip" validate:"required"`
	Workouts   int       `json:"workouts" example:"12" validate:"required"`
	Errors     int       `json:"errors" example:"0"`
	ImportedAt time.Time `json:"imported_at"`
}

// ImportListResponse wraps import history.
type ImportListResponse struct {
	Imports []ImportListItem `json:"imports" validate:"required"`
}
