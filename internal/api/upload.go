package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/starford/sowilo/internal/importer"
)

const maxUploadBytes = 100 << 20 // 100 MB

// UploadHandler accepts health-export uploads over HTTP.
type UploadHandler struct {
	imp *importer.Importer
}

// NewUploadHandler creates a handler backed by the importer.
func NewUploadHandler(imp *importer.Importer) *UploadHandler {
	return &UploadHandler{imp: imp}
}

// safeName validates that the filename is a plain name with a supported
// extension (no path separators, no traversal).
func safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	switch strings.ToLower(filepath.Ext(cleaned)) {
	case ".zip", ".csv":
		return cleaned, nil
	}
	return "", fmt.Errorf("unsupported file type: %s", name)
}

// Upload handles POST /api/imports (multipart/form-data, field "file").
// ZIP payloads run the full archive import; CSV payloads take the
// summary-only path.
//
//	@Summary		Upload a health-export archive or summary CSV
//	@Tags			imports
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Archive (.zip) or summary CSV (.csv)"
//	@Success		201		{object}	ImportResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/imports [post]
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name, err := safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	var res *importer.Result
	if strings.HasSuffix(strings.ToLower(name), ".csv") {
		res, err = h.imp.ImportSummaryCSV(name, string(data))
	} else {
		res, err = h.imp.ImportArchive(name, data)
	}
	if err != nil {
		if importer.IsAlreadyImported(err) {
			writeJSON(w, http.StatusConflict, res)
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody("import failed"))
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
