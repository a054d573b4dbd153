package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/starford/sowilo/internal/importer"
	"github.com/starford/sowilo/internal/storage"
	"github.com/starford/sowilo/internal/testutil"
)

const summaryCSV = "Workout Type,Start,Duration,Active Energy (kcal)\n" +
	"Running,2024-09-02 13:52:08 -0700,0:45:30,512.3\n" +
	"Cycling,2024-09-03 08:10:00 -0700,1:02:00,680\n"

const runningNote = "Workouts/Running 2024-09-02 13.52.08.md"

// runningNoteURL is runningNote with spaces percent-encoded, as required in
// request targets passed to httptest.NewRequest.
var runningNoteURL = strings.ReplaceAll(runningNote, " ", "%20")

// testEnv sets up a temp vault, SQLite ledger, importer, and router.
// authEnabled=false means disabled mode; authEnabled=true with non-empty
// token means token mode.
func testEnv(t *testing.T, authToken string) (storage.Provider, http.Handler) {
	t.Helper()
	return testEnvFull(t, authToken != "", authToken, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) (storage.Provider, http.Handler) {
	t.Helper()

	_, store := testutil.TestVault(t)
	db := testutil.TestLedger(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	imp := importer.New(store, db, logger, nil)

	router := NewRouter(db, store, imp, authEnabled, authToken, sseHandler)
	return store, router
}

func testArchive(t *testing.T) []byte {
	t.Helper()
	return testutil.BuildArchive(t, []testutil.ArchiveFile{
		{Name: "Workouts-20240904.csv", Data: []byte(summaryCSV), Method: 8},
		{Name: "Running-Route-20240902_135208.gpx", Data: []byte("<gpx/>"), Method: 0},
	})
}

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadArchiveAndGetWorkout(t *testing.T) {
	_, router := testEnv(t, "")

	w := uploadFile(t, router, "HealthExport.zip", testArchive(t))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var res ImportResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Workouts != 2 {
		t.Fatalf("imported workouts = %d, want 2", res.Workouts)
	}

	req := httptest.NewRequest(http.MethodGet, "/workouts/"+runningNoteURL, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get workout = %d, body = %s", w.Code, w.Body.String())
	}
	var detail WorkoutDetail
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if detail.WorkoutType != "Running" {
		t.Errorf("type = %q", detail.WorkoutType)
	}
	if detail.DurationSeconds != 2730 {
		t.Errorf("duration = %d", detail.DurationSeconds)
	}
	if detail.Content == "" {
		t.Error("expected note content in detail response")
	}
}

func TestUploadDuplicateArchive(t *testing.T) {
	_, router := testEnv(t, "")
	buf := testArchive(t)

	if w := uploadFile(t, router, "a.zip", buf); w.Code != http.StatusCreated {
		t.Fatalf("first upload = %d", w.Code)
	}
	w := uploadFile(t, router, "a.zip", buf)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate upload = %d, want 409", w.Code)
	}
	var res ImportResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if !res.Skipped {
		t.Error("duplicate response should be marked skipped")
	}
}

func TestUploadSummaryCSV(t *testing.T) {
	store, router := testEnv(t, "")

	w := uploadFile(t, router, "Workouts.csv", []byte(summaryCSV))
	if w.Code != http.StatusCreated {
		t.Fatalf("csv upload = %d, body = %s", w.Code, w.Body.String())
	}
	if !store.Exists("Workouts/Cycling 2024-09-03 08.10.00.md") {
		t.Error("cycling note not written")
	}
}

func TestUploadUnsupportedType(t *testing.T) {
	_, router := testEnv(t, "")

	w := uploadFile(t, router, "photo.png", []byte("not-an-archive"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("png upload = %d, want 400", w.Code)
	}
}

func TestUploadMissingFileField(t *testing.T) {
	_, router := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestListWorkouts(t *testing.T) {
	_, router := testEnv(t, "")
	uploadFile(t, router, "a.zip", testArchive(t))

	req := httptest.NewRequest(http.MethodGet, "/workouts?limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp WorkoutListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || len(resp.Workouts) != 2 {
		t.Errorf("total = %d, items = %d, want 2/2", resp.Total, len(resp.Workouts))
	}
	// Default sort is newest first.
	if resp.Workouts[0].WorkoutType != "Cycling" {
		t.Errorf("first item = %q, want Cycling", resp.Workouts[0].WorkoutType)
	}
}

func TestListWorkouts_TypeFilter(t *testing.T) {
	_, router := testEnv(t, "")
	uploadFile(t, router, "a.zip", testArchive(t))

	req := httptest.NewRequest(http.MethodGet, "/workouts?type=Running", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var resp WorkoutListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || len(resp.Workouts) != 1 {
		t.Fatalf("filtered total = %d, items = %d, want 1/1", resp.Total, len(resp.Workouts))
	}
	if resp.Workouts[0].WorkoutType != "Running" {
		t.Errorf("type = %q", resp.Workouts[0].WorkoutType)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	uploadFile(t, router, "a.zip", testArchive(t))

	req := httptest.NewRequest(http.MethodGet, "/search?q=Cycling", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 {
		t.Errorf("search results = %d, want 1", len(resp.Results))
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestListImports(t *testing.T) {
	_, router := testEnv(t, "")
	uploadFile(t, router, "history.zip", testArchive(t))

	req := httptest.NewRequest(http.MethodGet, "/imports", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list imports = %d", w.Code)
	}
	var resp ImportListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Imports) != 1 || resp.Imports[0].FileName != "history.zip" {
		t.Errorf("imports = %+v", resp.Imports)
	}
}

func TestServeRoute(t *testing.T) {
	_, router := testEnv(t, "")
	uploadFile(t, router, "a.zip", testArchive(t))

	req := httptest.NewRequest(http.MethodGet, "/routes/Workouts/routes/Running%202024-09-02%2013.52.08.gpx", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("route = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/gpx+xml" {
		t.Errorf("content type = %q", ct)
	}
	if w.Body.String() != "<gpx/>" {
		t.Errorf("route body = %q", w.Body.String())
	}
}

func TestServeRoute_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/routes/Workouts/routes/nope.gpx", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing route = %d, want 404", w.Code)
	}
}

func TestServeRoute_NonGPXRejected(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/routes/"+runningNoteURL, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-gpx route = %d, want 400", w.Code)
	}
}

func TestDeleteWorkout(t *testing.T) {
	store, router := testEnv(t, "")
	uploadFile(t, router, "a.zip", testArchive(t))

	req := httptest.NewRequest(http.MethodDelete, "/workouts/"+runningNoteURL, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d, want 204", w.Code)
	}
	if store.Exists(runningNote) {
		t.Error("note still in vault after delete")
	}
	if store.Exists("Workouts/routes/Running 2024-09-02 13.52.08.gpx") {
		t.Error("route still in vault after delete")
	}

	// GET should now 404.
	req = httptest.NewRequest(http.MethodGet, "/workouts/"+runningNoteURL, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestGetWorkout_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/workouts/Workouts/nope.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing workout = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/workouts", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/workouts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/workouts", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/workouts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

func TestUpload_AuthProtected(t *testing.T) {
	_, router := testEnv(t, "secret")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "x.zip")
	_, _ = part.Write([]byte("data"))
	mw.Close()

	// No token → 401.
	req := httptest.NewRequest(http.MethodPost, "/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("upload no auth = %d, want 401", w.Code)
	}
}

// SSE endpoint auth tests.

// sseStub writes headers and blocks until context done.
var sseStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvFull(t, true, "secret", sseStub)

	// No token → 401.
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	_, router := testEnvFull(t, false, "", sseStub)

	// Disabled mode → should not 401. The stub blocks until the request
	// context is done, so cancel after a short time.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvFull(t, true, "tok", sseStub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
