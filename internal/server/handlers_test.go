package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/setops/internal/gyms"
	"github.com/claude/setops/internal/render"
	"github.com/claude/setops/internal/state"
	"github.com/claude/setops/internal/storage"
)

const apiKey = "test-key"

const scheduleCSV = `Title,Start Date,Location,Employee Names
JCCA - A1-A4 / B2,2025-10-01,Crux Design District,Alex / Sam
Main Boulder,10/2/2025,GVN - Grapevine,Jo & Kim
Set - C1-C2,2025-10-06,Plano,"Lee, Max, Q"
Zorp Flange,2025-10-03,Crux Design District,Alex
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "setops.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	reg := gyms.Default()
	app := state.New(reg, store, log)
	return New(app, render.New(reg, nil, log), store, apiKey, log)
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if method != http.MethodGet {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, s *Server, method, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return do(t, s, method, path, bytes.NewReader(data), "application/json")
}

func upload(t *testing.T, s *Server, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return do(t, s, http.MethodPost, "/api/v1/upload", &buf, mw.FormDataContentType())
}

// TestUploadBuildsSchedules verifies a schedule upload produces one schedule
// per gym and reports the unrecognized label.
func TestUploadBuildsSchedules(t *testing.T) {
	s := newTestServer(t)
	rec := upload(t, s, "schedule.csv", scheduleCSV)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/schedules", nil, "")
	var summaries []scheduleSummary
	if err := json.NewDecoder(rec.Body).Decode(&summaries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("schedules = %d, want 3", len(summaries))
	}
	if summaries[0].Gym != "DSN" || summaries[0].Unrecognized != 1 {
		t.Errorf("DSN summary = %+v", summaries[0])
	}

	rec = do(t, s, http.MethodGet, "/api/v1/unrecognized", nil, "")
	if !strings.Contains(rec.Body.String(), "zorp flange") {
		t.Errorf("unrecognized = %s", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/schedules/XYZ", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown gym status = %d, want 404", rec.Code)
	}
}

// TestUploadRequiresKey verifies mutating routes are protected.
func TestUploadRequiresKey(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// TestAssignMappingEndpoint verifies the learning loop over HTTP.
func TestAssignMappingEndpoint(t *testing.T) {
	s := newTestServer(t)
	upload(t, s, "schedule.csv", scheduleCSV)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/mappings", mappingRequest{Gym: "DSN", Label: "zorp flange", Type: "slab"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/v1/mappings", mappingRequest{Gym: "DSN", Label: "zorp flange", Type: "boulder"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "zorp flange") {
		t.Errorf("label still unrecognized: %s", rec.Body.String())
	}
}

// TestEditByClick verifies hit-testing a rendered cell stores an override
// that the next layout shows verbatim.
func TestEditByClick(t *testing.T) {
	s := newTestServer(t)
	upload(t, s, "schedule.csv", scheduleCSV)

	rec := do(t, s, http.MethodGet, "/api/v1/schedules/DSN/layout", nil, "")
	var pages []render.Page
	if err := json.NewDecoder(rec.Body).Decode(&pages); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("DSN pages = %d, want 2", len(pages))
	}

	var target *render.Cell
	for _, row := range pages[0].Rows {
		for i := range row.Cells {
			if row.Cells[i].Meta != nil && row.Cells[i].Meta.Field == "location" {
				target = &row.Cells[i]
				break
			}
		}
		if target != nil {
			break
		}
	}
	if target == nil {
		t.Fatal("no editable location cell on page 1")
	}
	x, y := target.Rect.X+1, target.Rect.Y+1

	rec = do(t, s, http.MethodGet, "/api/v1/schedules/DSN/hit?page=1&x="+itoa(x)+"&y="+itoa(y), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("hit status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/v1/schedules/DSN/edit", editRequest{Page: 1, X: x, Y: y, Value: "Comp Walls"})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/schedules/DSN/layout", nil, "")
	if !strings.Contains(rec.Body.String(), "Comp Walls") {
		t.Error("override not reflected in layout")
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/overrides?gym=DSN", nil, "")
	if !strings.Contains(rec.Body.String(), `"cleared":1`) {
		t.Errorf("clear = %s", rec.Body.String())
	}
}

// TestMapPNG verifies a page renders as a full-size PNG.
func TestMapPNG(t *testing.T) {
	s := newTestServer(t)
	upload(t, s, "schedule.csv", scheduleCSV)

	rec := do(t, s, http.MethodGet, "/api/v1/schedules/GVN/maps/1", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 791 || b.Dy() != 1024 {
		t.Errorf("size = %dx%d, want 791x1024", b.Dx(), b.Dy())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/schedules/GVN/maps/2", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("merged gym page 2 status = %d, want 404", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/maps", nil, "")
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("zip content type = %q", ct)
	}
}

// TestTargetsEndpoints verifies target edits, the CSV export and rejection
// of a malformed import.
func TestTargetsEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/v1/targets/DSN/walls", map[string]any{"wall": "A1", "target_volume": 8, "type": "rope"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set wall status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/targets/export.csv", nil, "")
	first, _, _ := strings.Cut(rec.Body.String(), "\n")
	if first != "Gym, Wall ID, Display Name, Type, Target Volume, Efficiency" {
		t.Errorf("csv header = %q", first)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/targets/import", strings.NewReader("{nope"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad import status = %d, want 400", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/targets/DSN", nil, "")
	if !strings.Contains(rec.Body.String(), `"target_volume":8`) {
		t.Errorf("targets = %s", rec.Body.String())
	}
}

// TestSaveAndImportLogs verifies saving succeeds and uploads are logged.
func TestSaveAndImportLogs(t *testing.T) {
	s := newTestServer(t)
	upload(t, s, "schedule.csv", scheduleCSV)

	rec := do(t, s, http.MethodPost, "/api/v1/save", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/import-logs", nil, "")
	var logs []storage.ImportLog
	if err := json.NewDecoder(rec.Body).Decode(&logs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(logs) != 1 || logs[0].Schedules != 3 || logs[0].Status != "success" {
		t.Errorf("logs = %+v", logs)
	}
}

func itoa(n int) string {
	data, _ := json.Marshal(n)
	return string(data)
}
