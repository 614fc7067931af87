package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/claude/setops/internal/analysis"
	"github.com/claude/setops/internal/models"
	"github.com/claude/setops/internal/targets"
	"github.com/google/go-cmp/cmp"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestHTTPSchedule verifies the gym code is upper-cased into the path and
// the schedule decodes.
func TestHTTPSchedule(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/schedules/DSN": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, models.GymSchedule{Gym: "DSN", DateRangeLabel: "9/28-10/11"})
		},
	})
	defer ts.Close()

	s, err := NewHTTPClient(ts.URL, "").Schedule(context.Background(), "dsn")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if s.Gym != "DSN" || s.DateRangeLabel != "9/28-10/11" {
		t.Errorf("schedule = %+v", s)
	}
}

// TestHTTPScheduleNotFound verifies non-200 responses surface as errors
// carrying the server's message.
func TestHTTPScheduleNotFound(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/schedules/XYZ": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"no schedule for XYZ"}`))
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL, "").Schedule(context.Background(), "XYZ")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("err = %v, want 404", err)
	}
}

// TestHTTPAssignWallMapping verifies the mapping is posted as JSON with the
// API key header.
func TestHTTPAssignWallMapping(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/mappings": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			if got := r.Header.Get("X-API-Key"); got != "k" {
				t.Errorf("api key = %q, want k", got)
			}
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
				return
			}
			want := map[string]string{"gym": "DSN", "label": "zorp flange", "type": "boulder"}
			if diff := cmp.Diff(want, body); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
			writeTestJSON(t, w, map[string]any{"unrecognized": map[string][]string{}})
		},
	})
	defer ts.Close()

	if err := NewHTTPClient(ts.URL, "k").AssignWallMapping(context.Background(), "DSN", "zorp flange", models.Boulder); err != nil {
		t.Fatalf("AssignWallMapping: %v", err)
	}
}

// TestHTTPShiftAnalysis verifies query params and decoding of the analysis
// envelope.
func TestHTTPShiftAnalysis(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/analysis": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("gym") != "GVN" || q.Get("top") != "2" || q.Get("min_shifts") != "1" {
				t.Errorf("query = %s", r.URL.RawQuery)
			}
			writeTestJSON(t, w, ShiftAnalysis{
				Result:   &analysis.Result{Gym: "GVN", TotalShifts: 4},
				TopPairs: []analysis.Pair{{A: "Alex", B: "Sam", Shifts: 2}},
			})
		},
	})
	defer ts.Close()

	res, err := NewHTTPClient(ts.URL, "").ShiftAnalysis(context.Background(), "GVN", 2, 1)
	if err != nil {
		t.Fatalf("ShiftAnalysis: %v", err)
	}
	if res.Result.TotalShifts != 4 || len(res.TopPairs) != 1 {
		t.Errorf("analysis = %+v", res)
	}
}

// TestHTTPWallTargets verifies the targets envelope decodes.
func TestHTTPWallTargets(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/targets/DSN": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, GymTargets{
				Walls: []targets.WallTarget{{Wall: "A1", TargetVolume: 8, Type: models.Rope}},
			})
		},
	})
	defer ts.Close()

	got, err := NewHTTPClient(ts.URL, "").WallTargets(context.Background(), "DSN")
	if err != nil {
		t.Fatalf("WallTargets: %v", err)
	}
	if len(got.Walls) != 1 || got.Walls[0].TargetVolume != 8 {
		t.Errorf("targets = %+v", got)
	}
}
