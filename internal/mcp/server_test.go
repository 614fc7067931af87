package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/claude/setops/internal/importer"
	"github.com/claude/setops/internal/state"
	"github.com/claude/setops/internal/targets"
	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
)

const scheduleCSV = `Title,Start Date,Location,Employee Names
JCCA - A1-A4 / B2,2025-10-01,Crux Design District,Alex / Sam
Main Boulder,10/2/2025,GVN - Grapevine,Jo & Kim
Zorp Flange,2025-10-03,Crux Design District,Alex
`

func newHandlers(t *testing.T) (*handlers, *state.App) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := state.New(nil, nil, log)
	b, err := importer.New(app.ImportOptions(), log).Import(context.Background(),
		[]importer.File{{Name: "schedule.csv", Data: []byte(scheduleCSV)}})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	app.ApplyBatch(b)
	return &handlers{ds: Local{App: app}, log: log}, app
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

// TestNewRegistersTools verifies the server builds with its data source.
func TestNewRegistersTools(t *testing.T) {
	h, _ := newHandlers(t)
	if s := New(h.ds, "test", h.log); s == nil {
		t.Fatal("New returned nil")
	}
}

// TestGetScheduleTool verifies a known gym returns its schedule and an
// unknown one is a tool error rather than a protocol error.
func TestGetScheduleTool(t *testing.T) {
	h, _ := newHandlers(t)
	ctx := context.Background()

	res, err := h.getSchedule(ctx, call(map[string]any{"gym": "dsn"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var sched struct {
		Gym string `json:"gym"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &sched); err != nil {
		t.Fatal(err)
	}
	if sched.Gym != "DSN" {
		t.Errorf("gym = %q, want DSN", sched.Gym)
	}

	res, _ = h.getSchedule(ctx, call(map[string]any{"gym": "XYZ"}))
	if !res.IsError {
		t.Error("unknown gym should be a tool error")
	}
	res, _ = h.getSchedule(ctx, call(nil))
	if !res.IsError {
		t.Error("missing gym should be a tool error")
	}
}

// TestWallMappingTools walks the learning loop through the tools: list the
// unknown label, assign it, and see the list empty.
func TestWallMappingTools(t *testing.T) {
	h, _ := newHandlers(t)
	ctx := context.Background()

	res, _ := h.listUnrecognizedWalls(ctx, call(map[string]any{"gym": "DSN"}))
	var unrec map[string][]string
	if err := json.Unmarshal([]byte(resultText(t, res)), &unrec); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string][]string{"DSN": {"zorp flange"}}, unrec); diff != "" {
		t.Fatalf("unrecognized mismatch (-want +got):\n%s", diff)
	}

	res, _ = h.assignWallMapping(ctx, call(map[string]any{"gym": "DSN", "label": "zorp flange", "type": "slab"}))
	if !res.IsError {
		t.Error("invalid type should be a tool error")
	}

	res, _ = h.assignWallMapping(ctx, call(map[string]any{"gym": "DSN", "label": "zorp flange", "type": "boulder"}))
	if res.IsError {
		t.Fatalf("assign failed: %s", resultText(t, res))
	}
	var out struct {
		Unrecognized map[string][]string `json:"unrecognized"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Unrecognized["DSN"]) != 0 {
		t.Errorf("DSN still unrecognized: %v", out.Unrecognized["DSN"])
	}
}

// TestShiftAnalysisTool verifies numeric arguments arrive as JSON numbers.
func TestShiftAnalysisTool(t *testing.T) {
	h, _ := newHandlers(t)
	res, err := h.getShiftAnalysis(context.Background(), call(map[string]any{"gym": "ALL", "top": float64(2)}))
	if err != nil {
		t.Fatal(err)
	}
	var out ShiftAnalysis
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Result == nil || out.Result.TotalShifts != 0 {
		t.Errorf("analysis without climbs = %+v", out.Result)
	}
}

// TestWallTargetsTool verifies targets and orbit rollups are returned.
func TestWallTargetsTool(t *testing.T) {
	h, app := newHandlers(t)
	if err := app.SetWallTarget("DSN", targets.WallTarget{Wall: "A1", TargetVolume: 8, Type: "rope"}); err != nil {
		t.Fatal(err)
	}
	if err := app.SetOrbit("DSN", targets.OrbitTarget{Name: "North", Walls: []string{"A1"}, RPS: 2, RotationTarget: 4, ShiftDuration: 8}); err != nil {
		t.Fatal(err)
	}

	res, _ := h.getWallTargets(context.Background(), call(map[string]any{"gym": "DSN"}))
	var out GymTargets
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Walls) != 1 || len(out.Orbits) != 1 {
		t.Fatalf("targets = %+v", out)
	}
	if got := out.Orbits[0].Rollup.WeeklyProduction; got != 2 {
		t.Errorf("weekly production = %v, want 2", got)
	}
}
