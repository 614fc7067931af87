package mcp

import (
	"context"

	"github.com/claude/setops/internal/analysis"
	"github.com/claude/setops/internal/models"
	"github.com/claude/setops/internal/state"
	"github.com/claude/setops/internal/targets"
)

// ShiftAnalysis is an analysis run plus its best crew pairings.
type ShiftAnalysis struct {
	Result   *analysis.Result `json:"result"`
	TopPairs []analysis.Pair  `json:"top_pairs"`
}

// GymTargets is a gym's wall targets and orbits with rollups.
type GymTargets struct {
	Walls  []targets.WallTarget `json:"walls"`
	Orbits []targets.Orbit      `json:"orbits"`
}

// DataSource abstracts where tool data comes from. Local wraps the
// in-process application state and HTTPClient talks to a running setops
// server.
type DataSource interface {
	Schedule(ctx context.Context, gym string) (*models.GymSchedule, error)
	Unrecognized(ctx context.Context) (map[string][]string, error)
	AssignWallMapping(ctx context.Context, gym, label string, d models.Discipline) error
	ShiftAnalysis(ctx context.Context, gym string, top, minShifts int) (*ShiftAnalysis, error)
	WallTargets(ctx context.Context, gym string) (*GymTargets, error)
}

// Local serves tools straight from application state. With Persist set,
// learned wall mappings are saved as soon as they are assigned.
type Local struct {
	App     *state.App
	Persist bool
}

// Compile-time checks.
var (
	_ DataSource = Local{}
	_ DataSource = (*HTTPClient)(nil)
)

func (l Local) Schedule(_ context.Context, gym string) (*models.GymSchedule, error) {
	s, ok := l.App.Schedule(gym)
	if !ok {
		return nil, errNoSchedule(gym)
	}
	return s, nil
}

func (l Local) Unrecognized(_ context.Context) (map[string][]string, error) {
	return l.App.Unrecognized(), nil
}

func (l Local) AssignWallMapping(ctx context.Context, gym, label string, d models.Discipline) error {
	if err := l.App.AssignWallMapping(gym, label, d); err != nil {
		return err
	}
	if l.Persist {
		return l.App.Save(ctx)
	}
	return nil
}

func (l Local) ShiftAnalysis(_ context.Context, gym string, top, minShifts int) (*ShiftAnalysis, error) {
	res := l.App.Analyze(gym)
	return &ShiftAnalysis{Result: res, TopPairs: res.TopPairs(top, minShifts)}, nil
}

func (l Local) WallTargets(_ context.Context, gym string) (*GymTargets, error) {
	return &GymTargets{Walls: l.App.WallTargets(gym), Orbits: l.App.Orbits(gym)}, nil
}
