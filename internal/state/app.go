// Package state owns the application's in-memory data and its persistence.
// Every slice of state is changed through a narrow method on App and written
// to storage only by an explicit Save.
package state

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/claude/setops/internal/analysis"
	"github.com/claude/setops/internal/gyms"
	"github.com/claude/setops/internal/importer"
	"github.com/claude/setops/internal/ingest/schedule"
	"github.com/claude/setops/internal/models"
	"github.com/claude/setops/internal/render"
	"github.com/claude/setops/internal/storage"
	"github.com/claude/setops/internal/targets"
	"github.com/claude/setops/internal/walls"
)

// EmailSettings configure the schedule e-mail. Delivery happens elsewhere;
// the settings are only stored.
type EmailSettings struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Greeting   string   `json:"greeting"`
	Signature  string   `json:"signature"`
}

// App is the single owner of application state. It is safe for concurrent
// use.
type App struct {
	mu       sync.RWMutex
	registry *gyms.Registry
	store    storage.Store
	log      *slog.Logger

	// Session data, rebuilt from uploads.
	climbs        map[string][]models.Climb
	schedules     map[string]*models.GymSchedule
	unrecognized  map[string][]string
	newGyms       map[string]string
	// scheduleSources holds, per gym, the upload its schedule was parsed from.
	scheduleSources map[string]scheduleSource

	// Persisted slices.
	email        EmailSettings
	baselines    map[string]analysis.Baseline
	mappings     walls.Mappings
	gymSettings  map[string]render.Settings
	displayNames render.DisplayNames
	overrides    render.Overrides
	targets      *targets.Store
	financials   []models.FinancialRecord
	syncURL      string
}

// New creates an App with built-in defaults. A nil store keeps state in
// memory only.
func New(registry *gyms.Registry, store storage.Store, log *slog.Logger) *App {
	if registry == nil {
		registry = gyms.Default()
	}
	a := &App{registry: registry, store: store, log: log}
	a.resetSession()
	a.resetPersisted()
	return a
}

func (a *App) resetSession() {
	a.climbs = make(map[string][]models.Climb)
	a.schedules = make(map[string]*models.GymSchedule)
	a.unrecognized = make(map[string][]string)
	a.newGyms = make(map[string]string)
	a.scheduleSources = make(map[string]scheduleSource)
}

// scheduleSource is one uploaded schedule file. key tells files apart when
// several gyms share one upload.
type scheduleSource struct {
	key  string
	file importer.File
}

func (a *App) resetPersisted() {
	a.email = EmailSettings{Subject: "Setting schedule"}
	a.baselines = map[string]analysis.Baseline{analysis.DefaultBaselineKey: analysis.DefaultBaseline()}
	a.mappings = make(walls.Mappings)
	a.gymSettings = make(map[string]render.Settings)
	a.displayNames = make(render.DisplayNames)
	a.overrides = make(render.Overrides)
	a.targets = targets.NewStore()
	a.financials = nil
	a.syncURL = ""
}

// Registry returns the gym registry.
func (a *App) Registry() *gyms.Registry { return a.registry }

// ImportOptions returns parse options carrying a snapshot of the learned
// wall mappings.
func (a *App) ImportOptions() importer.Options {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return importer.Options{Registry: a.registry, Mappings: a.mappings.Clone()}
}

// ApplyBatch merges an import into the session. Later data replaces earlier
// data for the same gym; unrecognized labels are unioned.
func (a *App) ApplyBatch(b *importer.Batch) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for gym, list := range b.Climbs {
		a.climbs[gym] = list
	}
	for gym, s := range b.Schedules {
		a.schedules[gym] = s
	}
	for gym, name := range b.NewGyms {
		a.newGyms[gym] = name
	}
	importer.UnionLabels(a.unrecognized, b.Unrecognized)
	if len(b.Financials) > 0 {
		a.financials = importer.MergeFinancials(a.financials, b.Financials)
	}
	for gym, f := range b.ScheduleSources {
		a.scheduleSources[gym] = scheduleSource{key: b.ID + "/" + f.Name, file: f}
	}
}

// ClearSession drops uploaded climbs and schedules. Persisted slices stay.
func (a *App) ClearSession() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resetSession()
}

// Schedule returns one gym's schedule.
func (a *App) Schedule(gym string) (*models.GymSchedule, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.schedules[strings.ToUpper(gym)]
	return s, ok
}

// Schedules returns a copy of the schedule map.
func (a *App) Schedules() map[string]*models.GymSchedule {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]*models.GymSchedule, len(a.schedules))
	for k, v := range a.schedules {
		out[k] = v
	}
	return out
}

// ScheduledGyms lists gyms with a schedule, sorted.
func (a *App) ScheduledGyms() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	codes := make([]string, 0, len(a.schedules))
	for k := range a.schedules {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return codes
}

// GymName returns the registered name of a gym, or the name a schedule
// upload synthesized for it.
func (a *App) GymName(code string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if name, ok := a.newGyms[strings.ToUpper(code)]; ok {
		return name
	}
	return a.registry.Name(code)
}

// Unrecognized returns a copy of the unresolved wall labels per gym.
func (a *App) Unrecognized() map[string][]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string][]string, len(a.unrecognized))
	for k, v := range a.unrecognized {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Mappings returns a copy of the learned wall mappings.
func (a *App) Mappings() walls.Mappings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mappings.Clone()
}

// AssignWallMapping teaches the resolver a label's discipline. The label
// leaves the unrecognized list and every uploaded schedule is rebuilt with
// the new mapping.
func (a *App) AssignWallMapping(gym, label string, d models.Discipline) error {
	gym = strings.ToUpper(strings.TrimSpace(gym))
	norm := walls.NormalizeLabel(label)
	if gym == "" || norm == "" {
		return fmt.Errorf("gym and label are required")
	}
	d, err := models.ParseDiscipline(string(d))
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.mappings.Set(gym, norm, d)

	list := a.unrecognized[gym][:0:0]
	for _, l := range a.unrecognized[gym] {
		if walls.NormalizeLabel(l) != norm {
			list = append(list, l)
		}
	}
	if len(list) == 0 {
		delete(a.unrecognized, gym)
	} else {
		a.unrecognized[gym] = list
	}

	a.rebuildSchedules()
	a.log.Info("wall mapping assigned", "gym", gym, "label", norm, "type", d)
	return nil
}

// rebuildSchedules reparses every gym's schedule from the upload it came
// from. A file shared by several gyms is parsed once. Callers hold mu.
func (a *App) rebuildSchedules() {
	parsed := make(map[string]*schedule.Output)
	for gym, src := range a.scheduleSources {
		out, ok := parsed[src.key]
		if !ok {
			var err error
			out, err = schedule.Parse(bytes.NewReader(src.file.Data), schedule.Options{Registry: a.registry, Mappings: a.mappings})
			if err != nil {
				a.log.Warn("rebuilding schedule failed", "gym", gym, "file", src.file.Name, "error", err)
				continue
			}
			parsed[src.key] = out
		}
		s, ok := out.Schedules[gym]
		if !ok {
			continue
		}
		a.schedules[gym] = s
		if labels := out.Unrecognized[gym]; len(labels) > 0 {
			a.unrecognized[gym] = labels
		} else {
			delete(a.unrecognized, gym)
		}
	}
}

// Climbs returns climbs for one gym, or all gyms when gym is "" or "ALL".
func (a *App) Climbs(gym string) []models.Climb {
	a.mu.RLock()
	defer a.mu.RUnlock()
	gym = strings.ToUpper(gym)
	if gym != "" && gym != "ALL" {
		return append([]models.Climb(nil), a.climbs[gym]...)
	}
	keys := make([]string, 0, len(a.climbs))
	for k := range a.climbs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []models.Climb
	for _, k := range keys {
		out = append(out, a.climbs[k]...)
	}
	return out
}

// Analyze runs the shift analysis for a gym with its resolved baseline.
func (a *App) Analyze(gym string) *analysis.Result {
	climbs := a.Climbs(gym)
	a.mu.RLock()
	opts := analysis.OptionsFor(a.baselines, gym)
	a.mu.RUnlock()
	return analysis.Analyze(climbs, opts)
}

// Costs joins payroll records with climbs.
func (a *App) Costs() []analysis.PeriodCost {
	climbs := a.Climbs("")
	return analysis.CostPerClimb(a.Financials(), climbs)
}

// Financials returns a copy of the payroll records.
func (a *App) Financials() []models.FinancialRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]models.FinancialRecord(nil), a.financials...)
}

// RenderInput snapshots everything the renderer reads.
func (a *App) RenderInput() render.Input {
	a.mu.RLock()
	defer a.mu.RUnlock()
	settings := make(map[string]render.Settings, len(a.gymSettings))
	for k, v := range a.gymSettings {
		settings[k] = v
	}
	return render.Input{
		Overrides: a.overrides.Clone(),
		Names:     cloneNames(a.displayNames),
		Settings:  settings,
	}
}

// Overrides returns a copy of the schedule overrides.
func (a *App) Overrides() render.Overrides {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.overrides.Clone()
}

// CommitEdit stores an edited cell value. An empty value removes the
// override.
func (a *App) CommitEdit(m render.Meta, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	render.CommitEdit(a.overrides, m, strings.TrimSpace(value))
}

// ClearOverrides removes one gym's overrides, or all of them when gym is "".
func (a *App) ClearOverrides(gym string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gym == "" {
		n := len(a.overrides)
		a.overrides = make(render.Overrides)
		return n
	}
	return a.overrides.ClearGym(gym)
}

// GymSettings returns the effective display settings of a gym.
func (a *App) GymSettings(gym string) render.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	gym = strings.ToUpper(gym)
	s := a.gymSettings[gym]
	if s.Mode == "" {
		s.Mode = a.registry.DisplayMode(gym)
	}
	if s.TypeDisplay == "" {
		s.TypeDisplay = a.registry.TypeDisplay(gym)
	}
	return s
}

// SetGymSettings stores a gym's display settings.
func (a *App) SetGymSettings(gym string, s render.Settings) error {
	switch s.Mode {
	case models.DisplaySeparate, models.DisplayMerged:
	default:
		return fmt.Errorf("unknown display mode %q", s.Mode)
	}
	switch s.TypeDisplay {
	case "", models.TypeDisplayType, models.TypeDisplaySteepness:
	default:
		return fmt.Errorf("unknown type display %q", s.TypeDisplay)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gymSettings[strings.ToUpper(gym)] = s
	return nil
}

// SetDisplayName sets the printed name of a wall. An empty name removes it.
func (a *App) SetDisplayName(gym, wall, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	gym = strings.ToUpper(gym)
	key := gyms.WallKey(wall)
	name = strings.TrimSpace(name)
	if name == "" {
		delete(a.displayNames[gym], key)
		return
	}
	if a.displayNames[gym] == nil {
		a.displayNames[gym] = make(map[string]string)
	}
	a.displayNames[gym][key] = name
}

// Baselines returns a copy of the baselines.
func (a *App) Baselines() map[string]analysis.Baseline {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]analysis.Baseline, len(a.baselines))
	for k, v := range a.baselines {
		out[k] = v
	}
	return out
}

// SetBaseline stores the baseline for a gym code or DEFAULT.
func (a *App) SetBaseline(key string, b analysis.Baseline) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.baselines[strings.ToUpper(key)] = b
}

// EmailSettings returns the stored e-mail settings.
func (a *App) EmailSettings() EmailSettings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	e := a.email
	e.Recipients = append([]string(nil), e.Recipients...)
	return e
}

// SetEmailSettings replaces the e-mail settings.
func (a *App) SetEmailSettings(e EmailSettings) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.email = e
}

func cloneNames(n render.DisplayNames) render.DisplayNames {
	out := make(render.DisplayNames, len(n))
	for gym, m := range n {
		cp := make(map[string]string, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out[gym] = cp
	}
	return out
}

// Targets

// WallTargets lists a gym's wall targets.
func (a *App) WallTargets(gym string) []targets.WallTarget {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.targets.GymWalls(gym)
}

// SetWallTarget creates or replaces a wall target.
func (a *App) SetWallTarget(gym string, t targets.WallTarget) error {
	if strings.TrimSpace(t.Wall) == "" {
		return fmt.Errorf("wall is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.targets.SetWall(gym, t)
	return nil
}

// DeleteWallTarget removes a wall target.
func (a *App) DeleteWallTarget(gym, wall string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.targets.DeleteWall(gym, wall)
}

// SeedWallTargets fills missing targets from the gym's wall dictionary.
func (a *App) SeedWallTargets(gym string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.targets.Seed(a.registry, gym)
}

// Orbits lists a gym's orbits with rollups.
func (a *App) Orbits(gym string) []targets.Orbit {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.targets.Orbits(gym)
}

// SetOrbit creates or replaces an orbit.
func (a *App) SetOrbit(gym string, o targets.OrbitTarget) error {
	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("orbit name is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.targets.SetOrbit(gym, o)
	return nil
}

// DeleteOrbit removes an orbit.
func (a *App) DeleteOrbit(gym, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.targets.DeleteOrbit(gym, name)
}

// Export kinds accepted by ExportTargets.
const (
	ExportWalls  = "walls"
	ExportOrbits = "orbits"
	ExportAll    = "all"
)

// ExportTargets encodes targets as JSON.
func (a *App) ExportTargets(kind string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	switch kind {
	case ExportWalls:
		return a.targets.ExportWalls()
	case ExportOrbits:
		return a.targets.ExportOrbits()
	case ExportAll, "":
		return a.targets.ExportAll()
	}
	return nil, fmt.Errorf("unknown export kind %q", kind)
}

// ImportTargets applies a pasted export. State is unchanged on error.
func (a *App) ImportTargets(data []byte) error {
	b, err := targets.Decode(data)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.targets.Apply(b)
	return nil
}

// WriteTargetsCSV writes the wall-target summary table.
func (a *App) WriteTargetsCSV(w io.Writer) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.targets.WriteCSV(w)
}

// WriteTargetsXLSX writes the wall-target summary workbook.
func (a *App) WriteTargetsXLSX(w io.Writer) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.targets.WriteXLSX(w)
}

// SyncURL returns the remote target export URL.
func (a *App) SyncURL() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.syncURL
}

// SetSyncURL stores the remote target export URL.
func (a *App) SetSyncURL(u string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.syncURL = strings.TrimSpace(u)
}

// SyncTargets fetches the export at url (or the stored sync URL when url is
// empty) and applies it. State is unchanged on any failure.
func (a *App) SyncTargets(ctx context.Context, client *http.Client, url string) error {
	if url == "" {
		url = a.SyncURL()
	}
	if url == "" {
		return fmt.Errorf("no sync URL configured")
	}
	b, err := targets.Fetch(ctx, client, url)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.targets.Apply(b)
	a.log.Info("targets synced", "url", url)
	return nil
}
