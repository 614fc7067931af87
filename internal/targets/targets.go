// Package targets keeps per-wall production targets and orbit groupings,
// with orbit rollups derived on every read.
package targets

import (
	"sort"
	"strings"

	"github.com/claude/setops/internal/gyms"
	"github.com/claude/setops/internal/models"
)

// WallTarget is the production goal for one wall.
type WallTarget struct {
	Wall             string            `json:"wall"`
	TargetVolume     float64           `json:"target_volume"`
	TargetEfficiency float64           `json:"target_efficiency"`
	Type             models.Discipline `json:"type"`
	DisplayName      string            `json:"display_name,omitempty"`
	Manual           bool              `json:"manual,omitempty"`
}

// OrbitTarget groups walls that rotate on a shared cadence.
type OrbitTarget struct {
	Name  string   `json:"name"`
	Walls []string `json:"walls"`
	// RPS is the planned climbs per setter-shift.
	RPS float64 `json:"rps"`
	// RotationTarget is the number of weeks for a full reset of the orbit.
	RotationTarget float64 `json:"rotation_target"`
	// ShiftDuration is the length of one setter-shift in hours.
	ShiftDuration float64 `json:"shift_duration"`
}

// Rollup is derived from an orbit and its walls' targets. It is never stored.
type Rollup struct {
	TotalClimbs      float64 `json:"total_climbs"`
	WeeklyProduction float64 `json:"weekly_production"`
	WeeklyShifts     float64 `json:"weekly_shifts"`
	PayPeriodHours   float64 `json:"pay_period_hours"`
	HoursPerClimb    float64 `json:"hours_per_climb"`
}

// Orbit is an orbit with its rollup attached.
type Orbit struct {
	OrbitTarget
	Rollup Rollup `json:"rollup"`
}

// WallMap is gym -> wall key -> target.
type WallMap map[string]map[string]WallTarget

// OrbitMap is gym -> orbits.
type OrbitMap map[string][]OrbitTarget

// Store holds all targets. It is not safe for concurrent use.
type Store struct {
	walls  WallMap
	orbits OrbitMap
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{walls: make(WallMap), orbits: make(OrbitMap)}
}

// FromMaps builds a store around existing maps. Nil maps are replaced.
func FromMaps(walls WallMap, orbits OrbitMap) *Store {
	if walls == nil {
		walls = make(WallMap)
	}
	if orbits == nil {
		orbits = make(OrbitMap)
	}
	return &Store{walls: walls, orbits: orbits}
}

// Key normalizes a wall name for target lookup.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Walls returns the raw wall map.
func (s *Store) Walls() WallMap { return s.walls }

// OrbitTargets returns the raw orbit map.
func (s *Store) OrbitTargets() OrbitMap { return s.orbits }

// SetWall creates or replaces a wall target.
func (s *Store) SetWall(gym string, t WallTarget) {
	gym = strings.ToUpper(gym)
	if s.walls[gym] == nil {
		s.walls[gym] = make(map[string]WallTarget)
	}
	t.Wall = strings.TrimSpace(t.Wall)
	s.walls[gym][Key(t.Wall)] = t
}

// Wall looks a target up by wall name.
func (s *Store) Wall(gym, name string) (WallTarget, bool) {
	t, ok := s.walls[strings.ToUpper(gym)][Key(name)]
	return t, ok
}

// DeleteWall removes a wall target.
func (s *Store) DeleteWall(gym, name string) {
	delete(s.walls[strings.ToUpper(gym)], Key(name))
}

// GymWalls returns a gym's targets sorted by key.
func (s *Store) GymWalls(gym string) []WallTarget {
	byKey := s.walls[strings.ToUpper(gym)]
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]WallTarget, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out
}

// Gyms returns every gym code with wall or orbit targets, sorted.
func (s *Store) Gyms() []string {
	seen := make(map[string]bool)
	for g := range s.walls {
		seen[g] = true
	}
	for g := range s.orbits {
		seen[g] = true
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Seed adds a target for every dictionary wall the gym has no target for.
// Existing targets are left untouched.
func (s *Store) Seed(reg *gyms.Registry, gym string) int {
	added := 0
	for _, name := range reg.WallNames(gym) {
		if _, ok := s.Wall(gym, name); ok {
			continue
		}
		def, _ := reg.Wall(gym, name)
		s.SetWall(gym, WallTarget{Wall: name, Type: def.Type, DisplayName: def.Display})
		added++
	}
	return added
}

// SetOrbit creates or replaces an orbit by name.
func (s *Store) SetOrbit(gym string, o OrbitTarget) {
	gym = strings.ToUpper(gym)
	list := s.orbits[gym]
	for i := range list {
		if strings.EqualFold(list[i].Name, o.Name) {
			list[i] = o
			return
		}
	}
	s.orbits[gym] = append(list, o)
}

// DeleteOrbit removes an orbit by name.
func (s *Store) DeleteOrbit(gym, name string) {
	gym = strings.ToUpper(gym)
	list := s.orbits[gym]
	for i := range list {
		if strings.EqualFold(list[i].Name, name) {
			s.orbits[gym] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Orbits returns a gym's orbits with rollups computed from current targets.
func (s *Store) Orbits(gym string) []Orbit {
	gym = strings.ToUpper(gym)
	out := make([]Orbit, 0, len(s.orbits[gym]))
	for _, o := range s.orbits[gym] {
		out = append(out, Orbit{OrbitTarget: o, Rollup: s.Rollup(gym, o)})
	}
	return out
}

// Rollup derives an orbit's goals from its walls' targets. When the orbit
// has no rate of its own, the walls' average target efficiency stands in.
func (s *Store) Rollup(gym string, o OrbitTarget) Rollup {
	var r Rollup
	var effSum float64
	var effN int
	for _, w := range o.Walls {
		t, ok := s.Wall(gym, w)
		if !ok {
			continue
		}
		r.TotalClimbs += t.TargetVolume
		if t.TargetEfficiency > 0 {
			effSum += t.TargetEfficiency
			effN++
		}
	}
	if o.RotationTarget > 0 {
		r.WeeklyProduction = r.TotalClimbs / o.RotationTarget
	}
	rps := o.RPS
	if rps <= 0 && effN > 0 {
		rps = effSum / float64(effN)
	}
	if rps > 0 {
		r.WeeklyShifts = r.WeeklyProduction / rps
		r.HoursPerClimb = o.ShiftDuration / rps
	}
	r.PayPeriodHours = r.WeeklyShifts * 2 * o.ShiftDuration
	return r
}
