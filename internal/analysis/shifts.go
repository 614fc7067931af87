// Package analysis reconstructs setting shifts from climb records and derives
// production statistics from them.
package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/claude/setops/internal/models"
)

// Shift kinds by discipline mix.
const (
	KindRope    = "rope"
	KindBoulder = "boulder"
	KindSplit   = "split"
)

// Shift is all climbs set at one gym on one calendar date.
type Shift struct {
	Date     time.Time `json:"date"`
	Gym      string    `json:"gym"`
	Setters  []string  `json:"setters"`
	CrewSize int       `json:"crew_size"`
	Routes   int       `json:"routes"`
	Boulders int       `json:"boulders"`
	Walls    []string  `json:"walls"`
}

// Total is the shift's combined output.
func (s Shift) Total() int { return s.Routes + s.Boulders }

// Kind classifies the shift as rope-only, boulder-only or split.
func (s Shift) Kind() string {
	switch {
	case s.Routes > 0 && s.Boulders > 0:
		return KindSplit
	case s.Routes > 0:
		return KindRope
	default:
		return KindBoulder
	}
}

// PerSetter returns overall, rope and boulder output per setter.
func (s Shift) PerSetter() (overall, rope, boulder float64) {
	if s.CrewSize == 0 {
		return 0, 0, 0
	}
	n := float64(s.CrewSize)
	return float64(s.Total()) / n, float64(s.Routes) / n, float64(s.Boulders) / n
}

// Unknown reports whether any setter on the shift is a placeholder name.
func (s Shift) Unknown() bool {
	for _, name := range s.Setters {
		if strings.EqualFold(name, "unknown") || strings.EqualFold(name, "n/a") {
			return true
		}
	}
	return false
}

// Reconstruct groups climbs by (date, gym). The crew is the union of all
// comma-separated setter names, compared case-insensitively.
func Reconstruct(climbs []models.Climb) []Shift {
	type key struct {
		date string
		gym  string
	}
	type acc struct {
		shift   Shift
		setters map[string]bool
		walls   map[string]bool
	}
	groups := make(map[key]*acc)
	var order []key

	for _, c := range climbs {
		k := key{c.DateSet.Format("2006-01-02"), c.Gym}
		a, ok := groups[k]
		if !ok {
			a = &acc{
				shift:   Shift{Date: c.DateSet, Gym: c.Gym},
				setters: make(map[string]bool),
				walls:   make(map[string]bool),
			}
			groups[k] = a
			order = append(order, k)
		}
		for _, name := range strings.Split(c.Setter, ",") {
			name = strings.TrimSpace(name)
			if name == "" || a.setters[strings.ToLower(name)] {
				continue
			}
			a.setters[strings.ToLower(name)] = true
			a.shift.Setters = append(a.shift.Setters, name)
		}
		if c.IsRoute {
			a.shift.Routes++
		} else {
			a.shift.Boulders++
		}
		if c.Wall != "" && !a.walls[c.Wall] {
			a.walls[c.Wall] = true
			a.shift.Walls = append(a.shift.Walls, c.Wall)
		}
	}

	shifts := make([]Shift, 0, len(order))
	for _, k := range order {
		s := groups[k].shift
		s.CrewSize = len(s.Setters)
		sort.Strings(s.Setters)
		shifts = append(shifts, s)
	}
	sort.SliceStable(shifts, func(i, j int) bool {
		if !shifts[i].Date.Equal(shifts[j].Date) {
			return shifts[i].Date.Before(shifts[j].Date)
		}
		return shifts[i].Gym < shifts[j].Gym
	})
	return shifts
}

// Plausible reports whether a shift survives the output-per-setter filter.
func (o Options) Plausible(s Shift) bool {
	if s.Total() == 0 || s.CrewSize == 0 {
		return false
	}
	n := float64(s.CrewSize)
	if float64(s.Boulders)/n > o.MaxBouldersPerSetter {
		return false
	}
	if float64(s.Routes)/n > o.MaxRoutesPerSetter {
		return false
	}
	return true
}
