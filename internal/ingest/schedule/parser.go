// Package schedule builds per-gym 14-day work schedules from shift exports.
package schedule

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/claude/setops/internal/gyms"
	"github.com/claude/setops/internal/ingest"
	"github.com/claude/setops/internal/models"
	"github.com/claude/setops/internal/walls"
)

// ErrMissingColumn is returned when one of the four schedule columns is absent.
var ErrMissingColumn = errors.New("missing required column")

// Climb-type labels written into new entries.
const (
	RopeLabel    = "Rope"
	BoulderLabel = "Boulder"
)

var (
	nonSettingRe = regexp.MustCompile(`\b(admin|administrative|meeting|meetings|washing|wash|office|pto|vacation|sick|training|inventory|cleaning)\b`)
	setterSplit  = regexp.MustCompile(`[/,&]`)
)

var columns = []ingest.Column{
	{Field: "title", Matchers: []ingest.Matcher{ingest.Equals("title")}},
	{Field: "date", Matchers: []ingest.Matcher{ingest.Equals("startdate")}},
	{Field: "location", Matchers: []ingest.Matcher{ingest.Equals("location")}},
	{Field: "names", Matchers: []ingest.Matcher{ingest.Equals("employeenames")}},
}

// Options supplies the registry and learned wall mappings.
type Options struct {
	Registry *gyms.Registry
	Mappings walls.Mappings
}

// Output is everything one schedule export produces.
type Output struct {
	Schedules    map[string]*models.GymSchedule `json:"schedules"`
	Unrecognized map[string][]string            `json:"unrecognized"`
	NewGyms      map[string]string              `json:"new_gyms"`

	RowsReceived int `json:"rows_received"`
	RowsAccepted int `json:"rows_accepted"`
}

type row struct {
	title string
	date  time.Time
	dated bool
	names string
}

// Parse reads a shift export. Rows are grouped by gym, filtered to setting
// work, resolved to walls and bucketed into the gym's 14-day window. Gyms
// without a single readable date are omitted.
func Parse(r io.Reader, opts Options) (*Output, error) {
	header, rows, err := ingest.ReadRows(r)
	if err != nil {
		return nil, err
	}
	idx := ingest.BuildIndex(header, columns)
	for _, f := range []string{"title", "date", "location", "names"} {
		if !idx.Has(f) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, f)
		}
	}

	reg := opts.Registry
	if reg == nil {
		reg = gyms.Default()
	}
	resolver := walls.NewResolver(reg, opts.Mappings)

	out := &Output{
		Schedules:    make(map[string]*models.GymSchedule),
		Unrecognized: make(map[string][]string),
		NewGyms:      make(map[string]string),
		RowsReceived: len(rows),
	}

	codes := make(map[string]string)
	var order []string
	grouped := make(map[string][]row)
	for _, rec := range rows {
		loc := idx.Cell(rec, "location")
		if loc == "" {
			continue
		}
		code, seen := codes[loc]
		if !seen {
			code = gymCode(reg, loc, out.NewGyms)
			codes[loc] = code
		}
		if _, ok := grouped[code]; !ok {
			order = append(order, code)
		}
		d, ok := ingest.ParseDate(idx.Cell(rec, "date"))
		grouped[code] = append(grouped[code], row{
			title: idx.Cell(rec, "title"),
			date:  d,
			dated: ok,
			names: idx.Cell(rec, "names"),
		})
	}

	for _, code := range order {
		sched, unrec, accepted := build(code, grouped[code], reg.WeekStart(code), resolver)
		if sched == nil {
			delete(out.NewGyms, code)
			continue
		}
		out.Schedules[code] = sched
		out.RowsAccepted += accepted
		if len(unrec) > 0 {
			out.Unrecognized[code] = unrec
		}
	}
	return out, nil
}

func build(code string, rows []row, weekStart time.Weekday, resolver *walls.Resolver) (*models.GymSchedule, []string, int) {
	var earliest time.Time
	for _, r := range rows {
		if r.dated && (earliest.IsZero() || r.date.Before(earliest)) {
			earliest = r.date
		}
	}
	if earliest.IsZero() {
		return nil, nil, 0
	}
	sched := models.NewGymSchedule(code, WindowStart(earliest, weekStart))

	var unrec []string
	seen := make(map[string]bool)
	accepted := 0
	for _, r := range rows {
		if !r.dated || IsNonSetting(r.title) {
			continue
		}
		setters := SplitSetters(r.names)
		if len(setters) == 0 {
			continue
		}

		res := resolver.Resolve(code, r.title)
		if res.Unrecognized != "" && !seen[res.Unrecognized] {
			seen[res.Unrecognized] = true
			unrec = append(unrec, res.Unrecognized)
		}
		if res.Type == models.Ignored {
			continue
		}

		day := int(r.date.Sub(sched.Start).Hours() / 24)
		if day < 0 || day >= models.ScheduleDays {
			continue
		}
		entry := models.ScheduleEntry{
			Walls:       res.Walls,
			SetterCount: len(setters),
			ClimbType:   BoulderLabel,
		}
		if res.Type == models.Rope {
			entry.ClimbType = RopeLabel
			sched.Days[day].Routes = append(sched.Days[day].Routes, entry)
		} else {
			sched.Days[day].Boulders = append(sched.Days[day].Boulders, entry)
		}
		accepted++
	}
	return sched, unrec, accepted
}

// WindowStart returns the weekStart day on or before d.
func WindowStart(d time.Time, weekStart time.Weekday) time.Time {
	back := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDate(0, 0, -back)
}

// IsNonSetting reports whether a shift title names administrative or other
// non-setting work.
func IsNonSetting(title string) bool {
	return nonSettingRe.MatchString(strings.ToLower(title))
}

// SplitSetters splits an employee list on "/", "," and "&", dropping tokens
// of one character or less.
func SplitSetters(names string) []string {
	var out []string
	for _, n := range setterSplit.Split(names, -1) {
		n = strings.TrimSpace(n)
		if utf8.RuneCountInString(n) <= 1 {
			continue
		}
		out = append(out, n)
	}
	return out
}

func gymCode(reg *gyms.Registry, loc string, newGyms map[string]string) string {
	if code, ok := reg.Lookup(loc); ok {
		return code
	}
	code := gyms.SynthesizeCode(loc, func(c string) bool {
		if _, ok := reg.Gym(c); ok {
			return true
		}
		_, ok := newGyms[c]
		return ok
	})
	newGyms[code] = loc
	return code
}
