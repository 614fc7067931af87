// Package performance parses climb production exports into Climb records.
package performance

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/claude/setops/internal/grade"
	"github.com/claude/setops/internal/gyms"
	"github.com/claude/setops/internal/ingest"
	"github.com/claude/setops/internal/models"
	"github.com/google/uuid"
)

// ErrMissingColumn is returned when the name, grade or setter column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Fallbacks for empty optional cells.
const (
	DefaultWall   = "General"
	DefaultGrade  = "Unrated"
	DefaultSetter = "N/A"
)

// climbNamespace seeds deterministic climb IDs so re-imports are stable.
var climbNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("setops/climb"))

var columns = []ingest.Column{
	{Field: "name", Matchers: []ingest.Matcher{ingest.Equals("name", "climbname", "routename", "climb")}},
	{Field: "grade", Matchers: []ingest.Matcher{ingest.Equals("grade", "difficulty")}},
	{Field: "setter", Matchers: []ingest.Matcher{ingest.Equals("setter", "setby", "setters"), ingest.Contains("setter")}},
	{Field: "wall", Matchers: []ingest.Matcher{ingest.Equals("wall", "location", "wallname")}},
	{Field: "date", Matchers: []ingest.Matcher{ingest.Equals("dateset", "date", "createdat"), ingest.Contains("date")}},
	{Field: "color", Matchers: []ingest.Matcher{ingest.Equals("color", "holdcolor", "colour")}},
	{Field: "type", Matchers: []ingest.Matcher{ingest.Equals("climbtype", "type")}},
}

// Options controls how climbs are attributed.
type Options struct {
	// Gym is a gym code or location label applied to every climb.
	Gym string
	// Registry resolves Gym to a registered code. Nil uses the built-in one.
	Registry *gyms.Registry
	// Now supplies the date for rows whose date cannot be read.
	Now func() time.Time
}

// Parse reads a performance export. Only a missing name, grade or setter
// column is an error; every other gap falls back to a default.
func Parse(r io.Reader, opts Options) ([]models.Climb, error) {
	header, rows, err := ingest.ReadRows(r)
	if err != nil {
		return nil, err
	}
	idx := ingest.BuildIndex(header, columns)
	for _, f := range []string{"name", "grade", "setter"} {
		if !idx.Has(f) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, f)
		}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	gym := resolveGym(opts)

	climbs := make([]models.Climb, 0, len(rows))
	for i, row := range rows {
		rawGrade := idx.Cell(row, "grade")
		if rawGrade == "" {
			rawGrade = DefaultGrade
		}
		key := grade.Normalize(rawGrade)
		score, _ := grade.Score(key)

		c := models.Climb{
			Name:       idx.Cell(row, "name"),
			Grade:      rawGrade,
			GradeKey:   key,
			GradeScore: score,
			Setter:     orDefault(idx.Cell(row, "setter"), DefaultSetter),
			Wall:       orDefault(idx.Cell(row, "wall"), DefaultWall),
			Color:      idx.Cell(row, "color"),
			DateSet:    ParseDate(idx.Cell(row, "date"), now),
			Gym:        gym,
			IsRoute:    IsRoute(idx.Cell(row, "type"), rawGrade),
		}
		c.ID = climbID(c, i)
		climbs = append(climbs, c)
	}
	return climbs, nil
}

// IsRoute is the single route/boulder decision for a climb: the type text
// mentions "route" or the raw grade is on the 5. scale.
func IsRoute(climbType, rawGrade string) bool {
	return strings.Contains(strings.ToLower(climbType), "route") ||
		strings.HasPrefix(strings.ToLower(strings.TrimSpace(rawGrade)), "5.")
}

// ParseDate reads a set date, falling back to now's date when the value
// cannot be read.
func ParseDate(s string, now func() time.Time) time.Time {
	if t, ok := ingest.ParseDate(s); ok {
		return t
	}
	return ingest.Civil(now())
}

func resolveGym(opts Options) string {
	label := strings.TrimSpace(opts.Gym)
	if label == "" {
		return ""
	}
	reg := opts.Registry
	if reg == nil {
		reg = gyms.Default()
	}
	if code, ok := reg.Lookup(label); ok {
		return code
	}
	return gyms.SynthesizeCode(label, nil)
}

func climbID(c models.Climb, row int) string {
	key := fmt.Sprintf("%s|%d|%s|%s|%s|%s|%s", c.Gym, row, c.Name, c.Grade, c.Setter, c.Wall, c.DateSet.Format("2006-01-02"))
	return uuid.NewSHA1(climbNamespace, []byte(key)).String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
