// Package render lays a 14-day gym schedule out on a fixed canvas template,
// hit-tests the result and paints it to PNG.
package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/claude/setops/internal/gyms"
	"github.com/claude/setops/internal/models"
)

// Placeholder is printed for a cell with no entries and no override.
const Placeholder = "---"

// Merged-row type labels.
const (
	BothLabel  = "Both"
	MixedLabel = "Mixed"
)

// MergedDataType is the override bucket merged rows read and write.
const MergedDataType = models.Routes

// Settings are a gym's display choices.
type Settings struct {
	Mode        models.DisplayMode `json:"display_mode"`
	TypeDisplay models.TypeDisplay `json:"type_display"`
}

// Rect is a pixel rectangle on the canvas.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Meta identifies the logical cell behind a rendered one.
type Meta struct {
	Gym      string          `json:"gym"`
	Day      int             `json:"day"`
	Date     string          `json:"date"`
	DataType models.DataType `json:"data_type"`
	Field    models.Field    `json:"field"`
	Value    string          `json:"value"`
}

// Cell is one piece of text at a position. Editable cells carry Meta.
type Cell struct {
	Text string `json:"text"`
	Rect Rect   `json:"rect"`
	Meta *Meta  `json:"meta,omitempty"`
}

// Row is one rendered table row.
type Row struct {
	Day    int    `json:"day"`
	Date   string `json:"date"`
	Stripe bool   `json:"stripe"`
	Rect   Rect   `json:"rect"`
	Cells  []Cell `json:"cells"`
}

// Page is one canvas worth of rows.
type Page struct {
	Gym      string          `json:"gym"`
	Title    string          `json:"title"`
	DataType models.DataType `json:"data_type,omitempty"`
	Merged   bool            `json:"merged"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Header   gyms.Point      `json:"header"`
	Rows     []Row           `json:"rows"`
}

// Layout computes every page for a schedule. It does no drawing: Paint
// consumes the result, and HitTest maps pointer positions back to cells.
func Layout(s *models.GymSchedule, tpl gyms.Template, set Settings, ov Overrides, info WallInfo, gymName string) []Page {
	if set.Mode == models.DisplayMerged {
		return []Page{layoutPage(s, tpl, set, ov, info, gymName, "", true)}
	}
	return []Page{
		layoutPage(s, tpl, set, ov, info, gymName, models.Routes, false),
		layoutPage(s, tpl, set, ov, info, gymName, models.Boulders, false),
	}
}

func layoutPage(s *models.GymSchedule, tpl gyms.Template, set Settings, ov Overrides, info WallInfo, gymName string, dt models.DataType, merged bool) Page {
	p := Page{
		Gym:      s.Gym,
		DataType: dt,
		Merged:   merged,
		Width:    tpl.Width,
		Height:   tpl.Height,
		Header:   tpl.Header,
		Title:    pageTitle(gymName, s.DateRangeLabel, dt),
	}
	bucket := dt
	if merged {
		bucket = MergedDataType
	}

	for half, table := range tpl.Tables {
		rendered := 0
		for d := half * 7; d < half*7+7; d++ {
			day := s.Days[d]
			var entries []models.ScheduleEntry
			if merged {
				entries = append(append(entries, day.Routes...), day.Boulders...)
			} else {
				entries = day.Entries(dt)
			}
			date := s.Date(d)
			if !merged && isWeekend(date) && len(entries) == 0 {
				continue
			}

			y := table.Y + rendered*table.RowHeight
			row := Row{
				Day:    d,
				Date:   s.DateKey(d),
				Stripe: rendered%2 == 1,
				Rect: Rect{
					X: table.Date.X,
					Y: y,
					W: table.Setters.X + table.Setters.Width - table.Date.X,
					H: table.RowHeight,
				},
			}
			row.Cells = append(row.Cells, Cell{
				Text: date.Format("Mon 1/2"),
				Rect: Rect{X: table.Date.X, Y: y, W: table.Date.Width, H: table.RowHeight},
			})

			fallback := fallbacks(s.Gym, day, entries, dt, merged, set.TypeDisplay, info)
			for _, col := range []struct {
				field models.Field
				col   gyms.Column
			}{
				{models.FieldLocation, table.Location},
				{models.FieldClimbType, table.Type},
				{models.FieldSetterCount, table.Setters},
			} {
				text := fallback[col.field]
				if v, ok := ov.Get(s.Gym, row.Date, bucket, col.field); ok {
					text = v
				}
				row.Cells = append(row.Cells, Cell{
					Text: text,
					Rect: Rect{X: col.col.X, Y: y, W: col.col.Width, H: table.RowHeight},
					Meta: &Meta{Gym: s.Gym, Day: d, Date: row.Date, DataType: bucket, Field: col.field, Value: text},
				})
			}
			p.Rows = append(p.Rows, row)
			rendered++
		}
	}
	return p
}

func fallbacks(gym string, day models.DaySchedule, entries []models.ScheduleEntry, dt models.DataType, merged bool, td models.TypeDisplay, info WallInfo) map[models.Field]string {
	if len(entries) == 0 {
		return map[models.Field]string{
			models.FieldLocation:    Placeholder,
			models.FieldClimbType:   Placeholder,
			models.FieldSetterCount: Placeholder,
		}
	}

	var names, labels, steep []string
	setters := 0
	for _, e := range entries {
		for _, w := range e.Walls {
			names = appendUnique(names, info.Display(gym, w))
			if st := info.Steepness(gym, w); st != "" {
				steep = appendUnique(steep, st)
			}
		}
		labels = appendUnique(labels, e.ClimbType)
		setters += e.SetterCount
	}

	both := merged && len(day.Routes) > 0 && len(day.Boulders) > 0
	var climbType string
	switch {
	case both && td == models.TypeDisplaySteepness:
		climbType = MixedLabel
	case both:
		climbType = BothLabel
	case td == models.TypeDisplaySteepness && len(steep) > 0:
		climbType = strings.Join(steep, "/")
	default:
		climbType = strings.Join(labels, ", ")
	}

	return map[models.Field]string{
		models.FieldLocation:    strings.Join(names, ", "),
		models.FieldClimbType:   climbType,
		models.FieldSetterCount: strconv.Itoa(setters),
	}
}

// HitTest returns the editable cell under (x, y) on a page, if any.
func HitTest(p Page, x, y int) (*Meta, bool) {
	for _, row := range p.Rows {
		if !row.Rect.Contains(x, y) {
			continue
		}
		for _, c := range row.Cells {
			if c.Meta != nil && c.Rect.Contains(x, y) {
				m := *c.Meta
				return &m, true
			}
		}
	}
	return nil, false
}

// CommitEdit writes an edited value back as an override keyed by the cell's
// calendar date. An empty value removes the override.
func CommitEdit(ov Overrides, m Meta, value string) {
	if value == "" {
		ov.Delete(m.Gym, m.Date, m.DataType, m.Field)
		return
	}
	ov.Set(m.Gym, m.Date, m.DataType, m.Field, value)
}

func pageTitle(gymName, label string, dt models.DataType) string {
	parts := []string{gymName, label}
	switch dt {
	case models.Routes:
		parts = append(parts, "Routes")
	case models.Boulders:
		parts = append(parts, "Boulders")
	}
	return strings.Join(parts, " ")
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
