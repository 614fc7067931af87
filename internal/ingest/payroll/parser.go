// Package payroll parses labor hours and wage exports into per-gym
// financial records.
package payroll

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/claude/setops/internal/gyms"
	"github.com/claude/setops/internal/ingest"
	"github.com/claude/setops/internal/models"
)

// ErrMissingColumn is returned when the location, hours or wages column is absent.
var ErrMissingColumn = errors.New("missing required column")

var rangeSplitRe = regexp.MustCompile(`\s+(?:-|–|to)\s+`)

func excluding(m ingest.Matcher, words ...string) ingest.Matcher {
	return func(h string) bool {
		for _, w := range words {
			if strings.Contains(h, w) {
				return false
			}
		}
		return m(h)
	}
}

var columns = []ingest.Column{
	{Field: "gym", Matchers: []ingest.Matcher{ingest.Contains("location", "gym", "site"), ingest.Equals("name")}},
	{Field: "hours", Matchers: []ingest.Matcher{ingest.Contains("totalhours"), excluding(ingest.Contains("hours"), "budget")}},
	{Field: "wages", Matchers: []ingest.Matcher{ingest.Contains("totalwages"), excluding(ingest.Contains("wages", "payroll", "cost"), "budget", "variance")}},
	{Field: "budget", Matchers: []ingest.Matcher{ingest.Contains("budget")}},
	{Field: "variance", Matchers: []ingest.Matcher{ingest.Contains("variance")}},
	{Field: "start", Matchers: []ingest.Matcher{ingest.Contains("periodstart", "startdate", "start")}},
	{Field: "end", Matchers: []ingest.Matcher{ingest.Contains("periodend", "enddate", "end")}},
	{Field: "period", Matchers: []ingest.Matcher{ingest.Contains("payperiod", "daterange", "period")}},
}

// Parse reads a payroll CSV export.
func Parse(r io.Reader, registry *gyms.Registry) ([]models.FinancialRecord, error) {
	header, rows, err := ingest.ReadRows(r)
	if err != nil {
		return nil, err
	}
	return FromRows(header, rows, registry)
}

// FromRows converts an already-split table into records. Rows without a gym
// or with unreadable hours and wages are skipped.
func FromRows(header []string, rows [][]string, registry *gyms.Registry) ([]models.FinancialRecord, error) {
	if registry == nil {
		registry = gyms.Default()
	}
	idx := ingest.BuildIndex(header, columns)
	for _, f := range []string{"gym", "hours", "wages"} {
		if !idx.Has(f) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, f)
		}
	}

	var records []models.FinancialRecord
	for _, row := range rows {
		loc := idx.Cell(row, "gym")
		if loc == "" {
			continue
		}
		hours, okH := ParseAmount(idx.Cell(row, "hours"))
		wages, okW := ParseAmount(idx.Cell(row, "wages"))
		if !okH && !okW {
			continue
		}

		rec := models.FinancialRecord{
			Gym:        GymCode(registry, loc),
			TotalHours: hours,
			TotalWages: wages,
		}
		rec.PayPeriodStart, rec.PayPeriodEnd = period(idx, row)
		if v, ok := ParseAmount(idx.Cell(row, "budget")); ok {
			rec.BudgetWages = &v
		}
		if v, ok := ParseAmount(idx.Cell(row, "variance")); ok {
			rec.Variance = &v
		} else if rec.BudgetWages != nil {
			v := *rec.BudgetWages - wages
			rec.Variance = &v
		}
		records = append(records, rec)
	}
	return records, nil
}

// GymCode resolves a payroll location through the registry, falling back to
// the first three letters of the location.
func GymCode(registry *gyms.Registry, location string) string {
	if code, ok := registry.Lookup(location); ok {
		return code
	}
	return gyms.SynthesizeCode(location, nil)
}

// ParseAmount reads a currency or hours cell. "$" and "," are stripped and a
// parenthesized value is negative.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

func period(idx ingest.Index, row []string) (time.Time, time.Time) {
	start, _ := ingest.ParseDate(idx.Cell(row, "start"))
	end, _ := ingest.ParseDate(idx.Cell(row, "end"))
	if !start.IsZero() && !end.IsZero() {
		return start, end
	}
	parts := rangeSplitRe.Split(idx.Cell(row, "period"), 2)
	if len(parts) == 2 {
		s, okS := ingest.ParseDate(parts[0])
		e, okE := ingest.ParseDate(parts[1])
		if okS && okE {
			return s, e
		}
	}
	return start, end
}
