package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/claude/setops/internal/models"
)

// PeriodCost joins one payroll period with the climbs set during it.
type PeriodCost struct {
	Gym           string    `json:"gym"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	Hours         float64   `json:"hours"`
	Wages         float64   `json:"wages"`
	Climbs        int       `json:"climbs"`
	CostPerClimb  float64   `json:"cost_per_climb"`
	HoursPerClimb float64   `json:"hours_per_climb"`
}

// CostPerClimb matches every financial record to its gym's climbs inside the
// pay period (inclusive). A record without period dates matches all of the
// gym's climbs.
func CostPerClimb(records []models.FinancialRecord, climbs []models.Climb) []PeriodCost {
	out := make([]PeriodCost, 0, len(records))
	for _, rec := range records {
		pc := PeriodCost{
			Gym:         rec.Gym,
			PeriodStart: rec.PayPeriodStart,
			PeriodEnd:   rec.PayPeriodEnd,
			Hours:       rec.TotalHours,
			Wages:       rec.TotalWages,
		}
		for _, c := range climbs {
			if !strings.EqualFold(c.Gym, rec.Gym) {
				continue
			}
			if !rec.PayPeriodStart.IsZero() && c.DateSet.Before(rec.PayPeriodStart) {
				continue
			}
			if !rec.PayPeriodEnd.IsZero() && c.DateSet.After(rec.PayPeriodEnd) {
				continue
			}
			pc.Climbs++
		}
		if pc.Climbs > 0 {
			pc.CostPerClimb = pc.Wages / float64(pc.Climbs)
			pc.HoursPerClimb = pc.Hours / float64(pc.Climbs)
		}
		out = append(out, pc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Gym != out[j].Gym {
			return out[i].Gym < out[j].Gym
		}
		return out[i].PeriodStart.Before(out[j].PeriodStart)
	})
	return out
}
