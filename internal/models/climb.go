package models

import "time"

// Climb is one set route or boulder parsed from a performance export row.
type Climb struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Grade      string    `json:"grade"`
	GradeKey   string    `json:"grade_key"`
	GradeScore float64   `json:"grade_score"`
	Setter     string    `json:"setter"`
	Wall       string    `json:"wall"`
	Color      string    `json:"color,omitempty"`
	DateSet    time.Time `json:"date_set"`
	Gym        string    `json:"gym"`
	IsRoute    bool      `json:"is_route"`
}

// Discipline returns the climb's discipline as derived at parse time.
func (c Climb) Discipline() Discipline {
	if c.IsRoute {
		return Rope
	}
	return Boulder
}

// FinancialRecord is one gym's labor cost for a single pay period.
type FinancialRecord struct {
	Gym            string    `json:"gym"`
	PayPeriodStart time.Time `json:"pay_period_start"`
	PayPeriodEnd   time.Time `json:"pay_period_end"`
	TotalHours     float64   `json:"total_hours"`
	TotalWages     float64   `json:"total_wages"`
	BudgetWages    *float64  `json:"budget_wages,omitempty"`
	Variance       *float64  `json:"variance,omitempty"`
}
