package models

import "time"

// ScheduleDays is the fixed length of a biweekly schedule window.
const ScheduleDays = 14

// ScheduleEntry is one unit of work for a single discipline on a single day.
type ScheduleEntry struct {
	Walls       []string `json:"walls"`
	SetterCount int      `json:"setter_count"`
	ClimbType   string   `json:"climb_type"`
}

// DaySchedule holds the rope and boulder work for one day of the window.
type DaySchedule struct {
	Routes   []ScheduleEntry `json:"routes"`
	Boulders []ScheduleEntry `json:"boulders"`
}

// Entries returns the bucket for the given data type.
func (d DaySchedule) Entries(dt DataType) []ScheduleEntry {
	if dt == Routes {
		return d.Routes
	}
	return d.Boulders
}

// GymSchedule is a gym's 14-day work schedule aligned to its week start.
type GymSchedule struct {
	Gym            string                    `json:"gym"`
	Start          time.Time                 `json:"start"`
	Days           [ScheduleDays]DaySchedule `json:"days"`
	DateRangeLabel string                    `json:"date_range_label"`
	FileDateRange  string                    `json:"file_date_range"`
}

// NewGymSchedule returns a schedule with every day slot present and empty.
func NewGymSchedule(gym string, start time.Time) *GymSchedule {
	s := &GymSchedule{Gym: gym, Start: start}
	for i := range s.Days {
		s.Days[i] = DaySchedule{Routes: []ScheduleEntry{}, Boulders: []ScheduleEntry{}}
	}
	end := start.AddDate(0, 0, ScheduleDays-1)
	s.DateRangeLabel = start.Format("1/2") + "-" + end.Format("1/2")
	s.FileDateRange = start.Format("20060102") + "-" + end.Format("20060102")
	return s
}

// Date returns the calendar date of a day index.
func (s *GymSchedule) Date(day int) time.Time {
	return s.Start.AddDate(0, 0, day)
}

// DateKey returns the ISO calendar date (YYYY-MM-DD) of a day index.
func (s *GymSchedule) DateKey(day int) string {
	return s.Date(day).Format("2006-01-02")
}
