package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/claude/setops/internal/models"
)

// Efficiency is one retained shift's output per setter.
type Efficiency struct {
	Date     time.Time `json:"date"`
	Gym      string    `json:"gym"`
	CrewSize int       `json:"crew_size"`
	Overall  float64   `json:"overall"`
	Rope     float64   `json:"rope"`
	Boulder  float64   `json:"boulder"`
}

// Pair is the shared record of two setters who worked the same shifts.
type Pair struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Shifts     int     `json:"shifts"`
	AvgOverall float64 `json:"avg_overall"`
	AvgRope    float64 `json:"avg_rope"`
	AvgBoulder float64 `json:"avg_boulder"`

	sumOverall, sumRope, sumBoulder float64
}

// Rhythm is the average per-setter output on one weekday.
type Rhythm struct {
	Weekday time.Weekday `json:"weekday"`
	Shifts  int          `json:"shifts"`
	Overall float64      `json:"overall"`
	Rope    float64      `json:"rope"`
	Boulder float64      `json:"boulder"`
}

// Correlations are crew size vs output per setter.
type Correlations struct {
	Overall float64 `json:"overall"`
	Rope    float64 `json:"rope"`
	Boulder float64 `json:"boulder"`
}

// Month rolls retained shifts up by calendar month.
type Month struct {
	Month         string  `json:"month"`
	Shifts        int     `json:"shifts"`
	AvgCrew       float64 `json:"avg_crew"`
	TotalOutput   int     `json:"total_output"`
	AvgEfficiency float64 `json:"avg_efficiency"`
	AvgRope       float64 `json:"avg_rope"`
	AvgBoulder    float64 `json:"avg_boulder"`
	RopeDays      int     `json:"rope_days"`
	BoulderDays   int     `json:"boulder_days"`
	SplitDays     int     `json:"split_days"`
}

// WallHealth is a wall's production relative to the setters who touched it.
type WallHealth struct {
	Wall         string  `json:"wall"`
	Climbs       int     `json:"climbs"`
	SetterShifts int     `json:"setter_shifts"`
	Efficiency   float64 `json:"efficiency"`
}

// Result is a full analysis of one climb set.
type Result struct {
	Gym            string               `json:"gym"`
	Shifts         []Shift              `json:"shifts"`
	TotalShifts    int                  `json:"total_shifts"`
	FilteredShifts int                  `json:"filtered_shifts"`
	Efficiency     []Efficiency         `json:"efficiency"`
	Distribution   Summary              `json:"distribution"`
	Pairs          []Pair               `json:"pairs"`
	Rhythm         []Rhythm             `json:"rhythm"`
	Predictors     map[string]Predictor `json:"predictors"`
	Correlation    Correlations         `json:"correlation"`
	Monthly        []Month              `json:"monthly"`
	DataHealth     float64              `json:"data_health"`
	Walls          []WallHealth         `json:"walls"`
}

// Analyze runs the full pipeline over climbs.
func Analyze(climbs []models.Climb, opts Options) *Result {
	opts = opts.withDefaults()
	climbs = filterGym(climbs, opts.Gym)
	all := Reconstruct(climbs)

	res := &Result{Gym: opts.Gym, Predictors: make(map[string]Predictor)}
	for _, s := range all {
		if opts.Plausible(s) {
			res.Shifts = append(res.Shifts, s)
		}
	}
	res.TotalShifts = len(res.Shifts)
	res.FilteredShifts = len(all) - len(res.Shifts)

	res.DataHealth = dataHealth(all)
	res.Walls = wallHealth(climbs, all)
	res.efficiency()
	res.pairs()
	res.rhythm()
	res.models()
	res.monthly()
	return res
}

// TopPairs returns the n best pairs by average output among pairs that
// shared at least minShifts shifts. n <= 0 returns every qualifying pair.
func (r *Result) TopPairs(n, minShifts int) []Pair {
	var out []Pair
	for _, p := range r.Pairs {
		if p.Shifts >= minShifts {
			out = append(out, p)
		}
	}
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func filterGym(climbs []models.Climb, gym string) []models.Climb {
	if gym == "" || strings.EqualFold(gym, "all") {
		return climbs
	}
	var out []models.Climb
	for _, c := range climbs {
		if strings.EqualFold(c.Gym, gym) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Result) efficiency() {
	overall := make([]float64, 0, len(r.Shifts))
	for _, s := range r.Shifts {
		o, rope, boulder := s.PerSetter()
		r.Efficiency = append(r.Efficiency, Efficiency{
			Date: s.Date, Gym: s.Gym, CrewSize: s.CrewSize,
			Overall: o, Rope: rope, Boulder: boulder,
		})
		overall = append(overall, o)
	}
	r.Distribution = Summarize(overall)
}

func (r *Result) pairs() {
	byKey := make(map[[2]string]*Pair)
	for _, s := range r.Shifts {
		o, rope, boulder := s.PerSetter()
		for i := 0; i < len(s.Setters); i++ {
			for j := i + 1; j < len(s.Setters); j++ {
				k := [2]string{s.Setters[i], s.Setters[j]}
				p, ok := byKey[k]
				if !ok {
					p = &Pair{A: k[0], B: k[1]}
					byKey[k] = p
				}
				p.Shifts++
				p.sumOverall += o
				p.sumRope += rope
				p.sumBoulder += boulder
			}
		}
	}
	for _, p := range byKey {
		n := float64(p.Shifts)
		p.AvgOverall, p.AvgRope, p.AvgBoulder = p.sumOverall/n, p.sumRope/n, p.sumBoulder/n
		r.Pairs = append(r.Pairs, *p)
	}
	sort.Slice(r.Pairs, func(i, j int) bool {
		a, b := r.Pairs[i], r.Pairs[j]
		if a.AvgOverall != b.AvgOverall {
			return a.AvgOverall > b.AvgOverall
		}
		if a.Shifts != b.Shifts {
			return a.Shifts > b.Shifts
		}
		return a.A+"\x00"+a.B < b.A+"\x00"+b.B
	})
}

func (r *Result) rhythm() {
	var days [7]Rhythm
	for _, s := range r.Shifts {
		o, rope, boulder := s.PerSetter()
		d := &days[s.Date.Weekday()]
		d.Shifts++
		d.Overall += o
		d.Rope += rope
		d.Boulder += boulder
	}
	for i := range days {
		d := days[i]
		d.Weekday = time.Weekday(i)
		if d.Shifts > 0 {
			n := float64(d.Shifts)
			d.Overall, d.Rope, d.Boulder = d.Overall/n, d.Rope/n, d.Boulder/n
		}
		r.Rhythm = append(r.Rhythm, d)
	}
}

func (r *Result) models() {
	var (
		crewAll, outAll           []float64
		crewRope, outRope         []float64
		crewBoulder, outBoulder   []float64
		crewSplit, outSplit       []float64
		crewRopeAny, outRopeAny   []float64
		crewBouldAny, outBouldAny []float64
	)
	for _, s := range r.Shifts {
		o, rope, boulder := s.PerSetter()
		c := float64(s.CrewSize)
		crewAll, outAll = append(crewAll, c), append(outAll, o)
		switch s.Kind() {
		case KindRope:
			crewRope, outRope = append(crewRope, c), append(outRope, rope)
		case KindBoulder:
			crewBoulder, outBoulder = append(crewBoulder, c), append(outBoulder, boulder)
		case KindSplit:
			crewSplit, outSplit = append(crewSplit, c), append(outSplit, o)
		}
		if s.Routes > 0 {
			crewRopeAny, outRopeAny = append(crewRopeAny, c), append(outRopeAny, rope)
		}
		if s.Boulders > 0 {
			crewBouldAny, outBouldAny = append(crewBouldAny, c), append(outBouldAny, boulder)
		}
	}
	r.Predictors["overall"] = Fit(crewAll, outAll)
	r.Predictors[KindRope] = Fit(crewRope, outRope)
	r.Predictors[KindBoulder] = Fit(crewBoulder, outBoulder)
	r.Predictors[KindSplit] = Fit(crewSplit, outSplit)
	r.Correlation = Correlations{
		Overall: Pearson(crewAll, outAll),
		Rope:    Pearson(crewRopeAny, outRopeAny),
		Boulder: Pearson(crewBouldAny, outBouldAny),
	}
}

func (r *Result) monthly() {
	type acc struct {
		m                        Month
		crew, eff, rope, boulder float64
		ropeN, boulderN          int
	}
	byMonth := make(map[string]*acc)
	var order []string
	for _, s := range r.Shifts {
		key := s.Date.Format("2006-01")
		a, ok := byMonth[key]
		if !ok {
			a = &acc{m: Month{Month: key}}
			byMonth[key] = a
			order = append(order, key)
		}
		o, rope, boulder := s.PerSetter()
		a.m.Shifts++
		a.m.TotalOutput += s.Total()
		a.crew += float64(s.CrewSize)
		a.eff += o
		if s.Routes > 0 {
			a.rope += rope
			a.ropeN++
		}
		if s.Boulders > 0 {
			a.boulder += boulder
			a.boulderN++
		}
		switch s.Kind() {
		case KindRope:
			a.m.RopeDays++
		case KindBoulder:
			a.m.BoulderDays++
		case KindSplit:
			a.m.SplitDays++
		}
	}
	sort.Strings(order)
	for _, key := range order {
		a := byMonth[key]
		n := float64(a.m.Shifts)
		a.m.AvgCrew = a.crew / n
		a.m.AvgEfficiency = a.eff / n
		if a.ropeN > 0 {
			a.m.AvgRope = a.rope / float64(a.ropeN)
		}
		if a.boulderN > 0 {
			a.m.AvgBoulder = a.boulder / float64(a.boulderN)
		}
		r.Monthly = append(r.Monthly, a.m)
	}
}

func dataHealth(shifts []Shift) float64 {
	if len(shifts) == 0 {
		return 100
	}
	unknown := 0
	for _, s := range shifts {
		if s.Unknown() {
			unknown++
		}
	}
	return 100 * (1 - float64(unknown)/float64(len(shifts)))
}

func wallHealth(climbs []models.Climb, shifts []Shift) []WallHealth {
	byWall := make(map[string]*WallHealth)
	for _, c := range climbs {
		w, ok := byWall[c.Wall]
		if !ok {
			w = &WallHealth{Wall: c.Wall}
			byWall[c.Wall] = w
		}
		w.Climbs++
	}
	for _, s := range shifts {
		for _, wall := range s.Walls {
			if w, ok := byWall[wall]; ok {
				w.SetterShifts += s.CrewSize
			}
		}
	}
	out := make([]WallHealth, 0, len(byWall))
	for _, w := range byWall {
		if w.SetterShifts > 0 {
			w.Efficiency = float64(w.Climbs) / float64(w.SetterShifts)
		}
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Wall < out[j].Wall })
	return out
}
