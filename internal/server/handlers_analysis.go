package server

import (
	"net/http"
	"strconv"
)

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := s.app.Analyze(q.Get("gym"))

	top, minShifts := 5, 3
	if v, err := strconv.Atoi(q.Get("top")); err == nil && v > 0 {
		top = v
	}
	if v, err := strconv.Atoi(q.Get("min_shifts")); err == nil && v > 0 {
		minShifts = v
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":    res,
		"top_pairs": res.TopPairs(top, minShifts),
	})
}

func (s *Server) handleCosts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Costs())
}
