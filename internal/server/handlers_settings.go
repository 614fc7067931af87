package server

import (
	"net/http"

	"github.com/claude/setops/internal/analysis"
	"github.com/claude/setops/internal/render"
	"github.com/claude/setops/internal/state"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	gymSettings := make(map[string]render.Settings)
	for _, code := range s.app.Registry().Codes() {
		gymSettings[code] = s.app.GymSettings(code)
	}
	for _, code := range s.app.ScheduledGyms() {
		gymSettings[code] = s.app.GymSettings(code)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"email":         s.app.EmailSettings(),
		"baselines":     s.app.Baselines(),
		"gym_settings":  gymSettings,
		"display_names": s.app.RenderInput().Names,
		"sync_url":      s.app.SyncURL(),
	})
}

func (s *Server) handleSetGymSettings(w http.ResponseWriter, r *http.Request) {
	var set render.Settings
	if !decodeJSON(w, r, &set) {
		return
	}
	gym := chi.URLParam(r, "gym")
	if err := s.app.SetGymSettings(gym, set); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.app.GymSettings(gym))
}

func (s *Server) handleSetBaseline(w http.ResponseWriter, r *http.Request) {
	var b analysis.Baseline
	if !decodeJSON(w, r, &b) {
		return
	}
	if b.MaxBouldersPerSetter < 0 || b.MaxRoutesPerSetter < 0 || b.ShiftHours < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "baseline values must not be negative"})
		return
	}
	s.app.SetBaseline(chi.URLParam(r, "key"), b)
	writeJSON(w, http.StatusOK, s.app.Baselines())
}

func (s *Server) handleSetEmail(w http.ResponseWriter, r *http.Request) {
	var e state.EmailSettings
	if !decodeJSON(w, r, &e) {
		return
	}
	s.app.SetEmailSettings(e)
	writeJSON(w, http.StatusOK, s.app.EmailSettings())
}

type displayNameRequest struct {
	Gym  string `json:"gym"`
	Wall string `json:"wall"`
	Name string `json:"name"`
}

func (s *Server) handleSetDisplayName(w http.ResponseWriter, r *http.Request) {
	var req displayNameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Gym == "" || req.Wall == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "gym and wall are required"})
		return
	}
	s.app.SetDisplayName(req.Gym, req.Wall, req.Name)
	writeJSON(w, http.StatusOK, s.app.RenderInput().Names)
}

func (s *Server) handleSetSyncURL(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.app.SetSyncURL(req.URL)
	writeJSON(w, http.StatusOK, map[string]string{"sync_url": s.app.SyncURL()})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Save(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
