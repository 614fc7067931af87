package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/claude/setops/internal/targets"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	gym := chi.URLParam(r, "gym")
	writeJSON(w, http.StatusOK, map[string]any{
		"walls":  s.app.WallTargets(gym),
		"orbits": s.app.Orbits(gym),
	})
}

func (s *Server) handleSetWallTarget(w http.ResponseWriter, r *http.Request) {
	var t targets.WallTarget
	if !decodeJSON(w, r, &t) {
		return
	}
	if err := s.app.SetWallTarget(chi.URLParam(r, "gym"), t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.handleTargets(w, r)
}

func (s *Server) handleDeleteWallTarget(w http.ResponseWriter, r *http.Request) {
	s.app.DeleteWallTarget(chi.URLParam(r, "gym"), chi.URLParam(r, "wall"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSeedTargets(w http.ResponseWriter, r *http.Request) {
	n := s.app.SeedWallTargets(chi.URLParam(r, "gym"))
	writeJSON(w, http.StatusOK, map[string]int{"added": n})
}

func (s *Server) handleSetOrbit(w http.ResponseWriter, r *http.Request) {
	var o targets.OrbitTarget
	if !decodeJSON(w, r, &o) {
		return
	}
	if err := s.app.SetOrbit(chi.URLParam(r, "gym"), o); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.handleTargets(w, r)
}

func (s *Server) handleDeleteOrbit(w http.ResponseWriter, r *http.Request) {
	s.app.DeleteOrbit(chi.URLParam(r, "gym"), chi.URLParam(r, "name"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTargetsExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.app.ExportTargets(r.URL.Query().Get("kind"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleTargetsCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.app.WriteTargetsCSV(&buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="wall_targets.csv"`)
	w.Write(buf.Bytes())
}

func (s *Server) handleTargetsXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.app.WriteTargetsXLSX(&buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="wall_targets.xlsx"`)
	w.Write(buf.Bytes())
}

func (s *Server) handleTargetsImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.app.ImportTargets(data); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, targets.ErrInvalidImport) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

type syncRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleTargetsSync(w http.ResponseWriter, r *http.Request) {
	// An empty body syncs from the stored URL.
	var req syncRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}
	if err := s.app.SyncTargets(r.Context(), s.client, req.URL); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}
