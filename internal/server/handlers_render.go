package server

import (
	"archive/zip"
	"bytes"
	"net/http"
	"strconv"

	"github.com/claude/setops/internal/models"
	"github.com/claude/setops/internal/render"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	sched, ok := s.schedule(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.renderer.Pages(sched, s.app.RenderInput()))
}

// page returns the 1-based page n of a schedule.
func (s *Server) page(w http.ResponseWriter, sched *models.GymSchedule, n int) (render.Page, bool) {
	pages := s.renderer.Pages(sched, s.app.RenderInput())
	if n < 1 || n > len(pages) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "page must be between 1 and " + strconv.Itoa(len(pages))})
		return render.Page{}, false
	}
	return pages[n-1], true
}

func (s *Server) handleHitTest(w http.ResponseWriter, r *http.Request) {
	sched, ok := s.schedule(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	n, errP := strconv.Atoi(q.Get("page"))
	x, errX := strconv.Atoi(q.Get("x"))
	y, errY := strconv.Atoi(q.Get("y"))
	if errP != nil || errX != nil || errY != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "page, x and y must be integers"})
		return
	}
	p, ok := s.page(w, sched, n)
	if !ok {
		return
	}
	m, hit := render.HitTest(p, x, y)
	if !hit {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no editable cell at point"})
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type editRequest struct {
	Page  int    `json:"page"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Value string `json:"value"`
}

// handleEdit is the click-to-edit flow: hit-test a point and store the new
// value for the cell under it.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	sched, ok := s.schedule(w, r)
	if !ok {
		return
	}
	var req editRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, ok := s.page(w, sched, req.Page)
	if !ok {
		return
	}
	m, hit := render.HitTest(p, req.X, req.Y)
	if !hit {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no editable cell at point"})
		return
	}
	s.app.CommitEdit(*m, req.Value)
	m.Value = req.Value
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleOverrides(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Overrides())
}

type overrideRequest struct {
	Gym      string `json:"gym"`
	Date     string `json:"date"`
	DataType string `json:"data_type"`
	Field    string `json:"field"`
	Value    string `json:"value"`
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dt, err := models.ParseDataType(req.DataType)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	f, err := models.ParseField(req.Field)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Gym == "" || req.Date == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "gym and date are required"})
		return
	}
	s.app.CommitEdit(render.Meta{Gym: req.Gym, Date: req.Date, DataType: dt, Field: f}, req.Value)
	writeJSON(w, http.StatusOK, map[string]string{"key": render.OverrideKey(req.Gym, req.Date, dt, f)})
}

func (s *Server) handleClearOverrides(w http.ResponseWriter, r *http.Request) {
	n := s.app.ClearOverrides(r.URL.Query().Get("gym"))
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	sched, ok := s.schedule(w, r)
	if !ok {
		return
	}
	imgs, err := s.renderer.Render(r.Context(), sched, s.app.RenderInput())
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || n < 1 || n > len(imgs) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such page"})
		return
	}
	img := imgs[n-1]
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="`+img.Name+`"`)
	w.Write(img.PNG)
}

// handleMapsZip renders every scheduled gym and returns the pages as one
// archive, the print run.
func (s *Server) handleMapsZip(w http.ResponseWriter, r *http.Request) {
	imgs, err := s.renderer.RenderAll(r.Context(), s.app.Schedules(), s.app.RenderInput())
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, img := range imgs {
		fw, err := zw.Create(img.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		if _, err := fw.Write(img.PNG); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := zw.Close(); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="maps.zip"`)
	w.Write(buf.Bytes())
}
