package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/claude/setops/internal/importer"
	"github.com/claude/setops/internal/models"
	"github.com/claude/setops/internal/storage"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type gymInfo struct {
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	WeekStart   string             `json:"week_start"`
	DisplayMode models.DisplayMode `json:"display_mode"`
	TypeDisplay models.TypeDisplay `json:"type_display"`
	Walls       []string           `json:"walls"`
}

func (s *Server) handleGyms(w http.ResponseWriter, r *http.Request) {
	reg := s.app.Registry()
	var out []gymInfo
	for _, code := range reg.Codes() {
		set := s.app.GymSettings(code)
		out = append(out, gymInfo{
			Code:        code,
			Name:        reg.Name(code),
			WeekStart:   reg.WeekStart(code).String(),
			DisplayMode: set.Mode,
			TypeDisplay: set.TypeDisplay,
			Walls:       reg.WallNames(code),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid upload: " + err.Error()})
		return
	}
	gym := r.FormValue("gym")

	var files []importer.File
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		files = append(files, importer.File{Name: fh.Filename, Gym: gym, Data: data})
	}
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no files uploaded"})
		return
	}

	batch, err := importer.New(s.app.ImportOptions(), s.log).Import(r.Context(), files)
	if err != nil {
		s.logImport(nil, files, err, time.Since(start))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.app.ApplyBatch(batch)
	s.logImport(batch, files, nil, time.Since(start))

	writeJSON(w, http.StatusOK, map[string]any{
		"batch":        batch,
		"climbs":       batch.ClimbCount(),
		"unrecognized": s.app.Unrecognized(),
	})
}

// logImport records an upload in the import history.
func (s *Server) logImport(b *importer.Batch, files []importer.File, importErr error, d time.Duration) {
	if s.store == nil {
		return
	}
	entry := storage.ImportLog{
		CreatedAt:  time.Now().UTC(),
		Source:     "upload",
		Status:     "success",
		DurationMs: d.Milliseconds(),
	}
	for _, f := range files {
		entry.Files = append(entry.Files, f.Name)
	}
	if importErr != nil {
		entry.Status = "error"
		entry.Errors = []string{importErr.Error()}
	}
	if b != nil {
		for _, res := range b.Results {
			entry.RowsReceived += res.RowsReceived
			entry.RowsAccepted += res.RowsAccepted
		}
		entry.Climbs = b.ClimbCount()
		entry.Financials = len(b.Financials)
		entry.Schedules = len(b.Schedules)
		for _, labels := range b.Unrecognized {
			entry.Unrecognized += len(labels)
		}
		for name, msg := range b.Errors {
			entry.Errors = append(entry.Errors, name+": "+msg)
		}
		if b.FilesErrored > 0 {
			entry.Status = "partial"
		}
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()
	if err := storage.InsertImportLog(ctx, s.store, entry); err != nil {
		s.log.Error("failed to log import", "error", err)
	}
}

// contextWithTimeout returns a background context with a 5-second timeout for async logging.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []storage.ImportLog{})
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := storage.QueryImportLogs(r.Context(), s.store, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if logs == nil {
		logs = []storage.ImportLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

type scheduleSummary struct {
	Gym            string `json:"gym"`
	Name           string `json:"name"`
	Start          string `json:"start"`
	DateRangeLabel string `json:"date_range_label"`
	Entries        int    `json:"entries"`
	Unrecognized   int    `json:"unrecognized"`
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	unrec := s.app.Unrecognized()
	out := []scheduleSummary{}
	for _, code := range s.app.ScheduledGyms() {
		sched, _ := s.app.Schedule(code)
		n := 0
		for _, d := range sched.Days {
			n += len(d.Routes) + len(d.Boulders)
		}
		out = append(out, scheduleSummary{
			Gym:            code,
			Name:           s.app.GymName(code),
			Start:          sched.Start.Format("2006-01-02"),
			DateRangeLabel: sched.DateRangeLabel,
			Entries:        n,
			Unrecognized:   len(unrec[code]),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) schedule(w http.ResponseWriter, r *http.Request) (*models.GymSchedule, bool) {
	gym := strings.ToUpper(chi.URLParam(r, "gym"))
	sched, ok := s.app.Schedule(gym)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("no schedule for %s", gym)})
		return nil, false
	}
	return sched, true
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	sched, ok := s.schedule(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (s *Server) handleUnrecognized(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Unrecognized())
}

func (s *Server) handleMappings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Mappings())
}

type mappingRequest struct {
	Gym   string `json:"gym"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

func (s *Server) handleAssignMapping(w http.ResponseWriter, r *http.Request) {
	var req mappingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := models.ParseDiscipline(req.Type)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.app.AssignWallMapping(req.Gym, req.Label, d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unrecognized": s.app.Unrecognized()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, context.Canceled) {
		status = http.StatusRequestTimeout
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeStatus(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
