package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/setops/internal/render"
	"github.com/claude/setops/internal/state"
	"github.com/claude/setops/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxUploadBytes bounds one multipart upload.
const maxUploadBytes = 32 << 20

// Server holds dependencies for HTTP handlers.
type Server struct {
	app      *state.App
	renderer *render.Renderer
	store    storage.Store
	client   *http.Client
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured. A nil store disables
// the import history.
func New(app *state.App, renderer *render.Renderer, store storage.Store, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		app:      app,
		renderer: renderer,
		store:    store,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// Mount attaches an extra handler, such as the MCP endpoint, behind API key
// auth.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.With(APIKeyAuth(s.apiKey)).Mount(pattern, h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Read endpoints (no auth; tsnet handles access)
		r.Get("/health", s.handleHealth)
		r.Get("/gyms", s.handleGyms)
		r.Get("/schedules", s.handleSchedules)
		r.Get("/schedules/{gym}", s.handleSchedule)
		r.Get("/schedules/{gym}/layout", s.handleLayout)
		r.Get("/schedules/{gym}/hit", s.handleHitTest)
		r.Get("/schedules/{gym}/maps/{page}", s.handleMap)
		r.Get("/maps", s.handleMapsZip)
		r.Get("/unrecognized", s.handleUnrecognized)
		r.Get("/mappings", s.handleMappings)
		r.Get("/overrides", s.handleOverrides)
		r.Get("/analysis", s.handleAnalysis)
		r.Get("/costs", s.handleCosts)
		r.Get("/targets/export", s.handleTargetsExport)
		r.Get("/targets/export.csv", s.handleTargetsCSV)
		r.Get("/targets/export.xlsx", s.handleTargetsXLSX)
		r.Get("/targets/{gym}", s.handleTargets)
		r.Get("/settings", s.handleSettings)
		r.Get("/import-logs", s.handleImportLogs)

		// Mutating endpoints (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/upload", s.handleUpload)
			r.Post("/mappings", s.handleAssignMapping)
			r.Post("/schedules/{gym}/edit", s.handleEdit)
			r.Put("/overrides", s.handleSetOverride)
			r.Delete("/overrides", s.handleClearOverrides)
			r.Put("/targets/{gym}/walls", s.handleSetWallTarget)
			r.Delete("/targets/{gym}/walls/{wall}", s.handleDeleteWallTarget)
			r.Post("/targets/{gym}/seed", s.handleSeedTargets)
			r.Put("/targets/{gym}/orbits", s.handleSetOrbit)
			r.Delete("/targets/{gym}/orbits/{name}", s.handleDeleteOrbit)
			r.Post("/targets/import", s.handleTargetsImport)
			r.Post("/targets/sync", s.handleTargetsSync)
			r.Put("/settings/gyms/{gym}", s.handleSetGymSettings)
			r.Put("/settings/baselines/{key}", s.handleSetBaseline)
			r.Put("/settings/email", s.handleSetEmail)
			r.Put("/settings/display-names", s.handleSetDisplayName)
			r.Put("/settings/sync-url", s.handleSetSyncURL)
			r.Post("/save", s.handleSave)
		})
	})
}
