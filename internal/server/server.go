// Package server provides the HTTP server and routing for pathsim.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/pathsim/internal/config"
	"github.com/aristath/pathsim/internal/database"
	"github.com/aristath/pathsim/internal/events"
	"github.com/aristath/pathsim/internal/modules/analytics"
	analyticshandlers "github.com/aristath/pathsim/internal/modules/analytics/handlers"
	"github.com/aristath/pathsim/internal/modules/runs"
	runshandlers "github.com/aristath/pathsim/internal/modules/runs/handlers"
	"github.com/aristath/pathsim/internal/modules/simulation"
	simulationhandlers "github.com/aristath/pathsim/internal/modules/simulation/handlers"
	"github.com/aristath/pathsim/internal/reliability"
)

// Config holds server configuration
type Config struct {
	Log           zerolog.Logger
	Config        *config.Config
	RunsDB        *database.DB
	EventBus      *events.Bus
	SimulationSvc *simulation.Service
	RunsSvc       *runs.Service
	AnalyticsSvc  *analytics.Service
	BackupService *reliability.BackupService
	CloudBackup   *reliability.CloudBackupService // nil when not configured
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	runsDB         *database.DB
	eventBus       *events.Bus
	simulationSvc  *simulation.Service
	runsSvc        *runs.Service
	analyticsSvc   *analytics.Service
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	systemHandlers := NewSystemHandlers(
		cfg.Log,
		cfg.Config.DataDir,
		map[string]*database.DB{"runs": cfg.RunsDB},
		cfg.RunsSvc,
		cfg.EventBus,
		cfg.BackupService,
		cfg.CloudBackup,
	)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		runsDB:         cfg.RunsDB,
		eventBus:       cfg.EventBus,
		simulationSvc:  cfg.SimulationSvc,
		runsSvc:        cfg.RunsSvc,
		analyticsSvc:   cfg.AnalyticsSvc,
		systemHandlers: systemHandlers,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// Event streaming (SSE and WebSocket)
	eventsStreamHandler := NewEventsStreamHandler(s.eventBus, s.log)
	s.router.Get("/api/events/stream", eventsStreamHandler.ServeSSE)
	s.router.Get("/api/events/ws", eventsStreamHandler.ServeWS)

	// System monitoring and operations
	s.router.Route("/api/system", func(r chi.Router) {
		r.Get("/status", s.systemHandlers.HandleSystemStatus)
		r.Get("/databases", s.systemHandlers.HandleDatabaseStats)
		r.Get("/disk", s.systemHandlers.HandleDiskUsage)
		r.Post("/checkpoint", s.systemHandlers.HandleWALCheckpoint)
		r.Post("/backup", s.systemHandlers.HandleBackupNow)
		r.Get("/backups", s.systemHandlers.HandleListBackups)
	})

	limits := simulationhandlers.Limits{
		MaxPathCount: s.cfg.MaxPathCount,
		MaxSteps:     s.cfg.MaxSteps,
	}

	// Simulation module (stateless batches)
	simulationHandler := simulationhandlers.NewHandler(s.simulationSvc, limits, s.log)
	simulationHandler.RegisterRoutes(s.router)

	// Runs module (persisted batches)
	runsHandler := runshandlers.NewHandler(s.runsSvc, runshandlers.Limits{
		MaxPathCount: s.cfg.MaxPathCount,
		MaxSteps:     s.cfg.MaxSteps,
	}, s.log)
	runsHandler.RegisterRoutes(s.router)

	// Analytics module
	analyticsHandler := analyticshandlers.NewHandler(s.analyticsSvc, s.log)
	analyticsHandler.RegisterRoutes(s.router)
}

// Router returns the underlying router, used by tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
