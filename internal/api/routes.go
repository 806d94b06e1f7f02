package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brkops/painel-holmes/internal/config"
	"github.com/brkops/painel-holmes/internal/storage/sqlite"
	syncsvc "github.com/brkops/painel-holmes/internal/sync"
	"github.com/brkops/painel-holmes/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(records *sqlite.RecordStorage, syncService *syncsvc.Service, config *config.Config, logger *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(records, syncService, logger),
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Registro routes
		router.Get("/registros", r.handler.GetRegistros)
		router.Get("/export", r.handler.ExportRegistros)

		// Sync routes
		router.Post("/sync", r.handler.TriggerSync)
		router.Get("/sync", r.handler.GetSyncStatus)

		// Health check
		router.Get("/health", r.handler.GetHealth)
	})

	return router
}
