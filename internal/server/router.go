package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"havenpanel/paneld/internal/apps"
	"havenpanel/paneld/internal/auth"
	"havenpanel/paneld/internal/config"
	"havenpanel/paneld/internal/fsbox"
	"havenpanel/paneld/internal/metrics"
	"havenpanel/paneld/internal/sessions"
	"havenpanel/paneld/pkg/httpx"
)

func Logger(cfg config.Config) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	logger := log.Logger.Level(cfg.LogLevel).With().Timestamp().Logger()
	return &logger
}

// handlers bundles the wired components behind the HTTP surface.
type handlers struct {
	cfg       config.Config
	logger    *zerolog.Logger
	authn     *auth.Manager
	files     *fsbox.Manager
	provider  *metrics.Provider
	installed *apps.InstalledStore
	startedAt time.Time
}

// NewRouter wires every component and returns the gateway handler.
func NewRouter(cfg config.Config) (http.Handler, error) {
	logger := Logger(cfg)

	store := sessions.NewMemoryStore()
	authn := auth.NewManager(auth.LoadRegistry(cfg.UsersPath, *logger), store, cfg.SessionTTL, *logger)

	// lazy expiry on authenticate is authoritative; the sweep just bounds
	// store growth from abandoned logins
	sweeper := cron.New()
	_, _ = sweeper.AddFunc("@every 10m", func() {
		if n := store.Sweep(time.Now()); n > 0 {
			logger.Debug().Int("removed", n).Msg("session sweep")
		}
	})
	sweeper.Start()

	box, err := fsbox.NewSandbox(cfg.FilesRoot)
	if err != nil {
		return nil, err
	}
	files := fsbox.NewManager(box, cfg.MaxUploadBytes, *logger)

	provider := metrics.NewProvider(metrics.GopsutilStats{}, *logger)
	broadcaster := metrics.NewBroadcaster(provider, cfg.BroadcastInterval, *logger)

	h := &handlers{
		cfg:       cfg,
		logger:    logger,
		authn:     authn,
		files:     files,
		provider:  provider,
		installed: apps.NewInstalledStore(cfg.AppsPath),
		startedAt: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(recoverJSON(logger))
	r.Use(middleware.RealIP)
	r.Use(zerologMiddleware(logger))
	r.Use(promMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, map[string]any{"ok": true, "version": "0.1.0"})
	})
	r.Handle("/metrics", promHandler())

	r.Post("/api/auth/login", h.handleLogin)
	r.Handle("/ws", broadcaster)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAuth)

		pr.Post("/api/auth/logout", h.handleLogout)
		pr.Get("/api/status", h.handleStatus)

		pr.Get("/api/files", h.handleListFiles)
		pr.Post("/api/files/upload", h.handleUpload)
		pr.Get("/api/files/download", h.handleDownload)
		pr.Post("/api/files/mkdir", h.handleMkdir)
		pr.Delete("/api/files/delete", h.handleDelete)

		pr.Get("/api/apps/catalog", h.handleAppsCatalog)
		pr.Get("/api/apps/installed", h.handleAppsInstalled)
		pr.Post("/api/apps/install", h.handleAppsInstall)
	})

	return r, nil
}
