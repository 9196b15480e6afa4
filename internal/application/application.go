package application

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/sut-config/internal/api"
	"github.com/eugenenazirov/sut-config/internal/config"
	"github.com/eugenenazirov/sut-config/internal/configstore"
	"github.com/eugenenazirov/sut-config/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	store  *configstore.Store
	logger *zap.Logger
	server *http.Server
}

// NewStore builds a filesystem-backed ConfigStore from the provided configuration.
func NewStore(cfg config.Config, logger *zap.Logger) *configstore.Store {
	return configstore.New(cfg.Paths(),
		configstore.WithStorage(storage.NewFileStorage()),
		configstore.WithLogger(logger),
		configstore.WithPlatformEnv(cfg.PlatformEnv),
		configstore.WithCacheTTL(cfg.CacheTTL),
	)
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if cfg.DefaultPath == "" {
		return nil, errors.New("default configuration path is required")
	}

	store := NewStore(cfg, logger)
	handler := api.NewHandler(store)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		store:  store,
		logger: logger,
		server: NewServer(cfg, apiRouter),
	}, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	a.logger.Info("serving SUT configuration",
		zap.String("path", a.store.ResolvePath()),
	)
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
