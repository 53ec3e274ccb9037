package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "TradePilot/internal/domain/repository"
	ws "TradePilot/internal/websocket"
	"TradePilot/pkg/config"
	xhttp "TradePilot/pkg/http"
	applogger "TradePilot/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	hub        *ws.Hub
	snapshots  ws.Snapshots
	publisher  domrepo.EventPublisher
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. publisher may be nil
// when no broker is configured.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	hub *ws.Hub,
	snapshots ws.Snapshots,
	publisher domrepo.EventPublisher,
) *App {
	return &App{
		cfg:       cfg,
		logger:    logger,
		handler:   handler,
		hub:       hub,
		snapshots: snapshots,
		publisher: publisher,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		path := a.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		opts = append(opts, xhttp.WithMetricsPath(path))
	}
	a.httpServer = xhttp.NewServer(a.handler, opts...)

	// Dashboard websocket: hub loop plus the periodic snapshot pusher.
	a.httpServer.Echo().GET("/ws", a.hub.ServeEcho)
	go a.hub.Run(ctx)
	go a.hub.PushSnapshots(ctx, a.snapshots, a.cfg.Dashboard.SnapshotInterval)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("env", a.cfg.Environment),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("publisher close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
