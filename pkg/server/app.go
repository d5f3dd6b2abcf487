package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CandlePull/internal/export"
	"CandlePull/internal/handler/api"
	"CandlePull/internal/service/binance"
	"CandlePull/internal/usecase"
	"CandlePull/pkg/config"
	xhttp "CandlePull/pkg/http"
	applogger "CandlePull/pkg/logger"
	"CandlePull/pkg/metrics"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
}

// New wires all dependencies and creates an App instance.
func New(cfg *config.Config) (*App, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, err
	}

	rec := metrics.New()

	client := binance.New(binance.Config{
		BaseURL:        cfg.Binance.BaseURL,
		Timeout:        cfg.Binance.Timeout,
		MaxRetries:     cfg.Binance.MaxRetries,
		RetryDelay:     cfg.Binance.RetryDelay,
		MaxLimit:       cfg.Binance.MaxLimit,
		RequestsPerSec: cfg.Binance.RequestsPerSec,
	},
		binance.WithLogger(l),
		binance.WithMetrics(rec),
	)

	uc := usecase.NewCandlesUseCase(client, cfg.Binance.Symbol, cfg.Binance.Interval, cfg.Binance.DefaultLimit)
	uc.SetMetrics(rec)

	exporter := export.NewWriter(cfg.Export.Dir)

	handler := api.NewCandlesHandler(l, uc, exporter, cfg.Binance.Symbol, cfg.Binance.Interval)

	origins := cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	httpServer := xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(origins),
		xhttp.WithLogger(l),
	)

	return &App{
		cfg:        cfg,
		logger:     l,
		httpServer: httpServer,
	}, nil
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("service started",
		applogger.String("symbol", a.cfg.Binance.Symbol),
		applogger.String("interval", a.cfg.Binance.Interval),
		applogger.Int("port", a.cfg.Server.Port),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops the HTTP server.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.logger.Info("shutdown complete")
	return nil
}
