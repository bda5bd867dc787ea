package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"hostelfees/internal/backend"
	"hostelfees/internal/cli"
	apphttp "hostelfees/internal/http"
	"hostelfees/internal/log"
	"hostelfees/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp, os.Stdout)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	// The data source is built exactly once, before the listener opens.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data source", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	reports := services.NewReportService(result.Backend,
		services.WithSpreadsheetID(cfg.GoogleSpreadsheetID),
		services.WithLogger(logger))

	srv := apphttp.NewServer(apphttp.ServerConfig{
		Addr:              ":" + cfg.Port,
		AllowedOrigins:    cfg.AllowedOrigins,
		RequestsPerMinute: cfg.RateLimit,
		RequestTimeout:    cfg.RequestTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		Production:        cfg.IsProduction(),
	}, reports, result.CredentialsLoaded, logger)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting hostelfees server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"env", cfg.AppEnv,
			"credentials_loaded", result.CredentialsLoaded)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
			stop()
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	if err := cli.GracefulShutdown(ctx, logger, cli.ShutdownTimeout, srv.Shutdown); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err.Error())
	}
	logger.Info("Server stopped gracefully", "total_requests", srv.TotalRequests())
}
