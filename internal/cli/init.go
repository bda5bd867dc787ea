// Package cli provides the process bootstrap shared by cmd/hostelfees,
// cmd/hostelfees-mirror and cmd/hostelctl.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hostelfees/internal/config"
	"hostelfees/internal/log"
	"hostelfees/internal/storage"
)

// ShutdownTimeout bounds graceful shutdown of servers and workers.
const ShutdownTimeout = 30 * time.Second

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads the configuration and validates it.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds a component logger from the configured level and format.
func NewLogger(cfg *config.Config, component string, out io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: component,
		Output:    out,
	}), nil
}

// Bootstrap loads .env and the configuration, then installs a logger
// writing to out as the process default. It exits the process on failure.
func Bootstrap(component string, out io.Writer) (*config.Config, *log.Logger) {
	LoadEnvFile()
	fallback := log.New(log.Config{Component: component, Output: out})

	cfg, err := LoadConfig()
	if err != nil {
		fallback.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger, err := NewLogger(cfg, component, out)
	if err != nil {
		fallback.Error("Invalid log configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	log.SetDefault(logger)
	return cfg, logger
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err.Error(), "path", dbPath)
		os.Exit(1)
	}
	return repo
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// GracefulShutdown waits for ctx to be cancelled, then runs shutdown with
// a fresh context bounded by timeout.
func GracefulShutdown(ctx context.Context, logger *log.Logger, timeout time.Duration, shutdown func(context.Context) error) error {
	<-ctx.Done()
	logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if shutdown == nil {
		return nil
	}
	if err := shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("Shutdown timeout reached", log.FieldOperation, log.OpShutdown)
		}
		return err
	}
	logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
	return nil
}
