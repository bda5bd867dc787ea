package commands

import (
	"context"
	"errors"

	"hostelfees/internal/amqp"
	"hostelfees/internal/backend"
	"hostelfees/internal/config"
	"hostelfees/internal/log"
	"hostelfees/internal/services"
	gsheet "hostelfees/internal/sheets/google"
	"hostelfees/internal/storage"
	"hostelfees/internal/worker"
)

// DefaultDependencies opens the real backends described by cfg.
func DefaultDependencies(cfg *config.Config, logger *log.Logger) Dependencies {
	logger = logger.WithComponent(log.ComponentCLI)

	return Dependencies{
		Reports: func(ctx context.Context) (Reports, func() error, error) {
			backendCfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return nil, nil, err
			}
			result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
			if err != nil {
				return nil, nil, err
			}
			svc := services.NewReportService(result.Backend,
				services.WithSpreadsheetID(cfg.GoogleSpreadsheetID),
				services.WithLogger(logger))
			return svc, result.Close, nil
		},
		Mirror: func(ctx context.Context) (Mirrorer, func() error, error) {
			source, err := gsheet.New(ctx, gsheet.Options{
				SpreadsheetID:   cfg.GoogleSpreadsheetID,
				CredentialsJSON: cfg.GoogleCredentialsJSON,
				CredentialsFile: cfg.GoogleCredentialsFile,
			})
			if err != nil {
				return nil, nil, err
			}
			repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
			if err != nil {
				return nil, nil, err
			}
			return worker.NewMirrorWorker(source, repo, cfg.MirrorConcurrency), repo.Close, nil
		},
		Status: func(context.Context) (MirrorStatus, func() error, error) {
			repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
			if err != nil {
				return nil, nil, err
			}
			return repo, repo.Close, nil
		},
		Publisher: func(context.Context) (Publisher, func() error, error) {
			if cfg.AMQPURL == "" {
				return nil, nil, errors.New("AMQP is not configured: set AMQP_URL")
			}
			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				return nil, nil, err
			}
			return client, client.Close, nil
		},
	}
}
