package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"hostelfees/internal/amqp"
	"hostelfees/internal/cli"
	"hostelfees/internal/log"
	gsheet "hostelfees/internal/sheets/google"
	"hostelfees/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker, os.Stdout)
	logger.Info("Starting hostelfees-mirror",
		"interval", cfg.MirrorInterval.String(),
		"concurrency", cfg.MirrorConcurrency,
		"db", cfg.SQLiteDBPath)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	source, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
		os.Exit(1)
	}

	mirror := worker.NewMirrorWorker(source, repo, cfg.MirrorConcurrency)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mirror.Run(ctx, cfg.MirrorInterval)
	})

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
			os.Exit(1)
		}
		defer client.Close()

		g.Go(func() error {
			return client.ConsumeMirrorRequests(ctx, mirror.HandleMirrorRequest)
		})
		logger.Info("Consuming mirror requests", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, running on schedule only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Mirror worker stopped", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
