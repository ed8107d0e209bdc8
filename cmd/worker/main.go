package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/app"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/aws"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/config"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/consumer"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/logging"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.RunLocal)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "catalogsync-worker", cfg.OTelEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", "err", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		logger.Error("failed to init aws clients", "err", err)
		os.Exit(1)
	}
	a, err := app.New(ctx, cfg, clients, logger)
	if err != nil {
		logger.Error("failed to init app", "err", err)
		os.Exit(1)
	}

	// Lambda: SQS invokes us with batches and redrives the reported failures.
	if !cfg.RunLocal {
		lambda.Start(consumer.NewLambdaHandler(a.Processor, logger).HandleSQS)
		return
	}

	sources, closer, err := a.Sources()
	if err != nil {
		logger.Error("failed to build consumers", "err", err)
		os.Exit(1)
	}
	defer closer.Close()
	if len(sources) == 0 {
		logger.Error("RUN_LOCAL worker needs BROKER_MODE=sqs or kafka")
		os.Exit(1)
	}

	a.Supervisor(sources).Run(ctx)
}
