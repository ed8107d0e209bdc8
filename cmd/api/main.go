package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/app"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/aws"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/config"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/logging"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

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

	shutdownTracing, err := telemetry.Setup(ctx, "catalogsync-api", cfg.OTelEndpoint)
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
	r := a.Router()

	if !cfg.RunLocal {
		adapter := ginadapter.New(r)
		lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			return adapter.ProxyWithContext(ctx, req)
		})
		return
	}

	// Long-running mode: serve HTTP and, unless the broker is disabled, consume
	// queues in the same process.
	var wg sync.WaitGroup
	if cfg.BrokerMode != config.BrokerNone {
		sources, closer, err := a.Sources()
		if err != nil {
			logger.Error("failed to build consumers", "err", err)
			os.Exit(1)
		}
		defer closer.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Supervisor(sources).Run(ctx)
		}()
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr, "broker", cfg.BrokerMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	wg.Wait()
}
