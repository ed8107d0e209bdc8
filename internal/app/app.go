// Package app wires configuration, AWS clients and the core components into
// the objects the binaries run.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/aws"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/catalog"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/config"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/consumer"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/handlers"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/idempotency"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/metrics"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/processor"
)

// App holds the process-wide dependencies. It is built once at startup and
// passed down; nothing here is global.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Clients   *aws.AWSClients
	Metrics   *metrics.Registry
	Catalog   *catalog.Store
	Processor *processor.Processor
}

// New builds the stores and the processor on top of clients. When
// DYNAMO_CREATE_TABLES is set, missing tables are created first.
func New(ctx context.Context, cfg config.Config, clients *aws.AWSClients, logger *slog.Logger) (*App, error) {
	if cfg.CreateTables {
		created, err := aws.EnsureTables(ctx, clients.DynamoDBAdmin,
			aws.TableSpec{Name: cfg.UsersTable(), HashKey: catalog.UserKey},
			aws.TableSpec{Name: cfg.ProductsTable(), HashKey: catalog.ProductKey},
			aws.TableSpec{Name: cfg.AppliedEventsTable(), HashKey: idempotency.KeyAttribute},
		)
		if err != nil {
			return nil, fmt.Errorf("ensure tables: %w", err)
		}
		if len(created) > 0 {
			logger.Info("created tables", "tables", created)
		}
	}

	reg := metrics.NewRegistry()
	store := catalog.NewStore(clients.DynamoDB, cfg.UsersTable(), cfg.ProductsTable())
	proc := processor.New(
		idempotency.NewStore(clients.DynamoDB, cfg.AppliedEventsTable()),
		store,
		processor.WithLogger(logger),
		processor.WithMetrics(reg),
	)
	return &App{
		Config:    cfg,
		Logger:    logger,
		Clients:   clients,
		Metrics:   reg,
		Catalog:   store,
		Processor: proc,
	}, nil
}

// Router returns the HTTP API: health, metrics, catalog reads and the
// simulate endpoint.
func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestLogger(a.Logger))
	handlers.RegisterHealthRoutes(r, a.Config.BrokerMode, a.Metrics.Handler())
	handlers.RegisterCatalogRoutes(r, a.Catalog)
	handlers.RegisterEventRoutes(r, a.Processor)
	return r
}

// Sources returns one source per configured queue or topic. The returned
// closer releases broker connections and is never nil.
func (a *App) Sources() ([]consumer.Source, io.Closer, error) {
	cfg := a.Config
	switch cfg.BrokerMode {
	case config.BrokerNone:
		return nil, closers(nil), nil
	case config.BrokerSQS:
		var out []consumer.Source
		for _, url := range cfg.QueueURLs() {
			out = append(out, consumer.NewSQSSource(a.Clients.SQS, url, cfg.SQSMaxMessages, cfg.SQSWaitSeconds))
		}
		return out, closers(nil), nil
	case config.BrokerKafka:
		var (
			out []consumer.Source
			cs  closers
		)
		for _, topic := range cfg.Topics() {
			src := consumer.NewKafkaSource(cfg.KafkaBrokers, cfg.KafkaGroupID, topic, cfg.KafkaMaxMessages, cfg.KafkaWait)
			out = append(out, src)
			cs = append(cs, src)
		}
		return out, cs, nil
	default:
		return nil, closers(nil), fmt.Errorf("unknown broker mode %q", cfg.BrokerMode)
	}
}

// Supervisor builds a supervisor over sources with the configured backoff,
// metrics and, when enabled, CloudWatch batch reporting.
func (a *App) Supervisor(sources []consumer.Source) *consumer.Supervisor {
	opts := []consumer.Option{
		consumer.WithBackoff(a.Config.Backoff),
		consumer.WithMetrics(a.Metrics),
	}
	if a.Config.CloudWatchMetrics {
		opts = append(opts, consumer.WithReporter(metrics.NewCloudWatchReporter(a.Clients.CloudWatch, a.Config.MetricsNamespace)))
	}
	return consumer.NewSupervisor(sources, a.Processor, a.Logger, opts...)
}

type closers []io.Closer

func (cs closers) Close() error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
