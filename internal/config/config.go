package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Broker modes.
const (
	BrokerNone  = "none"
	BrokerSQS   = "sqs"
	BrokerKafka = "kafka"
)

// Config is the process configuration, read from the environment.
type Config struct {
	BrokerMode string `env:"BROKER_MODE" envDefault:"none"`

	SQSQueueURLs   []string      `env:"SQS_QUEUE_URLS" envSeparator:","`
	SQSQueueURL    string        `env:"SQS_QUEUE_URL"`
	SQSMaxMessages int           `env:"SQS_MAX_MESSAGES" envDefault:"10"`
	SQSWaitSeconds int           `env:"SQS_WAIT_SECONDS" envDefault:"20"`
	Backoff        time.Duration `env:"CONSUMER_BACKOFF" envDefault:"3s"`

	KafkaBrokers     []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaTopics      []string      `env:"KAFKA_TOPICS" envSeparator:","`
	KafkaGroupID     string        `env:"KAFKA_GROUP_ID" envDefault:"catalogsync"`
	KafkaMaxMessages int           `env:"KAFKA_MAX_MESSAGES" envDefault:"10"`
	KafkaWait        time.Duration `env:"KAFKA_WAIT" envDefault:"20s"`

	TablePrefix  string `env:"DYNAMO_TABLE_PREFIX" envDefault:"retail_poc_"`
	CreateTables bool   `env:"DYNAMO_CREATE_TABLES"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	RunLocal bool   `env:"RUN_LOCAL"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	CloudWatchMetrics bool   `env:"CLOUDWATCH_METRICS"`
	MetricsNamespace  string `env:"METRICS_NAMESPACE" envDefault:"CatalogSync"`
	OTelEndpoint      string `env:"OTEL_ENDPOINT"`
}

// Load parses the environment and validates the broker settings.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.BrokerMode = strings.ToLower(strings.TrimSpace(cfg.BrokerMode))
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that the selected broker has at least one queue.
func (c Config) Validate() error {
	switch c.BrokerMode {
	case BrokerNone:
	case BrokerSQS:
		if len(c.QueueURLs()) == 0 {
			return fmt.Errorf("BROKER_MODE=sqs requires SQS_QUEUE_URLS or SQS_QUEUE_URL")
		}
	case BrokerKafka:
		if len(clean(c.KafkaTopics)) == 0 {
			return fmt.Errorf("BROKER_MODE=kafka requires KAFKA_TOPICS")
		}
	default:
		return fmt.Errorf("unknown BROKER_MODE %q", c.BrokerMode)
	}
	return nil
}

// QueueURLs returns SQS_QUEUE_URLS when set, otherwise the single SQS_QUEUE_URL.
func (c Config) QueueURLs() []string {
	if urls := clean(c.SQSQueueURLs); len(urls) > 0 {
		return urls
	}
	return clean([]string{c.SQSQueueURL})
}

// Topics returns the configured Kafka topics.
func (c Config) Topics() []string { return clean(c.KafkaTopics) }

// Table names derived from the prefix.
func (c Config) UsersTable() string         { return c.TablePrefix + "users" }
func (c Config) ProductsTable() string      { return c.TablePrefix + "products" }
func (c Config) AppliedEventsTable() string { return c.TablePrefix + "applied_events" }

func clean(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
