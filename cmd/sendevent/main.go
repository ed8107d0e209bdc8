// Command sendevent publishes one event to an SQS queue, for driving a local
// consumer by hand.
//
//	sendevent -queue $SQS_QUEUE_URL -id e1 -type user.created -data '{"user_id":"u1"}'
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/aws"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/events"
)

func main() {
	queue := flag.String("queue", os.Getenv("SQS_QUEUE_URL"), "queue URL")
	id := flag.String("id", "", "event id (random when empty)")
	typ := flag.String("type", "", "event type")
	data := flag.String("data", "{}", "event data as a JSON object")
	source := flag.String("source", "sendevent", "event source")
	wrap := flag.Bool("sns", false, "wrap the event as an SNS notification")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *queue == "" {
		logger.Error("missing -queue")
		os.Exit(2)
	}

	evt := events.Event{
		EventID:    *id,
		Type:       *typ,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
		Source:     *source,
	}
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if err := json.Unmarshal([]byte(*data), &evt.Data); err != nil {
		logger.Error("invalid -data", "err", err)
		os.Exit(2)
	}

	ctx := context.Background()
	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		logger.Error("failed to init aws clients", "err", err)
		os.Exit(1)
	}
	msgID, err := aws.NewPublisher(clients.SQS, *queue).Publish(ctx, evt, *wrap)
	if err != nil {
		logger.Error("publish failed", "err", err)
		os.Exit(1)
	}
	logger.Info("published", "event_id", evt.EventID, "message_id", msgID)
}
