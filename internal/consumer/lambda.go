package consumer

import (
	"context"
	"log/slog"

	lambdaevents "github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-idempotent-catalogsync/internal/events"
)

// LambdaHandler processes SQS batches pushed by a Lambda event source mapping.
// Failed records are reported individually so only they are retried; the
// mapping must have ReportBatchItemFailures enabled.
type LambdaHandler struct {
	proc   Processor
	logger *slog.Logger
}

// NewLambdaHandler returns a handler applying records with proc.
func NewLambdaHandler(proc Processor, logger *slog.Logger) *LambdaHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LambdaHandler{proc: proc, logger: logger}
}

// HandleSQS is the Lambda entry point.
func (h *LambdaHandler) HandleSQS(ctx context.Context, ev lambdaevents.SQSEvent) (lambdaevents.SQSEventResponse, error) {
	h.logger.InfoContext(ctx, "received SQS batch", "records", len(ev.Records))
	var resp lambdaevents.SQSEventResponse
	for _, r := range ev.Records {
		evt, err := events.Decode([]byte(r.Body))
		if err == nil {
			_, err = h.proc.Process(ctx, evt)
		}
		if err != nil {
			h.logger.ErrorContext(ctx, "record failed", "message_id", r.MessageId, "err", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, lambdaevents.SQSBatchItemFailure{
				ItemIdentifier: r.MessageId,
			})
		}
	}
	return resp, nil
}
