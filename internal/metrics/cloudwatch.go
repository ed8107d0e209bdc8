package metrics

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/aws"
)

// BatchStats summarises one pull from a queue.
type BatchStats struct {
	Received int
	Applied  int
	Skipped  int // duplicates and unknown kinds
	Failed   int // left unacknowledged
}

// CloudWatchReporter publishes per-batch consumer metrics, one dimension per queue.
type CloudWatchReporter struct {
	client    aws.CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewCloudWatchReporter returns a reporter writing to namespace.
func NewCloudWatchReporter(client aws.CloudWatchAPI, namespace string) *CloudWatchReporter {
	return &CloudWatchReporter{client: client, namespace: namespace, nowFunc: time.Now}
}

// Report sends the batch counters. Empty batches are not reported.
func (c *CloudWatchReporter) Report(ctx context.Context, queue string, st BatchStats) error {
	if st.Received == 0 {
		return nil
	}
	now := c.nowFunc()
	dims := []cwtypes.Dimension{{Name: sdkaws.String("Queue"), Value: sdkaws.String(queue)}}
	datum := func(name string, v int) cwtypes.MetricDatum {
		return cwtypes.MetricDatum{
			MetricName: sdkaws.String(name),
			Dimensions: dims,
			Timestamp:  &now,
			Unit:       cwtypes.StandardUnitCount,
			Value:      sdkaws.Float64(float64(v)),
		}
	}

	_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &c.namespace,
		MetricData: []cwtypes.MetricDatum{
			datum("MessagesReceived", st.Received),
			datum("EventsApplied", st.Applied),
			datum("EventsSkipped", st.Skipped),
			datum("MessagesFailed", st.Failed),
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
