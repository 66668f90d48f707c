package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// SQSAPI is the minimal interface for SQS operations.
type SQSAPI interface {
	ListQueues(ctx context.Context, input *sqs.ListQueuesInput, opts ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error)
	GetQueueAttributes(ctx context.Context, input *sqs.GetQueueAttributesInput, opts ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
	ListQueueTags(ctx context.Context, input *sqs.ListQueueTagsInput, opts ...func(*sqs.Options)) (*sqs.ListQueueTagsOutput, error)
}

// SQSCollector lists queues. A redrive policy becomes a link to the
// dead-letter queue.
type SQSCollector struct {
	client  SQSAPI
	metrics *MetricsFetcher
	region  string
}

// NewSQSCollector creates a collector for SQS queues.
func NewSQSCollector(client SQSAPI, metrics *MetricsFetcher, region string) *SQSCollector {
	return &SQSCollector{client: client, metrics: metrics, region: region}
}

// Name returns the collector name.
func (c *SQSCollector) Name() string { return "sqs" }

// Kinds returns the kinds this collector produces.
func (c *SQSCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindSQSQueues}
}

// Collect lists every queue with its attributes and tags.
func (c *SQSCollector) Collect(ctx context.Context, cfg ScanConfig) (*Collection, error) {
	queueURLs, err := c.listQueues(ctx)
	if err != nil {
		return &Collection{Results: []inventory.Result{
			resultFor(c.region, inventory.KindSQSQueues, nil, fmt.Errorf("list SQS queues: %w", err)),
		}}, nil
	}

	names := make([]string, 0, len(queueURLs))
	for _, url := range queueURLs {
		names = append(names, queueNameFromURL(url))
	}
	sent := c.metrics.Activity(ctx, sqsMessagesSent, names, cfg.ActivityDays)

	records := make([]inventory.Record, 0, len(queueURLs))
	for _, url := range queueURLs {
		name := queueNameFromURL(url)
		attrs, err := c.queueAttributes(ctx, url)
		if err != nil {
			slog.Warn("Failed to get SQS queue attributes", "queue", name, "error", err)
		}

		id := attrs["QueueArn"]
		if id == "" {
			id = url
		}
		r := newRecord(inventory.KindSQSQueues, id, name, c.region, c.tags(ctx, url))

		var a attrList
		a.add("URL", url)
		a.add("Messages", attrs["ApproximateNumberOfMessages"])
		a.add("Visibility Timeout", attrs["VisibilityTimeout"])
		if attrs["FifoQueue"] == "true" {
			a.add("FIFO", "true")
		}
		if dlq := parseDLQArn(attrs["RedrivePolicy"]); dlq != "" {
			dlqName := arnResource(dlq)
			a.add("Dead-letter Queue", dlqName)
			r.Links = append(r.Links, inventory.Link{Kind: inventory.KindSQSQueues, Name: dlqName, Label: "dead-letter"})
		}
		if attr, ok := activityAttr(sqsMessagesSent, cfg.ActivityDays, sent, name); ok {
			a = append(a, attr)
		}
		r.Attrs = a
		records = append(records, r)
	}

	return &Collection{Results: []inventory.Result{
		resultFor(c.region, inventory.KindSQSQueues, records, nil),
	}}, nil
}

func (c *SQSCollector) listQueues(ctx context.Context) ([]string, error) {
	var urls []string
	paginator := sqs.NewListQueuesPaginator(c.client, &sqs.ListQueuesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		urls = append(urls, page.QueueUrls...)
	}
	return urls, nil
}

func (c *SQSCollector) queueAttributes(ctx context.Context, queueURL string) (map[string]string, error) {
	out, err := c.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl: &queueURL,
		AttributeNames: []sqstypes.QueueAttributeName{
			sqstypes.QueueAttributeNameQueueArn,
			sqstypes.QueueAttributeNameApproximateNumberOfMessages,
			sqstypes.QueueAttributeNameVisibilityTimeout,
			sqstypes.QueueAttributeNameRedrivePolicy,
			sqstypes.QueueAttributeNameFifoQueue,
		},
	})
	if err != nil {
		return nil, err
	}
	return out.Attributes, nil
}

func (c *SQSCollector) tags(ctx context.Context, queueURL string) inventory.TagSet {
	out, err := c.client.ListQueueTags(ctx, &sqs.ListQueueTagsInput{QueueUrl: &queueURL})
	if err != nil {
		slog.Debug("Failed to list queue tags", "queue", queueURL, "error", err)
		return nil
	}
	return inventory.Map(out.Tags)
}

// queueNameFromURL extracts the queue name from an SQS queue URL.
// e.g., "https://sqs.us-east-1.amazonaws.com/123456789012/my-queue" -> "my-queue"
func queueNameFromURL(url string) string {
	parts := strings.Split(url, "/")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return url
}

// parseDLQArn extracts deadLetterTargetArn from a RedrivePolicy JSON string.
func parseDLQArn(redrivePolicy string) string {
	if redrivePolicy == "" {
		return ""
	}
	var policy struct {
		DeadLetterTargetArn string `json:"deadLetterTargetArn"`
	}
	if err := json.Unmarshal([]byte(redrivePolicy), &policy); err != nil {
		return ""
	}
	return policy.DeadLetterTargetArn
}
