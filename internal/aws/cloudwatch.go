package aws

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

const (
	// maxMetricDataQueries is the maximum number of metric queries per GetMetricData call.
	maxMetricDataQueries = 500
	// metricPeriodSeconds is the aggregation period for CloudWatch metrics (1 day).
	metricPeriodSeconds = 86400
)

// CloudWatchAPI is the minimal interface for CloudWatch operations needed by the metrics fetcher.
type CloudWatchAPI interface {
	GetMetricData(ctx context.Context, input *cloudwatch.GetMetricDataInput, opts ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

// MetricsFetcher retrieves CloudWatch metric sums in batches.
type MetricsFetcher struct {
	client CloudWatchAPI
}

// NewMetricsFetcher creates a fetcher using the given CloudWatch client.
func NewMetricsFetcher(client CloudWatchAPI) *MetricsFetcher {
	return &MetricsFetcher{client: client}
}

// activityMetric names the CloudWatch series used as the activity signal of a kind.
type activityMetric struct {
	Namespace string
	Metric    string
	Dimension string
}

var (
	lambdaInvocations = activityMetric{"AWS/Lambda", "Invocations", "FunctionName"}
	sqsMessagesSent   = activityMetric{"AWS/SQS", "NumberOfMessagesSent", "QueueName"}
	kinesisIncoming   = activityMetric{"AWS/Kinesis", "IncomingRecords", "StreamName"}
	firehoseIncoming  = activityMetric{"AWS/Firehose", "IncomingRecords", "DeliveryStreamName"}
)

// FetchSum retrieves the sum of a metric for a set of resource IDs over a lookback period.
// Returns a map of resource ID to total sum. IDs without datapoints are absent.
func (f *MetricsFetcher) FetchSum(ctx context.Context, namespace, metricName, dimensionName string, ids []string, lookbackDays int) (map[string]float64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	startTime := now.Add(-time.Duration(lookbackDays) * 24 * time.Hour)

	results := make(map[string]float64, len(ids))
	batches := batchIDs(ids, maxMetricDataQueries)

	for batchIdx, batch := range batches {
		slog.Debug("Fetching CloudWatch metrics", "batch", batchIdx+1, "total_batches", len(batches), "metric", metricName, "count", len(batch))

		queries := make([]cwtypes.MetricDataQuery, 0, len(batch))
		for i, id := range batch {
			queries = append(queries, cwtypes.MetricDataQuery{
				Id: awssdk.String(fmt.Sprintf("m%d", i)),
				MetricStat: &cwtypes.MetricStat{
					Metric: &cwtypes.Metric{
						Namespace:  awssdk.String(namespace),
						MetricName: awssdk.String(metricName),
						Dimensions: []cwtypes.Dimension{
							{Name: awssdk.String(dimensionName), Value: awssdk.String(id)},
						},
					},
					Period: awssdk.Int32(metricPeriodSeconds),
					Stat:   awssdk.String("Sum"),
				},
			})
		}

		out, err := f.client.GetMetricData(ctx, &cloudwatch.GetMetricDataInput{
			MetricDataQueries: queries,
			StartTime:         awssdk.Time(startTime),
			EndTime:           awssdk.Time(now),
		})
		if err != nil {
			return nil, fmt.Errorf("get metric data (%s/%s): %w", namespace, metricName, err)
		}

		for _, result := range out.MetricDataResults {
			if result.Id == nil || len(result.Values) == 0 {
				continue
			}
			var idx int
			if _, err := fmt.Sscanf(*result.Id, "m%d", &idx); err != nil || idx >= len(batch) {
				continue
			}
			var total float64
			for _, v := range result.Values {
				total += v
			}
			results[batch[idx]] += total
		}
	}

	return results, nil
}

// Activity returns per-id sums of m, or nil when activity is disabled or the
// metrics cannot be read. A metrics failure never fails the collector.
func (f *MetricsFetcher) Activity(ctx context.Context, m activityMetric, ids []string, days int) map[string]float64 {
	if f == nil || days <= 0 || len(ids) == 0 {
		return nil
	}
	sums, err := f.FetchSum(ctx, m.Namespace, m.Metric, m.Dimension, ids, days)
	if err != nil {
		slog.Warn("Activity metrics unavailable", "metric", m.Metric, "error", err)
		return nil
	}
	if sums == nil {
		sums = map[string]float64{}
	}
	return sums
}

// activityAttr renders the sum for id. ok is false when activity was not fetched.
func activityAttr(m activityMetric, days int, sums map[string]float64, id string) (inventory.Attr, bool) {
	if sums == nil {
		return inventory.Attr{}, false
	}
	return inventory.Attr{
		Key:   fmt.Sprintf("%s (%dd)", m.Metric, days),
		Value: strconv.FormatFloat(sums[id], 'f', -1, 64),
	}, true
}

// batchIDs splits a slice of IDs into batches of the given size.
func batchIDs(ids []string, batchSize int) [][]string {
	if batchSize <= 0 {
		batchSize = maxMetricDataQueries
	}

	var batches [][]string
	for i := 0; i < len(ids); i += batchSize {
		end := i + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[i:end])
	}
	return batches
}
