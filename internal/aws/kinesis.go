package aws

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/firehose"
	firehosetypes "github.com/aws/aws-sdk-go-v2/service/firehose/types"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	kinesistypes "github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// KinesisAPI is the minimal interface for Kinesis operations.
type KinesisAPI interface {
	ListStreams(ctx context.Context, input *kinesis.ListStreamsInput, opts ...func(*kinesis.Options)) (*kinesis.ListStreamsOutput, error)
	DescribeStreamSummary(ctx context.Context, input *kinesis.DescribeStreamSummaryInput, opts ...func(*kinesis.Options)) (*kinesis.DescribeStreamSummaryOutput, error)
	ListTagsForStream(ctx context.Context, input *kinesis.ListTagsForStreamInput, opts ...func(*kinesis.Options)) (*kinesis.ListTagsForStreamOutput, error)
}

// KinesisCollector lists Kinesis data streams.
type KinesisCollector struct {
	client  KinesisAPI
	metrics *MetricsFetcher
	region  string
}

// NewKinesisCollector creates a collector for Kinesis data streams.
func NewKinesisCollector(client KinesisAPI, metrics *MetricsFetcher, region string) *KinesisCollector {
	return &KinesisCollector{client: client, metrics: metrics, region: region}
}

// Name returns the collector name.
func (c *KinesisCollector) Name() string { return "kinesis" }

// Kinds returns the kinds this collector produces.
func (c *KinesisCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindKinesisStreams}
}

// Collect lists every stream with its capacity mode and shard count.
func (c *KinesisCollector) Collect(ctx context.Context, cfg ScanConfig) (*Collection, error) {
	names, err := c.listStreams(ctx)
	if err != nil {
		return &Collection{Results: []inventory.Result{
			resultFor(c.region, inventory.KindKinesisStreams, nil, fmt.Errorf("list Kinesis streams: %w", err)),
		}}, nil
	}
	incoming := c.metrics.Activity(ctx, kinesisIncoming, names, cfg.ActivityDays)

	records := make([]inventory.Record, 0, len(names))
	for _, name := range names {
		out, err := c.client.DescribeStreamSummary(ctx, &kinesis.DescribeStreamSummaryInput{StreamName: &name})
		if err != nil || out.StreamDescriptionSummary == nil {
			slog.Warn("Failed to describe Kinesis stream", "stream", name, "region", c.region, "error", err)
			continue
		}
		summary := out.StreamDescriptionSummary
		r := newRecord(inventory.KindKinesisStreams, deref(summary.StreamARN), name, c.region, c.tags(ctx, name))

		mode := string(kinesistypes.StreamModeProvisioned)
		if summary.StreamModeDetails != nil {
			mode = string(summary.StreamModeDetails.StreamMode)
		}
		var a attrList
		a.add("Status", string(summary.StreamStatus))
		a.add("Mode", mode)
		a.addInt("Open Shards", summary.OpenShardCount)
		a.addInt("Retention Hours", summary.RetentionPeriodHours)
		if attr, ok := activityAttr(kinesisIncoming, cfg.ActivityDays, incoming, name); ok {
			a = append(a, attr)
		}
		r.Attrs = a
		records = append(records, r)
	}

	return &Collection{Results: []inventory.Result{
		resultFor(c.region, inventory.KindKinesisStreams, records, nil),
	}}, nil
}

func (c *KinesisCollector) listStreams(ctx context.Context) ([]string, error) {
	var names []string
	paginator := kinesis.NewListStreamsPaginator(c.client, &kinesis.ListStreamsInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		names = append(names, page.StreamNames...)
	}
	return names, nil
}

func (c *KinesisCollector) tags(ctx context.Context, name string) inventory.TagSet {
	out, err := c.client.ListTagsForStream(ctx, &kinesis.ListTagsForStreamInput{StreamName: &name})
	if err != nil {
		slog.Debug("Failed to list stream tags", "stream", name, "error", err)
		return nil
	}
	pairs := make(inventory.Pairs, 0, len(out.Tags))
	for _, t := range out.Tags {
		pairs = append(pairs, inventory.Tag{Key: deref(t.Key), Value: deref(t.Value)})
	}
	return pairs
}

// FirehoseAPI is the minimal interface for Firehose operations.
type FirehoseAPI interface {
	ListDeliveryStreams(ctx context.Context, input *firehose.ListDeliveryStreamsInput, opts ...func(*firehose.Options)) (*firehose.ListDeliveryStreamsOutput, error)
	DescribeDeliveryStream(ctx context.Context, input *firehose.DescribeDeliveryStreamInput, opts ...func(*firehose.Options)) (*firehose.DescribeDeliveryStreamOutput, error)
	ListTagsForDeliveryStream(ctx context.Context, input *firehose.ListTagsForDeliveryStreamInput, opts ...func(*firehose.Options)) (*firehose.ListTagsForDeliveryStreamOutput, error)
}

// FirehoseCollector lists delivery streams. S3 destinations become links to
// the bucket.
type FirehoseCollector struct {
	client  FirehoseAPI
	metrics *MetricsFetcher
	region  string
}

// NewFirehoseCollector creates a collector for Firehose delivery streams.
func NewFirehoseCollector(client FirehoseAPI, metrics *MetricsFetcher, region string) *FirehoseCollector {
	return &FirehoseCollector{client: client, metrics: metrics, region: region}
}

// Name returns the collector name.
func (c *FirehoseCollector) Name() string { return "firehose" }

// Kinds returns the kinds this collector produces.
func (c *FirehoseCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindFirehoseStreams}
}

// Collect lists and describes every delivery stream.
func (c *FirehoseCollector) Collect(ctx context.Context, cfg ScanConfig) (*Collection, error) {
	names, err := c.listDeliveryStreams(ctx)
	if err != nil {
		return &Collection{Results: []inventory.Result{
			resultFor(c.region, inventory.KindFirehoseStreams, nil, fmt.Errorf("list Firehose delivery streams: %w", err)),
		}}, nil
	}
	incoming := c.metrics.Activity(ctx, firehoseIncoming, names, cfg.ActivityDays)

	records := make([]inventory.Record, 0, len(names))
	for _, name := range names {
		out, err := c.client.DescribeDeliveryStream(ctx, &firehose.DescribeDeliveryStreamInput{DeliveryStreamName: &name})
		if err != nil || out.DeliveryStreamDescription == nil {
			slog.Warn("Failed to describe delivery stream", "stream", name, "region", c.region, "error", err)
			continue
		}
		d := out.DeliveryStreamDescription
		r := newRecord(inventory.KindFirehoseStreams, deref(d.DeliveryStreamARN), name, c.region, c.tags(ctx, name))

		var a attrList
		a.add("Status", string(d.DeliveryStreamStatus))
		a.add("Type", string(d.DeliveryStreamType))
		if src := d.Source; src != nil && src.KinesisStreamSourceDescription != nil {
			a.add("Source Stream", streamNameFromARN(deref(src.KinesisStreamSourceDescription.KinesisStreamARN)))
		}
		buckets := destinationBuckets(d.Destinations)
		a.add("Destination", strings.Join(buckets, ", "))
		if attr, ok := activityAttr(firehoseIncoming, cfg.ActivityDays, incoming, name); ok {
			a = append(a, attr)
		}
		r.Attrs = a

		for _, b := range buckets {
			r.Links = append(r.Links, inventory.Link{Kind: inventory.KindS3Buckets, Name: b})
		}
		records = append(records, r)
	}

	return &Collection{Results: []inventory.Result{
		resultFor(c.region, inventory.KindFirehoseStreams, records, nil),
	}}, nil
}

func (c *FirehoseCollector) listDeliveryStreams(ctx context.Context) ([]string, error) {
	var names []string
	var startName *string

	for {
		out, err := c.client.ListDeliveryStreams(ctx, &firehose.ListDeliveryStreamsInput{
			ExclusiveStartDeliveryStreamName: startName,
		})
		if err != nil {
			return nil, err
		}
		names = append(names, out.DeliveryStreamNames...)

		if out.HasMoreDeliveryStreams == nil || !*out.HasMoreDeliveryStreams || len(out.DeliveryStreamNames) == 0 {
			break
		}
		last := out.DeliveryStreamNames[len(out.DeliveryStreamNames)-1]
		startName = &last
	}
	return names, nil
}

func (c *FirehoseCollector) tags(ctx context.Context, name string) inventory.TagSet {
	out, err := c.client.ListTagsForDeliveryStream(ctx, &firehose.ListTagsForDeliveryStreamInput{DeliveryStreamName: &name})
	if err != nil {
		slog.Debug("Failed to list delivery stream tags", "stream", name, "error", err)
		return nil
	}
	pairs := make(inventory.Pairs, 0, len(out.Tags))
	for _, t := range out.Tags {
		pairs = append(pairs, inventory.Tag{Key: deref(t.Key), Value: deref(t.Value)})
	}
	return pairs
}

// destinationBuckets returns the S3 bucket names a delivery stream writes to.
func destinationBuckets(dests []firehosetypes.DestinationDescription) []string {
	var buckets []string
	for _, d := range dests {
		if s := d.ExtendedS3DestinationDescription; s != nil {
			buckets = uniqueAppend(buckets, bucketFromARN(deref(s.BucketARN)))
		}
		if s := d.S3DestinationDescription; s != nil {
			buckets = uniqueAppend(buckets, bucketFromARN(deref(s.BucketARN)))
		}
	}
	return buckets
}

// bucketFromARN returns the bucket of arn:aws:s3:::bucket.
func bucketFromARN(arn string) string {
	return arnResource(arn)
}

// streamNameFromARN returns the stream of arn:aws:kinesis:region:account:stream/name.
func streamNameFromARN(arn string) string {
	return strings.TrimPrefix(arnResource(arn), "stream/")
}
