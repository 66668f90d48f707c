package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// S3API is the minimal interface for S3 bucket listing.
type S3API interface {
	ListBuckets(ctx context.Context, input *s3.ListBucketsInput, opts ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketLocation(ctx context.Context, input *s3.GetBucketLocationInput, opts ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
	GetBucketTagging(ctx context.Context, input *s3.GetBucketTaggingInput, opts ...func(*s3.Options)) (*s3.GetBucketTaggingOutput, error)
}

// S3Collector lists buckets. Buckets are global, so the scanner runs it for
// the primary region only.
type S3Collector struct {
	client S3API
	region string
}

// NewS3Collector creates a collector for S3 buckets.
func NewS3Collector(client S3API, region string) *S3Collector {
	return &S3Collector{client: client, region: region}
}

// Name returns the collector name.
func (c *S3Collector) Name() string { return "s3" }

// Kinds returns the kinds this collector produces.
func (c *S3Collector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindS3Buckets}
}

// Collect lists every bucket owned by the account with its region and tags.
func (c *S3Collector) Collect(ctx context.Context, _ ScanConfig) (*Collection, error) {
	buckets, err := c.listBuckets(ctx)
	if err != nil {
		return &Collection{Results: []inventory.Result{
			resultFor(c.region, inventory.KindS3Buckets, nil, fmt.Errorf("list S3 buckets: %w", err)),
		}}, nil
	}

	records := make([]inventory.Record, 0, len(buckets))
	for _, b := range buckets {
		name := deref(b.Name)
		r := newRecord(inventory.KindS3Buckets, name, name, c.bucketRegion(ctx, name), c.tags(ctx, name))
		var a attrList
		a.add("Region", r.Region)
		a.addTime("Created", b.CreationDate)
		r.Attrs = a
		records = append(records, r)
	}

	return &Collection{Results: []inventory.Result{
		resultFor(c.region, inventory.KindS3Buckets, records, nil),
	}}, nil
}

func (c *S3Collector) listBuckets(ctx context.Context) ([]s3types.Bucket, error) {
	var buckets []s3types.Bucket
	paginator := s3.NewListBucketsPaginator(c.client, &s3.ListBucketsInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, page.Buckets...)
	}
	return buckets, nil
}

// bucketRegion returns the bucket's region. An empty location constraint
// means us-east-1.
func (c *S3Collector) bucketRegion(ctx context.Context, bucket string) string {
	out, err := c.client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: &bucket})
	if err != nil {
		slog.Debug("Failed to get bucket location", "bucket", bucket, "error", err)
		return ""
	}
	if out.LocationConstraint == "" {
		return "us-east-1"
	}
	return string(out.LocationConstraint)
}

// tags returns the bucket tags. A bucket without a tag set is not an error.
func (c *S3Collector) tags(ctx context.Context, bucket string) inventory.TagSet {
	out, err := c.client.GetBucketTagging(ctx, &s3.GetBucketTaggingInput{Bucket: &bucket})
	if err != nil {
		if !hasErrorCode(err, "NoSuchTagSet") {
			slog.Debug("Failed to get bucket tags", "bucket", bucket, "error", err)
		}
		return nil
	}
	pairs := make(inventory.Pairs, 0, len(out.TagSet))
	for _, t := range out.TagSet {
		pairs = append(pairs, inventory.Tag{Key: deref(t.Key), Value: deref(t.Value)})
	}
	return pairs
}
