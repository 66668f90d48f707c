package aws

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	"github.com/aws/aws-sdk-go-v2/service/apigatewayv2"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/elasticache"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/neptune"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ppiankov/awsatlas/internal/inventory"
	"golang.org/x/sync/errgroup"
)

// Collector is the interface each resource collector implements. A
// collector never fails the scan: listing errors become per-kind results.
type Collector interface {
	Collect(ctx context.Context, cfg ScanConfig) (*Collection, error)
	Kinds() []inventory.Kind
	Name() string
}

// MultiRegionScanner orchestrates collection across multiple AWS regions.
type MultiRegionScanner struct {
	client      *Client
	regions     []string
	concurrency int
	scanConfig  ScanConfig
	progressFn  func(ScanProgress)
	build       func(region string, primary bool) []Collector
}

// NewMultiRegionScanner creates a scanner that runs across the specified
// regions. The first region is primary and also collects global kinds.
func NewMultiRegionScanner(client *Client, regions []string, concurrency int, scanCfg ScanConfig) *MultiRegionScanner {
	if concurrency <= 0 {
		concurrency = 4
	}
	s := &MultiRegionScanner{
		client:      client,
		regions:     regions,
		concurrency: concurrency,
		scanConfig:  scanCfg,
	}
	s.build = func(region string, primary bool) []Collector {
		return buildCollectors(s.client.ConfigForRegion(region), region, primary)
	}
	return s
}

// SetProgressFn sets a callback for progress updates.
func (s *MultiRegionScanner) SetProgressFn(fn func(ScanProgress)) {
	s.progressFn = fn
}

type regionScan struct {
	collections []*Collection
	errors      []string
}

// ScanAll runs all collectors across all configured regions and merges the
// results in region order, so repeated scans of the same account agree.
func (s *MultiRegionScanner) ScanAll(ctx context.Context) (*ScanResult, error) {
	scans := make([]regionScan, len(s.regions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, region := range s.regions {
		i, region := i, region
		g.Go(func() error {
			slog.Info("Scanning region", "region", region)
			scans[i] = s.scanRegion(ctx, region, i == 0)
			return nil // don't abort other regions
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.merge(scans), nil
}

func (s *MultiRegionScanner) merge(scans []regionScan) *ScanResult {
	inv := inventory.New()
	inv.Regions = append([]string(nil), s.regions...)
	result := &ScanResult{Inventory: inv, RegionsScanned: len(s.regions)}

	parts := make(map[inventory.Kind][]inventory.Result)
	for _, scan := range scans {
		result.Errors = append(result.Errors, scan.errors...)
		for _, coll := range scan.collections {
			if coll == nil {
				continue
			}
			for _, r := range coll.Results {
				parts[r.Kind] = append(parts[r.Kind], r)
			}
			inv.Subnets = append(inv.Subnets, coll.Subnets...)
			inv.EventSourceMappings = append(inv.EventSourceMappings, coll.EventSourceMappings...)
		}
	}

	for _, kind := range inventory.Kinds {
		if len(parts[kind]) == 0 {
			continue
		}
		merged := inventory.Merge(kind, parts[kind]...)
		result.ResourcesScanned += len(merged.Records)
		inv.Set(merged)
	}
	return result
}

// scanRegion runs all collectors for a single region. Collections keep the
// collector order regardless of which finishes first.
func (s *MultiRegionScanner) scanRegion(ctx context.Context, region string, primary bool) regionScan {
	collectors := s.build(region, primary)
	scan := regionScan{collections: make([]*Collection, len(collectors))}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(10) // max concurrent collectors per region

	for i, collector := range collectors {
		i, collector := i, collector
		if s.skipsAll(collector) {
			slog.Debug("Skipping excluded collector", "collector", collector.Name(), "region", region)
			continue
		}
		g.Go(func() error {
			s.report(region, collector.Name(), "collecting")
			slog.Debug("Running collector", "collector", collector.Name(), "region", region)

			coll, err := collector.Collect(ctx, s.scanConfig)
			if err != nil {
				slog.Warn("Collector failed", "collector", collector.Name(), "region", region, "error", err)
				coll = &Collection{}
				for _, kind := range collector.Kinds() {
					coll.Results = append(coll.Results, resultFor(region, kind, nil, err))
				}
			}
			coll = s.applyExclusions(coll)

			var errs []string
			for _, r := range coll.Results {
				if r.Unavailable() {
					errs = append(errs, fmt.Sprintf("%s/%s: %s", region, r.Kind, r.Reason))
				}
			}

			mu.Lock()
			scan.collections[i] = coll
			scan.errors = append(scan.errors, errs...)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return scan
}

func (s *MultiRegionScanner) skipsAll(c Collector) bool {
	for _, k := range c.Kinds() {
		if !s.scanConfig.Exclude.SkipsKind(k) {
			return false
		}
	}
	return true
}

// applyExclusions drops excluded kinds and records. Auxiliary listings are
// kept whole so identifiers still resolve.
func (s *MultiRegionScanner) applyExclusions(coll *Collection) *Collection {
	ex := s.scanConfig.Exclude
	out := &Collection{Subnets: coll.Subnets, EventSourceMappings: coll.EventSourceMappings}
	for _, r := range coll.Results {
		if ex.SkipsKind(r.Kind) {
			continue
		}
		if r.Status != inventory.StatusOK {
			out.Results = append(out.Results, r)
			continue
		}
		kept := make([]inventory.Record, 0, len(r.Records))
		for _, rec := range r.Records {
			tags := inventory.TagsToMap(rec.Tags)
			if ex.ShouldExclude(rec.ID, tags) || ex.ShouldExclude(rec.Name, tags) {
				continue
			}
			kept = append(kept, rec)
		}
		out.Results = append(out.Results, inventory.OK(r.Kind, kept))
	}
	return out
}

func (s *MultiRegionScanner) report(region, collector, msg string) {
	if s.progressFn == nil {
		return
	}
	s.progressFn(ScanProgress{Region: region, Collector: collector, Message: msg, Timestamp: time.Now()})
}

// buildCollectors creates all collectors for a given region. Global kinds
// are collected by the primary region only.
func buildCollectors(cfg awssdk.Config, region string, primary bool) []Collector {
	ec2Client := ec2.NewFromConfig(cfg)
	metrics := NewMetricsFetcher(cloudwatch.NewFromConfig(cfg))

	collectors := []Collector{
		NewInstanceCollector(ec2Client, region),
		NewSecurityGroupCollector(ec2Client, region),
		NewLambdaCollector(lambda.NewFromConfig(cfg), metrics, region),
		NewAPIGatewayCollector(apigatewayv2.NewFromConfig(cfg), apigateway.NewFromConfig(cfg), region),
		NewVPCCollector(ec2Client, region),
		NewLoadBalancerCollector(elasticloadbalancingv2.NewFromConfig(cfg), metrics, region),
		NewRDSCollector(rds.NewFromConfig(cfg), region),
		NewCognitoCollector(cognitoidentityprovider.NewFromConfig(cfg), region),
		NewContainerCollector(ecr.NewFromConfig(cfg), eks.NewFromConfig(cfg), ecs.NewFromConfig(cfg), region),
		NewNeptuneCollector(neptune.NewFromConfig(cfg), region),
		NewDynamoDBCollector(dynamodb.NewFromConfig(cfg), region),
		NewElastiCacheCollector(elasticache.NewFromConfig(cfg), region),
		NewSQSCollector(sqs.NewFromConfig(cfg), metrics, region),
		NewKinesisCollector(kinesis.NewFromConfig(cfg), metrics, region),
		NewFirehoseCollector(firehose.NewFromConfig(cfg), metrics, region),
	}
	if primary {
		collectors = append(collectors, NewS3Collector(s3.NewFromConfig(cfg), region))
	}
	return collectors
}
