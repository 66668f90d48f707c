package aws

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// LambdaAPI is the minimal interface for Lambda operations.
type LambdaAPI interface {
	ListFunctions(ctx context.Context, input *lambda.ListFunctionsInput, opts ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error)
	ListTags(ctx context.Context, input *lambda.ListTagsInput, opts ...func(*lambda.Options)) (*lambda.ListTagsOutput, error)
	ListEventSourceMappings(ctx context.Context, input *lambda.ListEventSourceMappingsInput, opts ...func(*lambda.Options)) (*lambda.ListEventSourceMappingsOutput, error)
}

// LambdaCollector lists functions with their VPC placement and environment
// variables, plus the region's event source mappings.
type LambdaCollector struct {
	client  LambdaAPI
	metrics *MetricsFetcher
	region  string
}

// NewLambdaCollector creates a collector for Lambda functions.
func NewLambdaCollector(client LambdaAPI, metrics *MetricsFetcher, region string) *LambdaCollector {
	return &LambdaCollector{client: client, metrics: metrics, region: region}
}

// Name returns the collector name.
func (c *LambdaCollector) Name() string { return "lambda" }

// Kinds returns the kinds this collector produces.
func (c *LambdaCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindFunctions}
}

// Collect lists every function. Tags and mappings are best effort.
func (c *LambdaCollector) Collect(ctx context.Context, cfg ScanConfig) (*Collection, error) {
	functions, err := c.listFunctions(ctx)
	if err != nil {
		return &Collection{Results: []inventory.Result{
			resultFor(c.region, inventory.KindFunctions, nil, fmt.Errorf("list Lambda functions: %w", err)),
		}}, nil
	}

	names := make([]string, 0, len(functions))
	for _, fn := range functions {
		names = append(names, deref(fn.FunctionName))
	}
	invocations := c.metrics.Activity(ctx, lambdaInvocations, names, cfg.ActivityDays)

	records := make([]inventory.Record, 0, len(functions))
	for _, fn := range functions {
		name := deref(fn.FunctionName)
		r := newRecord(inventory.KindFunctions, deref(fn.FunctionArn), name, c.region, c.tags(ctx, deref(fn.FunctionArn)))

		var a attrList
		a.add("Runtime", string(fn.Runtime))
		a.add("Handler", deref(fn.Handler))
		if fn.MemorySize != nil {
			a.add("Memory", strconv.Itoa(int(*fn.MemorySize))+" MB")
		}
		if fn.Timeout != nil {
			a.add("Timeout", strconv.Itoa(int(*fn.Timeout))+" s")
		}
		a.add("Last Modified", deref(fn.LastModified))
		if attr, ok := activityAttr(lambdaInvocations, cfg.ActivityDays, invocations, name); ok {
			a = append(a, attr)
		}
		r.Attrs = a

		if fn.VpcConfig != nil {
			r.VpcID = deref(fn.VpcConfig.VpcId)
			r.SubnetIDs = uniqueAppend(nil, fn.VpcConfig.SubnetIds...)
			r.SecurityGroupIDs = uniqueAppend(nil, fn.VpcConfig.SecurityGroupIds...)
		}
		if fn.Environment != nil && len(fn.Environment.Variables) > 0 {
			r.EnvVars = fn.Environment.Variables
		}
		records = append(records, r)
	}

	mappings, err := c.listEventSourceMappings(ctx)
	if err != nil {
		slog.Warn("Failed to list event source mappings", "region", c.region, "error", err)
	}

	return &Collection{
		Results:             []inventory.Result{resultFor(c.region, inventory.KindFunctions, records, nil)},
		EventSourceMappings: mappings,
	}, nil
}

func (c *LambdaCollector) tags(ctx context.Context, arn string) inventory.TagSet {
	out, err := c.client.ListTags(ctx, &lambda.ListTagsInput{Resource: &arn})
	if err != nil {
		slog.Debug("Failed to list function tags", "function", arn, "error", err)
		return nil
	}
	return inventory.Map(out.Tags)
}

func (c *LambdaCollector) listFunctions(ctx context.Context) ([]lambdatypes.FunctionConfiguration, error) {
	var functions []lambdatypes.FunctionConfiguration
	paginator := lambda.NewListFunctionsPaginator(c.client, &lambda.ListFunctionsInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		functions = append(functions, page.Functions...)
	}
	return functions, nil
}

func (c *LambdaCollector) listEventSourceMappings(ctx context.Context) ([]inventory.EventSourceMapping, error) {
	var mappings []inventory.EventSourceMapping
	paginator := lambda.NewListEventSourceMappingsPaginator(c.client, &lambda.ListEventSourceMappingsInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, m := range page.EventSourceMappings {
			mappings = append(mappings, inventory.EventSourceMapping{
				UUID:           deref(m.UUID),
				FunctionARN:    deref(m.FunctionArn),
				EventSourceARN: deref(m.EventSourceArn),
				State:          deref(m.State),
			})
		}
	}
	return mappings, nil
}
