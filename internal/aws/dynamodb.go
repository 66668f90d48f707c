package aws

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamotypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// DynamoDBAPI is the minimal interface for DynamoDB operations.
type DynamoDBAPI interface {
	ListTables(ctx context.Context, input *dynamodb.ListTablesInput, opts ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
	DescribeTable(ctx context.Context, input *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	ListTagsOfResource(ctx context.Context, input *dynamodb.ListTagsOfResourceInput, opts ...func(*dynamodb.Options)) (*dynamodb.ListTagsOfResourceOutput, error)
}

// DynamoDBCollector lists tables with key schema, billing mode and size.
type DynamoDBCollector struct {
	client DynamoDBAPI
	region string
}

// NewDynamoDBCollector creates a collector for DynamoDB tables.
func NewDynamoDBCollector(client DynamoDBAPI, region string) *DynamoDBCollector {
	return &DynamoDBCollector{client: client, region: region}
}

// Name returns the collector name.
func (c *DynamoDBCollector) Name() string { return "dynamodb" }

// Kinds returns the kinds this collector produces.
func (c *DynamoDBCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindDynamoDBTables}
}

// Collect lists and describes every table.
func (c *DynamoDBCollector) Collect(ctx context.Context, _ ScanConfig) (*Collection, error) {
	names, err := c.listTables(ctx)
	if err != nil {
		return &Collection{Results: []inventory.Result{
			resultFor(c.region, inventory.KindDynamoDBTables, nil, fmt.Errorf("list DynamoDB tables: %w", err)),
		}}, nil
	}

	records := make([]inventory.Record, 0, len(names))
	for _, name := range names {
		out, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &name})
		if err != nil || out.Table == nil {
			slog.Warn("Failed to describe DynamoDB table", "table", name, "region", c.region, "error", err)
			continue
		}
		records = append(records, c.record(ctx, out.Table))
	}

	return &Collection{Results: []inventory.Result{
		resultFor(c.region, inventory.KindDynamoDBTables, records, nil),
	}}, nil
}

func (c *DynamoDBCollector) record(ctx context.Context, t *dynamotypes.TableDescription) inventory.Record {
	arn := deref(t.TableArn)
	r := newRecord(inventory.KindDynamoDBTables, arn, deref(t.TableName), c.region, c.tags(ctx, arn))

	var a attrList
	a.add("Status", string(t.TableStatus))
	a.add("Primary Key", keySchema(t.KeySchema))
	a.add("Billing", billingMode(t.BillingModeSummary))
	if t.ItemCount != nil {
		a.add("Items", strconv.FormatInt(*t.ItemCount, 10))
	}
	if t.TableSizeBytes != nil {
		a.add("Size", fmt.Sprintf("%.2f MB", float64(*t.TableSizeBytes)/(1024*1024)))
	}
	a.add("Stream", deref(t.LatestStreamArn))
	r.Attrs = a
	return r
}

// keySchema renders "attr (HASH), attr (RANGE)".
func keySchema(elems []dynamotypes.KeySchemaElement) string {
	parts := make([]string, 0, len(elems))
	for _, e := range elems {
		parts = append(parts, fmt.Sprintf("%s (%s)", deref(e.AttributeName), e.KeyType))
	}
	return strings.Join(parts, ", ")
}

// billingMode reports On-Demand for pay-per-request tables. Tables without
// a summary were created provisioned.
func billingMode(s *dynamotypes.BillingModeSummary) string {
	if s != nil && s.BillingMode == dynamotypes.BillingModePayPerRequest {
		return "On-Demand"
	}
	return string(dynamotypes.BillingModeProvisioned)
}

func (c *DynamoDBCollector) tags(ctx context.Context, arn string) inventory.TagSet {
	var pairs inventory.Pairs
	var token *string
	for {
		out, err := c.client.ListTagsOfResource(ctx, &dynamodb.ListTagsOfResourceInput{ResourceArn: &arn, NextToken: token})
		if err != nil {
			slog.Debug("Failed to list table tags", "table", arn, "error", err)
			return pairs
		}
		for _, t := range out.Tags {
			pairs = append(pairs, inventory.Tag{Key: deref(t.Key), Value: deref(t.Value)})
		}
		if out.NextToken == nil {
			return pairs
		}
		token = out.NextToken
	}
}

func (c *DynamoDBCollector) listTables(ctx context.Context) ([]string, error) {
	var names []string
	paginator := dynamodb.NewListTablesPaginator(c.client, &dynamodb.ListTablesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		names = append(names, page.TableNames...)
	}
	return names, nil
}
