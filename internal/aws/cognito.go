package aws

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// cognitoPageLimit is the largest page the user pool APIs accept.
const cognitoPageLimit = 60

// CognitoAPI is the minimal interface for Cognito user pool operations.
type CognitoAPI interface {
	ListUserPools(ctx context.Context, input *cognitoidentityprovider.ListUserPoolsInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ListUserPoolsOutput, error)
	DescribeUserPool(ctx context.Context, input *cognitoidentityprovider.DescribeUserPoolInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.DescribeUserPoolOutput, error)
	ListUserPoolClients(ctx context.Context, input *cognitoidentityprovider.ListUserPoolClientsInput, opts ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ListUserPoolClientsOutput, error)
}

// CognitoCollector lists user pools and their app clients.
type CognitoCollector struct {
	client CognitoAPI
	region string
}

// NewCognitoCollector creates a collector for Cognito user pools.
func NewCognitoCollector(client CognitoAPI, region string) *CognitoCollector {
	return &CognitoCollector{client: client, region: region}
}

// Name returns the collector name.
func (c *CognitoCollector) Name() string { return "cognito" }

// Kinds returns the kinds this collector produces.
func (c *CognitoCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindUserPools}
}

// Collect lists every user pool with its app clients.
func (c *CognitoCollector) Collect(ctx context.Context, _ ScanConfig) (*Collection, error) {
	pools, err := c.listUserPools(ctx)
	if err != nil {
		return &Collection{Results: []inventory.Result{
			resultFor(c.region, inventory.KindUserPools, nil, fmt.Errorf("list user pools: %w", err)),
		}}, nil
	}

	records := make([]inventory.Record, 0, len(pools))
	for _, p := range pools {
		id := deref(p.Id)
		detail := c.describe(ctx, id)

		var tags inventory.TagSet
		var a attrList
		if detail != nil {
			tags = inventory.Map(detail.UserPoolTags)
			a.add("Estimated Users", strconv.Itoa(int(detail.EstimatedNumberOfUsers)))
			a.add("MFA", string(detail.MfaConfiguration))
		}
		a.addTime("Created", p.CreationDate)

		r := newRecord(inventory.KindUserPools, id, deref(p.Name), c.region, tags)
		r.Attrs = a

		clients, err := c.listClients(ctx, id)
		if err != nil {
			slog.Warn("Failed to list app clients", "pool", id, "region", c.region, "error", err)
		}
		for _, cl := range clients {
			r.Children = append(r.Children, newRecord(inventory.KindAppClients, deref(cl.ClientId), deref(cl.ClientName), c.region, nil))
		}
		records = append(records, r)
	}

	return &Collection{Results: []inventory.Result{
		resultFor(c.region, inventory.KindUserPools, records, nil),
	}}, nil
}

func (c *CognitoCollector) listUserPools(ctx context.Context) ([]cognitotypes.UserPoolDescriptionType, error) {
	var pools []cognitotypes.UserPoolDescriptionType
	paginator := cognitoidentityprovider.NewListUserPoolsPaginator(c.client, &cognitoidentityprovider.ListUserPoolsInput{},
		func(o *cognitoidentityprovider.ListUserPoolsPaginatorOptions) { o.Limit = cognitoPageLimit })

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		pools = append(pools, page.UserPools...)
	}
	return pools, nil
}

func (c *CognitoCollector) describe(ctx context.Context, poolID string) *cognitotypes.UserPoolType {
	out, err := c.client.DescribeUserPool(ctx, &cognitoidentityprovider.DescribeUserPoolInput{UserPoolId: &poolID})
	if err != nil {
		slog.Debug("Failed to describe user pool", "pool", poolID, "error", err)
		return nil
	}
	return out.UserPool
}

func (c *CognitoCollector) listClients(ctx context.Context, poolID string) ([]cognitotypes.UserPoolClientDescription, error) {
	var clients []cognitotypes.UserPoolClientDescription
	paginator := cognitoidentityprovider.NewListUserPoolClientsPaginator(c.client, &cognitoidentityprovider.ListUserPoolClientsInput{UserPoolId: &poolID},
		func(o *cognitoidentityprovider.ListUserPoolClientsPaginatorOptions) { o.Limit = cognitoPageLimit })

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		clients = append(clients, page.UserPoolClients...)
	}
	return clients, nil
}
