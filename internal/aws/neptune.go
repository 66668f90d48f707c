package aws

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/neptune"
	neptunetypes "github.com/aws/aws-sdk-go-v2/service/neptune/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// NeptuneAPI is the minimal interface for Neptune operations.
type NeptuneAPI interface {
	DescribeDBClusters(ctx context.Context, input *neptune.DescribeDBClustersInput, opts ...func(*neptune.Options)) (*neptune.DescribeDBClustersOutput, error)
	DescribeDBInstances(ctx context.Context, input *neptune.DescribeDBInstancesInput, opts ...func(*neptune.Options)) (*neptune.DescribeDBInstancesOutput, error)
	ListTagsForResource(ctx context.Context, input *neptune.ListTagsForResourceInput, opts ...func(*neptune.Options)) (*neptune.ListTagsForResourceOutput, error)
}

// NeptuneCollector lists Neptune clusters with their member instances.
type NeptuneCollector struct {
	client NeptuneAPI
	region string
}

// NewNeptuneCollector creates a collector for Neptune clusters.
func NewNeptuneCollector(client NeptuneAPI, region string) *NeptuneCollector {
	return &NeptuneCollector{client: client, region: region}
}

// Name returns the collector name.
func (c *NeptuneCollector) Name() string { return "neptune" }

// Kinds returns the kinds this collector produces.
func (c *NeptuneCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindNeptuneClusters}
}

// Collect lists clusters whose engine is neptune. The shared RDS control
// plane also returns Aurora and DocumentDB clusters, which the filter drops.
func (c *NeptuneCollector) Collect(ctx context.Context, _ ScanConfig) (*Collection, error) {
	clusters, err := c.listClusters(ctx)
	if err != nil {
		return &Collection{Results: []inventory.Result{
			resultFor(c.region, inventory.KindNeptuneClusters, nil, fmt.Errorf("describe Neptune clusters: %w", err)),
		}}, nil
	}

	records := make([]inventory.Record, 0, len(clusters))
	for _, cl := range clusters {
		if deref(cl.Engine) != "neptune" {
			continue
		}
		id := deref(cl.DBClusterIdentifier)
		r := newRecord(inventory.KindNeptuneClusters, id, id, c.region, c.tags(ctx, deref(cl.DBClusterArn)))

		var a attrList
		engine := deref(cl.Engine)
		if v := deref(cl.EngineVersion); v != "" {
			engine += " (" + v + ")"
		}
		a.add("Engine", engine)
		a.add("Status", deref(cl.Status))
		a.add("Endpoint", endpoint(cl.Endpoint, cl.Port))
		a.add("Reader Endpoint", deref(cl.ReaderEndpoint))
		r.Attrs = a

		for _, sg := range cl.VpcSecurityGroups {
			r.SecurityGroupIDs = uniqueAppend(r.SecurityGroupIDs, deref(sg.VpcSecurityGroupId))
		}
		for _, m := range cl.DBClusterMembers {
			child, vpcID, subnets := c.member(ctx, m)
			if r.VpcID == "" {
				r.VpcID = vpcID
			}
			r.SubnetIDs = uniqueAppend(r.SubnetIDs, subnets...)
			r.Children = append(r.Children, child)
		}
		records = append(records, r)
	}

	return &Collection{Results: []inventory.Result{
		resultFor(c.region, inventory.KindNeptuneClusters, records, nil),
	}}, nil
}

// member describes one cluster member. A failed describe keeps the member
// with its writer flag only.
func (c *NeptuneCollector) member(ctx context.Context, m neptunetypes.DBClusterMember) (inventory.Record, string, []string) {
	id := deref(m.DBInstanceIdentifier)
	child := newRecord(inventory.KindNeptuneInstances, id, id, c.region, nil)
	var a attrList
	a.add("Writer", strconv.FormatBool(awssdk.ToBool(m.IsClusterWriter)))

	out, err := c.client.DescribeDBInstances(ctx, &neptune.DescribeDBInstancesInput{DBInstanceIdentifier: &id})
	if err != nil || len(out.DBInstances) == 0 {
		if err != nil {
			slog.Debug("Failed to describe Neptune instance", "instance", id, "error", err)
		}
		child.Attrs = a
		return child, "", nil
	}

	inst := out.DBInstances[0]
	a.add("Class", deref(inst.DBInstanceClass))
	a.add("Status", deref(inst.DBInstanceStatus))
	if inst.Endpoint != nil {
		a.add("Endpoint", endpoint(inst.Endpoint.Address, inst.Endpoint.Port))
	}
	child.Attrs = a

	for _, sg := range inst.VpcSecurityGroups {
		child.SecurityGroupIDs = uniqueAppend(child.SecurityGroupIDs, deref(sg.VpcSecurityGroupId))
	}
	var vpcID string
	if g := inst.DBSubnetGroup; g != nil {
		vpcID = deref(g.VpcId)
		for _, s := range g.Subnets {
			child.SubnetIDs = uniqueAppend(child.SubnetIDs, deref(s.SubnetIdentifier))
		}
	}
	child.VpcID = vpcID
	return child, vpcID, child.SubnetIDs
}

func (c *NeptuneCollector) tags(ctx context.Context, arn string) inventory.TagSet {
	if arn == "" {
		return nil
	}
	out, err := c.client.ListTagsForResource(ctx, &neptune.ListTagsForResourceInput{ResourceName: &arn})
	if err != nil {
		slog.Debug("Failed to list Neptune tags", "cluster", arn, "error", err)
		return nil
	}
	pairs := make(inventory.Pairs, 0, len(out.TagList))
	for _, t := range out.TagList {
		pairs = append(pairs, inventory.Tag{Key: deref(t.Key), Value: deref(t.Value)})
	}
	return pairs
}

func (c *NeptuneCollector) listClusters(ctx context.Context) ([]neptunetypes.DBCluster, error) {
	var clusters []neptunetypes.DBCluster
	var marker *string

	for {
		out, err := c.client.DescribeDBClusters(ctx, &neptune.DescribeDBClustersInput{
			Filters: []neptunetypes.Filter{
				{Name: awssdk.String("engine"), Values: []string{"neptune"}},
			},
			Marker: marker,
		})
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, out.DBClusters...)
		if out.Marker == nil {
			break
		}
		marker = out.Marker
	}
	return clusters, nil
}
