package aws

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// RDSAPI is the minimal interface for RDS operations.
type RDSAPI interface {
	DescribeDBInstances(ctx context.Context, input *rds.DescribeDBInstancesInput, opts ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

// RDSCollector lists relational database instances. Neptune and DocumentDB
// instances share the RDS API and are left to their own collectors.
type RDSCollector struct {
	client RDSAPI
	region string
}

// NewRDSCollector creates a collector for RDS instances.
func NewRDSCollector(client RDSAPI, region string) *RDSCollector {
	return &RDSCollector{client: client, region: region}
}

// Name returns the collector name.
func (c *RDSCollector) Name() string { return "rds" }

// Kinds returns the kinds this collector produces.
func (c *RDSCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindRDSInstances}
}

// Collect lists all database instances in the region.
func (c *RDSCollector) Collect(ctx context.Context, _ ScanConfig) (*Collection, error) {
	instances, err := c.listDBInstances(ctx)
	if err != nil {
		err = fmt.Errorf("list RDS instances: %w", err)
	}

	var records []inventory.Record
	for _, inst := range instances {
		switch deref(inst.Engine) {
		case "neptune", "docdb":
			continue
		}
		records = append(records, c.record(inst))
	}

	return &Collection{Results: []inventory.Result{
		resultFor(c.region, inventory.KindRDSInstances, records, err),
	}}, nil
}

func (c *RDSCollector) record(inst rdstypes.DBInstance) inventory.Record {
	id := deref(inst.DBInstanceIdentifier)
	r := newRecord(inventory.KindRDSInstances, id, id, c.region, rdsTags(inst.TagList))

	var a attrList
	engine := deref(inst.Engine)
	if v := deref(inst.EngineVersion); v != "" {
		engine += " (" + v + ")"
	}
	a.add("Engine", engine)
	a.add("Class", deref(inst.DBInstanceClass))
	a.add("Status", deref(inst.DBInstanceStatus))
	if inst.Endpoint != nil {
		a.add("Endpoint", endpoint(inst.Endpoint.Address, inst.Endpoint.Port))
	}
	if inst.AllocatedStorage != nil {
		a.add("Storage", strconv.Itoa(int(*inst.AllocatedStorage))+" GiB")
	}
	a.addBool("Multi-AZ", inst.MultiAZ)
	a.addBool("Public", inst.PubliclyAccessible)
	r.Attrs = a

	for _, sg := range inst.VpcSecurityGroups {
		r.SecurityGroupIDs = uniqueAppend(r.SecurityGroupIDs, deref(sg.VpcSecurityGroupId))
	}
	if g := inst.DBSubnetGroup; g != nil {
		r.VpcID = deref(g.VpcId)
		for _, s := range g.Subnets {
			r.SubnetIDs = uniqueAppend(r.SubnetIDs, deref(s.SubnetIdentifier))
		}
	}
	return r
}

func (c *RDSCollector) listDBInstances(ctx context.Context) ([]rdstypes.DBInstance, error) {
	var instances []rdstypes.DBInstance
	paginator := rds.NewDescribeDBInstancesPaginator(c.client, &rds.DescribeDBInstancesInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		instances = append(instances, page.DBInstances...)
	}
	return instances, nil
}

func rdsTags(tags []rdstypes.Tag) inventory.Pairs {
	if len(tags) == 0 {
		return nil
	}
	out := make(inventory.Pairs, 0, len(tags))
	for _, t := range tags {
		out = append(out, inventory.Tag{Key: deref(t.Key), Value: deref(t.Value)})
	}
	return out
}
