package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// EC2API is the minimal interface for EC2 instance operations.
type EC2API interface {
	DescribeInstances(ctx context.Context, input *ec2.DescribeInstancesInput, opts ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// InstanceCollector lists EC2 instances that are not terminated.
type InstanceCollector struct {
	client EC2API
	region string
}

// NewInstanceCollector creates a collector for EC2 instances.
func NewInstanceCollector(client EC2API, region string) *InstanceCollector {
	return &InstanceCollector{client: client, region: region}
}

// Name returns the collector name used in logs and error messages.
func (c *InstanceCollector) Name() string { return "ec2" }

// Kinds returns the kinds this collector produces.
func (c *InstanceCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindInstances}
}

// Collect lists all instances in the region.
func (c *InstanceCollector) Collect(ctx context.Context, _ ScanConfig) (*Collection, error) {
	instances, err := c.listInstances(ctx)
	if err != nil {
		err = fmt.Errorf("list EC2 instances: %w", err)
	}

	var records []inventory.Record
	for _, inst := range instances {
		records = append(records, c.record(inst))
	}

	return &Collection{Results: []inventory.Result{
		resultFor(c.region, inventory.KindInstances, records, err),
	}}, nil
}

func (c *InstanceCollector) record(inst ec2types.Instance) inventory.Record {
	id := deref(inst.InstanceId)
	tags := ec2Tags(inst.Tags)
	r := newRecord(inventory.KindInstances, id, ec2NameTag(inst.Tags), c.region, tags)

	var a attrList
	a.add("Type", string(inst.InstanceType))
	if inst.State != nil {
		a.add("State", string(inst.State.Name))
	}
	a.add("Private IP", deref(inst.PrivateIpAddress))
	a.add("Public IP", deref(inst.PublicIpAddress))
	if inst.Placement != nil {
		a.add("Availability Zone", deref(inst.Placement.AvailabilityZone))
	}
	a.add("Image", deref(inst.ImageId))
	a.addTime("Launched", inst.LaunchTime)
	r.Attrs = a

	r.VpcID = deref(inst.VpcId)
	r.SubnetIDs = uniqueAppend(nil, deref(inst.SubnetId))
	for _, g := range inst.SecurityGroups {
		r.SecurityGroupIDs = uniqueAppend(r.SecurityGroupIDs, deref(g.GroupId))
	}
	return r
}

func (c *InstanceCollector) listInstances(ctx context.Context) ([]ec2types.Instance, error) {
	var instances []ec2types.Instance
	paginator := ec2.NewDescribeInstancesPaginator(c.client, &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   awssdk.String("instance-state-name"),
				Values: []string{"pending", "running", "stopping", "stopped"},
			},
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, res := range page.Reservations {
			instances = append(instances, res.Instances...)
		}
	}
	return instances, nil
}

// ec2Tags converts EC2 tags preserving their order.
func ec2Tags(tags []ec2types.Tag) inventory.Pairs {
	if len(tags) == 0 {
		return nil
	}
	out := make(inventory.Pairs, 0, len(tags))
	for _, t := range tags {
		out = append(out, inventory.Tag{Key: deref(t.Key), Value: deref(t.Value)})
	}
	return out
}

func ec2NameTag(tags []ec2types.Tag) string {
	for _, tag := range tags {
		if deref(tag.Key) == "Name" {
			return deref(tag.Value)
		}
	}
	return ""
}
