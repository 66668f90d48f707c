package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// SecurityGroupAPI is the minimal interface for security group operations.
type SecurityGroupAPI interface {
	DescribeSecurityGroups(ctx context.Context, input *ec2.DescribeSecurityGroupsInput, opts ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
}

// SecurityGroupCollector lists security groups with their rules.
type SecurityGroupCollector struct {
	client SecurityGroupAPI
	region string
}

// NewSecurityGroupCollector creates a collector for security groups.
func NewSecurityGroupCollector(client SecurityGroupAPI, region string) *SecurityGroupCollector {
	return &SecurityGroupCollector{client: client, region: region}
}

// Name returns the collector name.
func (c *SecurityGroupCollector) Name() string { return "security-groups" }

// Kinds returns the kinds this collector produces.
func (c *SecurityGroupCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindSecurityGroups}
}

// Collect lists every security group in the region. The group name is the
// record name; a Name tag, when present, only feeds the identifier index.
func (c *SecurityGroupCollector) Collect(ctx context.Context, _ ScanConfig) (*Collection, error) {
	groups, err := c.listSecurityGroups(ctx)
	if err != nil {
		err = fmt.Errorf("list security groups: %w", err)
	}

	var records []inventory.Record
	for _, sg := range groups {
		r := newRecord(inventory.KindSecurityGroups, deref(sg.GroupId), deref(sg.GroupName), c.region, ec2Tags(sg.Tags))
		var a attrList
		a.add("Description", deref(sg.Description))
		a.add("VPC", deref(sg.VpcId))
		r.Attrs = a
		r.VpcID = deref(sg.VpcId)
		r.Ingress = convertPermissions(sg.IpPermissions)
		r.Egress = convertPermissions(sg.IpPermissionsEgress)
		records = append(records, r)
	}

	return &Collection{Results: []inventory.Result{
		resultFor(c.region, inventory.KindSecurityGroups, records, err),
	}}, nil
}

func (c *SecurityGroupCollector) listSecurityGroups(ctx context.Context) ([]ec2types.SecurityGroup, error) {
	var groups []ec2types.SecurityGroup
	paginator := ec2.NewDescribeSecurityGroupsPaginator(c.client, &ec2.DescribeSecurityGroupsInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		groups = append(groups, page.SecurityGroups...)
	}
	return groups, nil
}

// convertPermissions normalizes EC2 permissions into rules. Ports stay nil
// when the permission covers all ports.
func convertPermissions(perms []ec2types.IpPermission) []inventory.Rule {
	if len(perms) == 0 {
		return nil
	}
	rules := make([]inventory.Rule, 0, len(perms))
	for _, p := range perms {
		r := inventory.Rule{
			Protocol: deref(p.IpProtocol),
			FromPort: p.FromPort,
			ToPort:   p.ToPort,
		}
		for _, ip := range p.IpRanges {
			r.CIDRs = uniqueAppend(r.CIDRs, deref(ip.CidrIp))
		}
		for _, ip := range p.Ipv6Ranges {
			r.CIDRs = uniqueAppend(r.CIDRs, deref(ip.CidrIpv6))
		}
		for _, g := range p.UserIdGroupPairs {
			r.PeerGroups = uniqueAppend(r.PeerGroups, deref(g.GroupId))
		}
		for _, pl := range p.PrefixListIds {
			r.PrefixList = uniqueAppend(r.PrefixList, deref(pl.PrefixListId))
		}
		rules = append(rules, r)
	}
	return rules
}
