package aws

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// VPCAPI is the minimal interface for VPC topology operations.
type VPCAPI interface {
	DescribeVpcs(ctx context.Context, input *ec2.DescribeVpcsInput, opts ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error)
	DescribeSubnets(ctx context.Context, input *ec2.DescribeSubnetsInput, opts ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error)
	DescribeRouteTables(ctx context.Context, input *ec2.DescribeRouteTablesInput, opts ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error)
}

// VPCCollector lists VPCs with their subnets and route tables. The subnet
// listing is also returned unfiltered for the identifier index.
type VPCCollector struct {
	client VPCAPI
	region string
}

// NewVPCCollector creates a collector for VPCs.
func NewVPCCollector(client VPCAPI, region string) *VPCCollector {
	return &VPCCollector{client: client, region: region}
}

// Name returns the collector name.
func (c *VPCCollector) Name() string { return "vpc" }

// Kinds returns the kinds this collector produces.
func (c *VPCCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindVPCs}
}

// Collect lists VPCs, subnets and route tables. A subnet or route table
// failure only drops the nested detail.
func (c *VPCCollector) Collect(ctx context.Context, _ ScanConfig) (*Collection, error) {
	subnets, err := c.listSubnets(ctx)
	if err != nil {
		slog.Warn("Failed to list subnets", "region", c.region, "error", err)
	}
	tables, err := c.listRouteTables(ctx)
	if err != nil {
		slog.Warn("Failed to list route tables", "region", c.region, "error", err)
	}

	coll := &Collection{}
	subnetsByVPC := make(map[string][]ec2types.Subnet)
	for _, s := range subnets {
		coll.Subnets = append(coll.Subnets, inventory.Subnet{
			ID:               deref(s.SubnetId),
			Name:             ec2NameTag(s.Tags),
			VpcID:            deref(s.VpcId),
			CIDR:             deref(s.CidrBlock),
			AvailabilityZone: deref(s.AvailabilityZone),
		})
		subnetsByVPC[deref(s.VpcId)] = append(subnetsByVPC[deref(s.VpcId)], s)
	}
	tablesByVPC := make(map[string][]ec2types.RouteTable)
	for _, t := range tables {
		tablesByVPC[deref(t.VpcId)] = append(tablesByVPC[deref(t.VpcId)], t)
	}

	vpcs, err := c.listVPCs(ctx)
	if err != nil {
		err = fmt.Errorf("list VPCs: %w", err)
	}

	var records []inventory.Record
	for _, v := range vpcs {
		id := deref(v.VpcId)
		r := newRecord(inventory.KindVPCs, id, ec2NameTag(v.Tags), c.region, ec2Tags(v.Tags))
		var a attrList
		a.add("CIDR", deref(v.CidrBlock))
		a.add("State", string(v.State))
		a.addBool("Default", v.IsDefault)
		r.Attrs = a
		r.VpcID = id

		for _, s := range subnetsByVPC[id] {
			r.SubnetIDs = append(r.SubnetIDs, deref(s.SubnetId))
			r.Children = append(r.Children, subnetChild(s, c.region))
		}
		for _, t := range tablesByVPC[id] {
			r.Children = append(r.Children, routeTableChild(t, c.region))
		}
		records = append(records, r)
	}

	coll.Results = []inventory.Result{resultFor(c.region, inventory.KindVPCs, records, err)}
	return coll, nil
}

func subnetChild(s ec2types.Subnet, region string) inventory.Record {
	r := newRecord(inventory.KindSubnets, deref(s.SubnetId), ec2NameTag(s.Tags), region, ec2Tags(s.Tags))
	var a attrList
	a.add("CIDR", deref(s.CidrBlock))
	a.add("Availability Zone", deref(s.AvailabilityZone))
	a.addBool("Public IP on Launch", s.MapPublicIpOnLaunch)
	r.Attrs = a
	r.VpcID = deref(s.VpcId)
	return r
}

func routeTableChild(t ec2types.RouteTable, region string) inventory.Record {
	r := newRecord(inventory.KindRouteTables, deref(t.RouteTableId), ec2NameTag(t.Tags), region, ec2Tags(t.Tags))
	r.VpcID = deref(t.VpcId)

	var main bool
	for _, assoc := range t.Associations {
		if assoc.Main != nil && *assoc.Main {
			main = true
		}
		r.SubnetIDs = uniqueAppend(r.SubnetIDs, deref(assoc.SubnetId))
	}
	var a attrList
	if main {
		a.add("Main", "true")
	}
	r.Attrs = a

	for _, rt := range t.Routes {
		r.Routes = append(r.Routes, inventory.Route{Key: routeDestination(rt), Target: routeTarget(rt)})
	}
	return r
}

func routeDestination(rt ec2types.Route) string {
	for _, d := range []*string{rt.DestinationCidrBlock, rt.DestinationIpv6CidrBlock, rt.DestinationPrefixListId} {
		if v := deref(d); v != "" {
			return v
		}
	}
	return "unknown"
}

func routeTarget(rt ec2types.Route) string {
	for _, t := range []*string{
		rt.GatewayId,
		rt.NatGatewayId,
		rt.TransitGatewayId,
		rt.VpcPeeringConnectionId,
		rt.EgressOnlyInternetGatewayId,
		rt.NetworkInterfaceId,
		rt.InstanceId,
		rt.LocalGatewayId,
		rt.CarrierGatewayId,
		rt.CoreNetworkArn,
	} {
		if v := deref(t); v != "" {
			return v
		}
	}
	return strings.ToLower(string(rt.State))
}

func (c *VPCCollector) listVPCs(ctx context.Context) ([]ec2types.Vpc, error) {
	var vpcs []ec2types.Vpc
	paginator := ec2.NewDescribeVpcsPaginator(c.client, &ec2.DescribeVpcsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		vpcs = append(vpcs, page.Vpcs...)
	}
	return vpcs, nil
}

func (c *VPCCollector) listSubnets(ctx context.Context) ([]ec2types.Subnet, error) {
	var subnets []ec2types.Subnet
	paginator := ec2.NewDescribeSubnetsPaginator(c.client, &ec2.DescribeSubnetsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		subnets = append(subnets, page.Subnets...)
	}
	return subnets, nil
}

func (c *VPCCollector) listRouteTables(ctx context.Context) ([]ec2types.RouteTable, error) {
	var tables []ec2types.RouteTable
	paginator := ec2.NewDescribeRouteTablesPaginator(c.client, &ec2.DescribeRouteTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		tables = append(tables, page.RouteTables...)
	}
	return tables, nil
}
