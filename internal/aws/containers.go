package aws

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

const (
	ecsClusterBatch = 100
	ecsServiceBatch = 10
)

// ECRAPI is the minimal interface for ECR operations.
type ECRAPI interface {
	DescribeRepositories(ctx context.Context, input *ecr.DescribeRepositoriesInput, opts ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error)
	ListTagsForResource(ctx context.Context, input *ecr.ListTagsForResourceInput, opts ...func(*ecr.Options)) (*ecr.ListTagsForResourceOutput, error)
}

// EKSAPI is the minimal interface for EKS operations.
type EKSAPI interface {
	ListClusters(ctx context.Context, input *eks.ListClustersInput, opts ...func(*eks.Options)) (*eks.ListClustersOutput, error)
	DescribeCluster(ctx context.Context, input *eks.DescribeClusterInput, opts ...func(*eks.Options)) (*eks.DescribeClusterOutput, error)
	ListNodegroups(ctx context.Context, input *eks.ListNodegroupsInput, opts ...func(*eks.Options)) (*eks.ListNodegroupsOutput, error)
}

// ECSAPI is the minimal interface for ECS operations.
type ECSAPI interface {
	ListClusters(ctx context.Context, input *ecs.ListClustersInput, opts ...func(*ecs.Options)) (*ecs.ListClustersOutput, error)
	DescribeClusters(ctx context.Context, input *ecs.DescribeClustersInput, opts ...func(*ecs.Options)) (*ecs.DescribeClustersOutput, error)
	ListServices(ctx context.Context, input *ecs.ListServicesInput, opts ...func(*ecs.Options)) (*ecs.ListServicesOutput, error)
	DescribeServices(ctx context.Context, input *ecs.DescribeServicesInput, opts ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error)
}

// ContainerCollector lists ECR repositories, EKS clusters and ECS clusters.
// Each kind succeeds or fails on its own.
type ContainerCollector struct {
	ecr    ECRAPI
	eks    EKSAPI
	ecs    ECSAPI
	region string
}

// NewContainerCollector creates a collector for container services.
func NewContainerCollector(ecrClient ECRAPI, eksClient EKSAPI, ecsClient ECSAPI, region string) *ContainerCollector {
	return &ContainerCollector{ecr: ecrClient, eks: eksClient, ecs: ecsClient, region: region}
}

// Name returns the collector name.
func (c *ContainerCollector) Name() string { return "containers" }

// Kinds returns the kinds this collector produces.
func (c *ContainerCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindECRRepositories, inventory.KindEKSClusters, inventory.KindECSClusters}
}

// Collect lists all three container services.
func (c *ContainerCollector) Collect(ctx context.Context, cfg ScanConfig) (*Collection, error) {
	coll := &Collection{}
	if !cfg.Exclude.SkipsKind(inventory.KindECRRepositories) {
		records, err := c.repositories(ctx)
		coll.Results = append(coll.Results, resultFor(c.region, inventory.KindECRRepositories, records, err))
	}
	if !cfg.Exclude.SkipsKind(inventory.KindEKSClusters) {
		records, err := c.eksClusters(ctx)
		coll.Results = append(coll.Results, resultFor(c.region, inventory.KindEKSClusters, records, err))
	}
	if !cfg.Exclude.SkipsKind(inventory.KindECSClusters) {
		records, err := c.ecsClusters(ctx)
		coll.Results = append(coll.Results, resultFor(c.region, inventory.KindECSClusters, records, err))
	}
	return coll, nil
}

func (c *ContainerCollector) repositories(ctx context.Context) ([]inventory.Record, error) {
	var repos []ecrtypes.Repository
	paginator := ecr.NewDescribeRepositoriesPaginator(c.ecr, &ecr.DescribeRepositoriesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe ECR repositories: %w", err)
		}
		repos = append(repos, page.Repositories...)
	}

	records := make([]inventory.Record, 0, len(repos))
	for _, repo := range repos {
		arn := deref(repo.RepositoryArn)
		r := newRecord(inventory.KindECRRepositories, arn, deref(repo.RepositoryName), c.region, c.repositoryTags(ctx, arn))
		var a attrList
		a.add("URI", deref(repo.RepositoryUri))
		a.add("Tag Mutability", string(repo.ImageTagMutability))
		if repo.ImageScanningConfiguration != nil {
			a.add("Scan on Push", strconv.FormatBool(repo.ImageScanningConfiguration.ScanOnPush))
		}
		a.addTime("Created", repo.CreatedAt)
		r.Attrs = a
		records = append(records, r)
	}
	return records, nil
}

func (c *ContainerCollector) repositoryTags(ctx context.Context, arn string) inventory.TagSet {
	out, err := c.ecr.ListTagsForResource(ctx, &ecr.ListTagsForResourceInput{ResourceArn: &arn})
	if err != nil {
		slog.Debug("Failed to list repository tags", "repository", arn, "error", err)
		return nil
	}
	pairs := make(inventory.Pairs, 0, len(out.Tags))
	for _, t := range out.Tags {
		pairs = append(pairs, inventory.Tag{Key: deref(t.Key), Value: deref(t.Value)})
	}
	return pairs
}

func (c *ContainerCollector) eksClusters(ctx context.Context) ([]inventory.Record, error) {
	var names []string
	paginator := eks.NewListClustersPaginator(c.eks, &eks.ListClustersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list EKS clusters: %w", err)
		}
		names = append(names, page.Clusters...)
	}

	records := make([]inventory.Record, 0, len(names))
	for _, name := range names {
		out, err := c.eks.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: &name})
		if err != nil {
			slog.Warn("Failed to describe EKS cluster", "cluster", name, "region", c.region, "error", err)
			continue
		}
		cl := out.Cluster
		if cl == nil {
			continue
		}
		r := newRecord(inventory.KindEKSClusters, deref(cl.Arn), name, c.region, inventory.Map(cl.Tags))
		var a attrList
		a.add("Version", deref(cl.Version))
		a.add("Status", string(cl.Status))
		a.add("Endpoint", deref(cl.Endpoint))
		a.add("Node Groups", strings.Join(c.nodegroups(ctx, name), ", "))
		a.addTime("Created", cl.CreatedAt)
		r.Attrs = a

		if vpc := cl.ResourcesVpcConfig; vpc != nil {
			r.VpcID = deref(vpc.VpcId)
			r.SubnetIDs = uniqueAppend(nil, vpc.SubnetIds...)
			r.SecurityGroupIDs = uniqueAppend(nil, vpc.SecurityGroupIds...)
			r.SecurityGroupIDs = uniqueAppend(r.SecurityGroupIDs, deref(vpc.ClusterSecurityGroupId))
		}
		records = append(records, r)
	}
	return records, nil
}

func (c *ContainerCollector) nodegroups(ctx context.Context, cluster string) []string {
	var groups []string
	paginator := eks.NewListNodegroupsPaginator(c.eks, &eks.ListNodegroupsInput{ClusterName: &cluster})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			slog.Debug("Failed to list node groups", "cluster", cluster, "error", err)
			return groups
		}
		groups = append(groups, page.Nodegroups...)
	}
	return groups
}

func (c *ContainerCollector) ecsClusters(ctx context.Context) ([]inventory.Record, error) {
	var arns []string
	paginator := ecs.NewListClustersPaginator(c.ecs, &ecs.ListClustersInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list ECS clusters: %w", err)
		}
		arns = append(arns, page.ClusterArns...)
	}

	var records []inventory.Record
	for _, batch := range chunk(arns, ecsClusterBatch) {
		out, err := c.ecs.DescribeClusters(ctx, &ecs.DescribeClustersInput{
			Clusters: batch,
			Include:  []ecstypes.ClusterField{ecstypes.ClusterFieldTags},
		})
		if err != nil {
			return nil, fmt.Errorf("describe ECS clusters: %w", err)
		}
		for _, cl := range out.Clusters {
			records = append(records, c.ecsCluster(ctx, cl))
		}
	}
	return records, nil
}

// ecsCluster builds the cluster record. Its network placement is the union
// of its awsvpc services.
func (c *ContainerCollector) ecsCluster(ctx context.Context, cl ecstypes.Cluster) inventory.Record {
	arn := deref(cl.ClusterArn)
	pairs := make(inventory.Pairs, 0, len(cl.Tags))
	for _, t := range cl.Tags {
		pairs = append(pairs, inventory.Tag{Key: deref(t.Key), Value: deref(t.Value)})
	}
	r := newRecord(inventory.KindECSClusters, arn, deref(cl.ClusterName), c.region, pairs)

	var a attrList
	a.add("Status", deref(cl.Status))
	a.add("Running Tasks", strconv.Itoa(int(cl.RunningTasksCount)))
	a.add("Active Services", strconv.Itoa(int(cl.ActiveServicesCount)))
	r.Attrs = a

	services, err := c.ecsServices(ctx, arn)
	if err != nil {
		slog.Warn("Failed to describe ECS services", "cluster", r.Name, "region", c.region, "error", err)
	}
	for _, svc := range services {
		child := newRecord(inventory.KindECSServices, deref(svc.ServiceArn), deref(svc.ServiceName), c.region, nil)
		var sa attrList
		sa.add("Status", deref(svc.Status))
		sa.add("Launch Type", string(svc.LaunchType))
		sa.add("Desired", strconv.Itoa(int(svc.DesiredCount)))
		sa.add("Running", strconv.Itoa(int(svc.RunningCount)))
		child.Attrs = sa
		if nc := svc.NetworkConfiguration; nc != nil && nc.AwsvpcConfiguration != nil {
			child.SubnetIDs = uniqueAppend(nil, nc.AwsvpcConfiguration.Subnets...)
			child.SecurityGroupIDs = uniqueAppend(nil, nc.AwsvpcConfiguration.SecurityGroups...)
			r.SubnetIDs = uniqueAppend(r.SubnetIDs, child.SubnetIDs...)
			r.SecurityGroupIDs = uniqueAppend(r.SecurityGroupIDs, child.SecurityGroupIDs...)
		}
		r.Children = append(r.Children, child)
	}
	return r
}

func (c *ContainerCollector) ecsServices(ctx context.Context, clusterARN string) ([]ecstypes.Service, error) {
	var arns []string
	paginator := ecs.NewListServicesPaginator(c.ecs, &ecs.ListServicesInput{Cluster: &clusterARN})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		arns = append(arns, page.ServiceArns...)
	}

	var services []ecstypes.Service
	for _, batch := range chunk(arns, ecsServiceBatch) {
		out, err := c.ecs.DescribeServices(ctx, &ecs.DescribeServicesInput{
			Cluster:  &clusterARN,
			Services: batch,
		})
		if err != nil {
			return services, err
		}
		services = append(services, out.Services...)
	}
	return services, nil
}
