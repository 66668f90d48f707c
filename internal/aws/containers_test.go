package aws

import (
	"context"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

type mockECRClient struct {
	repos []ecrtypes.Repository
	err   error
}

func (m *mockECRClient) DescribeRepositories(_ context.Context, _ *ecr.DescribeRepositoriesInput, _ ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &ecr.DescribeRepositoriesOutput{Repositories: m.repos}, nil
}

func (m *mockECRClient) ListTagsForResource(_ context.Context, _ *ecr.ListTagsForResourceInput, _ ...func(*ecr.Options)) (*ecr.ListTagsForResourceOutput, error) {
	return &ecr.ListTagsForResourceOutput{
		Tags: []ecrtypes.Tag{{Key: awssdk.String("env"), Value: awssdk.String("qa")}},
	}, nil
}

type mockEKSClient struct {
	clusters map[string]*ekstypes.Cluster
	err      error
}

func (m *mockEKSClient) ListClusters(_ context.Context, _ *eks.ListClustersInput, _ ...func(*eks.Options)) (*eks.ListClustersOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	var names []string
	for name := range m.clusters {
		names = append(names, name)
	}
	return &eks.ListClustersOutput{Clusters: names}, nil
}

func (m *mockEKSClient) DescribeCluster(_ context.Context, input *eks.DescribeClusterInput, _ ...func(*eks.Options)) (*eks.DescribeClusterOutput, error) {
	return &eks.DescribeClusterOutput{Cluster: m.clusters[*input.Name]}, nil
}

func (m *mockEKSClient) ListNodegroups(_ context.Context, _ *eks.ListNodegroupsInput, _ ...func(*eks.Options)) (*eks.ListNodegroupsOutput, error) {
	return &eks.ListNodegroupsOutput{Nodegroups: []string{"workers"}}, nil
}

type mockECSClient struct {
	clusters []ecstypes.Cluster
	services []ecstypes.Service
	err      error

	describeServiceCalls int
}

func (m *mockECSClient) ListClusters(_ context.Context, _ *ecs.ListClustersInput, _ ...func(*ecs.Options)) (*ecs.ListClustersOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	var arns []string
	for _, c := range m.clusters {
		arns = append(arns, *c.ClusterArn)
	}
	return &ecs.ListClustersOutput{ClusterArns: arns}, nil
}

func (m *mockECSClient) DescribeClusters(_ context.Context, _ *ecs.DescribeClustersInput, _ ...func(*ecs.Options)) (*ecs.DescribeClustersOutput, error) {
	return &ecs.DescribeClustersOutput{Clusters: m.clusters}, nil
}

func (m *mockECSClient) ListServices(_ context.Context, _ *ecs.ListServicesInput, _ ...func(*ecs.Options)) (*ecs.ListServicesOutput, error) {
	var arns []string
	for _, s := range m.services {
		arns = append(arns, *s.ServiceArn)
	}
	return &ecs.ListServicesOutput{ServiceArns: arns}, nil
}

func (m *mockECSClient) DescribeServices(_ context.Context, input *ecs.DescribeServicesInput, _ ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error) {
	m.describeServiceCalls++
	wanted := make(map[string]bool, len(input.Services))
	for _, arn := range input.Services {
		wanted[arn] = true
	}
	var out []ecstypes.Service
	for _, s := range m.services {
		if wanted[*s.ServiceArn] {
			out = append(out, s)
		}
	}
	return &ecs.DescribeServicesOutput{Services: out}, nil
}

func awsvpcService(name string, subnets, groups []string) ecstypes.Service {
	return ecstypes.Service{
		ServiceArn:   awssdk.String("arn:aws:ecs:us-east-1:1:service/main/" + name),
		ServiceName:  awssdk.String(name),
		Status:       awssdk.String("ACTIVE"),
		LaunchType:   ecstypes.LaunchTypeFargate,
		DesiredCount: 2,
		RunningCount: 2,
		NetworkConfiguration: &ecstypes.NetworkConfiguration{
			AwsvpcConfiguration: &ecstypes.AwsVpcConfiguration{Subnets: subnets, SecurityGroups: groups},
		},
	}
}

func testContainerClients() (*mockECRClient, *mockEKSClient, *mockECSClient) {
	ecrClient := &mockECRClient{repos: []ecrtypes.Repository{{
		RepositoryArn:              awssdk.String("arn:aws:ecr:us-east-1:1:repository/api"),
		RepositoryName:             awssdk.String("api"),
		RepositoryUri:              awssdk.String("1.dkr.ecr.us-east-1.amazonaws.com/api"),
		ImageTagMutability:         ecrtypes.ImageTagMutabilityImmutable,
		ImageScanningConfiguration: &ecrtypes.ImageScanningConfiguration{ScanOnPush: true},
	}}}
	eksClient := &mockEKSClient{clusters: map[string]*ekstypes.Cluster{
		"platform-dev": {
			Arn:     awssdk.String("arn:aws:eks:us-east-1:1:cluster/platform-dev"),
			Name:    awssdk.String("platform-dev"),
			Version: awssdk.String("1.30"),
			Status:  ekstypes.ClusterStatusActive,
			ResourcesVpcConfig: &ekstypes.VpcConfigResponse{
				VpcId:                  awssdk.String("vpc-1"),
				SubnetIds:              []string{"subnet-a"},
				SecurityGroupIds:       []string{"sg-extra"},
				ClusterSecurityGroupId: awssdk.String("sg-cluster"),
			},
		},
	}}
	ecsClient := &mockECSClient{
		clusters: []ecstypes.Cluster{{
			ClusterArn:  awssdk.String("arn:aws:ecs:us-east-1:1:cluster/main"),
			ClusterName: awssdk.String("main"),
			Status:      awssdk.String("ACTIVE"),
			Tags:        []ecstypes.Tag{{Key: awssdk.String("Deployment"), Value: awssdk.String("prod")}},
		}},
		services: []ecstypes.Service{
			awsvpcService("web", []string{"subnet-a"}, []string{"sg-web"}),
			awsvpcService("worker", []string{"subnet-a", "subnet-b"}, []string{"sg-web", "sg-worker"}),
		},
	}
	return ecrClient, eksClient, ecsClient
}

func resultByKind(t *testing.T, coll *Collection, kind inventory.Kind) inventory.Result {
	t.Helper()
	for _, r := range coll.Results {
		if r.Kind == kind {
			return r
		}
	}
	t.Fatalf("no result for %s", kind)
	return inventory.Result{}
}

func TestContainerCollector_Records(t *testing.T) {
	ecrClient, eksClient, ecsClient := testContainerClients()
	coll, err := NewContainerCollector(ecrClient, eksClient, ecsClient, "us-east-1").Collect(context.Background(), ScanConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(coll.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(coll.Results))
	}

	repo := resultByKind(t, coll, inventory.KindECRRepositories).Records[0]
	if repo.Name != "api" || repo.Environment != "qa" || repo.Attr("Scan on Push") != "true" {
		t.Fatalf("unexpected repository %+v", repo)
	}

	cluster := resultByKind(t, coll, inventory.KindEKSClusters).Records[0]
	if cluster.Environment != "dev" || cluster.Attr("Node Groups") != "workers" {
		t.Fatalf("unexpected EKS cluster %+v", cluster)
	}
	if len(cluster.SecurityGroupIDs) != 2 || cluster.SecurityGroupIDs[1] != "sg-cluster" {
		t.Fatalf("expected cluster security group, got %v", cluster.SecurityGroupIDs)
	}
}

func TestContainerCollector_ECSServiceUnion(t *testing.T) {
	ecrClient, eksClient, ecsClient := testContainerClients()
	coll, _ := NewContainerCollector(ecrClient, eksClient, ecsClient, "us-east-1").Collect(context.Background(), ScanConfig{})

	cl := resultByKind(t, coll, inventory.KindECSClusters).Records[0]
	if cl.Environment != "prod" {
		t.Fatalf("expected prod from tag, got %q", cl.Environment)
	}
	if len(cl.Children) != 2 || cl.Children[0].Kind != inventory.KindECSServices {
		t.Fatalf("expected 2 service children, got %+v", cl.Children)
	}
	if got := cl.SecurityGroupIDs; len(got) != 2 || got[0] != "sg-web" || got[1] != "sg-worker" {
		t.Fatalf("unexpected group union %v", got)
	}
	if got := cl.SubnetIDs; len(got) != 2 || got[1] != "subnet-b" {
		t.Fatalf("unexpected subnet union %v", got)
	}
	if cl.Children[0].Attr("Launch Type") != "FARGATE" || cl.Children[0].Attr("Desired") != "2" {
		t.Fatalf("unexpected service attrs %+v", cl.Children[0].Attrs)
	}
}

func TestContainerCollector_ServiceBatches(t *testing.T) {
	ecrClient, eksClient, ecsClient := testContainerClients()
	ecsClient.services = nil
	for i := 0; i < 25; i++ {
		ecsClient.services = append(ecsClient.services, awsvpcService("svc-"+string(rune('a'+i)), nil, nil))
	}
	coll, _ := NewContainerCollector(ecrClient, eksClient, ecsClient, "us-east-1").Collect(context.Background(), ScanConfig{})

	if ecsClient.describeServiceCalls != 3 {
		t.Fatalf("expected 3 DescribeServices calls, got %d", ecsClient.describeServiceCalls)
	}
	if cl := resultByKind(t, coll, inventory.KindECSClusters).Records[0]; len(cl.Children) != 25 {
		t.Fatalf("expected 25 services, got %d", len(cl.Children))
	}
}

func TestContainerCollector_PerKindFailure(t *testing.T) {
	ecrClient, eksClient, ecsClient := testContainerClients()
	eksClient.err = apiError("AccessDeniedException")
	ecsClient.err = apiError("ServerException")

	coll, _ := NewContainerCollector(ecrClient, eksClient, ecsClient, "us-east-1").Collect(context.Background(), ScanConfig{})

	if res := resultByKind(t, coll, inventory.KindECRRepositories); res.Status != inventory.StatusOK {
		t.Fatalf("expected ECR ok, got %+v", res)
	}
	if res := resultByKind(t, coll, inventory.KindEKSClusters); res.Status != inventory.StatusDenied {
		t.Fatalf("expected EKS denied, got %+v", res)
	}
	if res := resultByKind(t, coll, inventory.KindECSClusters); res.Status != inventory.StatusFailed {
		t.Fatalf("expected ECS failed, got %+v", res)
	}
}

func TestContainerCollector_SkipsExcludedKinds(t *testing.T) {
	ecrClient, eksClient, ecsClient := testContainerClients()
	cfg := ScanConfig{Exclude: ExcludeConfig{Kinds: map[inventory.Kind]bool{inventory.KindEKSClusters: true}}}

	coll, _ := NewContainerCollector(ecrClient, eksClient, ecsClient, "us-east-1").Collect(context.Background(), cfg)
	if len(coll.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(coll.Results))
	}
	for _, r := range coll.Results {
		if r.Kind == inventory.KindEKSClusters {
			t.Fatal("excluded kind must not be collected")
		}
	}
}
