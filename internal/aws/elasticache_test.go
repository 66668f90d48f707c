package aws

import (
	"context"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticache"
	ectypes "github.com/aws/aws-sdk-go-v2/service/elasticache/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

type mockElastiCacheClient struct {
	groups   []ectypes.ReplicationGroup
	clusters []ectypes.CacheCluster
	err      error
	groupErr error
}

func (m *mockElastiCacheClient) DescribeReplicationGroups(_ context.Context, _ *elasticache.DescribeReplicationGroupsInput, _ ...func(*elasticache.Options)) (*elasticache.DescribeReplicationGroupsOutput, error) {
	if m.groupErr != nil {
		return nil, m.groupErr
	}
	return &elasticache.DescribeReplicationGroupsOutput{ReplicationGroups: m.groups}, nil
}

func (m *mockElastiCacheClient) DescribeCacheClusters(_ context.Context, _ *elasticache.DescribeCacheClustersInput, _ ...func(*elasticache.Options)) (*elasticache.DescribeCacheClustersOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &elasticache.DescribeCacheClustersOutput{CacheClusters: m.clusters}, nil
}

func cacheCluster(id, group, engine, sg string) ectypes.CacheCluster {
	return ectypes.CacheCluster{
		CacheClusterId:     awssdk.String(id),
		ReplicationGroupId: awssdk.String(group),
		Engine:             awssdk.String(engine),
		SecurityGroups:     []ectypes.SecurityGroupMembership{{SecurityGroupId: awssdk.String(sg)}},
	}
}

func TestElastiCacheCollector_Records(t *testing.T) {
	memcached := cacheCluster("sessions-dev", "", "memcached", "sg-cache")
	memcached.NumCacheNodes = awssdk.Int32(2)
	memcached.ConfigurationEndpoint = &ectypes.Endpoint{Address: awssdk.String("sessions.cfg"), Port: awssdk.Int32(11211)}

	mock := &mockElastiCacheClient{
		groups: []ectypes.ReplicationGroup{{
			ReplicationGroupId: awssdk.String("cache-prod"),
			CacheNodeType:      awssdk.String("cache.r6g.large"),
			Status:             awssdk.String("available"),
			MemberClusters:     []string{"cache-prod-001", "cache-prod-002"},
			NodeGroups: []ectypes.NodeGroup{{
				PrimaryEndpoint: &ectypes.Endpoint{Address: awssdk.String("cache.primary"), Port: awssdk.Int32(6379)},
			}},
		}},
		clusters: []ectypes.CacheCluster{
			cacheCluster("cache-prod-001", "cache-prod", "valkey", "sg-redis"),
			cacheCluster("cache-prod-002", "cache-prod", "valkey", "sg-redis"),
			memcached,
		},
	}

	coll, err := NewElastiCacheCollector(mock, "us-east-1").Collect(context.Background(), ScanConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := onlyResult(t, coll)
	if len(res.Records) != 2 {
		t.Fatalf("expected group and standalone cluster, got %d", len(res.Records))
	}

	group := res.Records[0]
	if group.ID != "cache-prod" || group.Environment != "prod" {
		t.Fatalf("unexpected group %+v", group)
	}
	if group.Attr("Engine") != "valkey" || group.Attr("Members") != "2" || group.Attr("Endpoint") != "cache.primary:6379" {
		t.Fatalf("unexpected group attrs %+v", group.Attrs)
	}
	if len(group.SecurityGroupIDs) != 1 || group.SecurityGroupIDs[0] != "sg-redis" {
		t.Fatalf("expected member groups, got %v", group.SecurityGroupIDs)
	}

	mc := res.Records[1]
	if mc.ID != "sessions-dev" || mc.Attr("Nodes") != "2" || mc.Attr("Endpoint") != "sessions.cfg:11211" {
		t.Fatalf("unexpected memcached record %+v", mc)
	}
}

func TestElastiCacheCollector_GroupListingDenied(t *testing.T) {
	mock := &mockElastiCacheClient{groupErr: apiError("AccessDenied")}
	coll, _ := NewElastiCacheCollector(mock, "us-east-1").Collect(context.Background(), ScanConfig{})
	if res := onlyResult(t, coll); res.Status != inventory.StatusDenied {
		t.Fatalf("expected denied, got %+v", res)
	}
}
