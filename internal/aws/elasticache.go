package aws

import (
	"context"
	"fmt"
	"strconv"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticache"
	ectypes "github.com/aws/aws-sdk-go-v2/service/elasticache/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// ElastiCacheAPI is the minimal interface for ElastiCache operations.
type ElastiCacheAPI interface {
	DescribeReplicationGroups(ctx context.Context, input *elasticache.DescribeReplicationGroupsInput, opts ...func(*elasticache.Options)) (*elasticache.DescribeReplicationGroupsOutput, error)
	DescribeCacheClusters(ctx context.Context, input *elasticache.DescribeCacheClustersInput, opts ...func(*elasticache.Options)) (*elasticache.DescribeCacheClustersOutput, error)
}

// ElastiCacheCollector lists Redis replication groups and cache clusters
// that belong to no replication group, such as Memcached.
type ElastiCacheCollector struct {
	client ElastiCacheAPI
	region string
}

// NewElastiCacheCollector creates a collector for ElastiCache.
func NewElastiCacheCollector(client ElastiCacheAPI, region string) *ElastiCacheCollector {
	return &ElastiCacheCollector{client: client, region: region}
}

// Name returns the collector name.
func (c *ElastiCacheCollector) Name() string { return "elasticache" }

// Kinds returns the kinds this collector produces.
func (c *ElastiCacheCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindElastiCacheClusters}
}

// Collect lists replication groups first, then standalone clusters.
func (c *ElastiCacheCollector) Collect(ctx context.Context, _ ScanConfig) (*Collection, error) {
	clusters, err := c.listCacheClusters(ctx)
	if err != nil {
		return &Collection{Results: []inventory.Result{
			resultFor(c.region, inventory.KindElastiCacheClusters, nil, fmt.Errorf("describe cache clusters: %w", err)),
		}}, nil
	}
	groups, err := c.listReplicationGroups(ctx)
	if err != nil {
		return &Collection{Results: []inventory.Result{
			resultFor(c.region, inventory.KindElastiCacheClusters, nil, fmt.Errorf("describe replication groups: %w", err)),
		}}, nil
	}

	byID := make(map[string]ectypes.CacheCluster, len(clusters))
	for _, cl := range clusters {
		byID[deref(cl.CacheClusterId)] = cl
	}

	var records []inventory.Record
	for _, g := range groups {
		id := deref(g.ReplicationGroupId)
		r := newRecord(inventory.KindElastiCacheClusters, id, id, c.region, nil)

		engine := "redis"
		for _, member := range g.MemberClusters {
			cl, ok := byID[member]
			if !ok {
				continue
			}
			for _, sg := range cl.SecurityGroups {
				r.SecurityGroupIDs = uniqueAppend(r.SecurityGroupIDs, deref(sg.SecurityGroupId))
			}
			if e := deref(cl.Engine); e != "" {
				engine = e
			}
		}

		var a attrList
		a.add("Engine", engine)
		a.add("Node Type", deref(g.CacheNodeType))
		a.add("Status", deref(g.Status))
		a.add("Endpoint", replicationGroupEndpoint(g))
		a.add("Members", strconv.Itoa(len(g.MemberClusters)))
		a.add("Description", deref(g.Description))
		r.Attrs = a
		records = append(records, r)
	}

	for _, cl := range clusters {
		if deref(cl.ReplicationGroupId) != "" {
			continue
		}
		id := deref(cl.CacheClusterId)
		r := newRecord(inventory.KindElastiCacheClusters, id, id, c.region, nil)

		var a attrList
		engine := deref(cl.Engine)
		if v := deref(cl.EngineVersion); v != "" {
			engine += " (" + v + ")"
		}
		a.add("Engine", engine)
		a.add("Node Type", deref(cl.CacheNodeType))
		a.add("Status", deref(cl.CacheClusterStatus))
		a.add("Endpoint", cacheClusterEndpoint(cl))
		a.addInt("Nodes", cl.NumCacheNodes)
		r.Attrs = a

		for _, sg := range cl.SecurityGroups {
			r.SecurityGroupIDs = uniqueAppend(r.SecurityGroupIDs, deref(sg.SecurityGroupId))
		}
		records = append(records, r)
	}

	return &Collection{Results: []inventory.Result{
		resultFor(c.region, inventory.KindElastiCacheClusters, records, nil),
	}}, nil
}

func replicationGroupEndpoint(g ectypes.ReplicationGroup) string {
	if e := g.ConfigurationEndpoint; e != nil {
		return endpoint(e.Address, e.Port)
	}
	for _, ng := range g.NodeGroups {
		if e := ng.PrimaryEndpoint; e != nil {
			return endpoint(e.Address, e.Port)
		}
	}
	return ""
}

func cacheClusterEndpoint(cl ectypes.CacheCluster) string {
	if e := cl.ConfigurationEndpoint; e != nil {
		return endpoint(e.Address, e.Port)
	}
	for _, n := range cl.CacheNodes {
		if e := n.Endpoint; e != nil {
			return endpoint(e.Address, e.Port)
		}
	}
	return ""
}

func (c *ElastiCacheCollector) listReplicationGroups(ctx context.Context) ([]ectypes.ReplicationGroup, error) {
	var groups []ectypes.ReplicationGroup
	paginator := elasticache.NewDescribeReplicationGroupsPaginator(c.client, &elasticache.DescribeReplicationGroupsInput{})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		groups = append(groups, page.ReplicationGroups...)
	}
	return groups, nil
}

func (c *ElastiCacheCollector) listCacheClusters(ctx context.Context) ([]ectypes.CacheCluster, error) {
	var clusters []ectypes.CacheCluster
	paginator := elasticache.NewDescribeCacheClustersPaginator(c.client, &elasticache.DescribeCacheClustersInput{
		ShowCacheNodeInfo: awssdk.Bool(true),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, page.CacheClusters...)
	}
	return clusters, nil
}
