package aws

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

// maxTagResources is the DescribeTags limit per call.
const maxTagResources = 20

var (
	albRequests = activityMetric{"AWS/ApplicationELB", "RequestCount", "LoadBalancer"}
	nlbFlows    = activityMetric{"AWS/NetworkELB", "NewFlowCount", "LoadBalancer"}
)

// ELBAPI is the minimal interface for ELBv2 operations.
type ELBAPI interface {
	DescribeLoadBalancers(ctx context.Context, input *elasticloadbalancingv2.DescribeLoadBalancersInput, opts ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeLoadBalancersOutput, error)
	DescribeListeners(ctx context.Context, input *elasticloadbalancingv2.DescribeListenersInput, opts ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeListenersOutput, error)
	DescribeTargetGroups(ctx context.Context, input *elasticloadbalancingv2.DescribeTargetGroupsInput, opts ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeTargetGroupsOutput, error)
	DescribeTargetHealth(ctx context.Context, input *elasticloadbalancingv2.DescribeTargetHealthInput, opts ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeTargetHealthOutput, error)
	DescribeTags(ctx context.Context, input *elasticloadbalancingv2.DescribeTagsInput, opts ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeTagsOutput, error)
}

// LoadBalancerCollector lists ALBs and NLBs with listeners, forward target
// groups and registered targets.
type LoadBalancerCollector struct {
	client  ELBAPI
	metrics *MetricsFetcher
	region  string
}

// NewLoadBalancerCollector creates a collector for load balancers.
func NewLoadBalancerCollector(client ELBAPI, metrics *MetricsFetcher, region string) *LoadBalancerCollector {
	return &LoadBalancerCollector{client: client, metrics: metrics, region: region}
}

// Name returns the collector name.
func (c *LoadBalancerCollector) Name() string { return "elb" }

// Kinds returns the kinds this collector produces.
func (c *LoadBalancerCollector) Kinds() []inventory.Kind {
	return []inventory.Kind{inventory.KindLoadBalancers}
}

// Collect lists load balancers and their forwarding topology.
func (c *LoadBalancerCollector) Collect(ctx context.Context, cfg ScanConfig) (*Collection, error) {
	lbs, err := c.listLoadBalancers(ctx)
	if err != nil {
		return &Collection{Results: []inventory.Result{
			resultFor(c.region, inventory.KindLoadBalancers, nil, fmt.Errorf("list load balancers: %w", err)),
		}}, nil
	}

	arns := make([]string, 0, len(lbs))
	for _, lb := range lbs {
		arns = append(arns, deref(lb.LoadBalancerArn))
	}
	tags := c.describeTags(ctx, arns)
	activity := c.activity(ctx, lbs, cfg.ActivityDays)

	records := make([]inventory.Record, 0, len(lbs))
	for _, lb := range lbs {
		arn := deref(lb.LoadBalancerArn)
		r := newRecord(inventory.KindLoadBalancers, arn, deref(lb.LoadBalancerName), c.region, tags[arn])

		var a attrList
		a.add("Type", string(lb.Type))
		a.add("Scheme", string(lb.Scheme))
		a.add("DNS", deref(lb.DNSName))
		if lb.State != nil {
			a.add("State", string(lb.State.Code))
		}
		if m, ok := lbMetric(lb.Type); ok {
			if attr, ok := activityAttr(m, cfg.ActivityDays, activity[m], extractLBDimension(arn)); ok {
				a = append(a, attr)
			}
		}
		r.Attrs = a

		r.VpcID = deref(lb.VpcId)
		for _, az := range lb.AvailabilityZones {
			r.SubnetIDs = uniqueAppend(r.SubnetIDs, deref(az.SubnetId))
		}
		r.SecurityGroupIDs = uniqueAppend(nil, lb.SecurityGroups...)

		listeners, err := c.listeners(ctx, arn)
		if err != nil {
			slog.Warn("Failed to describe listeners", "lb", r.Name, "region", c.region, "error", err)
		}
		r.Listeners = listeners
		records = append(records, r)
	}

	return &Collection{Results: []inventory.Result{
		resultFor(c.region, inventory.KindLoadBalancers, records, nil),
	}}, nil
}

func (c *LoadBalancerCollector) listLoadBalancers(ctx context.Context) ([]elbtypes.LoadBalancer, error) {
	var lbs []elbtypes.LoadBalancer
	var marker *string

	for {
		out, err := c.client.DescribeLoadBalancers(ctx, &elasticloadbalancingv2.DescribeLoadBalancersInput{
			Marker: marker,
		})
		if err != nil {
			return nil, err
		}
		lbs = append(lbs, out.LoadBalancers...)
		if out.NextMarker == nil {
			break
		}
		marker = out.NextMarker
	}
	return lbs, nil
}

// listeners resolves each listener's forward target groups and their
// registered targets.
func (c *LoadBalancerCollector) listeners(ctx context.Context, lbARN string) ([]inventory.Listener, error) {
	tgOut, err := c.client.DescribeTargetGroups(ctx, &elasticloadbalancingv2.DescribeTargetGroupsInput{
		LoadBalancerArn: &lbARN,
	})
	if err != nil {
		return nil, fmt.Errorf("describe target groups: %w", err)
	}
	tgNames := make(map[string]string, len(tgOut.TargetGroups))
	for _, tg := range tgOut.TargetGroups {
		tgNames[deref(tg.TargetGroupArn)] = deref(tg.TargetGroupName)
	}

	var listeners []inventory.Listener
	targets := make(map[string][]inventory.Target)
	paginator := elasticloadbalancingv2.NewDescribeListenersPaginator(c.client, &elasticloadbalancingv2.DescribeListenersInput{
		LoadBalancerArn: &lbARN,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe listeners: %w", err)
		}
		for _, l := range page.Listeners {
			listener := inventory.Listener{Protocol: string(l.Protocol)}
			if l.Port != nil {
				listener.Port = *l.Port
			}
			for _, tgARN := range forwardTargetGroups(l.DefaultActions) {
				if _, ok := targets[tgARN]; !ok {
					targets[tgARN] = c.targets(ctx, tgARN)
				}
				name := tgNames[tgARN]
				if name == "" {
					name = targetGroupNameFromARN(tgARN)
				}
				listener.TargetGroups = append(listener.TargetGroups, inventory.TargetGroup{
					ARN:     tgARN,
					Name:    name,
					Targets: targets[tgARN],
				})
			}
			listeners = append(listeners, listener)
		}
	}
	return listeners, nil
}

func (c *LoadBalancerCollector) targets(ctx context.Context, tgARN string) []inventory.Target {
	out, err := c.client.DescribeTargetHealth(ctx, &elasticloadbalancingv2.DescribeTargetHealthInput{
		TargetGroupArn: &tgARN,
	})
	if err != nil {
		slog.Warn("Failed to describe target health", "target_group", tgARN, "error", err)
		return nil
	}
	var targets []inventory.Target
	for _, desc := range out.TargetHealthDescriptions {
		if desc.Target == nil {
			continue
		}
		t := inventory.Target{ID: deref(desc.Target.Id)}
		if desc.Target.Port != nil {
			t.Port = *desc.Target.Port
		}
		if desc.TargetHealth != nil {
			t.Health = string(desc.TargetHealth.State)
		}
		targets = append(targets, t)
	}
	return targets
}

func (c *LoadBalancerCollector) describeTags(ctx context.Context, arns []string) map[string]inventory.TagSet {
	tags := make(map[string]inventory.TagSet, len(arns))
	for _, batch := range chunk(arns, maxTagResources) {
		out, err := c.client.DescribeTags(ctx, &elasticloadbalancingv2.DescribeTagsInput{ResourceArns: batch})
		if err != nil {
			slog.Warn("Failed to describe load balancer tags", "region", c.region, "error", err)
			return tags
		}
		for _, d := range out.TagDescriptions {
			var pairs inventory.Pairs
			for _, t := range d.Tags {
				pairs = append(pairs, inventory.Tag{Key: deref(t.Key), Value: deref(t.Value)})
			}
			tags[deref(d.ResourceArn)] = pairs
		}
	}
	return tags
}

func (c *LoadBalancerCollector) activity(ctx context.Context, lbs []elbtypes.LoadBalancer, days int) map[activityMetric]map[string]float64 {
	dims := make(map[activityMetric][]string)
	for _, lb := range lbs {
		if m, ok := lbMetric(lb.Type); ok {
			if dim := extractLBDimension(deref(lb.LoadBalancerArn)); dim != "" {
				dims[m] = append(dims[m], dim)
			}
		}
	}
	out := make(map[activityMetric]map[string]float64, len(dims))
	for m, ids := range dims {
		out[m] = c.metrics.Activity(ctx, m, ids, days)
	}
	return out
}

func lbMetric(t elbtypes.LoadBalancerTypeEnum) (activityMetric, bool) {
	switch t {
	case elbtypes.LoadBalancerTypeEnumApplication:
		return albRequests, true
	case elbtypes.LoadBalancerTypeEnumNetwork:
		return nlbFlows, true
	}
	return activityMetric{}, false
}

// forwardTargetGroups returns the target group ARNs of forward actions in
// order, without duplicates.
func forwardTargetGroups(actions []elbtypes.Action) []string {
	var arns []string
	for _, a := range actions {
		if a.Type != elbtypes.ActionTypeEnumForward {
			continue
		}
		arns = uniqueAppend(arns, deref(a.TargetGroupArn))
		if a.ForwardConfig != nil {
			for _, tg := range a.ForwardConfig.TargetGroups {
				arns = uniqueAppend(arns, deref(tg.TargetGroupArn))
			}
		}
	}
	return arns
}

// targetGroupNameFromARN extracts the name from
// arn:aws:elasticloadbalancing:region:account:targetgroup/name/id.
func targetGroupNameFromARN(arn string) string {
	res := arnResource(arn)
	parts := strings.Split(res, "/")
	if len(parts) >= 2 && parts[0] == "targetgroup" {
		return parts[1]
	}
	return res
}

// extractLBDimension extracts the CloudWatch dimension value from an ELBv2 ARN.
// Input:  arn:aws:elasticloadbalancing:us-east-1:123456:loadbalancer/app/my-lb/abc123
// Output: app/my-lb/abc123
func extractLBDimension(arn string) string {
	const prefix = "loadbalancer/"
	if i := strings.Index(arn, prefix); i >= 0 {
		return arn[i+len(prefix):]
	}
	return ""
}
