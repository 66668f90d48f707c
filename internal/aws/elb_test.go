package aws

import (
	"context"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

type mockELBClient struct {
	lbs          []elbtypes.LoadBalancer
	listeners    map[string][]elbtypes.Listener
	targetGroups []elbtypes.TargetGroup
	health       map[string][]elbtypes.TargetHealthDescription
	tags         []elbtypes.TagDescription
	err          error
	healthCalls  int
}

func (m *mockELBClient) DescribeLoadBalancers(_ context.Context, _ *elasticloadbalancingv2.DescribeLoadBalancersInput, _ ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeLoadBalancersOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &elasticloadbalancingv2.DescribeLoadBalancersOutput{LoadBalancers: m.lbs}, nil
}

func (m *mockELBClient) DescribeListeners(_ context.Context, input *elasticloadbalancingv2.DescribeListenersInput, _ ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeListenersOutput, error) {
	return &elasticloadbalancingv2.DescribeListenersOutput{Listeners: m.listeners[*input.LoadBalancerArn]}, nil
}

func (m *mockELBClient) DescribeTargetGroups(_ context.Context, _ *elasticloadbalancingv2.DescribeTargetGroupsInput, _ ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeTargetGroupsOutput, error) {
	return &elasticloadbalancingv2.DescribeTargetGroupsOutput{TargetGroups: m.targetGroups}, nil
}

func (m *mockELBClient) DescribeTargetHealth(_ context.Context, input *elasticloadbalancingv2.DescribeTargetHealthInput, _ ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeTargetHealthOutput, error) {
	m.healthCalls++
	return &elasticloadbalancingv2.DescribeTargetHealthOutput{TargetHealthDescriptions: m.health[*input.TargetGroupArn]}, nil
}

func (m *mockELBClient) DescribeTags(_ context.Context, _ *elasticloadbalancingv2.DescribeTagsInput, _ ...func(*elasticloadbalancingv2.Options)) (*elasticloadbalancingv2.DescribeTagsOutput, error) {
	return &elasticloadbalancingv2.DescribeTagsOutput{TagDescriptions: m.tags}, nil
}

const (
	testLBArn = "arn:aws:elasticloadbalancing:us-east-1:123456:loadbalancer/app/edge/abc123"
	testTGArn = "arn:aws:elasticloadbalancing:us-east-1:123456:targetgroup/web-tg/def456"
)

func testELBClient() *mockELBClient {
	return &mockELBClient{
		lbs: []elbtypes.LoadBalancer{
			{
				LoadBalancerArn:   awssdk.String(testLBArn),
				LoadBalancerName:  awssdk.String("edge"),
				Type:              elbtypes.LoadBalancerTypeEnumApplication,
				Scheme:            elbtypes.LoadBalancerSchemeEnumInternetFacing,
				VpcId:             awssdk.String("vpc-1"),
				SecurityGroups:    []string{"sg-web"},
				AvailabilityZones: []elbtypes.AvailabilityZone{{SubnetId: awssdk.String("subnet-a")}},
			},
		},
		listeners: map[string][]elbtypes.Listener{
			testLBArn: {
				{
					Port:     awssdk.Int32(443),
					Protocol: elbtypes.ProtocolEnumHttps,
					DefaultActions: []elbtypes.Action{
						{
							Type:           elbtypes.ActionTypeEnumForward,
							TargetGroupArn: awssdk.String(testTGArn),
							ForwardConfig: &elbtypes.ForwardActionConfig{
								TargetGroups: []elbtypes.TargetGroupTuple{{TargetGroupArn: awssdk.String(testTGArn)}},
							},
						},
					},
				},
				{
					Port:     awssdk.Int32(80),
					Protocol: elbtypes.ProtocolEnumHttp,
					DefaultActions: []elbtypes.Action{
						{Type: elbtypes.ActionTypeEnumRedirect},
					},
				},
			},
		},
		targetGroups: []elbtypes.TargetGroup{
			{TargetGroupArn: awssdk.String(testTGArn), TargetGroupName: awssdk.String("web-tg")},
		},
		health: map[string][]elbtypes.TargetHealthDescription{
			testTGArn: {
				{
					Target:       &elbtypes.TargetDescription{Id: awssdk.String("i-001"), Port: awssdk.Int32(8080)},
					TargetHealth: &elbtypes.TargetHealth{State: elbtypes.TargetHealthStateEnumHealthy},
				},
			},
		},
		tags: []elbtypes.TagDescription{
			{
				ResourceArn: awssdk.String(testLBArn),
				Tags:        []elbtypes.Tag{{Key: awssdk.String("Environment"), Value: awssdk.String("dev")}},
			},
		},
	}
}

func TestLoadBalancerCollector_Topology(t *testing.T) {
	mock := testELBClient()
	coll, err := NewLoadBalancerCollector(mock, nil, "us-east-1").Collect(context.Background(), ScanConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := onlyResult(t, coll)
	if len(res.Records) != 1 {
		t.Fatalf("expected 1 load balancer, got %d", len(res.Records))
	}

	r := res.Records[0]
	if r.ID != testLBArn || r.Name != "edge" || r.Environment != "dev" {
		t.Fatalf("unexpected record %q/%q/%q", r.ID, r.Name, r.Environment)
	}
	if len(r.Listeners) != 2 {
		t.Fatalf("expected 2 listeners, got %d", len(r.Listeners))
	}
	https := r.Listeners[0]
	if https.Port != 443 || https.Protocol != "HTTPS" {
		t.Fatalf("unexpected listener %+v", https)
	}
	if len(https.TargetGroups) != 1 {
		t.Fatalf("expected forward config dedupe, got %d target groups", len(https.TargetGroups))
	}
	tg := https.TargetGroups[0]
	if tg.Name != "web-tg" || len(tg.Targets) != 1 || tg.Targets[0].ID != "i-001" || tg.Targets[0].Port != 8080 {
		t.Fatalf("unexpected target group %+v", tg)
	}
	if len(r.Listeners[1].TargetGroups) != 0 {
		t.Fatal("redirect listener must have no target groups")
	}
	if mock.healthCalls != 1 {
		t.Fatalf("expected 1 health call, got %d", mock.healthCalls)
	}
}

func TestLoadBalancerCollector_Activity(t *testing.T) {
	cw := &mockCloudWatchClient{
		getMetricDataFn: func(_ context.Context, _ *cloudwatch.GetMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error) {
			return &cloudwatch.GetMetricDataOutput{
				MetricDataResults: []cwtypes.MetricDataResult{{Id: awssdk.String("m0"), Values: []float64{5, 7}}},
			}, nil
		},
	}
	coll, _ := NewLoadBalancerCollector(testELBClient(), NewMetricsFetcher(cw), "us-east-1").Collect(context.Background(), ScanConfig{ActivityDays: 7})
	r := onlyResult(t, coll).Records[0]
	if got := r.Attr("RequestCount (7d)"); got != "12" {
		t.Fatalf("expected request count 12, got %q", got)
	}
}

func TestLoadBalancerCollector_Failure(t *testing.T) {
	mock := &mockELBClient{err: apiError("Throttling")}
	coll, _ := NewLoadBalancerCollector(mock, nil, "us-east-1").Collect(context.Background(), ScanConfig{})
	res := onlyResult(t, coll)
	if res.Status != inventory.StatusFailed || res.Reason == "" {
		t.Fatalf("expected failed status with reason, got %+v", res)
	}
}

func TestExtractLBDimension(t *testing.T) {
	if got := extractLBDimension(testLBArn); got != "app/edge/abc123" {
		t.Fatalf("got %q", got)
	}
	if got := extractLBDimension("arn:aws:ec2:foo"); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestTargetGroupNameFromARN(t *testing.T) {
	if got := targetGroupNameFromARN(testTGArn); got != "web-tg" {
		t.Fatalf("got %q", got)
	}
}
