package graph

import (
	"testing"

	"github.com/ppiankov/awsatlas/internal/inventory"
)

func TestFunctionName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"arn:aws:lambda:us-east-1:1:function:orders", "orders", true},
		{"arn:aws:lambda:us-east-1:1:function:orders:live", "orders", true},
		{"arn:aws:apigateway:us-east-1:lambda:path/2015-03-31/functions/arn:aws:lambda:us-east-1:1:function:my_fn-2/invocations", "my_fn-2", true},
		{"https://example.com", "", false},
	}
	for _, tt := range tests {
		got, ok := FunctionName(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("FunctionName(%q) = %q, %v", tt.in, got, ok)
		}
	}
}

func TestSourceFromARN(t *testing.T) {
	tests := []struct {
		arn  string
		kind inventory.Kind
		name string
		ok   bool
	}{
		{"arn:aws:sqs:us-east-1:1:jobs", inventory.KindSQSQueues, "jobs", true},
		{"arn:aws:kinesis:us-east-1:1:stream/clicks", inventory.KindKinesisStreams, "clicks", true},
		{"arn:aws:dynamodb:us-east-1:1:table/users/stream/2024-01-01T00:00:00.000", inventory.KindDynamoDBTables, "users", true},
		{"arn:aws:kafka:us-east-1:1:cluster/x/y", "", "", false},
		{"not-an-arn", "", "", false},
	}
	for _, tt := range tests {
		kind, name, ok := SourceFromARN(tt.arn)
		if kind != tt.kind || name != tt.name || ok != tt.ok {
			t.Fatalf("SourceFromARN(%q) = %s, %s, %v", tt.arn, kind, name, ok)
		}
	}
}

func TestRuleLabel(t *testing.T) {
	tests := []struct {
		rule inventory.Rule
		want string
	}{
		{inventory.Rule{Protocol: "-1"}, "all"},
		{inventory.Rule{Protocol: "tcp", FromPort: int32p(443), ToPort: int32p(443)}, "TCP:443"},
		{inventory.Rule{Protocol: "udp", FromPort: int32p(1000), ToPort: int32p(2000)}, "UDP:1000-2000"},
		{inventory.Rule{Protocol: "icmp"}, "ICMP"},
	}
	for _, tt := range tests {
		if got := RuleLabel(tt.rule); got != tt.want {
			t.Fatalf("RuleLabel(%+v) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}
