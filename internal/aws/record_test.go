package aws

import (
	"reflect"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/ppiankov/awsatlas/internal/inventory"
)

func TestNewRecord_ClassifiesAndDefaultsName(t *testing.T) {
	r := newRecord(inventory.KindInstances, "i-1", "", "us-east-1", inventory.Pairs{{Key: "Env", Value: "QA"}})
	if r.Name != "i-1" {
		t.Fatalf("expected id as name, got %q", r.Name)
	}
	if r.Environment != "qa" {
		t.Fatalf("expected qa, got %q", r.Environment)
	}

	r = newRecord(inventory.KindFunctions, "arn", "billing-staging-worker", "us-east-1", nil)
	if r.Environment != "staging" {
		t.Fatalf("expected staging, got %q", r.Environment)
	}
}

func TestAttrList_SkipsEmpty(t *testing.T) {
	var a attrList
	a.add("A", "")
	a.add("B", "b")
	a.addInt("C", nil)
	a.addInt("D", awssdk.Int32(3))
	a.addBool("E", awssdk.Bool(false))
	a.addTime("F", nil)

	want := attrList{{Key: "B", Value: "b"}, {Key: "D", Value: "3"}, {Key: "E", Value: "false"}}
	if !reflect.DeepEqual(a, want) {
		t.Fatalf("got %+v", a)
	}
}

func TestEndpoint(t *testing.T) {
	if got := endpoint(awssdk.String("db.local"), awssdk.Int32(5432)); got != "db.local:5432" {
		t.Fatalf("got %q", got)
	}
	if got := endpoint(awssdk.String("db.local"), nil); got != "db.local" {
		t.Fatalf("got %q", got)
	}
	if got := endpoint(nil, awssdk.Int32(1)); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestUniqueAppend(t *testing.T) {
	got := uniqueAppend([]string{"a"}, "b", "a", "", "b", "c")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("got %v", got)
	}
}

func TestChunk(t *testing.T) {
	items := []string{"1", "2", "3", "4", "5"}
	got := chunk(items, 2)
	if len(got) != 3 || len(got[2]) != 1 {
		t.Fatalf("got %v", got)
	}
	if chunk(nil, 2) != nil {
		t.Fatal("expected nil for no items")
	}
}

func TestArnResource(t *testing.T) {
	tests := map[string]string{
		"arn:aws:s3:::logs-bucket":                            "logs-bucket",
		"arn:aws:sqs:us-east-1:123:jobs-dlq":                  "jobs-dlq",
		"arn:aws:kinesis:us-east-1:123:stream/clicks":         "stream/clicks",
		"arn:aws:elasticloadbalancing:r:1:targetgroup/web/ab": "targetgroup/web/ab",
		"nope": "",
	}
	for in, want := range tests {
		if got := arnResource(in); got != want {
			t.Fatalf("arnResource(%q) = %q, want %q", in, got, want)
		}
	}
}
