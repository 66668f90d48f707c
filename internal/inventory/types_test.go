package inventory

import "testing"

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, ok := ParseKind(string(k))
		if !ok || got != k {
			t.Fatalf("ParseKind(%q) = %q, %v", k, got, ok)
		}
	}
	for _, s := range []string{"", "subnets", "Instances", "lambda"} {
		if _, ok := ParseKind(s); ok {
			t.Fatalf("ParseKind(%q) should fail", s)
		}
	}
}

func TestKindLabels(t *testing.T) {
	for _, k := range Kinds {
		if k.Label() == string(k) || k.Title() == string(k) {
			t.Fatalf("kind %s has no label or title", k)
		}
	}
	if got := Kind("custom").Label(); got != "custom" {
		t.Fatalf("unknown kind label = %q", got)
	}
}

func TestRecordHelpers(t *testing.T) {
	r := Record{Kind: KindSQSQueues, Name: "jobs", Attrs: []Attr{{Key: "FIFO", Value: "true"}}}
	if r.Attr("FIFO") != "true" || r.Attr("missing") != "" {
		t.Fatalf("Attr lookups wrong: %+v", r.Attrs)
	}
	if r.DisplayLabel() != "SQS: jobs" {
		t.Fatalf("DisplayLabel = %q", r.DisplayLabel())
	}
	if !KindDynamoDBTables.IsDatastore() || KindInstances.IsDatastore() {
		t.Fatal("IsDatastore misclassifies kinds")
	}
}
