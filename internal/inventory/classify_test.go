package inventory

import "testing"

func TestClassify_TagWinsOverName(t *testing.T) {
	got := Classify("orders-prod-api", Pairs{{Key: "Environment", Value: "DEV"}})
	if got != "dev" {
		t.Fatalf("expected dev from tag, got %s", got)
	}
}

func TestClassify_TagKeysCaseInsensitive(t *testing.T) {
	for _, key := range []string{"env", "ENV", "Environment", "deployment", "Deployment"} {
		got := Classify("unrelated", Pairs{{Key: key, Value: "qa"}})
		if got != "qa" {
			t.Fatalf("key %q: expected qa, got %s", key, got)
		}
	}
}

func TestClassify_UnrecognizedTagValueFallsBackToName(t *testing.T) {
	got := Classify("billing-staging-worker", Pairs{{Key: "env", Value: "production"}})
	if got != "staging" {
		t.Fatalf("expected staging from name, got %s", got)
	}
}

func TestClassify_UnrelatedTagKeyIgnored(t *testing.T) {
	got := Classify("cache", Pairs{{Key: "team", Value: "prod"}})
	if got != NoCategory {
		t.Fatalf("expected %s, got %s", NoCategory, got)
	}
}

func TestClassify_FirstMatchingTagWins(t *testing.T) {
	tags := Pairs{
		{Key: "owner", Value: "data"},
		{Key: "env", Value: "uat"},
		{Key: "environment", Value: "prod"},
	}
	if got := Classify("x", tags); got != "uat" {
		t.Fatalf("expected uat, got %s", got)
	}
}

func TestClassify_KeywordOrderTieBreak(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"my-prod-test-svc", "prod"},
		{"test-then-prod", "prod"},
		{"devops-prod-tools", "prod"},
		{"devops-tools", "dev"},
		{"latest-build", "test"},
		{"qa-stg", "qa"},
		{"STAGING-Queue", "staging"},
		{"stg-cache", "stg"},
	}
	for _, tt := range tests {
		if got := Classify(tt.name, nil); got != tt.want {
			t.Fatalf("Classify(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestClassify_DefaultBucket(t *testing.T) {
	if got := Classify("payments", nil); got != NoCategory {
		t.Fatalf("expected %s, got %s", NoCategory, got)
	}
	if got := Classify("", Pairs{}); got != NoCategory {
		t.Fatalf("expected %s for empty input, got %s", NoCategory, got)
	}
}

func TestClassify_TagShapeAgnostic(t *testing.T) {
	pairs := Pairs{{Key: "Name", Value: "thing"}, {Key: "Env", Value: "Test"}}
	m := Map{"Name": "thing", "Env": "Test"}

	if a, b := Classify("thing", pairs), Classify("thing", m); a != b || a != "test" {
		t.Fatalf("expected identical results test/test, got %s/%s", a, b)
	}
}

func TestMap_PairsSortedByKey(t *testing.T) {
	m := Map{"zeta": "1", "alpha": "2", "mid": "3"}
	pairs := m.Pairs()
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}
	if pairs[0].Key != "alpha" || pairs[1].Key != "mid" || pairs[2].Key != "zeta" {
		t.Fatalf("unexpected order: %v", pairs)
	}
}

func TestMap_DeterministicConflictResolution(t *testing.T) {
	// "deployment" sorts before "env", so its value wins every time.
	m := Map{"env": "prod", "deployment": "dev"}
	for i := 0; i < 20; i++ {
		if got := Classify("x", m); got != "dev" {
			t.Fatalf("iteration %d: expected dev, got %s", i, got)
		}
	}
}

func TestTagValue(t *testing.T) {
	v, ok := TagValue(Pairs{{Key: "Name", Value: "web"}}, "Name")
	if !ok || v != "web" {
		t.Fatalf("expected web, got %q (%v)", v, ok)
	}
	if _, ok := TagValue(nil, "Name"); ok {
		t.Fatal("expected no value for nil tags")
	}
}

func TestTagsToMap(t *testing.T) {
	if TagsToMap(Pairs{}) != nil {
		t.Fatal("expected nil map for empty tags")
	}
	m := TagsToMap(Pairs{{Key: "a", Value: "1"}, {Key: "a", Value: "2"}})
	if m["a"] != "2" {
		t.Fatalf("expected later duplicate to win, got %q", m["a"])
	}
}
