package aws

import (
	"testing"

	"github.com/ppiankov/awsatlas/internal/inventory"
)

func TestExcludeConfig_ShouldExclude(t *testing.T) {
	ex := ExcludeConfig{
		ResourceIDs: map[string]bool{"i-keep-out": true},
		Tags:        map[string]string{"atlas": "ignore", "scratch": ""},
	}

	tests := []struct {
		name string
		id   string
		tags map[string]string
		want bool
	}{
		{"id match", "i-keep-out", nil, true},
		{"tag value match", "i-1", map[string]string{"atlas": "ignore"}, true},
		{"tag value mismatch", "i-1", map[string]string{"atlas": "keep"}, false},
		{"key only rule", "i-1", map[string]string{"scratch": "anything"}, true},
		{"no match", "i-1", map[string]string{"team": "core"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ex.ShouldExclude(tt.id, tt.tags); got != tt.want {
				t.Fatalf("ShouldExclude(%q, %v) = %v, want %v", tt.id, tt.tags, got, tt.want)
			}
		})
	}
}

func TestExcludeConfig_SkipsKind(t *testing.T) {
	ex := ExcludeConfig{Kinds: map[inventory.Kind]bool{inventory.KindS3Buckets: true}}
	if !ex.SkipsKind(inventory.KindS3Buckets) {
		t.Fatal("expected s3 to be skipped")
	}
	if ex.SkipsKind(inventory.KindFunctions) {
		t.Fatal("functions should not be skipped")
	}
	var zero ExcludeConfig
	if zero.SkipsKind(inventory.KindFunctions) || zero.ShouldExclude("x", nil) {
		t.Fatal("zero config excludes nothing")
	}
}
