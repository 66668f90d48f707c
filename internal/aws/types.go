package aws

import (
	"time"

	"github.com/ppiankov/awsatlas/internal/inventory"
)

// Collection is what one collector gathered in one region.
type Collection struct {
	Results             []inventory.Result
	Subnets             []inventory.Subnet
	EventSourceMappings []inventory.EventSourceMapping
}

// ScanResult holds the inventory merged across all scanned regions.
type ScanResult struct {
	Inventory        *inventory.Inventory
	Errors           []string `json:"errors,omitempty"`
	ResourcesScanned int      `json:"resources_scanned"`
	RegionsScanned   int      `json:"regions_scanned"`
}

// ScanConfig holds parameters that control collection behavior.
type ScanConfig struct {
	// ActivityDays enables CloudWatch activity sums over the given window. Zero disables them.
	ActivityDays int
	Exclude      ExcludeConfig
}

// ExcludeConfig holds resource exclusion rules.
type ExcludeConfig struct {
	ResourceIDs map[string]bool
	Tags        map[string]string
	Kinds       map[inventory.Kind]bool
}

// ShouldExclude reports whether a resource matches an exclusion rule. A tag
// rule with an empty value matches any value of that key.
func (e ExcludeConfig) ShouldExclude(id string, tags map[string]string) bool {
	if e.ResourceIDs[id] {
		return true
	}
	for k, v := range e.Tags {
		tv, ok := tags[k]
		if ok && (v == "" || v == tv) {
			return true
		}
	}
	return false
}

// SkipsKind reports whether every record of kind is excluded.
func (e ExcludeConfig) SkipsKind(kind inventory.Kind) bool {
	return e.Kinds[kind]
}

// ScanProgress reports scanning progress to callers.
type ScanProgress struct {
	Region    string
	Collector string
	Message   string
	Timestamp time.Time
}
