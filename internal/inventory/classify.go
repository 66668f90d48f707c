package inventory

import (
	"slices"
	"strings"
)

// NoCategory is the environment of resources that neither a tag nor the name
// could classify. It is rendered like any other environment.
const NoCategory = "no-category"

// EnvKeywords is the environment vocabulary. Order matters: name matching
// returns the first keyword in this list that occurs anywhere in the name.
var EnvKeywords = []string{"prod", "dev", "test", "uat", "qa", "staging", "stg"}

// EnvTagKeys are the tag keys (case-insensitive) that carry an environment.
var EnvTagKeys = []string{"env", "environment", "deployment"}

// Classify returns the environment label for a resource.
//
// A recognized environment tag wins over the name. Otherwise the lower-cased
// name is searched for each keyword in vocabulary order, so
// "my-prod-test-svc" is "prod" regardless of where "test" appears.
func Classify(name string, tags TagSet) string {
	if tags != nil {
		for _, t := range tags.Pairs() {
			if !slices.Contains(EnvTagKeys, strings.ToLower(t.Key)) {
				continue
			}
			v := strings.ToLower(t.Value)
			if slices.Contains(EnvKeywords, v) {
				return v
			}
		}
	}

	lower := strings.ToLower(name)
	for _, env := range EnvKeywords {
		if strings.Contains(lower, env) {
			return env
		}
	}
	return NoCategory
}
