package inventory

import "sort"

// Tag is a single key/value pair attached to a resource at the source.
type Tag struct {
	Key   string
	Value string
}

// TagSet is the tag collection of a resource. Sources hand tags over either as
// an ordered list of pairs (EC2, RDS, S3) or as a flat map (Lambda, API
// Gateway, EKS); both normalize to ordered pairs before any matching.
type TagSet interface {
	Pairs() []Tag
	Len() int
}

// Pairs is an ordered list of key/value pairs.
type Pairs []Tag

// Pairs returns the pairs in source order.
func (p Pairs) Pairs() []Tag { return p }

// Len returns the number of pairs.
func (p Pairs) Len() int { return len(p) }

// Map is a flat key→value mapping.
type Map map[string]string

// Pairs returns the entries sorted by key so iteration is deterministic.
func (m Map) Pairs() []Tag {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, Tag{Key: k, Value: m[k]})
	}
	return out
}

// Len returns the number of entries.
func (m Map) Len() int { return len(m) }

// TagValue returns the value of the first tag with the given key.
func TagValue(tags TagSet, key string) (string, bool) {
	if tags == nil {
		return "", false
	}
	for _, t := range tags.Pairs() {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}

// TagsToMap flattens a tag set. Later duplicates win. Returns nil for an empty set.
func TagsToMap(tags TagSet) map[string]string {
	if tags == nil || tags.Len() == 0 {
		return nil
	}
	m := make(map[string]string, tags.Len())
	for _, t := range tags.Pairs() {
		m[t.Key] = t.Value
	}
	return m
}
