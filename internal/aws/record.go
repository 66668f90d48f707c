package aws

import (
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/awsatlas/internal/inventory"
)

// newRecord builds a record and classifies it from its name and tags.
func newRecord(kind inventory.Kind, id, name, region string, tags inventory.TagSet) inventory.Record {
	if name == "" {
		name = id
	}
	return inventory.Record{
		Kind:        kind,
		ID:          id,
		Name:        name,
		Environment: inventory.Classify(name, tags),
		Tags:        tags,
		Region:      region,
	}
}

// attrList accumulates display attributes, dropping empty values.
type attrList []inventory.Attr

func (a *attrList) add(key, value string) {
	if value == "" {
		return
	}
	*a = append(*a, inventory.Attr{Key: key, Value: value})
}

func (a *attrList) addInt(key string, v *int32) {
	if v != nil {
		a.add(key, strconv.Itoa(int(*v)))
	}
}

func (a *attrList) addTime(key string, t *time.Time) {
	if t != nil && !t.IsZero() {
		a.add(key, t.UTC().Format(time.RFC3339))
	}
}

func (a *attrList) addBool(key string, v *bool) {
	if v != nil {
		a.add(key, strconv.FormatBool(*v))
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// endpoint joins an address and optional port.
func endpoint(addr *string, port *int32) string {
	a := deref(addr)
	if a == "" || port == nil {
		return a
	}
	return a + ":" + strconv.Itoa(int(*port))
}

// uniqueAppend appends values not already present in dst.
func uniqueAppend(dst []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// chunk splits items into slices of at most size elements.
func chunk(items []string, size int) [][]string {
	var out [][]string
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

// arnResource returns everything after the fifth colon of an ARN, e.g.
// "arn:aws:s3:::bucket" becomes "bucket".
func arnResource(arn string) string {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) < 6 {
		return ""
	}
	return parts[5]
}
