package graph

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/awsatlas/internal/inventory"
)

var functionARN = regexp.MustCompile(`:function:([A-Za-z0-9_-]+)`)

// FunctionName extracts a Lambda function name from an ARN or any string
// embedding one, such as an API integration URI.
func FunctionName(s string) (string, bool) {
	m := functionARN.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SourceFromARN returns the kind and name of an event source ARN. Queues,
// data streams and table streams are recognized.
//
//	arn:aws:sqs:us-east-1:123:orders            -> sqs_queues, orders
//	arn:aws:kinesis:us-east-1:123:stream/clicks -> kinesis_streams, clicks
//	arn:aws:dynamodb:us-east-1:123:table/users/stream/2024-01-01T00:00:00.000
//	                                            -> dynamodb_tables, users
func SourceFromARN(arn string) (inventory.Kind, string, bool) {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) < 6 || parts[0] != "arn" {
		return "", "", false
	}
	service, resource := parts[2], parts[5]

	switch service {
	case "sqs":
		if resource == "" {
			return "", "", false
		}
		return inventory.KindSQSQueues, resource, true
	case "kinesis":
		if name, ok := segment(resource, "stream"); ok {
			return inventory.KindKinesisStreams, name, true
		}
	case "dynamodb":
		if name, ok := segment(resource, "table"); ok {
			return inventory.KindDynamoDBTables, name, true
		}
	}
	return "", "", false
}

// segment returns the path element following prefix in "prefix/name/...".
func segment(resource, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(resource, prefix+"/")
	if !ok {
		return "", false
	}
	name, _, _ := strings.Cut(rest, "/")
	return name, name != ""
}

// RuleLabel renders a security group rule as "PROTO:ports".
func RuleLabel(r inventory.Rule) string {
	proto := strings.ToUpper(r.Protocol)
	if r.Protocol == "-1" || r.Protocol == "" {
		return "all"
	}
	if r.FromPort == nil || r.ToPort == nil {
		return proto
	}
	if *r.FromPort == *r.ToPort {
		return fmt.Sprintf("%s:%d", proto, *r.FromPort)
	}
	return fmt.Sprintf("%s:%d-%d", proto, *r.FromPort, *r.ToPort)
}
