package inventory

// Kind identifies a category of normalized AWS resource.
type Kind string

const (
	KindInstances           Kind = "instances"
	KindSecurityGroups      Kind = "security_groups"
	KindFunctions           Kind = "functions"
	KindS3Buckets           Kind = "s3_buckets"
	KindAPIGateways         Kind = "api_gateways"
	KindVPCs                Kind = "vpcs"
	KindLoadBalancers       Kind = "load_balancers"
	KindRDSInstances        Kind = "rds_instances"
	KindUserPools           Kind = "user_pools"
	KindECRRepositories     Kind = "ecr_repositories"
	KindEKSClusters         Kind = "eks_clusters"
	KindECSClusters         Kind = "ecs_clusters"
	KindNeptuneClusters     Kind = "neptune_clusters"
	KindDynamoDBTables      Kind = "dynamodb_tables"
	KindElastiCacheClusters Kind = "elasticache_clusters"
	KindSQSQueues           Kind = "sqs_queues"
	KindKinesisStreams      Kind = "kinesis_streams"
	KindFirehoseStreams     Kind = "firehose_streams"
)

// Child kinds describe nested records. They never appear in Kinds and are
// not categorized on their own.
const (
	KindSubnets          Kind = "subnets"
	KindRouteTables      Kind = "route_tables"
	KindECSServices      Kind = "ecs_services"
	KindNeptuneInstances Kind = "neptune_instances"
	KindAppClients       Kind = "app_clients"
)

// Kinds is the fixed declaration order. Every ordered iteration over kinds
// (categorizing, rendering, JSON output) follows it.
var Kinds = []Kind{
	KindInstances,
	KindSecurityGroups,
	KindFunctions,
	KindS3Buckets,
	KindAPIGateways,
	KindVPCs,
	KindLoadBalancers,
	KindRDSInstances,
	KindUserPools,
	KindECRRepositories,
	KindEKSClusters,
	KindECSClusters,
	KindNeptuneClusters,
	KindDynamoDBTables,
	KindElastiCacheClusters,
	KindSQSQueues,
	KindKinesisStreams,
	KindFirehoseStreams,
}

var kindLabels = map[Kind]string{
	KindInstances:           "EC2",
	KindSecurityGroups:      "Security Group",
	KindFunctions:           "Lambda",
	KindS3Buckets:           "S3",
	KindAPIGateways:         "API",
	KindVPCs:                "VPC",
	KindLoadBalancers:       "Load Balancer",
	KindRDSInstances:        "RDS",
	KindUserPools:           "Cognito",
	KindECRRepositories:     "ECR",
	KindEKSClusters:         "EKS",
	KindECSClusters:         "ECS",
	KindNeptuneClusters:     "Neptune",
	KindDynamoDBTables:      "DynamoDB",
	KindElastiCacheClusters: "ElastiCache",
	KindSQSQueues:           "SQS",
	KindKinesisStreams:      "Kinesis",
	KindFirehoseStreams:     "Firehose",
	KindSubnets:             "Subnet",
	KindRouteTables:         "Route Table",
	KindECSServices:         "Service",
	KindNeptuneInstances:    "Instance",
	KindAppClients:          "App Client",
}

var kindTitles = map[Kind]string{
	KindInstances:           "EC2 Instances",
	KindSecurityGroups:      "Security Groups",
	KindFunctions:           "Lambda Functions",
	KindS3Buckets:           "S3 Buckets",
	KindAPIGateways:         "API Gateways",
	KindVPCs:                "VPCs",
	KindLoadBalancers:       "Load Balancers",
	KindRDSInstances:        "RDS Instances",
	KindUserPools:           "Cognito User Pools",
	KindECRRepositories:     "ECR Repositories",
	KindEKSClusters:         "EKS Clusters",
	KindECSClusters:         "ECS Clusters",
	KindNeptuneClusters:     "Neptune Clusters",
	KindDynamoDBTables:      "DynamoDB Tables",
	KindElastiCacheClusters: "ElastiCache Clusters",
	KindSQSQueues:           "SQS Queues",
	KindKinesisStreams:      "Kinesis Data Streams",
	KindFirehoseStreams:     "Firehose Delivery Streams",
	KindSubnets:             "Subnets",
	KindRouteTables:         "Route Tables",
	KindECSServices:         "Services",
	KindNeptuneInstances:    "Instances",
	KindAppClients:          "App Clients",
}

// ParseKind returns the top-level kind named s.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Label returns the short prefix used in "Kind: Name" strings.
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

// Title returns the section heading for the kind.
func (k Kind) Title() string {
	if t, ok := kindTitles[k]; ok {
		return t
	}
	return string(k)
}

// IsDatastore reports whether records of this kind can be the target of an
// inferred function→datastore edge or the source of an event mapping.
func (k Kind) IsDatastore() bool {
	switch k {
	case KindDynamoDBTables, KindSQSQueues, KindKinesisStreams, KindFirehoseStreams, KindS3Buckets:
		return true
	}
	return false
}

// Attr is a single ordered display attribute.
type Attr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Rule is one security group permission.
type Rule struct {
	Protocol   string   `json:"protocol"`
	FromPort   *int32   `json:"from_port,omitempty"`
	ToPort     *int32   `json:"to_port,omitempty"`
	CIDRs      []string `json:"cidrs,omitempty"`
	PeerGroups []string `json:"peer_groups,omitempty"`
	PrefixList []string `json:"prefix_lists,omitempty"`
}

// Target is a member registered in a target group.
type Target struct {
	ID     string `json:"id"`
	Port   int32  `json:"port,omitempty"`
	Health string `json:"health,omitempty"`
}

// TargetGroup is a forward-action destination of a listener.
type TargetGroup struct {
	ARN     string   `json:"arn"`
	Name    string   `json:"name"`
	Targets []Target `json:"targets,omitempty"`
}

// Listener is a load balancer listener with its forward target groups.
type Listener struct {
	Port         int32         `json:"port"`
	Protocol     string        `json:"protocol"`
	TargetGroups []TargetGroup `json:"target_groups,omitempty"`
}

// Route is an API route and its resolved integration target.
type Route struct {
	Key    string `json:"key"`
	Target string `json:"target,omitempty"`
}

// Link is an explicitly declared reference from one record to another,
// resolved by name against the target kind.
type Link struct {
	Kind  Kind   `json:"kind"`
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
}

// Record is a normalized resource. Collectors build records once; nothing
// downstream modifies them.
type Record struct {
	Kind             Kind              `json:"kind"`
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Environment      string            `json:"environment"`
	Tags             TagSet            `json:"-"`
	Region           string            `json:"region,omitempty"`
	VpcID            string            `json:"vpc_id,omitempty"`
	SubnetIDs        []string          `json:"subnet_ids,omitempty"`
	SecurityGroupIDs []string          `json:"security_group_ids,omitempty"`
	Attrs            []Attr            `json:"attrs,omitempty"`
	Ingress          []Rule            `json:"ingress,omitempty"`
	Egress           []Rule            `json:"egress,omitempty"`
	Listeners        []Listener        `json:"listeners,omitempty"`
	Routes           []Route           `json:"routes,omitempty"`
	EnvVars          map[string]string `json:"-"`
	Links            []Link            `json:"links,omitempty"`
	Children         []Record          `json:"children,omitempty"`
}

// Attr returns the value of the named display attribute, or "".
func (r Record) Attr(key string) string {
	for _, a := range r.Attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// DisplayLabel returns the "Kind: Name" form used by the security group usage index.
func (r Record) DisplayLabel() string {
	return r.Kind.Label() + ": " + r.Name
}

// Subnet is an auxiliary lookup entry from an unfiltered subnet listing.
type Subnet struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	VpcID            string `json:"vpc_id"`
	CIDR             string `json:"cidr"`
	AvailabilityZone string `json:"availability_zone"`
}

// EventSourceMapping links a queue, stream or table to a function.
type EventSourceMapping struct {
	UUID           string `json:"uuid"`
	FunctionARN    string `json:"function_arn"`
	EventSourceARN string `json:"event_source_arn"`
	State          string `json:"state,omitempty"`
}
