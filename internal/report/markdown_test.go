package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ppiankov/awsatlas/internal/inventory"
)

func renderMarkdown(t *testing.T, env string, data Data) string {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, env, data); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	return buf.String()
}

func TestWriteMarkdown_Sections(t *testing.T) {
	out := renderMarkdown(t, "prod", testData(t))

	for _, want := range []string{
		"## ENVIRONMENT: `PROD`",
		"account `123456789012`",
		"### EC2 Instances",
		"* **prod-web-1** (`i-1`)",
		"  * Type: `t3.micro`",
		"  * Subnets: `subnet-a (prod-private-a)`",
		"  * Security Groups: `sg-web (prod-web)`",
		"### Security Groups",
		"Allows port 443 (TCP) from `0.0.0.0/0`",
		"Allows all ports (All) to `0.0.0.0/0`",
		"Allows ports 8080-8090 (TCP) from group `sg-web (prod-web)`",
		"**Used by:** EC2: prod-web-1",
		"**Used by:** Lambda: prod-handler",
		"### Lambda Functions",
		"Environment Variables: `DB_PASSWORD`, `TABLE`",
		"### RDS Instances\n\n_(NO IAM ACCESS)_",
		"### SQS Queues\n\n_(COLLECTION FAILED: throttled)_",
		"### DynamoDB Tables",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	if strings.Contains(out, "s3cr3t") {
		t.Fatal("environment variable value leaked into documentation")
	}
	if strings.Contains(out, "dev-handler") {
		t.Fatal("dev record rendered in prod documentation")
	}
	if strings.Contains(out, "Region:") {
		t.Fatal("single-region scan should not print regions per record")
	}
}

func TestWriteMarkdown_SectionOrder(t *testing.T) {
	out := renderMarkdown(t, "prod", testData(t))

	last := -1
	for _, title := range []string{"### EC2 Instances", "### Security Groups", "### Lambda Functions", "### RDS Instances", "### DynamoDB Tables", "### SQS Queues"} {
		i := strings.Index(out, title)
		if i < 0 {
			t.Fatalf("missing %s", title)
		}
		if i < last {
			t.Fatalf("%s out of declaration order", title)
		}
		last = i
	}
}

func TestWriteMarkdown_SkipsEmptyKinds(t *testing.T) {
	out := renderMarkdown(t, "dev", testData(t))

	if !strings.Contains(out, "* **dev-handler**") {
		t.Fatalf("expected dev function, got:\n%s", out)
	}
	for _, absent := range []string{"### EC2 Instances", "### Security Groups", "### DynamoDB Tables", "### S3 Buckets"} {
		if strings.Contains(out, absent) {
			t.Errorf("unexpected section %q in dev documentation", absent)
		}
	}
	// unavailable kinds are reported in every environment
	if !strings.Contains(out, "_(NO IAM ACCESS)_") {
		t.Fatal("expected denied notice in dev documentation")
	}
}

func TestWriteMarkdown_MultiRegion(t *testing.T) {
	data := testData(t)
	data.Regions = []string{"us-east-1", "eu-west-1"}

	out := renderMarkdown(t, "prod", data)
	if !strings.Contains(out, "  * Region: `us-east-1`") {
		t.Fatalf("expected region line, got:\n%s", out)
	}
}

func TestWriteMarkdown_Details(t *testing.T) {
	inv := inventory.New()
	lb := testRecord(inventory.KindLoadBalancers, "arn:lb", "prod-edge")
	lb.Listeners = []inventory.Listener{{
		Port:     443,
		Protocol: "HTTPS",
		TargetGroups: []inventory.TargetGroup{
			{Name: "web-tg", Targets: []inventory.Target{{ID: "i-9", Port: 80, Health: "healthy"}}},
			{Name: "idle-tg"},
		},
	}}
	inv.Set(inventory.OK(inventory.KindLoadBalancers, []inventory.Record{lb}))

	api := testRecord(inventory.KindAPIGateways, "a1", "prod-api")
	api.Routes = []inventory.Route{{Key: "GET /users", Target: "prod-users"}, {Key: "$default"}}
	inv.Set(inventory.OK(inventory.KindAPIGateways, []inventory.Record{api}))

	cluster := testRecord(inventory.KindECSClusters, "arn:ecs", "prod-cluster")
	cluster.Children = []inventory.Record{
		{Kind: inventory.KindECSServices, ID: "arn:svc", Name: "checkout", Attrs: []inventory.Attr{{Key: "Desired", Value: "2"}}},
	}
	inv.Set(inventory.OK(inventory.KindECSClusters, []inventory.Record{cluster}))

	q := testRecord(inventory.KindSQSQueues, "arn:q", "prod-jobs")
	q.Links = []inventory.Link{{Kind: inventory.KindSQSQueues, Name: "prod-jobs-dlq", Label: "dead-letters to"}}
	inv.Set(inventory.OK(inventory.KindSQSQueues, []inventory.Record{q}))

	data := dataFor(t, inv)
	out := renderMarkdown(t, "prod", data)

	for _, want := range []string{
		"* Listener `HTTPS:443`",
		"Target Group `web-tg`: `i-9` port 80 healthy",
		"Target Group `idle-tg`: _no targets_",
		"**Routes:**",
		"`GET /users` → `prod-users`",
		"    * `$default`",
		"  * **Services:**",
		"    * **checkout** (`arn:svc`)",
		"      * Desired: `2`",
		"dead-letters to → SQS: prod-jobs-dlq",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestNotice(t *testing.T) {
	tests := []struct {
		res  inventory.Result
		want string
	}{
		{inventory.Denied(inventory.KindS3Buckets), "(NO IAM ACCESS)"},
		{inventory.Failed(inventory.KindS3Buckets, "timeout"), "(COLLECTION FAILED: timeout)"},
		{inventory.Failed(inventory.KindS3Buckets, ""), "(COLLECTION FAILED)"},
	}
	for _, tt := range tests {
		if got := Notice(tt.res); got != tt.want {
			t.Fatalf("Notice(%+v) = %q, want %q", tt.res, got, tt.want)
		}
	}
}

func TestSortedRecords(t *testing.T) {
	in := []inventory.Record{{Name: "b", ID: "2"}, {Name: "a", ID: "9"}, {Name: "b", ID: "1"}}
	out := sortedRecords(in)
	got := []string{out[0].ID, out[1].ID, out[2].ID}
	if strings.Join(got, ",") != "9,1,2" {
		t.Fatalf("order = %v", got)
	}
	if in[0].ID != "2" {
		t.Fatal("sortedRecords modified its input")
	}
}
