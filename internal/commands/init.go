package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initFlags struct {
	force bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate sample config and IAM policy",
	Long:  `Creates a sample .awsatlas.yaml config file and an IAM policy JSON file for read-only access.`,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "Overwrite existing files")
}

func runInit(_ *cobra.Command, _ []string) error {
	configPath := ".awsatlas.yaml"
	policyPath := "awsatlas-policy.json"

	wrote := 0

	if err := writeIfNotExists(configPath, sampleConfig, initFlags.force); err != nil {
		return err
	}
	wrote++

	if err := writeIfNotExists(policyPath, sampleIAMPolicy, initFlags.force); err != nil {
		return err
	}
	wrote++

	if wrote > 0 {
		fmt.Printf("Created %s and %s\n", configPath, policyPath)
		fmt.Println("\nNext steps:")
		fmt.Println("  1. Edit .awsatlas.yaml to choose regions and where reports go")
		fmt.Println("  2. Apply awsatlas-policy.json to your AWS IAM role/user")
		fmt.Println("     (add s3:PutObject on the report bucket when publishing to S3)")
		fmt.Println("  3. Run: awsatlas scan")
	}
	return nil
}

func writeIfNotExists(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("Skipping %s (already exists, use --force to overwrite)\n", path)
			return nil
		}
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return os.WriteFile(path, []byte(content), 0o644)
}

const sampleConfig = `# awsatlas configuration
# See: https://github.com/ppiankov/awsatlas

# AWS profile (or set AWS_PROFILE env var)
# profile: default

# Regions to scan (default: the profile's region). The first region also
# collects account-wide resources such as S3 buckets.
# regions:
#   - us-east-1
#   - eu-west-1
# all_regions: false

# Where reports go. A bucket takes precedence over output_dir.
output_dir: .
# bucket: my-infra-docs
prefix: reports

# Artifacts to publish: markdown, mermaid, json
formats:
  - markdown
  - mermaid
  - json

# Add CloudWatch activity sums (Lambda invocations, SQS messages) over N days
activity_days: 0

# Regions scanned in parallel
concurrency: 4

# Scan timeout
timeout: 10m

# Resources to leave out of the documentation
# exclude:
#   resource_ids:
#     - i-0abc123
#   tags:
#     - "awsatlas:ignore"
#   kinds:
#     - ecr_repositories
`

const sampleIAMPolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Sid": "AwsAtlasReadOnly",
      "Effect": "Allow",
      "Action": [
        "sts:GetCallerIdentity",
        "ec2:DescribeRegions",
        "ec2:DescribeInstances",
        "ec2:DescribeSecurityGroups",
        "ec2:DescribeVpcs",
        "ec2:DescribeSubnets",
        "ec2:DescribeRouteTables",
        "elasticloadbalancing:DescribeLoadBalancers",
        "elasticloadbalancing:DescribeListeners",
        "elasticloadbalancing:DescribeTargetGroups",
        "elasticloadbalancing:DescribeTargetHealth",
        "elasticloadbalancing:DescribeTags",
        "lambda:ListFunctions",
        "lambda:ListTags",
        "lambda:ListEventSourceMappings",
        "s3:ListAllMyBuckets",
        "s3:GetBucketLocation",
        "s3:GetBucketTagging",
        "apigateway:GET",
        "rds:DescribeDBInstances",
        "rds:DescribeDBClusters",
        "rds:ListTagsForResource",
        "cognito-idp:ListUserPools",
        "cognito-idp:DescribeUserPool",
        "cognito-idp:ListUserPoolClients",
        "ecr:DescribeRepositories",
        "ecr:ListTagsForResource",
        "eks:ListClusters",
        "eks:DescribeCluster",
        "eks:ListNodegroups",
        "ecs:ListClusters",
        "ecs:DescribeClusters",
        "ecs:ListServices",
        "ecs:DescribeServices",
        "dynamodb:ListTables",
        "dynamodb:DescribeTable",
        "dynamodb:ListTagsOfResource",
        "elasticache:DescribeReplicationGroups",
        "elasticache:DescribeCacheClusters",
        "sqs:ListQueues",
        "sqs:GetQueueAttributes",
        "sqs:ListQueueTags",
        "kinesis:ListStreams",
        "kinesis:DescribeStreamSummary",
        "kinesis:ListTagsForStream",
        "firehose:ListDeliveryStreams",
        "firehose:DescribeDeliveryStream",
        "firehose:ListTagsForDeliveryStream",
        "cloudwatch:GetMetricData"
      ],
      "Resource": "*"
    }
  ]
}
`
