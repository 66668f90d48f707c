package commands

import (
	"fmt"
	"strings"

	"github.com/ppiankov/awsatlas/internal/aws"
	"github.com/ppiankov/awsatlas/internal/config"
)

// enhanceError wraps an error with context and suggestions for common AWS issues.
func enhanceError(action string, err error) error {
	msg := err.Error()

	var hint string
	switch {
	case strings.Contains(msg, "NoCredentialProviders") || strings.Contains(msg, "failed to retrieve credentials"):
		hint = "Configure AWS credentials: set AWS_PROFILE, AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY, or run 'aws configure'"
	case strings.Contains(msg, "ExpiredToken"):
		hint = "AWS session token expired. Refresh credentials or run 'aws sso login'"
	case strings.Contains(msg, "AccessDenied") || strings.Contains(msg, "UnauthorizedAccess"):
		hint = "Insufficient permissions. Apply the IAM policy from 'awsatlas init' to your role/user"
	case strings.Contains(msg, "NoSuchBucket"):
		hint = "Report bucket does not exist. Check --bucket or the bucket key in .awsatlas.yaml"
	case strings.Contains(msg, "RequestExpired"):
		hint = "Request expired. Check system clock synchronization"
	case strings.Contains(msg, "Throttling"):
		hint = "AWS API rate limit hit. Retry with fewer regions or increase timeout"
	}

	if hint != "" {
		return fmt.Errorf("%s: %w\n  hint: %s", action, err, hint)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// buildExclude converts the config file exclusions into scanner rules.
func buildExclude(e config.Exclude) (aws.ExcludeConfig, error) {
	kinds, err := e.ParseKinds()
	if err != nil {
		return aws.ExcludeConfig{}, err
	}
	excl := aws.ExcludeConfig{
		Tags:  e.ParseTags(),
		Kinds: kinds,
	}
	if len(e.ResourceIDs) > 0 {
		excl.ResourceIDs = make(map[string]bool, len(e.ResourceIDs))
		for _, id := range e.ResourceIDs {
			excl.ResourceIDs[id] = true
		}
	}
	return excl, nil
}
