package config

import (
	"fmt"
	"regexp"
	"strings"
)

var bucketNamePattern = regexp.MustCompile(`^[a-z0-9.-]{3,63}$`)

// ValidationResult splits findings into hard issues (the configuration will
// not work) and warnings (it deviates from the expected conventions but
// should still work).
type ValidationResult struct {
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
}

// OK reports whether validation found no hard issues.
func (r *ValidationResult) OK() bool {
	return len(r.Issues) == 0
}

// Validate checks configuration values and reports issues and warnings.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	bucket := strings.TrimSpace(c.S3BucketName)
	if bucket == "" {
		result.Issues = append(result.Issues, "Missing S3 bucket name")
	} else {
		if !strings.HasPrefix(bucket, "animal-insights-") {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("S3 bucket name %q doesn't follow expected pattern 'animal-insights-*'", bucket))
		}
		if !ValidS3BucketName(bucket) {
			result.Issues = append(result.Issues,
				fmt.Sprintf("S3 bucket name %q contains invalid characters", bucket))
		}
	}

	if strings.TrimSpace(c.AWSRegion) == "" {
		result.Issues = append(result.Issues, "Missing AWS region")
	}

	if arn := strings.TrimSpace(c.SnowflakeRoleARN); arn != "" {
		if !strings.HasPrefix(arn, "arn:aws:iam::") {
			result.Issues = append(result.Issues, "Snowflake role ARN format is invalid")
		} else if !strings.Contains(arn, "snowflake-s3-role") {
			result.Warnings = append(result.Warnings,
				"Snowflake role ARN doesn't contain expected 'snowflake-s3-role' pattern")
		}
	}

	if arn := strings.TrimSpace(c.SageMakerRoleARN); arn != "" {
		if !strings.HasPrefix(arn, "arn:aws:iam::") {
			result.Issues = append(result.Issues, "SageMaker role ARN format is invalid")
		} else if !strings.Contains(arn, "sagemaker-execution-role") {
			result.Warnings = append(result.Warnings,
				"SageMaker role ARN doesn't contain expected 'sagemaker-execution-role' pattern")
		}
	}

	if c.SnowflakeRoleARN != "" && !strings.Contains(c.IntegrationStatus, "ENABLED") {
		result.Warnings = append(result.Warnings, "Snowflake integration may not be fully configured")
	}

	switch c.WarehouseDriver {
	case "", "snowflake", "postgres":
	default:
		result.Issues = append(result.Issues,
			fmt.Sprintf("Unsupported warehouse driver %q (expected snowflake or postgres)", c.WarehouseDriver))
	}

	return result
}

// ValidS3BucketName checks the AWS naming rules for bucket names.
func ValidS3BucketName(bucket string) bool {
	if !bucketNamePattern.MatchString(bucket) {
		return false
	}
	if strings.Contains(bucket, "..") || strings.Contains(bucket, ".-") || strings.Contains(bucket, "-.") {
		return false
	}
	return true
}
