package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		AWSRegion:        "us-east-1",
		S3BucketName:     "animal-insights-data-abc123",
		SnowflakeRoleARN: "arn:aws:iam::123456789012:role/snowflake-s3-role",
		SageMakerRoleARN: "arn:aws:iam::123456789012:role/sagemaker-execution-role",
		IntegrationStatus: "ENABLED",
		WarehouseDriver:  "snowflake",
	}
}

func TestValidate_AllChecksPass(t *testing.T) {
	result := validConfig().Validate()
	assert.True(t, result.OK())
	assert.Empty(t, result.Issues)
	assert.Empty(t, result.Warnings)
}

func TestValidate_MissingBucketAndRegion(t *testing.T) {
	cfg := validConfig()
	cfg.S3BucketName = ""
	cfg.AWSRegion = "  "

	result := cfg.Validate()
	assert.False(t, result.OK())
	assert.Contains(t, result.Issues, "Missing S3 bucket name")
	assert.Contains(t, result.Issues, "Missing AWS region")
}

func TestValidate_BucketNamePatternWarning(t *testing.T) {
	cfg := validConfig()
	cfg.S3BucketName = "some-other-bucket"

	result := cfg.Validate()
	assert.True(t, result.OK())
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "animal-insights-*")
}

func TestValidate_BadARNs(t *testing.T) {
	cfg := validConfig()
	cfg.SnowflakeRoleARN = "not-an-arn"
	cfg.SageMakerRoleARN = "arn:aws:iam::123456789012:role/some-role"

	result := cfg.Validate()
	assert.Contains(t, result.Issues, "Snowflake role ARN format is invalid")
	assert.Contains(t, result.Warnings, "SageMaker role ARN doesn't contain expected 'sagemaker-execution-role' pattern")
}

func TestValidate_IntegrationStatusWarning(t *testing.T) {
	cfg := validConfig()
	cfg.IntegrationStatus = ""

	result := cfg.Validate()
	assert.True(t, result.OK())
	assert.Contains(t, result.Warnings, "Snowflake integration may not be fully configured")
}

func TestValidate_UnsupportedWarehouseDriver(t *testing.T) {
	cfg := validConfig()
	cfg.WarehouseDriver = "mysql"
	result := cfg.Validate()
	assert.False(t, result.OK())
}

func TestValidS3BucketName(t *testing.T) {
	assert.True(t, ValidS3BucketName("animal-insights-data"))
	assert.True(t, ValidS3BucketName("abc"))
	assert.False(t, ValidS3BucketName("ab"))                  // too short
	assert.False(t, ValidS3BucketName("UPPERCASE-bucket"))    // invalid chars
	assert.False(t, ValidS3BucketName("bad..sequence"))       // invalid sequence
	assert.False(t, ValidS3BucketName("bad.-sequence"))       // invalid sequence
	assert.False(t, ValidS3BucketName("trailing-dot-.bucket")) // invalid sequence
}

func TestSaveAndLoadFile(t *testing.T) {
	cfg := validConfig()
	cfg.SnowflakePassword = "secret"
	path := filepath.Join(t.TempDir(), "config.json")

	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.S3BucketName, loaded.S3BucketName)
	assert.Equal(t, cfg.SnowflakeRoleARN, loaded.SnowflakeRoleARN)
	assert.Equal(t, Version, loaded.Vers)
	assert.NotEmpty(t, loaded.CreatedAt)
	// Secrets never round-trip through config.json.
	assert.Empty(t, loaded.SnowflakePassword)
}

func TestApplyTerraformOutputs(t *testing.T) {
	cfg := &Config{AWSRegion: "us-west-2", SnapshotPath: "data/austin_animal_outcomes.csv"}
	cfg.ApplyTerraformOutputs(map[string]string{
		"s3_bucket_name":               "animal-insights-data-xyz",
		"aws_region":                   "us-east-1",
		"snowflake_role_arn":           "arn:aws:iam::123456789012:role/snowflake-s3-role",
		"snowflake_integration_status": "ENABLED",
	})

	assert.Equal(t, "animal-insights-data-xyz", cfg.S3BucketName)
	assert.Equal(t, "us-east-1", cfg.AWSRegion)
	assert.Equal(t, "arn:aws:iam::123456789012:role/snowflake-s3-role", cfg.SnowflakeRoleARN)
	assert.Equal(t, "ENABLED", cfg.IntegrationStatus)
	// Untouched keys keep their values.
	assert.Equal(t, "data/austin_animal_outcomes.csv", cfg.SnapshotPath)
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "us-east-1", cfg.AWSRegion)
	assert.Equal(t, "ANIMAL_INSIGHTS", cfg.SnowflakeDatabase)
	assert.Equal(t, "snowflake", cfg.WarehouseDriver)
	assert.Equal(t, "8080", cfg.ServerPort)
}
