package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Version stamped into generated config files.
const Version = "1.0"

// Config carries everything the pipeline and API server need: AWS targets,
// warehouse connection settings, and service wiring. Values come from the
// environment (with a .env file loaded when present) and can be overlaid
// with terraform outputs via ApplyTerraformOutputs.
type Config struct {
	AWSRegion        string `json:"aws_region"`
	S3BucketName     string `json:"s3_bucket_name"`
	SnowflakeRoleARN string `json:"snowflake_role_arn,omitempty"`
	SageMakerRoleARN string `json:"sagemaker_role_arn,omitempty"`

	// Snowflake integration status, as reported by terraform after the
	// two-stage trust bootstrap has completed.
	IntegrationStatus string `json:"snowflake_integration_status,omitempty"`

	SnowflakeAccount   string `json:"snowflake_account,omitempty"`
	SnowflakeUser      string `json:"snowflake_user,omitempty"`
	SnowflakePassword  string `json:"-"`
	SnowflakeDatabase  string `json:"snowflake_database,omitempty"`
	SnowflakeSchema    string `json:"snowflake_schema,omitempty"`
	SnowflakeWarehouse string `json:"snowflake_warehouse,omitempty"`

	// WarehouseDriver selects the SQL driver: "snowflake" in real
	// deployments, "postgres" against a local development warehouse.
	WarehouseDriver string `json:"warehouse_driver,omitempty"`
	WarehouseDSN    string `json:"-"`

	// Audit store settings (sqlite for dev, postgres otherwise).
	AuditDriver string `json:"audit_driver,omitempty"`
	AuditDSN    string `json:"-"`

	NATSUrl      string `json:"nats_url,omitempty"`
	WebhookURL   string `json:"webhook_url,omitempty"`
	ServerPort   string `json:"server_port,omitempty"`
	SnapshotPath string `json:"snapshot_path,omitempty"`
	CronSpec     string `json:"refresh_cron,omitempty"`

	EndpointName  string `json:"endpoint_name,omitempty"`
	TrainingImage string `json:"training_image,omitempty"`
	InstanceType  string `json:"instance_type,omitempty"`
	CleanWorkers  int    `json:"clean_workers,omitempty"`

	CreatedAt string `json:"created_at,omitempty"`
	Generator string `json:"generator,omitempty"`
	Vers      string `json:"version,omitempty"`
}

// Load builds a Config from the environment. A .env file in the working
// directory is loaded first when present; a missing file is not an error.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Could not load .env file: %v", err)
		}
	}

	return &Config{
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		S3BucketName:       getEnv("S3_BUCKET_NAME", ""),
		SnowflakeRoleARN:   getEnv("SNOWFLAKE_ROLE_ARN", ""),
		SageMakerRoleARN:   getEnv("SAGEMAKER_ROLE_ARN", ""),
		IntegrationStatus:  getEnv("SNOWFLAKE_INTEGRATION_STATUS", ""),
		SnowflakeAccount:   getEnv("SNOWFLAKE_ACCOUNT", ""),
		SnowflakeUser:      getEnv("SNOWFLAKE_USER", ""),
		SnowflakePassword:  getEnv("SNOWFLAKE_PASSWORD", ""),
		SnowflakeDatabase:  getEnv("SNOWFLAKE_DATABASE", "ANIMAL_INSIGHTS"),
		SnowflakeSchema:    getEnv("SNOWFLAKE_SCHEMA", "OUTCOMES"),
		SnowflakeWarehouse: getEnv("SNOWFLAKE_WAREHOUSE", "ANIMAL_INSIGHTS_WH"),
		WarehouseDriver:    getEnv("WAREHOUSE_DRIVER", "snowflake"),
		WarehouseDSN:       getEnv("WAREHOUSE_DSN", ""),
		AuditDriver:        getEnv("AUDIT_DB_DRIVER", "sqlite"),
		AuditDSN:           getEnv("AUDIT_DB_DSN", "animal_insights_audit.db"),
		NATSUrl:            getEnv("NATS_URL", ""),
		WebhookURL:         getEnv("RUN_WEBHOOK_URL", ""),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		SnapshotPath:       getEnv("SNAPSHOT_PATH", "data/austin_animal_outcomes.csv"),
		CronSpec:           getEnv("REFRESH_CRON", ""),
		EndpointName:       getEnv("SAGEMAKER_ENDPOINT_NAME", "animal-insights-endpoint"),
		TrainingImage:      getEnv("SAGEMAKER_TRAINING_IMAGE", ""),
		InstanceType:       getEnv("SAGEMAKER_INSTANCE_TYPE", "ml.m5.large"),
		CleanWorkers:       getEnvInt("CLEAN_WORKERS", 0),
	}
}

// Save writes the config (minus secrets) to path as JSON, stamped with
// generation metadata, matching the config.json the notebooks consume.
func (c *Config) Save(path string) error {
	c.CreatedAt = time.Now().Format(time.RFC3339)
	c.Generator = "pipeline config"
	c.Vers = Version

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save configuration to %s: %w", path, err)
	}
	return nil
}

// LoadFile reads a previously generated config.json.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
		log.Printf("Invalid integer for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return n
}
