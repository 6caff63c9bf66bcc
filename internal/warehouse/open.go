package warehouse

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver for the local development warehouse
	sf "github.com/snowflakedb/gosnowflake"

	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/config"
)

// ObjectsFromConfig derives the warehouse object names from the pipeline
// configuration. The stage prefix points the COPY at the uploaded snapshot.
func ObjectsFromConfig(cfg *config.Config) Objects {
	return Objects{
		Database:    cfg.SnowflakeDatabase,
		Schema:      cfg.SnowflakeSchema,
		Warehouse:   cfg.SnowflakeWarehouse,
		Stage:       "OUTCOMES_STAGE",
		Integration: "ANIMAL_INSIGHTS_S3",
		BucketName:  cfg.S3BucketName,
		RoleARN:     cfg.SnowflakeRoleARN,
		StagePrefix: "/austin_animal_outcomes.csv",
	}
}

// Open connects to the configured warehouse. "snowflake" builds a DSN from
// the Snowflake account settings; "postgres" points at a local development
// warehouse via WAREHOUSE_DSN and expects the same objects to exist there.
func Open(cfg *config.Config) (*sql.DB, error) {
	switch cfg.WarehouseDriver {
	case "", "snowflake":
		dsn, err := sf.DSN(&sf.Config{
			Account:   cfg.SnowflakeAccount,
			User:      cfg.SnowflakeUser,
			Password:  cfg.SnowflakePassword,
			Database:  cfg.SnowflakeDatabase,
			Schema:    cfg.SnowflakeSchema,
			Warehouse: cfg.SnowflakeWarehouse,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build Snowflake DSN: %w", err)
		}
		db, err := sql.Open("snowflake", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open Snowflake connection: %w", err)
		}
		return db, nil
	case "postgres":
		if cfg.WarehouseDSN == "" {
			return nil, fmt.Errorf("WAREHOUSE_DSN is required for the postgres warehouse driver")
		}
		db, err := sql.Open("postgres", cfg.WarehouseDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported warehouse driver %q", cfg.WarehouseDriver)
	}
}
