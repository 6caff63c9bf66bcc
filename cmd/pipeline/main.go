package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/audit"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/cleaning"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/config"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/ingestion"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/orchestration"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/preflight"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/storage"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/training"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/warehouse"
)

const usage = `Usage: pipeline <command> [flags]

Commands:
  config    Generate and validate config.json (optionally from terraform outputs)
  validate  Run preflight checks against AWS, S3, and the warehouse
  setup     Create warehouse objects and print the Snowflake trust values
  run       Execute one full pipeline run
  cleanup   Delete SageMaker resources and empty the S3 bucket
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "config":
		err = runConfig(os.Args[2:])
	case "validate":
		err = runValidate(ctx)
	case "setup":
		err = runSetup(ctx)
	case "run":
		err = runPipeline(ctx)
	case "cleanup":
		err = runCleanup(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

// runConfig builds a config from the environment, overlays terraform
// outputs when a module directory is given, validates it, and writes
// config.json.
func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	terraformDir := fs.String("terraform", "", "terraform module directory to read outputs from")
	outPath := fs.String("out", "config.json", "path to write the generated config")
	fs.Parse(args)

	cfg := config.Load()
	if *terraformDir != "" {
		outputs, err := config.TerraformOutputs(*terraformDir)
		if err != nil {
			return err
		}
		cfg.ApplyTerraformOutputs(outputs)
		log.Printf("Applied %d terraform outputs from %s", len(outputs), *terraformDir)
	}

	result := cfg.Validate()
	for _, warning := range result.Warnings {
		log.Printf("Warning: %s", warning)
	}
	for _, issue := range result.Issues {
		log.Printf("Issue: %s", issue)
	}
	if !result.OK() {
		return fmt.Errorf("configuration has %d issue(s)", len(result.Issues))
	}

	if err := cfg.Save(*outPath); err != nil {
		return err
	}
	log.Printf("Configuration written to %s", *outPath)
	return nil
}

// runValidate checks the environment end to end: config sanity, AWS
// identity, bucket reachability, and warehouse connectivity.
func runValidate(ctx context.Context) error {
	cfg := config.Load()

	result := cfg.Validate()
	for _, warning := range result.Warnings {
		log.Printf("Warning: %s", warning)
	}
	for _, issue := range result.Issues {
		log.Printf("Issue: %s", issue)
	}
	if !result.OK() {
		return fmt.Errorf("configuration has %d issue(s)", len(result.Issues))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	checker := preflight.NewChecker()
	checker.AddIdentityCheck(sts.NewFromConfig(awsCfg))
	checker.AddBucketCheck(cfg.S3BucketName, storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3BucketName))

	warehouseDB, err := warehouse.Open(cfg)
	if err != nil {
		log.Printf("Warehouse connection not available: %v", err)
	} else {
		defer warehouseDB.Close()
		checker.AddPingCheck("warehouse", warehouse.NewService(warehouseDB, warehouse.ObjectsFromConfig(cfg)))
	}

	auditStore, err := audit.Open(cfg.AuditDSN)
	if err != nil {
		log.Printf("Audit database not available: %v", err)
	} else {
		checker.AddPingCheck("audit database", auditStore)
	}

	results, ok := checker.Run(ctx)
	for _, r := range results {
		status := "OK"
		detail := r.Detail
		if !r.OK {
			status = "FAILED"
			detail = r.Error
		}
		fmt.Printf("%-14s %-7s %s\n", r.Name, status, detail)
	}
	if !ok {
		return fmt.Errorf("preflight checks failed")
	}
	return nil
}

// runSetup creates the warehouse objects and the storage integration, then
// prints the IAM trust values Snowflake generated. The operator pastes
// those into the S3 role's trust policy before creating the stage.
func runSetup(ctx context.Context) error {
	cfg := config.Load()

	warehouseDB, err := warehouse.Open(cfg)
	if err != nil {
		return err
	}
	defer warehouseDB.Close()
	svc := warehouse.NewService(warehouseDB, warehouse.ObjectsFromConfig(cfg))

	if err := svc.Setup(ctx); err != nil {
		return err
	}
	if err := svc.CreateStorageIntegration(ctx); err != nil {
		return err
	}
	details, err := svc.DescribeIntegration(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Storage integration created. Update the S3 role's trust policy with:")
	fmt.Printf("  STORAGE_AWS_IAM_USER_ARN: %s\n", details.IAMUserARN)
	fmt.Printf("  STORAGE_AWS_EXTERNAL_ID:  %s\n", details.ExternalID)
	fmt.Println("Then re-run terraform (or edit the role) and start a pipeline run.")
	return nil
}

// runPipeline executes one full run: ingest, clean, upload, load, train,
// deploy.
func runPipeline(ctx context.Context) error {
	cfg := config.Load()

	auditStore, err := audit.Open(cfg.AuditDSN)
	if err != nil {
		return err
	}

	warehouseDB, err := warehouse.Open(cfg)
	if err != nil {
		return err
	}
	defer warehouseDB.Close()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	pipeline := orchestration.NewPipeline(
		ingestion.NewService(),
		cleaning.NewCleaner(cfg.CleanWorkers),
		storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3BucketName),
		warehouse.NewService(warehouseDB, warehouse.ObjectsFromConfig(cfg)),
		training.NewService(sagemaker.NewFromConfig(awsCfg), nil, training.Options{
			RoleARN:       cfg.SageMakerRoleARN,
			TrainingImage: cfg.TrainingImage,
			InstanceType:  cfg.InstanceType,
			EndpointName:  cfg.EndpointName,
		}),
		auditStore,
		nil,
		orchestration.Options{
			SnapshotPath: cfg.SnapshotPath,
			Bucket:       cfg.S3BucketName,
		},
	)

	report, err := pipeline.Run(ctx, "manual")
	if err != nil {
		return err
	}
	fmt.Printf("Run %s completed: %d received, %d cleaned, %d excluded, %d rows loaded\n",
		report.RunID, report.Received, report.Cleaned, report.Excluded, report.RowsLoaded)
	fmt.Printf("Model artifact: %s\n", report.ModelURI)
	return nil
}

// runCleanup tears down the tutorial's SageMaker resources and empties the
// data bucket so nothing keeps billing.
func runCleanup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	keepData := fs.Bool("keep-data", false, "keep S3 objects, only delete SageMaker resources")
	fs.Parse(args)

	cfg := config.Load()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	trainingSvc := training.NewService(sagemaker.NewFromConfig(awsCfg), nil, training.Options{
		EndpointName: cfg.EndpointName,
	})
	cleaned, err := trainingSvc.CleanupResources(ctx)
	if err != nil {
		return err
	}
	for _, item := range cleaned {
		fmt.Printf("Deleted %s\n", item)
	}

	if !*keepData {
		store := storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3BucketName)
		deleted, err := store.EmptyPrefix(ctx, "")
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d objects from s3://%s\n", deleted, cfg.S3BucketName)
	}
	return nil
}
