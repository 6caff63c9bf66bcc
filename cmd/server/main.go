package main

import (
	"context"
	"log"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Dusttoo/snowflake-sagemaker-tutorial/docs"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/audit"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/cleaning"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/config"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/handlers"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/ingestion"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/notify"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/orchestration"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/scheduler"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/storage"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/summary"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/training"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/warehouse"
)

// @title Animal Insights API
// @version 1.0
// @description Pipeline API for the animal shelter outcomes tutorial: clean records, trigger runs, score against the deployed model, and read summaries.
// @BasePath /api/v1
func main() {
	cfg := config.Load()
	ctx := context.Background()

	// --- Audit store ---
	auditStore, err := audit.Open(cfg.AuditDSN)
	if err != nil {
		log.Fatalf("Failed to open audit store: %v", err)
	}
	log.Println("Audit store ready.")

	// --- Warehouse connection ---
	warehouseDB, err := warehouse.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open warehouse connection: %v", err)
	}
	defer warehouseDB.Close()
	warehouseSvc := warehouse.NewService(warehouseDB, warehouse.ObjectsFromConfig(cfg))

	// --- AWS clients ---
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Failed to load AWS configuration: %v", err)
	}
	store := storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3BucketName)
	trainingSvc := training.NewService(
		sagemaker.NewFromConfig(awsCfg),
		sagemakerruntime.NewFromConfig(awsCfg),
		training.Options{
			RoleARN:       cfg.SageMakerRoleARN,
			TrainingImage: cfg.TrainingImage,
			InstanceType:  cfg.InstanceType,
			EndpointName:  cfg.EndpointName,
		},
	)

	// --- NATS (optional) ---
	var events orchestration.EventPublisher
	if cfg.NATSUrl != "" {
		nc, err := nats.Connect(cfg.NATSUrl,
			nats.Timeout(10*time.Second),
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(5),
			nats.ReconnectWait(time.Second))
		if err != nil {
			log.Fatalf("Failed to connect to NATS at %s: %v", cfg.NATSUrl, err)
		}
		defer nc.Close()
		log.Printf("Successfully connected to NATS at %s", cfg.NATSUrl)

		js, err := nc.JetStream()
		if err != nil {
			log.Fatalf("Failed to create JetStream context: %v", err)
		}
		publisher, err := orchestration.NewNATSPublisher(js)
		if err != nil {
			log.Fatalf("Failed to create stage event publisher: %v", err)
		}
		events = publisher

		if cfg.WebhookURL != "" {
			notifier, err := notify.NewService(js, cfg.WebhookURL, false)
			if err != nil {
				log.Fatalf("Failed to create notifier: %v", err)
			}
			if err := notifier.StartConsuming(); err != nil {
				log.Fatalf("Failed to start notification consumer: %v", err)
			}
		}
	} else {
		log.Println("NATS_URL not set, stage events will not be published.")
	}

	// --- Pipeline ---
	cleaner := cleaning.NewCleaner(cfg.CleanWorkers)
	pipeline := orchestration.NewPipeline(
		ingestion.NewService(),
		cleaner,
		store,
		warehouseSvc,
		trainingSvc,
		auditStore,
		events,
		orchestration.Options{
			SnapshotPath: cfg.SnapshotPath,
			Bucket:       cfg.S3BucketName,
		},
	)

	// --- Scheduler (optional) ---
	if cfg.CronSpec != "" {
		sched := scheduler.NewService(pipeline, cfg.CronSpec)
		if err := sched.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	// --- HTTP server ---
	handler := handlers.NewHandler(cleaner, pipeline, trainingSvc, auditStore, summary.NewService(warehouseDB))

	router := gin.Default()
	handler.RegisterRoutes(router)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	log.Printf("Starting Animal Insights API on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
