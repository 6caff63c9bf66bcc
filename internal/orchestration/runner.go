package orchestration

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/audit"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/cleaning"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/ingestion"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/storage"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/training"
)

// Pipeline stage names, in execution order.
const (
	StageIngest = "ingest"
	StageClean  = "clean"
	StageUpload = "upload"
	StageLoad   = "load"
	StageTrain  = "train"
	StageDeploy = "deploy"
)

// SnapshotLoader reads the raw outcomes snapshot.
type SnapshotLoader interface {
	LoadSnapshot(path string) (*ingestion.SnapshotResult, error)
}

// WarehouseAPI is the slice of the warehouse service the pipeline drives.
type WarehouseAPI interface {
	Setup(ctx context.Context) error
	CreateStage(ctx context.Context) error
	LoadRaw(ctx context.Context) (int, error)
	CreateCleanView(ctx context.Context) error
}

// Trainer is the slice of the training service the pipeline drives.
type Trainer interface {
	Train(ctx context.Context, spec training.JobSpec) (*training.TrainResult, error)
	Deploy(ctx context.Context, result *training.TrainResult) error
}

// AuditRecorder persists run and stage records.
type AuditRecorder interface {
	StartRun(trigger string) (*audit.PipelineRun, error)
	RecordStage(runID uuid.UUID, metric audit.StageMetric) error
	CompleteRun(runID uuid.UUID) error
	FailRun(runID uuid.UUID, runErr error) error
}

// Options carries the run-invariant pipeline settings.
type Options struct {
	SnapshotPath string
	Bucket       string
	RawKey       string // object key for the raw snapshot, e.g. raw/austin_animal_outcomes.csv
	TrainKey     string // object key for the training dataset, e.g. train/train.csv
	OutputPrefix string // object prefix for model artifacts, e.g. models/
}

// RunReport summarizes a completed pipeline run.
type RunReport struct {
	RunID       string `json:"run_id"`
	Received    int    `json:"received"`
	Cleaned     int    `json:"cleaned"`
	Excluded    int    `json:"excluded"`
	RowsLoaded  int    `json:"rows_loaded"`
	TrainingJob string `json:"training_job,omitempty"`
	ModelURI    string `json:"model_uri,omitempty"`
}

// Pipeline runs the full snapshot-to-endpoint flow: ingest the CSV, clean
// and label it, upload the training dataset, load the warehouse, train a
// model, and deploy it.
type Pipeline struct {
	loader    SnapshotLoader
	cleaner   *cleaning.Cleaner
	store     storage.ObjectStore
	warehouse WarehouseAPI
	trainer   Trainer
	auditor   AuditRecorder
	events    EventPublisher
	opts      Options
}

// NewPipeline wires the pipeline stages together. A nil events publisher
// falls back to NopPublisher.
func NewPipeline(loader SnapshotLoader, cleaner *cleaning.Cleaner, store storage.ObjectStore,
	warehouse WarehouseAPI, trainer Trainer, auditor AuditRecorder, events EventPublisher, opts Options) *Pipeline {
	if events == nil {
		events = NopPublisher{}
	}
	if opts.RawKey == "" {
		opts.RawKey = "raw/austin_animal_outcomes.csv"
	}
	if opts.TrainKey == "" {
		opts.TrainKey = "train/train.csv"
	}
	if opts.OutputPrefix == "" {
		opts.OutputPrefix = "models/"
	}
	return &Pipeline{
		loader:    loader,
		cleaner:   cleaner,
		store:     store,
		warehouse: warehouse,
		trainer:   trainer,
		auditor:   auditor,
		events:    events,
		opts:      opts,
	}
}

// Run executes every stage in order and records an audit trail. The first
// failing stage aborts the run; the run is then marked failed with that
// stage's error.
func (p *Pipeline) Run(ctx context.Context, trigger string) (*RunReport, error) {
	run, err := p.auditor.StartRun(trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to start pipeline run: %w", err)
	}
	log.Printf("Starting pipeline run %s (trigger: %s)", run.ID, trigger)

	report := &RunReport{RunID: run.ID.String()}
	if err := p.execute(ctx, run.ID, report); err != nil {
		if failErr := p.auditor.FailRun(run.ID, err); failErr != nil {
			log.Printf("Error marking run %s failed: %v", run.ID, failErr)
		}
		return report, err
	}

	if err := p.auditor.CompleteRun(run.ID); err != nil {
		log.Printf("Error marking run %s completed: %v", run.ID, err)
	}
	log.Printf("Pipeline run %s completed: %d received, %d cleaned, %d excluded",
		run.ID, report.Received, report.Cleaned, report.Excluded)
	return report, nil
}

func (p *Pipeline) execute(ctx context.Context, runID uuid.UUID, report *RunReport) error {
	// Ingest
	start := time.Now()
	snapshot, err := p.loader.LoadSnapshot(p.opts.SnapshotPath)
	if err != nil {
		return p.finishStage(runID, StageIngest, audit.StageMetric{Detail: p.opts.SnapshotPath}, start, err)
	}
	if err := p.finishStage(runID, StageIngest, audit.StageMetric{
		Received:  len(snapshot.Records) + snapshot.Skipped,
		Processed: len(snapshot.Records),
		Excluded:  snapshot.Skipped,
		Detail:    p.opts.SnapshotPath,
	}, start, nil); err != nil {
		return err
	}
	report.Received = len(snapshot.Records)

	// Clean
	start = time.Now()
	batch := p.cleaner.CleanBatch(snapshot.Records)
	if err := p.finishStage(runID, StageClean, audit.StageMetric{
		Received:  batch.Received,
		Processed: batch.Cleaned,
		Excluded:  batch.Excluded,
	}, start, nil); err != nil {
		return err
	}
	report.Cleaned = batch.Cleaned
	report.Excluded = batch.Excluded

	// Upload training dataset
	start = time.Now()
	err = p.uploadDataset(ctx, batch.Records)
	if err := p.finishStage(runID, StageUpload, audit.StageMetric{
		Processed: len(batch.Records),
		Detail:    p.objectURI(p.opts.TrainKey),
	}, start, err); err != nil {
		return err
	}

	// Warehouse load
	start = time.Now()
	rows, err := p.loadWarehouse(ctx)
	if err := p.finishStage(runID, StageLoad, audit.StageMetric{Processed: rows}, start, err); err != nil {
		return err
	}
	report.RowsLoaded = rows

	// Train
	start = time.Now()
	trainResult, err := p.trainer.Train(ctx, training.JobSpec{
		TrainDataS3URI: p.objectURI(p.opts.TrainKey),
		OutputS3URI:    p.objectURI(p.opts.OutputPrefix),
	})
	metric := audit.StageMetric{}
	if trainResult != nil {
		metric.Detail = trainResult.ModelArtifactURI
	}
	if err := p.finishStage(runID, StageTrain, metric, start, err); err != nil {
		return err
	}
	report.TrainingJob = trainResult.JobName
	report.ModelURI = trainResult.ModelArtifactURI

	// Deploy
	start = time.Now()
	err = p.trainer.Deploy(ctx, trainResult)
	return p.finishStage(runID, StageDeploy, audit.StageMetric{Detail: trainResult.ModelArtifactURI}, start, err)
}

// uploadDataset uploads the raw snapshot under the stage prefix the
// warehouse copies from, then the labeled training CSV. Without the raw
// object the warehouse copy finds nothing to load.
func (p *Pipeline) uploadDataset(ctx context.Context, records []cleaning.CleanOutcomeRecord) error {
	raw, err := os.Open(p.opts.SnapshotPath)
	if err != nil {
		return fmt.Errorf("failed to open snapshot %s: %w", p.opts.SnapshotPath, err)
	}
	defer raw.Close()
	if err := p.store.Upload(ctx, p.opts.RawKey, raw); err != nil {
		return fmt.Errorf("failed to upload raw snapshot to %s: %w", p.opts.RawKey, err)
	}

	var buf bytes.Buffer
	if err := ingestion.WriteTrainingCSV(&buf, records); err != nil {
		return err
	}
	return p.store.Upload(ctx, p.opts.TrainKey, &buf)
}

func (p *Pipeline) loadWarehouse(ctx context.Context) (int, error) {
	if err := p.warehouse.Setup(ctx); err != nil {
		return 0, err
	}
	if err := p.warehouse.CreateStage(ctx); err != nil {
		return 0, err
	}
	rows, err := p.warehouse.LoadRaw(ctx)
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		log.Printf("Warning: warehouse copy loaded no rows; check the stage against %s", p.objectURI(p.opts.RawKey))
	}
	if err := p.warehouse.CreateCleanView(ctx); err != nil {
		return rows, err
	}
	return rows, nil
}

// finishStage records the stage metric and publishes the stage event.
// Audit or event failures are logged, not fatal; the stage error is.
func (p *Pipeline) finishStage(runID uuid.UUID, stage string, metric audit.StageMetric, start time.Time, stageErr error) error {
	metric.Stage = stage
	metric.DurationMS = time.Since(start).Milliseconds()

	event := StageEvent{
		RunID:     runID.String(),
		Stage:     stage,
		Status:    "completed",
		Received:  metric.Received,
		Processed: metric.Processed,
		Excluded:  metric.Excluded,
		Detail:    metric.Detail,
		Timestamp: time.Now(),
	}
	if stageErr != nil {
		event.Status = "failed"
		event.Error = stageErr.Error()
		metric.Detail = stageErr.Error()
	}

	if auditErr := p.auditor.RecordStage(runID, metric); auditErr != nil {
		log.Printf("Error recording stage %s for run %s: %v", stage, runID, auditErr)
	}
	if pubErr := p.events.PublishStageEvent(event); pubErr != nil {
		log.Printf("Error publishing stage event %s for run %s: %v", stage, runID, pubErr)
	}

	if stageErr != nil {
		return fmt.Errorf("stage %s failed: %w", stage, stageErr)
	}
	return nil
}

func (p *Pipeline) objectURI(key string) string {
	return fmt.Sprintf("s3://%s/%s", p.opts.Bucket, key)
}
