package audit

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store persists pipeline runs and their stage metrics.
type Store struct {
	db *gorm.DB
}

// Open connects to the audit database and migrates the schema. A DSN that
// looks like a Postgres connection string gets the postgres driver;
// anything else is treated as a sqlite path. An empty DSN opens a local
// audit.db file.
func Open(dsn string) (*Store, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Warn,
			Colorful:      false,
		},
	)

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "postgres://") || strings.Contains(dsn, "host="):
		dialector = postgres.Open(dsn)
	case dsn == "":
		dialector = sqlite.Open("audit.db")
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	store := &Store{db: db}
	if err := store.Migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing gorm connection without migrating.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the audit tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&PipelineRun{}, &StageMetric{}); err != nil {
		return fmt.Errorf("failed to migrate audit schema: %w", err)
	}
	return nil
}

// StartRun creates a new run in the RUNNING state.
func (s *Store) StartRun(trigger string) (*PipelineRun, error) {
	run := &PipelineRun{
		ID:      uuid.New(),
		Status:  StatusRunning,
		Trigger: trigger,
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create pipeline run: %w", err)
	}
	return run, nil
}

// RecordStage appends a stage metric to a run.
func (s *Store) RecordStage(runID uuid.UUID, metric StageMetric) error {
	metric.ID = uuid.New()
	metric.RunID = runID
	if err := s.db.Create(&metric).Error; err != nil {
		return fmt.Errorf("failed to record stage %s: %w", metric.Stage, err)
	}
	return nil
}

// CompleteRun marks a run as successfully finished.
func (s *Store) CompleteRun(runID uuid.UUID) error {
	return s.finishRun(runID, StatusCompleted, "")
}

// FailRun marks a run as failed with the given error message.
func (s *Store) FailRun(runID uuid.UUID, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	return s.finishRun(runID, StatusFailed, msg)
}

func (s *Store) finishRun(runID uuid.UUID, status, errMsg string) error {
	now := time.Now()
	result := s.db.Model(&PipelineRun{}).
		Where("id = ?", runID).
		Updates(map[string]interface{}{
			"status":       status,
			"error":        errMsg,
			"completed_at": &now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update pipeline run %s: %w", runID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("pipeline run %s not found", runID)
	}
	return nil
}

// Ping verifies the audit database is reachable; used by preflight.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("audit database handle unavailable: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("audit database is not reachable: %w", err)
	}
	return nil
}

// GetRun fetches a run with its stage metrics.
func (s *Store) GetRun(runID uuid.UUID) (*PipelineRun, error) {
	var run PipelineRun
	err := s.db.Preload("Stages").First(&run, "id = ?", runID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("pipeline run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pipeline run %s: %w", runID, err)
	}
	return &run, nil
}

// ListRuns returns runs newest first, capped at limit (default 50).
func (s *Store) ListRuns(limit int) ([]PipelineRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []PipelineRun
	err := s.db.Preload("Stages").
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pipeline runs: %w", err)
	}
	return runs, nil
}
