package audit

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// PipelineRun records one end-to-end execution of the pipeline, from
// snapshot ingestion through model deployment.
// @Description PipelineRun records one end-to-end execution of the pipeline.
type PipelineRun struct {
	ID          uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	Status      string        `json:"status" gorm:"type:varchar(50);not null"`
	Trigger     string        `json:"trigger" gorm:"type:varchar(50);not null"` // manual, scheduled, api
	Error       string        `json:"error,omitempty" gorm:"type:text"`
	StartedAt   time.Time     `json:"started_at" gorm:"autoCreateTime"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Stages      []StageMetric `json:"stages,omitempty" gorm:"foreignKey:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// StageMetric records counts and timing for a single pipeline stage within
// a run (ingest, clean, upload, load, train, deploy).
type StageMetric struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	RunID      uuid.UUID `json:"run_id" gorm:"type:uuid;not null;index"`
	Stage      string    `json:"stage" gorm:"type:varchar(50);not null"`
	Received   int       `json:"received"`
	Processed  int       `json:"processed"`
	Excluded   int       `json:"excluded"`
	DurationMS int64     `json:"duration_ms"`
	Detail     string    `json:"detail,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}
