package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/orchestration"
)

// PipelineRunner triggers a pipeline run.
type PipelineRunner interface {
	Run(ctx context.Context, trigger string) (*orchestration.RunReport, error)
}

// Service runs the pipeline on a cron schedule. A run still in flight when
// the next tick fires is skipped rather than overlapped.
type Service struct {
	cronRunner *cron.Cron
	runner     PipelineRunner
	cronSpec   string
	entryID    cron.EntryID
}

func NewService(runner PipelineRunner, cronSpec string) *Service {
	return &Service{
		runner:   runner,
		cronSpec: cronSpec,
		cronRunner: cron.New(
			cron.WithSeconds(),
			cron.WithChain(
				cron.SkipIfStillRunning(cron.DefaultLogger),
				cron.Recover(cron.DefaultLogger),
			),
		),
	}
}

// runPipelineTask is called by the cron job on each tick.
func (s *Service) runPipelineTask() {
	log.Printf("Executing scheduled pipeline run (cron: '%s')", s.cronSpec)
	report, err := s.runner.Run(context.Background(), "scheduled")
	if err != nil {
		log.Printf("Scheduled pipeline run failed: %v", err)
		return
	}
	log.Printf("Scheduled pipeline run %s finished: %d cleaned, %d excluded",
		report.RunID, report.Cleaned, report.Excluded)
}

// Start registers the pipeline job and starts the cron runner (non-blocking).
func (s *Service) Start() error {
	entryID, err := s.cronRunner.AddFunc(s.cronSpec, s.runPipelineTask)
	if err != nil {
		return fmt.Errorf("failed to add pipeline job with cron '%s': %w", s.cronSpec, err)
	}
	s.entryID = entryID

	s.cronRunner.Start()
	log.Printf("Scheduler started, pipeline job EntryID: %d, Cron: '%s'", entryID, s.cronSpec)
	return nil
}

// Stop gracefully shuts down the cron runner, waiting for a running job.
func (s *Service) Stop() {
	log.Println("Stopping scheduler... waiting for jobs to complete.")
	ctx := s.cronRunner.Stop()
	select {
	case <-ctx.Done():
		log.Println("Scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		log.Println("Scheduler shutdown timed out.")
	}
}
