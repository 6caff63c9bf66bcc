package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/audit"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/cleaning"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/orchestration"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/summary"
	"github.com/Dusttoo/snowflake-sagemaker-tutorial/internal/training"
)

const (
	DefaultRunLimit = 20
	MaxRunLimit     = 100
)

// PipelineRunner triggers a full pipeline run.
type PipelineRunner interface {
	Run(ctx context.Context, trigger string) (*orchestration.RunReport, error)
}

// Predictor invokes the deployed model endpoint.
type Predictor interface {
	Predict(ctx context.Context, req training.PredictRequest) (*training.PredictResponse, error)
}

// RunStore reads the audit trail.
type RunStore interface {
	GetRun(runID uuid.UUID) (*audit.PipelineRun, error)
	ListRuns(limit int) ([]audit.PipelineRun, error)
}

// Summarizer aggregates the cleaned outcomes.
type Summarizer interface {
	Report(ctx context.Context) (*summary.Report, error)
}

// Handler holds the service dependencies for the HTTP API.
type Handler struct {
	cleaner   *cleaning.Cleaner
	runner    PipelineRunner
	predictor Predictor
	runs      RunStore
	summarize Summarizer
}

func NewHandler(cleaner *cleaning.Cleaner, runner PipelineRunner, predictor Predictor, runs RunStore, summarize Summarizer) *Handler {
	return &Handler{
		cleaner:   cleaner,
		runner:    runner,
		predictor: predictor,
		runs:      runs,
		summarize: summarize,
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/clean", h.CleanRecords)
		v1.POST("/predict", h.Predict)

		runRoutes := v1.Group("/runs")
		{
			runRoutes.POST("/", h.TriggerRun)
			runRoutes.GET("/", h.ListRuns)
			runRoutes.GET("/:id", h.GetRun)
		}

		v1.GET("/summary", h.GetSummary)
	}
}

// CleanBatchRequest is the payload for the clean endpoint.
type CleanBatchRequest struct {
	Records []cleaning.RawOutcomeRecord `json:"records" binding:"required"`
}

// HealthCheck godoc
// @Summary Health check
// @Description Returns OK when the service is up.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(c *gin.Context) {
	RespondWithSuccess(c, http.StatusOK, gin.H{"status": "ok"})
}

// CleanRecords godoc
// @Summary Clean a batch of raw outcome records
// @Description Normalizes ages, derives adoption labels, and projects features for the submitted records. Records missing an outcome type are excluded and counted.
// @Tags cleaning
// @Accept json
// @Produce json
// @Param batch body CleanBatchRequest true "Raw outcome records to clean"
// @Success 200 {object} cleaning.BatchResult "Cleaned records with counts"
// @Failure 400 {object} APIError "Bad Request (see 'code' for specifics like VALIDATION_ERROR)"
// @Router /clean [post]
func (h *Handler) CleanRecords(c *gin.Context) {
	var req CleanBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, ErrorCodeInvalidJSON, "Invalid request payload", gin.H{"reason": err.Error()})
		return
	}
	if len(req.Records) == 0 {
		RespondWithError(c, http.StatusBadRequest, ErrorCodeEmptyBatch, "No records to clean.", nil)
		return
	}

	result := h.cleaner.CleanBatch(req.Records)
	RespondWithSuccess(c, http.StatusOK, result)
}

// Predict godoc
// @Summary Score feature records against the deployed model
// @Description Sends the feature records to the hosted endpoint and returns one prediction per record.
// @Tags predictions
// @Accept json
// @Produce json
// @Param request body training.PredictRequest true "Feature records to score"
// @Success 200 {object} training.PredictResponse
// @Failure 400 {object} APIError "Bad Request"
// @Failure 502 {object} APIError "Endpoint invocation failed"
// @Router /predict [post]
func (h *Handler) Predict(c *gin.Context) {
	var req training.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, ErrorCodeInvalidJSON, "Invalid request payload", gin.H{"reason": err.Error()})
		return
	}
	if len(req.Instances) == 0 {
		RespondWithError(c, http.StatusBadRequest, ErrorCodeEmptyBatch, "No instances to score.", nil)
		return
	}

	resp, err := h.predictor.Predict(c.Request.Context(), req)
	if err != nil {
		log.Printf("Prediction failed: %v", err)
		RespondWithError(c, http.StatusBadGateway, ErrorCodeServiceUnavailable, "Failed to invoke model endpoint.", nil)
		return
	}
	RespondWithSuccess(c, http.StatusOK, resp)
}

// TriggerRun godoc
// @Summary Trigger a pipeline run
// @Description Starts a full pipeline run (ingest, clean, upload, load, train, deploy) in the background.
// @Tags runs
// @Produce json
// @Success 202 {object} map[string]string "Run accepted"
// @Router /runs [post]
func (h *Handler) TriggerRun(c *gin.Context) {
	go func() {
		report, err := h.runner.Run(context.Background(), "api")
		if err != nil {
			log.Printf("Pipeline run failed: %v", err)
			return
		}
		log.Printf("Pipeline run %s finished: %d cleaned, %d excluded", report.RunID, report.Cleaned, report.Excluded)
	}()
	RespondWithSuccess(c, http.StatusAccepted, gin.H{"status": "accepted"})
}

// ListRuns godoc
// @Summary List pipeline runs
// @Description Lists recent pipeline runs with their stage metrics, newest first.
// @Tags runs
// @Produce json
// @Param limit query int false "Maximum number of runs to return" default(20)
// @Success 200 {array} audit.PipelineRun
// @Failure 400 {object} APIError "Bad Request"
// @Failure 500 {object} APIError "Internal Server Error"
// @Router /runs [get]
func (h *Handler) ListRuns(c *gin.Context) {
	limit := DefaultRunLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondWithError(c, http.StatusBadRequest, ErrorCodeValidation, "Invalid limit parameter.", gin.H{"limit": raw})
			return
		}
		limit = parsed
	}
	if limit > MaxRunLimit {
		limit = MaxRunLimit
	}

	runs, err := h.runs.ListRuns(limit)
	if err != nil {
		log.Printf("Failed to list runs: %v", err)
		RespondWithError(c, http.StatusInternalServerError, ErrorCodeInternalServerError, "Failed to list pipeline runs.", nil)
		return
	}
	RespondWithSuccess(c, http.StatusOK, runs)
}

// GetRun godoc
// @Summary Get a pipeline run
// @Description Fetches one pipeline run with its stage metrics.
// @Tags runs
// @Produce json
// @Param id path string true "Run ID (UUID)"
// @Success 200 {object} audit.PipelineRun
// @Failure 400 {object} APIError "Invalid ID format"
// @Failure 404 {object} APIError "Run not found"
// @Router /runs/{id} [get]
func (h *Handler) GetRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, ErrorCodeInvalidIDFormat, "Run ID must be a valid UUID.", gin.H{"id": c.Param("id")})
		return
	}

	run, err := h.runs.GetRun(runID)
	if err != nil {
		RespondWithError(c, http.StatusNotFound, ErrorCodeRunNotFound, "Pipeline run not found.", gin.H{"id": runID.String()})
		return
	}
	RespondWithSuccess(c, http.StatusOK, run)
}

// GetSummary godoc
// @Summary Summarize cleaned outcomes
// @Description Returns adoption rates by animal type, outcome breakdown, and age-bucket adoption rates over the clean view.
// @Tags summary
// @Produce json
// @Success 200 {object} summary.Report
// @Failure 500 {object} APIError "Internal Server Error"
// @Router /summary [get]
func (h *Handler) GetSummary(c *gin.Context) {
	report, err := h.summarize.Report(c.Request.Context())
	if err != nil {
		log.Printf("Failed to build summary: %v", err)
		RespondWithError(c, http.StatusInternalServerError, ErrorCodeInternalServerError, "Failed to build summary report.", nil)
		return
	}
	RespondWithSuccess(c, http.StatusOK, report)
}
