// Package handler exposes the pipeline orchestrator over HTTP: start a run
// synchronously and report the result.
package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	httpPlatform "github.com/andreypavlenko/offertrack/internal/platform/http"
	"github.com/andreypavlenko/offertrack/internal/platform/logger"
	"github.com/andreypavlenko/offertrack/internal/platform/runerr"
	pipelinesvc "github.com/andreypavlenko/offertrack/modules/pipeline/service"
)

// Handler serves the pipeline run endpoints. Results are cached in memory
// only, keyed by run_id: a run is a single cooperative pass with no
// persistent store behind it, so GET /runs/:id only ever reflects runs this
// process itself has executed since it started.
type Handler struct {
	pipeline *pipelinesvc.Pipeline
	log      *logger.Logger

	mu      sync.RWMutex
	results map[string]runResponse
}

func New(pipeline *pipelinesvc.Pipeline, log *logger.Logger) *Handler {
	return &Handler{pipeline: pipeline, log: log, results: map[string]runResponse{}}
}

// RegisterRoutes mounts the pipeline endpoints under the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/runs", h.CreateRun)
	rg.GET("/runs/:id", h.GetRun)
}

type createRunRequest struct {
	Source       string `json:"source" binding:"required"`
	Start        string `json:"start" binding:"required"`
	End          string `json:"end" binding:"required"`
	MaxMessages  int    `json:"max_messages"`
	IncludeBody  bool   `json:"include_body"`
	WriteReports bool   `json:"write_reports"`
}

type runResponse struct {
	RunID         string            `json:"run_id"`
	Summary       interface{}       `json:"summary"`
	Rates         interface{}       `json:"rates"`
	ArtifactPaths map[string]string `json:"artifact_paths"`
	Warnings      []string          `json:"warnings"`
}

// CreateRun validates the request, runs the pipeline synchronously, and
// returns the result. A run is not persisted across requests: it is a
// single cooperative I/O-bound pass with no shared state beyond itself.
func (h *Handler) CreateRun(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "invalid_date", "start must be an ISO date")
		return
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "invalid_date", "end must be an ISO date")
		return
	}

	maxMessages := req.MaxMessages
	if maxMessages == 0 {
		maxMessages = 500
	}

	runID := uuid.NewString()
	result, err := h.pipeline.Run(c.Request.Context(), pipelinesvc.Options{
		Source:       req.Source,
		Start:        start,
		End:          end,
		MaxMessages:  maxMessages,
		IncludeBody:  req.IncludeBody,
		WriteReports: req.WriteReports,
		RunID:        runID,
	})
	if err != nil {
		h.respondRunError(c, err)
		return
	}

	resp := runResponse{
		RunID:         runID,
		Summary:       result.Summary,
		Rates:         result.Rates,
		ArtifactPaths: result.ArtifactPaths,
		Warnings:      result.Warnings,
	}

	h.mu.Lock()
	h.results[runID] = resp
	h.mu.Unlock()

	httpPlatform.RespondWithData(c, http.StatusCreated, resp)
}

// GetRun returns a previously executed run's result, if this process still
// has it cached.
func (h *Handler) GetRun(c *gin.Context) {
	id := c.Param("id")

	h.mu.RLock()
	resp, ok := h.results[id]
	h.mu.RUnlock()

	if !ok {
		httpPlatform.RespondWithError(c, http.StatusNotFound, "run_not_found", "no run with that id in this process")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, resp)
}

func (h *Handler) respondRunError(c *gin.Context, err error) {
	kind := runerr.GetKind(err)
	h.log.WithComponent("pipeline").Warn(err.Error())

	switch kind {
	case runerr.KindInputValidation:
		httpPlatform.RespondWithError(c, http.StatusBadRequest, string(kind), err.Error())
	case runerr.KindAdapterAuth:
		httpPlatform.RespondWithError(c, http.StatusUnauthorized, string(kind), err.Error())
	default:
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, string(kind), err.Error())
	}
}
