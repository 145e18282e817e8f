package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"videomcq/internal/events"
	"videomcq/internal/healthz"
	"videomcq/internal/pipeline"
	"videomcq/internal/store"
	"videomcq/models"
)

// Ingester registers uploaded files as videos.
type Ingester interface {
	Ingest(ctx context.Context, u pipeline.Upload) (models.Video, error)
}

// JobSubmitter creates and looks up processing jobs.
type JobSubmitter interface {
	Submit(ctx context.Context, videoID string, jobType models.JobType) (models.ProcessingJob, error)
	Get(ctx context.Context, id string) (models.ProcessingJob, error)
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Store    store.Store
	Pipeline Ingester
	Jobs     JobSubmitter
	Bus      events.Bus
	// Objects is set when uploaded files are mirrored to object storage.
	Objects       store.Objects
	HealthChecker *healthz.Checker
	Logger        logrus.FieldLogger

	UploadDir      string
	MaxUploadBytes int64
	// Services lists the endpoints reported by the health route.
	Services map[string]string

	validate *validator.Validate
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(s store.Store, p Ingester, j JobSubmitter, bus events.Bus, logger logrus.FieldLogger) *ApplicationHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &ApplicationHandler{
		Store:          s,
		Pipeline:       p,
		Jobs:           j,
		Bus:            bus,
		Logger:         logger,
		UploadDir:      "uploads",
		MaxUploadBytes: 500 << 20,
		Services:       map[string]string{},
		validate:       validator.New(),
	}
	if objects, ok := s.(store.Objects); ok {
		h.Objects = objects
	}
	return h
}
