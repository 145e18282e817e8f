// Package jobs runs pipeline operations in the background and records their
// lifecycle as processing jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"videomcq/internal/store"
	"videomcq/models"
)

// Task identifies the work of one processing job. It is what travels
// through a Queue.
type Task struct {
	JobID   string         `json:"job_id"`
	VideoID string         `json:"video_id"`
	Type    models.JobType `json:"job_type"`
}

// ProgressFunc reports overall job progress in percent.
type ProgressFunc func(percent float64)

// Executor performs the work behind a Task.
type Executor interface {
	Execute(ctx context.Context, t Task, progress ProgressFunc) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, t Task, progress ProgressFunc) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, t Task, progress ProgressFunc) error {
	return f(ctx, t, progress)
}

// Runner turns Tasks into Jobs whose execution is mirrored in the job store.
type Runner struct {
	store  store.Jobs
	exec   Executor
	logger logrus.FieldLogger
	now    func() time.Time
	// progressStep throttles progress writes to the store.
	progressStep float64
}

// NewRunner returns a Runner.
func NewRunner(s store.Jobs, exec Executor, logger logrus.FieldLogger) *Runner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{store: s, exec: exec, logger: logger, now: time.Now, progressStep: 5}
}

// NewJobRecord returns a pending record for a new task.
func NewJobRecord(videoID string, jobType models.JobType, now time.Time) models.ProcessingJob {
	now = now.UTC()
	return models.ProcessingJob{
		ID:        uuid.NewString(),
		JobType:   jobType,
		VideoID:   videoID,
		Status:    models.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Job wraps t for a Dispatcher.
func (r *Runner) Job(t Task) Job {
	return &taskJob{runner: r, task: t}
}

// Run executes t synchronously, updating its record from processing to
// completed, failed or cancelled.
func (r *Runner) Run(ctx context.Context, t Task) error {
	log := r.logger.WithFields(logrus.Fields{"job_id": t.JobID, "video_id": t.VideoID, "job_type": t.Type})

	job, err := r.store.GetJob(ctx, t.JobID)
	if err != nil {
		return fmt.Errorf("jobs: load %s: %w", t.JobID, err)
	}
	started := r.now().UTC()
	job.Status = models.JobStatusProcessing
	job.StartedAt = &started
	job.UpdatedAt = started
	zero := 0.0
	job.Progress = &zero
	if err := r.store.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("jobs: mark %s processing: %w", t.JobID, err)
	}

	lastWritten := 0.0
	progress := func(p float64) {
		if p < 100 && p-lastWritten < r.progressStep {
			return
		}
		lastWritten = p
		job.Progress = &p
		job.UpdatedAt = r.now().UTC()
		if err := r.store.UpdateJob(ctx, job); err != nil {
			log.WithError(err).Warn("Failed to record job progress")
		}
	}

	runErr := r.exec.Execute(ctx, t, progress)

	// The run context may be gone; the final record must still be written.
	final := context.WithoutCancel(ctx)
	finished := r.now().UTC()
	job.UpdatedAt = finished
	job.CompletedAt = &finished
	switch {
	case runErr == nil && ctx.Err() == nil:
		job.Status = models.JobStatusCompleted
		done := 100.0
		job.Progress = &done
	case ctx.Err() != nil || errors.Is(runErr, context.Canceled):
		job.Status = models.JobStatusCancelled
	default:
		job.Status = models.JobStatusFailed
		msg := runErr.Error()
		job.ErrorMessage = &msg
	}
	if err := r.store.UpdateJob(final, job); err != nil {
		log.WithError(err).Error("Failed to record job result")
	}
	log.WithField("status", job.Status).Info("Job finished")
	if job.Status == models.JobStatusCompleted || job.Status == models.JobStatusCancelled {
		return nil
	}
	return runErr
}

type taskJob struct {
	runner *Runner
	task   Task
}

func (j *taskJob) ID() string { return j.task.JobID }

func (j *taskJob) Execute(ctx context.Context) error {
	return j.runner.Run(ctx, j.task)
}
