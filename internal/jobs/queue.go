package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"videomcq/internal/store"
	"videomcq/models"
)

// Queue accepts tasks for background execution.
type Queue interface {
	Enqueue(ctx context.Context, t Task) error
}

// LocalQueue runs tasks on an in-process Dispatcher.
type LocalQueue struct {
	dispatcher *Dispatcher
	runner     *Runner
}

// NewLocalQueue returns a queue feeding d with jobs built by r.
func NewLocalQueue(d *Dispatcher, r *Runner) *LocalQueue {
	return &LocalQueue{dispatcher: d, runner: r}
}

func (q *LocalQueue) Enqueue(_ context.Context, t Task) error {
	return q.dispatcher.SubmitJob(q.runner.Job(t))
}

// RedisQueue is a FIFO list in Redis shared between the API and worker
// processes.
type RedisQueue struct {
	client  *redis.Client
	key     string
	maxLen  int64
	logger  logrus.FieldLogger
	pollFor time.Duration
}

// NewRedisQueue returns a queue on the list key. maxLen bounds the list;
// zero means unbounded.
func NewRedisQueue(client *redis.Client, key string, maxLen int64, logger logrus.FieldLogger) *RedisQueue {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisQueue{client: client, key: key, maxLen: maxLen, logger: logger, pollFor: 5 * time.Second}
}

func (q *RedisQueue) Enqueue(ctx context.Context, t Task) error {
	if q.maxLen > 0 {
		n, err := q.client.LLen(ctx, q.key).Result()
		if err != nil {
			return fmt.Errorf("jobs: queue length: %w", err)
		}
		if n >= q.maxLen {
			return ErrQueueFull
		}
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("jobs: marshal task: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("jobs: enqueue: %w", err)
	}
	return nil
}

// Consume pops tasks and submits them to d until ctx is done. When the
// dispatcher is full the task is pushed back to the head of the list.
func (q *RedisQueue) Consume(ctx context.Context, d *Dispatcher, r *Runner) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := q.client.BLPop(ctx, q.pollFor, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.logger.WithError(err).Error("Failed to pop task")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		// res is [key, value].
		var t Task
		if err := json.Unmarshal([]byte(res[1]), &t); err != nil {
			q.logger.WithError(err).WithField("payload", res[1]).Warn("Dropping malformed task")
			continue
		}
		if err := d.SubmitJob(r.Job(t)); err != nil {
			q.logger.WithError(err).WithField("job_id", t.JobID).Warn("Dispatcher busy, requeueing task")
			if err := q.client.LPush(context.WithoutCancel(ctx), q.key, res[1]).Err(); err != nil {
				q.logger.WithError(err).WithField("job_id", t.JobID).Error("Failed to requeue task")
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

// Service creates job records and queues their tasks.
type Service struct {
	store  store.Jobs
	queue  Queue
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewService returns a Service.
func NewService(s store.Jobs, q Queue, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{store: s, queue: q, logger: logger, now: time.Now}
}

// Submit records a pending job for videoID and queues it. When the queue
// refuses the task the record is marked failed and the error returned.
func (s *Service) Submit(ctx context.Context, videoID string, jobType models.JobType) (models.ProcessingJob, error) {
	if !jobType.IsValid() {
		return models.ProcessingJob{}, fmt.Errorf("jobs: unknown job type %q", jobType)
	}
	job := NewJobRecord(videoID, jobType, s.now())
	if err := s.store.CreateJob(ctx, job); err != nil {
		return models.ProcessingJob{}, fmt.Errorf("jobs: create record: %w", err)
	}
	if err := s.queue.Enqueue(ctx, Task{JobID: job.ID, VideoID: videoID, Type: jobType}); err != nil {
		msg := err.Error()
		job.Status = models.JobStatusFailed
		job.ErrorMessage = &msg
		job.UpdatedAt = s.now().UTC()
		if uerr := s.store.UpdateJob(context.WithoutCancel(ctx), job); uerr != nil {
			s.logger.WithError(uerr).WithField("job_id", job.ID).Warn("Failed to mark refused job as failed")
		}
		return job, err
	}
	return job, nil
}

// Get returns the job record.
func (s *Service) Get(ctx context.Context, id string) (models.ProcessingJob, error) {
	return s.store.GetJob(ctx, id)
}
