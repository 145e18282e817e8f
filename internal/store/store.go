// Package store persists videos, transcripts, questions and processing jobs.
//
// Three drivers implement Store: an in-process map for development and
// tests, Supabase through its PostgREST API, and Postgres directly via pgx.
package store

import (
	"context"
	"errors"

	"videomcq/models"
)

// ErrNotFound is returned when the addressed record does not exist.
var ErrNotFound = errors.New("store: record not found")

// Videos stores uploaded video records.
type Videos interface {
	// SaveVideo inserts v or replaces the record with the same id.
	SaveVideo(ctx context.Context, v models.Video) error
	GetVideo(ctx context.Context, id string) (models.Video, error)
	// ListVideos returns all videos, newest upload first, with counts.
	ListVideos(ctx context.Context) ([]models.VideoSummary, error)
	UpdateVideoStatus(ctx context.Context, id string, status models.VideoStatus) error
	// DeleteVideo removes the video together with its transcript and questions.
	DeleteVideo(ctx context.Context, id string) error
}

// Transcripts stores the segments of each video.
type Transcripts interface {
	// SaveTranscript replaces every segment of the video.
	SaveTranscript(ctx context.Context, videoID string, segments []models.TranscriptSegment) error
	// GetTranscript returns the segments ordered by segment number. A video
	// without a transcript yields an empty slice.
	GetTranscript(ctx context.Context, videoID string) ([]models.TranscriptSegment, error)
}

// Questions stores generated questions.
type Questions interface {
	// SaveMCQs appends questions to the video's existing ones.
	SaveMCQs(ctx context.Context, videoID string, questions []models.MCQQuestion) error
	// ListMCQs returns the video's questions in insertion order.
	ListMCQs(ctx context.Context, videoID string) ([]models.MCQQuestion, error)
	GetMCQ(ctx context.Context, id string) (models.MCQQuestion, error)
	// UpdateMCQ merges patch into the stored question. The merged question
	// must still validate.
	UpdateMCQ(ctx context.Context, id string, patch models.MCQPatch) (models.MCQQuestion, error)
	DeleteMCQ(ctx context.Context, id string) error
}

// Jobs stores processing job records.
type Jobs interface {
	CreateJob(ctx context.Context, job models.ProcessingJob) error
	GetJob(ctx context.Context, id string) (models.ProcessingJob, error)
	// UpdateJob overwrites the mutable fields of the job with the same id.
	UpdateJob(ctx context.Context, job models.ProcessingJob) error
}

// Store is the full persistence boundary.
type Store interface {
	Videos
	Transcripts
	Questions
	Jobs
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close()
}

var (
	_ Store   = (*Memory)(nil)
	_ Store   = (*Supabase)(nil)
	_ Store   = (*Postgres)(nil)
	_ Objects = (*Supabase)(nil)
)
