package models

import (
	"time"
)

// JobType identifies which part of the pipeline a processing job runs.
type JobType string

const (
	JobTypeTranscribe JobType = "transcribe"
	JobTypeMCQ        JobType = "generate_mcqs"
	JobTypeProcess    JobType = "process"
)

// IsValid reports whether t is a known job type.
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeTranscribe, JobTypeMCQ, JobTypeProcess:
		return true
	}
	return false
}

// JobStatus is the state of a processing job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// ProcessingJob represents the structure of a processing job in the database.
type ProcessingJob struct {
	ID           string     `json:"id"`
	JobType      JobType    `json:"job_type"`
	VideoID      string     `json:"video_id"`
	Status       JobStatus  `json:"status"`
	Progress     *float64   `json:"progress,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Stage is the step of the end-to-end pipeline currently running.
type Stage string

const (
	StageUpload        Stage = "upload"
	StageTranscription Stage = "transcription"
	StageMCQGeneration Stage = "mcq_generation"
	StageCompleted     Stage = "completed"
)
