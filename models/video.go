package models

import (
	"fmt"
	"time"
)

// VideoStatus is the lifecycle state of an uploaded video.
type VideoStatus string

const (
	VideoStatusUploading  VideoStatus = "uploading"
	VideoStatusUploaded   VideoStatus = "uploaded"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusError      VideoStatus = "error"
)

// IsValid reports whether s is one of the known statuses.
func (s VideoStatus) IsValid() bool {
	switch s {
	case VideoStatusUploading, VideoStatusUploaded, VideoStatusProcessing, VideoStatusCompleted, VideoStatusError:
		return true
	}
	return false
}

// Video represents an uploaded source video.
type Video struct {
	ID         string      `json:"id" db:"id" validate:"required"`
	Filename   string      `json:"filename" db:"filename" validate:"required"`
	Filepath   string      `json:"filepath" db:"filepath"`
	Size       string      `json:"size" db:"size"`
	SizeBytes  int64       `json:"sizeBytes" db:"size_bytes"`
	Duration   float64     `json:"duration" db:"duration"` // seconds, 0 when unknown
	UploadedAt time.Time   `json:"uploadedAt" db:"uploaded_at"`
	Status     VideoStatus `json:"status" db:"status"`
}

// VideoSummary is a Video with the number of persisted transcript segments and questions.
type VideoSummary struct {
	Video
	TranscriptCount int `json:"transcriptCount"`
	MCQCount        int `json:"mcqCount"`
}

// HumanSize formats a byte count the way the upload endpoint reports it, e.g. "12.3 MB".
func HumanSize(bytes int64) string {
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}
