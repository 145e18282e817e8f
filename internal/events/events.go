// Package events carries pipeline progress from the worker running a video
// to whoever is watching it, typically the SSE endpoint of the API.
package events

import (
	"context"
	"time"

	"videomcq/models"
)

// Kind names the event type. It is used as the SSE event name.
type Kind string

const (
	KindTranscriptProgress Kind = "transcript_progress"
	KindMCQProgress        Kind = "mcq_progress"
	KindQuestion           Kind = "question"
	KindState              Kind = "state"
)

// Event is one progress notification for a video.
type Event struct {
	VideoID string    `json:"videoId"`
	Kind    Kind      `json:"type"`
	Time    time.Time `json:"time"`

	// transcript_progress
	Percent      *float64                  `json:"percent,omitempty"`
	SegmentCount int                       `json:"segmentCount,omitempty"`
	Segment      *models.TranscriptSegment `json:"segment,omitempty"`

	// mcq_progress
	Current int `json:"current,omitempty"`
	Total   int `json:"total,omitempty"`

	// question
	Question *models.MCQQuestion `json:"question,omitempty"`

	// state
	Stage  models.Stage       `json:"stage,omitempty"`
	Status models.VideoStatus `json:"status,omitempty"`
	JobID  string             `json:"jobId,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// Terminal reports whether no further events follow for this run.
func (e Event) Terminal() bool {
	return e.Kind == KindState && (e.Status == models.VideoStatusCompleted || e.Status == models.VideoStatusError)
}

// Bus fans events out to subscribers of a video.
//
// Delivery is best effort: a subscriber that cannot keep up loses events
// rather than stalling the publisher.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	// Subscribe returns a channel of events for videoID. The channel is
	// closed once ctx is done.
	Subscribe(ctx context.Context, videoID string) (<-chan Event, error)
	Close() error
}

// TranscriptProgress builds a transcript_progress event from a reporter call.
func TranscriptProgress(videoID string, segments []models.TranscriptSegment, percent float64) Event {
	e := Event{VideoID: videoID, Kind: KindTranscriptProgress, Time: time.Now().UTC(), Percent: &percent, SegmentCount: len(segments)}
	if n := len(segments); n > 0 {
		last := segments[n-1]
		e.Segment = &last
	}
	return e
}

// MCQProgress builds an mcq_progress event.
func MCQProgress(videoID string, current, total int) Event {
	return Event{VideoID: videoID, Kind: KindMCQProgress, Time: time.Now().UTC(), Current: current, Total: total}
}

// QuestionGenerated builds a question event.
func QuestionGenerated(videoID string, q models.MCQQuestion) Event {
	return Event{VideoID: videoID, Kind: KindQuestion, Time: time.Now().UTC(), Question: &q}
}

// State builds a state event.
func State(videoID string, stage models.Stage, status models.VideoStatus, errMsg string) Event {
	return Event{VideoID: videoID, Kind: KindState, Time: time.Now().UTC(), Stage: stage, Status: status, Error: errMsg}
}
