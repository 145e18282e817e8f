package pipeline

import (
	"context"
	"fmt"

	"videomcq/internal/jobs"
	"videomcq/models"
)

var _ jobs.Executor = (*Orchestrator)(nil)

// Execute runs the operation named by t.Type. Progress of a full pipeline
// run is split evenly between transcription and question generation.
func (o *Orchestrator) Execute(ctx context.Context, t jobs.Task, progress jobs.ProgressFunc) error {
	if progress == nil {
		progress = func(float64) {}
	}
	var err error
	switch t.Type {
	case models.JobTypeTranscribe:
		_, err = o.GenerateTranscript(ctx, t.VideoID, Callbacks{
			OnTranscriptProgress: func(_ []models.TranscriptSegment, p float64) { progress(p) },
		})
	case models.JobTypeMCQ:
		_, err = o.GenerateMCQs(ctx, t.VideoID, Callbacks{
			OnMCQProgress: func(current, total int) { progress(stepPercent(current, total)) },
		})
	case models.JobTypeProcess:
		_, err = o.Process(ctx, t.VideoID, Callbacks{
			OnTranscriptProgress: func(_ []models.TranscriptSegment, p float64) { progress(p / 2) },
			OnMCQProgress:        func(current, total int) { progress(50 + stepPercent(current, total)/2) },
		})
	default:
		return fmt.Errorf("pipeline: unknown job type %q", t.Type)
	}
	return err
}

// stepPercent is the share of steps finished when step current of total
// begins.
func stepPercent(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(current-1) / float64(total) * 100
}
