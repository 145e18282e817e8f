package transcript

import (
	"videomcq/models"
)

// ProgressFunc receives the segments emitted so far and a 0-100 percentage.
// The slice is a copy owned by the callee.
type ProgressFunc func(segments []models.TranscriptSegment, percent float64)

// Percent maps a segment end time onto the video duration, capped at 100.
// An unknown (non-positive) duration yields 0.
func Percent(endTime, duration float64) float64 {
	if duration <= 0 || endTime <= 0 {
		return 0
	}
	p := 100 * endTime / duration
	if p > 100 {
		return 100
	}
	return p
}

// Reporter turns windower emissions into progress callbacks.
//
// Tokens are expected in start-time order; the reporter never lets the
// reported value go down, but it does not reorder input.
type Reporter struct {
	duration float64
	fn       ProgressFunc
	last     float64
}

// NewReporter returns a Reporter for a video of the given length in seconds.
// A nil fn makes every call a no-op.
func NewReporter(duration float64, fn ProgressFunc) *Reporter {
	return &Reporter{duration: duration, fn: fn}
}

// Start reports 0% before any token arrives.
func (r *Reporter) Start() {
	r.last = 0
	r.emit(nil, 0)
}

// Segment reports progress for the latest emitted segment.
func (r *Reporter) Segment(segments []models.TranscriptSegment) {
	if len(segments) == 0 {
		return
	}
	p := Percent(segments[len(segments)-1].EndTime, r.duration)
	if p < r.last {
		p = r.last
	}
	r.last = p
	r.emit(segments, p)
}

// Finish reports the terminal 100% once the stream has closed.
func (r *Reporter) Finish(segments []models.TranscriptSegment) {
	r.last = 100
	r.emit(segments, 100)
}

// Last returns the most recently reported percentage.
func (r *Reporter) Last() float64 {
	return r.last
}

func (r *Reporter) emit(segments []models.TranscriptSegment, p float64) {
	if r.fn == nil {
		return
	}
	out := make([]models.TranscriptSegment, len(segments))
	copy(out, segments)
	r.fn(out, p)
}
