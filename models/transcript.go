package models

// TranscriptSegment is a fixed-window aggregation of transcription tokens.
// Segments are immutable once emitted by the windower.
type TranscriptSegment struct {
	ID            string  `json:"id" validate:"required"`
	Text          string  `json:"text"`
	StartTime     float64 `json:"startTime" validate:"gte=0"`
	EndTime       float64 `json:"endTime" validate:"gtefield=StartTime"`
	SegmentNumber int     `json:"segmentNumber" validate:"gte=1"`
}

// Duration returns the length of the segment in seconds.
func (s TranscriptSegment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Transcript is the persisted set of segments for one video.
type Transcript struct {
	VideoID  string              `json:"videoId" validate:"required"`
	Segments []TranscriptSegment `json:"segments" validate:"required,dive"`
}
