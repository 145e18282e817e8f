package store

import (
	"time"

	"videomcq/models"
)

// Row types mirror the database columns shared by the Supabase and Postgres
// drivers. See schema.sql.

type videoRow struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Filepath   string    `json:"filepath"`
	Size       string    `json:"size"`
	SizeBytes  int64     `json:"size_bytes"`
	Duration   float64   `json:"duration"`
	UploadedAt time.Time `json:"uploaded_at"`
	Status     string    `json:"status"`
}

func toVideoRow(v models.Video) videoRow {
	return videoRow{
		ID:         v.ID,
		Filename:   v.Filename,
		Filepath:   v.Filepath,
		Size:       v.Size,
		SizeBytes:  v.SizeBytes,
		Duration:   v.Duration,
		UploadedAt: v.UploadedAt,
		Status:     string(v.Status),
	}
}

func (r videoRow) model() models.Video {
	return models.Video{
		ID:         r.ID,
		Filename:   r.Filename,
		Filepath:   r.Filepath,
		Size:       r.Size,
		SizeBytes:  r.SizeBytes,
		Duration:   r.Duration,
		UploadedAt: r.UploadedAt,
		Status:     models.VideoStatus(r.Status),
	}
}

type segmentRow struct {
	VideoID       string  `json:"video_id"`
	SegmentID     string  `json:"segment_id"`
	Text          string  `json:"text"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
	SegmentNumber int     `json:"segment_number"`
}

func toSegmentRows(videoID string, segs []models.TranscriptSegment) []segmentRow {
	rows := make([]segmentRow, len(segs))
	for i, s := range segs {
		rows[i] = segmentRow{
			VideoID:       videoID,
			SegmentID:     s.ID,
			Text:          s.Text,
			StartTime:     s.StartTime,
			EndTime:       s.EndTime,
			SegmentNumber: s.SegmentNumber,
		}
	}
	return rows
}

func (r segmentRow) model() models.TranscriptSegment {
	return models.TranscriptSegment{
		ID:            r.SegmentID,
		Text:          r.Text,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		SegmentNumber: r.SegmentNumber,
	}
}

type mcqRow struct {
	ID            string    `json:"id"`
	VideoID       string    `json:"video_id"`
	SegmentID     string    `json:"segment_id"`
	Question      string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectAnswer int       `json:"correct_answer"`
	Explanation   string    `json:"explanation"`
	CreatedAt     time.Time `json:"created_at"`
}

func toMCQRows(videoID string, qs []models.MCQQuestion, now time.Time) []mcqRow {
	rows := make([]mcqRow, len(qs))
	for i, q := range qs {
		rows[i] = mcqRow{
			ID:            q.ID,
			VideoID:       videoID,
			SegmentID:     q.SegmentID,
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			// Spread timestamps so insertion order survives ORDER BY created_at.
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		}
	}
	return rows
}

func (r mcqRow) model() models.MCQQuestion {
	opts := r.Options
	if opts == nil {
		opts = []string{}
	}
	return models.MCQQuestion{
		ID:            r.ID,
		SegmentID:     r.SegmentID,
		Question:      r.Question,
		Options:       opts,
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
	}
}
