package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/supabase-community/postgrest-go"
	storage_go "github.com/supabase-community/storage-go"
	supa "github.com/supabase-community/supabase-go"

	"videomcq/models"
)

const (
	tableVideos    = "videos"
	tableSegments  = "transcript_segments"
	tableQuestions = "mcq_questions"
	tableJobs      = "processing_jobs"
)

// Objects stores binary files next to the database records. Drivers without
// an object store do not implement it.
type Objects interface {
	PutObject(ctx context.Context, path, contentType string, r io.Reader) error
	RemoveObject(ctx context.Context, path string) error
}

// Supabase is a Store backed by a Supabase project: tables through PostgREST
// and video files in a storage bucket.
//
// The PostgREST client does not take a context, so request cancellation is
// bounded by the HTTP client timeout instead.
type Supabase struct {
	client *supa.Client
	bucket string
}

// NewSupabase connects to the project at url with the service key.
func NewSupabase(url, key, bucket string) (*Supabase, error) {
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("store: init supabase client: %w", err)
	}
	return &Supabase{client: client, bucket: bucket}, nil
}

func (s *Supabase) SaveVideo(_ context.Context, v models.Video) error {
	_, _, err := s.client.From(tableVideos).
		Upsert(toVideoRow(v), "id", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("store: save video %s: %w", v.ID, err)
	}
	return nil
}

func (s *Supabase) GetVideo(_ context.Context, id string) (models.Video, error) {
	var rows []videoRow
	if _, err := s.client.From(tableVideos).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows); err != nil {
		return models.Video{}, fmt.Errorf("store: get video %s: %w", id, err)
	}
	if len(rows) == 0 {
		return models.Video{}, ErrNotFound
	}
	return rows[0].model(), nil
}

func (s *Supabase) ListVideos(_ context.Context) ([]models.VideoSummary, error) {
	var rows []videoRow
	if _, err := s.client.From(tableVideos).
		Select("*", "", false).
		Order("uploaded_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("store: list videos: %w", err)
	}

	out := make([]models.VideoSummary, 0, len(rows))
	for _, r := range rows {
		segs, err := s.count(tableSegments, r.ID)
		if err != nil {
			return nil, err
		}
		qs, err := s.count(tableQuestions, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.VideoSummary{Video: r.model(), TranscriptCount: segs, MCQCount: qs})
	}
	return out, nil
}

func (s *Supabase) count(table, videoID string) (int, error) {
	_, n, err := s.client.From(table).
		Select("video_id", "exact", true).
		Eq("video_id", videoID).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("store: count %s for %s: %w", table, videoID, err)
	}
	return int(n), nil
}

func (s *Supabase) UpdateVideoStatus(_ context.Context, id string, status models.VideoStatus) error {
	_, n, err := s.client.From(tableVideos).
		Update(map[string]interface{}{"status": string(status)}, "", "exact").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("store: update video %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Supabase) DeleteVideo(_ context.Context, id string) error {
	for _, table := range []string{tableQuestions, tableSegments} {
		if _, _, err := s.client.From(table).Delete("", "").Eq("video_id", id).Execute(); err != nil {
			return fmt.Errorf("store: delete %s of %s: %w", table, id, err)
		}
	}
	_, n, err := s.client.From(tableVideos).Delete("", "exact").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("store: delete video %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Supabase) SaveTranscript(ctx context.Context, videoID string, segments []models.TranscriptSegment) error {
	if _, err := s.GetVideo(ctx, videoID); err != nil {
		return err
	}
	if _, _, err := s.client.From(tableSegments).Delete("", "").Eq("video_id", videoID).Execute(); err != nil {
		return fmt.Errorf("store: clear transcript %s: %w", videoID, err)
	}
	if len(segments) == 0 {
		return nil
	}
	if _, _, err := s.client.From(tableSegments).
		Insert(toSegmentRows(videoID, segments), false, "", "minimal", "").
		Execute(); err != nil {
		return fmt.Errorf("store: save transcript %s: %w", videoID, err)
	}
	return nil
}

func (s *Supabase) GetTranscript(_ context.Context, videoID string) ([]models.TranscriptSegment, error) {
	var rows []segmentRow
	if _, err := s.client.From(tableSegments).
		Select("*", "", false).
		Eq("video_id", videoID).
		Order("segment_number", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("store: get transcript %s: %w", videoID, err)
	}
	out := make([]models.TranscriptSegment, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (s *Supabase) SaveMCQs(ctx context.Context, videoID string, questions []models.MCQQuestion) error {
	if _, err := s.GetVideo(ctx, videoID); err != nil {
		return err
	}
	if len(questions) == 0 {
		return nil
	}
	if _, _, err := s.client.From(tableQuestions).
		Insert(toMCQRows(videoID, questions, time.Now().UTC()), false, "", "minimal", "").
		Execute(); err != nil {
		return fmt.Errorf("store: save questions for %s: %w", videoID, err)
	}
	return nil
}

func (s *Supabase) ListMCQs(_ context.Context, videoID string) ([]models.MCQQuestion, error) {
	var rows []mcqRow
	if _, err := s.client.From(tableQuestions).
		Select("*", "", false).
		Eq("video_id", videoID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("store: list questions for %s: %w", videoID, err)
	}
	out := make([]models.MCQQuestion, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (s *Supabase) GetMCQ(_ context.Context, id string) (models.MCQQuestion, error) {
	var rows []mcqRow
	if _, err := s.client.From(tableQuestions).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows); err != nil {
		return models.MCQQuestion{}, fmt.Errorf("store: get question %s: %w", id, err)
	}
	if len(rows) == 0 {
		return models.MCQQuestion{}, ErrNotFound
	}
	return rows[0].model(), nil
}

func (s *Supabase) UpdateMCQ(ctx context.Context, id string, patch models.MCQPatch) (models.MCQQuestion, error) {
	current, err := s.GetMCQ(ctx, id)
	if err != nil {
		return models.MCQQuestion{}, err
	}
	updated, err := patch.Apply(current)
	if err != nil {
		return models.MCQQuestion{}, err
	}
	if patch.IsEmpty() {
		return updated, nil
	}
	if _, _, err := s.client.From(tableQuestions).
		Update(patch.Fields(), "", "").
		Eq("id", id).
		Execute(); err != nil {
		return models.MCQQuestion{}, fmt.Errorf("store: update question %s: %w", id, err)
	}
	return updated, nil
}

func (s *Supabase) DeleteMCQ(_ context.Context, id string) error {
	_, n, err := s.client.From(tableQuestions).Delete("", "exact").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("store: delete question %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Supabase) CreateJob(_ context.Context, job models.ProcessingJob) error {
	if _, _, err := s.client.From(tableJobs).
		Insert(job, false, "", "minimal", "").
		Execute(); err != nil {
		return fmt.Errorf("store: create job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Supabase) GetJob(_ context.Context, id string) (models.ProcessingJob, error) {
	var jobs []models.ProcessingJob
	body, _, err := s.client.From(tableJobs).
		Select("*", "", false).
		Eq("id", id).
		Limit(1, "").
		Execute()
	if err != nil {
		return models.ProcessingJob{}, fmt.Errorf("store: get job %s: %w", id, err)
	}
	if err := json.Unmarshal(body, &jobs); err != nil {
		return models.ProcessingJob{}, fmt.Errorf("store: decode job %s: %w", id, err)
	}
	if len(jobs) == 0 {
		return models.ProcessingJob{}, ErrNotFound
	}
	return jobs[0], nil
}

func (s *Supabase) UpdateJob(_ context.Context, job models.ProcessingJob) error {
	updates := map[string]interface{}{
		"status":        job.Status,
		"progress":      job.Progress,
		"error_message": job.ErrorMessage,
		"updated_at":    job.UpdatedAt,
		"started_at":    job.StartedAt,
		"completed_at":  job.CompletedAt,
	}
	_, n, err := s.client.From(tableJobs).
		Update(updates, "", "exact").
		Eq("id", job.ID).
		Execute()
	if err != nil {
		return fmt.Errorf("store: update job %s: %w", job.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Supabase) Ping(_ context.Context) error {
	_, _, err := s.client.From(tableVideos).Select("id", "", false).Limit(1, "").Execute()
	return err
}

func (s *Supabase) Close() {}

// PutObject uploads a file into the configured storage bucket.
func (s *Supabase) PutObject(_ context.Context, path, contentType string, r io.Reader) error {
	upsert := true
	opts := storage_go.FileOptions{ContentType: &contentType, Upsert: &upsert}
	if _, err := s.client.Storage.UploadFile(s.bucket, path, r, opts); err != nil {
		return fmt.Errorf("store: upload %s/%s: %w", s.bucket, path, err)
	}
	return nil
}

// RemoveObject deletes a file from the storage bucket.
func (s *Supabase) RemoveObject(_ context.Context, path string) error {
	if _, err := s.client.Storage.RemoveFile(s.bucket, []string{path}); err != nil {
		return fmt.Errorf("store: remove %s/%s: %w", s.bucket, path, err)
	}
	return nil
}
