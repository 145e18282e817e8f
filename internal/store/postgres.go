package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"videomcq/models"
)

//go:embed schema.sql
var schemaSQL string

// Postgres is a Store backed by a PostgreSQL connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a pool to dsn, pings it and applies the schema.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Migrate creates the tables if they do not exist. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}

func (p *Postgres) SaveVideo(ctx context.Context, v models.Video) error {
	r := toVideoRow(v)
	_, err := p.pool.Exec(ctx, `
		INSERT INTO videos (id, filename, filepath, size, size_bytes, duration, uploaded_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			filepath = EXCLUDED.filepath,
			size = EXCLUDED.size,
			size_bytes = EXCLUDED.size_bytes,
			duration = EXCLUDED.duration,
			uploaded_at = EXCLUDED.uploaded_at,
			status = EXCLUDED.status`,
		r.ID, r.Filename, r.Filepath, r.Size, r.SizeBytes, r.Duration, r.UploadedAt, r.Status)
	if err != nil {
		return fmt.Errorf("postgres store: save video %s: %w", v.ID, err)
	}
	return nil
}

const videoColumns = `id, filename, filepath, size, size_bytes, duration, uploaded_at, status`

func scanVideo(row pgx.Row) (videoRow, error) {
	var r videoRow
	err := row.Scan(&r.ID, &r.Filename, &r.Filepath, &r.Size, &r.SizeBytes, &r.Duration, &r.UploadedAt, &r.Status)
	return r, err
}

func (p *Postgres) GetVideo(ctx context.Context, id string) (models.Video, error) {
	r, err := scanVideo(p.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Video{}, ErrNotFound
	}
	if err != nil {
		return models.Video{}, fmt.Errorf("postgres store: get video %s: %w", id, err)
	}
	return r.model(), nil
}

func (p *Postgres) ListVideos(ctx context.Context) ([]models.VideoSummary, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT v.id, v.filename, v.filepath, v.size, v.size_bytes, v.duration, v.uploaded_at, v.status,
			(SELECT count(*) FROM transcript_segments s WHERE s.video_id = v.id),
			(SELECT count(*) FROM mcq_questions q WHERE q.video_id = v.id)
		FROM videos v
		ORDER BY v.uploaded_at DESC, v.id`)
	if err != nil {
		return nil, fmt.Errorf("postgres store: list videos: %w", err)
	}
	defer rows.Close()

	out := []models.VideoSummary{}
	for rows.Next() {
		var (
			r      videoRow
			nSegs  int
			nQuest int
		)
		if err := rows.Scan(&r.ID, &r.Filename, &r.Filepath, &r.Size, &r.SizeBytes, &r.Duration,
			&r.UploadedAt, &r.Status, &nSegs, &nQuest); err != nil {
			return nil, fmt.Errorf("postgres store: scan video: %w", err)
		}
		out = append(out, models.VideoSummary{Video: r.model(), TranscriptCount: nSegs, MCQCount: nQuest})
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateVideoStatus(ctx context.Context, id string, status models.VideoStatus) error {
	tag, err := p.pool.Exec(ctx, `UPDATE videos SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("postgres store: update video %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteVideo(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres store: delete video %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SaveTranscript(ctx context.Context, videoID string, segments []models.TranscriptSegment) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, videoID).Scan(&exists); err != nil {
			return fmt.Errorf("postgres store: check video %s: %w", videoID, err)
		}
		if !exists {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM transcript_segments WHERE video_id = $1`, videoID); err != nil {
			return fmt.Errorf("postgres store: clear transcript %s: %w", videoID, err)
		}
		rows := toSegmentRows(videoID, segments)
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"transcript_segments"},
			[]string{"video_id", "segment_id", "text", "start_time", "end_time", "segment_number"},
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				r := rows[i]
				return []any{r.VideoID, r.SegmentID, r.Text, r.StartTime, r.EndTime, r.SegmentNumber}, nil
			}))
		if err != nil {
			return fmt.Errorf("postgres store: save transcript %s: %w", videoID, err)
		}
		return nil
	})
}

func (p *Postgres) GetTranscript(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT segment_id, text, start_time, end_time, segment_number
		FROM transcript_segments WHERE video_id = $1 ORDER BY segment_number`, videoID)
	if err != nil {
		return nil, fmt.Errorf("postgres store: get transcript %s: %w", videoID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TranscriptSegment, error) {
		var r segmentRow
		err := row.Scan(&r.SegmentID, &r.Text, &r.StartTime, &r.EndTime, &r.SegmentNumber)
		return r.model(), err
	})
}

func (p *Postgres) SaveMCQs(ctx context.Context, videoID string, questions []models.MCQQuestion) error {
	if _, err := p.GetVideo(ctx, videoID); err != nil {
		return err
	}
	if len(questions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range toMCQRows(videoID, questions, time.Now().UTC()) {
		batch.Queue(`
			INSERT INTO mcq_questions (id, video_id, segment_id, question, options, correct_answer, explanation, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.ID, r.VideoID, r.SegmentID, r.Question, r.Options, r.CorrectAnswer, r.Explanation, r.CreatedAt)
	}
	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres store: save questions for %s: %w", videoID, err)
	}
	return nil
}

const mcqColumns = `id, segment_id, question, options, correct_answer, explanation`

func scanMCQ(row pgx.Row) (models.MCQQuestion, error) {
	var r mcqRow
	err := row.Scan(&r.ID, &r.SegmentID, &r.Question, &r.Options, &r.CorrectAnswer, &r.Explanation)
	return r.model(), err
}

func (p *Postgres) ListMCQs(ctx context.Context, videoID string) ([]models.MCQQuestion, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+mcqColumns+` FROM mcq_questions
		WHERE video_id = $1 ORDER BY created_at, id`, videoID)
	if err != nil {
		return nil, fmt.Errorf("postgres store: list questions for %s: %w", videoID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.MCQQuestion, error) {
		return scanMCQ(row)
	})
}

func (p *Postgres) GetMCQ(ctx context.Context, id string) (models.MCQQuestion, error) {
	q, err := scanMCQ(p.pool.QueryRow(ctx, `SELECT `+mcqColumns+` FROM mcq_questions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.MCQQuestion{}, ErrNotFound
	}
	if err != nil {
		return models.MCQQuestion{}, fmt.Errorf("postgres store: get question %s: %w", id, err)
	}
	return q, nil
}

func (p *Postgres) UpdateMCQ(ctx context.Context, id string, patch models.MCQPatch) (models.MCQQuestion, error) {
	var updated models.MCQQuestion
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		current, err := scanMCQ(tx.QueryRow(ctx,
			`SELECT `+mcqColumns+` FROM mcq_questions WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("postgres store: get question %s: %w", id, err)
		}
		if updated, err = patch.Apply(current); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE mcq_questions SET question = $2, options = $3, correct_answer = $4, explanation = $5
			WHERE id = $1`,
			id, updated.Question, updated.Options, updated.CorrectAnswer, updated.Explanation)
		if err != nil {
			return fmt.Errorf("postgres store: update question %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return models.MCQQuestion{}, err
	}
	return updated, nil
}

func (p *Postgres) DeleteMCQ(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM mcq_questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres store: delete question %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateJob(ctx context.Context, j models.ProcessingJob) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO processing_jobs
			(id, job_type, video_id, status, progress, error_message, created_at, updated_at, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		j.ID, string(j.JobType), j.VideoID, string(j.Status), j.Progress, j.ErrorMessage,
		j.CreatedAt, j.UpdatedAt, j.StartedAt, j.CompletedAt)
	if err != nil {
		return fmt.Errorf("postgres store: create job %s: %w", j.ID, err)
	}
	return nil
}

func (p *Postgres) GetJob(ctx context.Context, id string) (models.ProcessingJob, error) {
	var (
		j               models.ProcessingJob
		jobType, status string
	)
	err := p.pool.QueryRow(ctx, `
		SELECT id, job_type, video_id, status, progress, error_message, created_at, updated_at, started_at, completed_at
		FROM processing_jobs WHERE id = $1`, id).
		Scan(&j.ID, &jobType, &j.VideoID, &status, &j.Progress, &j.ErrorMessage,
			&j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ProcessingJob{}, ErrNotFound
	}
	if err != nil {
		return models.ProcessingJob{}, fmt.Errorf("postgres store: get job %s: %w", id, err)
	}
	j.JobType = models.JobType(jobType)
	j.Status = models.JobStatus(status)
	return j, nil
}

func (p *Postgres) UpdateJob(ctx context.Context, j models.ProcessingJob) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE processing_jobs
		SET status = $2, progress = $3, error_message = $4, updated_at = $5, started_at = $6, completed_at = $7
		WHERE id = $1`,
		j.ID, string(j.Status), j.Progress, j.ErrorMessage, j.UpdatedAt, j.StartedAt, j.CompletedAt)
	if err != nil {
		return fmt.Errorf("postgres store: update job %s: %w", j.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}
