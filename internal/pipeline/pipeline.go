// Package pipeline runs a video through upload registration, transcription
// and question generation, persisting each result once and publishing the
// state transitions the UI follows.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"videomcq/internal/events"
	"videomcq/internal/mcq"
	"videomcq/internal/observe"
	"videomcq/internal/transcript"
	"videomcq/models"
)

// ErrNoTranscript is returned by GenerateMCQs for a video without segments and
// by Process when transcription yields none.
var ErrNoTranscript = errors.New("pipeline: no transcript, generate the transcript first")

// Persistence is the storage the pipeline reads and writes.
type Persistence interface {
	SaveVideo(ctx context.Context, v models.Video) error
	GetVideo(ctx context.Context, id string) (models.Video, error)
	UpdateVideoStatus(ctx context.Context, id string, status models.VideoStatus) error
	SaveTranscript(ctx context.Context, videoID string, segments []models.TranscriptSegment) error
	GetTranscript(ctx context.Context, videoID string) ([]models.TranscriptSegment, error)
	SaveMCQs(ctx context.Context, videoID string, questions []models.MCQQuestion) error
}

// Transcriber turns a media stream into windowed transcript segments.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, media io.Reader, duration float64, onProgress transcript.ProgressFunc) (transcript.Result, error)
}

// Prober reads the duration of a media file.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Config is the explicit configuration of an Orchestrator.
type Config struct {
	TranscriptionEndpoint string
	GenerationEndpoint    string
	Model                 string
	Store                 Persistence
}

// Callbacks receive progress of a run. Any of them may be nil.
type Callbacks struct {
	OnTranscriptProgress transcript.ProgressFunc
	OnMCQProgress        mcq.StepFunc
	OnQuestion           mcq.QuestionFunc
}

// Orchestrator drives the pipeline for one video at a time per call. Calls
// for different videos may run concurrently.
type Orchestrator struct {
	cfg         Config
	store       Persistence
	transcriber Transcriber
	generator   mcq.Generator
	prober      Prober
	bus         events.Bus
	logger      logrus.FieldLogger
	metrics     *observe.Metrics
	seqOpts     []mcq.SequencerOption
	clientOpts  []transcript.Option
}

// Option is a functional option for Orchestrator.
type Option func(*Orchestrator)

// WithTranscriber replaces the HTTP transcription client.
func WithTranscriber(t Transcriber) Option {
	return func(o *Orchestrator) { o.transcriber = t }
}

// WithGenerator replaces the default Ollama generator.
func WithGenerator(g mcq.Generator) Option {
	return func(o *Orchestrator) { o.generator = g }
}

// WithProber sets the duration probe used at upload and when a stored video
// has no duration.
func WithProber(p Prober) Option {
	return func(o *Orchestrator) { o.prober = p }
}

// WithBus publishes progress events on b.
func WithBus(b events.Bus) Option {
	return func(o *Orchestrator) { o.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics records run metrics on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithSequencerOptions passes options to every Sequencer the orchestrator builds.
func WithSequencerOptions(opts ...mcq.SequencerOption) Option {
	return func(o *Orchestrator) { o.seqOpts = append(o.seqOpts, opts...) }
}

// WithTranscriptOptions passes options to the default transcription client.
func WithTranscriptOptions(opts ...transcript.Option) Option {
	return func(o *Orchestrator) { o.clientOpts = append(o.clientOpts, opts...) }
}

// New returns an Orchestrator. Without WithTranscriber and WithGenerator it
// talks to cfg.TranscriptionEndpoint and to an Ollama server at
// cfg.GenerationEndpoint running cfg.Model.
func New(cfg Config, opts ...Option) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("pipeline: store must not be nil")
	}
	o := &Orchestrator{
		cfg:    cfg,
		store:  cfg.Store,
		bus:    events.NewMemory(0),
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.transcriber == nil {
		client, err := transcript.NewClient(cfg.TranscriptionEndpoint,
			append([]transcript.Option{transcript.WithLogger(o.logger)}, o.clientOpts...)...)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		o.transcriber = client
	}
	if o.generator == nil {
		gen, err := mcq.NewOllamaGenerator(cfg.GenerationEndpoint, cfg.Model, mcq.WithOllamaLogger(o.logger))
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		o.generator = gen
	}
	return o, nil
}

// Bus returns the event bus progress is published on.
func (o *Orchestrator) Bus() events.Bus {
	return o.bus
}

func (o *Orchestrator) publish(ctx context.Context, e events.Event) {
	if err := o.bus.Publish(context.WithoutCancel(ctx), e); err != nil {
		o.logger.WithError(err).WithField("video_id", e.VideoID).Warn("Failed to publish event")
	}
}

func (o *Orchestrator) setStatus(ctx context.Context, videoID string, stage models.Stage, status models.VideoStatus, errMsg string) {
	if err := o.store.UpdateVideoStatus(context.WithoutCancel(ctx), videoID, status); err != nil {
		o.logger.WithError(err).WithField("video_id", videoID).Error("Failed to update video status")
	}
	o.publish(ctx, events.State(videoID, stage, status, errMsg))
}

func (o *Orchestrator) startRun(ctx context.Context, operation, videoID string) (context.Context, trace.Span) {
	ctx, span := observe.StartSpan(ctx, "pipeline."+operation)
	span.SetAttributes(attribute.String("video.id", videoID))
	o.metrics.RunStarted(ctx, operation)
	return ctx, span
}

func (o *Orchestrator) endRun(ctx context.Context, span trace.Span, operation string, err error) {
	status := "completed"
	switch {
	case ctx.Err() != nil:
		status = "cancelled"
	case err != nil:
		status = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.metrics.RunFinished(context.WithoutCancel(ctx), operation, status)
	span.End()
}

// GenerateTranscript streams the video file to the transcription service and
// replaces the stored transcript with the result.
//
// Transport failures mark the video as errored and are returned. When ctx is
// cancelled the partial transcript is discarded, the previous status is
// restored and ctx.Err() is returned.
func (o *Orchestrator) GenerateTranscript(ctx context.Context, videoID string, cb Callbacks) ([]models.TranscriptSegment, error) {
	ctx, span := o.startRun(ctx, "transcribe", videoID)
	segs, err := o.generateTranscript(ctx, videoID, cb)
	o.endRun(ctx, span, "transcribe", err)
	return segs, err
}

func (o *Orchestrator) generateTranscript(ctx context.Context, videoID string, cb Callbacks) ([]models.TranscriptSegment, error) {
	v, err := o.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return o.transcribe(ctx, v, cb, true)
}

// transcribe runs the transcription stage for v. v.Status is the status the
// video had before the run and is restored on cancel.
func (o *Orchestrator) transcribe(ctx context.Context, v models.Video, cb Callbacks, final bool) ([]models.TranscriptSegment, error) {
	videoID := v.ID
	log := o.logger.WithField("video_id", videoID)

	f, err := os.Open(v.Filepath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: open video file: %w", err)
	}
	defer f.Close()

	duration := v.Duration
	if duration <= 0 && o.prober != nil {
		if d, err := o.prober.Duration(ctx, v.Filepath); err == nil {
			duration = d.Seconds()
		} else {
			log.WithError(err).Warn("Could not probe duration, progress will stay at 0 until the end")
		}
	}

	o.setStatus(ctx, videoID, models.StageTranscription, models.VideoStatusProcessing, "")
	log.WithField("duration", duration).Info("Starting transcription")

	res, err := o.transcriber.Transcribe(ctx, v.Filename, f, duration,
		func(segs []models.TranscriptSegment, percent float64) {
			o.publish(ctx, events.TranscriptProgress(videoID, segs, percent))
			if cb.OnTranscriptProgress != nil {
				cb.OnTranscriptProgress(segs, percent)
			}
		})
	if ctx.Err() != nil || res.Abandoned {
		log.Info("Transcription abandoned, nothing persisted")
		o.setStatus(ctx, videoID, models.StageTranscription, v.Status, "")
		return res.Segments, ctx.Err()
	}
	if err != nil {
		log.WithError(err).Error("Transcription failed")
		o.setStatus(ctx, videoID, models.StageTranscription, models.VideoStatusError, err.Error())
		return nil, err
	}
	o.metrics.RecordTranscript(ctx, len(res.Segments), res.Dropped)

	if err := o.store.SaveTranscript(ctx, videoID, res.Segments); err != nil {
		o.setStatus(ctx, videoID, models.StageTranscription, models.VideoStatusError, err.Error())
		return nil, fmt.Errorf("pipeline: save transcript: %w", err)
	}
	log.WithFields(logrus.Fields{
		"segments": len(res.Segments),
		"tokens":   res.Tokens,
		"dropped":  res.Dropped,
	}).Info("Transcript saved")

	if final {
		o.setStatus(ctx, videoID, models.StageCompleted, models.VideoStatusCompleted, "")
	}
	return res.Segments, nil
}

// GenerateMCQs generates one question per stored transcript segment and
// appends the successful ones to the stored questions in a single write.
//
// Segments whose generation fails are skipped. When ctx is cancelled nothing
// is persisted and ctx.Err() is returned.
func (o *Orchestrator) GenerateMCQs(ctx context.Context, videoID string, cb Callbacks) ([]models.MCQQuestion, error) {
	ctx, span := o.startRun(ctx, "generate_mcqs", videoID)
	qs, err := o.generateMCQs(ctx, videoID, cb)
	o.endRun(ctx, span, "generate_mcqs", err)
	return qs, err
}

func (o *Orchestrator) generateMCQs(ctx context.Context, videoID string, cb Callbacks) ([]models.MCQQuestion, error) {
	v, err := o.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	segs, err := o.store.GetTranscript(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, ErrNoTranscript
	}
	return o.sequence(ctx, videoID, segs, v.Status, cb)
}

// sequence generates questions for segs and persists them. prior is restored
// when ctx is cancelled.
func (o *Orchestrator) sequence(ctx context.Context, videoID string, segs []models.TranscriptSegment, prior models.VideoStatus, cb Callbacks) ([]models.MCQQuestion, error) {
	log := o.logger.WithField("video_id", videoID)

	o.setStatus(ctx, videoID, models.StageMCQGeneration, models.VideoStatusProcessing, "")
	seq := mcq.NewSequencer(o.generator, append([]mcq.SequencerOption{
		mcq.WithSequencerLogger(log),
		mcq.WithMetrics(o.metrics),
	}, o.seqOpts...)...)

	res := seq.Run(ctx, segs,
		func(current, total int) {
			o.publish(ctx, events.MCQProgress(videoID, current, total))
			if cb.OnMCQProgress != nil {
				cb.OnMCQProgress(current, total)
			}
		},
		func(q models.MCQQuestion) {
			o.publish(ctx, events.QuestionGenerated(videoID, q))
			if cb.OnQuestion != nil {
				cb.OnQuestion(q)
			}
		})
	if res.Abandoned || ctx.Err() != nil {
		log.WithField("questions", len(res.Questions)).Info("Question generation abandoned, nothing persisted")
		o.setStatus(ctx, videoID, models.StageMCQGeneration, prior, "")
		return res.Questions, ctx.Err()
	}

	if err := o.store.SaveMCQs(ctx, videoID, res.Questions); err != nil {
		o.setStatus(ctx, videoID, models.StageMCQGeneration, models.VideoStatusError, err.Error())
		return nil, fmt.Errorf("pipeline: save questions: %w", err)
	}
	log.WithFields(logrus.Fields{
		"questions": len(res.Questions),
		"skipped":   res.Skipped,
	}).Info("Questions saved")

	o.setStatus(ctx, videoID, models.StageCompleted, models.VideoStatusCompleted, "")
	return res.Questions, nil
}

// Process runs transcription followed by question generation.
//
// The status the video had before the run is restored on cancel in either
// stage. A transcription that yields no segments ends the run with the video
// in error and ErrNoTranscript returned.
func (o *Orchestrator) Process(ctx context.Context, videoID string, cb Callbacks) ([]models.MCQQuestion, error) {
	ctx, span := o.startRun(ctx, "process", videoID)
	qs, err := o.process(ctx, videoID, cb)
	o.endRun(ctx, span, "process", err)
	return qs, err
}

func (o *Orchestrator) process(ctx context.Context, videoID string, cb Callbacks) ([]models.MCQQuestion, error) {
	v, err := o.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	segs, err := o.transcribe(ctx, v, cb, false)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		o.logger.WithField("video_id", videoID).Warn("Transcription produced no segments")
		o.setStatus(ctx, videoID, models.StageTranscription, models.VideoStatusError, ErrNoTranscript.Error())
		return nil, ErrNoTranscript
	}
	return o.sequence(ctx, videoID, segs, v.Status, cb)
}
