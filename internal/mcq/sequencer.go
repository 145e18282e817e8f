package mcq

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"videomcq/internal/observe"
	"videomcq/models"
)

// StepFunc is called with (i+1, n) before segment i of n is requested.
type StepFunc func(current, total int)

// QuestionFunc is called once for every question as soon as it is parsed.
type QuestionFunc func(q models.MCQQuestion)

// Sequencer requests questions for transcript segments one at a time, in
// segment order.
type Sequencer struct {
	gen     Generator
	parse   func(string) ParseResult
	newID   func() string
	logger  logrus.FieldLogger
	metrics *observe.Metrics
}

// SequencerOption is a functional option for Sequencer.
type SequencerOption func(*Sequencer)

// WithParser replaces Parse, mainly for tests.
func WithParser(fn func(string) ParseResult) SequencerOption {
	return func(s *Sequencer) {
		s.parse = fn
	}
}

// WithIDFunc replaces the question id generator (random UUIDs by default).
func WithIDFunc(fn func() string) SequencerOption {
	return func(s *Sequencer) {
		s.newID = fn
	}
}

// WithSequencerLogger sets the logger for skipped segments.
func WithSequencerLogger(l logrus.FieldLogger) SequencerOption {
	return func(s *Sequencer) {
		s.logger = l
	}
}

// WithMetrics records per-segment latency and outcomes on m.
func WithMetrics(m *observe.Metrics) SequencerOption {
	return func(s *Sequencer) {
		s.metrics = m
	}
}

// NewSequencer returns a Sequencer backed by gen.
func NewSequencer(gen Generator, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		gen:    gen,
		parse:  Parse,
		newID:  uuid.NewString,
		logger: logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Result is the outcome of a Sequencer run.
type Result struct {
	// Questions in segment order, and in parse order within a segment.
	Questions []models.MCQQuestion
	// Skipped counts segments that produced no question.
	Skipped int
	// Abandoned is set when ctx was cancelled before the last segment.
	Abandoned bool
}

// Run generates questions for segments. A segment whose request or parse
// fails is logged and skipped; it never stops the run. Cancelling ctx stops
// before the next request and returns what was produced so far.
//
// Either callback may be nil.
func (s *Sequencer) Run(ctx context.Context, segments []models.TranscriptSegment, onStep StepFunc, onQuestion QuestionFunc) Result {
	var res Result
	total := len(segments)

	for i, seg := range segments {
		if ctx.Err() != nil {
			res.Abandoned = true
			return res
		}
		if onStep != nil {
			onStep(i+1, total)
		}

		qs, err := s.segment(ctx, seg)
		if ctx.Err() != nil {
			res.Abandoned = true
			return res
		}
		if err != nil {
			res.Skipped++
			s.logger.WithError(err).WithFields(logrus.Fields{
				"segment_id":     seg.ID,
				"segment_number": seg.SegmentNumber,
			}).Error("Failed to generate question for segment")
			continue
		}
		for _, q := range qs {
			res.Questions = append(res.Questions, q)
			if onQuestion != nil {
				onQuestion(q)
			}
		}
	}
	return res
}

func (s *Sequencer) segment(ctx context.Context, seg models.TranscriptSegment) ([]models.MCQQuestion, error) {
	ctx, span := observe.StartSpan(ctx, "mcq.generate_segment")
	defer span.End()
	span.SetAttributes(
		attribute.String("segment.id", seg.ID),
		attribute.Int("segment.number", seg.SegmentNumber),
	)

	started := time.Now()
	completion, err := s.gen.Complete(ctx, Prompt(seg.Text))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		s.metrics.RecordGeneration(ctx, time.Since(started), "", 0, "request")
		return nil, err
	}

	parsed := s.parse(completion)
	span.SetAttributes(attribute.String("mcq.strategy", parsed.Strategy.String()))
	if parsed.Strategy == StrategyNone {
		span.SetStatus(codes.Error, "unparsable completion")
		s.metrics.RecordGeneration(ctx, time.Since(started), "", 0, "parse")
		return nil, &ParseError{Completion: completion, Err: parsed.Err}
	}
	s.metrics.RecordGeneration(ctx, time.Since(started), parsed.Strategy.String(), len(parsed.Drafts), "")

	qs := make([]models.MCQQuestion, 0, len(parsed.Drafts))
	for _, d := range parsed.Drafts {
		qs = append(qs, d.MCQ(s.newID(), seg.ID))
	}
	return qs, nil
}

// ParseError reports a completion that neither parsing stage accepted.
type ParseError struct {
	Completion string
	Err        error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "mcq: unparsable completion"
	}
	return "mcq: unparsable completion: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }
