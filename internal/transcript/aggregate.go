package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"videomcq/internal/stream"
	"videomcq/models"
)

// ErrTransport marks failures of the transcription stream itself. They end
// the whole run; malformed records never do.
var ErrTransport = errors.New("transcript: transport failure")

// Options configures Aggregate.
type Options struct {
	// Window is the segment length in seconds. Zero means DefaultWindow.
	Window float64
	// Duration is the total video length in seconds, used for progress.
	Duration float64
	// ChunkTimeout bounds the wait for each chunk. Zero disables it.
	ChunkTimeout time.Duration
	Logger       logrus.FieldLogger
}

// Result is the outcome of one transcription stream.
type Result struct {
	Segments []models.TranscriptSegment
	Tokens   int
	Dropped  int
	// Abandoned is set when the context was cancelled before the stream ended.
	// Segments then holds only what had been emitted.
	Abandoned bool
}

// Aggregate consumes a server-sent-event transcription stream from body and
// windows its tokens into segments.
//
// onProgress is called with 0% before reading, after every emitted segment,
// and with exactly 100% once the stream has ended cleanly. Cancelling ctx
// stops emissions and returns the partial result without an error.
func Aggregate(ctx context.Context, body io.ReadCloser, opts Options, onProgress ProgressFunc) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var (
		res      Result
		windower = NewWindower(opts.Window)
		reporter = NewReporter(opts.Duration, onProgress)
	)
	reporter.Start()

	err := stream.Pump(ctx, body, stream.NewDecoder(stream.FramingEvent),
		stream.PumpOptions{ChunkTimeout: opts.ChunkTimeout},
		func(record string) bool {
			tok, err := ParseToken(record)
			if err != nil {
				res.Dropped++
				logger.WithError(err).WithField("record", truncate(record, 200)).Warn("Dropping transcription record")
				return true
			}
			res.Tokens++
			if seg, ok := windower.Push(tok); ok {
				res.Segments = append(res.Segments, seg)
				reporter.Segment(res.Segments)
			}
			return true
		})
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if ctx.Err() != nil {
		res.Abandoned = true
		return res, nil
	}

	if seg, ok := windower.Close(); ok {
		res.Segments = append(res.Segments, seg)
		reporter.Segment(res.Segments)
	}
	reporter.Finish(res.Segments)
	return res, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
