package transcript

import (
	"fmt"
	"strings"

	"videomcq/models"
)

// DefaultWindow is the segment length in seconds.
const DefaultWindow = 60.0

// SegmentID returns the identifier assigned to the n-th segment of a transcript.
func SegmentID(n int) string {
	return fmt.Sprintf("segment-%d", n)
}

// Windower groups a start-ordered token sequence into segments.
//
// The window is anchored at the start of the first token of each segment, so
// a segment never begins in silence. A token whose start lies window seconds
// or more after the anchor closes the open segment and seeds the next one.
type Windower struct {
	window float64
	next   int

	open  bool
	text  strings.Builder
	start float64
	end   float64
}

// NewWindower returns a Windower using the given window length in seconds.
// Non-positive values select DefaultWindow.
func NewWindower(window float64) *Windower {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Windower{window: window, next: 1}
}

// Push feeds one token. When the token crosses the window boundary the
// finished segment is returned with ok set.
func (w *Windower) Push(tok Token) (seg models.TranscriptSegment, ok bool) {
	if !w.open {
		w.seed(tok)
		return models.TranscriptSegment{}, false
	}
	if tok.Start-w.start < w.window {
		w.text.WriteByte(' ')
		w.text.WriteString(tok.Text)
		w.end = tok.End
		return models.TranscriptSegment{}, false
	}
	seg = w.emit()
	w.seed(tok)
	return seg, true
}

// Close ends the stream and returns the final, possibly short, segment.
func (w *Windower) Close() (models.TranscriptSegment, bool) {
	if !w.open {
		return models.TranscriptSegment{}, false
	}
	seg := w.emit()
	w.open = false
	return seg, true
}

// Pending reports whether a segment is currently accumulating.
func (w *Windower) Pending() bool {
	return w.open
}

func (w *Windower) seed(tok Token) {
	w.open = true
	w.text.Reset()
	w.text.WriteString(tok.Text)
	w.start = tok.Start
	w.end = tok.End
}

func (w *Windower) emit() models.TranscriptSegment {
	n := w.next
	w.next++
	return models.TranscriptSegment{
		ID:            SegmentID(n),
		Text:          w.text.String(),
		StartTime:     w.start,
		EndTime:       w.end,
		SegmentNumber: n,
	}
}
