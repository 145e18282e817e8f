// Package transcript aggregates a streamed speech-to-text token feed into
// fixed-duration transcript segments and reports progress against the known
// length of the video.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformedToken is returned by ParseToken for records that cannot be used.
var ErrMalformedToken = errors.New("transcript: malformed token")

// Token is one unit of transcription output before windowing.
type Token struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type wireToken struct {
	Text  *string  `json:"text"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Error string   `json:"error"`
}

// ParseToken decodes one event payload. Records that are not JSON, carry an
// error field, or lack text, start or end are rejected with ErrMalformedToken.
func ParseToken(record string) (Token, error) {
	var w wireToken
	if err := json.Unmarshal([]byte(record), &w); err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if w.Error != "" {
		return Token{}, fmt.Errorf("%w: service reported %q", ErrMalformedToken, w.Error)
	}
	if w.Text == nil || w.Start == nil || w.End == nil {
		return Token{}, fmt.Errorf("%w: missing text, start or end", ErrMalformedToken)
	}
	text := strings.TrimSpace(*w.Text)
	if text == "" {
		return Token{}, fmt.Errorf("%w: empty text", ErrMalformedToken)
	}
	start, end := *w.Start, *w.End
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return Token{}, fmt.Errorf("%w: non-finite timestamp", ErrMalformedToken)
	}
	if start < 0 || end < start {
		return Token{}, fmt.Errorf("%w: invalid range [%g, %g]", ErrMalformedToken, start, end)
	}
	return Token{Text: text, Start: start, End: end}, nil
}
