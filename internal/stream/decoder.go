// Package stream turns chunked network bodies into discrete candidate-JSON
// records. It understands two framings: server-sent events whose payload lines
// start with "data:", and newline-delimited JSON objects.
package stream

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// Framing selects which lines a Decoder keeps.
type Framing int

const (
	// FramingEvent keeps lines prefixed with "data:" and strips the prefix.
	FramingEvent Framing = iota
	// FramingJSONLines keeps lines that begin with "{" after trimming.
	FramingJSONLines
)

const eventPrefix = "data:"

// Decoder splits a sequence of byte chunks into records.
//
// Bytes after the last newline of a chunk are carried over to the next call,
// so a record split across chunks, including a multi-byte rune split
// mid-sequence, is reassembled before it is filtered.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	framing Framing
	pending []byte
}

// NewDecoder returns a Decoder for the given framing.
func NewDecoder(framing Framing) *Decoder {
	return &Decoder{framing: framing}
}

// Decode consumes one chunk and returns the complete records it finished.
// Empty chunks and chunks without a matching line yield no records.
func (d *Decoder) Decode(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	d.pending = append(d.pending, chunk...)

	var records []string
	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			break
		}
		if rec, ok := d.match(d.pending[:i]); ok {
			records = append(records, rec)
		}
		d.pending = d.pending[i+1:]
	}
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return records
}

// Flush returns the record held in the unterminated tail, if any, and resets
// the decoder. Call it once the underlying stream has ended.
func (d *Decoder) Flush() []string {
	tail := d.pending
	d.pending = nil
	if rec, ok := d.match(tail); ok {
		return []string{rec}
	}
	return nil
}

// Buffered reports how many bytes are waiting for a line terminator.
func (d *Decoder) Buffered() int {
	return len(d.pending)
}

func (d *Decoder) match(line []byte) (string, bool) {
	text := decodeText(line)
	switch d.framing {
	case FramingEvent:
		text = strings.TrimRight(text, "\r")
		if !strings.HasPrefix(text, eventPrefix) {
			return "", false
		}
		text = strings.TrimSpace(strings.TrimPrefix(text, eventPrefix))
		if text == "" {
			return "", false
		}
		return text, true
	case FramingJSONLines:
		text = strings.TrimSpace(text)
		if !strings.HasPrefix(text, "{") {
			return "", false
		}
		return text, true
	}
	return "", false
}

// decodeText converts a complete line to a string, replacing invalid UTF-8
// with U+FFFD so downstream JSON decoding sees well-formed text.
func decodeText(line []byte) string {
	if utf8.Valid(line) {
		return string(line)
	}
	return strings.ToValidUTF8(string(line), string(utf8.RuneError))
}
