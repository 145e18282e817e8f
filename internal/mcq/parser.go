// Package mcq turns language-model completions into multiple-choice
// questions, one generation request per transcript segment.
package mcq

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"videomcq/models"
)

// HeuristicExplanation is attached to questions recovered by the line-based
// fallback, which has no way to read an explanation.
const HeuristicExplanation = "Generated by AI"

// Strategy tags which parsing stage produced a result.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyStructured
	StrategyHeuristic
)

func (s Strategy) String() string {
	switch s {
	case StrategyStructured:
		return "structured"
	case StrategyHeuristic:
		return "heuristic"
	default:
		return "none"
	}
}

var (
	errNoObject      = errors.New("no JSON object in completion")
	errMissingFields = errors.New("object lacks question or options")
)

// Draft is a parsed question that has no identity yet.
type Draft struct {
	Question      string
	Options       []string
	CorrectAnswer int
	Explanation   string
}

// MCQ attaches identifiers and returns the stored form of d.
func (d Draft) MCQ(id, segmentID string) models.MCQQuestion {
	opts := make([]string, len(d.Options))
	copy(opts, d.Options)
	return models.MCQQuestion{
		ID:            id,
		SegmentID:     segmentID,
		Question:      d.Question,
		Options:       opts,
		CorrectAnswer: d.CorrectAnswer,
		Explanation:   d.Explanation,
	}
}

// ParseResult is the outcome of Parse. Drafts is empty exactly when Strategy
// is StrategyNone; Err then explains why the structured stage gave up.
type ParseResult struct {
	Strategy Strategy
	Drafts   []Draft
	Err      error
}

// Parse runs the structured stage and falls back to the heuristic stage when
// it fails. It never returns an error for bad input.
func Parse(completion string) ParseResult {
	d, err := ParseStructured(completion)
	if err == nil {
		return ParseResult{Strategy: StrategyStructured, Drafts: []Draft{d}}
	}
	if drafts := ParseHeuristic(completion); len(drafts) > 0 {
		return ParseResult{Strategy: StrategyHeuristic, Drafts: drafts}
	}
	return ParseResult{Strategy: StrategyNone, Err: err}
}

var fenceRe = regexp.MustCompile("```[A-Za-z]*")

type wireQuestion struct {
	Question      *string           `json:"question"`
	Options       []json.RawMessage `json:"options"`
	CorrectAnswer json.RawMessage   `json:"correctAnswer"`
	Explanation   json.RawMessage   `json:"explanation"`
	Questions     []json.RawMessage `json:"questions"`
}

// ParseStructured extracts one question from the JSON object spanning the
// first '{' to the last '}' of the completion, after removing Markdown code
// fences. An envelope {"questions": [...]} yields its first element.
//
// The question must be a non-empty string with at least two non-empty string
// options. A correctAnswer that is absent, not an integer, or out of range
// becomes 0; a missing explanation becomes "".
func ParseStructured(completion string) (Draft, error) {
	text := fenceRe.ReplaceAllString(completion, "")
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return Draft{}, errNoObject
	}

	var w wireQuestion
	if err := json.Unmarshal([]byte(text[start:end+1]), &w); err != nil {
		return Draft{}, fmt.Errorf("decode completion: %w", err)
	}
	if w.Question == nil && len(w.Questions) > 0 {
		inner := w.Questions[0]
		w = wireQuestion{}
		if err := json.Unmarshal(inner, &w); err != nil {
			return Draft{}, fmt.Errorf("decode questions[0]: %w", err)
		}
	}
	if w.Question == nil || strings.TrimSpace(*w.Question) == "" || w.Options == nil {
		return Draft{}, errMissingFields
	}

	d := Draft{Question: strings.TrimSpace(*w.Question)}
	for _, raw := range w.Options {
		var opt string
		if err := json.Unmarshal(raw, &opt); err != nil {
			continue
		}
		if opt = strings.TrimSpace(opt); opt != "" {
			d.Options = append(d.Options, opt)
		}
	}
	if len(d.Options) < models.MinOptions {
		return Draft{}, fmt.Errorf("%w: %d usable options", errMissingFields, len(d.Options))
	}
	d.CorrectAnswer = answerIndex(w.CorrectAnswer, len(d.Options))
	// A non-string explanation leaves it empty.
	_ = json.Unmarshal(w.Explanation, &d.Explanation)
	return d, nil
}

func answerIndex(raw json.RawMessage, n int) int {
	var f float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil {
		return 0
	}
	if f != math.Trunc(f) || f < 0 || f >= float64(n) {
		return 0
	}
	return int(f)
}

var optionRe = regexp.MustCompile(`^[A-D][.)]`)

// ParseHeuristic scans the completion line by line. A line containing '?'
// opens a new question; a line starting with A. through D. (or A) through D))
// adds an option to the open question. Questions with fewer than two options
// are discarded. Every result has CorrectAnswer 0 and HeuristicExplanation.
func ParseHeuristic(completion string) []Draft {
	var (
		drafts  []Draft
		current *Draft
	)
	closeCurrent := func() {
		if current != nil && len(current.Options) >= models.MinOptions {
			drafts = append(drafts, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(completion, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.Contains(line, "?"):
			closeCurrent()
			current = &Draft{Question: line, Explanation: HeuristicExplanation}
		case optionRe.MatchString(line):
			if current == nil {
				continue
			}
			if opt := strings.TrimSpace(line[2:]); opt != "" {
				current.Options = append(current.Options, opt)
			}
		}
	}
	closeCurrent()
	return drafts
}
