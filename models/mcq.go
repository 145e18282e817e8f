package models

import (
	"errors"
	"fmt"
	"strings"
)

// MinOptions is the smallest number of answer options a question may carry.
const MinOptions = 2

var (
	ErrEmptyQuestion     = errors.New("question text is empty")
	ErrTooFewOptions     = errors.New("question has too few options")
	ErrAnswerOutOfBounds = errors.New("correct answer index is out of bounds")
)

// MCQQuestion is a multiple-choice question generated from one transcript segment.
type MCQQuestion struct {
	ID            string   `json:"id" validate:"required"`
	SegmentID     string   `json:"segmentId" validate:"required"`
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"min=2"`
	CorrectAnswer int      `json:"correctAnswer" validate:"gte=0"`
	Explanation   string   `json:"explanation"`
}

// Validate checks the invariants every persisted question must hold.
func (q MCQQuestion) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return ErrEmptyQuestion
	}
	if len(q.Options) < MinOptions {
		return fmt.Errorf("%w: %d < %d", ErrTooFewOptions, len(q.Options), MinOptions)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrAnswerOutOfBounds, q.CorrectAnswer, len(q.Options))
	}
	return nil
}

// MCQPatch is a partial update of a question. Nil fields are left unchanged.
type MCQPatch struct {
	Question      *string   `json:"question,omitempty" validate:"omitempty,min=1"`
	Options       *[]string `json:"options,omitempty" validate:"omitempty,min=2"`
	CorrectAnswer *int      `json:"correctAnswer,omitempty" validate:"omitempty,gte=0"`
	Explanation   *string   `json:"explanation,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p MCQPatch) IsEmpty() bool {
	return p.Question == nil && p.Options == nil && p.CorrectAnswer == nil && p.Explanation == nil
}

// Apply returns q with the patch merged in and validates the result.
func (p MCQPatch) Apply(q MCQQuestion) (MCQQuestion, error) {
	if p.Question != nil {
		q.Question = *p.Question
	}
	if p.Options != nil {
		q.Options = append([]string(nil), (*p.Options)...)
	}
	if p.CorrectAnswer != nil {
		q.CorrectAnswer = *p.CorrectAnswer
	}
	if p.Explanation != nil {
		q.Explanation = *p.Explanation
	}
	if err := q.Validate(); err != nil {
		return MCQQuestion{}, err
	}
	return q, nil
}

// Fields returns the patch as a column map for partial database updates.
func (p MCQPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p.Question != nil {
		fields["question"] = *p.Question
	}
	if p.Options != nil {
		fields["options"] = *p.Options
	}
	if p.CorrectAnswer != nil {
		fields["correct_answer"] = *p.CorrectAnswer
	}
	if p.Explanation != nil {
		fields["explanation"] = *p.Explanation
	}
	return fields
}
