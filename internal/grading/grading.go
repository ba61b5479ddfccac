// Package grading implements the pluggable answer-scoring strategies used by
// the async grading pipeline: MCQGrader for multiple-choice questions,
// LexicalGrader for offline keyword/similarity scoring of free text, and
// LLMGrader for model-assisted scoring of free text via a chat-completion API.
package grading

import (
	"context"
	"errors"

	"github.com/stemsi/examcore/internal/model"
)

// ErrNoAnswer names the blank-answer case. The graders in this package do not
// return it: a blank answer yields score 0 with "No answer provided." and a
// nil error.
var ErrNoAnswer = errors.New("grading: no answer provided")

// Result is the outcome of grading a single answer.
type Result struct {
	Score    float64
	Feedback string
}

// Grader scores one student answer against a question's expected answer.
// Implementations must be safe for concurrent use.
type Grader interface {
	// Grade scores answerText against q and returns a Result whose Score is
	// clamped to [0, q.Points]. A returned error means grading could not be
	// completed (transport failure, malformed model output, etc.); the
	// caller decides how to record it (sessionengine records that answer
	// with score 0 and "Grading error: …" feedback).
	Grade(ctx context.Context, q *model.Question, answerText string) (Result, error)
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
