package grading

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stemsi/examcore/internal/model"
)

// MCQGrader scores MULTIPLE_CHOICE answers deterministically: binary
// correct/incorrect for single-select, proportional credit minus an
// incorrect-selection penalty for multi-select.
type MCQGrader struct{}

// NewMCQGrader constructs an MCQGrader.
func NewMCQGrader() *MCQGrader {
	return &MCQGrader{}
}

func (g *MCQGrader) Grade(_ context.Context, q *model.Question, answerText string) (Result, error) {
	if answerText == "" {
		return Result{Score: 0, Feedback: "No answer provided."}, nil
	}

	student := decodeChoiceSet(answerText, q.AllowMultiple)
	expected := decodeChoiceSet(q.ExpectedAnswer, q.AllowMultiple)

	if !q.AllowMultiple {
		if setsEqual(student, expected) {
			return Result{Score: float64(q.Points), Feedback: "Correct answer selected."}, nil
		}
		return Result{Score: 0, Feedback: "Incorrect answer selected."}, nil
	}

	totalExpected := len(expected)
	if totalExpected == 0 {
		return Result{Score: 0, Feedback: "No correct answer defined."}, nil
	}

	correctSelected := 0
	incorrectSelected := 0
	for v := range student {
		if expected[v] {
			correctSelected++
		} else {
			incorrectSelected++
		}
	}

	maxPoints := float64(q.Points)
	correctScore := (float64(correctSelected) / float64(totalExpected)) * maxPoints
	penalty := 0.0
	if incorrectSelected > 0 {
		penalty = (float64(incorrectSelected) / float64(totalExpected)) * maxPoints
	}
	final := clamp(correctScore-penalty, 0, maxPoints)

	var feedback string
	switch {
	case final == maxPoints:
		feedback = "All correct answers selected."
	case correctSelected > 0:
		feedback = fmt.Sprintf("%d out of %d correct answers selected.", correctSelected, totalExpected)
	default:
		feedback = "Incorrect answer(s) selected."
	}

	return Result{Score: round2(final), Feedback: feedback}, nil
}

// decodeChoiceSet interprets text as a JSON array of option values when
// allowMultiple is set (falling back to a single-element set on malformed
// input, matching a lenient student client), or as a single bare value
// otherwise.
func decodeChoiceSet(text string, allowMultiple bool) map[string]bool {
	set := map[string]bool{}
	if !allowMultiple {
		if text != "" {
			set[text] = true
		}
		return set
	}

	var values []string
	if err := json.Unmarshal([]byte(text), &values); err != nil {
		if text != "" {
			set[text] = true
		}
		return set
	}
	for _, v := range values {
		set[v] = true
	}
	return set
}

func setsEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
