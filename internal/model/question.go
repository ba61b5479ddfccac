package model

import (
	"github.com/google/uuid"
)

// QuestionType selects the grading strategy dispatched for a Question.
type QuestionType string

const (
	QuestionTypeShortAnswer    QuestionType = "SHORT_ANSWER"
	QuestionTypeEssay          QuestionType = "ESSAY"
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
)

// Option is one selectable choice of an MCQ question.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Question is one item of an Exam. Questions within an exam form a
// contiguous 1-indexed sequence (Order); on delete, remaining questions
// renumber to preserve contiguity (see Store.DeleteQuestion).
//
// Invariants: for MCQ, every value in ExpectedAnswer appears in Options;
// AllowMultiple = false implies ExpectedAnswer is a single value (not a JSON
// array).
type Question struct {
	ID             uuid.UUID    `json:"id"`
	ExamID         uuid.UUID    `json:"exam_id"`
	Order          int          `json:"order"`
	Text           string       `json:"text"`
	Type           QuestionType `json:"type"`
	ExpectedAnswer string       `json:"expected_answer"`
	Options        []Option     `json:"options,omitempty"`
	AllowMultiple  bool         `json:"allow_multiple"`
	Points         int          `json:"points"`
}

// AddQuestionRequest is the admin-authoring payload for appending a question.
type AddQuestionRequest struct {
	Text           string       `json:"text" binding:"required,min=1,max=2000"`
	Type           QuestionType `json:"type" binding:"required,oneof=SHORT_ANSWER ESSAY MULTIPLE_CHOICE"`
	ExpectedAnswer string       `json:"expected_answer" binding:"required"`
	Options        []Option     `json:"options" binding:"omitempty,dive"`
	AllowMultiple  bool         `json:"allow_multiple"`
	Points         int          `json:"points" binding:"required,min=1"`
}
