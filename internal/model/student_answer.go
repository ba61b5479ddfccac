package model

import "time"

import "github.com/google/uuid"

// StudentAnswer is one student's response to one question of one session.
// Unique on (SessionID, QuestionID). For MCQ-single, AnswerText is the
// chosen option value; for MCQ-multi, a JSON array of option values; for
// free text, the text verbatim.
type StudentAnswer struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	QuestionID uuid.UUID `json:"question_id"`
	AnswerText string    `json:"answer_text"`
	AnsweredAt time.Time `json:"answered_at"`
}
