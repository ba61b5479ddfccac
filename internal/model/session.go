package model

import "time"

import "github.com/google/uuid"

// SubmissionType records how a Session was completed.
type SubmissionType string

const (
	SubmissionTypeManual      SubmissionType = "MANUAL"
	SubmissionTypeAutoExpired SubmissionType = "AUTO_EXPIRED"
)

// Session is a single attempt by one student at one exam. At most one
// Session exists per (StudentID, ExamID) pair. ExpiresAt is set once at
// creation (StartedAt + Exam.DurationMinutes) and never extended.
// IsCompleted = true implies SubmittedAt and SubmissionType are set, and the
// session is terminal: no operation mutates any of its fields or answers
// again.
type Session struct {
	ID                   uuid.UUID       `json:"id"`
	StudentID            uuid.UUID       `json:"student_id"`
	ExamID               uuid.UUID       `json:"exam_id"`
	StartedAt            time.Time       `json:"started_at"`
	ExpiresAt            time.Time       `json:"expires_at"`
	IsCompleted          bool            `json:"is_completed"`
	SubmittedAt          *time.Time      `json:"submitted_at,omitempty"`
	SubmissionType       *SubmissionType `json:"submission_type,omitempty"`
	CurrentQuestionOrder int             `json:"current_question_order"`
}

// IsExpired reports whether the clock has passed ExpiresAt.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// IsActive reports whether the session can still accept mutations: not
// completed and not past its deadline.
func (s *Session) IsActive(now time.Time) bool {
	return !s.IsCompleted && !s.IsExpired(now)
}

// TimeRemaining returns the non-negative duration until ExpiresAt.
func (s *Session) TimeRemaining(now time.Time) time.Duration {
	remaining := s.ExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
