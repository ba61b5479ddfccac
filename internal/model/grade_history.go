package model

import "time"

import "github.com/google/uuid"

// GradeStatus is the lifecycle state of a GradeHistory record.
type GradeStatus string

const (
	GradeStatusPending    GradeStatus = "PENDING"
	GradeStatusInProgress GradeStatus = "IN_PROGRESS"
	GradeStatusCompleted  GradeStatus = "COMPLETED"
	GradeStatusFailed     GradeStatus = "FAILED"
)

// GradingMethod records how completion was triggered. Normalized to the
// two-valued set the spec calls for, even though the original system tracked
// a richer set of near-synonyms (manual/timeout/expired/auto).
type GradingMethod string

const (
	GradingMethodManual  GradingMethod = "manual"
	GradingMethodTimeout GradingMethod = "timeout"
)

// PerAnswerGrade snapshots one graded answer, including the question payload
// at grading time so the record survives later question edits.
type PerAnswerGrade struct {
	QuestionID     uuid.UUID `json:"question_id"`
	Order          int       `json:"order"`
	QuestionText   string    `json:"question_text"`
	ExpectedAnswer string    `json:"expected_answer"`
	StudentAnswer  string    `json:"student_answer"`
	MaxScore       float64   `json:"max_score"`
	Score          float64   `json:"score"`
	Feedback       string    `json:"feedback"`
}

// GradeHistory is the durable, post-hoc record of a graded session. Exactly
// one exists per SessionID regardless of how many times grading was
// requested — Store.MarkCompletedIfNotAlready lets only one completion start
// grading, and the unique constraint on grade_history.session_id rejects any
// second insert.
type GradeHistory struct {
	ID            uuid.UUID        `json:"id"`
	StudentID     uuid.UUID        `json:"student_id"`
	ExamID        uuid.UUID        `json:"exam_id"`
	SessionID     uuid.UUID        `json:"session_id"`
	Status        GradeStatus      `json:"status"`
	TotalScore    float64          `json:"total_score"`
	MaxScore      float64          `json:"max_score"`
	Percentage    float64          `json:"percentage"`
	PerAnswer     []PerAnswerGrade `json:"per_answer"`
	StartedAt     time.Time        `json:"started_at"`
	SubmittedAt   time.Time        `json:"submitted_at"`
	GradedAt      *time.Time       `json:"graded_at,omitempty"`
	GradingMethod GradingMethod    `json:"grading_method"`
	CreatedAt     time.Time        `json:"created_at"`
}
