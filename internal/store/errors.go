package store

import "errors"

// Sentinel errors returned by Store operations. Callers compare with
// errors.Is; the sentinel is returned in place of the driver error, which
// is not wrapped.
var (
	// ErrNotFound means no row matched the lookup.
	ErrNotFound = errors.New("store: not found")

	// ErrAlreadyExists means a unique-constraint violation prevented the
	// write — (studentId, examId), session_token value, and
	// grade_history.sessionId are guarded this way. (sessionId, questionId)
	// never yields it: UpsertAnswer updates the existing row instead.
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrNoQuestions means an exam was asked to activate with zero questions.
	ErrNoQuestions = errors.New("store: exam has no questions")
)
