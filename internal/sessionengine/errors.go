package sessionengine

import (
	"errors"
	"fmt"
)

// Error kinds the engine surfaces. Transport adapters (httpapi, wsadapter)
// translate these to the appropriate status code / close code; the engine
// itself knows nothing about HTTP or WebSocket framing.
var (
	// ErrExamNotActive means the exam exists but is not open for sessions.
	ErrExamNotActive = errors.New("sessionengine: exam is not active")

	// ErrAlreadyCompleted means a new session was requested for a
	// (student, exam) pair whose prior attempt is already closed.
	ErrAlreadyCompleted = errors.New("sessionengine: session already completed")

	// ErrTokenInvalid is returned for every reason a token fails validation
	// (unknown, invalidated, session terminal) — deliberately uninformative
	// to avoid giving an attacker an oracle. HTTP handlers treat it and
	// ErrTokenForbidden identically (both map to 400), so this uniformity
	// is preserved at that layer; only the WebSocket close code needs the
	// ownership distinction, via ErrTokenForbidden below.
	ErrTokenInvalid = errors.New("sessionengine: token invalid")

	// ErrTokenForbidden means the token is otherwise valid but belongs to a
	// different student than the caller. It wraps ErrTokenInvalid, so
	// errors.Is(err, ErrTokenInvalid) still matches it for callers (like
	// httpapi) that don't need the distinction; wsadapter checks for this
	// sentinel specifically to pick close code 4003 over 4001.
	ErrTokenForbidden = fmt.Errorf("sessionengine: token does not belong to caller: %w", ErrTokenInvalid)

	// ErrQuestionNotFound means the exam has no question at the requested
	// order.
	ErrQuestionNotFound = errors.New("sessionengine: question not found")

	// ErrValidation means the request shape was rejected before reaching
	// the grader: empty answer text, MCQ value outside options, etc.
	ErrValidation = errors.New("sessionengine: validation failed")
)
