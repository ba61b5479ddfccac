package sessionengine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stemsi/examcore/internal/model"
	"github.com/stemsi/examcore/internal/store"
)

// StartAction distinguishes a freshly created session from a resumed one,
// which the HTTP layer uses to pick 201 vs 200.
type StartAction string

const (
	ActionStarted   StartAction = "started"
	ActionContinued StartAction = "continued"
)

// StartResult is the outcome of StartOrResume.
type StartResult struct {
	Session *model.Session
	Token   *model.SessionToken
	Action  StartAction
}

// StartOrResume begins a new session for (studentID, examID), or rotates
// the token of an existing active one. Exactly one valid token exists for
// the session after this call returns; any WebSocket connections bound to
// a token it just invalidated are notified via session_expired.
func (e *Engine) StartOrResume(ctx context.Context, studentID, examID uuid.UUID) (*StartResult, error) {
	exam, err := e.store.GetExam(ctx, examID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrExamNotActive
		}
		return nil, err
	}
	if !exam.IsActive {
		return nil, ErrExamNotActive
	}

	now := e.clock.Now()

	existing, err := e.store.GetSessionByStudentExam(ctx, studentID, examID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		if existing.IsCompleted {
			return nil, ErrAlreadyCompleted
		}
		token, invalidated, err := e.rotateToken(ctx, existing.ID, now)
		if err != nil {
			return nil, err
		}
		e.publishExpired(invalidated, reasonTokenExpired)
		return &StartResult{Session: existing, Token: token, Action: ActionContinued}, nil
	}

	sess := &model.Session{
		StudentID: studentID,
		ExamID:    examID,
		StartedAt: now,
		ExpiresAt: now.Add(time.Duration(exam.DurationMinutes) * time.Minute),
	}
	if err := e.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	token, _, err := e.rotateToken(ctx, sess.ID, now)
	if err != nil {
		return nil, err
	}

	if err := e.scheduler.Enqueue(ctx, sess.ID, sess.ExpiresAt); err != nil {
		e.log.Error().Err(err).Str("session_id", sess.ID.String()).Msg("failed to schedule auto-submit")
	}

	return &StartResult{Session: sess, Token: token, Action: ActionStarted}, nil
}

func (e *Engine) rotateToken(ctx context.Context, sessionID uuid.UUID, now time.Time) (*model.SessionToken, []model.SessionToken, error) {
	raw, err := e.minter.Mint()
	if err != nil {
		return nil, nil, err
	}
	token, invalidated, err := e.store.RotateToken(ctx, sessionID, raw, now)
	if errors.Is(err, store.ErrAlreadyExists) {
		// CSPRNG collision: astronomically unlikely, retryable once.
		raw, mintErr := e.minter.Mint()
		if mintErr != nil {
			return nil, nil, mintErr
		}
		return e.store.RotateToken(ctx, sessionID, raw, now)
	}
	if err != nil {
		return nil, nil, err
	}
	return token, invalidated, nil
}

// ValidateToken rejects with ErrTokenInvalid for an unknown token, an
// invalidated token, a completed session, or a session whose expiry has
// passed — a client cannot distinguish these cases. A token belonging to
// another student instead gets the distinguishable ErrTokenForbidden,
// which still satisfies errors.Is(err, ErrTokenInvalid) for callers that
// don't need the distinction.
func (e *Engine) ValidateToken(ctx context.Context, token string, callerStudentID uuid.UUID) (*model.Session, error) {
	sessionID, cached := e.cachedSessionForToken(ctx, token)
	if !cached {
		t, err := e.store.ValidToken(ctx, token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrTokenInvalid
			}
			return nil, err
		}
		sessionID = t.SessionID
		e.cacheTokenSession(ctx, token, sessionID)
	}

	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	if sess.StudentID != callerStudentID {
		return nil, ErrTokenForbidden
	}
	if sess.IsCompleted {
		return nil, ErrTokenInvalid
	}
	if sess.IsExpired(e.clock.Now()) {
		return nil, ErrTokenInvalid
	}

	return sess, nil
}
