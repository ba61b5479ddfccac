package sessionengine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/stemsi/examcore/internal/model"
	"github.com/stemsi/examcore/internal/store"
)

// CompletionReason labels why a session was completed, surfaced to the
// client via session_completed.
type CompletionReason string

const (
	ReasonSubmitted CompletionReason = reasonSubmitted
	ReasonTimeout   CompletionReason = reasonTimeout
)

// CompleteAndGrade is the single entry point for submission, whether manual
// or automatic. It is idempotent: a second call for an already-completed
// session returns the existing GradeHistory without side effects.
func (e *Engine) CompleteAndGrade(ctx context.Context, sessionID uuid.UUID, reason CompletionReason, notifyTokens []string, submissionType model.SubmissionType) (*model.GradeHistory, error) {
	now := e.clock.Now()

	didTransition, invalidated, err := e.store.MarkCompletedIfNotAlready(ctx, sessionID, submissionType, now)
	if err != nil {
		return nil, err
	}
	if !didTransition {
		existing, err := e.store.GetGradeHistoryBySession(ctx, sessionID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return existing, nil
	}

	if err := e.scheduler.Cancel(ctx, sessionID); err != nil {
		e.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("failed to cancel scheduled auto-submit")
	}

	tokens := map[string]bool{}
	for _, t := range notifyTokens {
		tokens[t] = true
	}
	for _, t := range invalidated {
		tokens[t.Token] = true
	}
	for token := range tokens {
		e.evictTokenCache(ctx, token)
		e.bus.Publish(token, eventSessionCompleted, sessionCompletedPayload{
			Message: completionMessage(reason),
			Reason:  string(reason),
		})
	}

	// Grading proceeds asynchronously and must not block the caller; a
	// background context is used since the inbound request context is
	// torn down as soon as this method returns.
	go e.gradeSession(context.Background(), sessionID, gradingMethodFor(submissionType))

	return nil, nil
}

func completionMessage(reason CompletionReason) string {
	if reason == ReasonTimeout {
		return "Exam time has ended. Your answers have been submitted. Grading in progress."
	}
	return "Exam submitted successfully. Grading in progress."
}

func gradingMethodFor(t model.SubmissionType) model.GradingMethod {
	if t == model.SubmissionTypeAutoExpired {
		return model.GradingMethodTimeout
	}
	return model.GradingMethodManual
}

// AutoSubmit is the deferred task the Scheduler fires at a session's
// expiresAt, and the function the periodic sweep falls back to. It must
// tolerate being invoked more than once for the same session.
func (e *Engine) AutoSubmit(ctx context.Context, sessionID uuid.UUID) {
	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.log.Warn().Str("session_id", sessionID.String()).Msg("auto-submit: session not found")
			return
		}
		e.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("auto-submit: load session failed")
		return
	}

	if sess.IsCompleted {
		return
	}

	now := e.clock.Now()
	if !sess.IsExpired(now) {
		// Woken early — clock skew or a duplicate delivery. Re-enqueue and
		// let the real deadline fire next time.
		if err := e.scheduler.Enqueue(ctx, sessionID, sess.ExpiresAt); err != nil {
			e.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("auto-submit: re-enqueue failed")
		}
		return
	}

	validTokens, err := e.store.ValidTokensForSession(ctx, sessionID)
	if err != nil {
		e.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("auto-submit: load valid tokens failed")
		return
	}
	tokenStrings := make([]string, 0, len(validTokens))
	for _, t := range validTokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	if _, err := e.CompleteAndGrade(ctx, sessionID, ReasonTimeout, tokenStrings, model.SubmissionTypeAutoExpired); err != nil {
		e.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("auto-submit: completion failed")
	}
}

// SweepExpired returns every session that is overdue for auto-submission
// per durable storage, independent of the scheduler's due set. Wired as the
// Scheduler's periodic safety net.
func (e *Engine) SweepExpired(ctx context.Context) ([]uuid.UUID, error) {
	return e.store.ListOverdueSessions(ctx, e.clock.Now())
}
