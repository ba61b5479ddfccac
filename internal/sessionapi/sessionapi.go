// Package sessionapi is the thin synchronous seam transport adapters call
// into. Each operation authenticates the caller (already done by the time
// it reaches here — it receives a student id), validates the presented
// token via sessionengine, calls the one engine method the operation needs,
// and returns a typed result. It holds no domain logic of its own.
package sessionapi

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/examcore/internal/model"
	"github.com/stemsi/examcore/internal/sessionengine"
)

// API is the façade transport handlers call. Construct with New.
type API struct {
	engine *sessionengine.Engine
	log    zerolog.Logger
}

func New(engine *sessionengine.Engine, log zerolog.Logger) *API {
	return &API{
		engine: engine,
		log:    log.With().Str("component", "session_api").Logger(),
	}
}

// Start begins or resumes a session for (studentID, examID).
func (a *API) Start(ctx context.Context, studentID, examID uuid.UUID) (*sessionengine.StartResult, error) {
	return a.engine.StartOrResume(ctx, studentID, examID)
}

// GetQuestion validates token, then returns the question at order plus any
// saved answer.
func (a *API) GetQuestion(ctx context.Context, token string, studentID uuid.UUID, order int) (*sessionengine.QuestionView, error) {
	sess, err := a.engine.ValidateToken(ctx, token, studentID)
	if err != nil {
		return nil, err
	}
	return a.engine.GetQuestion(ctx, sess, order)
}

// SubmitAnswer validates token, then upserts the answer at order.
func (a *API) SubmitAnswer(ctx context.Context, token string, studentID uuid.UUID, order int, answerText string) (string, *sessionengine.Progress, error) {
	sess, err := a.engine.ValidateToken(ctx, token, studentID)
	if err != nil {
		return "", nil, err
	}
	return a.engine.SubmitAnswer(ctx, sess, order, answerText)
}

// Progress validates token, then returns a progress snapshot.
func (a *API) Progress(ctx context.Context, token string, studentID uuid.UUID) (*sessionengine.Progress, error) {
	sess, err := a.engine.ValidateToken(ctx, token, studentID)
	if err != nil {
		return nil, err
	}
	return a.engine.GetProgress(ctx, sess)
}

// Submit validates token, then triggers manual completion and grading.
func (a *API) Submit(ctx context.Context, token string, studentID uuid.UUID) error {
	sess, err := a.engine.ValidateToken(ctx, token, studentID)
	if err != nil {
		return err
	}
	_, err = a.engine.CompleteAndGrade(ctx, sess.ID, sessionengine.ReasonSubmitted, []string{token}, model.SubmissionTypeManual)
	return err
}
