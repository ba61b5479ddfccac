package sessionengine

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/stemsi/examcore/internal/model"
	"github.com/stemsi/examcore/internal/store"
)

// QuestionView is a question paired with whatever answer the student has
// already saved for it, if any.
type QuestionView struct {
	Question    *model.Question
	SavedAnswer string
	HasAnswer   bool
}

// GetQuestion re-validates the session is still active, records order as
// the student's current position, and returns the question plus any saved
// answer.
func (e *Engine) GetQuestion(ctx context.Context, sess *model.Session, order int) (*QuestionView, error) {
	if err := e.assertActive(sess); err != nil {
		return nil, err
	}

	q, err := e.store.GetQuestionByOrder(ctx, sess.ExamID, order)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}

	if err := e.store.SetCurrentQuestionOrder(ctx, sess.ID, order); err != nil {
		return nil, err
	}
	sess.CurrentQuestionOrder = order

	view := &QuestionView{Question: q}
	answer, err := e.store.GetAnswer(ctx, sess.ID, q.ID)
	switch {
	case err == nil:
		view.SavedAnswer = answer.AnswerText
		view.HasAnswer = true
	case errors.Is(err, store.ErrNotFound):
		// no saved answer yet
	default:
		return nil, err
	}

	return view, nil
}

// SubmitAnswer normalizes text for the question's type and upserts it.
// Returns the stored answer text and a fresh progress snapshot.
func (e *Engine) SubmitAnswer(ctx context.Context, sess *model.Session, order int, text string) (string, *Progress, error) {
	if err := e.assertActive(sess); err != nil {
		return "", nil, err
	}
	if text == "" {
		return "", nil, ErrValidation
	}

	q, err := e.store.GetQuestionByOrder(ctx, sess.ExamID, order)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrQuestionNotFound
		}
		return "", nil, err
	}

	normalized, err := normalizeAnswer(q, text)
	if err != nil {
		return "", nil, err
	}

	if _, _, err := e.store.UpsertAnswer(ctx, sess.ID, q.ID, normalized); err != nil {
		return "", nil, err
	}

	progress, err := e.GetProgress(ctx, sess)
	if err != nil {
		return "", nil, err
	}
	return normalized, progress, nil
}

// normalizeAnswer validates and canonicalizes answer text per question type.
func normalizeAnswer(q *model.Question, text string) (string, error) {
	if q.Type != model.QuestionTypeMultipleChoice {
		return text, nil
	}

	optionValues := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		optionValues[opt.Value] = true
	}

	if !q.AllowMultiple {
		if !optionValues[text] {
			return "", ErrValidation
		}
		return text, nil
	}

	var values []string
	if err := json.Unmarshal([]byte(text), &values); err != nil {
		return "", ErrValidation
	}

	seen := map[string]bool{}
	var deduped []string
	for _, v := range values {
		if seen[v] {
			continue
		}
		if !optionValues[v] {
			return "", ErrValidation
		}
		seen[v] = true
		deduped = append(deduped, v)
	}
	if len(deduped) == 0 {
		return "", ErrValidation
	}
	if len(deduped) == 1 {
		return deduped[0], nil
	}

	encoded, err := json.Marshal(deduped)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func (e *Engine) assertActive(sess *model.Session) error {
	if sess.IsCompleted {
		return ErrTokenInvalid
	}
	if sess.IsExpired(e.clock.Now()) {
		return ErrTokenInvalid
	}
	return nil
}
