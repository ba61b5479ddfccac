package sessionengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/examcore/internal/grading"
	"github.com/stemsi/examcore/internal/model"
	"github.com/stemsi/examcore/internal/store"
)

// gradeSession runs the grading pipeline for a just-completed session: it
// creates the GradeHistory row, dispatches each answer to the grader its
// question type selects, and transitions the record to COMPLETED or
// FAILED. It never re-runs for a session that already has a GradeHistory —
// CompleteAndGrade only calls it once per transition, but the existence
// check here protects against any future caller that retries directly.
func (e *Engine) gradeSession(ctx context.Context, sessionID uuid.UUID, method model.GradingMethod) {
	log := e.log.With().Str("session_id", sessionID.String()).Logger()

	if _, err := e.store.GetGradeHistoryBySession(ctx, sessionID); err == nil {
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error().Err(err).Msg("grading: check existing grade history failed")
		return
	}

	sess, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Msg("grading: load session failed")
		return
	}

	questions, err := e.store.ListQuestions(ctx, sess.ExamID)
	if err != nil {
		log.Error().Err(err).Msg("grading: load questions failed")
		return
	}
	maxScore := 0
	for _, q := range questions {
		maxScore += q.Points
	}

	submittedAt := sess.StartedAt
	if sess.SubmittedAt != nil {
		submittedAt = *sess.SubmittedAt
	}

	gh := &model.GradeHistory{
		StudentID:     sess.StudentID,
		ExamID:        sess.ExamID,
		SessionID:     sess.ID,
		Status:        model.GradeStatusInProgress,
		MaxScore:      float64(maxScore),
		StartedAt:     sess.StartedAt,
		SubmittedAt:   submittedAt,
		GradingMethod: method,
	}
	if err := e.store.CreateGradeHistory(ctx, gh); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return
		}
		log.Error().Err(err).Msg("grading: create grade history failed")
		return
	}

	answers, err := e.store.ListAnswers(ctx, sess.ID)
	if err != nil {
		log.Error().Err(err).Msg("grading: load answers failed")
		_ = e.store.FailGradeHistory(ctx, gh.ID, nil)
		return
	}
	answerByQuestion := make(map[uuid.UUID]model.StudentAnswer, len(answers))
	for _, a := range answers {
		answerByQuestion[a.QuestionID] = a
	}

	perAnswer := make([]model.PerAnswerGrade, 0, len(questions))
	totalScore := 0.0

	for _, q := range questions {
		answer, hasAnswer := answerByQuestion[q.ID]
		answerText := ""
		if hasAnswer {
			answerText = answer.AnswerText
		}

		result := e.gradeOne(ctx, &q, answerText, log)
		totalScore += result.Score

		perAnswer = append(perAnswer, model.PerAnswerGrade{
			QuestionID:     q.ID,
			Order:          q.Order,
			QuestionText:   q.Text,
			ExpectedAnswer: q.ExpectedAnswer,
			StudentAnswer:  answerText,
			MaxScore:       float64(q.Points),
			Score:          result.Score,
			Feedback:       result.Feedback,
		})
	}

	percentage := 0.0
	if gh.MaxScore > 0 {
		percentage = round2(totalScore / gh.MaxScore * 100)
	}

	if err := e.store.CompleteGradeHistory(ctx, gh.ID, round2(totalScore), percentage, perAnswer, e.clock.Now()); err != nil {
		log.Error().Err(err).Msg("grading: complete grade history failed")
		_ = e.store.FailGradeHistory(ctx, gh.ID, perAnswer)
		return
	}

	log.Info().Float64("total_score", totalScore).Float64("max_score", gh.MaxScore).Msg("session graded")
}

// gradeOne dispatches a single answer to the appropriate grader. A grader
// error is absorbed: the answer is recorded with score 0 and an
// explanatory feedback string, and the rest of the submission still grades.
func (e *Engine) gradeOne(ctx context.Context, q *model.Question, answerText string, log zerolog.Logger) grading.Result {
	result, err := e.dispatchGrader(q).Grade(ctx, q, answerText)
	if err != nil {
		log.Error().Err(err).Str("question_id", q.ID.String()).Msg("grading: answer grade failed")
		return grading.Result{Score: 0, Feedback: fmt.Sprintf("Grading error: %v", err)}
	}
	return result
}

func (e *Engine) dispatchGrader(q *model.Question) grading.Grader {
	if q.Type == model.QuestionTypeMultipleChoice {
		return e.mcqGrader
	}
	return e.freeTextGrader
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
