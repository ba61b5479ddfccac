package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stemsi/examcore/internal/model"
)

// UpsertAnswer inserts or updates the unique (sessionID, questionID) answer
// row, reporting whether the row was newly created.
func (s *Store) UpsertAnswer(ctx context.Context, sessionID, questionID uuid.UUID, text string) (*model.StudentAnswer, bool, error) {
	a := &model.StudentAnswer{SessionID: sessionID, QuestionID: questionID, AnswerText: text}
	var created bool
	err := s.pool.QueryRow(ctx,
		`INSERT INTO student_answers (session_id, question_id, answer_text, answered_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (session_id, question_id)
		 DO UPDATE SET answer_text = EXCLUDED.answer_text, answered_at = now()
		 RETURNING id, answered_at, (xmax = 0) AS created`,
		sessionID, questionID, text,
	).Scan(&a.ID, &a.AnsweredAt, &created)
	if err != nil {
		return nil, false, err
	}
	return a, created, nil
}

// GetAnswer loads the saved answer for (sessionID, questionID), if any.
func (s *Store) GetAnswer(ctx context.Context, sessionID, questionID uuid.UUID) (*model.StudentAnswer, error) {
	a := &model.StudentAnswer{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, session_id, question_id, answer_text, answered_at
		 FROM student_answers WHERE session_id = $1 AND question_id = $2`,
		sessionID, questionID,
	).Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.AnswerText, &a.AnsweredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAnswers returns every answer recorded for a session.
func (s *Store) ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.StudentAnswer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, question_id, answer_text, answered_at
		 FROM student_answers WHERE session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.StudentAnswer
	for rows.Next() {
		var a model.StudentAnswer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.AnswerText, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
