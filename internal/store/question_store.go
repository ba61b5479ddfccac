package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stemsi/examcore/internal/model"
)

// AddQuestion appends a question at the next order slot for its exam.
func (s *Store) AddQuestion(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}

	var nextOrder int
	if err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX("order"), 0) + 1 FROM questions WHERE exam_id = $1`, q.ExamID,
	).Scan(&nextOrder); err != nil {
		return err
	}
	q.Order = nextOrder

	return s.pool.QueryRow(ctx,
		`INSERT INTO questions (exam_id, "order", text, type, expected_answer, options, allow_multiple, points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		q.ExamID, q.Order, q.Text, q.Type, q.ExpectedAnswer, options, q.AllowMultiple, q.Points,
	).Scan(&q.ID)
}

// ListQuestions returns every question of examID, ordered.
func (s *Store) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, exam_id, "order", text, type, expected_answer, options, allow_multiple, points
		 FROM questions WHERE exam_id = $1 ORDER BY "order"`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetQuestionByOrder loads the question at order within examID.
func (s *Store) GetQuestionByOrder(ctx context.Context, examID uuid.UUID, order int) (*model.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, exam_id, "order", text, type, expected_answer, options, allow_multiple, points
		 FROM questions WHERE exam_id = $1 AND "order" = $2`, examID, order)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (model.Question, error) {
	var q model.Question
	var optionsRaw []byte
	err := row.Scan(&q.ID, &q.ExamID, &q.Order, &q.Text, &q.Type, &q.ExpectedAnswer, &optionsRaw, &q.AllowMultiple, &q.Points)
	if err != nil {
		return model.Question{}, err
	}
	if len(optionsRaw) > 0 {
		if err := json.Unmarshal(optionsRaw, &q.Options); err != nil {
			return model.Question{}, err
		}
	}
	return q, nil
}

// QuestionExamID returns the exam a question belongs to, so a caller can
// run ExamHasActivity before deleting it.
func (s *Store) QuestionExamID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var examID uuid.UUID
	err := s.pool.QueryRow(ctx, `SELECT exam_id FROM questions WHERE id = $1`, id).Scan(&examID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.UUID{}, ErrNotFound
	}
	return examID, err
}

// DeleteQuestion removes a question and renumbers the exam's remaining
// questions to a contiguous 1-indexed sequence, inside one transaction.
func (s *Store) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var examID uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT exam_id FROM questions WHERE id = $1`, id).Scan(&examID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id); err != nil {
		return err
	}

	rows, err := tx.Query(ctx,
		`SELECT id FROM questions WHERE exam_id = $1 ORDER BY "order"`, examID)
	if err != nil {
		return err
	}
	var ids []uuid.UUID
	for rows.Next() {
		var qid uuid.UUID
		if err := rows.Scan(&qid); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, qid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i, qid := range ids {
		if _, err := tx.Exec(ctx, `UPDATE questions SET "order" = $1 WHERE id = $2`, i+1, qid); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
