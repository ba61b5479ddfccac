package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stemsi/examcore/internal/model"
)

// CreateExam inserts a new exam, initially inactive and with no questions.
func (s *Store) CreateExam(ctx context.Context, e *model.Exam) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO exams (title, course, duration_minutes, is_active)
		 VALUES ($1, $2, $3, false)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.Course, e.DurationMinutes,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetExam loads an exam by id.
func (s *Store) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, course, duration_minutes, is_active, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.Course, &e.DurationMinutes, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListExams returns every exam, most recently created first.
func (s *Store) ListExams(ctx context.Context) ([]model.Exam, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, course, duration_minutes, is_active, created_at, updated_at
		 FROM exams ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Course, &e.DurationMinutes, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// UpdateExam overwrites an exam's editable fields. Callers must first check
// ExamHasActivity — the store does not itself enforce immutability, since
// "any session exists or any grade is recorded" is a cross-entity check the
// admin handlers in httpapi make before calling it.
func (s *Store) UpdateExam(ctx context.Context, e *model.Exam) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE exams SET title = $1, course = $2, duration_minutes = $3, is_active = $4, updated_at = now()
		 WHERE id = $5 RETURNING updated_at`,
		e.Title, e.Course, e.DurationMinutes, e.IsActive, e.ID,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// DeleteExam removes an exam and, via foreign-key cascade, its questions.
func (s *Store) DeleteExam(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExamHasActivity reports whether any session or grade record references
// examID, the condition under which the exam becomes immutable.
func (s *Store) ExamHasActivity(ctx context.Context, examID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM sessions WHERE exam_id = $1)
		    OR EXISTS(SELECT 1 FROM grade_history WHERE exam_id = $1)`,
		examID,
	).Scan(&exists)
	return exists, err
}

// ActivateExam flips is_active true, but only when the exam already has at
// least one question.
func (s *Store) ActivateExam(ctx context.Context, examID uuid.UUID) error {
	var questionCount int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE exam_id = $1`, examID,
	).Scan(&questionCount); err != nil {
		return err
	}
	if questionCount == 0 {
		return ErrNoQuestions
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE exams SET is_active = true, updated_at = now() WHERE id = $1`, examID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
