package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stemsi/examcore/internal/model"
)

// CreateSession inserts a new session. A unique-constraint violation on
// (student_id, exam_id) maps to ErrAlreadyExists.
func (s *Store) CreateSession(ctx context.Context, sess *model.Session) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (student_id, exam_id, started_at, expires_at, current_question_order)
		 VALUES ($1, $2, $3, $4, 1)
		 RETURNING id`,
		sess.StudentID, sess.ExamID, sess.StartedAt, sess.ExpiresAt,
	).Scan(&sess.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	sess.CurrentQuestionOrder = 1
	return nil
}

// GetSessionByStudentExam loads the (at most one) session for the pair.
func (s *Store) GetSessionByStudentExam(ctx context.Context, studentID, examID uuid.UUID) (*model.Session, error) {
	row := s.pool.QueryRow(ctx, sessionSelectSQL+` WHERE student_id = $1 AND exam_id = $2`, studentID, examID)
	return scanSessionRow(row)
}

// GetSession loads a session by id.
func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	row := s.pool.QueryRow(ctx, sessionSelectSQL+` WHERE id = $1`, id)
	return scanSessionRow(row)
}

const sessionSelectSQL = `
	SELECT id, student_id, exam_id, started_at, expires_at, is_completed,
	       submitted_at, submission_type, current_question_order
	FROM sessions`

func scanSessionRow(row rowScanner) (*model.Session, error) {
	var sess model.Session
	err := row.Scan(&sess.ID, &sess.StudentID, &sess.ExamID, &sess.StartedAt, &sess.ExpiresAt,
		&sess.IsCompleted, &sess.SubmittedAt, &sess.SubmissionType, &sess.CurrentQuestionOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// SetCurrentQuestionOrder records the last question order the student
// viewed; purely informational, never gates access.
func (s *Store) SetCurrentQuestionOrder(ctx context.Context, sessionID uuid.UUID, order int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET current_question_order = $1 WHERE id = $2`, order, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOverdueSessions returns every session that is still active but whose
// expires_at has passed — the periodic sweeper's safety net against
// one-shot scheduling misses.
func (s *Store) ListOverdueSessions(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM sessions WHERE is_completed = false AND expires_at <= $1`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
