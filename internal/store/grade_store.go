package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stemsi/examcore/internal/model"
)

// MarkCompletedIfNotAlready is the sole synchronization point guaranteeing
// submit-once semantics. If the session is still active it is marked
// completed, every remaining valid token is invalidated, and
// didTransition=true is returned along with those invalidated tokens. If
// the session was already completed, didTransition=false and an empty
// slice are returned — callers use this to recognize a race they lost.
func (s *Store) MarkCompletedIfNotAlready(ctx context.Context, sessionID uuid.UUID, submissionType model.SubmissionType, now time.Time) (didTransition bool, invalidated []model.SessionToken, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, nil, err
	}
	defer tx.Rollback(ctx)

	var isCompleted bool
	if err := tx.QueryRow(ctx, `SELECT is_completed FROM sessions WHERE id = $1 FOR UPDATE`, sessionID).Scan(&isCompleted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil, ErrNotFound
		}
		return false, nil, err
	}
	if isCompleted {
		return false, nil, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE sessions SET is_completed = true, submitted_at = $1, submission_type = $2 WHERE id = $3`,
		now, submissionType, sessionID,
	); err != nil {
		return false, nil, err
	}

	rows, err := tx.Query(ctx,
		`UPDATE session_tokens SET is_valid = false, invalidated_at = $1
		 WHERE session_id = $2 AND is_valid = true
		 RETURNING id, session_id, token, is_valid, created_at, invalidated_at`,
		now, sessionID,
	)
	if err != nil {
		return false, nil, err
	}
	invalidated, err = collectTokens(rows)
	if err != nil {
		return false, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, nil, err
	}
	return true, invalidated, nil
}

// CreateGradeHistory inserts a new GradeHistory row with status IN_PROGRESS.
// A unique-constraint violation on session_id means one already exists —
// the caller should load it instead via GetGradeHistoryBySession.
func (s *Store) CreateGradeHistory(ctx context.Context, g *model.GradeHistory) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO grade_history (student_id, exam_id, session_id, status, max_score, started_at, submitted_at, grading_method, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		 RETURNING id, created_at`,
		g.StudentID, g.ExamID, g.SessionID, g.Status, g.MaxScore, g.StartedAt, g.SubmittedAt, g.GradingMethod,
	).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// CompleteGradeHistory transitions a grade history to COMPLETED with its
// final tallies.
func (s *Store) CompleteGradeHistory(ctx context.Context, id uuid.UUID, totalScore, percentage float64, perAnswer []model.PerAnswerGrade, gradedAt time.Time) error {
	payload, err := json.Marshal(perAnswer)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE grade_history
		 SET status = $1, total_score = $2, percentage = $3, per_answer = $4, graded_at = $5
		 WHERE id = $6`,
		model.GradeStatusCompleted, totalScore, percentage, payload, gradedAt, id,
	)
	return err
}

// FailGradeHistory transitions a grade history to FAILED after an
// unrecoverable pipeline error; partial per-answer results are still kept.
func (s *Store) FailGradeHistory(ctx context.Context, id uuid.UUID, perAnswer []model.PerAnswerGrade) error {
	payload, err := json.Marshal(perAnswer)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE grade_history SET status = $1, per_answer = $2 WHERE id = $3`,
		model.GradeStatusFailed, payload, id,
	)
	return err
}

// GetGradeHistoryBySession loads the (at most one) grade history for a
// session.
func (s *Store) GetGradeHistoryBySession(ctx context.Context, sessionID uuid.UUID) (*model.GradeHistory, error) {
	row := s.pool.QueryRow(ctx, gradeHistorySelectSQL+` WHERE session_id = $1`, sessionID)
	return scanGradeHistory(row)
}

// GetGradeHistory loads a grade history by id.
func (s *Store) GetGradeHistory(ctx context.Context, id uuid.UUID) (*model.GradeHistory, error) {
	row := s.pool.QueryRow(ctx, gradeHistorySelectSQL+` WHERE id = $1`, id)
	return scanGradeHistory(row)
}

// ListGradeHistoryByExam returns every grade history recorded against examID.
func (s *Store) ListGradeHistoryByExam(ctx context.Context, examID uuid.UUID) ([]model.GradeHistory, error) {
	rows, err := s.pool.Query(ctx, gradeHistorySelectSQL+` WHERE exam_id = $1 ORDER BY created_at DESC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var histories []model.GradeHistory
	for rows.Next() {
		g, err := scanGradeHistoryFields(rows)
		if err != nil {
			return nil, err
		}
		histories = append(histories, g)
	}
	return histories, rows.Err()
}

const gradeHistorySelectSQL = `
	SELECT id, student_id, exam_id, session_id, status, total_score, max_score,
	       percentage, per_answer, started_at, submitted_at, graded_at, grading_method, created_at
	FROM grade_history`

func scanGradeHistory(row rowScanner) (*model.GradeHistory, error) {
	g, err := scanGradeHistoryFields(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanGradeHistoryFields(row rowScanner) (model.GradeHistory, error) {
	var g model.GradeHistory
	var perAnswerRaw []byte
	err := row.Scan(&g.ID, &g.StudentID, &g.ExamID, &g.SessionID, &g.Status, &g.TotalScore, &g.MaxScore,
		&g.Percentage, &perAnswerRaw, &g.StartedAt, &g.SubmittedAt, &g.GradedAt, &g.GradingMethod, &g.CreatedAt)
	if err != nil {
		return model.GradeHistory{}, err
	}
	if len(perAnswerRaw) > 0 {
		if err := json.Unmarshal(perAnswerRaw, &g.PerAnswer); err != nil {
			return model.GradeHistory{}, err
		}
	}
	return g, nil
}
