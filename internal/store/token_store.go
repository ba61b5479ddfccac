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

// RotateToken invalidates every currently-valid token for sessionID and
// issues a fresh one, all inside one transaction so that at most one valid
// token ever exists at a time. It returns the new token plus the tokens
// that were just invalidated, which the caller fans out as
// session_expired events.
func (s *Store) RotateToken(ctx context.Context, sessionID uuid.UUID, newToken string, now time.Time) (*model.SessionToken, []model.SessionToken, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`UPDATE session_tokens SET is_valid = false, invalidated_at = $1
		 WHERE session_id = $2 AND is_valid = true
		 RETURNING id, session_id, token, is_valid, created_at, invalidated_at`,
		now, sessionID,
	)
	if err != nil {
		return nil, nil, err
	}
	invalidated, err := collectTokens(rows)
	if err != nil {
		return nil, nil, err
	}

	fresh := &model.SessionToken{
		SessionID: sessionID,
		Token:     newToken,
		IsValid:   true,
		CreatedAt: now,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO session_tokens (session_id, token, is_valid, created_at)
		 VALUES ($1, $2, true, $3)
		 RETURNING id`,
		sessionID, newToken, now,
	).Scan(&fresh.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, nil, ErrAlreadyExists
		}
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return fresh, invalidated, nil
}

// ValidToken loads the currently valid token row for a raw token string.
// Returns ErrNotFound if the token is unknown or has been invalidated.
func (s *Store) ValidToken(ctx context.Context, token string) (*model.SessionToken, error) {
	t := &model.SessionToken{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, session_id, token, is_valid, created_at, invalidated_at
		 FROM session_tokens WHERE token = $1 AND is_valid = true`, token,
	).Scan(&t.ID, &t.SessionID, &t.Token, &t.IsValid, &t.CreatedAt, &t.InvalidatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTokenByValue loads a token row regardless of validity — used by the
// grade-history read endpoint, which must still resolve a session from a
// token the completion flow has since invalidated.
func (s *Store) GetTokenByValue(ctx context.Context, token string) (*model.SessionToken, error) {
	t := &model.SessionToken{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, session_id, token, is_valid, created_at, invalidated_at
		 FROM session_tokens WHERE token = $1`, token,
	).Scan(&t.ID, &t.SessionID, &t.Token, &t.IsValid, &t.CreatedAt, &t.InvalidatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ValidTokensForSession returns every currently valid token of a session —
// ordinarily zero or one, but the caller treats the slice generically.
func (s *Store) ValidTokensForSession(ctx context.Context, sessionID uuid.UUID) ([]model.SessionToken, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, token, is_valid, created_at, invalidated_at
		 FROM session_tokens WHERE session_id = $1 AND is_valid = true`, sessionID)
	if err != nil {
		return nil, err
	}
	return collectTokens(rows)
}

func collectTokens(rows pgx.Rows) ([]model.SessionToken, error) {
	defer rows.Close()
	var tokens []model.SessionToken
	for rows.Next() {
		var t model.SessionToken
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Token, &t.IsValid, &t.CreatedAt, &t.InvalidatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
