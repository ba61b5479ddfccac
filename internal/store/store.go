// Package store is the transactional persistence layer over PostgreSQL for
// the exam-session domain: exams, questions, sessions, session tokens,
// student answers, and grade history. Every entity has typed CRUD; three
// compound operations (RotateToken, UpsertAnswer,
// MarkCompletedIfNotAlready) additionally run inside a single transaction
// because the session engine depends on their atomicity.
package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a connection pool. The zero value is not usable; construct
// with New.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
