package model

import "time"

import "github.com/google/uuid"

// SessionToken is a rolling credential for one Session. At most one valid
// token exists per session at any instant: issuing a new token (Store.RotateToken)
// atomically invalidates all others.
type SessionToken struct {
	ID            uuid.UUID  `json:"id"`
	SessionID     uuid.UUID  `json:"session_id"`
	Token         string     `json:"token"`
	IsValid       bool       `json:"is_valid"`
	CreatedAt     time.Time  `json:"created_at"`
	InvalidatedAt *time.Time `json:"invalidated_at,omitempty"`
}
