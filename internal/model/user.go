package model

import "github.com/google/uuid"

// User represents an authenticated principal. Authentication itself (password
// hashing, login, session revocation) is handled by the external authstub
// collaborator; the core only needs the identity and role bit.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	IsStudent bool      `json:"is_student"`
}
