package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam is an assessment authored by an admin. Once any Session exists for it
// or any GradeHistory references it, the exam becomes immutable: no edits, no
// deletes, no question changes (Store.ExamHasActivity is the check).
// Activation (IsActive = true) requires at least one question.
type Exam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Course          string    `json:"course"`
	DurationMinutes int       `json:"duration_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateExamRequest is the admin-authoring payload for a new (draft) exam.
type CreateExamRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	Course          string `json:"course" binding:"required,min=1,max=255"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1"`
}

// UpdateExamRequest is the admin-authoring payload for editing a draft exam.
// Rejected once the exam is no longer mutable.
type UpdateExamRequest struct {
	Title           string `json:"title" binding:"omitempty,min=3,max=255"`
	Course          string `json:"course" binding:"omitempty,min=1,max=255"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1"`
}
