// Package sessionengine is the only component permitted to mutate Session,
// SessionToken, and StudentAnswer rows. It implements the full session
// lifecycle — start/resume, token rotation, answer upsert, progress
// queries, and submission — plus the asynchronous grading pipeline that
// submission hands off to.
package sessionengine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/examcore/internal/clock"
	"github.com/stemsi/examcore/internal/eventbus"
	"github.com/stemsi/examcore/internal/grading"
	"github.com/stemsi/examcore/internal/model"
	"github.com/stemsi/examcore/internal/store"
	"github.com/stemsi/examcore/internal/tokenminter"
)

// Scheduler is the subset of scheduler.Scheduler the engine depends on. It
// is declared here, not imported from the scheduler package, so the two
// packages do not import each other: cmd/server first builds a
// *scheduler.Scheduler whose AutoSubmitFunc calls Engine.AutoSubmit through
// a not-yet-assigned engine variable, then passes that scheduler to New.
type Scheduler interface {
	Enqueue(ctx context.Context, sessionID uuid.UUID, at time.Time) error
	Cancel(ctx context.Context, sessionID uuid.UUID) error
}

// Engine is the session state machine. Construct with New; safe for
// concurrent use from any number of transport-layer goroutines.
type Engine struct {
	store     *store.Store
	clock     clock.Clock
	minter    *tokenminter.Minter
	bus       *eventbus.Bus
	scheduler Scheduler
	rdb       *redis.Client
	log       zerolog.Logger

	mcqGrader      grading.Grader
	freeTextGrader grading.Grader
}

// New builds an Engine. freeTextGrader is whichever of LexicalGrader or
// LLMGrader the deployment's grader.engine configuration selects; MCQ
// questions always use MCQGrader regardless of that setting. rdb backs a
// best-effort token->session read-through cache in front of ValidateToken's
// hot path; a nil rdb simply disables the cache and every lookup falls
// through to the store.
func New(st *store.Store, clk clock.Clock, minter *tokenminter.Minter, bus *eventbus.Bus, sched Scheduler, rdb *redis.Client, freeTextGrader grading.Grader, log zerolog.Logger) *Engine {
	return &Engine{
		store:          st,
		clock:          clk,
		minter:         minter,
		bus:            bus,
		scheduler:      sched,
		rdb:            rdb,
		mcqGrader:      grading.NewMCQGrader(),
		freeTextGrader: freeTextGrader,
		log:            log.With().Str("component", "session_engine").Logger(),
	}
}

const (
	eventSessionExpired   = "session_expired"
	eventSessionCompleted = "session_completed"

	reasonTokenExpired = "token_expired"
	reasonInvalidToken = "invalid_token"
	reasonSubmitted    = "submitted"
	reasonTimeout      = "timeout"
)

// sessionExpiredPayload is published to every token a rotation or
// completion just invalidated.
type sessionExpiredPayload struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// sessionCompletedPayload is published immediately on completion, before
// grading has necessarily finished — GradeHistoryID is empty until a later
// lookup resolves it.
type sessionCompletedPayload struct {
	Message        string     `json:"message"`
	Reason         string     `json:"reason"`
	GradeHistoryID *uuid.UUID `json:"grade_history_id,omitempty"`
}

func (e *Engine) publishExpired(tokens []model.SessionToken, reason string) {
	for _, t := range tokens {
		e.evictTokenCache(context.Background(), t.Token)
		e.bus.Publish(t.Token, eventSessionExpired, sessionExpiredPayload{
			Message: "Your session token is no longer valid.",
			Reason:  reason,
		})
	}
}
