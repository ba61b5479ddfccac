// Package scheduler runs AutoSubmit for every session at its exact
// expiresAt, with a periodic sweep as a safety net against missed
// one-shot fires (process restarts, clock skew). Delivery is at-least-once;
// AutoSubmit itself must be idempotent, which the session engine guarantees
// via Store.MarkCompletedIfNotAlready.
package scheduler

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/examcore/internal/clock"
)

// dueSetKey is the Redis sorted set holding one member per pending
// auto-submit, scored by its fire-time as a Unix timestamp.
const dueSetKey = "scheduler:due_sessions"

// AutoSubmitFunc runs the AutoSubmit algorithm for a session. Implementations
// must tolerate being called more than once for the same session.
type AutoSubmitFunc func(ctx context.Context, sessionID uuid.UUID)

// SweepFunc returns the ids of every session that is overdue for
// auto-submission per durable storage, independent of what the due set
// currently holds.
type SweepFunc func(ctx context.Context) ([]uuid.UUID, error)

// Scheduler is the deferred-task runner. The zero value is not usable;
// construct with New.
type Scheduler struct {
	rdb           *redis.Client
	clock         clock.Clock
	log           zerolog.Logger
	pollInterval  time.Duration
	sweepInterval time.Duration
	autoSubmit    AutoSubmitFunc
	sweep         SweepFunc
}

// New builds a Scheduler. autoSubmit is invoked for each due or swept
// session; sweep is consulted every sweepInterval to catch sessions the
// one-shot due set missed. sweepInterval of zero defaults to 60s.
func New(rdb *redis.Client, clk clock.Clock, log zerolog.Logger, sweepInterval time.Duration, autoSubmit AutoSubmitFunc, sweep SweepFunc) *Scheduler {
	if sweepInterval <= 0 {
		sweepInterval = 60 * time.Second
	}
	return &Scheduler{
		rdb:           rdb,
		clock:         clk,
		log:           log.With().Str("component", "scheduler").Logger(),
		pollInterval:  time.Second,
		sweepInterval: sweepInterval,
		autoSubmit:    autoSubmit,
		sweep:         sweep,
	}
}

// Enqueue schedules AutoSubmit(sessionID) for as close to at as the poll
// interval allows. Re-enqueuing the same sessionID simply updates its score.
func (s *Scheduler) Enqueue(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	return s.rdb.ZAdd(ctx, dueSetKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: sessionID.String(),
	}).Err()
}

// Cancel removes a pending one-shot entry, used when a session completes
// before its deadline so the due set does not accumulate stale members.
func (s *Scheduler) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	return s.rdb.ZRem(ctx, dueSetKey, sessionID.String()).Err()
}

// Run blocks, polling the due set and running the periodic sweep, until ctx
// is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().Msg("scheduler started")

	pollTicker := time.NewTicker(s.pollInterval)
	defer pollTicker.Stop()
	sweepTicker := time.NewTicker(s.sweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return
		case <-pollTicker.C:
			s.drainDue(ctx)
		case <-sweepTicker.C:
			s.runSweep(ctx)
		}
	}
}

func (s *Scheduler) drainDue(ctx context.Context) {
	now := s.clock.Now()
	members, err := s.rdb.ZRangeByScore(ctx, dueSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		s.log.Error().Err(err).Msg("poll due set failed")
		return
	}

	for _, member := range members {
		// Remove before dispatch: at-least-once, never exactly-once, but this
		// keeps a slow handler from being redelivered on the very next poll.
		if err := s.rdb.ZRem(ctx, dueSetKey, member).Err(); err != nil {
			s.log.Error().Err(err).Str("session_id", member).Msg("remove due entry failed")
			continue
		}
		sessionID, err := uuid.Parse(member)
		if err != nil {
			s.log.Error().Err(err).Str("session_id", member).Msg("malformed due set member")
			continue
		}
		s.autoSubmit(ctx, sessionID)
	}
}

func (s *Scheduler) runSweep(ctx context.Context) {
	if s.sweep == nil {
		return
	}
	overdue, err := s.sweep(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep query failed")
		return
	}
	if len(overdue) > 0 {
		s.log.Warn().Int("count", len(overdue)).Msg("sweep caught sessions missed by the due set")
	}
	for _, sessionID := range overdue {
		s.autoSubmit(ctx, sessionID)
	}
}
