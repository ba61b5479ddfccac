package sessionengine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// tokenCacheTTL bounds how long a stale mapping can survive a missed evict
// (process crash between invalidation and the cache delete below); it is
// short because StartOrResume and CompleteAndGrade evict proactively on
// every invalidation this process observes.
const tokenCacheTTL = 10 * time.Minute

// tokenSessionKey is the Redis key for the token -> sessionID read-through
// cache that sits in front of Store.ValidToken, the single query every
// question fetch, answer submit, progress poll, and WebSocket ping makes.
func tokenSessionKey(token string) string {
	return "examcore:token_session:" + token
}

// cacheTokenSession records that token currently resolves to sessionID.
// Best-effort: a cache write failure only costs the next lookup a Postgres
// round trip, never correctness.
func (e *Engine) cacheTokenSession(ctx context.Context, token string, sessionID uuid.UUID) {
	if e.rdb == nil {
		return
	}
	if err := e.rdb.Set(ctx, tokenSessionKey(token), sessionID.String(), tokenCacheTTL).Err(); err != nil {
		e.log.Warn().Err(err).Msg("token cache write failed")
	}
}

// cachedSessionForToken returns the cached sessionID for token, if present.
func (e *Engine) cachedSessionForToken(ctx context.Context, token string) (uuid.UUID, bool) {
	if e.rdb == nil {
		return uuid.UUID{}, false
	}
	raw, err := e.rdb.Get(ctx, tokenSessionKey(token)).Result()
	if err != nil {
		if err != redis.Nil {
			e.log.Warn().Err(err).Msg("token cache read failed")
		}
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// evictTokenCache removes a token's cache entry, called whenever Store
// invalidates it (rotation, completion) so the cache can never outlive the
// token's validity within this process's observation.
func (e *Engine) evictTokenCache(ctx context.Context, token string) {
	if e.rdb == nil {
		return
	}
	if err := e.rdb.Del(ctx, tokenSessionKey(token)).Err(); err != nil {
		e.log.Warn().Err(err).Msg("token cache evict failed")
	}
}
