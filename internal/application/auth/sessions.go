package auth

import (
	"context"

	"estate-ledger/internal/middleware"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// UserSessionsPrefix keys the set of live session ids per identity.
const UserSessionsPrefix = "user_sessions:"

// DestroySessions removes every session of identity (each session:<sid> key and the user_sessions set)
// and returns how many session ids were tracked.
func DestroySessions(ctx context.Context, rdb *redis.Client, identity string) int {
	if identity == "" {
		return 0
	}
	key := UserSessionsPrefix + identity
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err != nil || len(sessionIDs) == 0 {
		rdb.Del(ctx, key)
		return 0
	}
	keys := make([]string, 0, len(sessionIDs)+1)
	for _, sid := range sessionIDs {
		keys = append(keys, middleware.SessionRedisPrefix+sid)
	}
	keys = append(keys, key)
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Str("identity", identity).Msg("Failed to destroy sessions")
	}
	return len(sessionIDs)
}
