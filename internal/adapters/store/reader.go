// Package store serves the read side of persistence over the sqlite and
// Redis adapters.
package store

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/adapters/store/redisstore"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/adapters/store/sqlstore"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

// Reader answers history and presence queries. SQL is required; Redis,
// when set, is tried first for presence and recent calls.
type Reader struct {
	SQL   *sqlstore.Store
	Redis *redisstore.Store
}

func (r *Reader) CallHistory(ctx context.Context, uid domain.UserID, limit int) ([]domain.CallRecord, error) {
	return r.SQL.CallHistory(ctx, uid, limit)
}

func (r *Reader) FindCallRecord(ctx context.Context, id domain.RoomID) (domain.CallRecord, error) {
	return r.SQL.FindCallRecord(ctx, id)
}

// RecentCalls returns up to redisstore.RecentCalls of uid's latest calls.
func (r *Reader) RecentCalls(ctx context.Context, uid domain.UserID) ([]domain.CallRecord, error) {
	if r.Redis != nil {
		calls, err := r.Redis.RecentCallsOf(ctx, uid)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("module", "store.redis").Str("user", string(uid)).Msg("recent calls miss, falling back to sqlite")
		case len(calls) > 0:
			return calls, nil
		}
	}
	return r.SQL.CallHistory(ctx, uid, redisstore.RecentCalls)
}

func (r *Reader) Presence(ctx context.Context, uid domain.UserID) (domain.PresenceStatus, time.Time, error) {
	if r.Redis != nil {
		status, at, ok, err := r.Redis.Presence(ctx, uid)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("module", "store.redis").Str("user", string(uid)).Msg("presence miss, falling back to sqlite")
		case ok:
			return status, at, nil
		}
	}
	return r.SQL.Presence(ctx, uid)
}
