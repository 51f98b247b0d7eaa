// Package redisstore mirrors presence and recent calls into Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

// RecentCalls is how many calls are kept per user.
const RecentCalls = 20

type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ core.Store = (*Store)(nil)

func New(client *redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) presenceKey(uid domain.UserID) string {
	return s.prefix + "presence:" + string(uid)
}

func (s *Store) callsKey(uid domain.UserID) string {
	return s.prefix + "calls:" + string(uid)
}

func (s *Store) callSeenKey(id domain.RoomID) string {
	return s.prefix + "call:" + string(id)
}

// presenceScript writes the hash only when ARGV[3] (unix micros) is not
// older than the stored "at" field.
var presenceScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'at')
if cur and tonumber(cur) > tonumber(ARGV[3]) then
  return 0
end
redis.call('HSET', KEYS[1], 'status', ARGV[1], 'lastSeen', ARGV[2], 'at', ARGV[3])
if tonumber(ARGV[4]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[4])
end
return 1
`)

// pushCallScript pushes ARGV[1] onto every list in KEYS[2:] once per room.
// KEYS[1] marks the room as written.
var pushCallScript = redis.NewScript(`
local ttl = tonumber(ARGV[2])
local fresh
if ttl > 0 then
  fresh = redis.call('SET', KEYS[1], '1', 'NX', 'PX', ttl)
else
  fresh = redis.call('SET', KEYS[1], '1', 'NX')
end
if not fresh then
  return 0
end
for i = 2, #KEYS do
  redis.call('LPUSH', KEYS[i], ARGV[1])
  redis.call('LTRIM', KEYS[i], 0, tonumber(ARGV[3]) - 1)
  if ttl > 0 then
    redis.call('PEXPIRE', KEYS[i], ttl)
  end
end
return 1
`)

// UpdatePresence mirrors the status of uid. Writes older than the stored one are ignored.
func (s *Store) UpdatePresence(ctx context.Context, uid domain.UserID, status domain.PresenceStatus, at time.Time) error {
	err := presenceScript.Run(ctx, s.client, []string{s.presenceKey(uid)},
		string(status), at.UTC().Format(time.RFC3339Nano), at.UnixMicro(), s.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("redis presence update: %w", err)
	}
	return nil
}

// SaveCallRecord pushes rec onto each participant's capped recent-calls list.
// Saving the same room again is a no-op.
func (s *Store) SaveCallRecord(ctx context.Context, rec domain.CallRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis call record marshal: %w", err)
	}
	keys := []string{s.callSeenKey(rec.RoomID), s.callsKey(rec.CallerID), s.callsKey(rec.CalleeID)}
	if err := pushCallScript.Run(ctx, s.client, keys, data, s.ttl.Milliseconds(), RecentCalls).Err(); err != nil {
		return fmt.Errorf("redis call record: %w", err)
	}
	return nil
}

func (s *Store) Presence(ctx context.Context, uid domain.UserID) (domain.PresenceStatus, time.Time, bool, error) {
	vals, err := s.client.HGetAll(ctx, s.presenceKey(uid)).Result()
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("redis presence get: %w", err)
	}
	if len(vals) == 0 {
		return "", time.Time{}, false, nil
	}
	at, _ := time.Parse(time.RFC3339Nano, vals["lastSeen"])
	return domain.PresenceStatus(vals["status"]), at, true, nil
}

func (s *Store) RecentCallsOf(ctx context.Context, uid domain.UserID) ([]domain.CallRecord, error) {
	raw, err := s.client.LRange(ctx, s.callsKey(uid), 0, RecentCalls-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis recent calls: %w", err)
	}
	out := make([]domain.CallRecord, 0, len(raw))
	for _, item := range raw {
		var rec domain.CallRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("redis recent calls decode: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
