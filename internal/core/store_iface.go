package core

import (
	"context"
	"errors"
	"time"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

// ErrNotFound is returned by store lookups that match nothing.
var ErrNotFound = errors.New("record not found")

//go:generate mockgen -source=store_iface.go -destination=mocks/store_mock.go -package=mocks

// Store persists call history and presence snapshots.
type Store interface {
	SaveCallRecord(ctx context.Context, rec domain.CallRecord) error
	UpdatePresence(ctx context.Context, uid domain.UserID, status domain.PresenceStatus, at time.Time) error
}

// Sink is the orchestrator side of persistence. Implementations must not block.
type Sink interface {
	RecordCall(rec domain.CallRecord)
	RecordPresence(uid domain.UserID, status domain.PresenceStatus, at time.Time)
}
