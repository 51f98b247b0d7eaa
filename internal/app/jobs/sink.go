package jobs

import (
	"context"
	"time"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

// StoreSink turns sink calls into queued store writes, one task per store,
// so a retry only repeats the write that failed.
type StoreSink struct {
	Queue  *Queue
	Stores []core.Store
}

var _ core.Sink = (*StoreSink)(nil)

func NewStoreSink(q *Queue, stores ...core.Store) *StoreSink {
	return &StoreSink{Queue: q, Stores: stores}
}

func (s *StoreSink) RecordCall(rec domain.CallRecord) {
	for _, st := range s.Stores {
		st := st // per-iteration copy; go.mod targets go1.21 (pre-1.22 loop semantics)
		s.Queue.Enqueue(Task{
			Name: "save-call:" + string(rec.RoomID),
			Run: func(ctx context.Context) error {
				return st.SaveCallRecord(ctx, rec)
			},
		})
	}
}

func (s *StoreSink) RecordPresence(uid domain.UserID, status domain.PresenceStatus, at time.Time) {
	for _, st := range s.Stores {
		st := st // per-iteration copy; go.mod targets go1.21 (pre-1.22 loop semantics)
		s.Queue.Enqueue(Task{
			Name: "presence:" + string(uid),
			Run: func(ctx context.Context) error {
				return st.UpdatePresence(ctx, uid, status, at)
			},
		})
	}
}
