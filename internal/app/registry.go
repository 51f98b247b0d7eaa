package app

import (
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

// Registry maps online users to their single live signal connection.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]core.SignalConnection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.UserID]core.SignalConnection)}
}

// Register binds conn to uid and returns the connection it replaced, if any.
func (r *Registry) Register(uid domain.UserID, conn core.SignalConnection) core.SignalConnection {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.conns[uid]
	r.conns[uid] = conn
	if prev == conn {
		prev = nil
	}
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Bool("replaced", prev != nil).Msg("registered connection")
	return prev
}

// Unregister drops uid only while conn is still its registered connection.
func (r *Registry) Unregister(uid domain.UserID, conn core.SignalConnection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.conns[uid]
	if !ok || cur != conn {
		return false
	}
	delete(r.conns, uid)
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Msg("unregistered connection")
	return true
}

func (r *Registry) IsOnline(uid domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[uid]
	return ok
}

func (r *Registry) ConnectionFor(uid domain.UserID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[uid]
	return c, ok
}

func (r *Registry) OnlineUsers() []domain.UserID {
	r.mu.RLock()
	out := make([]domain.UserID, 0, len(r.conns))
	for uid := range r.conns {
		out = append(out, uid)
	}
	r.mu.RUnlock()
	slices.Sort(out)
	return out
}

type connSnap struct {
	UserID domain.UserID
	Conn   core.SignalConnection
}

func (r *Registry) Connections() []connSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]connSnap, 0, len(r.conns))
	for uid, c := range r.conns {
		out = append(out, connSnap{UserID: uid, Conn: c})
	}
	return out
}
