package orch

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/app"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

var (
	ErrSelfCall      = errors.New("cannot call yourself")
	ErrCalleeOffline = errors.New("callee offline")
	ErrBusy          = errors.New("party busy")
)

// Orchestrator serializes every state-changing signaling operation.
// Build it as a struct literal and never copy it after first use.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomManager
	Policy   app.Policy
	Sink     core.Sink
	// RingTimeout ends rooms left ringing this long. Zero disables it.
	RingTimeout time.Duration
	Now         func() time.Time

	mu     sync.Mutex
	timers map[domain.RoomID]*time.Timer
}

type nopSink struct{}

func (nopSink) RecordCall(domain.CallRecord) {}
func (nopSink) RecordPresence(domain.UserID, domain.PresenceStatus, time.Time) {}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) sink() core.Sink {
	if o.Sink == nil {
		return nopSink{}
	}
	return o.Sink
}

func (o *Orchestrator) policy() app.Policy {
	if o.Policy == nil {
		return app.RejectPolicy{}
	}
	return o.Policy
}

// Connect makes conn the live connection of uid, closing any it replaces.
func (o *Orchestrator) Connect(uid domain.UserID, conn core.SignalConnection) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if prev := o.Registry.Register(uid, conn); prev != nil {
		log.Info().Str("module", "orch").Str("user", string(uid)).Msg("closing replaced connection")
		prev.Close()
	}
	status := domain.PresenceOnline
	if room, ok := o.Rooms.RoomOf(uid); ok && room.Status == domain.StatusActive {
		status = domain.PresenceInCall
	}
	o.sink().RecordPresence(uid, status, o.now())
	o.broadcastPresenceLocked()
}

// Disconnect tears down uid's session. A connection that was already
// replaced by a newer one is ignored.
func (o *Orchestrator) Disconnect(uid domain.UserID, conn core.SignalConnection) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.Registry.Unregister(uid, conn) {
		log.Debug().Str("module", "orch").Str("user", string(uid)).Msg("stale disconnect ignored")
		return
	}
	o.sink().RecordPresence(uid, domain.PresenceOffline, o.now())

	if room, ok := o.Rooms.RoomOf(uid); ok {
		for _, peer := range room.Others(uid) {
			o.sendLocked(peer, core.OutPeerDisconnected, core.PeerRef{RoomID: room.ID, UserID: uid})
		}
		o.endLocked(room.ID, domain.ReasonPeerDisconnected)
	}
	o.broadcastPresenceLocked()
}

// Stop cancels pending ring timers.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, t := range o.timers {
		t.Stop()
		delete(o.timers, id)
	}
}

func (o *Orchestrator) sendLocked(uid domain.UserID, ev core.EventName, data any) {
	conn, ok := o.Registry.ConnectionFor(uid)
	if !ok {
		log.Debug().Str("module", "orch").Str("user", string(uid)).Str("event", string(ev)).Msg("recipient offline, event dropped")
		return
	}
	frame, err := core.Encode(ev, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", string(ev)).Msg("encode event")
		return
	}
	o.deliverLocked(uid, conn, frame)
}

func (o *Orchestrator) deliverLocked(uid domain.UserID, conn core.SignalConnection, frame core.Frame) {
	err := conn.TrySend(frame)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrBackpressure):
		switch o.policy().OnBackPressure(uid) {
		case app.KickConnection:
			log.Warn().Str("module", "orch").Str("user", string(uid)).Msg("slow connection kicked")
			conn.Close()
		case app.DropFrame:
			log.Warn().Str("module", "orch").Str("user", string(uid)).Msg("backpressure, frame dropped")
		}
	default:
		log.Debug().Err(err).Str("module", "orch").Str("user", string(uid)).Msg("send failed")
	}
}
