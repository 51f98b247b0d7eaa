package orch

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/app"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

// CallUser opens a ringing room from the authenticated caller to req.To.
func (o *Orchestrator) CallUser(from domain.UserID, req core.CallUser) (domain.RoomID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if req.From != "" && req.From != from {
		log.Warn().Str("module", "orch").Str("user", string(from)).Str("claimed", string(req.From)).Msg("call-user from mismatch, using connection identity")
	}
	callee := req.To
	if callee == from {
		o.sendLocked(from, core.OutCallFailed, core.CallFailed{Reason: ErrSelfCall.Error()})
		return "", ErrSelfCall
	}
	if !o.Registry.IsOnline(callee) {
		o.sendLocked(from, core.OutCallFailed, core.CallFailed{Reason: core.FailUserOffline})
		return "", fmt.Errorf("%w: %s", ErrCalleeOffline, callee)
	}
	if err := o.resolveBusyLocked(from, callee); err != nil {
		return "", err
	}

	room, err := o.Rooms.Create(from, callee, req.CallType, o.now())
	if err != nil {
		busy := callee
		if _, ok := o.Rooms.RoomOf(from); ok {
			busy = from
		}
		o.sendLocked(from, core.OutCallFailed, core.CallFailed{Reason: busyReason(from, busy)})
		return "", err
	}

	o.sendLocked(callee, core.OutIncomingCall, core.IncomingCall{
		From:       from,
		To:         callee,
		CallType:   room.Kind,
		RoomID:     room.ID,
		Offer:      req.Offer,
		CallerInfo: core.CallerInfo{UserID: from},
	})
	o.sendLocked(from, core.OutCallRinging, core.CallRinging{RoomID: room.ID, To: callee})
	o.armRingTimerLocked(room.ID)
	return room.ID, nil
}

func (o *Orchestrator) resolveBusyLocked(caller, callee domain.UserID) error {
	for _, uid := range []domain.UserID{caller, callee} {
		existing, ok := o.Rooms.RoomOf(uid)
		if !ok {
			continue
		}
		switch o.policy().OnBusy(caller, callee, existing) {
		case app.EndExisting:
			o.endLocked(existing.ID, domain.ReasonSuperseded)
		case app.RejectCall:
			o.sendLocked(caller, core.OutCallFailed, core.CallFailed{Reason: busyReason(caller, uid)})
			return fmt.Errorf("%w: %s in room %s", ErrBusy, uid, existing.ID)
		}
	}
	return nil
}

// busyReason is the call-failed reason when busy is already in a room.
func busyReason(caller, busy domain.UserID) string {
	if busy == caller {
		return core.FailAlreadyInCall
	}
	return core.FailUserBusy
}

// AnswerCall accepts or declines a ringing room on behalf of its callee.
func (o *Orchestrator) AnswerCall(by domain.UserID, req core.AnswerCall) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	at := o.now()
	if !req.Accepted {
		room, err := o.Rooms.Decline(req.RoomID, by, at)
		if err != nil {
			return err
		}
		o.stopRingTimerLocked(room.ID)
		o.sendLocked(room.Caller(), core.OutCallDeclined, core.RoomRef{RoomID: room.ID})
		o.sink().RecordCall(room.Record())
		return nil
	}

	room, err := o.Rooms.Accept(req.RoomID, by, at)
	if err != nil {
		return err
	}
	o.stopRingTimerLocked(room.ID)
	o.sendLocked(room.Caller(), core.OutCallAnswered, core.CallAnswered{RoomID: room.ID, Answer: *req.Answer})
	for _, uid := range room.Participants() {
		o.sendLocked(uid, core.OutCallStarted, core.RoomRef{RoomID: room.ID})
		o.sink().RecordPresence(uid, domain.PresenceInCall, at)
	}
	return nil
}

// EndCall ends a room on request of one of its participants.
// Ending a room that no longer exists is a no-op.
func (o *Orchestrator) EndCall(by domain.UserID, id domain.RoomID) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	room, ok := o.Rooms.Get(id)
	if !ok {
		return nil
	}
	if !room.Has(by) {
		return fmt.Errorf("%w: %s in %s", app.ErrNotParticipant, by, id)
	}
	o.endLocked(id, domain.ReasonNormal)
	return nil
}

func (o *Orchestrator) endLocked(id domain.RoomID, reason domain.EndReason) bool {
	at := o.now()
	room, ok := o.Rooms.End(id, reason, at)
	if !ok {
		return false
	}
	o.stopRingTimerLocked(id)
	for _, uid := range room.Participants() {
		o.sendLocked(uid, core.OutCallEnded, core.CallEnded{RoomID: id, Reason: reason})
		if o.Registry.IsOnline(uid) {
			o.sink().RecordPresence(uid, domain.PresenceOnline, at)
		}
	}
	o.sink().RecordCall(room.Record())
	return true
}

func (o *Orchestrator) armRingTimerLocked(id domain.RoomID) {
	if o.RingTimeout <= 0 {
		return
	}
	if o.timers == nil {
		o.timers = make(map[domain.RoomID]*time.Timer)
	}
	o.timers[id] = time.AfterFunc(o.RingTimeout, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.timers, id)
		if room, ok := o.Rooms.Get(id); ok && room.Status == domain.StatusRinging {
			log.Info().Str("module", "orch").Str("room", string(id)).Msg("ring timeout")
			o.endLocked(id, domain.ReasonTimeout)
		}
	})
}

func (o *Orchestrator) stopRingTimerLocked(id domain.RoomID) {
	if t, ok := o.timers[id]; ok {
		t.Stop()
		delete(o.timers, id)
	}
}
