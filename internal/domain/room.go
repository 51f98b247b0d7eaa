package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("invalid room transition")
	ErrUnknownCallKind   = errors.New("unknown call kind")
)

type RoomID string

func NewRoomID() RoomID {
	return RoomID(uuid.NewString())
}

type CallKind string

const (
	CallVideo       CallKind = "video"
	CallAudio       CallKind = "audio"
	CallScreenShare CallKind = "screen-share"
)

func ParseCallKind(s string) (CallKind, error) {
	switch k := CallKind(s); k {
	case CallVideo, CallAudio, CallScreenShare:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCallKind, s)
}

type RoomStatus string

const (
	StatusRinging  RoomStatus = "ringing"
	StatusActive   RoomStatus = "active"
	StatusEnded    RoomStatus = "ended"
	StatusDeclined RoomStatus = "declined"
)

type EndReason string

const (
	ReasonNormal           EndReason = "normal"
	ReasonDeclined         EndReason = "declined"
	ReasonTimeout          EndReason = "timeout"
	ReasonPeerDisconnected EndReason = "peer-disconnected"
	ReasonSuperseded       EndReason = "superseded"
)

// Room is one call attempt between a caller and a callee.
// Participants are fixed at construction; only status and timestamps change.
type Room struct {
	ID        RoomID
	Kind      CallKind
	Status    RoomStatus
	StartedAt time.Time
	// AcceptedAt is zero while the room is ringing.
	AcceptedAt time.Time
	EndedAt    time.Time
	Duration   time.Duration
	EndReason  EndReason

	participants [2]UserID
}

func NewRoom(id RoomID, caller, callee UserID, kind CallKind, at time.Time) *Room {
	return &Room{
		ID:           id,
		Kind:         kind,
		Status:       StatusRinging,
		StartedAt:    at,
		participants: [2]UserID{caller, callee},
	}
}

func (r *Room) Caller() UserID { return r.participants[0] }
func (r *Room) Callee() UserID { return r.participants[1] }

func (r *Room) Participants() []UserID {
	return []UserID{r.participants[0], r.participants[1]}
}

func (r *Room) Has(uid UserID) bool {
	return r.participants[0] == uid || r.participants[1] == uid
}

// Others returns every participant except uid.
func (r *Room) Others(uid UserID) []UserID {
	out := make([]UserID, 0, len(r.participants))
	for _, p := range r.participants {
		if p != uid {
			out = append(out, p)
		}
	}
	return out
}

// Live reports whether the room still occupies its participants.
func (r *Room) Live() bool {
	return r.Status == StatusRinging || r.Status == StatusActive
}

func (r *Room) Accept(at time.Time) error {
	if r.Status != StatusRinging {
		return fmt.Errorf("%w: accept from %s", ErrInvalidTransition, r.Status)
	}
	r.Status = StatusActive
	r.AcceptedAt = at
	return nil
}

func (r *Room) Decline(at time.Time) error {
	if r.Status != StatusRinging {
		return fmt.Errorf("%w: decline from %s", ErrInvalidTransition, r.Status)
	}
	r.Status = StatusDeclined
	r.EndedAt = at
	r.EndReason = ReasonDeclined
	return nil
}

// End closes a ringing or active room. Duration counts from acceptance
// when the call was answered, otherwise from the start of ringing.
func (r *Room) End(at time.Time, reason EndReason) error {
	if !r.Live() {
		return fmt.Errorf("%w: end from %s", ErrInvalidTransition, r.Status)
	}
	from := r.StartedAt
	if !r.AcceptedAt.IsZero() {
		from = r.AcceptedAt
	}
	r.Status = StatusEnded
	r.EndedAt = at
	r.Duration = at.Sub(from)
	if r.Duration < 0 {
		r.Duration = 0
	}
	r.EndReason = reason
	return nil
}

// Record projects a terminated room into its durable history form.
func (r *Room) Record() CallRecord {
	rec := CallRecord{
		RoomID:    r.ID,
		CallerID:  r.Caller(),
		CalleeID:  r.Callee(),
		Kind:      r.Kind,
		Status:    r.Status,
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
		Duration:  r.Duration,
		EndReason: r.EndReason,
	}
	if !r.AcceptedAt.IsZero() {
		accepted := r.AcceptedAt
		rec.AcceptedAt = &accepted
	}
	return rec
}
