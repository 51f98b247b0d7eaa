package app

import (
	"fmt"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

type BusyAction int

const (
	RejectCall BusyAction = iota
	EndExisting
)

type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	KickConnection
)

// Policy decides what happens when a call hits a busy party
// or a peer cannot keep up with outbound frames.
type Policy interface {
	OnBusy(caller, callee domain.UserID, existing domain.Room) BusyAction
	OnBackPressure(uid domain.UserID) BackpressureAction
}

// RejectPolicy refuses new calls while either party is in a room.
type RejectPolicy struct{}

func (RejectPolicy) OnBusy(domain.UserID, domain.UserID, domain.Room) BusyAction {
	return RejectCall
}

func (RejectPolicy) OnBackPressure(domain.UserID) BackpressureAction {
	return DropFrame
}

// ReplacePolicy ends the existing room in favour of the new call.
type ReplacePolicy struct{}

func (ReplacePolicy) OnBusy(domain.UserID, domain.UserID, domain.Room) BusyAction {
	return EndExisting
}

func (ReplacePolicy) OnBackPressure(domain.UserID) BackpressureAction {
	return DropFrame
}

// kickSlow overrides the backpressure decision of the wrapped policy.
type kickSlow struct {
	Policy
}

func (kickSlow) OnBackPressure(domain.UserID) BackpressureAction {
	return KickConnection
}

// PolicyFor builds a policy from the busy and backpressure config names.
func PolicyFor(busy, backpressure string) (Policy, error) {
	var p Policy
	switch busy {
	case "", "reject":
		p = RejectPolicy{}
	case "replace":
		p = ReplacePolicy{}
	default:
		return nil, fmt.Errorf("unknown busy policy %q", busy)
	}
	switch backpressure {
	case "", "drop":
		return p, nil
	case "kick":
		return kickSlow{Policy: p}, nil
	}
	return nil, fmt.Errorf("unknown backpressure policy %q", backpressure)
}
