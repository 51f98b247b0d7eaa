package domain

import "time"

// CallRecord is written once when a room terminates and never mutated.
type CallRecord struct {
	RoomID     RoomID        `json:"roomId"`
	CallerID   UserID        `json:"callerId"`
	CalleeID   UserID        `json:"calleeId"`
	Kind       CallKind      `json:"callType"`
	Status     RoomStatus    `json:"status"`
	StartedAt  time.Time     `json:"startTime"`
	AcceptedAt *time.Time    `json:"acceptedAt,omitempty"`
	EndedAt    time.Time     `json:"endTime"`
	Duration   time.Duration `json:"duration"`
	EndReason  EndReason     `json:"endReason"`
}
