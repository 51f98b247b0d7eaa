package core

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

// Outbound events.
const (
	OutIncomingCall           EventName = "incoming-call"
	OutCallRinging            EventName = "call-ringing"
	OutCallAnswered           EventName = "call-answered"
	OutCallStarted            EventName = "call-started"
	OutCallDeclined           EventName = "call-declined"
	OutCallEnded              EventName = "call-ended"
	OutCallFailed             EventName = "call-failed"
	OutICECandidate           EventName = "ice-candidate"
	OutPeerAudioToggled       EventName = "peer-audio-toggled"
	OutPeerVideoToggled       EventName = "peer-video-toggled"
	OutPeerScreenShareStarted EventName = "peer-screen-share-started"
	OutPeerScreenShareStopped EventName = "peer-screen-share-stopped"
	OutPeerCallQuality        EventName = "peer-call-quality"
	OutPeerDisconnected       EventName = "peer-disconnected"
	OutOnlineUsers            EventName = "getOnlineUsers"
	OutPong                   EventName = "pong"
	OutError                  EventName = "error"
)

// Call-failed reasons sent to the caller.
const (
	FailUserOffline    = "User offline"
	FailUserBusy       = "User busy"
	FailAlreadyInCall  = "Already in a call"
	FailTooManyAttempt = "Too many call attempts"
)

type CallerInfo struct {
	UserID domain.UserID `json:"userId"`
}

type IncomingCall struct {
	From       domain.UserID             `json:"from"`
	To         domain.UserID             `json:"to"`
	CallType   domain.CallKind           `json:"callType"`
	RoomID     domain.RoomID             `json:"roomId"`
	Offer      webrtc.SessionDescription `json:"offer"`
	CallerInfo CallerInfo                `json:"callerInfo"`
}

type CallRinging struct {
	RoomID domain.RoomID `json:"roomId"`
	To     domain.UserID `json:"to"`
}

type CallAnswered struct {
	RoomID domain.RoomID             `json:"roomId"`
	Answer webrtc.SessionDescription `json:"answer"`
}

type RoomRef struct {
	RoomID domain.RoomID `json:"roomId"`
}

type CallEnded struct {
	RoomID domain.RoomID    `json:"roomId"`
	Reason domain.EndReason `json:"reason"`
}

type CallFailed struct {
	Reason string `json:"reason"`
}

type ICECandidateRelay struct {
	RoomID    domain.RoomID           `json:"roomId"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
	From      domain.UserID           `json:"from"`
}

type PeerRef struct {
	RoomID domain.RoomID `json:"roomId"`
	UserID domain.UserID `json:"userId"`
}

type PeerAudioToggled struct {
	RoomID domain.RoomID `json:"roomId"`
	UserID domain.UserID `json:"userId"`
	Muted  bool          `json:"muted"`
}

type PeerVideoToggled struct {
	RoomID   domain.RoomID `json:"roomId"`
	UserID   domain.UserID `json:"userId"`
	VideoOff bool          `json:"videoOff"`
}

type PeerCallQuality struct {
	RoomID  domain.RoomID   `json:"roomId"`
	UserID  domain.UserID   `json:"userId"`
	Quality json.RawMessage `json:"quality"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// Encode wraps data into an envelope frame.
func Encode(ev EventName, data any) (Frame, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Envelope{Event: ev, Data: raw})
}
