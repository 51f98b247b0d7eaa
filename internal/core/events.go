package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadPayload   = errors.New("bad payload")
)

type EventName string

// Inbound events.
const (
	EventCallUser         EventName = "call-user"
	EventAnswerCall       EventName = "answer-call"
	EventICECandidate     EventName = "ice-candidate"
	EventEndCall          EventName = "end-call"
	EventToggleAudio      EventName = "toggle-audio"
	EventToggleVideo      EventName = "toggle-video"
	EventStartScreenShare EventName = "start-screen-share"
	EventStopScreenShare  EventName = "stop-screen-share"
	EventCallQuality      EventName = "call-quality"
	EventPing             EventName = "ping"
)

// Envelope is the wire shape of every frame in both directions.
type Envelope struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound is one validated client event.
type Inbound interface {
	Name() EventName
	Validate() error
}

// Relayable events are forwarded verbatim to the other participants of a room.
type Relayable interface {
	Inbound
	Target() domain.RoomID
	// Relay returns the outbound event delivered to peers, attributed to from.
	Relay(from domain.UserID) (EventName, any)
}

type CallUser struct {
	To       domain.UserID             `json:"to"`
	From     domain.UserID             `json:"from"`
	CallType domain.CallKind           `json:"callType"`
	Offer    webrtc.SessionDescription `json:"offer"`
}

func (CallUser) Name() EventName { return EventCallUser }

func (e CallUser) Validate() error {
	if e.To == "" {
		return fmt.Errorf("%w: missing to", ErrBadPayload)
	}
	if _, err := domain.ParseCallKind(string(e.CallType)); err != nil {
		return fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	if e.Offer.Type != webrtc.SDPTypeOffer || e.Offer.SDP == "" {
		return fmt.Errorf("%w: offer must be an sdp offer", ErrBadPayload)
	}
	return nil
}

type AnswerCall struct {
	RoomID   domain.RoomID              `json:"roomId"`
	Answer   *webrtc.SessionDescription `json:"answer,omitempty"`
	Accepted bool                       `json:"accepted"`
}

func (AnswerCall) Name() EventName { return EventAnswerCall }

func (e AnswerCall) Validate() error {
	if e.RoomID == "" {
		return fmt.Errorf("%w: missing roomId", ErrBadPayload)
	}
	if e.Accepted && (e.Answer == nil || e.Answer.Type != webrtc.SDPTypeAnswer || e.Answer.SDP == "") {
		return fmt.Errorf("%w: accepted call needs an sdp answer", ErrBadPayload)
	}
	return nil
}

type EndCall struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (EndCall) Name() EventName { return EventEndCall }

func (e EndCall) Validate() error { return requireRoom(e.RoomID) }

type ICECandidate struct {
	RoomID    domain.RoomID           `json:"roomId"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

func (ICECandidate) Name() EventName { return EventICECandidate }
func (e ICECandidate) Validate() error { return requireRoom(e.RoomID) }
func (e ICECandidate) Target() domain.RoomID { return e.RoomID }
func (e ICECandidate) Relay(from domain.UserID) (EventName, any) {
	return OutICECandidate, ICECandidateRelay{RoomID: e.RoomID, Candidate: e.Candidate, From: from}
}

type ToggleAudio struct {
	RoomID domain.RoomID `json:"roomId"`
	Muted  bool          `json:"muted"`
}

func (ToggleAudio) Name() EventName { return EventToggleAudio }
func (e ToggleAudio) Validate() error { return requireRoom(e.RoomID) }
func (e ToggleAudio) Target() domain.RoomID { return e.RoomID }
func (e ToggleAudio) Relay(from domain.UserID) (EventName, any) {
	return OutPeerAudioToggled, PeerAudioToggled{RoomID: e.RoomID, UserID: from, Muted: e.Muted}
}

type ToggleVideo struct {
	RoomID   domain.RoomID `json:"roomId"`
	VideoOff bool          `json:"videoOff"`
}

func (ToggleVideo) Name() EventName { return EventToggleVideo }
func (e ToggleVideo) Validate() error { return requireRoom(e.RoomID) }
func (e ToggleVideo) Target() domain.RoomID { return e.RoomID }
func (e ToggleVideo) Relay(from domain.UserID) (EventName, any) {
	return OutPeerVideoToggled, PeerVideoToggled{RoomID: e.RoomID, UserID: from, VideoOff: e.VideoOff}
}

// ScreenShare covers both start-screen-share and stop-screen-share.
type ScreenShare struct {
	RoomID  domain.RoomID `json:"roomId"`
	Started bool          `json:"-"`
}

func (e ScreenShare) Name() EventName {
	if e.Started {
		return EventStartScreenShare
	}
	return EventStopScreenShare
}

func (e ScreenShare) Validate() error { return requireRoom(e.RoomID) }
func (e ScreenShare) Target() domain.RoomID { return e.RoomID }
func (e ScreenShare) Relay(from domain.UserID) (EventName, any) {
	name := OutPeerScreenShareStopped
	if e.Started {
		name = OutPeerScreenShareStarted
	}
	return name, PeerRef{RoomID: e.RoomID, UserID: from}
}

// CallQuality carries an opaque client stats report.
type CallQuality struct {
	RoomID  domain.RoomID   `json:"roomId"`
	Quality json.RawMessage `json:"quality"`
}

func (CallQuality) Name() EventName { return EventCallQuality }

func (e CallQuality) Validate() error {
	if err := requireRoom(e.RoomID); err != nil {
		return err
	}
	if len(bytes.TrimSpace(e.Quality)) == 0 {
		return fmt.Errorf("%w: missing quality", ErrBadPayload)
	}
	return nil
}

func (e CallQuality) Target() domain.RoomID { return e.RoomID }
func (e CallQuality) Relay(from domain.UserID) (EventName, any) {
	return OutPeerCallQuality, PeerCallQuality{RoomID: e.RoomID, UserID: from, Quality: e.Quality}
}

type Ping struct{}

func (Ping) Name() EventName { return EventPing }
func (Ping) Validate() error { return nil }

func requireRoom(id domain.RoomID) error {
	if id == "" {
		return fmt.Errorf("%w: missing roomId", ErrBadPayload)
	}
	return nil
}

// DecodeInbound parses an envelope into its typed variant and validates it.
func DecodeInbound(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}

	var (
		ev  Inbound
		err error
	)
	switch env.Event {
	case EventCallUser:
		ev, err = decode[CallUser](env.Data)
	case EventAnswerCall:
		ev, err = decode[AnswerCall](env.Data)
	case EventEndCall:
		ev, err = decode[EndCall](env.Data)
	case EventICECandidate:
		ev, err = decode[ICECandidate](env.Data)
	case EventToggleAudio:
		ev, err = decode[ToggleAudio](env.Data)
	case EventToggleVideo:
		ev, err = decode[ToggleVideo](env.Data)
	case EventStartScreenShare, EventStopScreenShare:
		var s ScreenShare
		s, err = decode[ScreenShare](env.Data)
		s.Started = env.Event == EventStartScreenShare
		ev = s
	case EventCallQuality:
		ev, err = decode[CallQuality](env.Data)
	case EventPing:
		ev = Ping{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	if err != nil {
		return nil, err
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(bytes.TrimSpace(data)) == 0 {
		return v, fmt.Errorf("%w: missing data", ErrBadPayload)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	return v, nil
}
