package orch

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/app"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core/mocks"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

type recConn struct {
	mu     sync.Mutex
	frames []core.Envelope
	closed bool
	full   bool
}

func (c *recConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnectionClosed
	}
	if c.full {
		return core.ErrBackpressure
	}
	var env core.Envelope
	if err := json.Unmarshal(f, &env); err != nil {
		return err
	}
	c.frames = append(c.frames, env)
	return nil
}

func (c *recConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *recConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// names lists received events, skipping presence broadcasts.
func (c *recConn) names() []core.EventName {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []core.EventName
	for _, f := range c.frames {
		if f.Event != core.OutOnlineUsers {
			out = append(out, f.Event)
		}
	}
	return out
}

func (c *recConn) last(t *testing.T, ev core.EventName, v any) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Event == ev {
			require.NoError(t, json.Unmarshal(c.frames[i].Data, v))
			return
		}
	}
	t.Fatalf("no %s event received", ev)
}

func (c *recConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

type memSink struct {
	mu       sync.Mutex
	records  []domain.CallRecord
	presence map[domain.UserID]domain.PresenceStatus
}

func (s *memSink) RecordCall(rec domain.CallRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *memSink) RecordPresence(uid domain.UserID, st domain.PresenceStatus, _ time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presence == nil {
		s.presence = make(map[domain.UserID]domain.PresenceStatus)
	}
	s.presence[uid] = st
}

func (s *memSink) status(uid domain.UserID) domain.PresenceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence[uid]
}

func (s *memSink) calls() []domain.CallRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CallRecord(nil), s.records...)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	o     *Orchestrator
	sink  *memSink
	clock *clock
}

func newFixture(policy app.Policy) *fixture {
	f := &fixture{
		sink:  &memSink{},
		clock: &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.o = &Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(),
		Policy:   policy,
		Sink:     f.sink,
		Now:      f.clock.Now,
	}
	return f
}

func (f *fixture) connect(uid domain.UserID) *recConn {
	c := &recConn{}
	f.o.Connect(uid, c)
	return c
}

func offer() webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 offer"}
}

func answer() *webrtc.SessionDescription {
	return &webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 answer"}
}

func (f *fixture) call(t *testing.T, from, to domain.UserID) domain.RoomID {
	t.Helper()
	id, err := f.o.CallUser(from, core.CallUser{To: to, From: from, CallType: domain.CallVideo, Offer: offer()})
	require.NoError(t, err)
	return id
}

func TestConnectDisconnectPresence(t *testing.T) {
	f := newFixture(nil)
	c1 := f.connect("u1")
	c2 := f.connect("u2")

	assert.True(t, f.o.Registry.IsOnline("u1"))
	var online []domain.UserID
	c1.last(t, core.OutOnlineUsers, &online)
	assert.Equal(t, []domain.UserID{"u1", "u2"}, online)
	assert.Equal(t, domain.PresenceOnline, f.sink.status("u2"))

	f.o.Disconnect("u2", c2)
	assert.False(t, f.o.Registry.IsOnline("u2"))
	c1.last(t, core.OutOnlineUsers, &online)
	assert.Equal(t, []domain.UserID{"u1"}, online)
	assert.Equal(t, domain.PresenceOffline, f.sink.status("u2"))
}

func TestCallOfflineCalleeCreatesNoRoom(t *testing.T) {
	f := newFixture(nil)
	c1 := f.connect("u1")

	_, err := f.o.CallUser("u1", core.CallUser{To: "ghost", CallType: domain.CallVideo, Offer: offer()})
	require.ErrorIs(t, err, ErrCalleeOffline)
	assert.Zero(t, f.o.Rooms.Count())

	var failed core.CallFailed
	c1.last(t, core.OutCallFailed, &failed)
	assert.Equal(t, core.FailUserOffline, failed.Reason)
}

func TestSelfCallRejected(t *testing.T) {
	f := newFixture(nil)
	f.connect("u1")
	_, err := f.o.CallUser("u1", core.CallUser{To: "u1", CallType: domain.CallAudio, Offer: offer()})
	require.ErrorIs(t, err, ErrSelfCall)
	assert.Zero(t, f.o.Rooms.Count())
}

func TestVideoCallScenario(t *testing.T) {
	f := newFixture(nil)
	c1 := f.connect("u1")
	c2 := f.connect("u2")

	id := f.call(t, "u1", "u2")
	room, ok := f.o.Rooms.Get(id)
	require.True(t, ok)
	assert.Equal(t, domain.StatusRinging, room.Status)

	var incoming core.IncomingCall
	c2.last(t, core.OutIncomingCall, &incoming)
	assert.Equal(t, id, incoming.RoomID)
	assert.Equal(t, domain.UserID("u1"), incoming.From)
	assert.Equal(t, domain.CallVideo, incoming.CallType)
	assert.Equal(t, "v=0 offer", incoming.Offer.SDP)
	assert.Equal(t, domain.UserID("u1"), incoming.CallerInfo.UserID)

	var ringing core.CallRinging
	c1.last(t, core.OutCallRinging, &ringing)
	assert.Equal(t, id, ringing.RoomID)

	f.clock.Advance(2 * time.Second)
	require.NoError(t, f.o.AnswerCall("u2", core.AnswerCall{RoomID: id, Accepted: true, Answer: answer()}))

	var answered core.CallAnswered
	c1.last(t, core.OutCallAnswered, &answered)
	assert.Equal(t, "v=0 answer", answered.Answer.SDP)
	assert.Contains(t, c1.names(), core.OutCallStarted)
	assert.Contains(t, c2.names(), core.OutCallStarted)
	assert.Equal(t, domain.PresenceInCall, f.sink.status("u1"))
	assert.Equal(t, domain.PresenceInCall, f.sink.status("u2"))

	f.clock.Advance(90 * time.Second)
	require.NoError(t, f.o.EndCall("u1", id))

	for _, c := range []*recConn{c1, c2} {
		var ended core.CallEnded
		c.last(t, core.OutCallEnded, &ended)
		assert.Equal(t, id, ended.RoomID)
		assert.Equal(t, domain.ReasonNormal, ended.Reason)
	}
	_, ok = f.o.Rooms.Get(id)
	assert.False(t, ok)

	recs := f.sink.calls()
	require.Len(t, recs, 1)
	assert.Equal(t, domain.StatusEnded, recs[0].Status)
	assert.Equal(t, 90*time.Second, recs[0].Duration)
	assert.Equal(t, domain.PresenceOnline, f.sink.status("u1"))
}

func TestEndTwiceWritesOneRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	sink.EXPECT().RecordPresence(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	sink.EXPECT().RecordCall(gomock.Any()).Times(1)

	f := newFixture(nil)
	f.o.Sink = sink
	f.connect("u1")
	f.connect("u2")
	id := f.call(t, "u1", "u2")

	require.NoError(t, f.o.EndCall("u1", id))
	require.NoError(t, f.o.EndCall("u1", id))
	require.NoError(t, f.o.EndCall("u2", id))
}

func TestEndByOutsiderRejected(t *testing.T) {
	f := newFixture(nil)
	f.connect("u1")
	f.connect("u2")
	f.connect("u3")
	id := f.call(t, "u1", "u2")

	require.ErrorIs(t, f.o.EndCall("u3", id), app.ErrNotParticipant)
	_, ok := f.o.Rooms.Get(id)
	assert.True(t, ok)
}

func TestAcceptRejectedWhenNotRinging(t *testing.T) {
	f := newFixture(nil)
	f.connect("u1")
	f.connect("u2")
	id := f.call(t, "u1", "u2")

	require.ErrorIs(t, f.o.AnswerCall("u1", core.AnswerCall{RoomID: id, Accepted: true, Answer: answer()}), app.ErrNotParticipant)
	require.NoError(t, f.o.AnswerCall("u2", core.AnswerCall{RoomID: id, Accepted: true, Answer: answer()}))

	before, _ := f.o.Rooms.Get(id)
	err := f.o.AnswerCall("u2", core.AnswerCall{RoomID: id, Accepted: true, Answer: answer()})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	after, _ := f.o.Rooms.Get(id)
	assert.Equal(t, before, after)
}

func TestDeclineScenario(t *testing.T) {
	f := newFixture(nil)
	c1 := f.connect("u1")
	f.connect("u2")
	id := f.call(t, "u1", "u2")

	require.NoError(t, f.o.AnswerCall("u2", core.AnswerCall{RoomID: id, Accepted: false}))

	var ref core.RoomRef
	c1.last(t, core.OutCallDeclined, &ref)
	assert.Equal(t, id, ref.RoomID)
	assert.Zero(t, f.o.Rooms.Count())

	recs := f.sink.calls()
	require.Len(t, recs, 1)
	assert.Equal(t, domain.StatusDeclined, recs[0].Status)
	assert.Equal(t, domain.ReasonDeclined, recs[0].EndReason)
}

func TestDisconnectDuringActiveCall(t *testing.T) {
	f := newFixture(nil)
	c1 := f.connect("u1")
	c2 := f.connect("u2")
	id := f.call(t, "u1", "u2")
	require.NoError(t, f.o.AnswerCall("u2", core.AnswerCall{RoomID: id, Accepted: true, Answer: answer()}))
	c2.reset()

	f.o.Disconnect("u1", c1)

	assert.Equal(t, []core.EventName{core.OutPeerDisconnected, core.OutCallEnded}, c2.names())
	var peer core.PeerRef
	c2.last(t, core.OutPeerDisconnected, &peer)
	assert.Equal(t, domain.UserID("u1"), peer.UserID)
	var ended core.CallEnded
	c2.last(t, core.OutCallEnded, &ended)
	assert.Equal(t, domain.ReasonPeerDisconnected, ended.Reason)

	assert.Zero(t, f.o.Rooms.Count())
	recs := f.sink.calls()
	require.Len(t, recs, 1)
	assert.Equal(t, domain.ReasonPeerDisconnected, recs[0].EndReason)
	assert.Equal(t, domain.PresenceOffline, f.sink.status("u1"))
	assert.Equal(t, domain.PresenceOnline, f.sink.status("u2"))
}

func TestReconnectKeepsRoom(t *testing.T) {
	f := newFixture(nil)
	oldConn := f.connect("u1")
	f.connect("u2")
	id := f.call(t, "u1", "u2")

	newConn := f.connect("u1")
	assert.True(t, oldConn.isClosed())

	// the old socket's reader exits after the replacement
	f.o.Disconnect("u1", oldConn)
	assert.True(t, f.o.Registry.IsOnline("u1"))
	_, ok := f.o.Rooms.Get(id)
	assert.True(t, ok)

	require.NoError(t, f.o.AnswerCall("u2", core.AnswerCall{RoomID: id, Accepted: true, Answer: answer()}))
	assert.Contains(t, newConn.names(), core.OutCallAnswered)
}

func TestRelayUnknownRoomDropped(t *testing.T) {
	f := newFixture(nil)
	c1 := f.connect("u1")
	c2 := f.connect("u2")
	c1.reset()
	c2.reset()

	err := f.o.Relay("u1", core.ICECandidate{RoomID: "nope", Candidate: webrtc.ICECandidateInit{Candidate: "candidate:1"}})
	require.NoError(t, err)
	assert.Empty(t, c1.names())
	assert.Empty(t, c2.names())
}

func TestRelayForwardsToPeer(t *testing.T) {
	f := newFixture(nil)
	c1 := f.connect("u1")
	c2 := f.connect("u2")
	id := f.call(t, "u1", "u2")
	c1.reset()

	// candidates flow while still ringing
	require.NoError(t, f.o.Relay("u2", core.ICECandidate{RoomID: id, Candidate: webrtc.ICECandidateInit{Candidate: "candidate:1"}}))
	var cand core.ICECandidateRelay
	c1.last(t, core.OutICECandidate, &cand)
	assert.Equal(t, domain.UserID("u2"), cand.From)
	assert.Equal(t, "candidate:1", cand.Candidate.Candidate)

	require.NoError(t, f.o.Relay("u1", core.ToggleAudio{RoomID: id, Muted: true}))
	var muted core.PeerAudioToggled
	c2.last(t, core.OutPeerAudioToggled, &muted)
	assert.True(t, muted.Muted)
	assert.Equal(t, domain.UserID("u1"), muted.UserID)
	assert.NotContains(t, c1.names(), core.OutPeerAudioToggled)
}

func TestRelayFromOutsiderRejected(t *testing.T) {
	f := newFixture(nil)
	f.connect("u1")
	c2 := f.connect("u2")
	f.connect("u3")
	id := f.call(t, "u1", "u2")
	c2.reset()

	err := f.o.Relay("u3", core.ToggleVideo{RoomID: id, VideoOff: true})
	require.ErrorIs(t, err, app.ErrNotParticipant)
	assert.Empty(t, c2.names())
}

func TestBusyRejectPolicy(t *testing.T) {
	f := newFixture(app.RejectPolicy{})
	f.connect("u1")
	f.connect("u2")
	c3 := f.connect("u3")
	first := f.call(t, "u1", "u2")

	_, err := f.o.CallUser("u3", core.CallUser{To: "u2", CallType: domain.CallAudio, Offer: offer()})
	require.ErrorIs(t, err, ErrBusy)
	var failed core.CallFailed
	c3.last(t, core.OutCallFailed, &failed)
	assert.Equal(t, core.FailUserBusy, failed.Reason)

	_, err = f.o.CallUser("u1", core.CallUser{To: "u3", CallType: domain.CallAudio, Offer: offer()})
	require.ErrorIs(t, err, ErrBusy)

	_, ok := f.o.Rooms.Get(first)
	assert.True(t, ok)
	assert.Equal(t, 1, f.o.Rooms.Count())
}

// admitBusy lets every call through to the room manager.
type admitBusy struct{ app.RejectPolicy }

func (admitBusy) OnBusy(domain.UserID, domain.UserID, domain.Room) app.BusyAction {
	return app.BusyAction(-1)
}

func TestCreateConflictReportsBusyParty(t *testing.T) {
	f := newFixture(admitBusy{})
	c1 := f.connect("u1")
	f.connect("u2")
	c3 := f.connect("u3")
	f.call(t, "u1", "u2")

	_, err := f.o.CallUser("u1", core.CallUser{To: "u3", CallType: domain.CallAudio, Offer: offer()})
	require.ErrorIs(t, err, app.ErrUserBusy)
	var failed core.CallFailed
	c1.last(t, core.OutCallFailed, &failed)
	assert.Equal(t, core.FailAlreadyInCall, failed.Reason)

	_, err = f.o.CallUser("u3", core.CallUser{To: "u2", CallType: domain.CallAudio, Offer: offer()})
	require.ErrorIs(t, err, app.ErrUserBusy)
	c3.last(t, core.OutCallFailed, &failed)
	assert.Equal(t, core.FailUserBusy, failed.Reason)
	assert.Equal(t, 1, f.o.Rooms.Count())
}

func TestBusyReplacePolicy(t *testing.T) {
	f := newFixture(app.ReplacePolicy{})
	c1 := f.connect("u1")
	f.connect("u2")
	f.connect("u3")
	first := f.call(t, "u1", "u2")

	second := f.call(t, "u3", "u2")

	var ended core.CallEnded
	c1.last(t, core.OutCallEnded, &ended)
	assert.Equal(t, first, ended.RoomID)
	assert.Equal(t, domain.ReasonSuperseded, ended.Reason)

	_, ok := f.o.Rooms.Get(first)
	assert.False(t, ok)
	room, ok := f.o.Rooms.Get(second)
	require.True(t, ok)
	assert.Equal(t, domain.UserID("u3"), room.Caller())
}

func TestRingTimeout(t *testing.T) {
	f := newFixture(nil)
	f.o.RingTimeout = 20 * time.Millisecond
	c1 := f.connect("u1")
	f.connect("u2")
	id := f.call(t, "u1", "u2")

	require.Eventually(t, func() bool { return f.o.Rooms.Count() == 0 }, time.Second, 5*time.Millisecond)
	var ended core.CallEnded
	c1.last(t, core.OutCallEnded, &ended)
	assert.Equal(t, id, ended.RoomID)
	assert.Equal(t, domain.ReasonTimeout, ended.Reason)
}

func TestRingTimerStoppedOnAccept(t *testing.T) {
	f := newFixture(nil)
	f.o.RingTimeout = 20 * time.Millisecond
	f.connect("u1")
	f.connect("u2")
	id := f.call(t, "u1", "u2")
	require.NoError(t, f.o.AnswerCall("u2", core.AnswerCall{RoomID: id, Accepted: true, Answer: answer()}))

	time.Sleep(60 * time.Millisecond)
	room, ok := f.o.Rooms.Get(id)
	require.True(t, ok)
	assert.Equal(t, domain.StatusActive, room.Status)
	f.o.Stop()
}

func TestBackpressureKick(t *testing.T) {
	policy, err := app.PolicyFor("reject", "kick")
	require.NoError(t, err)
	f := newFixture(policy)
	c1 := f.connect("u1")
	c1.mu.Lock()
	c1.full = true
	c1.mu.Unlock()

	f.connect("u2")
	assert.True(t, c1.isClosed())
}
