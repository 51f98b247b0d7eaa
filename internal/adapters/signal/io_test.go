package signal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/app"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/app/orch"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

func newTestController(opts Options) *SignalWSController {
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(),
	}
	return NewSignalWSController(o, opts)
}

func connect(ctl *SignalWSController, uid domain.UserID) *WsSignalConn {
	c := NewWsSignalConn(nil, 64)
	ctl.Orch.Connect(uid, c)
	return c
}

// drain returns every queued event except presence broadcasts.
func drain(c *WsSignalConn) []core.Envelope {
	var out []core.Envelope
	for {
		select {
		case f := <-c.send:
			var env core.Envelope
			if err := json.Unmarshal(f, &env); err == nil && env.Event != core.OutOnlineUsers {
				out = append(out, env)
			}
		default:
			return out
		}
	}
}

const callFrame = `{"event":"call-user","data":{"to":"u2","from":"u1","callType":"audio","offer":{"type":"offer","sdp":"v=0"}}}`

func TestHandleSignalCallFlow(t *testing.T) {
	ctl := newTestController(Options{})
	c1 := connect(ctl, "u1")
	c2 := connect(ctl, "u2")

	ctl.handleSignal("u1", c1, []byte(callFrame))

	in := drain(c2)
	require.Len(t, in, 1)
	assert.Equal(t, core.OutIncomingCall, in[0].Event)
	var incoming core.IncomingCall
	require.NoError(t, json.Unmarshal(in[0].Data, &incoming))

	out := drain(c1)
	require.Len(t, out, 1)
	assert.Equal(t, core.OutCallRinging, out[0].Event)

	ctl.handleSignal("u2", c2, []byte(`{"event":"answer-call","data":{"roomId":"`+string(incoming.RoomID)+`","accepted":true,"answer":{"type":"answer","sdp":"v=0"}}}`))
	events := drain(c1)
	require.Len(t, events, 2)
	assert.Equal(t, core.OutCallAnswered, events[0].Event)
	assert.Equal(t, core.OutCallStarted, events[1].Event)

	ctl.handleSignal("u1", c1, []byte(`{"event":"end-call","data":{"roomId":"`+string(incoming.RoomID)+`"}}`))
	assert.Zero(t, ctl.Orch.Rooms.Count())
	ended := drain(c2)
	require.NotEmpty(t, ended)
	assert.Equal(t, core.OutCallEnded, ended[len(ended)-1].Event)
}

func TestHandleSignalBadPayload(t *testing.T) {
	ctl := newTestController(Options{})
	c1 := connect(ctl, "u1")

	ctl.handleSignal("u1", c1, []byte(`{"event":"end-call","data":{}}`))
	ctl.handleSignal("u1", c1, []byte(`{"event":"warp"}`))

	out := drain(c1)
	require.Len(t, out, 2)
	var e1, e2 core.ErrorPayload
	require.NoError(t, json.Unmarshal(out[0].Data, &e1))
	require.NoError(t, json.Unmarshal(out[1].Data, &e2))
	assert.Equal(t, "bad_payload", e1.Error)
	assert.Equal(t, "unknown_event", e2.Error)
}

func TestHandleSignalPing(t *testing.T) {
	ctl := newTestController(Options{})
	c1 := connect(ctl, "u1")

	ctl.handleSignal("u1", c1, []byte(`{"event":"ping"}`))
	out := drain(c1)
	require.Len(t, out, 1)
	assert.Equal(t, core.OutPong, out[0].Event)
}

func TestHandleSignalCallRateLimited(t *testing.T) {
	ctl := newTestController(Options{CallRateLimit: 1})
	c1 := connect(ctl, "u1")
	connect(ctl, "u2")

	ctl.handleSignal("u1", c1, []byte(callFrame))
	drain(c1)
	ctl.handleSignal("u1", c1, []byte(callFrame))

	out := drain(c1)
	require.Len(t, out, 1)
	var failed core.CallFailed
	require.NoError(t, json.Unmarshal(out[0].Data, &failed))
	assert.Equal(t, core.FailTooManyAttempt, failed.Reason)
	assert.Equal(t, 1, ctl.Orch.Rooms.Count())
}

func TestWsSignalConnClosed(t *testing.T) {
	c := NewWsSignalConn(nil, 1)
	require.NoError(t, c.TrySend(core.Frame("a")))
	require.ErrorIs(t, c.TrySend(core.Frame("b")), core.ErrBackpressure)

	c.Close()
	c.Close()
	require.ErrorIs(t, c.TrySend(core.Frame("c")), core.ErrConnectionClosed)
}
