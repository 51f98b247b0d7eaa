package signal

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteTimeout)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, uid domain.UserID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("user", string(uid)).Msg("readPump closing")
		ctl.Orch.Disconnect(uid, c)
		c.Close()
	}()

	pongWait := ctl.opts.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("user", string(uid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("user", string(uid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(uid, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(uid domain.UserID, c *WsSignalConn, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "signal").Str("user", string(uid)).Interface("panic", r).Msg("handler panic")
		}
	}()

	ev, err := core.DecodeInbound(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(uid)).Msg("rejected inbound event")
		code := "bad_payload"
		if errors.Is(err, core.ErrUnknownEvent) {
			code = "unknown_event"
		}
		ctl.sendEvent(c, core.OutError, core.ErrorPayload{Error: code})
		return
	}

	switch e := ev.(type) {
	case core.CallUser:
		ctl.handleCallUser(uid, c, e)
	case core.AnswerCall:
		ctl.handleAnswer(uid, e)
	case core.EndCall:
		ctl.handleEndCall(uid, e)
	case core.Ping:
		ctl.handlePing(c)
	case core.Relayable:
		ctl.handleRelay(uid, e)
	default:
		log.Warn().Str("module", "signal").Str("event", string(ev.Name())).Msg("unhandled event")
	}
}

func (ctl *SignalWSController) sendEvent(c *WsSignalConn, ev core.EventName, data any) {
	frame, err := core.Encode(ev, data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendEvent marshal")
		return
	}
	_ = c.TrySend(frame)
}
