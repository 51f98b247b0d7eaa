package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

func (ctl *SignalWSController) handleCallUser(
	uid domain.UserID,
	conn *WsSignalConn,
	e core.CallUser,
) {
	if ctl.limiter != nil && !ctl.limiter.Allow(uid) {
		log.Warn().Str("module", "signal").Str("user", string(uid)).Msg("call rate limited")
		ctl.sendEvent(conn, core.OutCallFailed, core.CallFailed{Reason: core.FailTooManyAttempt})
		return
	}
	roomID, err := ctl.Orch.CallUser(uid, e)
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("user", string(uid)).Str("to", string(e.To)).Msg("call-user refused")
		return
	}
	log.Info().Str("module", "signal").Str("user", string(uid)).Str("to", string(e.To)).Str("room", string(roomID)).Msg("call-user")
}

func (ctl *SignalWSController) handleAnswer(
	uid domain.UserID,
	e core.AnswerCall,
) {
	if err := ctl.Orch.AnswerCall(uid, e); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(uid)).Str("room", string(e.RoomID)).Msg("answer-call ignored")
	}
}

func (ctl *SignalWSController) handleEndCall(
	uid domain.UserID,
	e core.EndCall,
) {
	if err := ctl.Orch.EndCall(uid, e.RoomID); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(uid)).Str("room", string(e.RoomID)).Msg("end-call ignored")
	}
}
