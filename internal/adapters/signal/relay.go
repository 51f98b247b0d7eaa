package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

func (ctl *SignalWSController) handleRelay(
	uid domain.UserID,
	e core.Relayable,
) {
	if err := ctl.Orch.Relay(uid, e); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(uid)).Str("event", string(e.Name())).Msg("relay refused")
	}
}
