package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
)

// broadcastPresenceLocked pushes the full online list to every connection.
// Cost grows with online² per change.
func (o *Orchestrator) broadcastPresenceLocked() {
	frame, err := core.Encode(core.OutOnlineUsers, o.Registry.OnlineUsers())
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode online users")
		return
	}
	for _, snap := range o.Registry.Connections() {
		o.deliverLocked(snap.UserID, snap.Conn, frame)
	}
}
