package orch

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/app"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/domain"
)

// Relay forwards ev to the other participants of its room.
// Events for unknown rooms are dropped silently.
func (o *Orchestrator) Relay(from domain.UserID, ev core.Relayable) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	room, ok := o.Rooms.Get(ev.Target())
	if !ok {
		log.Debug().Str("module", "orch").Str("room", string(ev.Target())).Str("event", string(ev.Name())).Msg("relay to unknown room dropped")
		return nil
	}
	if !room.Has(from) {
		return fmt.Errorf("%w: %s in %s", app.ErrNotParticipant, from, room.ID)
	}
	name, payload := ev.Relay(from)
	for _, peer := range room.Others(from) {
		o.sendLocked(peer, name, payload)
	}
	return nil
}
