package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/arenachat/arena-server/internal/proto"
	"github.com/arenachat/arena-server/internal/store"
)

// Engine computes per-room write permissions. Permission state is
// derived, never stored: it is a function of the room's population and
// the last-sender marker.
type Engine struct {
	registry *Registry
	messages store.MessageStore
	log      *zerolog.Logger
}

// NewEngine constructs a permission engine over the given registry and
// message store.
func NewEngine(registry *Registry, messages store.MessageStore, logger *zerolog.Logger) *Engine {
	return &Engine{
		registry: registry,
		messages: messages,
		log:      logger,
	}
}

// Recompute reassigns every member's write permission and pushes a
// status event to each of them.
//
// Rule: with at most one occupant, the occupant may always write. With
// more, exactly the members whose id differs from the last sender may
// write; when no last sender is recorded, everyone may. The first
// eligible writer to send becomes the new last sender, which flips
// eligibility again.
func (e *Engine) Recompute(ctx context.Context, roomID string) {
	clients := e.registry.Clients(roomID)
	total := len(clients)
	if total == 0 {
		return
	}

	if total <= 1 {
		for _, c := range clients {
			c.SetCanWrite(true)
			c.Send(proto.NewStatus(true, total))
		}
		return
	}

	lastSender, err := e.messages.LastSender(ctx, roomID)
	if err != nil {
		e.log.Error().Err(err).Str("room", roomID).Msg("read last sender")
		return
	}

	for _, c := range clients {
		canWrite := lastSender == "" || c.ID != lastSender
		c.SetCanWrite(canWrite)
		c.Send(proto.NewStatus(canWrite, total))
	}
}
