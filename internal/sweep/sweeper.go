// Package sweep ages out expired rooms. One cancellable ticker replaces
// the pair of independent timers the system grew out of: a single short
// interval both bounds notification latency at the expiry boundary and
// performs the full cascading cleanup.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arenachat/arena-server/internal/core"
	"github.com/arenachat/arena-server/internal/proto"
	"github.com/arenachat/arena-server/internal/store"
)

// Sweeper periodically scans all rooms, notifies connected clients of
// expiry and cascades deletion. Sweeps and lazy purges may overlap;
// purging is idempotent so no mutual exclusion is needed.
type Sweeper struct {
	interval  time.Duration
	rooms     store.RoomStore
	registry  *core.Registry
	lifecycle *core.Lifecycle
	log       *zerolog.Logger
}

// New constructs a sweeper ticking at the given interval.
func New(interval time.Duration, rooms store.RoomStore, registry *core.Registry, lifecycle *core.Lifecycle, logger *zerolog.Logger) *Sweeper {
	return &Sweeper{
		interval:  interval,
		rooms:     rooms,
		registry:  registry,
		lifecycle: lifecycle,
		log:       logger,
	}
}

// Run sweeps once immediately, then on every tick until the context is
// cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.SweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepOnce(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SweepOnce finds every room past its lifetime, tells its connected
// clients, then purges it. Returns the purged room names.
func (s *Sweeper) SweepOnce(ctx context.Context) []string {
	expired, err := s.rooms.Expired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("scan expired rooms")
		return nil
	}

	for _, roomID := range expired {
		// Notify before destroying so clients see arena:expired rather
		// than a silent history wipe.
		s.registry.Broadcast(roomID, proto.NewArenaExpired(roomID))

		if err := s.lifecycle.PurgeRoom(ctx, roomID); err != nil {
			s.log.Error().Err(err).Str("room", roomID).Msg("purge expired room")
			continue
		}
		roomsExpired.Inc()
		s.log.Info().Str("room", roomID).Msg("expired room swept")
	}
	return expired
}
