package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/arenachat/arena-server/internal/store"
)

// ImageCleaner removes a room's stored image files and their records.
type ImageCleaner interface {
	DeleteRoomImages(ctx context.Context, roomID string) error
}

// Lifecycle owns the cascading destruction of expired rooms. Expiry
// detection itself is a pure predicate on the store; callers observing
// an expired room invoke PurgeRoom explicitly.
type Lifecycle struct {
	rooms  store.RoomStore
	images ImageCleaner
	log    *zerolog.Logger
}

// NewLifecycle constructs the cleanup service.
func NewLifecycle(rooms store.RoomStore, images ImageCleaner, logger *zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		rooms:  rooms,
		images: images,
		log:    logger,
	}
}

// PurgeRoom cascades deletion of everything the room owns: image files
// first, then stored keys (messages, counters, markers). Idempotent, so
// overlapping lazy purges and sweeps are harmless.
func (l *Lifecycle) PurgeRoom(ctx context.Context, roomID string) error {
	if l.images != nil {
		if err := l.images.DeleteRoomImages(ctx, roomID); err != nil {
			// Image cleanup failure must not leave room keys behind.
			l.log.Error().Err(err).Str("room", roomID).Msg("delete room images")
		}
	}

	if err := l.rooms.Purge(ctx, roomID); err != nil {
		return err
	}

	l.log.Debug().Str("room", roomID).Msg("room purged")
	return nil
}
