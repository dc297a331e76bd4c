package store

import (
	"context"
	"errors"
	"time"
)

// Fixed domain limits. The history window and daily quota are part of the
// product definition, not tunables.
const (
	// HistoryWindow is the number of messages retained per room.
	HistoryWindow = 16
	// DailyRoomQuota caps room creations per calendar day.
	DailyRoomQuota = 100
	// MaxRoomNameLen bounds room names.
	MaxRoomNameLen = 8
)

var (
	ErrRoomExists    = errors.New("room already exists")
	ErrRoomNotFound  = errors.New("room not found")
	ErrQuotaExceeded = errors.New("daily room quota exceeded")
)

// Message is a chat message exactly as it travels on the wire and as it
// is stored in the room log. Content optionally embeds a single image
// reference in markdown-image shape.
type Message struct {
	Name    string `json:"name"`
	Text    string `json:"text"`
	Content string `json:"content"`
}

// RoomInfo describes a room's lifecycle metadata.
type RoomInfo struct {
	Name      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Active reports whether the room is still alive at the given instant.
func (r RoomInfo) Active(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// Feedback is a user-submitted feedback entry.
type Feedback struct {
	Email      string
	Text       string
	Timestamp  string
	UserAgent  string
	ScreenSize string
}

// MessageStore handles the per-room bounded message log.
type MessageStore interface {
	// Append adds a message to the room log, trims the log to the most
	// recent HistoryWindow entries, records senderID as the room's last
	// sender and registers any embedded image reference for cascading
	// deletion. The append, trim and last-sender update run atomically.
	Append(ctx context.Context, roomID string, msg Message, senderID string) error

	// Read returns up to the most recent HistoryWindow messages in
	// chronological order.
	Read(ctx context.Context, roomID string) ([]Message, error)

	// LastSender returns the id of the client whose message most
	// recently completed in the room, or "" when none is recorded.
	LastSender(ctx context.Context, roomID string) (string, error)
}

// RoomStore handles room existence, lifetime and the creation quota.
type RoomStore interface {
	// Create registers a new room. Fails with ErrRoomExists when an
	// active room of that name exists and with ErrQuotaExceeded when
	// today's creation quota is exhausted.
	Create(ctx context.Context, roomID string) error

	// Active reports whether the room exists and has not expired. Pure
	// predicate: it never mutates state.
	Active(ctx context.Context, roomID string) (bool, error)

	// Info returns lifecycle metadata, or ErrRoomNotFound when no
	// creation record exists.
	Info(ctx context.Context, roomID string) (*RoomInfo, error)

	// List returns metadata for all non-expired rooms.
	List(ctx context.Context) ([]RoomInfo, error)

	// Expired returns the names of registered rooms whose age has
	// reached the lifetime (including rooms missing a creation record).
	Expired(ctx context.Context) ([]string, error)

	// Purge removes every key owned by the room: set membership,
	// creation marker, message log, last-sender marker and image
	// markers. Idempotent; purging an absent room is a no-op.
	Purge(ctx context.Context, roomID string) error

	// CreatedToday returns the number of rooms created so far during
	// the current calendar day.
	CreatedToday(ctx context.Context) (int, error)
}

// ImageStore tracks stored image files and their room associations.
type ImageStore interface {
	// SaveImage records the stored filename for an image id.
	SaveImage(ctx context.Context, imageID, fileName string) error

	// ImageFile returns the stored filename for an image id, or "" when
	// unknown.
	ImageFile(ctx context.Context, imageID string) (string, error)

	// DeleteImage drops the filename record for an image id.
	DeleteImage(ctx context.Context, imageID string) error

	// RoomImages returns the ids of images referenced from the room.
	RoomImages(ctx context.Context, roomID string) ([]string, error)
}

// FeedbackStore persists user feedback.
type FeedbackStore interface {
	// SaveFeedback stores a feedback entry with a bounded retention.
	SaveFeedback(ctx context.Context, fb Feedback) error
}

// Store aggregates all storage interfaces.
type Store interface {
	MessageStore
	RoomStore
	ImageStore
	FeedbackStore

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
