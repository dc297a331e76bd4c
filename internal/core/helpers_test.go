package core

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/arenachat/arena-server/internal/store"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// mustEvent drains the client's event queue until an event of type T
// shows up.
func mustEvent[T any](t *testing.T, ch <-chan any) T {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if typed, ok := ev.(T); ok {
				return typed
			}
		case <-deadline:
			var zero T
			t.Fatalf("expected event of type %T not received", zero)
			return zero
		}
	}
}

// drainEvents empties the client's queue so later assertions start clean.
func drainEvents(c *Client) {
	for {
		select {
		case <-c.Events():
		default:
			return
		}
	}
}

// fakeMessages is an in-memory store.MessageStore with the same
// append-trim-last-sender contract as the Redis implementation.
type fakeMessages struct {
	mu   sync.Mutex
	logs map[string][]store.Message
	last map[string]string
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{
		logs: make(map[string][]store.Message),
		last: make(map[string]string),
	}
}

func (f *fakeMessages) Append(_ context.Context, roomID string, msg store.Message, senderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	log := append(f.logs[roomID], msg)
	if len(log) > store.HistoryWindow {
		log = log[len(log)-store.HistoryWindow:]
	}
	f.logs[roomID] = log
	f.last[roomID] = senderID
	return nil
}

func (f *fakeMessages) Read(_ context.Context, roomID string) ([]store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Message(nil), f.logs[roomID]...), nil
}

func (f *fakeMessages) LastSender(_ context.Context, roomID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last[roomID], nil
}

// fakeRooms is an in-memory store.RoomStore with injectable clock.
type fakeRooms struct {
	mu       sync.Mutex
	created  map[string]time.Time
	lifetime time.Duration
	now      func() time.Time
	purged   []string
}

func newFakeRooms(lifetime time.Duration) *fakeRooms {
	return &fakeRooms{
		created:  make(map[string]time.Time),
		lifetime: lifetime,
		now:      time.Now,
	}
}

func (f *fakeRooms) Create(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created[roomID] = f.now()
	return nil
}

func (f *fakeRooms) Active(ctx context.Context, roomID string) (bool, error) {
	info, err := f.Info(ctx, roomID)
	if err != nil {
		return false, nil
	}
	return info.Active(f.now()), nil
}

func (f *fakeRooms) Info(_ context.Context, roomID string) (*store.RoomInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	createdAt, ok := f.created[roomID]
	if !ok {
		return nil, store.ErrRoomNotFound
	}
	return &store.RoomInfo{
		Name:      roomID,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(f.lifetime),
	}, nil
}

func (f *fakeRooms) List(context.Context) ([]store.RoomInfo, error) {
	return nil, nil
}

func (f *fakeRooms) Expired(context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeRooms) Purge(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.created, roomID)
	f.purged = append(f.purged, roomID)
	return nil
}

func (f *fakeRooms) CreatedToday(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created), nil
}
