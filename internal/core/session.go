package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/arenachat/arena-server/internal/ident"
	"github.com/arenachat/arena-server/internal/proto"
	"github.com/arenachat/arena-server/internal/store"
)

// defaultRoom is joined when a join event names no room.
const defaultRoom = "general"

type sessionState int

const (
	stateUnjoined sessionState = iota
	stateJoined
	stateClosed
)

// Session is the per-connection protocol dispatcher. It walks the
// UNJOINED -> JOINED -> CLOSED state machine and wires the registry,
// stores and permission engine together for each inbound event.
type Session struct {
	client    *Client
	state     sessionState
	registry  *Registry
	engine    *Engine
	rooms     store.RoomStore
	messages  store.MessageStore
	lifecycle *Lifecycle
	log       *zerolog.Logger
}

// NewSession constructs a session for a fresh, unjoined client.
func NewSession(registry *Registry, engine *Engine, rooms store.RoomStore, messages store.MessageStore, lifecycle *Lifecycle, logger *zerolog.Logger) *Session {
	return &Session{
		client:    NewClient(),
		state:     stateUnjoined,
		registry:  registry,
		engine:    engine,
		rooms:     rooms,
		messages:  messages,
		lifecycle: lifecycle,
		log:       logger,
	}
}

// Client returns the session's connection participant.
func (s *Session) Client() *Client {
	return s.client
}

// HandleEvent dispatches one inbound event. Unknown types are logged
// and dropped; the protocol has no generic error event.
func (s *Session) HandleEvent(ctx context.Context, event proto.Inbound) {
	switch event.Type {
	case proto.InboundTypeJoin:
		s.handleJoin(ctx, event)
	case proto.InboundTypeMessage:
		s.handleMessage(ctx, event)
	default:
		s.log.Warn().Str("type", event.Type).Msg("unknown inbound event")
	}
}

func (s *Session) handleJoin(ctx context.Context, event proto.Inbound) {
	if s.state != stateUnjoined {
		// A joined client re-sending join would duplicate its presence
		// entry; reject instead of re-registering.
		s.log.Warn().Str("client_id", s.client.ID).Str("room", event.ChatID).Msg("join rejected: already joined")
		return
	}

	roomID := event.ChatID
	if roomID == "" {
		roomID = defaultRoom
	}

	if expired := s.checkExpired(ctx, roomID); expired {
		return
	}

	s.client.ID = event.ID
	if s.client.ID == "" {
		s.client.ID = ident.NewID()
	}
	s.client.Name = event.Name
	if s.client.Name == "" {
		s.client.Name = ident.NewName()
	}
	s.client.Room = roomID
	s.client.SetCanWrite(false)

	s.registry.Add(s.client)
	s.state = stateJoined

	total := s.registry.Count(roomID)
	s.client.Send(proto.NewInit(s.client.ID, s.client.Name, total))

	history, err := s.messages.Read(ctx, roomID)
	if err != nil {
		s.log.Error().Err(err).Str("room", roomID).Msg("read history")
		history = nil
	}
	s.client.Send(proto.NewHistory(history))
	s.client.Send(proto.NewStatus(s.client.CanWrite(), total))

	s.engine.Recompute(ctx, roomID)
	s.registry.Broadcast(roomID, proto.NewUsers(s.registry.Names(roomID)))

	s.log.Info().
		Str("client_id", s.client.ID).
		Str("name", s.client.Name).
		Str("room", roomID).
		Int("total", total).
		Msg("client joined")
}

func (s *Session) handleMessage(ctx context.Context, event proto.Inbound) {
	if s.state != stateJoined {
		return
	}
	// Write-locked senders are ignored entirely.
	if !s.client.CanWrite() {
		return
	}

	roomID := s.client.Room
	if expired := s.checkExpired(ctx, roomID); expired {
		return
	}

	msg := store.Message{
		Name:    s.client.Name,
		Text:    event.Text,
		Content: event.Content,
	}

	if err := s.messages.Append(ctx, roomID, msg, s.client.ID); err != nil {
		s.log.Error().Err(err).Str("room", roomID).Msg("append message")
		return
	}

	s.registry.Broadcast(roomID, proto.NewMessageEvent(msg))
	s.client.LastMessageAt = time.Now()
	s.engine.Recompute(ctx, roomID)
}

// checkExpired reports whether the room has outlived its lifetime. On
// expiry it notifies the client and explicitly triggers the cascade.
func (s *Session) checkExpired(ctx context.Context, roomID string) bool {
	info, err := s.rooms.Info(ctx, roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		// Rooms without a creation record are treated as never expiring;
		// they hold no stored state worth cleaning up.
		return false
	}
	if err != nil {
		s.log.Error().Err(err).Str("room", roomID).Msg("check room expiry")
		return false
	}

	if info.Active(time.Now()) {
		return false
	}

	s.client.Send(proto.NewArenaExpired(roomID))
	if err := s.lifecycle.PurgeRoom(ctx, roomID); err != nil {
		s.log.Error().Err(err).Str("room", roomID).Msg("purge expired room")
	}
	return true
}

// Close tears the session down after the connection is gone: presence
// removed, permissions recomputed, membership rebroadcast.
func (s *Session) Close(ctx context.Context) {
	if s.state != stateJoined {
		s.state = stateClosed
		return
	}

	roomID := s.client.Room
	s.registry.Remove(s.client)
	s.state = stateClosed

	s.engine.Recompute(ctx, roomID)
	s.registry.Broadcast(roomID, proto.NewUsers(s.registry.Names(roomID)))

	s.log.Info().Str("client_id", s.client.ID).Str("room", roomID).Msg("client left")
}
