package core

import (
	"context"
	"testing"
	"time"

	"github.com/arenachat/arena-server/internal/proto"
)

type sessionEnv struct {
	registry  *Registry
	messages  *fakeMessages
	rooms     *fakeRooms
	engine    *Engine
	lifecycle *Lifecycle
}

func newSessionEnv() *sessionEnv {
	registry := NewRegistry()
	messages := newFakeMessages()
	rooms := newFakeRooms(24 * time.Hour)
	logger := testLogger()
	return &sessionEnv{
		registry:  registry,
		messages:  messages,
		rooms:     rooms,
		engine:    NewEngine(registry, messages, logger),
		lifecycle: NewLifecycle(rooms, nil, logger),
	}
}

func (env *sessionEnv) newSession() *Session {
	return NewSession(env.registry, env.engine, env.rooms, env.messages, env.lifecycle, testLogger())
}

func join(t *testing.T, s *Session, room, id, name string) {
	t.Helper()
	s.HandleEvent(context.Background(), proto.Inbound{
		Type:   proto.InboundTypeJoin,
		ChatID: room,
		ID:     id,
		Name:   name,
	})
}

func say(s *Session, text string) {
	s.HandleEvent(context.Background(), proto.Inbound{
		Type: proto.InboundTypeMessage,
		Text: text,
	})
}

func TestJoinAssignsIdentity(t *testing.T) {
	env := newSessionEnv()
	s := env.newSession()

	join(t, s, "lobby", "", "")

	init := mustEvent[proto.Init](t, s.Client().Events())
	if init.ID == "" || init.Name == "" {
		t.Fatalf("expected generated identity, got %+v", init)
	}
	if init.Total != 1 {
		t.Fatalf("expected total 1, got %d", init.Total)
	}

	history := mustEvent[proto.History](t, s.Client().Events())
	if len(history.Messages) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(history.Messages))
	}

	// Solo occupant ends up with write permission after the recompute.
	status := mustEvent[proto.Status](t, s.Client().Events())
	for !status.CanWrite {
		status = mustEvent[proto.Status](t, s.Client().Events())
	}

	users := mustEvent[proto.Users](t, s.Client().Events())
	if len(users.Users) != 1 || users.Users[0] != init.Name {
		t.Fatalf("unexpected users event: %+v", users)
	}
}

func TestJoinKeepsProvidedIdentity(t *testing.T) {
	env := newSessionEnv()
	s := env.newSession()

	join(t, s, "lobby", "abc1234", "brave-otter")

	init := mustEvent[proto.Init](t, s.Client().Events())
	if init.ID != "abc1234" || init.Name != "brave-otter" {
		t.Fatalf("identity not preserved: %+v", init)
	}
}

func TestJoinDefaultsRoom(t *testing.T) {
	env := newSessionEnv()
	s := env.newSession()

	join(t, s, "", "a", "alice")

	if got := s.Client().Room; got != defaultRoom {
		t.Fatalf("expected default room %q, got %q", defaultRoom, got)
	}
}

func TestRejoinRejected(t *testing.T) {
	env := newSessionEnv()
	s := env.newSession()

	join(t, s, "lobby", "a", "alice")
	drainEvents(s.Client())

	join(t, s, "other", "a", "alice")

	if env.registry.Count("other") != 0 {
		t.Fatal("re-join must not register the client again")
	}
	if s.Client().Room != "lobby" {
		t.Fatalf("room changed on rejected join: %q", s.Client().Room)
	}
	select {
	case ev := <-s.Client().Events():
		t.Fatalf("unexpected event after rejected join: %#v", ev)
	default:
	}
}

func TestMessageBeforeJoinIgnored(t *testing.T) {
	env := newSessionEnv()
	s := env.newSession()

	say(s, "hello?")

	log, err := env.messages.Read(context.Background(), defaultRoom)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(log) != 0 {
		t.Fatal("unjoined client must not append messages")
	}
}

func TestMessageAlternation(t *testing.T) {
	env := newSessionEnv()
	a := env.newSession()
	b := env.newSession()

	join(t, a, "lobby", "a", "alice")
	join(t, b, "lobby", "b", "bob")
	drainEvents(a.Client())
	drainEvents(b.Client())

	say(a, "hi bob")

	msg := mustEvent[proto.MessageEvent](t, b.Client().Events())
	if msg.Name != "alice" || msg.Text != "hi bob" {
		t.Fatalf("unexpected message event: %+v", msg)
	}
	if a.Client().CanWrite() {
		t.Fatal("sender must be write-locked after sending")
	}
	if !b.Client().CanWrite() {
		t.Fatal("other member must be eligible after a send")
	}

	// The locked sender's message is dropped silently.
	say(a, "and another thing")
	log, err := env.messages.Read(context.Background(), "lobby")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(log) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(log))
	}

	say(b, "hi alice")
	if !a.Client().CanWrite() || b.Client().CanWrite() {
		t.Fatal("permission must flip back after the reply")
	}
}

func TestJoinExpiredRoom(t *testing.T) {
	env := newSessionEnv()
	ctx := context.Background()

	// Backdate creation so the 24h lifetime has already passed.
	env.rooms.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }
	if err := env.rooms.Create(ctx, "stale"); err != nil {
		t.Fatalf("create: %v", err)
	}

	s := env.newSession()
	join(t, s, "stale", "a", "alice")

	expired := mustEvent[proto.ArenaExpired](t, s.Client().Events())
	if expired.ChatID != "stale" {
		t.Fatalf("unexpected expiry event: %+v", expired)
	}
	if env.registry.Count("stale") != 0 {
		t.Fatal("client must not be registered in an expired room")
	}
	if len(env.rooms.purged) != 1 || env.rooms.purged[0] != "stale" {
		t.Fatalf("expected cascade purge of %q, got %v", "stale", env.rooms.purged)
	}
}

func TestJoinUnknownRoomAllowed(t *testing.T) {
	env := newSessionEnv()
	s := env.newSession()

	// Rooms without a creation record never expire and can be joined.
	join(t, s, "ad-hoc", "a", "alice")

	if env.registry.Count("ad-hoc") != 1 {
		t.Fatal("join of an unrecorded room must succeed")
	}
}

func TestCloseRebroadcastsMembership(t *testing.T) {
	env := newSessionEnv()
	a := env.newSession()
	b := env.newSession()

	join(t, a, "lobby", "a", "alice")
	join(t, b, "lobby", "b", "bob")
	drainEvents(a.Client())
	drainEvents(b.Client())

	a.Close(context.Background())

	if env.registry.Count("lobby") != 1 {
		t.Fatalf("expected 1 remaining member, got %d", env.registry.Count("lobby"))
	}

	// Remaining occupant is solo again, so it regains write permission.
	status := mustEvent[proto.Status](t, b.Client().Events())
	if !status.CanWrite || status.Total != 1 {
		t.Fatalf("unexpected status after leave: %+v", status)
	}
	users := mustEvent[proto.Users](t, b.Client().Events())
	if len(users.Users) != 1 || users.Users[0] != "bob" {
		t.Fatalf("unexpected users after leave: %+v", users)
	}
}

func TestCloseBeforeJoinIsNoop(t *testing.T) {
	env := newSessionEnv()
	s := env.newSession()

	s.Close(context.Background())
}
