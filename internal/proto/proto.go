// Package proto defines the JSON events exchanged over the WebSocket.
// Envelopes are flat: every event carries a type tag next to its fields.
package proto

import "github.com/arenachat/arena-server/internal/store"

// Inbound event types (client to server).
const (
	InboundTypeJoin    = "join"
	InboundTypeMessage = "message"
)

// Outbound event types (server to client).
const (
	OutboundTypeInit         = "init"
	OutboundTypeStatus       = "status"
	OutboundTypeHistory      = "history"
	OutboundTypeMessage      = "message"
	OutboundTypeUsers        = "users"
	OutboundTypeArenaExpired = "arena:expired"
)

// Inbound is a client event. Fields beyond Type are populated depending
// on the event: join carries ChatID/ID/Name, message carries Text/Content.
type Inbound struct {
	Type    string `json:"type"`
	ChatID  string `json:"chatId,omitempty"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Text    string `json:"text,omitempty"`
	Content string `json:"content,omitempty"`
}

// Init confirms a join: the assigned identity and room population.
type Init struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Total int    `json:"total"`
}

// Status tells a client whether it may currently write.
type Status struct {
	Type     string `json:"type"`
	CanWrite bool   `json:"canWrite"`
	Total    int    `json:"total"`
}

// History delivers the room's recent messages on join.
type History struct {
	Type     string          `json:"type"`
	Messages []store.Message `json:"messages"`
}

// MessageEvent broadcasts a chat message verbatim to the room.
type MessageEvent struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Text    string `json:"text"`
	Content string `json:"content"`
}

// Users broadcasts the room's current member names.
type Users struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

// ArenaExpired notifies that the room's lifetime has passed.
type ArenaExpired struct {
	Type   string `json:"type"`
	ChatID string `json:"chatId"`
}

func NewInit(id, name string, total int) Init {
	return Init{Type: OutboundTypeInit, ID: id, Name: name, Total: total}
}

func NewStatus(canWrite bool, total int) Status {
	return Status{Type: OutboundTypeStatus, CanWrite: canWrite, Total: total}
}

func NewHistory(messages []store.Message) History {
	if messages == nil {
		messages = []store.Message{}
	}
	return History{Type: OutboundTypeHistory, Messages: messages}
}

func NewMessageEvent(msg store.Message) MessageEvent {
	return MessageEvent{
		Type:    OutboundTypeMessage,
		Name:    msg.Name,
		Text:    msg.Text,
		Content: msg.Content,
	}
}

func NewUsers(users []string) Users {
	if users == nil {
		users = []string{}
	}
	return Users{Type: OutboundTypeUsers, Users: users}
}

func NewArenaExpired(chatID string) ArenaExpired {
	return ArenaExpired{Type: OutboundTypeArenaExpired, ChatID: chatID}
}
