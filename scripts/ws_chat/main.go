// Command ws_chat is a terminal client for manual testing: it joins an
// arena and relays stdin lines as messages.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/arenachat/arena-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	name := flag.String("name", "", "display name (server assigns one when empty)")
	room := flag.String("room", "general", "arena to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	join := proto.Inbound{Type: proto.InboundTypeJoin, ChatID: *room, Name: *name}
	if err := wsjson.Write(ctx, conn, join); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Printf("Connected to %s, arena %s\n", *addr, *room)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

// outbound covers every server event shape; only the fields matching the
// event type are populated.
type outbound struct {
	Type     string          `json:"type"`
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Total    int             `json:"total"`
	CanWrite bool            `json:"canWrite"`
	Messages []inboundRecord `json:"messages"`
	Users    []string        `json:"users"`
	Text     string          `json:"text"`
	ChatID   string          `json:"chatId"`
}

type inboundRecord struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var ev outbound
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch ev.Type {
		case proto.OutboundTypeInit:
			fmt.Printf("joined as %s (id %s), %d online\n", ev.Name, ev.ID, ev.Total)
		case proto.OutboundTypeHistory:
			for _, msg := range ev.Messages {
				fmt.Printf("%s: %s\n", msg.Name, msg.Text)
			}
		case proto.OutboundTypeStatus:
			if ev.CanWrite {
				fmt.Printf("-- your turn (%d online)\n", ev.Total)
			} else {
				fmt.Printf("-- waiting for a reply (%d online)\n", ev.Total)
			}
		case proto.OutboundTypeMessage:
			fmt.Printf("%s: %s\n", ev.Name, ev.Text)
		case proto.OutboundTypeUsers:
			fmt.Printf("-- online: %s\n", strings.Join(ev.Users, ", "))
		case proto.OutboundTypeArenaExpired:
			fmt.Printf("-- arena %s expired\n", ev.ChatID)
			return
		default:
			fmt.Printf("event=%s\n", ev.Type)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			msg := proto.Inbound{Type: proto.InboundTypeMessage, Text: text, Content: text}
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
