package http

import (
	"context"
	"errors"
	"io"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/arenachat/arena-server/internal/core"
	"github.com/arenachat/arena-server/internal/proto"
	"github.com/arenachat/arena-server/internal/store"
)

// WSHandler upgrades HTTP connections and bridges them to core.Session.
type WSHandler struct {
	registry  *core.Registry
	engine    *core.Engine
	store     store.Store
	lifecycle *core.Lifecycle
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(registry *core.Registry, engine *core.Engine, st store.Store, lifecycle *core.Lifecycle, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		registry:  registry,
		engine:    engine,
		store:     st,
		lifecycle: lifecycle,
		log:       logger,
	}
}

// Handle upgrades the request and runs the session until either side
// goes away.
// GET /ws
func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	core.IncConnections()
	defer core.DecConnections()

	session := core.NewSession(h.registry, h.engine, h.store, h.store, h.lifecycle, h.log)
	// The request context dies with the connection; teardown needs its
	// own context so presence cleanup still reaches the store.
	defer session.Close(context.Background())

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session.Client())
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}
		session.HandleEvent(ctx, inbound)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events():
			if err := wsjson.Write(ctx, conn, event); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
