package graphql

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dalemusser/pulsehub/internal/app/system/limits"
	"github.com/dalemusser/pulsehub/internal/app/system/pubsub"
)

const (
	// wsKeepAliveInterval is how often the server pushes a liveness
	// message (ka or ping, depending on the subprotocol).
	wsKeepAliveInterval = 10 * time.Second

	// wsWriteTimeout bounds a single frame write to a slow client.
	wsWriteTimeout = 10 * time.Second
)

// wsClient is one websocket connection and the operations running on it.
type wsClient struct {
	conn   *websocket.Conn
	proto  protocol
	ctx    context.Context
	cancel context.CancelFunc

	out   chan wsMessage
	acked atomic.Bool

	mu  sync.Mutex
	ops map[string]context.CancelFunc
}

// send queues a message for the write loop. It gives up when the
// connection context ends, so operation goroutines never block on a
// dead connection.
func (c *wsClient) send(msg wsMessage) {
	select {
	case c.out <- msg:
	case <-c.ctx.Done():
	}
}

// ServeWS handles a websocket upgrade on the GraphQL path and speaks
// the negotiated subscription subprotocol until the client goes away.
//
// The connection context carries the event bus and nothing else: no
// viewer, regardless of what the handshake request contained.
// Subscriptions are reads of public data; identity never enters them.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	proto, ok := protocols[conn.Subprotocol()]
	if !ok {
		// Clients that negotiated nothing are almost always old
		// graphiql builds speaking the legacy protocol.
		proto = protocols[protoGraphQLWS]
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctx = pubsub.NewContext(ctx, h.Bus)

	c := &wsClient{
		conn:   conn,
		proto:  proto,
		ctx:    ctx,
		cancel: cancel,
		out:    make(chan wsMessage, 16),
		ops:    make(map[string]context.CancelFunc),
	}

	h.addClient(c)
	h.Metrics.WSOpened()
	connected := time.Now()
	h.Log.Info("websocket connected",
		zap.String("remote", r.RemoteAddr),
		zap.String("subprotocol", proto.name),
	)

	conn.SetReadLimit(limits.MaxWSMessageSize)

	go h.writeLoop(c)
	h.readLoop(c)

	cancel()
	h.removeClient(c)
	h.Metrics.WSClosed()
	_ = conn.Close()
	h.Log.Info("websocket disconnected",
		zap.String("remote", r.RemoteAddr),
		zap.Duration("connected_for", time.Since(connected)),
	)
}

// readLoop consumes client messages until the connection drops or the
// client terminates. It runs on the ServeWS goroutine.
func (h *Handler) readLoop(c *wsClient) {
	for {
		var msg wsMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				h.Log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
		if msg.Type == "" {
			c.send(wsMessage{Type: c.proto.error, Payload: c.proto.errorPayload("message type is required")})
			continue
		}

		switch msg.Type {
		case msgConnectionInit:
			c.acked.Store(true)
			c.send(wsMessage{Type: c.proto.ack})
		case c.proto.ping:
			c.send(wsMessage{Type: c.proto.pong})
		case c.proto.pong:
			// Client answered our keepalive.
		case c.proto.start:
			h.startOperation(c, msg)
		case c.proto.stop:
			c.stopOperation(msg.ID)
		case c.proto.terminate:
			return
		default:
			c.send(wsMessage{
				ID:      msg.ID,
				Type:    c.proto.error,
				Payload: c.proto.errorPayload("unexpected message type " + strconv.Quote(msg.Type)),
			})
		}
	}
}

// writeLoop is the only goroutine that writes frames. Everything else
// queues through c.out.
func (h *Handler) writeLoop(c *wsClient) {
	keepalive := time.NewTicker(wsKeepAliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case msg := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.cancel()
				return
			}
		case <-keepalive.C:
			if !c.acked.Load() {
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteJSON(wsMessage{Type: c.proto.keepAliveType()}); err != nil {
				c.cancel()
				return
			}
		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// startOperation begins executing one subscription for the client.
func (h *Handler) startOperation(c *wsClient, msg wsMessage) {
	if msg.ID == "" {
		c.send(wsMessage{Type: c.proto.error, Payload: c.proto.errorPayload("operation id is required")})
		return
	}

	var params startPayload
	if err := json.Unmarshal(msg.Payload, &params); err != nil {
		c.send(wsMessage{ID: msg.ID, Type: c.proto.error, Payload: c.proto.errorPayload("could not read operation payload")})
		return
	}

	opCtx, opCancel := context.WithCancel(c.ctx)

	c.mu.Lock()
	if _, exists := c.ops[msg.ID]; exists {
		c.mu.Unlock()
		opCancel()
		c.send(wsMessage{ID: msg.ID, Type: c.proto.error, Payload: c.proto.errorPayload("operation id " + strconv.Quote(msg.ID) + " is already in use")})
		return
	}
	c.ops[msg.ID] = opCancel
	c.mu.Unlock()

	responses, err := h.Schema.Subscribe(opCtx, params.Query, params.OperationName, params.Variables)
	if err != nil {
		c.stopOperation(msg.ID)
		c.send(wsMessage{ID: msg.ID, Type: c.proto.error, Payload: c.proto.errorPayload(err.Error())})
		return
	}

	go func() {
		defer c.stopOperation(msg.ID)
		for payload := range responses {
			if resp, ok := payload.(*gql.Response); ok {
				for _, qerr := range resp.Errors {
					h.Log.Error("graphql subscription error",
						zap.String("operation_id", msg.ID),
						zap.Error(qerr),
					)
				}
			}
			body, err := json.Marshal(payload)
			if err != nil {
				h.Log.Warn("failed to encode subscription event", zap.Error(err))
				continue
			}
			c.send(wsMessage{ID: msg.ID, Type: c.proto.data, Payload: body})
		}
		c.send(wsMessage{ID: msg.ID, Type: c.proto.complete})
	}()
}

// stopOperation cancels one running operation. Safe to call for ids
// that already finished.
func (c *wsClient) stopOperation(id string) {
	c.mu.Lock()
	cancel, ok := c.ops[id]
	if ok {
		delete(c.ops, id)
	}
	c.mu.Unlock()
	if ok {
		cancel()
	}
}

func (h *Handler) addClient(c *wsClient) {
	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	h.clientsMu.Unlock()
}

func (h *Handler) removeClient(c *wsClient) {
	h.clientsMu.Lock()
	delete(h.clients, c)
	h.clientsMu.Unlock()
}

// CloseAll tears down every open websocket connection. Called during
// graceful shutdown after the HTTP listener stops accepting.
func (h *Handler) CloseAll() {
	h.clientsMu.Lock()
	open := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		open = append(open, c)
	}
	h.clientsMu.Unlock()

	for _, c := range open {
		c.cancel()
		_ = c.conn.Close()
	}
}
