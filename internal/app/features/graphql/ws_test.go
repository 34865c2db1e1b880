package graphql_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/pulsehub/internal/app/features/graphql"
	"github.com/dalemusser/pulsehub/internal/app/system/auth"
	"github.com/dalemusser/pulsehub/internal/testutil"
)

type wsEnvelope struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func dialWS(t *testing.T, srv *httptest.Server, subprotocol string, header http.Header) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	dialer := websocket.Dialer{Subprotocols: []string{subprotocol}}
	conn, _, err := dialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, env wsEnvelope) {
	t.Helper()
	_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := conn.WriteJSON(env); err != nil {
		t.Fatalf("write %s message: %v", env.Type, err)
	}
}

// readEnvelope returns the next non-keepalive message.
func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	for {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var env wsEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read websocket message: %v", err)
		}
		switch env.Type {
		case "ka", "ping", "pong":
			continue
		}
		return env
	}
}

func initConnection(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	sendEnvelope(t, conn, wsEnvelope{Type: "connection_init"})
	if ack := readEnvelope(t, conn); ack.Type != "connection_ack" {
		t.Fatalf("handshake answer: got %q, want connection_ack", ack.Type)
	}
}

func TestServeWS_SubscriptionContextHasNoViewer(t *testing.T) {
	h, _ := newTestHandler(t)

	// The full middleware chain runs, and the handshake carries a valid
	// bearer token. The subscription context must still have no viewer.
	issuer := testutil.NewTokenIssuer(t)
	srv := httptest.NewServer(auth.Middleware(issuer, zap.NewNop())(graphql.Routes(h)))
	defer srv.Close()

	token, err := issuer.Mint(primitive.NewObjectID(), "ada@example.com")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn := dialWS(t, srv, "graphql-ws", header)
	initConnection(t, conn)

	sendEnvelope(t, conn, wsEnvelope{
		ID:      "1",
		Type:    "start",
		Payload: json.RawMessage(`{"query":"subscription { viewerSeen }"}`),
	})

	env := readEnvelope(t, conn)
	if env.Type != "data" {
		t.Fatalf("first answer: got %q, want data", env.Type)
	}
	var payload struct {
		Data struct {
			ViewerSeen bool `json:"viewerSeen"`
		} `json:"data"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("parse data payload: %v", err)
	}
	if payload.Data.ViewerSeen {
		t.Error("subscription resolver saw a viewer; subscription contexts must stay anonymous")
	}

	if env := readEnvelope(t, conn); env.Type != "complete" {
		t.Errorf("after last event: got %q, want complete", env.Type)
	}
}

func TestServeWS_TransportWSProtocol(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(graphql.Routes(h))
	defer srv.Close()

	conn := dialWS(t, srv, "graphql-transport-ws", nil)
	if got := conn.Subprotocol(); got != "graphql-transport-ws" {
		t.Fatalf("negotiated subprotocol: got %q", got)
	}
	initConnection(t, conn)

	sendEnvelope(t, conn, wsEnvelope{
		ID:      "1",
		Type:    "subscribe",
		Payload: json.RawMessage(`{"query":"subscription { viewerSeen }"}`),
	})

	if env := readEnvelope(t, conn); env.Type != "next" {
		t.Fatalf("first answer: got %q, want next", env.Type)
	}
	if env := readEnvelope(t, conn); env.Type != "complete" {
		t.Errorf("after last event: got %q, want complete", env.Type)
	}
}

func TestServeWS_DeliversBusEvents(t *testing.T) {
	h, bus := newTestHandler(t)
	srv := httptest.NewServer(graphql.Routes(h))
	defer srv.Close()

	conn := dialWS(t, srv, "graphql-ws", nil)
	initConnection(t, conn)

	sendEnvelope(t, conn, wsEnvelope{
		ID:      "1",
		Type:    "start",
		Payload: json.RawMessage(`{"query":"subscription { ticks }"}`),
	})
	waitForSubscriber(t, bus, "ticks")

	bus.Publish("ticks", "hello")

	env := readEnvelope(t, conn)
	if env.Type != "data" {
		t.Fatalf("answer type: got %q, want data", env.Type)
	}
	var payload struct {
		Data struct {
			Ticks string `json:"ticks"`
		} `json:"data"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("parse data payload: %v", err)
	}
	if payload.Data.Ticks != "hello" {
		t.Errorf("event: got %q, want %q", payload.Data.Ticks, "hello")
	}
}

func TestServeWS_StopEndsOperation(t *testing.T) {
	h, bus := newTestHandler(t)
	srv := httptest.NewServer(graphql.Routes(h))
	defer srv.Close()

	conn := dialWS(t, srv, "graphql-ws", nil)
	initConnection(t, conn)

	sendEnvelope(t, conn, wsEnvelope{
		ID:      "1",
		Type:    "start",
		Payload: json.RawMessage(`{"query":"subscription { ticks }"}`),
	})
	waitForSubscriber(t, bus, "ticks")

	sendEnvelope(t, conn, wsEnvelope{ID: "1", Type: "stop"})

	if env := readEnvelope(t, conn); env.Type != "complete" {
		t.Fatalf("after stop: got %q, want complete", env.Type)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if bus.Stats()["ticks"].Subscribers == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("bus subscriber was not removed after stop")
}

func TestServeWS_DuplicateOperationID(t *testing.T) {
	h, bus := newTestHandler(t)
	srv := httptest.NewServer(graphql.Routes(h))
	defer srv.Close()

	conn := dialWS(t, srv, "graphql-ws", nil)
	initConnection(t, conn)

	start := wsEnvelope{
		ID:      "1",
		Type:    "start",
		Payload: json.RawMessage(`{"query":"subscription { ticks }"}`),
	}
	sendEnvelope(t, conn, start)
	waitForSubscriber(t, bus, "ticks")

	sendEnvelope(t, conn, start)

	env := readEnvelope(t, conn)
	if env.Type != "error" {
		t.Fatalf("duplicate id answer: got %q, want error", env.Type)
	}
	if env.ID != "1" {
		t.Errorf("error id: got %q, want %q", env.ID, "1")
	}
}

func TestServeWS_UnknownMessageType(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(graphql.Routes(h))
	defer srv.Close()

	conn := dialWS(t, srv, "graphql-ws", nil)
	initConnection(t, conn)

	sendEnvelope(t, conn, wsEnvelope{Type: "bogus"})

	if env := readEnvelope(t, conn); env.Type != "error" {
		t.Errorf("unknown type answer: got %q, want error", env.Type)
	}
}

func TestServeWS_AcceptsCrossOriginUpgrade(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(graphql.Routes(h))
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "http://localhost:5173")

	conn := dialWS(t, srv, "graphql-ws", header)
	initConnection(t, conn)
}

func TestCloseAll_DisconnectsClients(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(graphql.Routes(h))
	defer srv.Close()

	conn := dialWS(t, srv, "graphql-ws", nil)
	initConnection(t, conn)

	h.CloseAll()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var env wsEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			return // connection torn down
		}
	}
}
