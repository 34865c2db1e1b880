package graphql

import "encoding/json"

// Subprotocol names offered during the websocket handshake. Older
// clients (Apollo subscriptions-transport-ws) speak graphql-ws; newer
// ones speak graphql-transport-ws. Both are served.
const (
	protoGraphQLWS          = "graphql-ws"
	protoGraphQLTransportWS = "graphql-transport-ws"
)

// msgConnectionInit opens the conversation in both subprotocols.
const msgConnectionInit = "connection_init"

// wsMessage is the envelope shared by both subprotocols.
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// startPayload is the payload of a start/subscribe message.
type startPayload struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// protocol maps one subprotocol's message types onto the shared
// connection loop. Fields left empty mean the subprotocol has no such
// message.
type protocol struct {
	name      string
	ack       string // server -> client, answers connection_init
	keepAlive string // server -> client, periodic; legacy only
	ping      string // bidirectional liveness probe; transport-ws only
	pong      string
	start     string // client -> server, begins an operation
	stop      string // client -> server, ends an operation
	data      string // server -> client, one execution result
	error     string // server -> client, operation failed
	complete  string // server -> client, no more results
	terminate string // client -> server, closes the connection; legacy only
}

var protocols = map[string]protocol{
	protoGraphQLWS: {
		name:      protoGraphQLWS,
		ack:       "connection_ack",
		keepAlive: "ka",
		start:     "start",
		stop:      "stop",
		data:      "data",
		error:     "error",
		complete:  "complete",
		terminate: "connection_terminate",
	},
	protoGraphQLTransportWS: {
		name:     protoGraphQLTransportWS,
		ack:      "connection_ack",
		ping:     "ping",
		pong:     "pong",
		start:    "subscribe",
		stop:     "complete",
		data:     "next",
		error:    "error",
		complete: "complete",
	},
}

// errorPayload renders message in the shape the subprotocol expects:
// a single error object for graphql-ws, an array for graphql-transport-ws.
func (p protocol) errorPayload(message string) json.RawMessage {
	type gqlError struct {
		Message string `json:"message"`
	}
	if p.name == protoGraphQLTransportWS {
		b, _ := json.Marshal([]gqlError{{Message: message}})
		return b
	}
	b, _ := json.Marshal(gqlError{Message: message})
	return b
}

// keepAliveType is what the periodic liveness ticker sends: "ka" for
// legacy clients, "ping" for transport-ws clients.
func (p protocol) keepAliveType() string {
	if p.keepAlive != "" {
		return p.keepAlive
	}
	return p.ping
}
