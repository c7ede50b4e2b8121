/*
Package meeting contains the realtime core for meeting rooms.

This file defines the Client, the WebSocket half of a connection. It runs
the read and write pumps, keeps the heartbeat alive, decodes inbound frames,
and dispatches them to the Hub.
*/
package meeting

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"communityhub/internal/pkg/errs"
	"communityhub/internal/pkg/logx"
)

const (
	// writeWait is the timeout for writing a frame to the connection.
	writeWait = 10 * time.Second

	// pongWait is the maximum time the server waits for a Pong before the
	// transport is considered dead and the disconnect path fires.
	pongWait = 60 * time.Second

	// pingPeriod is the interval between server Ping frames.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum allowed size of an inbound frame.
	maxMessageSize = 16384

	// dispatchTimeout bounds a single inbound event's store calls.
	dispatchTimeout = 10 * time.Second
)

// Client couples a Session to its WebSocket connection.
type Client struct {
	hub     *Hub
	session *Session
	conn    *websocket.Conn
	logger  zerolog.Logger
}

// NewClient constructs a Client for an already-upgraded connection and
// registers its session with the hub.
func NewClient(hub *Hub, conn *websocket.Conn, session *Session) *Client {
	clientLogger := logx.Logger().With().
		Str("session_id", session.ID()).
		Int32("user_id", session.Identity().UserID).
		Logger()

	client := &Client{
		hub:     hub,
		session: session,
		conn:    conn,
		logger:  clientLogger,
	}

	hub.Register(session)

	return client
}

// ReadPump reads frames from the connection until it fails, keeping the
// read deadline fresh on every Pong. It performs disconnect cleanup on exit.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection closed unexpectedly")
			}
			break
		}

		c.dispatch(frame)
	}
}

// cleanupOnDisconnect runs the implicit-leave path and closes the transport.
func (c *Client) cleanupOnDisconnect() {
	c.hub.Unregister(c.session)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error during cleanup")
	}
}

// dispatch validates one inbound frame at the transport boundary and hands
// it to the hub. Malformed frames are logged and dropped; business errors go
// back to this connection only.
func (c *Client) dispatch(frame []byte) {
	var envelope Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON frame")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	switch envelope.Type {
	case EventJoinRoom:
		var req RoomRequest
		if !c.bindPayload(envelope, &req) {
			return
		}
		if err := c.hub.Join(ctx, c.session, req.RoomID); err != nil {
			c.session.SendError(err)
		}

	case EventLeaveRoom:
		var req RoomRequest
		if !c.bindPayload(envelope, &req) {
			return
		}
		c.hub.Leave(c.session, req.RoomID)

	case EventSendChatMessage:
		var req ChatRequest
		if !c.bindPayload(envelope, &req) {
			return
		}
		if err := c.hub.SendChatMessage(ctx, c.session, req.RoomID, req.Content, req.Kind); err != nil {
			c.session.SendError(err)
		}

	case EventSendOffer, EventSendAnswer, EventSendICECandidate:
		var req SignalRequest
		if !c.bindPayload(envelope, &req) {
			return
		}
		c.hub.RelaySignal(envelope.Type, c.session, req.RoomID, req.Payload, req.To)

	default:
		c.logger.Warn().Str("event", string(envelope.Type)).Msg("Client sent unsupported event type")
	}
}

// bindPayload decodes the envelope payload into dst and requires a room id.
func (c *Client) bindPayload(envelope Envelope, dst any) bool {
	if err := json.Unmarshal(envelope.Payload, dst); err != nil {
		c.logger.Warn().Err(err).Str("event", string(envelope.Type)).Msg("Client sent invalid payload")
		return false
	}

	var roomID string
	switch req := dst.(type) {
	case *RoomRequest:
		roomID = req.RoomID
	case *ChatRequest:
		roomID = req.RoomID
	case *SignalRequest:
		roomID = req.RoomID
	}

	if roomID == "" {
		c.session.SendError(errs.NewError(errs.ErrInvalidParams))
		return false
	}

	return true
}

// WritePump drains the session's outbox to the connection and keeps the
// heartbeat going. It terminates when the session closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame := <-c.session.Outbox():
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Error().Err(err).Msg("Error writing frame")
				return
			}

		case <-c.session.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Error().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}
