/*
Package meeting contains the realtime core for meeting rooms.

This file defines the Session, the transport-independent half of a
connection: the authenticated identity plus the outbound send queue the
coordinator and routers write into.
*/
package meeting

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"communityhub/internal/app/user"
	"communityhub/internal/pkg/errs"
	"communityhub/internal/pkg/logx"
)

// sendQueueSize is the capacity of a session's outbound queue. A session
// that cannot drain this many frames is considered dead by its write pump.
const sendQueueSize = 256

// Session represents one authenticated client connection. Several sessions
// may carry the same user id (multiple devices); each session holds at most
// one current room, tracked by the Registry.
type Session struct {
	// id uniquely identifies this connection, not the user behind it.
	id string

	// identity is bound once at connection establishment and never changes.
	identity user.Identity

	// mu guards closed and the send path. The send channel itself is never
	// closed, so a SendEvent racing Close can only be rejected, never panic;
	// fan-out goroutines may hold a session past its unregistration.
	mu     sync.Mutex
	closed bool

	// send queues encoded frames for the transport write pump.
	send chan []byte

	// done signals the write pump that the session is closed.
	done chan struct{}

	logger zerolog.Logger
}

// NewSession creates a Session for an authenticated identity.
func NewSession(identity user.Identity) *Session {
	id := uuid.New().String()

	sessionLogger := logx.Logger().With().
		Str("session_id", id).
		Int32("user_id", identity.UserID).
		Logger()

	return &Session{
		id:       id,
		identity: identity,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
		logger:   sessionLogger,
	}
}

// ID returns the connection identifier.
func (s *Session) ID() string {
	return s.id
}

// Identity returns the identity bound to this connection.
func (s *Session) Identity() user.Identity {
	return s.identity
}

// Outbox exposes the outbound queue to the transport write pump.
func (s *Session) Outbox() <-chan []byte {
	return s.send
}

// Done is closed when the session shuts down; the write pump selects on it.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// SendEvent encodes the event and queues it without blocking. A closed
// session rejects the frame and a full queue drops it; membership events are
// re-synced on the next join and signaling is best-effort by contract.
func (s *Session) SendEvent(eventType EventType, payload any) error {
	frame, err := EncodeEvent(eventType, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event", string(eventType)).Msg("Failed to encode outbound event")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("session is closed")
	}

	select {
	case s.send <- frame:
		return nil
	default:
		s.logger.Warn().Str("event", string(eventType)).Msg("Session send queue full, dropping frame")
		return errors.New("session send queue full")
	}
}

// SendError reports a core-detected error to this connection only.
func (s *Session) SendError(err error) {
	payload := ErrorPayload{Message: "Something went wrong. Please try again."}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		payload.Code = customErr.Code
		payload.Message = customErr.Message
	}

	s.SendEvent(EventError, payload)
}

// Close marks the session closed and signals the write pump. Safe to call
// more than once and safe to race with SendEvent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	close(s.done)
}
