/*
Package meeting contains the realtime core for meeting rooms.

This file defines the Hub, which coordinates room membership (join, leave,
disconnect cleanup) and room shutdown. Chat relay and signaling routing live
in chat.go and signal.go on the same struct.
*/
package meeting

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"communityhub/internal/app/store"
	"communityhub/internal/app/user"
	"communityhub/internal/pkg/errs"
	"communityhub/internal/pkg/logx"
)

// Store is the slice of the persistence layer the realtime core depends on.
// The room's backing meeting record is read-only here; status transitions
// happen through the REST surface.
type Store interface {
	FindMeetingByRoomID(ctx context.Context, roomID string) (*store.Meeting, error)
	CreateChatMessage(ctx context.Context, meetingID, userID int32, content, messageType string) (*store.ChatMessage, error)
}

// Hub coordinates all room membership changes and fans events out to the
// sessions involved.
type Hub struct {
	registry *Registry
	store    Store

	// mu serializes membership mutation (join, leave, disconnect cleanup,
	// room end) together with the roster reads and event fan-out that
	// depend on it. Room state is therefore always observed between whole
	// operations, never mid-mutation. Store calls happen outside this lock;
	// anything read before such a call is re-validated after it.
	mu sync.Mutex

	// endedRooms holds the room ids whose meeting has ended. Join consults
	// it under mu, so a join racing EndRoom cannot land in a swept room on
	// the strength of a status read taken before the end.
	endedRooms map[string]struct{}

	logger zerolog.Logger
}

// NewHub constructs a Hub over an injected registry and store.
func NewHub(registry *Registry, st Store) *Hub {
	return &Hub{
		registry:   registry,
		store:      st,
		endedRooms: make(map[string]struct{}),
		logger:     logx.Logger().With().Str("component", "hub").Logger(),
	}
}

// Register binds a freshly authenticated session and greets it.
func (h *Hub) Register(s *Session) {
	h.registry.Register(s)

	identity := s.Identity()
	s.SendEvent(EventConnected, ConnectedPayload{
		UserID:   identity.UserID,
		Username: identity.Username,
		Role:     identity.Role,
	})

	h.logger.Info().
		Str("session_id", s.ID()).
		Int32("user_id", identity.UserID).
		Msg("Session registered.")
}

// Join adds the session to a room. The room must resolve to a meeting whose
// status still accepts participants. Joining the room the session is already
// in refreshes its roster snapshot without emitting a duplicate user-joined.
// Joining a different room first leaves the current one.
func (h *Hub) Join(ctx context.Context, s *Session, roomID string) *errs.CustomError {
	meeting, err := h.store.FindMeetingByRoomID(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errs.NewError(errs.ErrRoomNotFound)
		}
		h.logger.Error().Err(err).Str("room_id", roomID).Msg("Meeting lookup failed during join")
		return errs.NewError(errs.ErrUnknown)
	}

	if !meeting.Joinable() {
		return errs.NewError(errs.ErrRoomNotJoinable)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// The status read above happened outside the lock; the meeting may have
	// ended while the lookup was in flight, after which ClearRoom has already
	// run and would never sweep this session. Re-validate against the ended
	// set now that the lock is held.
	if _, ended := h.endedRooms[roomID]; ended {
		return errs.NewError(errs.ErrRoomNotJoinable)
	}

	if current, ok := h.registry.RoomOf(s); ok && current != roomID {
		h.leaveLocked(s, current)
	}

	added := h.registry.AddToRoom(s, roomID)

	participants := []user.Identity{}
	for _, member := range h.registry.Members(roomID) {
		if member.ID() == s.ID() {
			continue
		}
		participants = append(participants, member.Identity())

		if added {
			identity := s.Identity()
			member.SendEvent(EventUserJoined, PresencePayload{
				UserID:      identity.UserID,
				Username:    identity.Username,
				DisplayName: identity.DisplayName,
				Timestamp:   time.Now(),
			})
		}
	}

	s.SendEvent(EventRoomJoined, RoomJoinedPayload{
		RoomID:       roomID,
		MeetingID:    meeting.ID,
		Title:        meeting.Title,
		HostID:       meeting.HostID,
		Participants: participants,
	})

	if added {
		h.logger.Info().
			Str("room_id", roomID).
			Int32("user_id", s.Identity().UserID).
			Int("participants", len(participants)+1).
			Msg("Session joined room.")
	}

	return nil
}

// Leave removes the session from the given room. A mismatched or absent
// membership is ignored: no event, no error.
func (h *Hub) Leave(s *Session, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.registry.RoomOf(s); !ok || current != roomID {
		return
	}

	h.leaveLocked(s, roomID)
}

// leaveLocked removes the session from the room and notifies the remaining
// members. Callers hold h.mu.
func (h *Hub) leaveLocked(s *Session, roomID string) {
	if !h.registry.RemoveFromRoom(s, roomID) {
		return
	}

	identity := s.Identity()
	left := PresencePayload{
		UserID:      identity.UserID,
		Username:    identity.Username,
		DisplayName: identity.DisplayName,
		Timestamp:   time.Now(),
	}

	for _, member := range h.registry.Members(roomID) {
		member.SendEvent(EventUserLeft, left)
	}

	h.logger.Info().
		Str("room_id", roomID).
		Int32("user_id", identity.UserID).
		Msg("Session left room.")
}

// Unregister handles transport loss. A session still holding a room
// membership is treated as an implicit leave; a session without one is a
// pure no-op path. The registry's registered flag makes the cleanup fire
// exactly once however many times the transport layer calls this.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()

	roomID, ok := h.registry.RoomOf(s)
	if ok {
		h.leaveLocked(s, roomID)
	}

	_, registered := h.registry.Unregister(s)
	h.mu.Unlock()

	if registered {
		h.logger.Info().
			Str("session_id", s.ID()).
			Int32("user_id", s.Identity().UserID).
			Msg("Session unregistered.")
	}

	s.Close()
}

// EndRoom broadcasts room-ended to the room's members and clears its
// membership. Invoked by the REST surface when the host ends the meeting;
// the sessions themselves stay connected.
func (h *Hub) EndRoom(roomID string, endedAt time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.endedRooms[roomID] = struct{}{}

	ended := RoomEndedPayload{RoomID: roomID, EndedAt: endedAt}

	members := h.registry.ClearRoom(roomID)
	for _, member := range members {
		member.SendEvent(EventRoomEnded, ended)
	}

	if len(members) > 0 {
		h.logger.Info().
			Str("room_id", roomID).
			Int("participants", len(members)).
			Msg("Room ended, membership cleared.")
	}
}

// Announce fans a community announcement out to every connected session.
func (h *Hub) Announce(a *store.Announcement) {
	for _, s := range h.registry.All() {
		s.SendEvent(EventAnnouncement, a)
	}
}
