/*
Package meeting contains the realtime core for meeting rooms.

This file defines the Registry, the shared lookup structure consulted by the
membership coordinator and the signaling router. It tracks which session
belongs to which room and resolves a user id to a session for targeted
delivery. State is memory-only and scoped to the process.
*/
package meeting

import "sync"

// Registry maps active sessions to their current room and provides reverse
// lookup of a user within a room's membership. It is constructed once at
// startup and injected into the components that need it.
type Registry struct {
	mu sync.RWMutex

	// sessions holds every registered session, keyed by session id.
	sessions map[string]*Session

	// rooms holds room membership: room id to session id to session.
	rooms map[string]map[string]*Session

	// sessionRoom holds each session's current room, keyed by session id.
	sessionRoom map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		rooms:       make(map[string]map[string]*Session),
		sessionRoom: make(map[string]string),
	}
}

// Register binds the session at connection establishment time.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID()] = s
}

// Unregister removes every binding the session holds. It reports whether the
// session was still registered, and the room it was a member of, if any.
// Disconnect handlers key on the registered flag so cleanup runs once.
func (r *Registry) Unregister(s *Session) (roomID string, registered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, registered = r.sessions[s.ID()]; !registered {
		return "", false
	}

	delete(r.sessions, s.ID())

	roomID, inRoom := r.sessionRoom[s.ID()]
	if inRoom {
		r.removeFromRoomLocked(s, roomID)
	}

	return roomID, true
}

// AddToRoom adds the session to a room's membership. Re-adding a session
// already present is a no-op and reports false, keeping join idempotent per
// connection and room.
func (r *Registry) AddToRoom(s *Session, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]*Session)
		r.rooms[roomID] = members
	}

	if _, present := members[s.ID()]; present {
		return false
	}

	members[s.ID()] = s
	r.sessionRoom[s.ID()] = roomID
	return true
}

// RemoveFromRoom removes the session from a room's membership. Removing a
// session that is not a member is a no-op and reports false.
func (r *Registry) RemoveFromRoom(s *Session, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeFromRoomLocked(s, roomID)
}

func (r *Registry) removeFromRoomLocked(s *Session, roomID string) bool {
	members, ok := r.rooms[roomID]
	if !ok {
		return false
	}

	if _, present := members[s.ID()]; !present {
		return false
	}

	delete(members, s.ID())
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
	delete(r.sessionRoom, s.ID())
	return true
}

// ClearRoom empties a room's membership and returns the sessions that were
// members, used when the backing meeting ends.
func (r *Registry) ClearRoom(roomID string) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.rooms[roomID]
	cleared := make([]*Session, 0, len(members))

	for _, s := range members {
		delete(r.sessionRoom, s.ID())
		cleared = append(cleared, s)
	}
	delete(r.rooms, roomID)

	return cleared
}

// Members returns a snapshot of a room's current membership.
func (r *Registry) Members(roomID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomID]
	snapshot := make([]*Session, 0, len(members))
	for _, s := range members {
		snapshot = append(snapshot, s)
	}

	return snapshot
}

// RoomOf returns the session's current room, if it holds one.
func (r *Registry) RoomOf(s *Session) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, ok := r.sessionRoom[s.ID()]
	return roomID, ok
}

// FindByUser resolves a user id to a session within a room's membership.
// When the user is connected from several devices in the same room, one of
// them is returned; callers treat delivery as best-effort either way.
func (r *Registry) FindByUser(roomID string, userID int32) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.rooms[roomID] {
		if s.Identity().UserID == userID {
			return s
		}
	}

	return nil
}

// All returns a snapshot of every registered session, used for
// community-wide fan-out such as announcements.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}

	return snapshot
}
