/*
Package meeting contains the realtime core: meeting-room membership, chat
message relay, and WebRTC signaling between participants.

This file defines the wire protocol. Every frame is a tagged envelope
{type, payload}; inbound payload shapes are validated at the transport
boundary before they reach the coordinator.
*/
package meeting

import (
	"encoding/json"
	"time"

	"communityhub/internal/app/user"
)

// EventType tags every frame exchanged over a connection.
type EventType string

// Client to server events.
const (
	EventJoinRoom         EventType = "join-room"
	EventLeaveRoom        EventType = "leave-room"
	EventSendChatMessage  EventType = "send-chat-message"
	EventSendOffer        EventType = "send-offer"
	EventSendAnswer       EventType = "send-answer"
	EventSendICECandidate EventType = "send-ice-candidate"
)

// Server to client events.
const (
	EventConnected    EventType = "connected"
	EventRoomJoined   EventType = "room-joined"
	EventUserJoined   EventType = "user-joined"
	EventUserLeft     EventType = "user-left"
	EventChatMessage  EventType = "chat-message"
	EventOffer        EventType = "offer"
	EventAnswer       EventType = "answer"
	EventICECandidate EventType = "ice-candidate"
	EventRoomEnded    EventType = "room-ended"
	EventAnnouncement EventType = "announcement"
	EventError        EventType = "error"
)

// signalEvents maps each inbound signaling event to the event delivered to
// the receiving peer. The three kinds share one routing algorithm; only the
// event name differs.
var signalEvents = map[EventType]EventType{
	EventSendOffer:        EventOffer,
	EventSendAnswer:       EventAnswer,
	EventSendICECandidate: EventICECandidate,
}

// Envelope is the frame format for both directions.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EncodeEvent marshals an outbound event into its wire form.
func EncodeEvent(eventType EventType, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}

// --- Inbound payloads ---

// RoomRequest is the payload of join-room and leave-room.
type RoomRequest struct {
	RoomID string `json:"roomId"`
}

// ChatRequest is the payload of send-chat-message. Kind is optional; empty
// means text, "file" marks Content as an attachment object key.
type ChatRequest struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
	Kind    string `json:"kind,omitempty"`
}

// SignalRequest is the payload of send-offer, send-answer, and
// send-ice-candidate. Payload is opaque negotiation data; the router never
// inspects it. To optionally names the receiving user; zero means broadcast.
type SignalRequest struct {
	RoomID  string          `json:"roomId"`
	Payload json.RawMessage `json:"payload"`
	To      int32           `json:"to,omitempty"`
}

// --- Outbound payloads ---

// ConnectedPayload greets the client once its identity is established.
type ConnectedPayload struct {
	UserID   int32  `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// RoomJoinedPayload returns room metadata and the current roster (excluding
// the joiner) to a connection that joined a room.
type RoomJoinedPayload struct {
	RoomID       string          `json:"roomId"`
	MeetingID    int32           `json:"meetingId"`
	Title        string          `json:"title"`
	HostID       int32           `json:"hostId"`
	Participants []user.Identity `json:"participants"`
}

// PresencePayload announces a membership change to the other room members.
type PresencePayload struct {
	UserID      int32     `json:"userId"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChatMessagePayload carries the persisted chat message, with the id and
// timestamp the store assigned, to every room member including the sender.
type ChatMessagePayload struct {
	ID          int64     `json:"id"`
	Content     string    `json:"content"`
	Kind        string    `json:"kind"`
	UserID      int32     `json:"userId"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Timestamp   time.Time `json:"timestamp"`
}

// SignalPayload delivers an opaque signaling payload tagged with its sender.
type SignalPayload struct {
	Payload  json.RawMessage `json:"payload"`
	From     int32           `json:"from"`
	FromName string          `json:"fromName,omitempty"`
}

// RoomEndedPayload notifies members that the host ended the meeting.
type RoomEndedPayload struct {
	RoomID  string    `json:"roomId"`
	EndedAt time.Time `json:"endedAt"`
}

// ErrorPayload carries a core-detected error back to the originating
// connection only; errors are never broadcast to other members.
type ErrorPayload struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}
