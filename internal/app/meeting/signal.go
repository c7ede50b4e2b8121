/*
Package meeting contains the realtime core for meeting rooms.

This file implements the signaling router, which relays opaque WebRTC
negotiation payloads (offer, answer, ICE candidate) between peers in the
same room. The router never inspects payload contents; SDP and candidate
validation is the peers' own concern.
*/
package meeting

import (
	"encoding/json"
)

// RelaySignal routes one signaling payload. When a target user id is given,
// the payload goes to that user's session within the room; an unresolvable
// target is dropped silently, since the sender cannot distinguish a peer
// that has not joined yet from one that is gone. Without a target the
// payload is broadcast to every room member except the sender, for the case
// where per-peer pairing is not yet established.
//
// The three signaling kinds share this exact routing; only the delivered
// event name differs.
func (h *Hub) RelaySignal(eventType EventType, s *Session, roomID string, payload json.RawMessage, to int32) {
	outEvent, ok := signalEvents[eventType]
	if !ok {
		h.logger.Warn().Str("event", string(eventType)).Msg("Unknown signaling event, ignoring")
		return
	}

	identity := s.Identity()
	out := SignalPayload{
		Payload:  payload,
		From:     identity.UserID,
		FromName: identity.DisplayName,
	}

	if to != 0 {
		target := h.registry.FindByUser(roomID, to)
		if target == nil {
			h.logger.Debug().
				Str("room_id", roomID).
				Int32("from", identity.UserID).
				Int32("to", to).
				Msg("Signaling target not in room, dropping")
			return
		}

		target.SendEvent(outEvent, out)
		return
	}

	for _, member := range h.registry.Members(roomID) {
		if member.ID() == s.ID() {
			continue
		}
		member.SendEvent(outEvent, out)
	}
}
