/*
Package meeting contains the realtime core for meeting rooms.

This file implements the chat message relay: persist first, then fan the
stored record out to the room.
*/
package meeting

import (
	"context"

	"communityhub/internal/app/store"
	"communityhub/internal/pkg/errs"
)

// MaxChatContentBytes is the maximum allowed size of a chat message body.
const MaxChatContentBytes = 5000

// SendChatMessage persists a chat message and broadcasts the stored record,
// carrying its assigned id and timestamp, to every current member of the
// room including the sender. The sender's UI reconciles against this
// authoritative copy instead of a local echo.
//
// Kind selects the message type; empty means text, "file" carries the object
// key of an attachment uploaded through the presign flow.
//
// A persistence failure is reported to the sender only; nothing is
// broadcast and room state is left untouched.
func (h *Hub) SendChatMessage(ctx context.Context, s *Session, roomID, content, kind string) *errs.CustomError {
	switch kind {
	case "":
		kind = store.MessageTypeText
	case store.MessageTypeText, store.MessageTypeFile:
	default:
		return errs.NewError(errs.ErrInvalidParams)
	}

	if content == "" {
		return errs.NewError(errs.ErrMessageEmpty)
	}
	if len(content) > MaxChatContentBytes {
		return errs.NewError(errs.ErrMessageTooLong)
	}

	h.mu.Lock()
	current, inRoom := h.registry.RoomOf(s)
	h.mu.Unlock()

	if !inRoom || current != roomID {
		return errs.NewError(errs.ErrNotRoomMember)
	}

	meeting, err := h.store.FindMeetingByRoomID(ctx, roomID)
	if err != nil {
		if err == store.ErrNotFound {
			return errs.NewError(errs.ErrRoomNotFound)
		}
		h.logger.Error().Err(err).Str("room_id", roomID).Msg("Meeting lookup failed during message send")
		return errs.NewError(errs.ErrUnknown)
	}

	identity := s.Identity()

	stored, err := h.store.CreateChatMessage(ctx, meeting.ID, identity.UserID, content, kind)
	if err != nil {
		h.logger.Error().Err(err).Str("room_id", roomID).Msg("Chat message persistence failed")
		return errs.NewError(errs.ErrPersistenceFailed)
	}

	payload := ChatMessagePayload{
		ID:          stored.ID,
		Content:     stored.Content,
		Kind:        stored.MessageType,
		UserID:      identity.UserID,
		Username:    identity.Username,
		DisplayName: identity.DisplayName,
		Timestamp:   stored.CreatedAt,
	}

	// Membership may have shifted while the insert was in flight, so the
	// roster is re-read here rather than reused from the earlier check.
	h.mu.Lock()
	members := h.registry.Members(roomID)
	for _, member := range members {
		member.SendEvent(EventChatMessage, payload)
	}
	h.mu.Unlock()

	h.logger.Debug().
		Str("room_id", roomID).
		Int64("message_id", stored.ID).
		Int("recipients", len(members)).
		Msg("Chat message broadcast.")

	return nil
}
