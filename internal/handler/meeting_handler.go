/*
Package handler provides the HTTP handlers and routing for the Community Hub server.

This file contains the meeting endpoints: listing, creation, the
scheduled/ongoing/completed status transitions, and message history.
Ending a meeting also tears its realtime room down.
*/
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"communityhub/internal/app/store"
	"communityhub/internal/pkg/auth/jwt"
	"communityhub/internal/pkg/errs"
	"communityhub/internal/pkg/logx"
	"communityhub/internal/pkg/randx"
	"communityhub/internal/pkg/req"
	"communityhub/internal/pkg/resp"
)

// messageHistoryLimit caps one history page.
const messageHistoryLimit = 200

// HandleListMeetings returns meetings, optionally filtered by ?status=.
func HandleListMeetings(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")

		switch status {
		case "", store.MeetingScheduled, store.MeetingOngoing, store.MeetingCompleted, store.MeetingCancelled:
		default:
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		meetings, err := deps.Store.ListMeetings(r.Context(), status)
		if err != nil {
			logx.Error(err, "Failed to list meetings")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, meetings)
	}
}

type CreateMeetingInput struct {
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	MeetingType     string     `json:"meetingType"`
	ScheduledAt     *time.Time `json:"scheduledAt,omitempty"`
	MaxParticipants int32      `json:"maxParticipants,omitempty"`
}

// HandleCreateMeeting schedules a new meeting hosted by the caller.
func HandleCreateMeeting(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)

		var input CreateMeetingInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Title == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if input.MeetingType == "" {
			input.MeetingType = store.MeetingTypeChat
		}
		if input.MeetingType != store.MeetingTypeChat && input.MeetingType != store.MeetingTypeVideo {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if input.MaxParticipants <= 0 {
			input.MaxParticipants = 100
		}

		created, err := deps.Store.CreateMeeting(r.Context(), &store.Meeting{
			Title:           input.Title,
			Description:     input.Description,
			MeetingType:     input.MeetingType,
			RoomID:          randx.RoomID(),
			HostID:          payload.UserID,
			ScheduledAt:     input.ScheduledAt,
			MaxParticipants: input.MaxParticipants,
		})
		if err != nil {
			logx.Error(err, "Failed to create meeting")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondCreated(w, r, created)
	}
}

// loadMeetingForHost fetches the meeting and checks that the caller is its
// host or an admin. Host-only transitions are authorization failures for
// everyone else, never fatal to the connection.
func loadMeetingForHost(deps *AppDeps, r *http.Request) (*store.Meeting, *errs.CustomError) {
	payload := jwt.GetPayloadFromContext(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	m, err := deps.Store.GetMeetingByID(r.Context(), int32(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errs.NewError(errs.ErrMeetingNotFound)
		}
		logx.Error(err, "Failed to load meeting", "meeting_id", id)
		return nil, errs.NewError(errs.ErrUnknown)
	}

	if m.HostID != payload.UserID && payload.Role != "admin" {
		return nil, errs.NewError(errs.ErrForbidden)
	}

	return m, nil
}

// HandleStartMeeting transitions a scheduled meeting to ongoing.
func HandleStartMeeting(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, customErr := loadMeetingForHost(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		switch m.Status {
		case store.MeetingOngoing:
			resp.RespondError(w, r, errs.NewError(errs.ErrMeetingAlreadyStarted))
			return
		case store.MeetingCompleted, store.MeetingCancelled:
			resp.RespondError(w, r, errs.NewError(errs.ErrMeetingAlreadyEnded))
			return
		}

		updated, err := deps.Store.StartMeeting(r.Context(), m.ID, time.Now())
		if err != nil {
			logx.Error(err, "Failed to start meeting", "meeting_id", m.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, updated)
	}
}

// HandleEndMeeting transitions a meeting to completed and ends its room:
// current members receive room-ended and the membership is cleared.
func HandleEndMeeting(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, customErr := loadMeetingForHost(deps, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if m.Status == store.MeetingCompleted || m.Status == store.MeetingCancelled {
			resp.RespondError(w, r, errs.NewError(errs.ErrMeetingAlreadyEnded))
			return
		}

		endedAt := time.Now()

		updated, err := deps.Store.EndMeeting(r.Context(), m.ID, endedAt)
		if err != nil {
			logx.Error(err, "Failed to end meeting", "meeting_id", m.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		deps.Hub.EndRoom(m.RoomID, endedAt)

		resp.RespondSuccess(w, r, updated)
	}
}

// HandleListMeetingMessages returns a meeting's chat history in send order.
func HandleListMeetingMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if _, err := deps.Store.GetMeetingByID(r.Context(), int32(id)); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrMeetingNotFound))
				return
			}
			logx.Error(err, "Failed to load meeting", "meeting_id", id)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		messages, err := deps.Store.ListMessagesByMeeting(r.Context(), int32(id), messageHistoryLimit)
		if err != nil {
			logx.Error(err, "Failed to list meeting messages", "meeting_id", id)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, messages)
	}
}
