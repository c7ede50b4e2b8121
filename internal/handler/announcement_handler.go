/*
Package handler provides the HTTP handlers and routing for the Community Hub server.

This file contains the announcement endpoints. Creation publishes to the
announcement queue; the worker persists the record and pushes it to every
connected session, so a published announcement survives a broker redelivery.
*/
package handler

import (
	"net/http"
	"time"

	"communityhub/internal/app/store"
	"communityhub/internal/pkg/auth/jwt"
	"communityhub/internal/pkg/errs"
	"communityhub/internal/pkg/logx"
	"communityhub/internal/pkg/randx"
	"communityhub/internal/pkg/req"
	"communityhub/internal/pkg/resp"
)

const announcementListLimit = 50

// HandleListAnnouncements returns recent announcements, newest first.
func HandleListAnnouncements(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		announcements, err := deps.Store.ListAnnouncements(r.Context(), announcementListLimit)
		if err != nil {
			logx.Error(err, "Failed to list announcements")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, announcements)
	}
}

type CreateAnnouncementInput struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Priority  string     `json:"priority,omitempty"`
	Category  string     `json:"category,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// HandleCreateAnnouncement enqueues a new announcement for delivery.
func HandleCreateAnnouncement(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)

		var input CreateAnnouncementInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Title == "" || input.Content == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		switch input.Priority {
		case "":
			input.Priority = "normal"
		case "low", "normal", "high", "urgent":
		default:
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		announcement := &store.Announcement{
			ID:        randx.AnnouncementID(),
			Title:     input.Title,
			Content:   input.Content,
			Priority:  input.Priority,
			Category:  input.Category,
			AuthorID:  payload.UserID,
			ExpiresAt: input.ExpiresAt,
			CreatedAt: time.Now(),
		}

		if err := deps.Queue.Publish(r.Context(), announcement); err != nil {
			logx.Error(err, "Failed to publish announcement", "announcement_id", announcement.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrAnnouncementPublishFailed))
			return
		}

		resp.RespondCreated(w, r, announcement)
	}
}
