/*
Package handler provides the HTTP handlers and routing for the Community Hub server.

This file contains the websocket entry point. Authentication happens once,
before the upgrade: a request with a missing, invalid or expired token is
rejected with a plain HTTP error and never becomes a connection.
*/
package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"communityhub/internal/app/meeting"
	"communityhub/internal/app/store"
	"communityhub/internal/app/user"
	"communityhub/internal/pkg/auth/jwt"
	"communityhub/internal/pkg/errs"
	"communityhub/internal/pkg/limiter"
	"communityhub/internal/pkg/logx"
	"communityhub/internal/pkg/resp"
)

// HandleWebSocket authenticates the handshake, upgrades the connection and
// hands it to the meeting hub. One connection carries one session.
func HandleWebSocket(deps *AppDeps, upgrader *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		payload, err := jwt.ParseToken(token, deps.Config.JWTSecret)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		account, err := deps.Store.GetUserByID(r.Context(), payload.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}
			logx.Error(err, "Failed to load account for websocket handshake", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if !account.IsActive {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserInactive))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response.
			logx.Warn("Websocket upgrade failed.", "ip", limiter.ClientIP(r), "error", err.Error())
			return
		}

		session := meeting.NewSession(user.Identity{
			UserID:      account.ID,
			Username:    account.Username,
			DisplayName: account.FullName,
			Role:        account.Role,
		})

		client := meeting.NewClient(deps.Hub, conn, session)

		logx.Info("Websocket connection established.", "user_id", account.ID, "username", account.Username)

		go client.WritePump()
		client.ReadPump()
	}
}
