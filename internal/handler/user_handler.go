/*
Package handler provides the HTTP handlers and routing for the Community Hub server.

This file contains the user administration endpoints, all gated behind the
admin role.
*/
package handler

import (
	"net/http"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"communityhub/internal/app/db"
	"communityhub/internal/app/store"
	"communityhub/internal/pkg/errs"
	"communityhub/internal/pkg/logx"
	"communityhub/internal/pkg/req"
	"communityhub/internal/pkg/resp"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

// HandleListUsers returns every account, newest first.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := deps.Store.ListUsers(r.Context())
		if err != nil {
			logx.Error(err, "Failed to list users")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, users)
	}
}

type CreateUserInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
	Apartment string `json:"apartment,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// HandleCreateUser creates a resident or admin account.
func HandleCreateUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CreateUserInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !usernameRegex.MatchString(input.Username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < 6 || passwordLen > 72 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if input.Email == "" || input.FullName == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if input.Role == "" {
			input.Role = "resident"
		}
		if input.Role != "resident" && input.Role != "admin" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			logx.Error(err, "Failed to hash password")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		created, err := deps.Store.CreateUser(r.Context(), &store.User{
			Username:  input.Username,
			Password:  string(hashed),
			Email:     input.Email,
			FullName:  input.FullName,
			Role:      input.Role,
			Apartment: input.Apartment,
			Phone:     input.Phone,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}
			logx.Error(err, "Failed to create user", "username", input.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondCreated(w, r, created)
	}
}

type SetUserActiveInput struct {
	IsActive bool `json:"isActive"`
}

// HandleSetUserActive enables or disables an account. A disabled account
// can no longer sign in or open a realtime connection.
func HandleSetUserActive(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input SetUserActiveInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := deps.Store.SetUserActive(r.Context(), int32(id), input.IsActive); err != nil {
			if err == store.ErrNotFound {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "Failed to update account state", "user_id", id)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"id": id, "isActive": input.IsActive})
	}
}
