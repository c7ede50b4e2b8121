/*
Package errs provides custom error types and application-level error code constants.

This file maps every error code to its CustomError template, standardizing
messages and HTTP statuses across REST and WebSocket surfaces.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Request body is not valid JSON.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Meeting Room and Messaging Errors
	ErrRoomNotFound:          {Code: ErrRoomNotFound, Message: "Meeting room not found.", Status: http.StatusNotFound},
	ErrRoomNotJoinable:       {Code: ErrRoomNotJoinable, Message: "Meeting is not active.", Status: http.StatusConflict},
	ErrNotRoomMember:         {Code: ErrNotRoomMember, Message: "You are not a participant of this meeting.", Status: http.StatusForbidden},
	ErrMeetingNotFound:       {Code: ErrMeetingNotFound, Message: "Meeting not found.", Status: http.StatusNotFound},
	ErrMeetingAlreadyStarted: {Code: ErrMeetingAlreadyStarted, Message: "Meeting has already started.", Status: http.StatusConflict},
	ErrMeetingAlreadyEnded:   {Code: ErrMeetingAlreadyEnded, Message: "Meeting has already ended.", Status: http.StatusConflict},
	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "Message content cannot be empty.", Status: http.StatusBadRequest},
	ErrMessageTooLong:        {Code: ErrMessageTooLong, Message: "Message is too long.", Status: http.StatusBadRequest},

	// 3xxx: Authentication and Authorization Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrForbidden:          {Code: ErrForbidden, Message: "You do not have permission for this action.", Status: http.StatusForbidden},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect username or password.", Status: http.StatusUnauthorized},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},
	ErrUserInactive:       {Code: ErrUserInactive, Message: "This account has been disabled.", Status: http.StatusForbidden},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "Username is already taken.", Status: http.StatusConflict},

	// 4xxx: Announcement and File Errors
	ErrAnnouncementPublishFailed: {Code: ErrAnnouncementPublishFailed, Message: "Announcement could not be published. Please try again.", Status: http.StatusServiceUnavailable},
	ErrFileSizeTooLarge:          {Code: ErrFileSizeTooLarge, Message: "File is too large.", Status: http.StatusBadRequest},
	ErrFileTypeInvalid:           {Code: ErrFileTypeInvalid, Message: "File type is not allowed.", Status: http.StatusBadRequest},

	// 5xxx: Internal System Errors
	ErrPersistenceFailed: {Code: ErrPersistenceFailed, Message: "Could not save your message. Please try again.", Status: http.StatusInternalServerError},
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
