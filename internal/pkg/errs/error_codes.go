/*
Package errs provides custom error types and application-level error code constants.

These codes identify specific business or system errors both inside the server
and on the wire to clients (REST responses and WebSocket error events).
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON is malformed.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate exceeded the configured limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Meeting Room and Messaging Errors
const (
	// ErrRoomNotFound indicates that the room id does not resolve to a meeting.
	ErrRoomNotFound = 2101

	// ErrRoomNotJoinable indicates that the backing meeting is not scheduled or ongoing.
	ErrRoomNotJoinable = 2102

	// ErrNotRoomMember indicates an action that requires current room membership.
	ErrNotRoomMember = 2103

	// ErrMeetingNotFound indicates that the meeting id does not exist.
	ErrMeetingNotFound = 2104

	// ErrMeetingAlreadyStarted indicates a start request for an ongoing meeting.
	ErrMeetingAlreadyStarted = 2105

	// ErrMeetingAlreadyEnded indicates a state change on a completed or cancelled meeting.
	ErrMeetingAlreadyEnded = 2106

	// ErrMessageEmpty indicates a chat message with an empty body.
	ErrMessageEmpty = 2201

	// ErrMessageTooLong indicates that the chat message body exceeded the limit.
	ErrMessageTooLong = 2202
)

// 3xxx: Authentication and Authorization Errors
const (
	// ErrUnauthorized indicates a missing, invalid, or expired credential.
	ErrUnauthorized = 3001

	// ErrForbidden indicates an authenticated user lacking the required role.
	ErrForbidden = 3002

	// ErrInvalidCredentials indicates a failed username/password check.
	ErrInvalidCredentials = 3003

	// ErrUserNotFound indicates that the requested user account does not exist.
	ErrUserNotFound = 3004

	// ErrUserInactive indicates a disabled user account.
	ErrUserInactive = 3005

	// ErrUserAlreadyExists indicates a duplicate username on account creation.
	ErrUserAlreadyExists = 3006
)

// 4xxx: Announcement and File Errors
const (
	// ErrAnnouncementPublishFailed indicates that the durability queue rejected the publish.
	ErrAnnouncementPublishFailed = 4001

	// ErrFileSizeTooLarge indicates that the declared file size exceeded the limit.
	ErrFileSizeTooLarge = 4101

	// ErrFileTypeInvalid indicates a file name or MIME type outside the allowed set.
	ErrFileTypeInvalid = 4102
)

// 5xxx: Internal System Errors
const (
	// ErrPersistenceFailed indicates that the backing store rejected a write.
	ErrPersistenceFailed = 5001

	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000
)
