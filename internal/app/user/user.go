/*
Package user defines the identity of an authenticated participant as it is
carried through the realtime layer and serialized into event payloads.
*/
package user

// Identity is the authenticated identity bound to a connection at handshake
// time. It is ephemeral; the persistent account lives in the store.
type Identity struct {

	// UserID is the account's numeric identifier.
	UserID int32 `json:"userId"`

	// Username is the account's login name.
	Username string `json:"username"`

	// DisplayName is the participant's full name shown to other members.
	DisplayName string `json:"displayName"`

	// Role is the account role ("admin" or "resident").
	Role string `json:"role"`
}
