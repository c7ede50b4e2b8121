/*
Package randx provides generation and validation of the identifiers used on
the wire: meeting room ids and announcement message ids.
*/
package randx

import (
	"github.com/google/uuid"
)

// RoomID generates the opaque room identifier assigned to a meeting at
// creation time.
func RoomID() string {
	return uuid.New().String()
}

// AnnouncementID generates the message id that keys an announcement through
// the durability queue. Consumers upsert on this id, so redelivered copies
// collapse into one row.
func AnnouncementID() string {
	return uuid.New().String()
}

// IsValidRoomID reports whether the given string is a well-formed room id.
func IsValidRoomID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
