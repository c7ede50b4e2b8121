/*
Package store provides the PostgreSQL-backed persistence layer: user
accounts, meetings, chat messages, and announcements.
*/
package store

import "time"

// Meeting status values, owned by the meetings table.
const (
	MeetingScheduled = "scheduled"
	MeetingOngoing   = "ongoing"
	MeetingCompleted = "completed"
	MeetingCancelled = "cancelled"
)

// Meeting type values.
const (
	MeetingTypeVideo = "video"
	MeetingTypeChat  = "chat"
)

// Chat message kinds.
const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"
	MessageTypeFile   = "file"
)

// User is a resident or administrator account.
type User struct {
	ID        int32     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	Apartment string    `json:"apartment,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Meeting is a scheduled or running community meeting. RoomID is the opaque
// identifier the realtime layer keys rooms by.
type Meeting struct {
	ID              int32      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	MeetingType     string     `json:"meetingType"`
	RoomID          string     `json:"roomId"`
	HostID          int32      `json:"hostId"`
	Status          string     `json:"status"`
	ScheduledAt     *time.Time `json:"scheduledAt,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	MaxParticipants int32      `json:"maxParticipants"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Joinable reports whether the meeting currently accepts room joins.
func (m *Meeting) Joinable() bool {
	return m.Status == MeetingScheduled || m.Status == MeetingOngoing
}

// ChatMessage is one persisted chat message within a meeting.
type ChatMessage struct {
	ID          int64     `json:"id"`
	MeetingID   int32     `json:"meetingId"`
	UserID      int32     `json:"userId"`
	Content     string    `json:"content"`
	MessageType string    `json:"messageType"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Announcement is a community-wide notice. Its UUID id is assigned by the
// publisher before the announcement enters the durability queue, so the
// consumer-side upsert stays idempotent across redeliveries.
type Announcement struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Priority  string     `json:"priority"`
	Category  string     `json:"category,omitempty"`
	AuthorID  int32      `json:"authorId"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
