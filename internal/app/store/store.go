package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a query matches no rows.
var ErrNotFound = errors.New("store: not found")

// Store runs all SQL queries against the connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store backed by the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Users ---

const userColumns = `id, username, password, email, full_name, role,
	COALESCE(apartment, ''), COALESCE(phone, ''), is_active, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Email, &u.FullName,
		&u.Role, &u.Apartment, &u.Phone, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID fetches one user by primary key.
func (s *Store) GetUserByID(ctx context.Context, id int32) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByUsername fetches one user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// ListUsers returns every account, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUser inserts a new account and returns it with its assigned id.
func (s *Store) CreateUser(ctx context.Context, u *User) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password, email, full_name, role, apartment, phone)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
		RETURNING `+userColumns,
		u.Username, u.Password, u.Email, u.FullName, u.Role, u.Apartment, u.Phone)
	return scanUser(row)
}

// SetUserActive enables or disables an account.
func (s *Store) SetUserActive(ctx context.Context, id int32, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Meetings ---

const meetingColumns = `id, title, COALESCE(description, ''), meeting_type, room_id,
	host_id, status, scheduled_at, started_at, ended_at, max_participants, created_at`

func scanMeeting(row pgx.Row) (*Meeting, error) {
	var m Meeting
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.MeetingType, &m.RoomID,
		&m.HostID, &m.Status, &m.ScheduledAt, &m.StartedAt, &m.EndedAt,
		&m.MaxParticipants, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMeetings returns meetings, optionally filtered by status, newest first.
func (s *Store) ListMeetings(ctx context.Context, status string) ([]*Meeting, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+meetingColumns+` FROM meetings
		WHERE ($1 = '' OR status = $1)
		ORDER BY scheduled_at DESC NULLS LAST, created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meetings := []*Meeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// GetMeetingByID fetches one meeting by primary key.
func (s *Store) GetMeetingByID(ctx context.Context, id int32) (*Meeting, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = $1`, id)
	return scanMeeting(row)
}

// FindMeetingByRoomID resolves the opaque room id used by the realtime layer.
func (s *Store) FindMeetingByRoomID(ctx context.Context, roomID string) (*Meeting, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE room_id = $1`, roomID)
	return scanMeeting(row)
}

// CreateMeeting inserts a new meeting and returns it with its assigned id.
func (s *Store) CreateMeeting(ctx context.Context, m *Meeting) (*Meeting, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO meetings (title, description, meeting_type, room_id, host_id, scheduled_at, max_participants)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)
		RETURNING `+meetingColumns,
		m.Title, m.Description, m.MeetingType, m.RoomID, m.HostID, m.ScheduledAt, m.MaxParticipants)
	return scanMeeting(row)
}

// StartMeeting transitions a meeting to ongoing and records the start time.
func (s *Store) StartMeeting(ctx context.Context, id int32, startedAt time.Time) (*Meeting, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE meetings SET status = $2, started_at = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+meetingColumns, id, MeetingOngoing, startedAt)
	return scanMeeting(row)
}

// EndMeeting transitions a meeting to completed and records the end time.
func (s *Store) EndMeeting(ctx context.Context, id int32, endedAt time.Time) (*Meeting, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE meetings SET status = $2, ended_at = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+meetingColumns, id, MeetingCompleted, endedAt)
	return scanMeeting(row)
}

// --- Messages ---

// CreateChatMessage persists one chat message and returns it with its
// assigned id and creation timestamp.
func (s *Store) CreateChatMessage(ctx context.Context, meetingID, userID int32, content, messageType string) (*ChatMessage, error) {
	var msg ChatMessage
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (meeting_id, user_id, content, message_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, meeting_id, user_id, content, message_type, created_at`,
		meetingID, userID, content, messageType).
		Scan(&msg.ID, &msg.MeetingID, &msg.UserID, &msg.Content, &msg.MessageType, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessagesByMeeting returns a meeting's message history in send order.
func (s *Store) ListMessagesByMeeting(ctx context.Context, meetingID int32, limit int32) ([]*ChatMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, meeting_id, user_id, content, message_type, created_at
		FROM messages WHERE meeting_id = $1
		ORDER BY created_at ASC LIMIT $2`, meetingID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*ChatMessage{}
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.ID, &msg.MeetingID, &msg.UserID, &msg.Content,
			&msg.MessageType, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// --- Announcements ---

// UpsertAnnouncement inserts an announcement or, when the id already exists,
// refreshes the row. The queue redelivers on consumer crash, so this write
// must be idempotent on the publisher-assigned id.
func (s *Store) UpsertAnnouncement(ctx context.Context, a *Announcement) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO announcements (id, title, content, priority, category, author_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			priority = EXCLUDED.priority,
			category = EXCLUDED.category,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()`,
		a.ID, a.Title, a.Content, a.Priority, a.Category, a.AuthorID, a.ExpiresAt, a.CreatedAt)
	return err
}

// ListAnnouncements returns announcements that have not expired, newest first.
func (s *Store) ListAnnouncements(ctx context.Context, limit int32) ([]*Announcement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, content, priority, COALESCE(category, ''), author_id, expires_at, created_at
		FROM announcements
		WHERE expires_at IS NULL OR expires_at > now()
		ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	announcements := []*Announcement{}
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Priority, &a.Category,
			&a.AuthorID, &a.ExpiresAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		announcements = append(announcements, &a)
	}
	return announcements, rows.Err()
}
