package store

import (
	"database/sql"
	"time"
)

// Sender of a transcript message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderSystem Sender = "system"
)

// Source says how a message entered the transcript.
type Source string

const (
	// SourceSpeech marks a sentence built from signs and spoken aloud.
	SourceSpeech Source = "speech"
	// SourceTyped marks free text typed by the user.
	SourceTyped Source = "typed"
)

// Message is one transcript entry.
type Message struct {
	ID        string
	Text      string
	Sender    Sender
	Source    Source
	CreatedAt time.Time
}

// MessageRepository stores the transcript.
type MessageRepository struct {
	db *sql.DB
}

// Messages returns the transcript repository.
func (s *Store) Messages() *MessageRepository {
	return &MessageRepository{db: s.db}
}

// Create appends m. CreatedAt is set when zero.
func (r *MessageRepository) Create(m *Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := r.db.Exec(
		`INSERT INTO messages (id, text, sender, source, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Text, string(m.Sender), string(m.Source), m.CreatedAt,
	)
	return err
}

// List returns the latest limit messages in insertion order. A limit
// <= 0 returns all of them.
func (r *MessageRepository) List(limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT id, text, sender, source, created_at FROM (
			SELECT id, text, sender, source, created_at, rowid AS seq FROM messages
			ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m := &Message{}
		var sender, source string
		if err := rows.Scan(&m.ID, &m.Text, &sender, &source, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Sender = Sender(sender)
		m.Source = Source(source)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Clear deletes the whole transcript.
func (r *MessageRepository) Clear() error {
	_, err := r.db.Exec(`DELETE FROM messages`)
	return err
}
