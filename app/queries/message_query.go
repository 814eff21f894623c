package queries

import (
	"database/sql"
	"errors"
	"time"

	"github.com/driftchat/drift-backend/app/models"
	"github.com/google/uuid"
)

// ErrMessageNotFound covers both a missing id and an unsend attempt against
// a message that is already tombstoned.
var ErrMessageNotFound = errors.New("message not found")

type MessageQueries struct {
	DB *sql.DB
}

const messageColumns = `id, room_id, user_id, message_type, text, file_url, reply_to_id, reply_to_snippet, is_deleted, created_at, updated_at`

func scanMessage(scan func(dest ...interface{}) error) (models.Message, error) {
	m := models.Message{}
	err := scan(
		&m.ID,
		&m.RoomID,
		&m.UserID,
		&m.MessageType,
		&m.Text,
		&m.FileURL,
		&m.ReplyToID,
		&m.ReplyToSnippet,
		&m.IsDeleted,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func (q *MessageQueries) CreateMessage(m *models.Message) error {
	query := `INSERT INTO messages (` + messageColumns + `)
			  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := q.DB.Exec(query,
		m.ID, m.RoomID, m.UserID, m.MessageType, m.Text, m.FileURL,
		m.ReplyToID, m.ReplyToSnippet, m.IsDeleted, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return errors.New("unable to create message")
	}
	return nil
}

func (q *MessageQueries) GetMessageByID(id uuid.UUID) (models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	m, err := scanMessage(q.DB.QueryRow(query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return m, ErrMessageNotFound
		}
		return m, errors.New("unable to get message")
	}
	return m, nil
}

func (q *MessageQueries) GetMessagesByRoom(roomID string, limit int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
			  WHERE room_id = $1 ORDER BY created_at ASC LIMIT $2`
	return q.queryMessages(query, roomID, limit)
}

// GetMessagesSince is the poll-path window scan: strictly newer than the
// cursor, ordered by update time so tombstone edits surface too. The cursor
// the client hands back must be the newest UpdatedAt it has seen.
func (q *MessageQueries) GetMessagesSince(roomID string, since time.Time) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
			  WHERE room_id = $1 AND updated_at > $2 ORDER BY updated_at ASC`
	return q.queryMessages(query, roomID, since)
}

func (q *MessageQueries) queryMessages(query string, args ...interface{}) ([]models.Message, error) {
	res := make([]models.Message, 0)
	rows, err := q.DB.Query(query, args...)
	if err != nil {
		return res, errors.New("unable to query messages")
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return res, err
		}
		res = append(res, m)
	}
	return res, nil
}

// TombstoneMessage soft-deletes in one conditional update keyed on the
// sender, so only the original author can unsend and the edit happens at
// most once. Content and media ref are cleared, updated_at is bumped so the
// poll cursor picks the tombstone up.
func (q *MessageQueries) TombstoneMessage(id, senderID uuid.UUID) (models.Message, error) {
	query := `UPDATE messages
			  SET text = $3, file_url = NULL, reply_to_id = NULL, reply_to_snippet = NULL,
			      is_deleted = TRUE, updated_at = now()
			  WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE
			  RETURNING ` + messageColumns
	m, err := scanMessage(q.DB.QueryRow(query, id, senderID, models.TombstoneText).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return m, ErrMessageNotFound
		}
		return m, errors.New("unable to delete message")
	}
	return m, nil
}
