package queries

import (
	"database/sql"
	"errors"
	"time"

	"github.com/driftchat/drift-backend/app/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrNoCandidate means no claimable searching user exists right now. The
// requester simply keeps searching; this is the common case, not a failure.
var ErrNoCandidate = errors.New("no searching candidate")

// ErrNotSearching means the requester's own row left the searching state
// before the claim could complete.
var ErrNotSearching = errors.New("requester is not searching")

// ErrPresenceNotFound is returned when a user has no presence row yet.
var ErrPresenceNotFound = errors.New("presence not found")

type PresenceQueries struct {
	DB *sql.DB
}

const presenceColumns = `user_id, status, room_id, preference, socket_id, last_activity_at, last_typing_at, updated_at`

func scanPresence(row *sql.Row) (models.UserPresence, error) {
	p := models.UserPresence{}
	err := row.Scan(
		&p.UserID,
		&p.Status,
		&p.RoomID,
		&p.Preference,
		&p.SocketID,
		&p.LastActivityAt,
		&p.LastTypingAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return p, ErrPresenceNotFound
		}
		return p, errors.New("unable to get presence")
	}
	return p, nil
}

func (q *PresenceQueries) GetPresence(userID uuid.UUID) (models.UserPresence, error) {
	query := `SELECT ` + presenceColumns + ` FROM user_presence WHERE user_id = $1`
	return scanPresence(q.DB.QueryRow(query, userID))
}

// EnsurePresence creates the row on first authenticated contact. Existing
// rows are left untouched.
func (q *PresenceQueries) EnsurePresence(userID uuid.UUID) error {
	query := `INSERT INTO user_presence (user_id, status, preference, last_activity_at, updated_at)
			  VALUES ($1, $2, $3, now(), now())
			  ON CONFLICT (user_id) DO NOTHING`
	if _, err := q.DB.Exec(query, userID, models.StatusOnline, models.PreferenceBoth); err != nil {
		return errors.New("unable to create presence")
	}
	return nil
}

// SetSearching puts the user in the queue. Any stale room assignment is
// cleared in the same write.
func (q *PresenceQueries) SetSearching(userID uuid.UUID, preference string) error {
	query := `UPDATE user_presence
			  SET status = $2, room_id = NULL, preference = $3, last_activity_at = now(), updated_at = now()
			  WHERE user_id = $1`
	res, err := q.DB.Exec(query, userID, models.StatusSearching, preference)
	if err != nil {
		return errors.New("unable to set searching")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPresenceNotFound
	}
	return nil
}

// ResetToOnline ends the user's chat or search and returns them to the idle
// online state.
func (q *PresenceQueries) ResetToOnline(userID uuid.UUID) error {
	query := `UPDATE user_presence
			  SET status = $2, room_id = NULL, last_typing_at = NULL, last_activity_at = now(), updated_at = now()
			  WHERE user_id = $1`
	if _, err := q.DB.Exec(query, userID, models.StatusOnline); err != nil {
		return errors.New("unable to reset presence")
	}
	return nil
}

// ForceOffline is the disconnect reset: status offline, no room, no socket.
func (q *PresenceQueries) ForceOffline(userID uuid.UUID) error {
	query := `UPDATE user_presence
			  SET status = $2, room_id = NULL, socket_id = NULL, last_typing_at = NULL, updated_at = now()
			  WHERE user_id = $1`
	if _, err := q.DB.Exec(query, userID, models.StatusOffline); err != nil {
		return errors.New("unable to reset presence")
	}
	return nil
}

// isClaimAborted reports whether Postgres resolved a claim race by aborting
// this transaction (deadlock or serialization failure). The surviving claim
// has already committed, so the aborted side is not an error.
func isClaimAborted(err error) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}
	return pqErr.Code == "40P01" || pqErr.Code == "40001"
}

// ClaimMatch is the find-and-claim step. In a single transaction it locks
// one searching candidate (recent activity, not the requester), derives the
// pair's room id and moves candidate then requester to chatting. SKIP LOCKED
// keeps concurrent claimers on disjoint candidates, so no candidate can be
// claimed twice and no third user can join an existing pair.
//
// Two searchers claiming each other at the same moment lock each other's
// rows; Postgres aborts one transaction. The aborted side reports no
// candidate and finds the winner's committed match on its next check.
func (q *PresenceQueries) ClaimMatch(requesterID uuid.UUID, cutoff time.Time) (models.UserPresence, string, error) {
	candidate := models.UserPresence{}

	tx, err := q.DB.Begin()
	if err != nil {
		return candidate, "", errors.New("unable to begin claim")
	}
	defer tx.Rollback()

	sel := `SELECT user_id, socket_id FROM user_presence
			WHERE status = $2 AND user_id <> $1 AND last_activity_at > $3
			LIMIT 1
			FOR UPDATE SKIP LOCKED`
	err = tx.QueryRow(sel, requesterID, models.StatusSearching, cutoff).Scan(&candidate.UserID, &candidate.SocketID)
	if err != nil {
		if err == sql.ErrNoRows || isClaimAborted(err) {
			return candidate, "", ErrNoCandidate
		}
		return candidate, "", errors.New("unable to query candidates")
	}

	roomID := models.DeriveRoomID(requesterID, candidate.UserID)

	claim := `UPDATE user_presence
			  SET status = $2, room_id = $3, updated_at = now()
			  WHERE user_id = $1 AND status = $4`
	res, err := tx.Exec(claim, candidate.UserID, models.StatusChatting, roomID, models.StatusSearching)
	if err != nil {
		if isClaimAborted(err) {
			return candidate, "", ErrNoCandidate
		}
		return candidate, "", errors.New("unable to claim candidate")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return candidate, "", ErrNoCandidate
	}

	// Claimer first, requester second: the requester observes the result
	// synchronously, so this order is safe if the commit is ever split.
	res, err = tx.Exec(claim, requesterID, models.StatusChatting, roomID, models.StatusSearching)
	if err != nil {
		if isClaimAborted(err) {
			return candidate, "", ErrNoCandidate
		}
		return candidate, "", errors.New("unable to claim requester")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return candidate, "", ErrNotSearching
	}

	if err := tx.Commit(); err != nil {
		if isClaimAborted(err) {
			return candidate, "", ErrNoCandidate
		}
		return candidate, "", errors.New("unable to commit claim")
	}

	candidate.Status = models.StatusChatting
	candidate.RoomID = &roomID
	return candidate, roomID, nil
}

// BindSocket records the live-connection ref. An offline user comes online
// by connecting; searching or chatting users keep their state.
func (q *PresenceQueries) BindSocket(userID uuid.UUID, socketID string) error {
	query := `UPDATE user_presence
			  SET socket_id = $2,
			      status = CASE WHEN status = $3 THEN $4 ELSE status END,
			      last_activity_at = now(), updated_at = now()
			  WHERE user_id = $1`
	res, err := q.DB.Exec(query, userID, socketID, models.StatusOffline, models.StatusOnline)
	if err != nil {
		return errors.New("unable to bind socket")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPresenceNotFound
	}
	return nil
}

// ClearSocket removes the live-connection ref only if it still belongs to
// this connection, so a reconnect that already re-bound is not clobbered.
// It reports whether the ref was actually cleared.
func (q *PresenceQueries) ClearSocket(userID uuid.UUID, socketID string) (bool, error) {
	query := `UPDATE user_presence
			  SET socket_id = NULL, updated_at = now()
			  WHERE user_id = $1 AND socket_id = $2`
	res, err := q.DB.Exec(query, userID, socketID)
	if err != nil {
		return false, errors.New("unable to clear socket")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// TouchActivity refreshes the recency-window timestamp. Polls and live
// events both call it; it is an independent per-user write.
func (q *PresenceQueries) TouchActivity(userID uuid.UUID) error {
	query := `UPDATE user_presence SET last_activity_at = now() WHERE user_id = $1`
	if _, err := q.DB.Exec(query, userID); err != nil {
		return errors.New("unable to touch activity")
	}
	return nil
}

// TouchTyping sets or clears the typing timestamp.
func (q *PresenceQueries) TouchTyping(userID uuid.UUID, typing bool) error {
	var query string
	if typing {
		query = `UPDATE user_presence SET last_typing_at = now(), last_activity_at = now() WHERE user_id = $1`
	} else {
		query = `UPDATE user_presence SET last_typing_at = NULL, last_activity_at = now() WHERE user_id = $1`
	}
	if _, err := q.DB.Exec(query, userID); err != nil {
		return errors.New("unable to touch typing")
	}
	return nil
}
