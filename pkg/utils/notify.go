package utils

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// wsConn is the subset of *websocket.Conn the notifier uses. Tests substitute
// in-memory fakes.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Notifier is the live-connection registry: one push-path connection per
// user. It is also the matchmaker's staleness oracle: a presence row whose
// socket ref is unknown here belongs to a dead connection.
type Notifier struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]wsConn
}

// DefaultNotifier is the package-level notifier instance.
var DefaultNotifier = NewNotifier()

// NewNotifier creates a new Notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		conns: make(map[uuid.UUID]wsConn),
	}
}

// Register binds a websocket connection to a user. A previous connection for
// the same user is closed and replaced.
func (n *Notifier) Register(userID uuid.UUID, conn wsConn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if old, ok := n.conns[userID]; ok && old != conn {
		_ = old.Close()
	}
	n.conns[userID] = conn
	log.Printf("event=ws_register user=%s total_connections=%d", userID.String(), len(n.conns))
}

// Unregister removes the user's connection, but only if it is still the one
// passed in; a reconnect that already replaced it stays registered.
func (n *Notifier) Unregister(userID uuid.UUID, conn wsConn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if cur, ok := n.conns[userID]; ok && cur == conn {
		_ = cur.Close()
		delete(n.conns, userID)
	}
	log.Printf("event=ws_unregister user=%s total_connections=%d", userID.String(), len(n.conns))
}

// IsConnected reports whether the user has a live push-path connection.
func (n *Notifier) IsConnected(userID uuid.UUID) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.conns[userID]
	return ok
}

// Send sends a JSON-serializable payload to the user's websocket connection.
func (n *Notifier) Send(userID uuid.UUID, payload interface{}) error {
	n.mu.RLock()
	conn, ok := n.conns[userID]
	n.mu.RUnlock()
	if !ok || conn == nil {
		return ErrNoConnection
	}

	msg, err := json.Marshal(payload)
	if err != nil {
		log.Printf("event=notify_error user=%s error=%v", userID.String(), err)
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		log.Printf("event=notify_error_write user=%s error=%v", userID.String(), err)
		return err
	}

	log.Printf("event=notify_sent user=%s payload_len=%d", userID.String(), len(msg))
	return nil
}

// ErrNoConnection is returned when there is no websocket connection for the user.
var ErrNoConnection = &NoConnError{}

type NoConnError struct{}

func (e *NoConnError) Error() string { return "no websocket connection for user" }
