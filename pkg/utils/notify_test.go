package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	written [][]byte
	closed  bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestNotifierRegisterAndSend(t *testing.T) {
	n := NewNotifier()
	userID := uuid.New()
	conn := &fakeConn{}

	n.Register(userID, conn)
	assert.True(t, n.IsConnected(userID))

	err := n.Send(userID, map[string]string{"event": "matched"})
	require.NoError(t, err)
	require.Len(t, conn.written, 1)
	assert.Contains(t, string(conn.written[0]), "matched")
}

func TestNotifierSendWithoutConnection(t *testing.T) {
	n := NewNotifier()

	err := n.Send(uuid.New(), map[string]string{"event": "x"})
	assert.ErrorIs(t, err, ErrNoConnection)
}

func TestNotifierReplaceClosesOldConnection(t *testing.T) {
	n := NewNotifier()
	userID := uuid.New()
	old := &fakeConn{}
	replacement := &fakeConn{}

	n.Register(userID, old)
	n.Register(userID, replacement)

	assert.True(t, old.closed)
	require.NoError(t, n.Send(userID, "hi"))
	assert.Empty(t, old.written)
	assert.Len(t, replacement.written, 1)
}

func TestNotifierUnregisterIgnoresStaleConnection(t *testing.T) {
	n := NewNotifier()
	userID := uuid.New()
	old := &fakeConn{}
	current := &fakeConn{}

	n.Register(userID, old)
	n.Register(userID, current)

	// The old connection's teardown runs after the reconnect; it must not
	// evict the current one.
	n.Unregister(userID, old)
	assert.True(t, n.IsConnected(userID))

	n.Unregister(userID, current)
	assert.False(t, n.IsConnected(userID))
	assert.True(t, current.closed)
}
