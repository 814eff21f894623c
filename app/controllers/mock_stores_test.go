package controllers

import (
	"errors"
	"time"

	"github.com/driftchat/drift-backend/app/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPresenceStore is a testify mock of PresenceStore.
type MockPresenceStore struct {
	mock.Mock
}

func (m *MockPresenceStore) GetPresence(userID uuid.UUID) (models.UserPresence, error) {
	args := m.Called(userID)
	return args.Get(0).(models.UserPresence), args.Error(1)
}

func (m *MockPresenceStore) EnsurePresence(userID uuid.UUID) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockPresenceStore) SetSearching(userID uuid.UUID, preference string) error {
	args := m.Called(userID, preference)
	return args.Error(0)
}

func (m *MockPresenceStore) ResetToOnline(userID uuid.UUID) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockPresenceStore) ForceOffline(userID uuid.UUID) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockPresenceStore) ClaimMatch(requesterID uuid.UUID, cutoff time.Time) (models.UserPresence, string, error) {
	args := m.Called(requesterID, cutoff)
	return args.Get(0).(models.UserPresence), args.String(1), args.Error(2)
}

func (m *MockPresenceStore) BindSocket(userID uuid.UUID, socketID string) error {
	args := m.Called(userID, socketID)
	return args.Error(0)
}

func (m *MockPresenceStore) ClearSocket(userID uuid.UUID, socketID string) (bool, error) {
	args := m.Called(userID, socketID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPresenceStore) TouchActivity(userID uuid.UUID) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockPresenceStore) TouchTyping(userID uuid.UUID, typing bool) error {
	args := m.Called(userID, typing)
	return args.Error(0)
}

// MockMessageStore is a testify mock of MessageStore.
type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) CreateMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockMessageStore) GetMessageByID(id uuid.UUID) (models.Message, error) {
	args := m.Called(id)
	return args.Get(0).(models.Message), args.Error(1)
}

func (m *MockMessageStore) GetMessagesByRoom(roomID string, limit int) ([]models.Message, error) {
	args := m.Called(roomID, limit)
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessageStore) GetMessagesSince(roomID string, since time.Time) ([]models.Message, error) {
	args := m.Called(roomID, since)
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockMessageStore) TombstoneMessage(id, senderID uuid.UUID) (models.Message, error) {
	args := m.Called(id, senderID)
	return args.Get(0).(models.Message), args.Error(1)
}

// fakeRegistry is a permissive ConnRegistry: it never rejects a send and
// records everything, so events from any handler under test can be observed
// (or ignored) without strict expectations.
type fakeRegistry struct {
	connected map[uuid.UUID]bool
	failFor   map[uuid.UUID]bool
	sent      chan sentEvent
}

type sentEvent struct {
	userID  uuid.UUID
	payload interface{}
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		connected: make(map[uuid.UUID]bool),
		failFor:   make(map[uuid.UUID]bool),
		sent:      make(chan sentEvent, 100),
	}
}

func (f *fakeRegistry) IsConnected(userID uuid.UUID) bool {
	return f.connected[userID]
}

func (f *fakeRegistry) Send(userID uuid.UUID, payload interface{}) error {
	if f.failFor[userID] {
		return errors.New("send failed")
	}
	select {
	case f.sent <- sentEvent{userID: userID, payload: payload}:
	default:
	}
	return nil
}
