package controllers

import (
	"testing"

	"github.com/driftchat/drift-backend/app/models"
	"github.com/driftchat/drift-backend/app/queries"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestHandleWsEventSearchRunsMatchAttempt(t *testing.T) {
	presence, _, _ := setupHandlers(t)

	user := uuid.New()
	presence.On("TouchActivity", user).Return(nil)
	presence.On("SetSearching", user, models.PreferenceBoth).Return(nil)
	presence.On("GetPresence", user).Return(searchingPresence(user), nil)
	presence.On("ClaimMatch", user, mock.AnythingOfType("time.Time")).
		Return(models.UserPresence{}, "", queries.ErrNoCandidate)

	handleWsEvent(user, models.WsInbound{Event: models.WsEventSearch})

	presence.AssertExpectations(t)
}

func TestHandleWsEventTypingNotifiesPartnerOnly(t *testing.T) {
	presence, _, _ := setupHandlers(t)

	user := uuid.New()
	partner := uuid.New()
	roomID := models.DeriveRoomID(user, partner)

	presence.On("TouchActivity", user).Return(nil)
	presence.On("TouchTyping", user, true).Return(nil)
	presence.On("GetPresence", user).Return(chattingPresence(user, roomID), nil)

	handleWsEvent(user, models.WsInbound{Event: models.WsEventTyping})

	ev := waitForQueuedEvent(t, models.EventTyping, partner)
	assert.Equal(t, user.String(), ev.SenderID)
	assert.Equal(t, roomID, ev.RoomID)
}

func TestHandleWsEventTypingStopClearsTimestamp(t *testing.T) {
	presence, _, _ := setupHandlers(t)

	user := uuid.New()
	presence.On("TouchActivity", user).Return(nil)
	presence.On("TouchTyping", user, false).Return(nil)
	presence.On("GetPresence", user).Return(models.UserPresence{UserID: user, Status: models.StatusOnline}, nil)

	handleWsEvent(user, models.WsInbound{Event: models.WsEventTypingStop})

	presence.AssertCalled(t, "TouchTyping", user, false)
}

func TestHandleWsEventLeaveEndsSession(t *testing.T) {
	presence, _, _ := setupHandlers(t)

	user := uuid.New()
	partner := uuid.New()
	roomID := models.DeriveRoomID(user, partner)

	presence.On("TouchActivity", user).Return(nil)
	presence.On("GetPresence", user).Return(chattingPresence(user, roomID), nil)
	presence.On("ResetToOnline", user).Return(nil)

	handleWsEvent(user, models.WsInbound{Event: models.WsEventLeave})

	presence.AssertCalled(t, "ResetToOnline", user)
	waitForQueuedEvent(t, models.EventPartnerDisconnected, partner)
}
