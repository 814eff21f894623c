package controllers

import (
	"encoding/json"
	"log"

	"github.com/driftchat/drift-backend/app/models"
	"github.com/driftchat/drift-backend/pkg/utils"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// WsHandler is the push path. The handshake authenticates the token from the
// query string and binds the connection to the user's presence; unauthorized
// connections are rejected. Each inbound frame is handled in its own
// goroutine so presence I/O never blocks the read loop.
func WsHandler(c *websocket.Conn) {
	token := c.Query("token")
	userID := uuid.Nil
	if token != "" {
		head := "Bearer " + token
		userID, _ = utils.ExtractUserIDFromHeader(head)
	}
	if userID == uuid.Nil {
		msg, _ := json.Marshal(map[string]string{"event": "error", "error": "invalid token"})
		_ = c.WriteMessage(websocket.TextMessage, msg)
		_ = c.Close()
		return
	}

	socketID := uuid.New().String()
	utils.DefaultNotifier.Register(userID, c)
	if err := Presence.EnsurePresence(userID); err != nil {
		log.Printf("event=ws_bind_error user=%s error=%v", userID, err)
	}
	if err := Presence.BindSocket(userID, socketID); err != nil {
		log.Printf("event=ws_bind_error user=%s error=%v", userID, err)
	}
	log.Printf("event=ws_connected user=%s socket=%s", userID, socketID)

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			break
		}

		var payload models.WsInbound
		if err := json.Unmarshal(msg, &payload); err != nil {
			// non-JSON frames are ignored
			continue
		}
		go handleWsEvent(userID, payload)
	}

	utils.DefaultNotifier.Unregister(userID, c)
	cleared, err := Presence.ClearSocket(userID, socketID)
	if err != nil {
		log.Printf("event=ws_unbind_error user=%s error=%v", userID, err)
	}
	// A newer connection for this user may already own the presence row; only
	// the connection that still holds the socket ref runs disconnect cleanup.
	if cleared {
		endSession(userID, models.StatusOffline)
	}
	log.Printf("event=ws_disconnected user=%s socket=%s", userID, socketID)
}

// handleWsEvent runs one inbound live-channel event as an independent unit
// of work.
func handleWsEvent(userID uuid.UUID, ev models.WsInbound) {
	_ = Presence.TouchActivity(userID)

	switch ev.Event {
	case models.WsEventSearch:
		pref := ev.Preference
		if pref == "" {
			pref = models.PreferenceBoth
		}
		if err := Presence.SetSearching(userID, pref); err != nil {
			log.Printf("event=ws_search_error user=%s error=%v", userID, err)
			return
		}
		// The matched event reaches both members through the dispatcher.
		if _, err := Matcher.TryMatch(userID); err != nil {
			log.Printf("event=ws_match_error user=%s error=%v", userID, err)
		}

	case models.WsEventTyping, models.WsEventTypingStop:
		typing := ev.Event == models.WsEventTyping
		if err := Presence.TouchTyping(userID, typing); err != nil {
			log.Printf("event=ws_typing_error user=%s error=%v", userID, err)
			return
		}
		notifyPartnerTyping(userID, typing)

	case models.WsEventLeave:
		endSession(userID, models.StatusOnline)
	}
}
