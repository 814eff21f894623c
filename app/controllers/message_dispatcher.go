package controllers

import (
	"log"
	"sync"

	"github.com/driftchat/drift-backend/app/models"
)

var eventChan = make(chan models.RealtimeEvent, 100)

var dispatcherOnce sync.Once

// PublishEvent queues a realtime event for push-path fan-out. The enqueue is
// synchronous so events from one caller reach the queue in publish order; a
// full queue drops the event instead of blocking the caller, and the pull
// path resurfaces the same state on the next poll.
func PublishEvent(ev models.RealtimeEvent) {
	select {
	case eventChan <- ev:
	default:
		log.Printf("event=publish_drop type=%s room=%s", ev.Event, ev.RoomID)
	}
}

// StartMessageDispatcher runs the single fan-out goroutine.
func StartMessageDispatcher() {
	dispatcherOnce.Do(func() {
		go func() {
			for ev := range eventChan {
				dispatchEvent(ev)
			}
		}()
	})
}

// dispatchEvent delivers one event. Events without explicit targets go to
// both members of the room named in the event; a member without a live
// connection is skipped, since the pull path surfaces the same state on its
// next poll.
func dispatchEvent(ev models.RealtimeEvent) {
	targets := ev.Targets
	if len(targets) == 0 && ev.RoomID != "" {
		members, ok := models.RoomMemberIDs(ev.RoomID)
		if !ok {
			log.Printf("event=dispatch_skip reason=bad_room room=%s", ev.RoomID)
			return
		}
		targets = members
	}
	for _, uid := range targets {
		if err := Registry.Send(uid, ev); err != nil {
			log.Printf("event=dispatch_skip user=%s type=%s reason=%v", uid, ev.Event, err)
		}
	}
}
