package controllers

import (
	"log"
	"time"

	"github.com/driftchat/drift-backend/app/models"
	"github.com/driftchat/drift-backend/app/queries"
	"github.com/driftchat/drift-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Matchmaker pairs searching users into derived rooms. All claiming goes
// through PresenceStore.ClaimMatch, so two concurrent requesters can never
// take the same candidate.
type Matchmaker struct {
	Presence PresenceStore
	Registry ConnRegistry

	// RecencyWindow rejects searchers whose last activity is too old; it is
	// the only staleness signal the pull path has.
	RecencyWindow time.Duration
	// MaxClaimRetries bounds how many stale candidates one TryMatch call
	// will reconcile before giving up and reporting "still searching".
	MaxClaimRetries int
}

// NewMatchmaker creates a Matchmaker with env-tuned windows.
func NewMatchmaker(p PresenceStore, r ConnRegistry) *Matchmaker {
	return &Matchmaker{
		Presence:        p,
		Registry:        r,
		RecencyWindow:   utils.EnvSeconds("MATCH_RECENCY_SECONDS", 30),
		MaxClaimRetries: 5,
	}
}

// MatchResult is TryMatch's outcome. Matched=false is the ordinary
// "still searching" case, not an error.
type MatchResult struct {
	Matched   bool
	RoomID    string
	PartnerID uuid.UUID
}

// TryMatch finds and claims one partner for the requester. If the requester
// is already chatting with a live partner the existing room is returned with
// no writes. A claimed candidate whose recorded socket is dead is reset to
// offline and the search retries.
func (m *Matchmaker) TryMatch(requesterID uuid.UUID) (MatchResult, error) {
	self, err := m.Presence.GetPresence(requesterID)
	if err != nil {
		return MatchResult{}, err
	}

	if self.Status == models.StatusChatting && self.RoomID != nil {
		roomID := *self.RoomID
		if partnerID, ok := models.RoomPartnerID(roomID, requesterID); ok {
			partner, err := m.Presence.GetPresence(partnerID)
			if err == nil && partner.InRoom(roomID) {
				return MatchResult{Matched: true, RoomID: roomID, PartnerID: partnerID}, nil
			}
		}
		// The partner left or the room id is unparsable; this chat is over.
		if err := m.Presence.SetSearching(requesterID, self.Preference); err != nil {
			return MatchResult{}, err
		}
	} else if self.Status != models.StatusSearching {
		return MatchResult{}, queries.ErrNotSearching
	}

	for attempt := 0; attempt < m.MaxClaimRetries; attempt++ {
		cutoff := time.Now().Add(-m.RecencyWindow)
		candidate, roomID, err := m.Presence.ClaimMatch(requesterID, cutoff)
		if err == queries.ErrNoCandidate {
			return MatchResult{}, nil
		}
		// The requester left the queue mid-claim; the transaction rolled the
		// candidate back, so nobody is half-matched.
		if err == queries.ErrNotSearching {
			return MatchResult{}, nil
		}
		if err != nil {
			return MatchResult{}, err
		}

		// A recorded socket the registry no longer knows means the candidate
		// dropped uncleanly while searching. Undo the claim and keep looking.
		if candidate.SocketID != nil && !m.Registry.IsConnected(candidate.UserID) {
			log.Printf("event=stale_candidate user=%s requester=%s", candidate.UserID, requesterID)
			if err := m.Presence.ForceOffline(candidate.UserID); err != nil {
				return MatchResult{}, err
			}
			if err := m.Presence.SetSearching(requesterID, self.Preference); err != nil {
				return MatchResult{}, err
			}
			continue
		}

		log.Printf("event=match_success room=%s user1=%s user2=%s", roomID, requesterID, candidate.UserID)
		m.notifyMatched(requesterID, candidate.UserID, roomID)
		return MatchResult{Matched: true, RoomID: roomID, PartnerID: candidate.UserID}, nil
	}

	return MatchResult{}, nil
}

// notifyMatched pushes the matched event to both members; each payload names
// the other member.
func (m *Matchmaker) notifyMatched(a, b uuid.UUID, roomID string) {
	PublishEvent(models.RealtimeEvent{
		Event:     models.EventMatched,
		RoomID:    roomID,
		PartnerID: b.String(),
		Targets:   []uuid.UUID{a},
	})
	PublishEvent(models.RealtimeEvent{
		Event:     models.EventMatched,
		RoomID:    roomID,
		PartnerID: a.String(),
		Targets:   []uuid.UUID{b},
	})
}

// JoinQueue moves the caller into the searching state and attempts a match
// right away. Joining clears any stale room assignment.
func JoinQueue(c *fiber.Ctx) error {
	userID, err := authedUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	req := &models.JoinQueueRequest{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	pref := req.Preference
	if pref == "" {
		pref = models.PreferenceBoth
	}

	if err := Presence.EnsurePresence(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update presence"})
	}
	if err := Presence.SetSearching(userID, pref); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update presence"})
	}

	res, err := Matcher.TryMatch(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "matchmaking failed"})
	}
	if !res.Matched {
		return c.Status(fiber.StatusOK).JSON(models.MatchStatusResponse{Status: models.StatusSearching})
	}
	return c.Status(fiber.StatusOK).JSON(models.MatchStatusResponse{
		Status:    models.StatusChatting,
		RoomID:    res.RoomID,
		PartnerID: res.PartnerID,
	})
}

// CheckMatch is the pull-path probe: searching callers retry the match,
// chatting callers get their room back idempotently. Calling it refreshes
// the recency window, which is what keeps a poll-only searcher claimable.
func CheckMatch(c *fiber.Ctx) error {
	userID, err := authedUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	p, err := Presence.GetPresence(userID)
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(models.MatchStatusResponse{Status: models.StatusOffline})
	}
	_ = Presence.TouchActivity(userID)

	if p.Status != models.StatusSearching && p.Status != models.StatusChatting {
		return c.Status(fiber.StatusOK).JSON(models.MatchStatusResponse{Status: p.Status})
	}

	res, err := Matcher.TryMatch(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "matchmaking failed"})
	}
	if !res.Matched {
		return c.Status(fiber.StatusOK).JSON(models.MatchStatusResponse{Status: models.StatusSearching})
	}
	return c.Status(fiber.StatusOK).JSON(models.MatchStatusResponse{
		Status:    models.StatusChatting,
		RoomID:    res.RoomID,
		PartnerID: res.PartnerID,
	})
}
