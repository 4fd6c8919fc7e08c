package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"signoff/contexts/editorial-workflow/signoff-service/domain/entities"
	"signoff/contexts/editorial-workflow/signoff-service/ports"
)

const defaultTickLength = 12 * time.Hour

// Service issues the per-action anti-replay tokens embedded in the readiness
// view. A token is an HMAC over (action, item, actor, tick); it stays valid
// for the issuing tick plus one grace tick, so a token survives at most two
// tick lengths. No server-side token state is kept.
type Service struct {
	Secret     []byte
	Clock      ports.Clock
	TickLength time.Duration
}

func (s Service) Issue(action string, itemID string, actorID entities.ModeratorID) string {
	return s.tokenForTick(action, itemID, actorID, s.currentTick())
}

func (s Service) Validate(token string, action string, itemID string, actorID entities.ModeratorID) bool {
	if token == "" || len(s.Secret) == 0 {
		return false
	}
	tick := s.currentTick()
	for _, candidate := range []int64{tick, tick - 1} {
		expected := s.tokenForTick(action, itemID, actorID, candidate)
		if hmac.Equal([]byte(token), []byte(expected)) {
			return true
		}
	}
	return false
}

func (s Service) tokenForTick(action string, itemID string, actorID entities.ModeratorID, tick int64) string {
	mac := hmac.New(sha256.New, s.Secret)
	fmt.Fprintf(mac, "%s|%s|%d|%d", action, itemID, int64(actorID), tick)
	return hex.EncodeToString(mac.Sum(nil))[:20]
}

func (s Service) currentTick() int64 {
	tickLength := s.TickLength
	if tickLength <= 0 {
		tickLength = defaultTickLength
	}
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}
	return now.Unix() / int64(tickLength/time.Second)
}

var _ ports.TokenService = Service{}
