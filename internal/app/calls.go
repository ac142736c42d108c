package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/workhive/workhive/internal/domain"
)

// Calls holds every active call negotiation. Sessions are created by
// call-start, discarded by reject/end, and optionally reaped when idle for
// longer than the configured TTL (a zero TTL disables the reaper, matching
// the historical behavior of relying on client end events alone).
type Calls struct {
	Guard *Guard

	mu       sync.RWMutex
	sessions map[domain.CallID]*domain.CallSession
}

func NewCalls(guard *Guard) *Calls {
	return &Calls{
		Guard:    guard,
		sessions: make(map[domain.CallID]*domain.CallSession),
	}
}

// Start creates a session after checking both parties against the same
// direct conversation. A callId that collides with a live session silently
// overwrites it; the previous negotiation is simply forgotten.
func (c *Calls) Start(ctx context.Context, uid domain.UserID, callID domain.CallID, dmID domain.DMID, kind domain.CallKind, to domain.UserID) (*domain.CallSession, error) {
	if callID == "" {
		return nil, Invalidf("call id is required")
	}
	if !kind.Valid() {
		return nil, Invalidf("call type must be voice or video")
	}
	if to == "" || to == uid {
		return nil, Invalidf("invalid callee")
	}
	if _, err := c.Guard.DMParticipant(ctx, uid, dmID); err != nil {
		return nil, err
	}
	if _, err := c.Guard.DMParticipant(ctx, to, dmID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.CallSession{
		ID:           callID,
		DMID:         dmID,
		Kind:         kind,
		FromUserID:   uid,
		ToUserID:     to,
		CreatedAt:    now,
		LastActivity: now,
	}
	c.mu.Lock()
	if _, exists := c.sessions[callID]; exists {
		log.Warn().Str("module", "app.calls").Str("call", string(callID)).Msg("call id collision, overwriting session")
	}
	c.sessions[callID] = sess
	c.mu.Unlock()
	log.Info().Str("module", "app.calls").Str("call", string(callID)).Str("from", string(uid)).Str("to", string(to)).Str("kind", string(kind)).Msg("call started")
	return sess, nil
}

// Party fetches the session and requires uid to be the caller or callee.
// Handlers re-fetch through here after every suspension point instead of
// holding a session across one.
func (c *Calls) Party(uid domain.UserID, callID domain.CallID) (*domain.CallSession, error) {
	c.mu.RLock()
	sess, ok := c.sessions[callID]
	c.mu.RUnlock()
	if !ok {
		return nil, NotFoundf("call not found")
	}
	if !sess.IsParty(uid) {
		return nil, Forbiddenf("not a participant of this call")
	}
	return sess, nil
}

// Touch refreshes the session's idle clock.
func (c *Calls) Touch(callID domain.CallID) {
	c.mu.Lock()
	if sess, ok := c.sessions[callID]; ok {
		sess.LastActivity = time.Now().UTC()
	}
	c.mu.Unlock()
}

// End removes the session. Reject and explicit end both land here; they only
// differ in the event name the adapter broadcasts.
func (c *Calls) End(uid domain.UserID, callID domain.CallID) (*domain.CallSession, error) {
	sess, err := c.Party(uid, callID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	delete(c.sessions, callID)
	c.mu.Unlock()
	log.Info().Str("module", "app.calls").Str("call", string(callID)).Str("by", string(uid)).Msg("call ended")
	return sess, nil
}

// Reap runs the idle reaper until ctx is done. Sessions with no activity for
// ttl are removed and reported through expire so the adapter can broadcast
// call-ended to whoever is still around.
func (c *Calls) Reap(ctx context.Context, ttl time.Duration, expire func(*domain.CallSession)) {
	if ttl <= 0 {
		return
	}
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, sess := range c.expireIdle(ttl) {
				log.Info().Str("module", "app.calls").Str("call", string(sess.ID)).Msg("reaped idle call session")
				expire(sess)
			}
		}
	}
}

func (c *Calls) expireIdle(ttl time.Duration) []*domain.CallSession {
	cutoff := time.Now().UTC().Add(-ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*domain.CallSession
	for id, sess := range c.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(c.sessions, id)
			out = append(out, sess)
		}
	}
	return out
}
