package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/workhive/workhive/internal/core"
	"github.com/workhive/workhive/internal/domain"
)

// Registry maps live connections to authenticated users and tracks how many
// connections each user has open. Presence is derived from those counts:
// the 0→1 transition is the only "online" edge and the 1→0 transition the
// only "offline" edge, however many tabs the user opens in between.
type Registry struct {
	mu     sync.RWMutex
	conns  map[core.ConnID]domain.UserID
	counts map[domain.UserID]int
	status map[domain.UserID]string
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[core.ConnID]domain.UserID),
		counts: make(map[domain.UserID]int),
		status: make(map[domain.UserID]string),
	}
}

// Bind tags an authenticated connection with its user. It reports whether
// this is the user's first open connection (the presence "online" edge).
func (r *Registry) Bind(cid core.ConnID, uid domain.UserID) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[cid] = uid
	r.counts[uid]++
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("user", string(uid)).Int("open", r.counts[uid]).Msg("bound connection")
	return r.counts[uid] == 1
}

// Unbind removes the connection. It reports the owning user and whether this
// was the user's last open connection (the presence "offline" edge).
func (r *Registry) Unbind(cid core.ConnID) (uid domain.UserID, last bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid, ok = r.conns[cid]
	if !ok {
		return "", false, false
	}
	delete(r.conns, cid)
	r.counts[uid]--
	if r.counts[uid] <= 0 {
		delete(r.counts, uid)
		delete(r.status, uid)
		last = true
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("user", string(uid)).Bool("last", last).Msg("unbound connection")
	return uid, last, true
}

// UserOf resolves the authenticated user of a connection.
func (r *Registry) UserOf(cid core.ConnID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uid, ok := r.conns[cid]
	return uid, ok
}

// OpenConns returns the user's current open-connection count.
func (r *Registry) OpenConns(uid domain.UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counts[uid]
}

// SetStatus records a manual presence override ("online"/"away") for a user
// with at least one open connection and returns the previous effective
// status.
func (r *Registry) SetStatus(uid domain.UserID, status string) (prev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev = r.statusLocked(uid)
	if r.counts[uid] > 0 {
		r.status[uid] = status
	}
	return prev
}

// Status derives the user's effective presence status.
func (r *Registry) Status(uid domain.UserID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statusLocked(uid)
}

func (r *Registry) statusLocked(uid domain.UserID) string {
	if r.counts[uid] == 0 {
		return domain.StatusOffline
	}
	if s, ok := r.status[uid]; ok {
		return s
	}
	return domain.StatusOnline
}
