package domain

import "time"

type CallID string

type CallKind string

const (
	CallVoice CallKind = "voice"
	CallVideo CallKind = "video"
)

func (k CallKind) Valid() bool { return k == CallVoice || k == CallVideo }

// CallSession is ephemeral coordinator state, never persisted. Its lifecycle
// is driven entirely by client events (start/accept/reject/end) plus the
// optional idle reaper.
type CallSession struct {
	ID           CallID    `json:"callId"`
	DMID         DMID      `json:"dmId"`
	Kind         CallKind  `json:"type"`
	FromUserID   UserID    `json:"fromUserId"`
	ToUserID     UserID    `json:"toUserId"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"-"`
}

// IsParty reports whether uid is the caller or the callee.
func (s *CallSession) IsParty(uid UserID) bool {
	return uid == s.FromUserID || uid == s.ToUserID
}

// Peer returns the other party of the call relative to uid.
func (s *CallSession) Peer(uid UserID) UserID {
	if uid == s.FromUserID {
		return s.ToUserID
	}
	return s.FromUserID
}
