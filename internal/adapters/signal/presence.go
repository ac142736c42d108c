package signal

import (
	"encoding/json"

	"github.com/workhive/workhive/internal/app"
	"github.com/workhive/workhive/internal/core"
	"github.com/workhive/workhive/internal/domain"
)

// handleTyping relays typing indicators to the channel room. Pure room
// events: no storage round trip, membership in the room is the whole check.
func (ctl *Controller) handleTyping(cid core.ConnID, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte, start bool) {
	var p struct {
		ChannelID domain.ChannelID `json:"channelId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	room := core.ChannelRoom(p.ChannelID)
	if !ctl.Set.Contains(room, cid) {
		ctl.nack(c, seq, app.Forbiddenf("not in this channel room"))
		return
	}
	event := "user-typing"
	if !start {
		event = "user-stopped-typing"
	}
	ctl.broadcastRoom(room, cid, struct {
		Type      string           `json:"type"`
		ChannelID domain.ChannelID `json:"channelId"`
		UserID    domain.UserID    `json:"userId"`
	}{event, p.ChannelID, uid})
	ctl.ack(c, seq, nil)
}

// handleUserOnline records a manual status override and announces it.
func (ctl *Controller) handleUserOnline(uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	if p.Status != domain.StatusOnline && p.Status != domain.StatusAway {
		ctl.nack(c, seq, app.Invalidf("status must be online or away"))
		return
	}
	prev := ctl.Registry.SetStatus(uid, p.Status)
	ctl.emit(core.PresenceRoom, struct {
		Type   string        `json:"type"`
		UserID domain.UserID `json:"userId"`
		Status string        `json:"status"`
	}{"user-status-changed", uid, p.Status})
	ctl.ack(c, seq, map[string]any{"previous": prev})
}
