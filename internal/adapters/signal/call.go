package signal

import (
	"context"
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/workhive/workhive/internal/app"
	"github.com/workhive/workhive/internal/core"
	"github.com/workhive/workhive/internal/domain"
)

// iceServers builds the RTC dial config handed to call parties. The
// coordinator never touches media itself; clients open their own peer
// connection with these servers and exchange SDP/candidates through
// call-signal relays.
func (ctl *Controller) iceServers() []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(ctl.Cfg.ICEServers))
	for _, u := range ctl.Cfg.ICEServers {
		out = append(out, webrtc.ICEServer{URLs: []string{u}})
	}
	return out
}

func (ctl *Controller) handleCallStart(ctx context.Context, cid core.ConnID, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	// The call kind rides as "callType": the envelope already claims "type"
	// for the intent name.
	var p struct {
		CallID   domain.CallID   `json:"callId"`
		DMID     domain.DMID     `json:"dmId"`
		Kind     domain.CallKind `json:"callType"`
		ToUserID domain.UserID   `json:"toUserId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	sess, err := ctl.Calls.Start(ctx, uid, p.CallID, p.DMID, p.Kind, p.ToUserID)
	if err != nil {
		ctl.nack(c, seq, err)
		return
	}

	// The caller waits in the relay room; the callee joins on accept or on
	// its first call-signal.
	ctl.Set.Join(core.CallRoom(sess.ID), cid, c)

	// The session DTO keeps its own "type" field (voice|video) nested under
	// "call" so it cannot collide with the event name.
	incoming := struct {
		Type string              `json:"type"`
		Call *domain.CallSession `json:"call"`
	}{"call-incoming", sess}
	ctl.emit(core.UserRoom(sess.FromUserID), incoming)
	ctl.emit(core.UserRoom(sess.ToUserID), incoming)

	ctl.ack(c, seq, map[string]any{"iceServers": ctl.iceServers()})
}

func (ctl *Controller) handleCallAccept(cid core.ConnID, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		CallID domain.CallID `json:"callId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	sess, err := ctl.Calls.Party(uid, p.CallID)
	if err != nil {
		ctl.nack(c, seq, err)
		return
	}
	ctl.Calls.Touch(sess.ID)
	ctl.Set.Join(core.CallRoom(sess.ID), cid, c)

	accepted := struct {
		Type   string        `json:"type"`
		CallID domain.CallID `json:"callId"`
		UserID domain.UserID `json:"userId"`
	}{"call-accepted", sess.ID, uid}
	ctl.emit(core.UserRoom(sess.FromUserID), accepted)
	ctl.emit(core.UserRoom(sess.ToUserID), accepted)

	ctl.ack(c, seq, map[string]any{"iceServers": ctl.iceServers()})
}

// handleCallTerminate covers call-reject and call-end: both discard the
// session identically, only the broadcast event name differs.
func (ctl *Controller) handleCallTerminate(uid domain.UserID, c core.SignalConnection, seq uint64, data []byte, event string) {
	var p struct {
		CallID domain.CallID `json:"callId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	sess, err := ctl.Calls.End(uid, p.CallID)
	if err != nil {
		ctl.nack(c, seq, err)
		return
	}
	ctl.terminateCall(sess, uid, event)
	ctl.ack(c, seq, nil)
}

// terminateCall notifies both inbox rooms plus the relay room and clears
// the relay room's membership. Also used by the idle reaper.
func (ctl *Controller) terminateCall(sess *domain.CallSession, by domain.UserID, event string) {
	ended := struct {
		Type   string        `json:"type"`
		CallID domain.CallID `json:"callId"`
		UserID domain.UserID `json:"userId,omitempty"`
	}{event, sess.ID, by}
	room := core.CallRoom(sess.ID)
	ctl.emit(core.UserRoom(sess.FromUserID), ended)
	ctl.emit(core.UserRoom(sess.ToUserID), ended)
	ctl.emit(room, ended)
	for _, cid := range ctl.Set.Members(room) {
		ctl.Set.Leave(room, cid)
	}
}

// ExpireCall is the reaper callback for sessions that never saw an end event.
func (ctl *Controller) ExpireCall(sess *domain.CallSession) {
	ctl.terminateCall(sess, "", "call-ended")
}

func (ctl *Controller) handleCallSignal(cid core.ConnID, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		CallID domain.CallID   `json:"callId"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	sess, err := ctl.Calls.Party(uid, p.CallID)
	if err != nil {
		ctl.nack(c, seq, err)
		return
	}
	ctl.Calls.Touch(sess.ID)

	// Lazy join lets either party signal without a strict
	// accept-before-signal ordering.
	room := core.CallRoom(sess.ID)
	ctl.Set.Join(room, cid, c)

	ctl.broadcastRoom(room, cid, struct {
		Type       string          `json:"type"`
		CallID     domain.CallID   `json:"callId"`
		FromUserID domain.UserID   `json:"fromUserId"`
		Data       json.RawMessage `json:"data"`
	}{"call-signal", sess.ID, uid, p.Data})
	ctl.ack(c, seq, nil)
}
