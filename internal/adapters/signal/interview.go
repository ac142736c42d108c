package signal

import (
	"context"
	"encoding/json"

	"github.com/workhive/workhive/internal/app"
	"github.com/workhive/workhive/internal/core"
	"github.com/workhive/workhive/internal/domain"
)

type interviewRef struct {
	WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	RoomID      string             `json:"roomId"`
}

func (ctl *Controller) handleInterviewJoin(ctx context.Context, cid core.ConnID, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p interviewRef
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	name, initiator, rejoined, err := ctl.Interviews.Join(ctx, cid, c, uid, p.WorkspaceID, p.RoomID)
	if err != nil {
		ctl.nack(c, seq, err)
		return
	}
	// A rejoin changes nothing the other occupant needs to hear about.
	if !rejoined {
		ctl.broadcastRoom(name, cid, struct {
			Type string `json:"type"`
			interviewRef
			UserID domain.UserID `json:"userId"`
		}{"interview-participant-joined", p, uid})
	}
	ctl.ack(c, seq, map[string]any{"initiator": initiator})
}

func (ctl *Controller) handleInterviewLeave(cid core.ConnID, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p interviewRef
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	name, left := ctl.Interviews.Leave(cid, p.WorkspaceID, p.RoomID)
	// Only a real departure is announced; a connection that never occupied
	// the room must not be able to fabricate one for the occupants.
	if left {
		ctl.emit(name, struct {
			Type string `json:"type"`
			interviewRef
			UserID domain.UserID `json:"userId"`
		}{"interview-participant-left", p, uid})
	}
	ctl.ack(c, seq, nil)
}

func (ctl *Controller) handleInterviewSignal(cid core.ConnID, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		interviewRef
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	name, err := ctl.Interviews.Room(cid, p.WorkspaceID, p.RoomID)
	if err != nil {
		ctl.nack(c, seq, err)
		return
	}
	ctl.broadcastRoom(name, cid, struct {
		Type string `json:"type"`
		interviewRef
		FromUserID domain.UserID   `json:"fromUserId"`
		Data       json.RawMessage `json:"data"`
	}{"interview-signal", p.interviewRef, uid, p.Data})
	ctl.ack(c, seq, nil)
}
