package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/workhive/workhive/internal/app"
	"github.com/workhive/workhive/internal/core"
	"github.com/workhive/workhive/internal/domain"
)

func (ctl *Controller) handleJoinWorkspace(ctx context.Context, cid core.ConnID, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	if err := ctl.Rooms.JoinWorkspace(ctx, cid, c, uid, p.WorkspaceID); err != nil {
		ctl.nack(c, seq, err)
		return
	}
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("workspace", string(p.WorkspaceID)).Msg("joined workspace room")
	ctl.ack(c, seq, nil)
}

func (ctl *Controller) handleLeaveWorkspace(cid core.ConnID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		WorkspaceID domain.WorkspaceID `json:"workspaceId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	ctl.Rooms.LeaveWorkspace(cid, p.WorkspaceID)
	ctl.ack(c, seq, nil)
}

func (ctl *Controller) handleJoinChannel(ctx context.Context, cid core.ConnID, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		ChannelID domain.ChannelID `json:"channelId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	repaired, err := ctl.Rooms.JoinChannel(ctx, cid, c, uid, p.ChannelID)
	if err != nil {
		ctl.nack(c, seq, err)
		return
	}
	ctl.ack(c, seq, map[string]any{"repaired": repaired})
}

func (ctl *Controller) handleLeaveChannel(cid core.ConnID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		ChannelID domain.ChannelID `json:"channelId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	ctl.Rooms.LeaveChannel(cid, p.ChannelID)
	ctl.ack(c, seq, nil)
}
