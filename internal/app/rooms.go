package app

import (
	"context"

	"github.com/workhive/workhive/internal/core"
	"github.com/workhive/workhive/internal/domain"
)

// Rooms is the room membership manager: every workspace/channel room join is
// authorized by the guard before the membership mutation, leaves are
// unconditional. All operations are idempotent.
type Rooms struct {
	Guard *Guard
	Set   *core.RoomSet
}

// JoinWorkspace admits the connection to the workspace room.
func (r *Rooms) JoinWorkspace(ctx context.Context, cid core.ConnID, conn core.SignalConnection, uid domain.UserID, id domain.WorkspaceID) error {
	if _, err := r.Guard.WorkspaceMember(ctx, uid, id); err != nil {
		return err
	}
	r.Set.Join(core.WorkspaceRoom(id), cid, conn)
	return nil
}

// LeaveWorkspace removes the connection from the workspace room. Leaving a
// room requires no re-authorization.
func (r *Rooms) LeaveWorkspace(cid core.ConnID, id domain.WorkspaceID) {
	r.Set.Leave(core.WorkspaceRoom(id), cid)
}

// JoinChannel admits the connection to the channel room, lazily repairing a
// missing public-channel membership (see Guard.ChannelMember).
func (r *Rooms) JoinChannel(ctx context.Context, cid core.ConnID, conn core.SignalConnection, uid domain.UserID, id domain.ChannelID) (repaired bool, err error) {
	_, repaired, err = r.Guard.ChannelMember(ctx, uid, id)
	if err != nil {
		return false, err
	}
	r.Set.Join(core.ChannelRoom(id), cid, conn)
	return repaired, nil
}

// LeaveChannel removes the connection from the channel room.
func (r *Rooms) LeaveChannel(cid core.ConnID, id domain.ChannelID) {
	r.Set.Leave(core.ChannelRoom(id), cid)
}
