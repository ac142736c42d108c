package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/workhive/workhive/internal/domain"
)

// Guard answers "is user X allowed in room Y" against the persistence
// collaborator. Every room join and message mutation goes through it first.
type Guard struct {
	Store Store
}

// WorkspaceMember authorizes uid against the workspace member list.
func (g *Guard) WorkspaceMember(ctx context.Context, uid domain.UserID, id domain.WorkspaceID) (*domain.Workspace, error) {
	if id == "" {
		return nil, Invalidf("workspace id is required")
	}
	ws, err := g.Store.Workspace(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, NotFoundf("workspace not found")
	}
	if err != nil {
		return nil, err
	}
	if !ws.HasMember(uid) {
		return nil, Forbiddenf("not a member of this workspace")
	}
	return ws, nil
}

// ChannelMember authorizes uid against a channel. Private channels require
// explicit membership. Public channels only require workspace membership;
// a missing channel membership is repaired in place (the user is appended to
// the member list) and the repair is reported so callers can observe it.
func (g *Guard) ChannelMember(ctx context.Context, uid domain.UserID, id domain.ChannelID) (ch *domain.Channel, repaired bool, err error) {
	if id == "" {
		return nil, false, Invalidf("channel id is required")
	}
	ch, err = g.Store.Channel(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, false, NotFoundf("channel not found")
	}
	if err != nil {
		return nil, false, err
	}
	if ch.HasMember(uid) {
		return ch, false, nil
	}
	if ch.Private {
		return nil, false, Forbiddenf("not a member of this channel")
	}
	if _, err := g.WorkspaceMember(ctx, uid, ch.WorkspaceID); err != nil {
		return nil, false, err
	}
	if err := g.Store.AddChannelMember(ctx, id, uid); err != nil {
		return nil, false, err
	}
	ch.Members = append(ch.Members, uid)
	log.Info().Str("module", "app.guard").Str("channel", string(id)).Str("user", string(uid)).Msg("repaired public channel membership")
	return ch, true, nil
}

// DMParticipant authorizes uid against a direct conversation.
func (g *Guard) DMParticipant(ctx context.Context, uid domain.UserID, id domain.DMID) (*domain.DirectConversation, error) {
	if id == "" {
		return nil, Invalidf("conversation id is required")
	}
	dm, err := g.Store.DirectConversation(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, NotFoundf("conversation not found")
	}
	if err != nil {
		return nil, err
	}
	if !dm.HasParticipant(uid) {
		return nil, Forbiddenf("not a participant of this conversation")
	}
	return dm, nil
}
