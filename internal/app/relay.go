package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/workhive/workhive/internal/domain"
)

// Relay validates message mutations, persists them through the storage
// collaborator and hands the result back for fan-out. Persistence always
// happens before any broadcast; a storage failure simply fails the intent
// (no rollback of memberships already granted, the client retries).
type Relay struct {
	Guard *Guard
	Store Store
}

type CreateMessageInput struct {
	ChannelID    domain.ChannelID
	Text         string
	Attachments  []domain.Attachment
	ThreadRootID domain.MessageID
}

// CreateMessage authorizes, validates and persists a new message. The
// returned channel tells the adapter which rooms to fan out to.
func (r *Relay) CreateMessage(ctx context.Context, uid domain.UserID, in CreateMessageInput) (*domain.Message, *domain.Channel, error) {
	ch, _, err := r.Guard.ChannelMember(ctx, uid, in.ChannelID)
	if err != nil {
		return nil, nil, err
	}
	if ch.Posting == domain.PostingAdminsOnly && ch.CreatedBy != uid {
		ws, err := r.Guard.WorkspaceMember(ctx, uid, ch.WorkspaceID)
		if err != nil {
			return nil, nil, err
		}
		if !ws.IsAdmin(uid) {
			return nil, nil, Forbiddenf("only admins can post in this channel")
		}
	}
	if strings.TrimSpace(in.Text) == "" && len(in.Attachments) == 0 {
		return nil, nil, Invalidf("message cannot be empty")
	}
	if in.ThreadRootID != "" {
		if err := r.checkThreadRoot(ctx, in.ThreadRootID, in.ChannelID); err != nil {
			return nil, nil, err
		}
	}
	msg := &domain.Message{
		ID:           domain.MessageID(uuid.NewString()),
		ChannelID:    in.ChannelID,
		SenderID:     uid,
		Text:         in.Text,
		Attachments:  in.Attachments,
		ThreadRootID: in.ThreadRootID,
		ReadBy:       []domain.UserID{uid},
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.Store.InsertMessage(ctx, msg); err != nil {
		return nil, nil, err
	}
	log.Info().Str("module", "app.relay").Str("message", string(msg.ID)).Str("channel", string(in.ChannelID)).Str("sender", string(uid)).Msg("message created")
	return msg, ch, nil
}

func (r *Relay) checkThreadRoot(ctx context.Context, root domain.MessageID, ch domain.ChannelID) error {
	m, err := r.Store.Message(ctx, root)
	if errors.Is(err, ErrNotFound) {
		return NotFoundf("thread root message not found")
	}
	if err != nil {
		return err
	}
	if m.IsReply() {
		return Invalidf("cannot reply to a thread reply")
	}
	if m.ChannelID != ch {
		return Invalidf("thread root belongs to a different channel")
	}
	return nil
}

// EditMessage replaces the text of the caller's own message.
func (r *Relay) EditMessage(ctx context.Context, uid domain.UserID, id domain.MessageID, text string) (*domain.Message, error) {
	msg, err := r.ownMessage(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, Invalidf("message cannot be empty")
	}
	now := time.Now().UTC()
	if err := r.Store.UpdateMessageText(ctx, id, text, now); err != nil {
		return nil, err
	}
	msg.Text = text
	msg.EditedAt = &now
	return msg, nil
}

// DeleteMessage removes the caller's own message. A root message takes its
// whole thread with it; the returned ids are in broadcast order, replies
// first and the root last.
func (r *Relay) DeleteMessage(ctx context.Context, uid domain.UserID, id domain.MessageID) ([]domain.MessageID, domain.ChannelID, error) {
	msg, err := r.ownMessage(ctx, uid, id)
	if err != nil {
		return nil, "", err
	}
	var deleted []domain.MessageID
	if !msg.IsReply() {
		replies, err := r.Store.ThreadReplies(ctx, id)
		if err != nil {
			return nil, "", err
		}
		for _, rep := range replies {
			if err := r.Store.DeleteMessage(ctx, rep.ID); err != nil {
				return nil, "", err
			}
			deleted = append(deleted, rep.ID)
		}
	}
	if err := r.Store.DeleteMessage(ctx, id); err != nil {
		return nil, "", err
	}
	deleted = append(deleted, id)
	log.Info().Str("module", "app.relay").Str("message", string(id)).Int("cascade", len(deleted)).Msg("message deleted")
	return deleted, msg.ChannelID, nil
}

// ReactMessage records a reaction; any channel member may react.
func (r *Relay) ReactMessage(ctx context.Context, uid domain.UserID, id domain.MessageID, emoji string) (domain.ChannelID, error) {
	if emoji == "" {
		return "", Invalidf("emoji is required")
	}
	msg, err := r.memberMessage(ctx, uid, id)
	if err != nil {
		return "", err
	}
	if err := r.Store.AddReaction(ctx, id, uid, emoji); err != nil {
		return "", err
	}
	return msg.ChannelID, nil
}

// ReadMessage records a read receipt; any channel member may read.
func (r *Relay) ReadMessage(ctx context.Context, uid domain.UserID, id domain.MessageID) (domain.ChannelID, error) {
	msg, err := r.memberMessage(ctx, uid, id)
	if err != nil {
		return "", err
	}
	if err := r.Store.MarkRead(ctx, id, uid); err != nil {
		return "", err
	}
	return msg.ChannelID, nil
}

// PinMessage sets the channel-scope pinned flag; any channel member may pin
// or unpin.
func (r *Relay) PinMessage(ctx context.Context, uid domain.UserID, id domain.MessageID, pinned bool) (domain.ChannelID, error) {
	msg, err := r.memberMessage(ctx, uid, id)
	if err != nil {
		return "", err
	}
	if err := r.Store.SetPinned(ctx, id, pinned); err != nil {
		return "", err
	}
	return msg.ChannelID, nil
}

// ownMessage fetches the message and requires the caller to be both a
// channel member and the original sender.
func (r *Relay) ownMessage(ctx context.Context, uid domain.UserID, id domain.MessageID) (*domain.Message, error) {
	msg, err := r.memberMessage(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != uid {
		return nil, Forbiddenf("only the sender can modify this message")
	}
	return msg, nil
}

// memberMessage fetches the message and requires channel membership.
func (r *Relay) memberMessage(ctx context.Context, uid domain.UserID, id domain.MessageID) (*domain.Message, error) {
	if id == "" {
		return nil, Invalidf("message id is required")
	}
	msg, err := r.Store.Message(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, NotFoundf("message not found")
	}
	if err != nil {
		return nil, err
	}
	if _, _, err := r.Guard.ChannelMember(ctx, uid, msg.ChannelID); err != nil {
		return nil, err
	}
	return msg, nil
}
