package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/workhive/workhive/internal/app"
	"github.com/workhive/workhive/internal/core"
	"github.com/workhive/workhive/internal/domain"
)

func (ctl *Controller) handleSendMessage(ctx context.Context, cid core.ConnID, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		ChannelID domain.ChannelID `json:"channelId"`
		Message   struct {
			Text         string              `json:"text"`
			Attachments  []domain.Attachment `json:"attachments"`
			ThreadRootID domain.MessageID    `json:"threadRootId"`
		} `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	msg, ch, err := ctl.Relay.CreateMessage(ctx, uid, app.CreateMessageInput{
		ChannelID:    p.ChannelID,
		Text:         p.Message.Text,
		Attachments:  p.Message.Attachments,
		ThreadRootID: p.Message.ThreadRootID,
	})
	if err != nil {
		ctl.nack(c, seq, err)
		return
	}

	// Successful relay authorization implies channel room membership.
	ctl.Set.Join(core.ChannelRoom(ch.ID), cid, c)

	event := struct {
		Type    string          `json:"type"`
		Message *domain.Message `json:"message"`
	}{"receive-message", msg}
	ctl.emit(core.ChannelRoom(ch.ID), event)
	ctl.emit(core.WorkspaceRoom(ch.WorkspaceID), event)

	ctl.ack(c, seq, map[string]any{"message": msg})
}

func (ctl *Controller) handleEditMessage(ctx context.Context, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		MessageID domain.MessageID `json:"messageId"`
		Text      string           `json:"text"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	msg, err := ctl.Relay.EditMessage(ctx, uid, p.MessageID, p.Text)
	if err != nil {
		ctl.nack(c, seq, err)
		return
	}
	ctl.emit(core.ChannelRoom(msg.ChannelID), struct {
		Type      string           `json:"type"`
		MessageID domain.MessageID `json:"messageId"`
		Text      string           `json:"text"`
		EditedAt  *time.Time       `json:"editedAt"`
	}{"message-edited", msg.ID, msg.Text, msg.EditedAt})
	ctl.ack(c, seq, nil)
}

func (ctl *Controller) handleDeleteMessage(ctx context.Context, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		MessageID domain.MessageID `json:"messageId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	deleted, chID, err := ctl.Relay.DeleteMessage(ctx, uid, p.MessageID)
	if err != nil {
		ctl.nack(c, seq, err)
		return
	}
	// One broadcast per deleted message, thread replies included.
	for _, id := range deleted {
		ctl.emit(core.ChannelRoom(chID), struct {
			Type      string           `json:"type"`
			MessageID domain.MessageID `json:"messageId"`
		}{"message-deleted", id})
	}
	ctl.ack(c, seq, map[string]any{"deleted": len(deleted)})
}

func (ctl *Controller) handleReactMessage(ctx context.Context, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		MessageID domain.MessageID `json:"messageId"`
		Emoji     string           `json:"emoji"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	chID, err := ctl.Relay.ReactMessage(ctx, uid, p.MessageID, p.Emoji)
	if err != nil {
		ctl.nack(c, seq, err)
		return
	}
	ctl.emit(core.ChannelRoom(chID), struct {
		Type      string           `json:"type"`
		MessageID domain.MessageID `json:"messageId"`
		UserID    domain.UserID    `json:"userId"`
		Emoji     string           `json:"emoji"`
	}{"message-reaction", p.MessageID, uid, p.Emoji})
	ctl.ack(c, seq, nil)
}

func (ctl *Controller) handleReadMessage(ctx context.Context, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		MessageID domain.MessageID `json:"messageId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	chID, err := ctl.Relay.ReadMessage(ctx, uid, p.MessageID)
	if err != nil {
		ctl.nack(c, seq, err)
		return
	}
	ctl.emit(core.ChannelRoom(chID), struct {
		Type      string           `json:"type"`
		MessageID domain.MessageID `json:"messageId"`
		UserID    domain.UserID    `json:"userId"`
	}{"message-read", p.MessageID, uid})
	ctl.ack(c, seq, nil)
}

func (ctl *Controller) handlePinMessage(ctx context.Context, uid domain.UserID, c core.SignalConnection, seq uint64, data []byte) {
	var p struct {
		MessageID domain.MessageID `json:"messageId"`
		Pinned    *bool            `json:"pinned"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.nack(c, seq, app.Invalidf("bad payload"))
		return
	}
	pinned := true
	if p.Pinned != nil {
		pinned = *p.Pinned
	}
	chID, err := ctl.Relay.PinMessage(ctx, uid, p.MessageID, pinned)
	if err != nil {
		ctl.nack(c, seq, err)
		return
	}
	ctl.emit(core.ChannelRoom(chID), struct {
		Type      string           `json:"type"`
		MessageID domain.MessageID `json:"messageId"`
		UserID    domain.UserID    `json:"userId"`
		Pinned    bool             `json:"pinned"`
	}{"message-pinned", p.MessageID, uid, pinned})
	ctl.ack(c, seq, nil)
}
