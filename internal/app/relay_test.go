package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workhive/workhive/internal/app"
	"github.com/workhive/workhive/internal/domain"
)

func newRelay(st *fakeStore) *app.Relay {
	return &app.Relay{Guard: &app.Guard{Store: st}, Store: st}
}

func TestRelay_CreateMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and seeds read-by with the sender", func(t *testing.T) {
		st := newFakeStore()
		seedBasics(st)
		relay := newRelay(st)

		msg, ch, err := relay.CreateMessage(ctx, alice, app.CreateMessageInput{
			ChannelID: chPub,
			Text:      "hello",
		})
		require.NoError(t, err)
		assert.Equal(t, chPub, ch.ID)
		assert.Equal(t, alice, msg.SenderID)
		assert.Equal(t, []domain.UserID{alice}, msg.ReadBy)

		stored, err := st.Message(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, "hello", stored.Text)
	})

	t.Run("empty text with attachment is accepted", func(t *testing.T) {
		st := newFakeStore()
		seedBasics(st)
		relay := newRelay(st)

		msg, _, err := relay.CreateMessage(ctx, bob, app.CreateMessageInput{
			ChannelID:   chPub,
			Attachments: []domain.Attachment{{URL: "https://x/y.png"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "", msg.Text)
		assert.Len(t, msg.Attachments, 1)
	})

	t.Run("empty message is rejected even with a thread root", func(t *testing.T) {
		st := newFakeStore()
		seedBasics(st)
		relay := newRelay(st)

		root, _, err := relay.CreateMessage(ctx, alice, app.CreateMessageInput{ChannelID: chPub, Text: "root"})
		require.NoError(t, err)

		_, _, err = relay.CreateMessage(ctx, alice, app.CreateMessageInput{
			ChannelID:    chPub,
			Text:         "   ",
			ThreadRootID: root.ID,
		})
		assert.Equal(t, app.CodeInvalidArgument, app.CodeOf(err))
		assert.EqualError(t, err, "message cannot be empty")
	})

	t.Run("thread root must be a root message in the same channel", func(t *testing.T) {
		st := newFakeStore()
		seedBasics(st)
		relay := newRelay(st)

		root, _, err := relay.CreateMessage(ctx, alice, app.CreateMessageInput{ChannelID: chPub, Text: "root"})
		require.NoError(t, err)
		reply, _, err := relay.CreateMessage(ctx, alice, app.CreateMessageInput{ChannelID: chPub, Text: "reply", ThreadRootID: root.ID})
		require.NoError(t, err)

		_, _, err = relay.CreateMessage(ctx, alice, app.CreateMessageInput{ChannelID: chPub, Text: "nested", ThreadRootID: reply.ID})
		assert.Equal(t, app.CodeInvalidArgument, app.CodeOf(err))

		_, _, err = relay.CreateMessage(ctx, alice, app.CreateMessageInput{ChannelID: chPub, Text: "x", ThreadRootID: "gone"})
		assert.Equal(t, app.CodeNotFound, app.CodeOf(err))
	})

	t.Run("admins-only posting policy", func(t *testing.T) {
		st := newFakeStore()
		seedBasics(st)
		st.seedChannel(&domain.Channel{
			ID:          "announce",
			WorkspaceID: wsID,
			Members:     []domain.UserID{alice, bob},
			CreatedBy:   alice,
			Posting:     domain.PostingAdminsOnly,
		})
		relay := newRelay(st)

		_, _, err := relay.CreateMessage(ctx, alice, app.CreateMessageInput{ChannelID: "announce", Text: "ship it"})
		require.NoError(t, err)

		_, _, err = relay.CreateMessage(ctx, bob, app.CreateMessageInput{ChannelID: "announce", Text: "me too"})
		assert.Equal(t, app.CodeForbidden, app.CodeOf(err))
	})
}

func TestRelay_EditMessage(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	seedBasics(st)
	relay := newRelay(st)

	msg, _, err := relay.CreateMessage(ctx, alice, app.CreateMessageInput{ChannelID: chPub, Text: "v1"})
	require.NoError(t, err)

	edited, err := relay.EditMessage(ctx, alice, msg.ID, "v2")
	require.NoError(t, err)
	assert.Equal(t, "v2", edited.Text)
	require.NotNil(t, edited.EditedAt)

	// Only the sender may edit.
	_, err = relay.EditMessage(ctx, bob, msg.ID, "v3")
	assert.Equal(t, app.CodeForbidden, app.CodeOf(err))
}

func TestRelay_DeleteMessage_CascadesThread(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	seedBasics(st)
	relay := newRelay(st)

	root, _, err := relay.CreateMessage(ctx, alice, app.CreateMessageInput{ChannelID: chPub, Text: "root"})
	require.NoError(t, err)
	const k = 3
	for i := 0; i < k; i++ {
		_, _, err := relay.CreateMessage(ctx, alice, app.CreateMessageInput{ChannelID: chPub, Text: "reply", ThreadRootID: root.ID})
		require.NoError(t, err)
	}

	deleted, chID, err := relay.DeleteMessage(ctx, alice, root.ID)
	require.NoError(t, err)
	assert.Equal(t, chPub, chID)
	assert.Len(t, deleted, k+1)
	assert.Equal(t, root.ID, deleted[k], "root is broadcast last")

	for _, id := range deleted {
		_, err := st.Message(ctx, id)
		assert.ErrorIs(t, err, app.ErrNotFound)
	}
}

func TestRelay_DeleteMessage_SenderOnly(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	seedBasics(st)
	relay := newRelay(st)

	msg, _, err := relay.CreateMessage(ctx, alice, app.CreateMessageInput{ChannelID: chPub, Text: "mine"})
	require.NoError(t, err)

	_, _, err = relay.DeleteMessage(ctx, bob, msg.ID)
	assert.Equal(t, app.CodeForbidden, app.CodeOf(err))
}

func TestRelay_ReactReadPin(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	seedBasics(st)
	relay := newRelay(st)

	msg, _, err := relay.CreateMessage(ctx, alice, app.CreateMessageInput{ChannelID: chPub, Text: "hi"})
	require.NoError(t, err)

	// Any member may react, read and pin, not just the sender.
	chID, err := relay.ReactMessage(ctx, bob, msg.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, chPub, chID)

	_, err = relay.ReadMessage(ctx, bob, msg.ID)
	require.NoError(t, err)

	_, err = relay.PinMessage(ctx, bob, msg.ID, true)
	require.NoError(t, err)

	stored, err := st.Message(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, stored.Pinned)
	assert.Contains(t, stored.ReadBy, bob)
	assert.Equal(t, []domain.Reaction{{UserID: bob, Emoji: "👍"}}, stored.Reactions)

	_, err = relay.ReactMessage(ctx, bob, msg.ID, "")
	assert.Equal(t, app.CodeInvalidArgument, app.CodeOf(err))

	// Outsiders get nothing.
	_, err = relay.ReadMessage(ctx, carol, msg.ID)
	assert.Equal(t, app.CodeForbidden, app.CodeOf(err))
}
