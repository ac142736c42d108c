package app

import (
	"context"
	"errors"
	"time"

	"github.com/workhive/workhive/internal/domain"
)

// ErrNotFound is returned by Store implementations when the referenced
// entity does not exist. The guard and relay translate it into a coded
// NotFound intent failure.
var ErrNotFound = errors.New("not found")

// Store is the persistence collaborator consumed by the coordinator. The
// document store is the system of record; the coordinator never caches its
// answers across suspension points.
type Store interface {
	Workspace(ctx context.Context, id domain.WorkspaceID) (*domain.Workspace, error)
	Channel(ctx context.Context, id domain.ChannelID) (*domain.Channel, error)
	AddChannelMember(ctx context.Context, id domain.ChannelID, uid domain.UserID) error
	DirectConversation(ctx context.Context, id domain.DMID) (*domain.DirectConversation, error)

	InsertMessage(ctx context.Context, m *domain.Message) error
	Message(ctx context.Context, id domain.MessageID) (*domain.Message, error)
	UpdateMessageText(ctx context.Context, id domain.MessageID, text string, editedAt time.Time) error
	DeleteMessage(ctx context.Context, id domain.MessageID) error
	ThreadReplies(ctx context.Context, root domain.MessageID) ([]domain.Message, error)
	AddReaction(ctx context.Context, id domain.MessageID, uid domain.UserID, emoji string) error
	MarkRead(ctx context.Context, id domain.MessageID, uid domain.UserID) error
	SetPinned(ctx context.Context, id domain.MessageID, pinned bool) error
}
