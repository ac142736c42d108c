// Package store implements the persistence collaborator over MongoDB.
// The document store is the system of record for users, workspaces,
// channels and messages; the coordinator holds none of it in memory.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/workhive/workhive/internal/app"
	"github.com/workhive/workhive/internal/domain"
)

const (
	colWorkspaces = "workspaces"
	colChannels   = "channels"
	colMessages   = "messages"
	colDMs        = "direct_conversations"
)

type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &Mongo{client: client, db: client.Database(dbName)}, nil
}

func (s *Mongo) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Mongo) Workspace(ctx context.Context, id domain.WorkspaceID) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := s.db.Collection(colWorkspaces).FindOne(ctx, bson.M{"_id": id}).Decode(&ws)
	if err != nil {
		return nil, mapErr(err)
	}
	return &ws, nil
}

func (s *Mongo) Channel(ctx context.Context, id domain.ChannelID) (*domain.Channel, error) {
	var ch domain.Channel
	err := s.db.Collection(colChannels).FindOne(ctx, bson.M{"_id": id}).Decode(&ch)
	if err != nil {
		return nil, mapErr(err)
	}
	return &ch, nil
}

func (s *Mongo) AddChannelMember(ctx context.Context, id domain.ChannelID, uid domain.UserID) error {
	res, err := s.db.Collection(colChannels).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"members": uid}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return app.ErrNotFound
	}
	return nil
}

func (s *Mongo) DirectConversation(ctx context.Context, id domain.DMID) (*domain.DirectConversation, error) {
	var dm domain.DirectConversation
	err := s.db.Collection(colDMs).FindOne(ctx, bson.M{"_id": id}).Decode(&dm)
	if err != nil {
		return nil, mapErr(err)
	}
	return &dm, nil
}

func (s *Mongo) InsertMessage(ctx context.Context, m *domain.Message) error {
	_, err := s.db.Collection(colMessages).InsertOne(ctx, m)
	return err
}

func (s *Mongo) Message(ctx context.Context, id domain.MessageID) (*domain.Message, error) {
	var m domain.Message
	err := s.db.Collection(colMessages).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (s *Mongo) UpdateMessageText(ctx context.Context, id domain.MessageID, text string, editedAt time.Time) error {
	res, err := s.db.Collection(colMessages).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"text": text, "editedAt": editedAt}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return app.ErrNotFound
	}
	return nil
}

func (s *Mongo) DeleteMessage(ctx context.Context, id domain.MessageID) error {
	_, err := s.db.Collection(colMessages).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *Mongo) ThreadReplies(ctx context.Context, root domain.MessageID) ([]domain.Message, error) {
	cursor, err := s.db.Collection(colMessages).Find(ctx, bson.M{"threadRootId": root})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []domain.Message
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Mongo) AddReaction(ctx context.Context, id domain.MessageID, uid domain.UserID, emoji string) error {
	res, err := s.db.Collection(colMessages).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"reactions": domain.Reaction{UserID: uid, Emoji: emoji}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return app.ErrNotFound
	}
	return nil
}

func (s *Mongo) MarkRead(ctx context.Context, id domain.MessageID, uid domain.UserID) error {
	res, err := s.db.Collection(colMessages).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"readBy": uid}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return app.ErrNotFound
	}
	return nil
}

func (s *Mongo) SetPinned(ctx context.Context, id domain.MessageID, pinned bool) error {
	res, err := s.db.Collection(colMessages).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"pinned": pinned}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return app.ErrNotFound
	}
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return app.ErrNotFound
	}
	return err
}
