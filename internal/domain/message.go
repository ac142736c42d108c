package domain

import "time"

type MessageID string

type Attachment struct {
	URL  string `bson:"url" json:"url"`
	Name string `bson:"name,omitempty" json:"name,omitempty"`
	Size int64  `bson:"size,omitempty" json:"size,omitempty"`
	Mime string `bson:"mime,omitempty" json:"mime,omitempty"`
}

type Reaction struct {
	UserID UserID `bson:"userId" json:"userId"`
	Emoji  string `bson:"emoji" json:"emoji"`
}

type Message struct {
	ID           MessageID    `bson:"_id" json:"id"`
	ChannelID    ChannelID    `bson:"channelId" json:"channelId"`
	SenderID     UserID       `bson:"senderId" json:"senderId"`
	Text         string       `bson:"text" json:"text"`
	Attachments  []Attachment `bson:"attachments,omitempty" json:"attachments"`
	ThreadRootID MessageID    `bson:"threadRootId,omitempty" json:"threadRootId,omitempty"`
	Reactions    []Reaction   `bson:"reactions,omitempty" json:"reactions"`
	ReadBy       []UserID     `bson:"readBy" json:"readBy"`
	Pinned       bool         `bson:"pinned" json:"pinned"`
	CreatedAt    time.Time    `bson:"createdAt" json:"createdAt"`
	EditedAt     *time.Time   `bson:"editedAt,omitempty" json:"editedAt,omitempty"`
}

// IsReply reports whether the message lives inside a thread.
func (m *Message) IsReply() bool { return m.ThreadRootID != "" }
