package domain

import "time"

type DMID string

// DirectConversation is a one-to-one conversation between two workspace users.
type DirectConversation struct {
	ID           DMID        `bson:"_id" json:"id"`
	WorkspaceID  WorkspaceID `bson:"workspaceId" json:"workspaceId"`
	Participants []UserID    `bson:"participants" json:"participants"`
	CreatedAt    time.Time   `bson:"createdAt" json:"createdAt"`
}

func (d *DirectConversation) HasParticipant(uid UserID) bool {
	for _, p := range d.Participants {
		if p == uid {
			return true
		}
	}
	return false
}
