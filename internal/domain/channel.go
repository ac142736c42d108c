package domain

type ChannelID string

// PostingPolicy restricts who may create messages in a channel.
type PostingPolicy string

const (
	PostingEveryone   PostingPolicy = "everyone"
	PostingAdminsOnly PostingPolicy = "admins"
)

type Channel struct {
	ID          ChannelID     `bson:"_id" json:"id"`
	WorkspaceID WorkspaceID   `bson:"workspaceId" json:"workspaceId"`
	Name        string        `bson:"name" json:"name"`
	Private     bool          `bson:"private" json:"private"`
	Members     []UserID      `bson:"members" json:"members"`
	CreatedBy   UserID        `bson:"createdBy" json:"createdBy"`
	Posting     PostingPolicy `bson:"posting" json:"posting"`
}

func (c *Channel) HasMember(uid UserID) bool {
	for _, m := range c.Members {
		if m == uid {
			return true
		}
	}
	return false
}
