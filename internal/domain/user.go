// Package domain contains entity without logic, just meta-data.
package domain

type UserID string

type User struct {
	ID        UserID `bson:"_id" json:"id"`
	Username  string `bson:"username" json:"username"`
	Email     string `bson:"email" json:"email"`
	AvatarURL string `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
}

// Presence statuses derived by the coordinator. "offline" is never stored,
// it is the absence of any open connection.
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusOffline = "offline"
)
