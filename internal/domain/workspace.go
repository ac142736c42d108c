package domain

type WorkspaceID string

type Workspace struct {
	ID       WorkspaceID `bson:"_id" json:"id"`
	Name     string      `bson:"name" json:"name"`
	OwnerID  UserID      `bson:"ownerId" json:"ownerId"`
	Members  []UserID    `bson:"members" json:"members"`
	Admins   []UserID    `bson:"admins" json:"admins"`
	JoinCode string      `bson:"joinCode" json:"-"`
}

func (w *Workspace) HasMember(uid UserID) bool {
	for _, m := range w.Members {
		if m == uid {
			return true
		}
	}
	return false
}

func (w *Workspace) IsAdmin(uid UserID) bool {
	if w.OwnerID == uid {
		return true
	}
	for _, a := range w.Admins {
		if a == uid {
			return true
		}
	}
	return false
}
