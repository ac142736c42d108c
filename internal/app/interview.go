package app

import (
	"context"
	"regexp"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/workhive/workhive/internal/core"
	"github.com/workhive/workhive/internal/domain"
)

// Interview rooms are ephemeral two-party rooms for paired live-coding
// sessions. There is no record beyond the room membership itself plus the
// initiator election: a room exists exactly as long as it has occupants.
type Interviews struct {
	Guard *Guard
	Set   *core.RoomSet

	mu         sync.Mutex
	initiators map[core.RoomName]core.ConnID
}

func NewInterviews(guard *Guard, set *core.RoomSet) *Interviews {
	return &Interviews{
		Guard:      guard,
		Set:        set,
		initiators: make(map[core.RoomName]core.ConnID),
	}
}

const interviewRoomCap = 2

var interviewRoomID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,40}$`)

// Join admits the connection after a workspace membership check. The joiner
// is elected initiator if and only if the room was empty at join time; this
// first-come election is all the negotiation there is and it is remembered
// for the life of the room, so a rejoin keeps its original role. The
// occupancy check and the insert are one atomic room-set operation.
func (iv *Interviews) Join(ctx context.Context, cid core.ConnID, conn core.SignalConnection, uid domain.UserID, ws domain.WorkspaceID, roomID string) (name core.RoomName, initiator, rejoined bool, err error) {
	if !interviewRoomID.MatchString(roomID) {
		return "", false, false, Invalidf("invalid room id")
	}
	if _, err := iv.Guard.WorkspaceMember(ctx, uid, ws); err != nil {
		return "", false, false, err
	}
	name = core.InterviewRoom(ws, roomID)
	joined, already, sizeBefore := iv.Set.JoinCapped(name, cid, conn, interviewRoomCap)
	if already {
		iv.mu.Lock()
		initiator = iv.initiators[name] == cid
		iv.mu.Unlock()
		return name, initiator, true, nil
	}
	if !joined {
		return "", false, false, Exhaustedf("room is full")
	}
	if sizeBefore == 0 {
		iv.mu.Lock()
		iv.initiators[name] = cid
		iv.mu.Unlock()
	}
	log.Info().Str("module", "app.interview").Str("room", string(name)).Str("user", string(uid)).Bool("initiator", sizeBefore == 0).Msg("joined interview room")
	return name, sizeBefore == 0, false, nil
}

// Leave removes the connection and reports whether it was actually an
// occupant; the room and its election disappear with the last occupant.
func (iv *Interviews) Leave(cid core.ConnID, ws domain.WorkspaceID, roomID string) (core.RoomName, bool) {
	name := core.InterviewRoom(ws, roomID)
	left := iv.Set.Leave(name, cid)
	if left {
		iv.Departed(name)
	}
	return name, left
}

// Departed clears the initiator election once the room has emptied. Called
// on every removal path, transport disconnects included.
func (iv *Interviews) Departed(name core.RoomName) {
	if iv.Set.Size(name) > 0 {
		return
	}
	iv.mu.Lock()
	delete(iv.initiators, name)
	iv.mu.Unlock()
}

// Room validates membership for signaling relays.
func (iv *Interviews) Room(cid core.ConnID, ws domain.WorkspaceID, roomID string) (core.RoomName, error) {
	name := core.InterviewRoom(ws, roomID)
	if !iv.Set.Contains(name, cid) {
		return "", Forbiddenf("not in this room")
	}
	return name, nil
}
