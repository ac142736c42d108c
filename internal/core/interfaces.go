package core

import (
	"strings"

	"github.com/workhive/workhive/internal/domain"
)

// Frame is a marshaled event ready to go out over a transport connection.
type Frame []byte

// ConnID identifies one live transport session. One user may hold many.
type ConnID string

// SignalConnection abstracts a client transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// RoomName is a typed broadcast-group name. The prefix encodes the room kind
// so membership cleanup can tell call and interview rooms apart.
type RoomName string

func UserRoom(uid domain.UserID) RoomName          { return RoomName("user:" + uid) }
func WorkspaceRoom(id domain.WorkspaceID) RoomName { return RoomName("workspace:" + id) }
func ChannelRoom(id domain.ChannelID) RoomName     { return RoomName("channel:" + id) }
func CallRoom(id domain.CallID) RoomName           { return RoomName("call:" + id) }

func InterviewRoom(ws domain.WorkspaceID, roomID string) RoomName {
	return RoomName("interview:" + string(ws) + ":" + roomID)
}

// PresenceRoom is joined by every authenticated connection; presence
// transitions fan out here.
const PresenceRoom RoomName = "presence"

// IsInterview reports whether the name belongs to an interview pairing room.
func (n RoomName) IsInterview() bool {
	return len(n) > 10 && n[:10] == "interview:"
}

// ParseInterviewRoom splits an interview room name back into its workspace
// and room ids. Room ids never contain ':' so the split is unambiguous.
func ParseInterviewRoom(n RoomName) (ws domain.WorkspaceID, roomID string, ok bool) {
	if !n.IsInterview() {
		return "", "", false
	}
	rest := string(n[10:])
	i := strings.LastIndexByte(rest, ':')
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return domain.WorkspaceID(rest[:i]), rest[i+1:], true
}
