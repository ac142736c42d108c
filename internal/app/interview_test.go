package app_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workhive/workhive/internal/app"
	"github.com/workhive/workhive/internal/core"
)

func newInterviews(t *testing.T) *app.Interviews {
	t.Helper()
	st := newFakeStore()
	seedBasics(st)
	return app.NewInterviews(&app.Guard{Store: st}, core.NewRoomSet())
}

func TestInterviews_InitiatorElection(t *testing.T) {
	ctx := context.Background()
	iv := newInterviews(t)

	// First into an empty room is the initiator, second is not.
	_, initiator, _, err := iv.Join(ctx, "conn-a", &fakeConn{}, alice, wsID, "pairing-1")
	require.NoError(t, err)
	assert.True(t, initiator)

	name, initiator, _, err := iv.Join(ctx, "conn-b", &fakeConn{}, bob, wsID, "pairing-1")
	require.NoError(t, err)
	assert.False(t, initiator)
	assert.Equal(t, 2, iv.Set.Size(name))
}

func TestInterviews_RoomCap(t *testing.T) {
	ctx := context.Background()
	iv := newInterviews(t)

	_, _, _, err := iv.Join(ctx, "conn-a", &fakeConn{}, alice, wsID, "full")
	require.NoError(t, err)
	_, _, _, err = iv.Join(ctx, "conn-b", &fakeConn{}, bob, wsID, "full")
	require.NoError(t, err)

	_, _, _, err = iv.Join(ctx, "conn-c", &fakeConn{}, alice, wsID, "full")
	assert.Equal(t, app.CodeResourceExhausted, app.CodeOf(err))
	assert.EqualError(t, err, "room is full")
	assert.Equal(t, 2, iv.Set.Size(core.InterviewRoom(wsID, "full")))
}

func TestInterviews_ConcurrentJoinsNeverOverfill(t *testing.T) {
	ctx := context.Background()
	iv := newInterviews(t)
	name := core.InterviewRoom(wsID, "contended")

	// Many barrier-released joiners race for the two slots; the capacity
	// check and the insert are a single room-set operation, so the room
	// can never hold a third occupant and exactly one joiner is elected.
	const racers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	joined, initiators := 0, 0
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cid := core.ConnID(string(rune('a' + i)))
			<-start
			_, initiator, _, err := iv.Join(ctx, cid, &fakeConn{}, alice, wsID, "contended")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				joined++
				if initiator {
					initiators++
				}
			} else {
				assert.Equal(t, app.CodeResourceExhausted, app.CodeOf(err))
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 2, joined)
	assert.Equal(t, 1, initiators)
	assert.Equal(t, 2, iv.Set.Size(name))
}

func TestInterviews_JoinIsIdempotentPerConnection(t *testing.T) {
	ctx := context.Background()
	iv := newInterviews(t)

	_, first, rejoined, err := iv.Join(ctx, "conn-a", &fakeConn{}, alice, wsID, "r")
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, rejoined)

	// Rejoining with the same connection keeps the slot and the role.
	_, again, rejoined, err := iv.Join(ctx, "conn-a", &fakeConn{}, alice, wsID, "r")
	require.NoError(t, err)
	assert.True(t, again)
	assert.True(t, rejoined)
	assert.Equal(t, 1, iv.Set.Size(core.InterviewRoom(wsID, "r")))
}

func TestInterviews_RejoinKeepsElectedRole(t *testing.T) {
	ctx := context.Background()
	iv := newInterviews(t)

	_, _, _, err := iv.Join(ctx, "conn-a", &fakeConn{}, alice, wsID, "r")
	require.NoError(t, err)
	_, _, _, err = iv.Join(ctx, "conn-b", &fakeConn{}, bob, wsID, "r")
	require.NoError(t, err)

	// The initiator departs; the remaining non-initiator rejoins into a
	// one-occupant room and must not inherit the role.
	_, left := iv.Leave("conn-a", wsID, "r")
	require.True(t, left)
	_, initiator, rejoined, err := iv.Join(ctx, "conn-b", &fakeConn{}, bob, wsID, "r")
	require.NoError(t, err)
	assert.True(t, rejoined)
	assert.False(t, initiator)
}

func TestInterviews_Validation(t *testing.T) {
	ctx := context.Background()
	iv := newInterviews(t)

	for _, roomID := range []string{"", "has space", "way-too-long-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "semi;colon"} {
		_, _, _, err := iv.Join(ctx, "conn-a", &fakeConn{}, alice, wsID, roomID)
		assert.Equal(t, app.CodeInvalidArgument, app.CodeOf(err), "roomID %q", roomID)
	}

	// Workspace outsiders never reach the room.
	_, _, _, err := iv.Join(ctx, "conn-a", &fakeConn{}, carol, wsID, "r")
	assert.Equal(t, app.CodeForbidden, app.CodeOf(err))
}

func TestInterviews_SignalRequiresMembership(t *testing.T) {
	ctx := context.Background()
	iv := newInterviews(t)

	_, err := iv.Room("conn-a", wsID, "r")
	assert.Equal(t, app.CodeForbidden, app.CodeOf(err))

	_, _, _, err = iv.Join(ctx, "conn-a", &fakeConn{}, alice, wsID, "r")
	require.NoError(t, err)
	name, err := iv.Room("conn-a", wsID, "r")
	require.NoError(t, err)
	assert.Equal(t, core.InterviewRoom(wsID, "r"), name)
}

func TestInterviews_LeaveReportsRealDeparturesOnly(t *testing.T) {
	ctx := context.Background()
	iv := newInterviews(t)

	_, _, _, err := iv.Join(ctx, "conn-a", &fakeConn{}, alice, wsID, "r")
	require.NoError(t, err)

	// A connection that never occupied the room has nothing to leave.
	_, left := iv.Leave("conn-x", wsID, "r")
	assert.False(t, left)
	assert.Equal(t, 1, iv.Set.Size(core.InterviewRoom(wsID, "r")))

	_, left = iv.Leave("conn-a", wsID, "r")
	assert.True(t, left)
	_, left = iv.Leave("conn-a", wsID, "r")
	assert.False(t, left, "second leave is not a departure")
}

func TestInterviews_RoomDisappearsWithLastOccupant(t *testing.T) {
	ctx := context.Background()
	iv := newInterviews(t)

	_, _, _, err := iv.Join(ctx, "conn-a", &fakeConn{}, alice, wsID, "r")
	require.NoError(t, err)
	_, _, _, err = iv.Join(ctx, "conn-b", &fakeConn{}, bob, wsID, "r")
	require.NoError(t, err)

	iv.Leave("conn-a", wsID, "r")
	iv.Leave("conn-b", wsID, "r")
	assert.Equal(t, 0, iv.Set.Size(core.InterviewRoom(wsID, "r")))

	// A fresh join elects a fresh initiator, the old election is gone.
	_, initiator, _, err := iv.Join(ctx, "conn-c", &fakeConn{}, bob, wsID, "r")
	require.NoError(t, err)
	assert.True(t, initiator)
}
