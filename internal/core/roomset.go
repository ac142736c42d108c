package core

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// RoomSet is the threadsafe in-memory registry of room memberships.
// It owns the membership maps but never touches transport resources;
// connections are closed by the adapter that created them.
type RoomSet struct {
	mu     sync.RWMutex
	rooms  map[RoomName]map[ConnID]SignalConnection
	byConn map[ConnID]map[RoomName]struct{}
}

func NewRoomSet() *RoomSet {
	return &RoomSet{
		rooms:  make(map[RoomName]map[ConnID]SignalConnection),
		byConn: make(map[ConnID]map[RoomName]struct{}),
	}
}

// Join adds the connection to the room. Joining twice is a no-op.
func (s *RoomSet) Join(name RoomName, cid ConnID, conn SignalConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[name]
	if !ok {
		room = make(map[ConnID]SignalConnection)
		s.rooms[name] = room
	}
	if _, ok := room[cid]; ok {
		return
	}
	room[cid] = conn
	joined, ok := s.byConn[cid]
	if !ok {
		joined = make(map[RoomName]struct{})
		s.byConn[cid] = joined
	}
	joined[name] = struct{}{}
	log.Debug().Str("module", "core.rooms").Str("room", string(name)).Str("cid", string(cid)).Msg("joined room")
}

// JoinCapped adds the connection only while the room holds fewer than limit
// members. The occupancy check and the insert happen under one lock, so two
// racing joins can never both slip past the cap or both observe an empty
// room. It reports whether the insert happened, whether the connection was
// already a member, and the occupancy before the call.
func (s *RoomSet) JoinCapped(name RoomName, cid ConnID, conn SignalConnection, limit int) (joined, already bool, sizeBefore int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.rooms[name]
	sizeBefore = len(room)
	if _, ok := room[cid]; ok {
		return false, true, sizeBefore
	}
	if sizeBefore >= limit {
		return false, false, sizeBefore
	}
	if room == nil {
		room = make(map[ConnID]SignalConnection)
		s.rooms[name] = room
	}
	room[cid] = conn
	byConn, ok := s.byConn[cid]
	if !ok {
		byConn = make(map[RoomName]struct{})
		s.byConn[cid] = byConn
	}
	byConn[name] = struct{}{}
	log.Debug().Str("module", "core.rooms").Str("room", string(name)).Str("cid", string(cid)).Msg("joined room")
	return true, false, sizeBefore
}

// Leave removes the connection from the room and reports whether a
// membership was actually removed. The room itself is dropped once its last
// member leaves.
func (s *RoomSet) Leave(name RoomName, cid ConnID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaveLocked(name, cid)
}

func (s *RoomSet) leaveLocked(name RoomName, cid ConnID) bool {
	room, ok := s.rooms[name]
	if !ok {
		return false
	}
	if _, ok := room[cid]; !ok {
		return false
	}
	delete(room, cid)
	if len(room) == 0 {
		delete(s.rooms, name)
	}
	if joined, ok := s.byConn[cid]; ok {
		delete(joined, name)
		if len(joined) == 0 {
			delete(s.byConn, cid)
		}
	}
	return true
}

// LeaveAll removes the connection from every room it occupies and returns
// the rooms it left, so the caller can emit departure notifications for
// rooms whose membership has no other trace.
func (s *RoomSet) LeaveAll(cid ConnID) []RoomName {
	s.mu.Lock()
	defer s.mu.Unlock()
	joined, ok := s.byConn[cid]
	if !ok {
		return nil
	}
	left := make([]RoomName, 0, len(joined))
	for name := range joined {
		left = append(left, name)
	}
	for _, name := range left {
		s.leaveLocked(name, cid)
	}
	return left
}

// Contains reports whether the connection is currently in the room.
func (s *RoomSet) Contains(name RoomName, cid ConnID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[name][cid]
	return ok
}

// Size returns the current occupant count of the room.
func (s *RoomSet) Size(name RoomName) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms[name])
}

// Members returns a snapshot of the room's connection ids.
func (s *RoomSet) Members(name RoomName) []ConnID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ConnID, 0, len(s.rooms[name]))
	for cid := range s.rooms[name] {
		out = append(out, cid)
	}
	return out
}

// Broadcast fans the frame out to every member of the room except `from`
// (pass "" to include everyone). Slow consumers are skipped, not waited on.
func (s *RoomSet) Broadcast(name RoomName, from ConnID, data Frame) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sent := 0
	for cid, conn := range s.rooms[name] {
		if cid == from {
			continue
		}
		if err := conn.TrySend(data); err != nil {
			log.Warn().Str("module", "core.rooms").Str("room", string(name)).Str("cid", string(cid)).Err(err).Msg("dropped frame")
			continue
		}
		sent++
	}
	return sent
}
