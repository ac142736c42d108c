package app_test

import (
	"context"
	"sync"
	"time"

	"github.com/workhive/workhive/internal/app"
	"github.com/workhive/workhive/internal/core"
	"github.com/workhive/workhive/internal/domain"
)

// fakeConn is a capturing core.SignalConnection for membership tests.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

// fakeStore is an in-memory storage collaborator. It doubles as the fixture
// seeding API for guard and relay tests.
type fakeStore struct {
	mu         sync.Mutex
	workspaces map[domain.WorkspaceID]*domain.Workspace
	channels   map[domain.ChannelID]*domain.Channel
	dms        map[domain.DMID]*domain.DirectConversation
	messages   map[domain.MessageID]*domain.Message
	order      []domain.MessageID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		workspaces: make(map[domain.WorkspaceID]*domain.Workspace),
		channels:   make(map[domain.ChannelID]*domain.Channel),
		dms:        make(map[domain.DMID]*domain.DirectConversation),
		messages:   make(map[domain.MessageID]*domain.Message),
	}
}

func (s *fakeStore) seedWorkspace(ws *domain.Workspace) { s.workspaces[ws.ID] = ws }
func (s *fakeStore) seedChannel(ch *domain.Channel)     { s.channels[ch.ID] = ch }
func (s *fakeStore) seedDM(dm *domain.DirectConversation) {
	s.dms[dm.ID] = dm
}

func (s *fakeStore) Workspace(_ context.Context, id domain.WorkspaceID) (*domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[id]
	if !ok {
		return nil, app.ErrNotFound
	}
	cp := *ws
	return &cp, nil
}

func (s *fakeStore) Channel(_ context.Context, id domain.ChannelID) (*domain.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[id]
	if !ok {
		return nil, app.ErrNotFound
	}
	cp := *ch
	cp.Members = append([]domain.UserID(nil), ch.Members...)
	return &cp, nil
}

func (s *fakeStore) AddChannelMember(_ context.Context, id domain.ChannelID, uid domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[id]
	if !ok {
		return app.ErrNotFound
	}
	if !ch.HasMember(uid) {
		ch.Members = append(ch.Members, uid)
	}
	return nil
}

func (s *fakeStore) DirectConversation(_ context.Context, id domain.DMID) (*domain.DirectConversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dm, ok := s.dms[id]
	if !ok {
		return nil, app.ErrNotFound
	}
	cp := *dm
	return &cp, nil
}

func (s *fakeStore) InsertMessage(_ context.Context, m *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages[m.ID] = &cp
	s.order = append(s.order, m.ID)
	return nil
}

func (s *fakeStore) Message(_ context.Context, id domain.MessageID) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, app.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *fakeStore) UpdateMessageText(_ context.Context, id domain.MessageID, text string, editedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return app.ErrNotFound
	}
	m.Text = text
	m.EditedAt = &editedAt
	return nil
}

func (s *fakeStore) DeleteMessage(_ context.Context, id domain.MessageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, id)
	return nil
}

func (s *fakeStore) ThreadReplies(_ context.Context, root domain.MessageID) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, id := range s.order {
		if m, ok := s.messages[id]; ok && m.ThreadRootID == root {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *fakeStore) AddReaction(_ context.Context, id domain.MessageID, uid domain.UserID, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return app.ErrNotFound
	}
	m.Reactions = append(m.Reactions, domain.Reaction{UserID: uid, Emoji: emoji})
	return nil
}

func (s *fakeStore) MarkRead(_ context.Context, id domain.MessageID, uid domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return app.ErrNotFound
	}
	for _, r := range m.ReadBy {
		if r == uid {
			return nil
		}
	}
	m.ReadBy = append(m.ReadBy, uid)
	return nil
}

func (s *fakeStore) SetPinned(_ context.Context, id domain.MessageID, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return app.ErrNotFound
	}
	m.Pinned = pinned
	return nil
}

// fixtures shared by guard/relay/rooms tests.

const (
	wsID   = domain.WorkspaceID("ws1")
	chPub  = domain.ChannelID("general")
	chPriv = domain.ChannelID("secret")
	dmID   = domain.DMID("dm1")

	alice = domain.UserID("alice")
	bob   = domain.UserID("bob")
	carol = domain.UserID("carol")
)

func seedBasics(st *fakeStore) {
	st.seedWorkspace(&domain.Workspace{
		ID:      wsID,
		Name:    "Acme",
		OwnerID: alice,
		Members: []domain.UserID{alice, bob},
		Admins:  []domain.UserID{alice},
	})
	st.seedChannel(&domain.Channel{
		ID:          chPub,
		WorkspaceID: wsID,
		Name:        "general",
		Members:     []domain.UserID{alice},
		CreatedBy:   alice,
		Posting:     domain.PostingEveryone,
	})
	st.seedChannel(&domain.Channel{
		ID:          chPriv,
		WorkspaceID: wsID,
		Name:        "secret",
		Private:     true,
		Members:     []domain.UserID{bob},
		CreatedBy:   bob,
		Posting:     domain.PostingEveryone,
	})
	st.seedDM(&domain.DirectConversation{
		ID:           dmID,
		WorkspaceID:  wsID,
		Participants: []domain.UserID{alice, bob},
	})
}
