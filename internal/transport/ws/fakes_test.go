package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/presence"
	"github.com/cwrk-planet/messenger/internal/roomctx"
	"github.com/cwrk-planet/messenger/internal/service"
)

type fakeConn struct {
	id   string
	user domain.UserSummary

	mu  sync.Mutex
	got []Message
}

func newFakeConn(id string, uid int64, name string) *fakeConn {
	return &fakeConn{id: id, user: domain.UserSummary{ID: domain.UserID(uid), Username: name}}
}

func (c *fakeConn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, msg)
	return nil
}

func (c *fakeConn) Close() error             { return nil }
func (c *fakeConn) ID() string               { return c.id }
func (c *fakeConn) User() domain.UserSummary { return c.user }

func (c *fakeConn) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.got))
	for i, m := range c.got {
		out[i] = m.Type
	}
	return out
}

func (c *fakeConn) ofType(t string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Message
	for _, m := range c.got {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = nil
}

// fakeMsgs: сервис сообщений в памяти: участники личной комнаты из её id, групп: из groups.
type fakeMsgs struct {
	mu     sync.Mutex
	seq    int64
	msgs   map[domain.MessageID]*domain.Message
	roomOf map[domain.MessageID]string
	groups map[string][]string
	pinned map[string]domain.MessageID
	users  map[string]bool
}

func newFakeMsgs(users ...string) *fakeMsgs {
	f := &fakeMsgs{
		msgs:   map[domain.MessageID]*domain.Message{},
		roomOf: map[domain.MessageID]string{},
		groups: map[string][]string{},
		pinned: map[string]domain.MessageID{},
		users:  map[string]bool{},
	}
	for _, u := range users {
		f.users[u] = true
	}
	return f
}

func (f *fakeMsgs) members(room domain.Room) []string {
	if room.Kind == domain.RoomDirect {
		return []string{room.Peers[0], room.Peers[1]}
	}
	return f.groups[room.Name]
}

func (f *fakeMsgs) authorize(actor domain.UserSummary, room domain.Room) (*service.Resolved, error) {
	members := f.members(room)
	t := domain.Target{Room: room, Members: members}
	if !t.HasMember(actor.Username) {
		return nil, domain.ErrNotMember
	}
	if room.Kind == domain.RoomDirect {
		peer, _ := room.Peer(actor.Username)
		if !f.users[peer] {
			return nil, domain.ErrUserNotFound
		}
	}
	return &service.Resolved{Target: t}, nil
}

func (f *fakeMsgs) Authorize(_ context.Context, actor domain.UserSummary, room domain.Room) (*service.Resolved, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorize(actor, room)
}

func (f *fakeMsgs) Send(_ context.Context, actor domain.UserSummary, room domain.Room, draft domain.Draft) (*service.Sent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	draft, err := draft.Normalize()
	if err != nil {
		return nil, err
	}
	res, err := f.authorize(actor, room)
	if err != nil {
		return nil, err
	}
	f.seq++
	m := &domain.Message{ID: domain.MessageID(f.seq), SenderID: actor.ID, Sender: actor.Username, Body: draft.Body, Kind: draft.Kind}
	f.msgs[m.ID] = m
	f.roomOf[m.ID] = room.ID()
	cp := *m
	return &service.Sent{Message: &cp, Room: res}, nil
}

func (f *fakeMsgs) AdvanceStatus(_ context.Context, _ domain.Room, id domain.MessageID, to domain.Status) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.msgs[id]
	if !ok {
		return false, domain.ErrMessageNotFound
	}
	if !m.Status.CanAdvanceTo(to) {
		return false, nil
	}
	m.Status = to
	return true, nil
}

func (f *fakeMsgs) SweepRead(_ context.Context, actor domain.UserSummary, room domain.Room) ([]domain.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.authorize(actor, room); err != nil {
		return nil, err
	}
	var ids []domain.MessageID
	for id := domain.MessageID(1); id <= domain.MessageID(f.seq); id++ {
		m, ok := f.msgs[id]
		if ok && f.roomOf[id] == room.ID() && m.SenderID != actor.ID && m.Status < domain.StatusRead {
			m.Status = domain.StatusRead
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeMsgs) own(actor domain.UserSummary, room domain.Room, id domain.MessageID) (*domain.Message, error) {
	m, ok := f.msgs[id]
	if !ok || f.roomOf[id] != room.ID() {
		return nil, domain.ErrMessageNotFound
	}
	if m.SenderID != actor.ID {
		return nil, domain.ErrNotSender
	}
	return m, nil
}

func (f *fakeMsgs) Edit(_ context.Context, actor domain.UserSummary, room domain.Room, id domain.MessageID, body string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.own(actor, room, id)
	if err != nil {
		return nil, err
	}
	m.Body, m.Edited = body, true
	cp := *m
	return &cp, nil
}

func (f *fakeMsgs) Delete(_ context.Context, actor domain.UserSummary, room domain.Room, id domain.MessageID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.own(actor, room, id); err != nil {
		return err
	}
	delete(f.msgs, id)
	return nil
}

func (f *fakeMsgs) Pin(_ context.Context, actor domain.UserSummary, room domain.Room, id domain.MessageID) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.authorize(actor, room); err != nil {
		return nil, err
	}
	m, ok := f.msgs[id]
	if !ok || f.roomOf[id] != room.ID() {
		return nil, domain.ErrMessageNotFound
	}
	f.pinned[room.Name] = id
	cp := *m
	return &cp, nil
}

func (f *fakeMsgs) Unpin(_ context.Context, actor domain.UserSummary, room domain.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.authorize(actor, room); err != nil {
		return err
	}
	delete(f.pinned, room.Name)
	return nil
}

func (f *fakeMsgs) CreateGroup(_ context.Context, actor domain.UserSummary, name string, members []string) (*domain.Group, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.groups[name]; ok {
		return nil, nil, domain.ErrGroupExists
	}
	names := []string{actor.Username}
	for _, m := range members {
		if f.users[m] && m != actor.Username {
			names = append(names, m)
		}
	}
	f.groups[name] = names
	return &domain.Group{ID: int64(len(f.groups)), Name: name, CreatorID: actor.ID}, names, nil
}

func (f *fakeMsgs) PeerExists(_ context.Context, username string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.users[username] {
		return "", domain.ErrUserNotFound
	}
	return username, nil
}

type harness struct {
	disp *Dispatcher
	msgs *fakeMsgs
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	msgs := newFakeMsgs("alice", "bob", "carol")
	disp := NewDispatcher(NewHub(), presence.NewRegistry[Conn](), roomctx.NewTracker(), msgs, msgs, 0)
	return &harness{disp: disp, msgs: msgs}
}

func (h *harness) emit(t *testing.T, c Conn, event string, payload any) {
	t.Helper()

	raw, err := json.Marshal(map[string]any{"type": event, "payload": payload})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	h.disp.Handle(context.Background(), c, raw)
}
