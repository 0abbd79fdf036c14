package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
)

// memDB: in-memory хранилище для тестов сервисов; повторяет семантику pg-репозиториев.
type memDB struct {
	mu sync.Mutex

	users    map[domain.UserID]*domain.User
	chats    map[int64]*domain.Chat
	groups   map[int64]*domain.Group
	gMembers map[int64][]domain.UserID
	channels map[int64]*domain.Channel
	cMembers map[int64]map[domain.UserID]*domain.ChannelMember
	invites  map[int64]*domain.Invite
	messages map[domain.MessageID]*domain.Message
	follows  map[[2]domain.UserID]time.Time
	posts    map[domain.PostID]*domain.Post
	likes    map[[2]int64]bool
	reposts  map[[2]int64]bool
	reacts   map[[2]int64]string
	comments []domain.Comment

	seq int64
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[domain.UserID]*domain.User{},
		chats:    map[int64]*domain.Chat{},
		groups:   map[int64]*domain.Group{},
		gMembers: map[int64][]domain.UserID{},
		channels: map[int64]*domain.Channel{},
		cMembers: map[int64]map[domain.UserID]*domain.ChannelMember{},
		invites:  map[int64]*domain.Invite{},
		messages: map[domain.MessageID]*domain.Message{},
		follows:  map[[2]domain.UserID]time.Time{},
		posts:    map[domain.PostID]*domain.Post{},
		likes:    map[[2]int64]bool{},
		reposts:  map[[2]int64]bool{},
		reacts:   map[[2]int64]string{},
	}
}

func (db *memDB) next() int64 {
	db.seq++
	return db.seq
}

func (db *memDB) repos() Repos {
	return Repos{
		Users:    memUsers{db},
		Chats:    memChats{db},
		Groups:   memGroups{db},
		Channels: memChannels{db},
		Messages: memMessages{db},
		Follows:  memFollows{db},
		Posts:    memPosts{db},
	}
}

// addUser: быстрый сид пользователя без пароля.
func (db *memDB) addUser(name string) domain.UserSummary {
	db.mu.Lock()
	defer db.mu.Unlock()

	u := &domain.User{ID: domain.UserID(db.next()), Username: name, PasswordHash: "x"}
	db.users[u.ID] = u
	return u.Summary()
}

func (db *memDB) userByName(name string) *domain.User {
	for _, u := range db.users {
		if strings.EqualFold(u.Username, name) {
			return u
		}
	}
	return nil
}

// ---- users

type memUsers struct{ db *memDB }

func (r memUsers) Create(_ context.Context, u *domain.User) (domain.UserID, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.userByName(u.Username) != nil {
		return 0, domain.ErrUsernameTaken
	}
	cp := *u
	cp.ID = domain.UserID(r.db.next())
	r.db.users[cp.ID] = &cp
	u.ID = cp.ID
	return cp.ID, nil
}

func (r memUsers) GetByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByUsername(_ context.Context, name string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u := r.db.userByName(name)
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) ListByUsernames(_ context.Context, names []string) ([]domain.UserSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.UserSummary
	for _, n := range names {
		if u := r.db.userByName(n); u != nil {
			out = append(out, u.Summary())
		}
	}
	return out, nil
}

func (r memUsers) UpdateUsername(_ context.Context, id domain.UserID, name string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if other := r.db.userByName(name); other != nil && other.ID != id {
		return domain.ErrUsernameTaken
	}
	u, ok := r.db.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Username = name
	return nil
}

func (r memUsers) UpdatePasswordHash(_ context.Context, id domain.UserID, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r memUsers) UpdateProfile(_ context.Context, id domain.UserID, patch domain.ProfilePatch) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	patch.Apply(&u.Profile)
	return nil
}

func (r memUsers) Search(_ context.Context, q string, exclude domain.UserID, limit int) ([]domain.UserSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.UserSummary
	for _, u := range r.db.users {
		if u.ID != exclude && strings.Contains(u.Username, strings.ToLower(q)) {
			out = append(out, u.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- chats

type memChats struct{ db *memDB }

func (r memChats) find(a, b domain.UserID) *domain.Chat {
	u1, u2 := domain.CanonicalPair(a, b)
	for _, c := range r.db.chats {
		if c.User1ID == u1 && c.User2ID == u2 {
			return c
		}
	}
	return nil
}

func (r memChats) GetOrCreate(_ context.Context, a, b domain.UserID) (*domain.Chat, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if a == b {
		return nil, domain.ErrSelfAction
	}
	if c := r.find(a, b); c != nil {
		cp := *c
		return &cp, nil
	}
	u1, u2 := domain.CanonicalPair(a, b)
	c := &domain.Chat{ID: r.db.next(), User1ID: u1, User2ID: u2}
	r.db.chats[c.ID] = c
	cp := *c
	return &cp, nil
}

func (r memChats) Find(_ context.Context, a, b domain.UserID) (*domain.Chat, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c := r.find(a, b)
	if c == nil {
		return nil, domain.ErrChatNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memChats) GetByID(_ context.Context, id int64) (*domain.Chat, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.chats[id]
	if !ok {
		return nil, domain.ErrChatNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memChats) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.chats[id]; !ok {
		return domain.ErrChatNotFound
	}
	delete(r.db.chats, id)
	r.db.dropConversation(domain.Conversation{Kind: domain.RoomDirect, ID: id})
	return nil
}

func (db *memDB) dropConversation(conv domain.Conversation) {
	for id, m := range db.messages {
		if m.Conversation == conv {
			delete(db.messages, id)
		}
	}
}

func (db *memDB) listItem(kind domain.RoomKind, id int64, room, title string, self domain.UserID) domain.ChatListItem {
	item := domain.ChatListItem{Kind: kind, Room: room, ID: id, Title: title}
	conv := domain.Conversation{Kind: kind, ID: id}
	var last *domain.Message
	for _, m := range db.messages {
		if m.Conversation != conv {
			continue
		}
		if last == nil || m.CreatedAt.After(last.CreatedAt) || (m.CreatedAt.Equal(last.CreatedAt) && m.ID > last.ID) {
			last = m
		}
		if m.SenderID != self && m.Status < domain.StatusRead {
			item.UnreadCount++
		}
	}
	if last != nil {
		body, at := last.Body, last.CreatedAt
		item.LastMessage, item.LastTime = &body, &at
	}
	return item
}

func (r memChats) ListForUser(_ context.Context, userID domain.UserID) ([]domain.ChatListItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	self := r.db.users[userID]
	var out []domain.ChatListItem
	for _, c := range r.db.chats {
		if !c.Has(userID) {
			continue
		}
		peer := r.db.users[c.Other(userID)]
		room := domain.DirectRoom(self.Username, peer.Username).ID()
		out = append(out, r.db.listItem(domain.RoomDirect, c.ID, room, peer.Username, userID))
	}
	return out, nil
}

// ---- groups

type memGroups struct{ db *memDB }

func (r memGroups) Create(_ context.Context, g *domain.Group, members []domain.UserID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, ex := range r.db.groups {
		if ex.Name == g.Name {
			return domain.ErrGroupExists
		}
	}
	g.ID = r.db.next()
	cp := *g
	r.db.groups[g.ID] = &cp

	ids := []domain.UserID{g.CreatorID}
	for _, m := range members {
		if m != g.CreatorID {
			ids = append(ids, m)
		}
	}
	r.db.gMembers[g.ID] = ids
	return nil
}

func (r memGroups) GetByName(_ context.Context, name string) (*domain.Group, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, g := range r.db.groups {
		if g.Name == name {
			cp := *g
			return &cp, nil
		}
	}
	return nil, domain.ErrGroupNotFound
}

func (r memGroups) IsMember(_ context.Context, groupID int64, userID domain.UserID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, id := range r.db.gMembers[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r memGroups) Members(_ context.Context, groupID int64) ([]domain.UserSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.UserSummary
	for _, id := range r.db.gMembers[groupID] {
		out = append(out, r.db.users[id].Summary())
	}
	return out, nil
}

func (r memGroups) ListForUser(_ context.Context, userID domain.UserID) ([]domain.ChatListItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.ChatListItem
	for gid, ids := range r.db.gMembers {
		for _, id := range ids {
			if id == userID {
				g := r.db.groups[gid]
				out = append(out, r.db.listItem(domain.RoomGroup, gid, g.Room().ID(), g.Name, userID))
			}
		}
	}
	return out, nil
}

func (r memGroups) SetPinned(_ context.Context, groupID int64, msgID *domain.MessageID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	g, ok := r.db.groups[groupID]
	if !ok {
		return domain.ErrGroupNotFound
	}
	g.PinnedMsgID = msgID
	return nil
}

func (r memGroups) Delete(_ context.Context, groupID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.groups[groupID]; !ok {
		return domain.ErrGroupNotFound
	}
	delete(r.db.groups, groupID)
	delete(r.db.gMembers, groupID)
	r.db.dropConversation(domain.Conversation{Kind: domain.RoomGroup, ID: groupID})
	return nil
}

// ---- channels

type memChannels struct{ db *memDB }

func (r memChannels) Create(_ context.Context, ch *domain.Channel) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, ex := range r.db.channels {
		if ex.Name == ch.Name {
			return domain.ErrChannelExists
		}
	}
	ch.ID = r.db.next()
	cp := *ch
	r.db.channels[ch.ID] = &cp
	r.db.cMembers[ch.ID] = map[domain.UserID]*domain.ChannelMember{
		ch.CreatorID: {ChannelID: ch.ID, UserID: ch.CreatorID, Username: r.db.users[ch.CreatorID].Username, Role: domain.RoleAdmin},
	}
	return nil
}

func (r memChannels) get(match func(*domain.Channel) bool) (*domain.Channel, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, ch := range r.db.channels {
		if match(ch) {
			cp := *ch
			return &cp, nil
		}
	}
	return nil, domain.ErrChannelNotFound
}

func (r memChannels) GetByName(_ context.Context, name string) (*domain.Channel, error) {
	return r.get(func(c *domain.Channel) bool { return c.Name == name })
}

func (r memChannels) GetByID(_ context.Context, id int64) (*domain.Channel, error) {
	return r.get(func(c *domain.Channel) bool { return c.ID == id })
}

func (r memChannels) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.channels[id]; !ok {
		return domain.ErrChannelNotFound
	}
	delete(r.db.channels, id)
	delete(r.db.cMembers, id)
	r.db.dropConversation(domain.Conversation{Kind: domain.RoomChannel, ID: id})
	return nil
}

func (r memChannels) Member(_ context.Context, channelID int64, userID domain.UserID) (*domain.ChannelMember, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.cMembers[channelID][userID]
	if !ok {
		return nil, domain.ErrNotMember
	}
	cp := *m
	return &cp, nil
}

func (r memChannels) Members(_ context.Context, channelID int64) ([]domain.ChannelMember, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.ChannelMember
	for _, m := range r.db.cMembers[channelID] {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r memChannels) admins(channelID int64) int {
	n := 0
	for _, m := range r.db.cMembers[channelID] {
		if m.Role == domain.RoleAdmin {
			n++
		}
	}
	return n
}

func (r memChannels) SetRole(_ context.Context, channelID int64, userID domain.UserID, role domain.Role) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.cMembers[channelID][userID]
	if !ok {
		return domain.ErrNotMember
	}
	if m.Role == domain.RoleAdmin && role != domain.RoleAdmin && r.admins(channelID) <= 1 {
		return domain.ErrLastAdmin
	}
	m.Role = role
	return nil
}

func (r memChannels) RemoveMember(_ context.Context, channelID int64, userID domain.UserID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.cMembers[channelID][userID]
	if !ok {
		return domain.ErrNotMember
	}
	if m.Role == domain.RoleAdmin && r.admins(channelID) <= 1 {
		return domain.ErrLastAdmin
	}
	delete(r.db.cMembers[channelID], userID)
	return nil
}

func (r memChannels) ListForUser(_ context.Context, userID domain.UserID) ([]domain.ChatListItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.ChatListItem
	for cid, members := range r.db.cMembers {
		if _, ok := members[userID]; ok {
			ch := r.db.channels[cid]
			out = append(out, r.db.listItem(domain.RoomChannel, cid, ch.Room().ID(), ch.Name, userID))
		}
	}
	return out, nil
}

func (r memChannels) CreateInvite(_ context.Context, inv *domain.Invite) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	inv.ID = r.db.next()
	cp := *inv
	r.db.invites[inv.ID] = &cp
	return nil
}

func (r memChannels) ListInvites(_ context.Context, channelID int64) ([]domain.Invite, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.Invite
	for _, inv := range r.db.invites {
		if inv.ChannelID == channelID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (r memChannels) DeleteInvite(_ context.Context, channelID, inviteID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	inv, ok := r.db.invites[inviteID]
	if !ok || inv.ChannelID != channelID {
		return domain.ErrInviteNotFound
	}
	delete(r.db.invites, inviteID)
	return nil
}

func (r memChannels) RedeemInvite(_ context.Context, code string, userID domain.UserID, now time.Time) (*domain.Channel, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var inv *domain.Invite
	for _, i := range r.db.invites {
		if i.Code == code {
			inv = i
		}
	}
	if inv == nil {
		return nil, domain.ErrInviteNotFound
	}
	if err := inv.CheckRedeemable(now); err != nil {
		return nil, err
	}
	if _, ok := r.db.cMembers[inv.ChannelID][userID]; ok {
		return nil, domain.ErrAlreadyMember
	}
	r.db.cMembers[inv.ChannelID][userID] = &domain.ChannelMember{
		ChannelID: inv.ChannelID,
		UserID:    userID,
		Username:  r.db.users[userID].Username,
		Role:      domain.RoleMember,
		JoinedAt:  now,
	}
	inv.Uses++
	cp := *r.db.channels[inv.ChannelID]
	return &cp, nil
}

// ---- messages

type memMessages struct{ db *memDB }

func (r memMessages) Create(_ context.Context, m *domain.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m.ID = domain.MessageID(r.db.next())
	cp := *m
	r.db.messages[m.ID] = &cp
	return nil
}

func (r memMessages) Get(_ context.Context, id domain.MessageID) (*domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.messages[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (r memMessages) AdvanceStatus(_ context.Context, id domain.MessageID, to domain.Status) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.messages[id]
	if !ok {
		return false, domain.ErrMessageNotFound
	}
	if !m.Status.CanAdvanceTo(to) {
		return false, nil
	}
	m.Status = to
	return true, nil
}

func (r memMessages) MarkRead(_ context.Context, conv domain.Conversation, reader domain.UserID) ([]domain.MessageID, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var ids []domain.MessageID
	for _, m := range r.db.messages {
		if m.Conversation == conv && m.SenderID != reader && m.Status < domain.StatusRead {
			m.Status = domain.StatusRead
			ids = append(ids, m.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r memMessages) UpdateBody(_ context.Context, id domain.MessageID, body string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.messages[id]
	if !ok {
		return domain.ErrMessageNotFound
	}
	m.Body = body
	m.Edited = true
	return nil
}

func (r memMessages) Delete(_ context.Context, id domain.MessageID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.messages[id]; !ok {
		return domain.ErrMessageNotFound
	}
	delete(r.db.messages, id)
	for _, g := range r.db.groups {
		if g.PinnedMsgID != nil && *g.PinnedMsgID == id {
			g.PinnedMsgID = nil
		}
	}
	return nil
}

func (r memMessages) list(conv domain.Conversation, match func(*domain.Message) bool) []domain.Message {
	var out []domain.Message
	for _, m := range r.db.messages {
		if m.Conversation == conv && match(m) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memMessages) History(_ context.Context, conv domain.Conversation, page domain.Page) ([]domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	all := r.list(conv, func(*domain.Message) bool { return true })
	from := min(page.Offset(), len(all))
	to := min(from+page.Limit(), len(all))
	return all[from:to], nil
}

func (r memMessages) Search(_ context.Context, conv domain.Conversation, q string, limit int) ([]domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := r.list(conv, func(m *domain.Message) bool {
		return strings.Contains(strings.ToLower(m.Body), strings.ToLower(q))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- social

type memFollows struct{ db *memDB }

func (r memFollows) Follow(_ context.Context, a, b domain.UserID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.follows[[2]domain.UserID{a, b}]; ok {
		return domain.ErrAlreadyFollowing
	}
	r.db.follows[[2]domain.UserID{a, b}] = time.Now()
	return nil
}

func (r memFollows) Unfollow(_ context.Context, a, b domain.UserID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.follows[[2]domain.UserID{a, b}]; !ok {
		return domain.ErrNotFollowing
	}
	delete(r.db.follows, [2]domain.UserID{a, b})
	return nil
}

func (r memFollows) IsFollowing(_ context.Context, a, b domain.UserID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	_, ok := r.db.follows[[2]domain.UserID{a, b}]
	return ok, nil
}

func (r memFollows) side(id domain.UserID, followers bool) []domain.UserSummary {
	var out []domain.UserSummary
	for k := range r.db.follows {
		switch {
		case followers && k[1] == id:
			out = append(out, r.db.users[k[0]].Summary())
		case !followers && k[0] == id:
			out = append(out, r.db.users[k[1]].Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (r memFollows) Followers(_ context.Context, id domain.UserID) ([]domain.UserSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.side(id, true), nil
}

func (r memFollows) Following(_ context.Context, id domain.UserID) ([]domain.UserSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.side(id, false), nil
}

func (r memFollows) Counts(_ context.Context, id domain.UserID) (int, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.side(id, true)), len(r.side(id, false)), nil
}

type memPosts struct{ db *memDB }

func (r memPosts) Create(_ context.Context, p *domain.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p.ID = domain.PostID(r.db.next())
	cp := *p
	r.db.posts[p.ID] = &cp
	return nil
}

func (r memPosts) withCounts(p domain.Post) domain.Post {
	p.Likes, p.Reposts, p.Comments = 0, 0, 0
	for k := range r.db.likes {
		if k[1] == int64(p.ID) {
			p.Likes++
		}
	}
	for k := range r.db.reposts {
		if k[1] == int64(p.ID) {
			p.Reposts++
		}
	}
	for _, c := range r.db.comments {
		if c.PostID == p.ID {
			p.Comments++
		}
	}
	return p
}

func (r memPosts) Get(_ context.Context, id domain.PostID) (*domain.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	cp := r.withCounts(*p)
	return &cp, nil
}

func (r memPosts) Update(_ context.Context, id domain.PostID, patch domain.PostPatch) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.posts[id]
	if !ok {
		return domain.ErrPostNotFound
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.ImageURL != nil {
		p.ImageURL = patch.ImageURL
	}
	return nil
}

func (r memPosts) Delete(_ context.Context, id domain.PostID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(r.db.posts, id)
	return nil
}

func (r memPosts) filter(page domain.Page, match func(*domain.Post) bool) []domain.Post {
	var out []domain.Post
	for _, p := range r.db.posts {
		if match(p) {
			out = append(out, r.withCounts(*p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	from := min(page.Offset(), len(out))
	to := min(from+page.Limit(), len(out))
	return out[from:to]
}

func (r memPosts) ListByAuthor(_ context.Context, author domain.UserID, page domain.Page) ([]domain.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.filter(page, func(p *domain.Post) bool { return p.AuthorID == author }), nil
}

func (r memPosts) Feed(_ context.Context, userID domain.UserID, page domain.Page) ([]domain.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.filter(page, func(p *domain.Post) bool {
		_, follows := r.db.follows[[2]domain.UserID{userID, p.AuthorID}]
		return p.AuthorID == userID || follows
	}), nil
}

func (r memPosts) Search(_ context.Context, q string, limit int) ([]domain.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.filter(domain.Page{Number: 1, PerPage: limit}, func(p *domain.Post) bool {
		return strings.Contains(strings.ToLower(p.Content), strings.ToLower(q))
	}), nil
}

func (r memPosts) toggle(set map[[2]int64]bool, u domain.UserID, p domain.PostID, on bool, conflict, missing error) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	k := [2]int64{int64(u), int64(p)}
	if _, ok := r.db.posts[p]; !ok && on {
		return domain.ErrPostNotFound
	}
	switch {
	case on && set[k]:
		return conflict
	case !on && !set[k]:
		return missing
	case on:
		set[k] = true
	default:
		delete(set, k)
	}
	return nil
}

func (r memPosts) Like(_ context.Context, u domain.UserID, p domain.PostID) error {
	return r.toggle(r.db.likes, u, p, true, domain.ErrAlreadyLiked, domain.ErrNotLiked)
}

func (r memPosts) Unlike(_ context.Context, u domain.UserID, p domain.PostID) error {
	return r.toggle(r.db.likes, u, p, false, domain.ErrAlreadyLiked, domain.ErrNotLiked)
}

func (r memPosts) Repost(_ context.Context, u domain.UserID, p domain.PostID) error {
	return r.toggle(r.db.reposts, u, p, true, domain.ErrAlreadyReposted, domain.ErrNotReposted)
}

func (r memPosts) Unrepost(_ context.Context, u domain.UserID, p domain.PostID) error {
	return r.toggle(r.db.reposts, u, p, false, domain.ErrAlreadyReposted, domain.ErrNotReposted)
}

func (r memPosts) AddComment(_ context.Context, c *domain.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c.ID = r.db.next()
	r.db.comments = append(r.db.comments, *c)
	return nil
}

func (r memPosts) Comments(_ context.Context, id domain.PostID) ([]domain.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.Comment
	for _, c := range r.db.comments {
		if c.PostID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memPosts) React(_ context.Context, u domain.UserID, p domain.PostID, reaction string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	k := [2]int64{int64(u), int64(p)}
	if _, ok := r.db.reacts[k]; ok {
		return domain.ErrAlreadyReacted
	}
	r.db.reacts[k] = reaction
	return nil
}

func (r memPosts) Unreact(_ context.Context, u domain.UserID, p domain.PostID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	k := [2]int64{int64(u), int64(p)}
	if _, ok := r.db.reacts[k]; !ok {
		return domain.ErrNoReaction
	}
	delete(r.db.reacts, k)
	return nil
}
