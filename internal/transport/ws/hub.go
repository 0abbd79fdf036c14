package ws

import (
	"sync"

	"github.com/cwrk-planet/messenger/internal/domain"
)

type Conn interface {
	Send(msg Message) error
	Close() error
	ID() string
	User() domain.UserSummary
}

type Hub struct {
	mu     sync.RWMutex
	conns  map[Conn]map[string]struct{} // conn -> комнаты, на которые подписан
	rooms  map[string]map[Conn]struct{} // roomID -> set of connections
	lockMu sync.Mutex
	locks  map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[Conn]map[string]struct{}),
		rooms: make(map[string]map[Conn]struct{}),
		locks: make(map[string]*roomLock),
	}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; !ok {
		h.conns[c] = make(map[string]struct{})
	}
}

// Remove отписывает соединение от всех комнат и возвращает их.
func (h *Hub) Remove(c Conn) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined := h.conns[c]
	delete(h.conns, c)

	left := make([]string, 0, len(joined))
	for roomID := range joined {
		h.leaveLocked(roomID, c)
		left = append(left, roomID)
	}
	return left
}

// Join идемпотентен; false: соединение уже было в комнате.
func (h *Hub) Join(roomID string, c Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.conns[c]
	if !ok {
		joined = make(map[string]struct{})
		h.conns[c] = joined
	}
	if _, ok := joined[roomID]; ok {
		return false
	}
	joined[roomID] = struct{}{}

	rs, ok := h.rooms[roomID]
	if !ok {
		rs = make(map[Conn]struct{})
		h.rooms[roomID] = rs
	}
	rs[c] = struct{}{}
	return true
}

func (h *Hub) Leave(roomID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if joined, ok := h.conns[c]; ok {
		delete(joined, roomID)
	}
	h.leaveLocked(roomID, c)
}

func (h *Hub) leaveLocked(roomID string, c Conn) {
	if rs, ok := h.rooms[roomID]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) InRoom(roomID string, c Conn) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.rooms[roomID][c]
	return ok
}

// Broadcast рассылает всем подписчикам комнаты, кроме except (может быть nil).
// Send идёт вне h.mu: медленный клиент не должен держать Join/Remove.
func (h *Hub) Broadcast(roomID string, msg Message, except Conn) {
	h.mu.RLock()
	targets := snapshot(h.rooms[roomID], except)
	h.mu.RUnlock()

	for _, c := range targets {
		_ = c.Send(msg) // best-effort
	}
}

// BroadcastAll: всем подключённым, кроме except.
func (h *Hub) BroadcastAll(msg Message, except Conn) {
	h.mu.RLock()
	targets := snapshot(h.conns, except)
	h.mu.RUnlock()

	for _, c := range targets {
		_ = c.Send(msg)
	}
}

func snapshot[V any](set map[Conn]V, except Conn) []Conn {
	out := make([]Conn, 0, len(set))
	for c := range set {
		if c != except {
			out = append(out, c)
		}
	}
	return out
}

// LockRoom берёт мьютекс комнаты: рассылки внутри комнаты идут в порядке обработки.
func (h *Hub) LockRoom(roomID string) (unlock func()) {
	h.lockMu.Lock()
	l, ok := h.locks[roomID]
	if !ok {
		l = &roomLock{}
		h.locks[roomID] = l
	}
	l.refs++
	h.lockMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		h.lockMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(h.locks, roomID)
		}
		h.lockMu.Unlock()
	}
}
