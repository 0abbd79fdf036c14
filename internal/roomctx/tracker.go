// Package roomctx хранит для каждого пользователя комнату, открытую у него на экране.
package roomctx

import "sync"

type Tracker struct {
	mu   sync.Mutex
	ctxs map[string]string
}

func NewTracker() *Tracker {
	return &Tracker{ctxs: make(map[string]string)}
}

// Set запоминает комнату. changed=false, если она уже была текущей.
// Пустая комната равносильна Clear.
func (t *Tracker) Set(user, room string) (prev string, changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev = t.ctxs[user]
	if room == "" {
		delete(t.ctxs, user)
	} else {
		t.ctxs[user] = room
	}
	return prev, prev != room
}

func (t *Tracker) Get(user string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.ctxs[user]
	return room, ok
}

// Clear только забывает контекст, ничего больше не трогает.
func (t *Tracker) Clear(user string) {
	t.mu.Lock()
	delete(t.ctxs, user)
	t.mu.Unlock()
}

// ClearIf забывает контекст, только если он всё ещё равен room.
func (t *Tracker) ClearIf(user, room string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := t.ctxs[user]; ok && cur == room {
		delete(t.ctxs, user)
		return true
	}
	return false
}

// InContext: смотрит ли user сейчас на room.
func (t *Tracker) InContext(user, room string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return room != "" && t.ctxs[user] == room
}

// FocusedOn возвращает тех из users, у кого открыта room.
func (t *Tracker) FocusedOn(room string, users []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	for _, u := range users {
		if t.ctxs[u] == room {
			out = append(out, u)
		}
	}
	return out
}
