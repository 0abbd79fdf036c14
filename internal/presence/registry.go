// Package presence: процессный реестр онлайна: пользователь → хэндл соединения.
package presence

import (
	"sort"
	"sync"
	"time"
)

type entry[H comparable] struct {
	handle H
	since  time.Time
}

// Registry хранит одно текущее соединение на пользователя (последнее подключение побеждает)
// и время последнего перехода online/offline.
type Registry[H comparable] struct {
	mu       sync.Mutex
	online   map[string]entry[H]
	lastSeen map[string]time.Time
	now      func() time.Time
}

func NewRegistry[H comparable]() *Registry[H] {
	return &Registry[H]{
		online:   make(map[string]entry[H]),
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// MarkOnline перезаписывает прежний хэндл. wasOffline=true, если до этого пользователя не было в сети.
func (r *Registry[H]) MarkOnline(user string, handle H) (wasOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, had := r.online[user]
	now := r.now()
	r.online[user] = entry[H]{handle: handle, since: now}
	r.lastSeen[user] = now
	return !had
}

// MarkOffline безусловно снимает пользователя. Возвращает false, если он и так был офлайн.
func (r *Registry[H]) MarkOffline(user string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.dropLocked(user)
}

// Release снимает пользователя, только если handle всё ещё текущий:
// закрытие вытесненной вкладки не выкидывает новую.
func (r *Registry[H]) Release(user string, handle H) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.online[user]
	if !ok || e.handle != handle {
		return false
	}
	return r.dropLocked(user)
}

func (r *Registry[H]) dropLocked(user string) bool {
	if _, ok := r.online[user]; !ok {
		return false
	}
	delete(r.online, user)
	r.lastSeen[user] = r.now()
	return true
}

func (r *Registry[H]) IsOnline(user string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.online[user]
	return ok
}

// Handle: текущее соединение пользователя.
func (r *Registry[H]) Handle(user string) (H, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.online[user]
	return e.handle, ok
}

// LastSeen: время подключения, пока пользователь онлайн, и время отключения после.
func (r *Registry[H]) LastSeen(user string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.lastSeen[user]
	return t, ok
}

// Online: отсортированный снимок пользователей в сети.
func (r *Registry[H]) Online() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.online))
	for u := range r.online {
		out = append(out, u)
	}
	r.mu.Unlock()

	sort.Strings(out)
	return out
}
