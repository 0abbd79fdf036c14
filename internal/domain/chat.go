package domain

import "time"

type Chat struct {
	ID        int64
	User1ID   UserID
	User2ID   UserID
	CreatedAt time.Time
}

// CanonicalPair упорядочивает участников по id: одна пара: один чат.
func CanonicalPair(a, b UserID) (UserID, UserID) {
	if b < a {
		return b, a
	}
	return a, b
}

func (c *Chat) Has(id UserID) bool {
	return c.User1ID == id || c.User2ID == id
}

func (c *Chat) Other(id UserID) UserID {
	if c.User1ID == id {
		return c.User2ID
	}
	return c.User1ID
}

// ChatListItem: строка списка чатов (личные, группы, каналы вместе).
type ChatListItem struct {
	Kind        RoomKind   `json:"kind"`
	Room        string     `json:"room"`
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	LastMessage *string    `json:"last_message"`
	LastTime    *time.Time `json:"last_time"`
	UnreadCount int        `json:"unread_count"`
}
