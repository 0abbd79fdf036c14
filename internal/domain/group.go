package domain

import "time"

type Group struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	CreatorID   UserID     `json:"creator_id"`
	PinnedMsgID *MessageID `json:"pinned_msg_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (g *Group) Room() Room { return GroupRoom(g.Name) }
