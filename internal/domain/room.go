package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type RoomKind uint8

const (
	RoomDirect RoomKind = iota + 1
	RoomGroup
	RoomChannel
)

func (k RoomKind) String() string {
	switch k {
	case RoomDirect:
		return "direct"
	case RoomGroup:
		return "group"
	case RoomChannel:
		return "channel"
	default:
		return "unknown"
	}
}

func (k RoomKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *RoomKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "direct":
		*k = RoomDirect
	case "group":
		*k = RoomGroup
	case "channel":
		*k = RoomChannel
	default:
		return ErrInvalidRoom
	}
	return nil
}

const (
	groupPrefix   = "group_"
	channelPrefix = "channel_"
)

// Room: разобранный идентификатор комнаты.
// Для личного чата заполнен Peers (в каноническом порядке), для группы/канала: Name.
type Room struct {
	Kind  RoomKind
	Name  string
	Peers [2]string
}

func DirectRoom(a, b string) Room {
	a, b = NormalizeUsername(a), NormalizeUsername(b)
	if b < a {
		a, b = b, a
	}
	return Room{Kind: RoomDirect, Peers: [2]string{a, b}}
}

func GroupRoom(name string) Room {
	return Room{Kind: RoomGroup, Name: strings.TrimSpace(name)}
}

func ChannelRoom(name string) Room {
	return Room{Kind: RoomChannel, Name: strings.TrimSpace(name)}
}

// ID: строковый id комнаты, совместимый с клиентом:
// "{min}_{max}", "group_{name}", "channel_{name}".
func (r Room) ID() string {
	switch r.Kind {
	case RoomDirect:
		return r.Peers[0] + "_" + r.Peers[1]
	case RoomGroup:
		return groupPrefix + r.Name
	case RoomChannel:
		return channelPrefix + r.Name
	default:
		return ""
	}
}

func (r Room) String() string { return r.ID() }

// Peer возвращает собеседника self в личной комнате.
func (r Room) Peer(self string) (string, bool) {
	if r.Kind != RoomDirect {
		return "", false
	}
	switch self {
	case r.Peers[0]:
		return r.Peers[1], true
	case r.Peers[1]:
		return r.Peers[0], true
	default:
		return "", false
	}
}

func ParseRoom(raw string) (Room, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, groupPrefix):
		r := GroupRoom(strings.TrimPrefix(raw, groupPrefix))
		if err := ValidateRoomName(r.Name); err != nil {
			return Room{}, ErrInvalidRoom
		}
		return r, nil
	case strings.HasPrefix(raw, channelPrefix):
		r := ChannelRoom(strings.TrimPrefix(raw, channelPrefix))
		if err := ValidateRoomName(r.Name); err != nil {
			return Room{}, ErrInvalidRoom
		}
		return r, nil
	}

	a, b, ok := strings.Cut(raw, "_")
	if !ok || strings.Contains(b, "_") {
		return Room{}, ErrInvalidRoom
	}
	a, b = NormalizeUsername(a), NormalizeUsername(b)
	if ValidateUsername(a) != nil || ValidateUsername(b) != nil || a == b {
		return Room{}, ErrInvalidRoom
	}
	return DirectRoom(a, b), nil
}

// ValidateRoomName проверяет имя группы/канала.
func ValidateRoomName(name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 || n > 64 || strings.TrimSpace(name) != name {
		return ErrInvalidName
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return ErrInvalidName
		}
	}
	return nil
}

// Conversation: ссылка на хранимую беседу: вид + id строки в своей таблице.
type Conversation struct {
	Kind RoomKind `json:"kind"`
	ID   int64    `json:"id"`
}

// Target: комната, разрешённая против хранилища: беседа и её участники.
type Target struct {
	Room         Room
	Conversation Conversation
	Members      []string
}

func (t *Target) HasMember(username string) bool {
	for _, m := range t.Members {
		if m == username {
			return true
		}
	}
	return false
}
