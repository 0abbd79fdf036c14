package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

type MessageID int64

// Status доставки. Порядок значений важен: статус только растёт.
type Status uint8

const (
	StatusSent Status = iota
	StatusDelivered
	StatusRead
)

func (s Status) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusDelivered:
		return "delivered"
	case StatusRead:
		return "read"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "sent":
		*s = StatusSent
	case "delivered":
		*s = StatusDelivered
	case "read":
		*s = StatusRead
	default:
		return ErrInvalidInput
	}
	return nil
}

// CanAdvanceTo: переход разрешён только вперёд.
func (s Status) CanAdvanceTo(next Status) bool {
	return next > s && next <= StatusRead
}

type MessageKind string

const (
	KindText    MessageKind = "text"
	KindAudio   MessageKind = "audio"
	KindImage   MessageKind = "image"
	KindForward MessageKind = "forward"
)

func ParseMessageKind(s string) (MessageKind, error) {
	switch k := MessageKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindText, nil
	case KindText, KindAudio, KindImage, KindForward:
		return k, nil
	default:
		return "", ErrInvalidKind
	}
}

const MaxBodyLen = 4000

type Message struct {
	ID           MessageID    `json:"id"`
	Conversation Conversation `json:"conversation"`
	SenderID     UserID       `json:"sender_id"`
	Sender       string       `json:"sender"`
	Body         string       `json:"body"`
	Kind         MessageKind  `json:"kind"`
	ParentID     *MessageID   `json:"parent_id,omitempty"`
	MediaPath    *string      `json:"media_path,omitempty"`
	Status       Status       `json:"status"`
	Edited       bool         `json:"edited"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Draft: то, что присылает клиент в send_message.
type Draft struct {
	Body      string
	Kind      MessageKind
	ParentID  *MessageID
	MediaPath *string
}

// Normalize проверяет и чистит черновик. Медиа-сообщения могут быть без текста.
func (d Draft) Normalize() (Draft, error) {
	d.Body = strings.TrimSpace(d.Body)
	if d.Kind == "" {
		d.Kind = KindText
	}
	if d.MediaPath != nil {
		p := strings.TrimSpace(*d.MediaPath)
		if p == "" {
			d.MediaPath = nil
		} else {
			d.MediaPath = &p
		}
	}
	if d.Body == "" && d.MediaPath == nil {
		return d, ErrEmptyBody
	}
	if utf8.RuneCountInString(d.Body) > MaxBodyLen {
		return d, ErrBodyTooLong
	}
	return d, nil
}

func NormalizeBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > MaxBodyLen {
		return "", ErrBodyTooLong
	}
	return body, nil
}
