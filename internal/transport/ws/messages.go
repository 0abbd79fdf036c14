package ws

import (
	"encoding/json"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
)

// Входящие события (клиент -> сервер)
const (
	EventJoin           = "join"
	EventSetChatContext = "set_chat_context"
	EventTyping         = "typing"
	EventStopTyping     = "stop_typing"
	EventSendMessage    = "send_message"
	EventDeleteMessage  = "delete_message"
	EventEditMessage    = "edit_message"
	EventPinMessage     = "pin_message"
	EventUnpinMessage   = "unpin_message"
	EventCreateGroup    = "create_group"
	EventNewChat        = "new_chat"
	EventDeleteChat     = "delete_chat_socket"
)

// Исходящие события (сервер -> клиент)
const (
	TypeUserStatus      = "user_status_update"
	TypeOnlineUsers     = "online_users" // снапшот онлайна при подключении
	TypeReceiveMessage  = "receive_message"
	TypeMessageStatus   = "message_status"
	TypeTyping          = "typing"
	TypeStopTyping      = "stop_typing"
	TypeMessageDeleted  = "message_deleted"
	TypeMessageEdited   = "message_edited"
	TypePinnedMessage   = "pinned_message"
	TypeUnpinnedMessage = "unpinned_message"
	TypeGroupCreated    = "group_created"
	TypeGroupError      = "group_error"
	TypeNewChat         = "new_chat"
	TypeChatDeleted     = "chat_deleted"
	TypeUpdateChatList  = "update_chat_list"
	TypePushNotify      = "push_notification"
	TypeError           = "error"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// inbound: то же, но payload разбираем только после выбора обработчика.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// --- payloads: in ---

type RoomPayload struct {
	Room string `json:"room"`
}

type SendMessagePayload struct {
	Room            string  `json:"room"`
	Msg             string  `json:"msg"`
	ParentMessageID *int64  `json:"parent_message_id,omitempty"`
	MessageType     string  `json:"message_type,omitempty"`
	AudioPath       *string `json:"audio_path,omitempty"`
}

type DeleteMessagePayload struct {
	MsgID int64  `json:"msg_id"`
	Room  string `json:"room"`
}

type EditMessagePayload struct {
	MsgID  int64  `json:"msg_id"`
	NewMsg string `json:"new_msg"`
	Room   string `json:"room"`
}

type PinPayload struct {
	Group string `json:"group"`
	MsgID int64  `json:"msg_id,omitempty"`
}

type CreateGroupPayload struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type WithPayload struct {
	With string `json:"with"`
}

// --- payloads: out ---

type UserStatusPayload struct {
	User   string `json:"user"`
	Status string `json:"status"`
}

type OnlineUsersPayload struct {
	Users []string `json:"users"`
}

type ReceiveMessagePayload struct {
	MsgID           int64     `json:"msg_id"`
	Msg             string    `json:"msg"`
	Sender          string    `json:"sender"`
	Room            string    `json:"room"`
	Timestamp       time.Time `json:"timestamp"`
	Status          string    `json:"status"`
	MessageType     string    `json:"message_type"`
	ParentMessageID *int64    `json:"parent_message_id,omitempty"`
	AudioPath       *string   `json:"audio_path,omitempty"`
}

type MessageStatusPayload struct {
	MsgID  int64  `json:"msg_id"`
	Status string `json:"status"`
	Room   string `json:"room"`
}

type TypingPayload struct {
	Sender string `json:"sender,omitempty"`
	Room   string `json:"room"`
}

type MessageDeletedPayload struct {
	MsgID int64  `json:"msg_id"`
	Room  string `json:"room"`
}

type MessageEditedPayload struct {
	MsgID  int64  `json:"msg_id"`
	NewMsg string `json:"new_msg"`
	Room   string `json:"room"`
}

type PinnedPayload struct {
	MsgID int64  `json:"msg_id"`
	Msg   string `json:"msg"`
	Group string `json:"group"`
}

type GroupPayload struct {
	Name string `json:"name"`
}

type GroupErrorPayload struct {
	Msg string `json:"msg"`
}

type PushPayload struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
	Room    string `json:"room"`
}

type ErrorPayload struct {
	Event   string `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func receivePayload(m *domain.Message, room string) ReceiveMessagePayload {
	p := ReceiveMessagePayload{
		MsgID:       int64(m.ID),
		Msg:         m.Body,
		Sender:      m.Sender,
		Room:        room,
		Timestamp:   m.CreatedAt,
		Status:      m.Status.String(),
		MessageType: string(m.Kind),
		AudioPath:   m.MediaPath,
	}
	if m.ParentID != nil {
		id := int64(*m.ParentID)
		p.ParentMessageID = &id
	}
	return p
}

func statusMessage(id domain.MessageID, status domain.Status, room string) Message {
	return Message{
		Type:    TypeMessageStatus,
		Payload: MessageStatusPayload{MsgID: int64(id), Status: status.String(), Room: room},
	}
}
