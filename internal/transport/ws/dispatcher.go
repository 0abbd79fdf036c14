package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/presence"
	"github.com/cwrk-planet/messenger/internal/roomctx"
	"github.com/cwrk-planet/messenger/internal/service"
)

type MessageSvc interface {
	Send(ctx context.Context, actor domain.UserSummary, room domain.Room, draft domain.Draft) (*service.Sent, error)
	AdvanceStatus(ctx context.Context, room domain.Room, id domain.MessageID, to domain.Status) (bool, error)
	SweepRead(ctx context.Context, actor domain.UserSummary, room domain.Room) ([]domain.MessageID, error)
	Edit(ctx context.Context, actor domain.UserSummary, room domain.Room, id domain.MessageID, body string) (*domain.Message, error)
	Delete(ctx context.Context, actor domain.UserSummary, room domain.Room, id domain.MessageID) error
	Pin(ctx context.Context, actor domain.UserSummary, room domain.Room, id domain.MessageID) (*domain.Message, error)
	Unpin(ctx context.Context, actor domain.UserSummary, room domain.Room) error
	CreateGroup(ctx context.Context, actor domain.UserSummary, name string, members []string) (*domain.Group, []string, error)
	PeerExists(ctx context.Context, username string) (string, error)
}

type RoomAuthorizer interface {
	Authorize(ctx context.Context, actor domain.UserSummary, room domain.Room) (*service.Resolved, error)
}

// Dispatcher разбирает входящие события соединения и раздаёт результат подписчикам.
type Dispatcher struct {
	hub      *Hub
	presence *presence.Registry[Conn]
	contexts *roomctx.Tracker
	msgs     MessageSvc
	rooms    RoomAuthorizer

	eventTimeout time.Duration
}

func NewDispatcher(
	hub *Hub,
	reg *presence.Registry[Conn],
	contexts *roomctx.Tracker,
	msgs MessageSvc,
	rooms RoomAuthorizer,
	eventTimeout time.Duration,
) *Dispatcher {
	if eventTimeout <= 0 {
		eventTimeout = 5 * time.Second
	}
	return &Dispatcher{
		hub:          hub,
		presence:     reg,
		contexts:     contexts,
		msgs:         msgs,
		rooms:        rooms,
		eventTimeout: eventTimeout,
	}
}

func (d *Dispatcher) Hub() *Hub { return d.hub }

// Connect регистрирует соединение: онлайн-статус другим, снапшот онлайна себе.
func (d *Dispatcher) Connect(c Conn) {
	user := c.User().Username
	d.hub.Add(c)
	if d.presence.MarkOnline(user, c) {
		d.hub.BroadcastAll(Message{
			Type:    TypeUserStatus,
			Payload: UserStatusPayload{User: user, Status: StatusOnline},
		}, c)
	}

	_ = c.Send(Message{Type: TypeOnlineUsers, Payload: OnlineUsersPayload{Users: d.presence.Online()}})
}

// Disconnect: вытесненная вкладка не снимает онлайн и контекст более новой.
func (d *Dispatcher) Disconnect(c Conn) {
	user := c.User().Username
	d.hub.Remove(c)
	if !d.presence.Release(user, c) {
		return
	}
	d.contexts.Clear(user)
	d.hub.BroadcastAll(Message{
		Type:    TypeUserStatus,
		Payload: UserStatusPayload{User: user, Status: StatusOffline},
	}, c)
}

// Handle обрабатывает одно событие. Ошибка уходит только отправителю.
func (d *Dispatcher) Handle(ctx context.Context, c Conn, data []byte) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		d.fail(c, "", domain.ErrInvalidInput)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, d.eventTimeout)
	defer cancel()

	var err error
	switch in.Type {
	case EventJoin:
		err = d.join(ctx, c, in.Payload)
	case EventSetChatContext:
		err = d.setContext(ctx, c, in.Payload)
	case EventTyping, EventStopTyping:
		err = d.typing(ctx, c, in.Type, in.Payload)
	case EventSendMessage:
		err = d.sendMessage(ctx, c, in.Payload)
	case EventDeleteMessage:
		err = d.deleteMessage(ctx, c, in.Payload)
	case EventEditMessage:
		err = d.editMessage(ctx, c, in.Payload)
	case EventPinMessage:
		err = d.pin(ctx, c, in.Payload)
	case EventUnpinMessage:
		err = d.unpin(ctx, c, in.Payload)
	case EventCreateGroup:
		err = d.createGroup(ctx, c, in.Payload)
	case EventNewChat:
		err = d.notifyPeer(ctx, c, in.Payload, TypeNewChat)
	case EventDeleteChat:
		err = d.notifyPeer(ctx, c, in.Payload, TypeChatDeleted)
	default:
		slog.Debug("ws unknown event", slog.String("type", in.Type), slog.String("conn", c.ID()))
		return
	}
	if err != nil {
		d.fail(c, in.Type, err)
	}
}

func (d *Dispatcher) fail(c Conn, event string, err error) {
	code := domain.Code(err)
	msg := err.Error()
	if code == "internal" {
		slog.Error("ws."+event+" failed", slog.String("user", c.User().Username), slog.Any("err", err))
		msg = "internal error"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "timeout"
		}
	}
	_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Event: event, Code: code, Message: msg}})
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, domain.ErrInvalidInput
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, domain.ErrInvalidInput
	}
	return v, nil
}

func (d *Dispatcher) join(ctx context.Context, c Conn, raw json.RawMessage) error {
	p, err := decode[RoomPayload](raw)
	if err != nil {
		return err
	}
	room, err := domain.ParseRoom(p.Room)
	if err != nil {
		return err
	}
	if _, err := d.rooms.Authorize(ctx, c.User(), room); err != nil {
		return err
	}
	d.hub.Join(room.ID(), c)
	return nil
}

// setContext: пустая комната снимает фокус; иначе фокус и зачистка непрочитанных в ней.
func (d *Dispatcher) setContext(ctx context.Context, c Conn, raw json.RawMessage) error {
	p, err := decode[RoomPayload](raw)
	if err != nil {
		return err
	}
	user := c.User()
	if p.Room == "" {
		d.contexts.Clear(user.Username)
		return nil
	}
	room, err := domain.ParseRoom(p.Room)
	if err != nil {
		return err
	}

	unlock := d.hub.LockRoom(room.ID())
	defer unlock()

	ids, err := d.msgs.SweepRead(ctx, user, room)
	if err != nil {
		return err
	}
	d.contexts.Set(user.Username, room.ID())
	for _, id := range ids {
		d.hub.Broadcast(room.ID(), statusMessage(id, domain.StatusRead, room.ID()), nil)
	}
	return nil
}

func (d *Dispatcher) typing(ctx context.Context, c Conn, event string, raw json.RawMessage) error {
	p, err := decode[RoomPayload](raw)
	if err != nil {
		return err
	}
	room, err := domain.ParseRoom(p.Room)
	if err != nil {
		return err
	}
	// не подписан: значит не проходил join; молча игнорируем
	if !d.hub.InRoom(room.ID(), c) {
		return nil
	}

	out := Message{Type: TypeStopTyping, Payload: TypingPayload{Room: room.ID()}}
	if event == EventTyping {
		out = Message{Type: TypeTyping, Payload: TypingPayload{Sender: c.User().Username, Room: room.ID()}}
	}
	d.hub.Broadcast(room.ID(), out, c)
	return nil
}

func (d *Dispatcher) sendMessage(ctx context.Context, c Conn, raw json.RawMessage) error {
	p, err := decode[SendMessagePayload](raw)
	if err != nil {
		return err
	}
	room, err := domain.ParseRoom(p.Room)
	if err != nil {
		return err
	}
	kind, err := domain.ParseMessageKind(p.MessageType)
	if err != nil {
		return err
	}
	draft := domain.Draft{Body: p.Msg, Kind: kind, MediaPath: p.AudioPath}
	if p.ParentMessageID != nil {
		id := domain.MessageID(*p.ParentMessageID)
		draft.ParentID = &id
	}

	actor := c.User()
	roomID := room.ID()
	unlock := d.hub.LockRoom(roomID)
	defer unlock()

	sent, err := d.msgs.Send(ctx, actor, room, draft)
	if err != nil {
		return err
	}
	m := sent.Message
	// отправитель мог ещё не сделать join: он всё равно получает своё сообщение
	d.hub.Join(roomID, c)
	d.hub.Broadcast(roomID, Message{Type: TypeReceiveMessage, Payload: receivePayload(m, roomID)}, nil)

	if err := d.advance(ctx, room, m, domain.StatusDelivered); err != nil {
		return err
	}

	others := make([]string, 0, len(sent.Room.Members))
	for _, u := range sent.Room.Members {
		if u != actor.Username {
			others = append(others, u)
		}
	}
	if len(d.contexts.FocusedOn(roomID, others)) > 0 {
		if err := d.advance(ctx, room, m, domain.StatusRead); err != nil {
			return err
		}
	}

	for _, u := range sent.Room.Members {
		if h, ok := d.presence.Handle(u); ok {
			_ = h.Send(Message{Type: TypeUpdateChatList, Payload: RoomPayload{Room: roomID}})
		}
	}

	if peer, ok := room.Peer(actor.Username); ok && !d.contexts.InContext(peer, roomID) {
		if h, online := d.presence.Handle(peer); online {
			_ = h.Send(Message{
				Type:    TypePushNotify,
				Payload: PushPayload{Sender: actor.Username, Message: m.Body, Room: roomID},
			})
		}
	}
	return nil
}

// advance двигает статус и сообщает комнате, только если он действительно сменился.
func (d *Dispatcher) advance(ctx context.Context, room domain.Room, m *domain.Message, to domain.Status) error {
	changed, err := d.msgs.AdvanceStatus(ctx, room, m.ID, to)
	if err != nil {
		return err
	}
	if changed {
		m.Status = to
		d.hub.Broadcast(room.ID(), statusMessage(m.ID, to, room.ID()), nil)
	}
	return nil
}

func (d *Dispatcher) deleteMessage(ctx context.Context, c Conn, raw json.RawMessage) error {
	p, err := decode[DeleteMessagePayload](raw)
	if err != nil {
		return err
	}
	room, err := domain.ParseRoom(p.Room)
	if err != nil {
		return err
	}

	unlock := d.hub.LockRoom(room.ID())
	defer unlock()

	if err := d.msgs.Delete(ctx, c.User(), room, domain.MessageID(p.MsgID)); err != nil {
		return err
	}
	d.hub.Broadcast(room.ID(), Message{
		Type:    TypeMessageDeleted,
		Payload: MessageDeletedPayload{MsgID: p.MsgID, Room: room.ID()},
	}, nil)
	return nil
}

func (d *Dispatcher) editMessage(ctx context.Context, c Conn, raw json.RawMessage) error {
	p, err := decode[EditMessagePayload](raw)
	if err != nil {
		return err
	}
	room, err := domain.ParseRoom(p.Room)
	if err != nil {
		return err
	}

	unlock := d.hub.LockRoom(room.ID())
	defer unlock()

	m, err := d.msgs.Edit(ctx, c.User(), room, domain.MessageID(p.MsgID), p.NewMsg)
	if err != nil {
		return err
	}
	d.hub.Broadcast(room.ID(), Message{
		Type:    TypeMessageEdited,
		Payload: MessageEditedPayload{MsgID: int64(m.ID), NewMsg: m.Body, Room: room.ID()},
	}, nil)
	return nil
}

func (d *Dispatcher) pin(ctx context.Context, c Conn, raw json.RawMessage) error {
	p, err := decode[PinPayload](raw)
	if err != nil {
		return err
	}
	room := domain.GroupRoom(p.Group)

	unlock := d.hub.LockRoom(room.ID())
	defer unlock()

	m, err := d.msgs.Pin(ctx, c.User(), room, domain.MessageID(p.MsgID))
	if err != nil {
		return err
	}
	d.hub.Broadcast(room.ID(), Message{
		Type:    TypePinnedMessage,
		Payload: PinnedPayload{MsgID: int64(m.ID), Msg: m.Body, Group: room.Name},
	}, nil)
	return nil
}

func (d *Dispatcher) unpin(ctx context.Context, c Conn, raw json.RawMessage) error {
	p, err := decode[PinPayload](raw)
	if err != nil {
		return err
	}
	room := domain.GroupRoom(p.Group)

	unlock := d.hub.LockRoom(room.ID())
	defer unlock()

	if err := d.msgs.Unpin(ctx, c.User(), room); err != nil {
		return err
	}
	d.hub.Broadcast(room.ID(), Message{Type: TypeUnpinnedMessage, Payload: PinPayload{Group: room.Name}}, nil)
	return nil
}

// createGroup: занятое имя: group_error создателю; group_created уходит только онлайн-участникам.
func (d *Dispatcher) createGroup(ctx context.Context, c Conn, raw json.RawMessage) error {
	p, err := decode[CreateGroupPayload](raw)
	if err != nil {
		return err
	}

	g, members, err := d.msgs.CreateGroup(ctx, c.User(), p.Name, p.Members)
	if errors.Is(err, domain.ErrConflict) {
		_ = c.Send(Message{Type: TypeGroupError, Payload: GroupErrorPayload{Msg: "group name already taken"}})
		return nil
	}
	if err != nil {
		return err
	}

	out := Message{Type: TypeGroupCreated, Payload: GroupPayload{Name: g.Name}}
	for _, u := range members {
		if h, ok := d.presence.Handle(u); ok {
			_ = h.Send(out)
		}
	}
	return nil
}

// notifyPeer: new_chat / chat_deleted собеседнику, если он онлайн.
func (d *Dispatcher) notifyPeer(ctx context.Context, c Conn, raw json.RawMessage, outType string) error {
	p, err := decode[WithPayload](raw)
	if err != nil {
		return err
	}
	peer, err := d.msgs.PeerExists(ctx, domain.NormalizeUsername(p.With))
	if err != nil {
		return err
	}
	if h, ok := d.presence.Handle(peer); ok {
		_ = h.Send(Message{Type: outType, Payload: WithPayload{With: c.User().Username}})
	}
	return nil
}

// NotifyUser: для HTTP-обработчиков: событие пользователю, если он онлайн.
func (d *Dispatcher) NotifyUser(username string, msg Message) bool {
	h, ok := d.presence.Handle(username)
	if !ok {
		return false
	}
	_ = h.Send(msg)
	return true
}

// Online: снапшот онлайн-пользователей.
func (d *Dispatcher) Online() []string { return d.presence.Online() }
