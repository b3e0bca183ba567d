package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/campusmatch/internal/app"
	"github.com/oggyb/campusmatch/internal/db"
	svcErr "github.com/oggyb/campusmatch/internal/errors"
	"github.com/oggyb/campusmatch/internal/logger"
	"github.com/oggyb/campusmatch/internal/metrics"
	"github.com/oggyb/campusmatch/internal/repository"
	"github.com/oggyb/campusmatch/internal/room"
	"github.com/oggyb/campusmatch/internal/ws"
)

const maxMessageLen = 2000

// Reaction actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// Message is the client view of a persisted chat message.
type Message struct {
	ID        uint64              `json:"id"`
	RoomID    string              `json:"roomId"`
	Sender    string              `json:"sender"`
	Receiver  string              `json:"receiver"`
	Text      string              `json:"text"`
	Status    string              `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
	Reactions map[string][]string `json:"reactions"`
}

func toView(m *db.Message) Message {
	reactions := map[string][]string{}
	for _, r := range m.Reactions {
		reactions[r.Emoji] = append(reactions[r.Emoji], r.UserEmail)
	}
	for _, users := range reactions {
		sort.Strings(users)
	}
	return Message{
		ID:        m.ID,
		RoomID:    m.RoomID,
		Sender:    m.Sender,
		Receiver:  m.Receiver,
		Text:      m.Text,
		Status:    m.Status,
		Timestamp: m.CreatedAt,
		Reactions: reactions,
	}
}

// ReadReceipt is broadcast when a reader marks a conversation as read.
type ReadReceipt struct {
	RoomID  string `json:"roomId"`
	Reader  string `json:"reader"`
	Sender  string `json:"sender"`
	Updated int64  `json:"updated"`
}

// outgoing is the payload of an inbound "chat message" frame.
type outgoing struct {
	Receiver string `json:"receiver"`
	Text     string `json:"text"`
}

// Service persists chat messages and relays them through the hub.
type Service struct {
	appCtx   *app.AppContext
	hub      *ws.Hub
	messages *repository.MessageRepository
	blocks   *repository.BlockRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		hub:      appCtx.Hub,
		messages: repository.NewMessageRepository(appCtx.DB),
		blocks:   repository.NewBlockRepository(appCtx.DB),
	}
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx, s.appCtx.Logger)
}

func validate(sender, receiver, text string) error {
	switch {
	case sender == "" || receiver == "":
		return svcErr.InvalidArgument("sender and receiver are required")
	case sender == receiver:
		return svcErr.InvalidArgument("cannot message yourself")
	case strings.TrimSpace(text) == "":
		return svcErr.InvalidArgument("text is required")
	case len(text) > maxMessageLen:
		return svcErr.InvalidArgument("text is too long")
	}
	return nil
}

// persist validates, checks blocks and stores the message.
func (s *Service) persist(ctx context.Context, sender, receiver, text string) (*db.Message, error) {
	if err := validate(sender, receiver, text); err != nil {
		return nil, err
	}
	blocked, err := s.blocks.BlockedEither(ctx, sender, receiver)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if blocked {
		return nil, svcErr.PermissionDenied("messaging is disabled between these users")
	}

	m := &db.Message{
		RoomID:   room.ID(sender, receiver),
		Sender:   sender,
		Receiver: receiver,
		Text:     text,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		s.log(ctx).Error("message persist failed", "room", m.RoomID, "err", err)
		return nil, svcErr.Map(err)
	}
	return m, nil
}

// Send persists a message and broadcasts it to every live member of the room.
//
// Behavior:
//   - Sender and receiver are required and must differ; text must be non-blank.
//   - A block in either direction is rejected with PermissionDenied.
//   - Broadcast happens only after the message is stored.
func (s *Service) Send(ctx context.Context, sender, receiver, text string) (*Message, error) {
	m, err := s.persist(ctx, sender, receiver, text)
	if err != nil {
		return nil, err
	}
	view := toView(m)
	if err := s.hub.Broadcast(ctx, m.RoomID, ws.EventChatMessage, view, nil); err != nil {
		s.log(ctx).Warn("broadcast failed", "room", m.RoomID, "err", err)
	}
	metrics.MessagesRelayed.WithLabelValues("http").Inc()
	return &view, nil
}

// History returns the room's messages oldest first. Errors degrade to an empty list.
func (s *Service) History(ctx context.Context, a, b string) []Message {
	out := []Message{}
	if a == "" || b == "" {
		return out
	}
	msgs, err := s.messages.History(ctx, room.ID(a, b))
	if err != nil {
		s.log(ctx).Error("history failed", "err", err)
		return out
	}
	for i := range msgs {
		out = append(out, toView(&msgs[i]))
	}
	return out
}

// React adds or removes email's emoji on a message and broadcasts the result.
// Only the two participants may react.
func (s *Service) React(ctx context.Context, messageID uint64, emoji, email, action string) (*Message, error) {
	if messageID == 0 || emoji == "" || email == "" {
		return nil, svcErr.InvalidArgument("messageId, emoji and email are required")
	}
	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotFound("message not found")
		}
		return nil, svcErr.Map(err)
	}
	if email != m.Sender && email != m.Receiver {
		return nil, svcErr.PermissionDenied("not a participant of this conversation")
	}

	switch action {
	case ActionAdd, "":
		err = s.messages.AddReaction(ctx, messageID, emoji, email)
	case ActionRemove:
		err = s.messages.RemoveReaction(ctx, messageID, emoji, email)
	default:
		return nil, svcErr.InvalidArgument("action must be add or remove")
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}

	m, err = s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	view := toView(m)
	if err := s.hub.Broadcast(ctx, m.RoomID, ws.EventMessageReaction, view, nil); err != nil {
		s.log(ctx).Warn("broadcast failed", "room", m.RoomID, "err", err)
	}
	return &view, nil
}

// MarkRead marks every message sender sent to reader as read and broadcasts a receipt.
func (s *Service) MarkRead(ctx context.Context, reader, sender string) (int64, error) {
	if reader == "" || sender == "" || reader == sender {
		return 0, svcErr.InvalidArgument("reader and sender are required and must differ")
	}
	roomID := room.ID(reader, sender)
	n, err := s.messages.MarkRead(ctx, roomID, sender, reader)
	if err != nil {
		return 0, svcErr.Map(err)
	}
	if n > 0 {
		receipt := ReadReceipt{RoomID: roomID, Reader: reader, Sender: sender, Updated: n}
		if err := s.hub.Broadcast(ctx, roomID, ws.EventMessagesRead, receipt, nil); err != nil {
			s.log(ctx).Warn("broadcast failed", "room", roomID, "err", err)
		}
	}
	return n, nil
}

// HandleFrame implements ws.Handler for join, leave and chat message frames.
func (s *Service) HandleFrame(ctx context.Context, c *ws.Client, f ws.Frame) {
	switch f.Event {
	case ws.EventJoin:
		s.join(ctx, c, f.Data)
	case ws.EventLeave:
		var roomID string
		if err := json.Unmarshal(f.Data, &roomID); err == nil {
			s.hub.Leave(c, roomID)
		}
	case ws.EventChatMessage:
		s.relay(ctx, c, f.Data)
	default:
		c.SendError("unknown event")
	}
}

func (s *Service) join(ctx context.Context, c *ws.Client, data json.RawMessage) {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err != nil {
		c.SendError("room must be a string")
		return
	}
	other, ok := room.Counterpart(roomID, c.Email)
	if !ok {
		c.SendError("not a participant of this room")
		return
	}
	blocked, err := s.blocks.BlockedEither(ctx, c.Email, other)
	if err != nil {
		c.Logger().Error("block lookup failed", "room", roomID, "err", err)
		c.SendError("internal server error")
		return
	}
	if blocked {
		c.SendError("messaging is disabled between these users")
		return
	}
	s.hub.Join(c, roomID)
	c.SendEvent(ws.EventJoined, roomID)
}

// relay persists then rebroadcasts. A failed write is reported to the sender only.
func (s *Service) relay(ctx context.Context, c *ws.Client, data json.RawMessage) {
	var in outgoing
	if err := json.Unmarshal(data, &in); err != nil {
		c.SendError("invalid message payload")
		return
	}
	m, err := s.persist(ctx, c.Email, in.Receiver, in.Text)
	if err != nil {
		_, msg := svcErr.HTTPStatus(err)
		c.SendError(msg)
		return
	}
	if err := s.hub.Broadcast(ctx, m.RoomID, ws.EventChatMessage, toView(m), c); err != nil {
		c.Logger().Warn("broadcast failed", "room", m.RoomID, "err", err)
	}
	metrics.MessagesRelayed.WithLabelValues("ws").Inc()
}
