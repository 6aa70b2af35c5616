// Package chat orchestrates chat creation and ordered message appends.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boosthub/boosthub/internal/bus"
	"github.com/boosthub/boosthub/internal/docstore"
	"github.com/boosthub/boosthub/internal/model"
	"github.com/boosthub/boosthub/internal/notify"
	"github.com/boosthub/boosthub/internal/session"
	"go.uber.org/zap"
)

const (
	// Collection holding the chat documents.
	Collection = "chats"
	// MessagesSub is the ordered message sub-collection of a chat.
	MessagesSub = "messages"
)

// ErrInvalidParticipant rejects empty or self-referencing chat partners,
// keeping participant lists non-empty and duplicate-free.
var ErrInvalidParticipant = errors.New("invalid chat participant")

// Service runs the chat workflows.
type Service struct {
	sessions *session.Manager
	docs     docstore.Store
	bus      *bus.Bus
	notices  *notify.Center
	logger   *zap.Logger
}

// NewService creates the chat service.
func NewService(sessions *session.Manager, docs docstore.Store, b *bus.Bus, notices *notify.Center, logger *zap.Logger) *Service {
	return &Service{
		sessions: sessions,
		docs:     docs,
		bus:      b,
		notices:  notices,
		logger:   logger,
	}
}

// Create adds a new chat document pairing the other user with the caller,
// in that order. Existing chats between the same pair are not deduplicated;
// calling twice yields two chats.
func (s *Service) Create(ctx context.Context, otherUserID string) (string, error) {
	sess, done, err := s.sessions.Begin()
	if err != nil {
		return "", err
	}
	defer done()

	if otherUserID == "" || otherUserID == sess.UID {
		return "", ErrInvalidParticipant
	}

	c := model.Chat{Participants: []string{otherUserID, sess.UID}}
	id, err := s.docs.Create(ctx, Collection, c.Fields())
	if err != nil {
		s.notices.Post("could not create the chat")
		return "", fmt.Errorf("create chat: %w", err)
	}
	s.logger.Info("chat created", zap.String("chat_id", id))
	s.publish("chat.created", id)
	return id, nil
}

// AddMessage appends a message to a chat's ordered sub-collection, stamped
// with the sender's identity. Content validation is a UI concern.
func (s *Service) AddMessage(ctx context.Context, chatID, content string) (string, error) {
	sess, done, err := s.sessions.Begin()
	if err != nil {
		return "", err
	}
	defer done()

	m := model.Message{ChatID: chatID, SenderID: sess.UID, Content: content}
	id, err := s.docs.Append(ctx, Collection, chatID, MessagesSub, m.Fields())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			s.notices.Post("this chat no longer exists")
		} else {
			s.notices.Post("message could not be sent")
		}
		return "", fmt.Errorf("append message: %w", err)
	}
	s.publish("chat.message_added", chatID)
	return id, nil
}

// Messages returns a chat's messages in append order.
func (s *Service) Messages(ctx context.Context, chatID string) ([]model.Message, error) {
	docs, err := s.docs.ListSub(ctx, Collection, chatID, MessagesSub)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	msgs := make([]model.Message, 0, len(docs))
	for _, d := range docs {
		msgs = append(msgs, model.MessageFromFields(chatID, d.ID, d.Seq, d.CreatedAt, d.Fields))
	}
	return msgs, nil
}

// Get reads one chat document.
func (s *Service) Get(ctx context.Context, chatID string) (model.Chat, error) {
	doc, err := s.docs.Get(ctx, Collection, chatID)
	if err != nil {
		return model.Chat{}, fmt.Errorf("read chat: %w", err)
	}
	return model.ChatFromFields(chatID, doc.Fields), nil
}

func (s *Service) publish(kind, chatID string) {
	s.bus.Publish(bus.Event{
		Kind:      kind,
		Timestamp: time.Now(),
		Payload:   map[string]string{"chat_id": chatID},
	})
}
