package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/adoptly/apiserver/internal/events"
	"github.com/adoptly/apiserver/types"
)

// MessageRepository defines persistence operations for the contact inbox.
type MessageRepository interface {
	Create(ctx context.Context, msg types.Message) (types.Message, error)
	List(ctx context.Context) ([]types.Message, error)
	Delete(ctx context.Context, id int) error
}

// MessageInput is a contact-form submission.
type MessageInput struct {
	Name    string `json:"name" validate:"notblank,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Message string `json:"message" validate:"notblank,max=5000"`
}

// MessageService handles the public contact form and the admin inbox.
type MessageService struct {
	repo      MessageRepository
	publisher EventPublisher
	logger    *slog.Logger
}

func NewMessageService(repo MessageRepository, publisher EventPublisher, logger *slog.Logger) *MessageService {
	return &MessageService{repo: repo, publisher: publisher, logger: logger}
}

func (s *MessageService) Send(ctx context.Context, in MessageInput) (types.Message, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)
	if err := Validate(in); err != nil {
		return types.Message{}, err
	}

	msg, err := s.repo.Create(ctx, types.Message{Name: in.Name, Email: in.Email, Body: in.Message})
	if err != nil {
		return types.Message{}, err
	}
	publish(ctx, s.publisher, s.logger, events.ForMessage(msg))
	return msg, nil
}

// List returns the inbox, newest first.
func (s *MessageService) List(ctx context.Context) ([]types.Message, error) {
	return s.repo.List(ctx)
}

// Delete removes a message. It returns store.ErrNotFound when id is unknown.
func (s *MessageService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
