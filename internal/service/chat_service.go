package service

import (
	"context"
	"fmt"
	"strings"

	"wayfare/internal/models"
	"wayfare/internal/repository"
)

const (
	maxMessageLen          = 4000
	maxGroupName           = 100
	maxGroupParticipants   = 50
	defaultMessagePageSize = 50
)

// MessagePublisher fans a new message out to connected clients. Implemented
// by the chat hub; nil disables realtime delivery.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, conversationID uint, msg *models.Message)
}

type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	notifier Notify
	realtime MessagePublisher
}

type SendMessageInput struct {
	ConversationID uint
	SenderID       uint
	Content        string
}

type CreateGroupInput struct {
	CreatorID      uint
	Name           string
	ParticipantIDs []uint
}

func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, notifier Notify, realtime MessagePublisher) *ChatService {
	return &ChatService{chatRepo: chatRepo, userRepo: userRepo, notifier: notifier, realtime: realtime}
}

// StartDirect finds or creates the direct conversation between two users.
func (s *ChatService) StartDirect(ctx context.Context, userID, otherID uint) (*models.Conversation, error) {
	if userID == otherID {
		return nil, models.NewValidationError("You cannot start a conversation with yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}

	existing, err := s.chatRepo.FindDirectConversation(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	conv := &models.Conversation{CreatedBy: userID, IsGroup: false}
	if err := s.chatRepo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	if err := s.chatRepo.AddParticipant(ctx, conv.ID, userID); err != nil {
		return nil, err
	}
	if err := s.chatRepo.AddParticipant(ctx, conv.ID, otherID); err != nil {
		return nil, err
	}
	return s.chatRepo.GetConversation(ctx, conv.ID)
}

// CreateGroup creates a group conversation with the creator and the given
// participants.
func (s *ChatService) CreateGroup(ctx context.Context, in CreateGroupInput) (*models.Conversation, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.NewValidationError("Group name is required")
	}
	if len(name) > maxGroupName {
		return nil, models.NewValidationError(fmt.Sprintf("Group name must be at most %d characters", maxGroupName))
	}
	if len(in.ParticipantIDs) == 0 {
		return nil, models.NewValidationError("A group needs at least one other participant")
	}
	if len(in.ParticipantIDs) > maxGroupParticipants {
		return nil, models.NewValidationError(fmt.Sprintf("A group can have at most %d participants", maxGroupParticipants))
	}

	conv := &models.Conversation{Name: name, CreatedBy: in.CreatorID, IsGroup: true}
	if err := s.chatRepo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	if err := s.chatRepo.AddParticipant(ctx, conv.ID, in.CreatorID); err != nil {
		return nil, err
	}
	for _, pid := range in.ParticipantIDs {
		if pid == in.CreatorID {
			continue
		}
		if _, err := s.userRepo.GetByID(ctx, pid); err != nil {
			return nil, err
		}
		if err := s.chatRepo.AddParticipant(ctx, conv.ID, pid); err != nil {
			return nil, err
		}
	}
	return s.chatRepo.GetConversation(ctx, conv.ID)
}

func (s *ChatService) ListConversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	return s.chatRepo.GetUserConversations(ctx, userID)
}

func (s *ChatService) GetConversation(ctx context.Context, convID, userID uint) (*models.Conversation, error) {
	if err := s.requireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}
	return s.chatRepo.GetConversation(ctx, convID)
}

// SendMessage persists a message, marks the sender as caught up, and fans it
// out to connected participants.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Message cannot be empty")
	}
	if len(content) > maxMessageLen {
		return nil, models.NewValidationError(fmt.Sprintf("Message must be at most %d characters", maxMessageLen))
	}
	if err := s.requireParticipant(ctx, in.ConversationID, in.SenderID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Content:        content,
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.chatRepo.UpdateLastRead(ctx, in.ConversationID, in.SenderID); err != nil {
		return nil, err
	}

	if s.realtime != nil {
		s.realtime.PublishMessage(ctx, in.ConversationID, msg)
	}
	return msg, nil
}

func (s *ChatService) GetMessages(ctx context.Context, convID, userID uint, limit, offset int) ([]*models.Message, error) {
	if err := s.requireParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessagePageSize
	}
	return s.chatRepo.GetMessages(ctx, convID, limit, offset)
}

func (s *ChatService) MarkRead(ctx context.Context, convID, userID uint) error {
	if err := s.requireParticipant(ctx, convID, userID); err != nil {
		return err
	}
	return s.chatRepo.UpdateLastRead(ctx, convID, userID)
}

func (s *ChatService) CountUnread(ctx context.Context, convID, userID uint) (int64, error) {
	if err := s.requireParticipant(ctx, convID, userID); err != nil {
		return 0, err
	}
	return s.chatRepo.CountUnread(ctx, convID, userID)
}

// Join adds the caller to a group conversation. Direct conversations stay
// two-party.
func (s *ChatService) Join(ctx context.Context, convID, userID uint) (*models.Conversation, error) {
	conv, err := s.chatRepo.GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.IsGroup {
		return nil, models.NewValidationError("Direct conversations cannot be joined")
	}
	if len(conv.Participants) >= maxGroupParticipants {
		return nil, models.NewConflictError("Group is full")
	}

	already, err := s.chatRepo.IsParticipant(ctx, convID, userID)
	if err != nil {
		return nil, err
	}
	if !already {
		if err := s.chatRepo.AddParticipant(ctx, convID, userID); err != nil {
			return nil, err
		}
	}
	return s.chatRepo.GetConversation(ctx, convID)
}

// Leave removes the caller from a group conversation. Direct conversations
// cannot be left.
func (s *ChatService) Leave(ctx context.Context, convID, userID uint) error {
	conv, err := s.chatRepo.GetConversation(ctx, convID)
	if err != nil {
		return err
	}
	if !conv.IsGroup {
		return models.NewValidationError("Direct conversations cannot be left")
	}
	if err := s.requireParticipant(ctx, convID, userID); err != nil {
		return err
	}
	return s.chatRepo.RemoveParticipant(ctx, convID, userID)
}

func (s *ChatService) requireParticipant(ctx context.Context, convID, userID uint) error {
	ok, err := s.chatRepo.IsParticipant(ctx, convID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("You are not part of this conversation")
	}
	return nil
}
