package service

import (
	"context"
	"strings"
	"testing"

	"wayfare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatRepoStub is a stub for repository.ChatRepository.
type chatRepoStub struct {
	createConversationFn     func(context.Context, *models.Conversation) error
	getConversationFn        func(context.Context, uint) (*models.Conversation, error)
	getUserConversationsFn   func(context.Context, uint) ([]*models.Conversation, error)
	findDirectConversationFn func(context.Context, uint, uint) (*models.Conversation, error)
	addParticipantFn         func(context.Context, uint, uint) error
	removeParticipantFn      func(context.Context, uint, uint) error
	isParticipantFn          func(context.Context, uint, uint) (bool, error)
	createMessageFn          func(context.Context, *models.Message) error
	getMessagesFn            func(context.Context, uint, int, int) ([]*models.Message, error)
	updateLastReadFn         func(context.Context, uint, uint) error
	countUnreadFn            func(context.Context, uint, uint) (int64, error)
}

func (s *chatRepoStub) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	return s.createConversationFn(ctx, conv)
}
func (s *chatRepoStub) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	return s.getConversationFn(ctx, id)
}
func (s *chatRepoStub) GetUserConversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	return s.getUserConversationsFn(ctx, userID)
}
func (s *chatRepoStub) FindDirectConversation(ctx context.Context, userA, userB uint) (*models.Conversation, error) {
	return s.findDirectConversationFn(ctx, userA, userB)
}
func (s *chatRepoStub) AddParticipant(ctx context.Context, convID, userID uint) error {
	return s.addParticipantFn(ctx, convID, userID)
}
func (s *chatRepoStub) RemoveParticipant(ctx context.Context, convID, userID uint) error {
	return s.removeParticipantFn(ctx, convID, userID)
}
func (s *chatRepoStub) IsParticipant(ctx context.Context, convID, userID uint) (bool, error) {
	return s.isParticipantFn(ctx, convID, userID)
}
func (s *chatRepoStub) CreateMessage(ctx context.Context, msg *models.Message) error {
	return s.createMessageFn(ctx, msg)
}
func (s *chatRepoStub) GetMessages(ctx context.Context, convID uint, limit, offset int) ([]*models.Message, error) {
	return s.getMessagesFn(ctx, convID, limit, offset)
}
func (s *chatRepoStub) UpdateLastRead(ctx context.Context, convID, userID uint) error {
	return s.updateLastReadFn(ctx, convID, userID)
}
func (s *chatRepoStub) CountUnread(ctx context.Context, convID, userID uint) (int64, error) {
	return s.countUnreadFn(ctx, convID, userID)
}

func noopChatRepo() *chatRepoStub {
	return &chatRepoStub{
		createConversationFn: func(_ context.Context, conv *models.Conversation) error {
			conv.ID = 1
			return nil
		},
		getConversationFn: func(_ context.Context, id uint) (*models.Conversation, error) {
			return &models.Conversation{ID: id}, nil
		},
		getUserConversationsFn: func(_ context.Context, _ uint) ([]*models.Conversation, error) { return nil, nil },
		findDirectConversationFn: func(_ context.Context, _, _ uint) (*models.Conversation, error) {
			return nil, nil
		},
		addParticipantFn:    func(_ context.Context, _, _ uint) error { return nil },
		removeParticipantFn: func(_ context.Context, _, _ uint) error { return nil },
		isParticipantFn:     func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		createMessageFn: func(_ context.Context, msg *models.Message) error {
			msg.ID = 1
			return nil
		},
		getMessagesFn:    func(_ context.Context, _ uint, _, _ int) ([]*models.Message, error) { return nil, nil },
		updateLastReadFn: func(_ context.Context, _, _ uint) error { return nil },
		countUnreadFn:    func(_ context.Context, _, _ uint) (int64, error) { return 0, nil },
	}
}

// messageRecorder captures realtime fan-out.
type messageRecorder struct {
	published []*models.Message
}

func (r *messageRecorder) PublishMessage(_ context.Context, _ uint, msg *models.Message) {
	r.published = append(r.published, msg)
}

func TestChatService_StartDirect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("self conversation rejected", func(t *testing.T) {
		svc := NewChatService(noopChatRepo(), noopUserRepo(), nil, nil)
		_, err := svc.StartDirect(ctx, 1, 1)
		assertValidationError(t, err)
	})

	t.Run("existing conversation reused", func(t *testing.T) {
		chatRepo := noopChatRepo()
		chatRepo.findDirectConversationFn = func(_ context.Context, _, _ uint) (*models.Conversation, error) {
			return &models.Conversation{ID: 33}, nil
		}
		created := false
		chatRepo.createConversationFn = func(_ context.Context, _ *models.Conversation) error {
			created = true
			return nil
		}
		svc := NewChatService(chatRepo, noopUserRepo(), nil, nil)

		conv, err := svc.StartDirect(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, uint(33), conv.ID)
		assert.False(t, created)
	})

	t.Run("creates with both participants", func(t *testing.T) {
		chatRepo := noopChatRepo()
		var added []uint
		chatRepo.addParticipantFn = func(_ context.Context, _, userID uint) error {
			added = append(added, userID)
			return nil
		}
		svc := NewChatService(chatRepo, noopUserRepo(), nil, nil)

		_, err := svc.StartDirect(ctx, 1, 2)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{1, 2}, added)
	})
}

func TestChatService_SendMessage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		svc := NewChatService(noopChatRepo(), noopUserRepo(), nil, nil)

		_, err := svc.SendMessage(ctx, SendMessageInput{ConversationID: 1, SenderID: 1, Content: "  "})
		assertValidationError(t, err)

		_, err = svc.SendMessage(ctx, SendMessageInput{ConversationID: 1, SenderID: 1, Content: strings.Repeat("x", 4001)})
		assertValidationError(t, err)
	})

	t.Run("non-participant forbidden", func(t *testing.T) {
		chatRepo := noopChatRepo()
		chatRepo.isParticipantFn = func(_ context.Context, _, _ uint) (bool, error) { return false, nil }
		svc := NewChatService(chatRepo, noopUserRepo(), nil, nil)

		_, err := svc.SendMessage(ctx, SendMessageInput{ConversationID: 1, SenderID: 1, Content: "hi"})
		assertForbiddenError(t, err)
	})

	t.Run("persists and fans out", func(t *testing.T) {
		recorder := &messageRecorder{}
		svc := NewChatService(noopChatRepo(), noopUserRepo(), nil, recorder)

		msg, err := svc.SendMessage(ctx, SendMessageInput{ConversationID: 1, SenderID: 1, Content: " hello there "})
		require.NoError(t, err)
		assert.Equal(t, "hello there", msg.Content)
		require.Len(t, recorder.published, 1)
		assert.Equal(t, msg, recorder.published[0])
	})
}

func TestChatService_CreateGroup_Validation(t *testing.T) {
	t.Parallel()

	svc := NewChatService(noopChatRepo(), noopUserRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.CreateGroup(ctx, CreateGroupInput{CreatorID: 1, Name: " ", ParticipantIDs: []uint{2}})
	assertValidationError(t, err)

	_, err = svc.CreateGroup(ctx, CreateGroupInput{CreatorID: 1, Name: "Trip crew"})
	assertValidationError(t, err)

	many := make([]uint, 51)
	for i := range many {
		many[i] = uint(i + 2)
	}
	_, err = svc.CreateGroup(ctx, CreateGroupInput{CreatorID: 1, Name: "Trip crew", ParticipantIDs: many})
	assertValidationError(t, err)
}

func TestChatService_Join(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("direct rejected", func(t *testing.T) {
		chatRepo := noopChatRepo()
		chatRepo.getConversationFn = func(_ context.Context, id uint) (*models.Conversation, error) {
			return &models.Conversation{ID: id, IsGroup: false}, nil
		}
		svc := NewChatService(chatRepo, noopUserRepo(), nil, nil)

		_, err := svc.Join(ctx, 1, 3)
		assertValidationError(t, err)
	})

	t.Run("new member added", func(t *testing.T) {
		chatRepo := noopChatRepo()
		chatRepo.getConversationFn = func(_ context.Context, id uint) (*models.Conversation, error) {
			return &models.Conversation{ID: id, IsGroup: true}, nil
		}
		chatRepo.isParticipantFn = func(_ context.Context, _, _ uint) (bool, error) { return false, nil }
		var added []uint
		chatRepo.addParticipantFn = func(_ context.Context, _, userID uint) error {
			added = append(added, userID)
			return nil
		}
		svc := NewChatService(chatRepo, noopUserRepo(), nil, nil)

		_, err := svc.Join(ctx, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, []uint{3}, added)
	})

	t.Run("joining twice is a no-op", func(t *testing.T) {
		chatRepo := noopChatRepo()
		chatRepo.getConversationFn = func(_ context.Context, id uint) (*models.Conversation, error) {
			return &models.Conversation{ID: id, IsGroup: true}, nil
		}
		added := false
		chatRepo.addParticipantFn = func(_ context.Context, _, _ uint) error {
			added = true
			return nil
		}
		svc := NewChatService(chatRepo, noopUserRepo(), nil, nil)

		_, err := svc.Join(ctx, 1, 3)
		require.NoError(t, err)
		assert.False(t, added)
	})

	t.Run("full group rejected", func(t *testing.T) {
		chatRepo := noopChatRepo()
		chatRepo.getConversationFn = func(_ context.Context, id uint) (*models.Conversation, error) {
			conv := &models.Conversation{ID: id, IsGroup: true}
			for i := 0; i < maxGroupParticipants; i++ {
				conv.Participants = append(conv.Participants, models.ConversationParticipant{UserID: uint(i + 1)})
			}
			return conv, nil
		}
		svc := NewChatService(chatRepo, noopUserRepo(), nil, nil)

		_, err := svc.Join(ctx, 1, 99)
		assertConflictError(t, err)
	})
}

func TestChatService_Leave_DirectRejected(t *testing.T) {
	t.Parallel()

	chatRepo := noopChatRepo()
	chatRepo.getConversationFn = func(_ context.Context, id uint) (*models.Conversation, error) {
		return &models.Conversation{ID: id, IsGroup: false}, nil
	}
	svc := NewChatService(chatRepo, noopUserRepo(), nil, nil)

	assertValidationError(t, svc.Leave(context.Background(), 1, 1))
}
