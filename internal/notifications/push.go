package notifications

import (
	"context"
	"encoding/json"

	"wayfare/internal/middleware"
	"wayfare/internal/models"
	"wayfare/internal/observability"
)

// Pusher delivers stored notifications to connected users. It publishes via
// Redis so any instance holding the user's socket can deliver; without Redis
// it falls back to the local hub.
type Pusher struct {
	hub      *Hub
	notifier *Notifier
}

// NewPusher wires a Pusher to the notification hub and Redis notifier.
func NewPusher(hub *Hub, notifier *Notifier) *Pusher {
	return &Pusher{hub: hub, notifier: notifier}
}

// Push sends a notification to the user's open sockets. Delivery is
// best-effort; the notification is already persisted.
func (p *Pusher) Push(ctx context.Context, userID uint, n *models.Notification) {
	envelope := map[string]interface{}{
		"type":    "notification",
		"payload": n,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		middleware.Logger.Error("failed to marshal notification", "error", err)
		return
	}

	if p.notifier != nil {
		if err := p.notifier.PublishUser(ctx, userID, string(data)); err != nil {
			middleware.Logger.Warn("failed to publish notification", "user_id", userID, "error", err)
		}
		return
	}
	if p.hub != nil {
		p.hub.Broadcast(userID, string(data))
	}
}

// ChatPublisher fans new chat messages out to conversation subscribers.
type ChatPublisher struct {
	hub      *ChatHub
	notifier *Notifier
}

// NewChatPublisher wires a ChatPublisher to the chat hub and Redis notifier.
func NewChatPublisher(hub *ChatHub, notifier *Notifier) *ChatPublisher {
	return &ChatPublisher{hub: hub, notifier: notifier}
}

// PublishMessage broadcasts a persisted message to everyone viewing its
// conversation.
func (p *ChatPublisher) PublishMessage(ctx context.Context, conversationID uint, msg *models.Message) {
	observability.ChatMessagesSent.Inc()

	message := ChatMessage{
		Type:           "message",
		ConversationID: conversationID,
		UserID:         msg.SenderID,
		Payload:        msg,
	}

	if p.notifier != nil {
		data, err := json.Marshal(message)
		if err != nil {
			middleware.Logger.Error("failed to marshal chat message", "error", err)
			return
		}
		if err := p.notifier.PublishChatMessage(ctx, conversationID, string(data)); err != nil {
			middleware.Logger.Warn("failed to publish chat message", "conversation_id", conversationID, "error", err)
		}
		return
	}
	if p.hub != nil {
		p.hub.BroadcastToConversation(conversationID, message)
	}
}
