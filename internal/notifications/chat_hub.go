package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"wayfare/internal/middleware"
	"wayfare/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// ChatHub manages WebSocket connections for chat conversations. Unlike Hub,
// which is user-centric, ChatHub is conversation-centric: clients subscribe
// to the conversations they are viewing.
type ChatHub struct {
	mu sync.RWMutex

	// conversationID -> set of userIDs currently viewing it
	conversations map[uint]map[uint]struct{}

	// userID -> set of conversationIDs they are viewing
	userActiveConvs map[uint]map[uint]struct{}

	// userID -> set of active clients, one per device
	userConns map[uint]map[*Client]struct{}
}

// Name returns a human-readable identifier for this hub.
func (h *ChatHub) Name() string { return "chat hub" }

// ChatMessage is the envelope broadcast to conversation subscribers.
type ChatMessage struct {
	Type           string      `json:"type"` // "message", "typing", "read", "user_status", "connected_users"
	ConversationID uint        `json:"conversation_id,omitempty"`
	UserID         uint        `json:"user_id,omitempty"`
	Username       string      `json:"username,omitempty"`
	Payload        interface{} `json:"payload"`
}

// NewChatHub creates a new ChatHub instance.
func NewChatHub() *ChatHub {
	return &ChatHub{
		conversations:   make(map[uint]map[uint]struct{}),
		userActiveConvs: make(map[uint]map[uint]struct{}),
		userConns:       make(map[uint]map[*Client]struct{}),
	}
}

// Register registers a user's websocket connection. Returns the Client or an
// error if the per-user limit is exceeded.
func (h *ChatHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]struct{})
	}

	if len(h.userConns[userID]) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, fmt.Errorf("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.userConns[userID][client] = struct{}{}

	onlineIDs := make([]uint, 0, len(h.userConns))
	for id := range h.userConns {
		if id != userID {
			onlineIDs = append(onlineIDs, id)
		}
	}
	h.mu.Unlock()

	observability.WebSocketConnections.WithLabelValues(h.Name()).Inc()

	// Initial snapshot of who else is online.
	if len(onlineIDs) > 0 {
		snapshot := ChatMessage{
			Type:    "connected_users",
			Payload: map[string]interface{}{"user_ids": onlineIDs},
		}
		if jsonMsg, err := json.Marshal(snapshot); err == nil {
			client.TrySend(jsonMsg)
		}
	}

	h.BroadcastGlobalStatus(userID, "online")
	return client, nil
}

// UnregisterClient removes a websocket connection. When the user's last
// connection goes away their conversation subscriptions are cleaned up and
// an offline status is broadcast.
func (h *ChatHub) UnregisterClient(client *Client) {
	h.mu.Lock()

	clients, ok := h.userConns[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, exists := clients[client]; !exists {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	observability.WebSocketConnections.WithLabelValues(h.Name()).Dec()

	if len(clients) > 0 {
		// User still has other devices connected.
		h.mu.Unlock()
		return
	}
	delete(h.userConns, client.UserID)

	if convs, ok := h.userActiveConvs[client.UserID]; ok {
		for convID := range convs {
			if users, ok := h.conversations[convID]; ok {
				delete(users, client.UserID)
				if len(users) == 0 {
					delete(h.conversations, convID)
				}
			}
		}
		delete(h.userActiveConvs, client.UserID)
	}

	h.mu.Unlock()

	h.BroadcastGlobalStatus(client.UserID, "offline")
}

// IsUserOnline reports whether the user has at least one active chat client.
func (h *ChatHub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userConns[userID]
	return ok && len(clients) > 0
}

// JoinConversation subscribes a user to a conversation's messages.
func (h *ChatHub) JoinConversation(userID, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.userConns[userID]; !ok {
		return
	}

	if h.conversations[conversationID] == nil {
		h.conversations[conversationID] = make(map[uint]struct{})
	}
	h.conversations[conversationID][userID] = struct{}{}

	if h.userActiveConvs[userID] == nil {
		h.userActiveConvs[userID] = make(map[uint]struct{})
	}
	h.userActiveConvs[userID][conversationID] = struct{}{}
}

// LeaveConversation unsubscribes a user from a conversation.
func (h *ChatHub) LeaveConversation(userID, conversationID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if users, ok := h.conversations[conversationID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.conversations, conversationID)
		}
	}

	if convs, ok := h.userActiveConvs[userID]; ok {
		delete(convs, conversationID)
	}
}

// BroadcastToConversation sends a message to every device of every user
// currently viewing the conversation.
func (h *ChatHub) BroadcastToConversation(conversationID uint, message ChatMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users, ok := h.conversations[conversationID]
	if !ok {
		return
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		middleware.Logger.Error("failed to marshal chat message", "error", err)
		return
	}

	for userID := range users {
		if clients, ok := h.userConns[userID]; ok {
			for client := range clients {
				client.TrySend(messageJSON)
			}
		}
	}
}

// GetActiveUsers returns the userIDs currently viewing a conversation.
func (h *ChatHub) GetActiveUsers(conversationID uint) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users, ok := h.conversations[conversationID]
	if !ok {
		return []uint{}
	}

	result := make([]uint, 0, len(users))
	for userID := range users {
		result = append(result, userID)
	}
	return result
}

// IsUserActive checks if a user is currently viewing a conversation.
func (h *ChatHub) IsUserActive(userID, conversationID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if convs, ok := h.userActiveConvs[userID]; ok {
		_, active := convs[conversationID]
		return active
	}
	return false
}

// BroadcastGlobalStatus sends a "user_status" event to all other users.
func (h *ChatHub) BroadcastGlobalStatus(userID uint, status string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	message := ChatMessage{
		Type:    "user_status",
		UserID:  userID,
		Payload: map[string]interface{}{"status": status, "user_id": userID},
	}

	jsonMsg, err := json.Marshal(message)
	if err != nil {
		middleware.Logger.Error("failed to marshal status message", "error", err)
		return
	}

	for id, clients := range h.userConns {
		if id == userID {
			continue
		}
		for client := range clients {
			client.TrySend(jsonMsg)
		}
	}
}

// StartWiring connects the ChatHub to Redis pub/sub for conversation traffic.
func (h *ChatHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartChatSubscriber(ctx, func(channel, payload string) {
		var conversationID uint
		var msgType string

		if _, err := fmt.Sscanf(channel, chatChannelPrefix+"%d", &conversationID); err == nil {
			msgType = "message"
		} else if _, err := fmt.Sscanf(channel, typingChannelNS+"%d", &conversationID); err == nil {
			msgType = "typing"
		} else {
			middleware.Logger.Warn("invalid chat channel", "channel", channel)
			return
		}

		var message ChatMessage
		if err := json.Unmarshal([]byte(payload), &message); err != nil {
			middleware.Logger.Warn("failed to parse chat payload", "channel", channel, "error", err)
			return
		}

		if message.Type == "" {
			message.Type = msgType
		}
		message.ConversationID = conversationID

		h.BroadcastToConversation(conversationID, message)
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *ChatHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.userConns {
		for client := range clients {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"type":"server_shutdown","payload":{"message":"Server is shutting down"}}`)); err != nil {
				middleware.Logger.Warn("failed to write shutdown message", "user_id", userID, "error", err)
			}
			if err := client.Conn.Close(); err != nil {
				middleware.Logger.Warn("failed to close websocket", "user_id", userID, "error", err)
			}
		}
	}

	h.conversations = make(map[uint]map[uint]struct{})
	h.userActiveConvs = make(map[uint]map[uint]struct{})
	h.userConns = make(map[uint]map[*Client]struct{})

	return nil
}
