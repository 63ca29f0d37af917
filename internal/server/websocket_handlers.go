package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wayfare/internal/middleware"
	"wayfare/internal/models"
	"wayfare/internal/notifications"
	"wayfare/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// wsTicketTTL bounds how long an issued ticket stays redeemable.
const wsTicketTTL = 30 * time.Second

// IssueWSTicket handles POST /api/ws/ticket
// Browsers cannot set Authorization headers on WebSocket upgrades, so clients
// exchange their JWT for a short-lived single-use ticket and pass it as
// ?ticket= on the upgrade request.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("ticket store unavailable")))
	}

	ticket := uuid.New().String()
	key := fmt.Sprintf("ws_ticket:%s", ticket)
	if err := s.redis.Set(c.Context(), key, fmt.Sprintf("%d", userID), wsTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// WebsocketHandler handles WebSocket connections for in-app notifications.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()

		// Read pump runs in the handler goroutine and unregisters on exit.
		client.ReadPump()
	})
}

// WebSocketChatHandler handles WebSocket connections for real-time chat.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			middleware.Logger.Warn("chat socket rejected, user lookup failed", "user_id", userID, "error", err)
			_ = conn.Close()
			return
		}
		username := user.Username

		client, err := s.chatHub.Register(userID, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(cl *notifications.Client, raw []byte) {
			var incoming struct {
				Type           string `json:"type"`
				ConversationID uint   `json:"conversation_id"`
				Content        string `json:"content"`
				IsTyping       bool   `json:"is_typing"`
			}
			if err := json.Unmarshal(raw, &incoming); err != nil {
				return
			}

			switch incoming.Type {
			case "join":
				if !s.isConversationParticipant(ctx, userID, incoming.ConversationID) {
					return
				}
				s.chatHub.JoinConversation(userID, incoming.ConversationID)
				s.sendChatFrame(cl, notifications.ChatMessage{
					Type:           "joined",
					ConversationID: incoming.ConversationID,
				})

			case "leave":
				s.chatHub.LeaveConversation(userID, incoming.ConversationID)

			case "typing":
				if !s.isConversationParticipant(ctx, userID, incoming.ConversationID) {
					return
				}
				// Silently drop spammy typing indicators.
				id := fmt.Sprintf("user:%d", userID)
				allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "typing", id, 10, 10*time.Second)
				if !allowed {
					return
				}
				if perr := s.notifier.PublishTypingIndicator(
					ctx, incoming.ConversationID, userID, username, incoming.IsTyping); perr != nil {
					middleware.Logger.Warn("publish typing indicator failed", "error", perr)
				}

			case "message":
				// Same limit as the HTTP endpoint.
				id := fmt.Sprintf("user:%d", userID)
				allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "send_chat", id, 20, time.Minute)
				if !allowed {
					s.sendChatFrame(cl, notifications.ChatMessage{
						Type: "error",
						Payload: map[string]string{
							"message": "Rate limit exceeded. Please wait a moment.",
						},
					})
					return
				}

				// The service persists, validates membership, and fans the
				// message out to connected participants.
				_, serr := s.chatSvc.SendMessage(ctx, service.SendMessageInput{
					ConversationID: incoming.ConversationID,
					SenderID:       userID,
					Content:        incoming.Content,
				})
				if serr != nil {
					s.sendChatFrame(cl, notifications.ChatMessage{
						Type:    "error",
						Payload: map[string]string{"message": serr.Error()},
					})
				}

			case "read":
				if merr := s.chatSvc.MarkRead(ctx, incoming.ConversationID, userID); merr != nil {
					return
				}
				receipt, _ := json.Marshal(notifications.ChatMessage{
					Type:           "read",
					ConversationID: incoming.ConversationID,
					UserID:         userID,
					Username:       username,
				})
				if perr := s.notifier.PublishChatMessage(ctx, incoming.ConversationID, string(receipt)); perr != nil {
					middleware.Logger.Warn("publish read receipt failed", "error", perr)
				}
			}
		}

		s.sendChatFrame(client, notifications.ChatMessage{
			Type: "connected",
			Payload: map[string]interface{}{
				"user_id":  userID,
				"username": username,
			},
		})

		go client.WritePump()
		client.ReadPump()
	})
}

// sendChatFrame marshals and queues a frame on a single client, dropping it
// if the client cannot keep up.
func (s *Server) sendChatFrame(client *notifications.Client, msg notifications.ChatMessage) {
	frame, err := json.Marshal(msg)
	if err != nil {
		return
	}
	client.TrySend(frame)
}

// isConversationParticipant checks conversation membership.
func (s *Server) isConversationParticipant(ctx context.Context, userID, conversationID uint) bool {
	conv, err := s.chatRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return false
	}
	for _, p := range conv.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
