package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"wayfare/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPusher_LocalFallbackDeliversToHub(t *testing.T) {
	hub := NewHub()
	pusher := NewPusher(hub, nil)

	client, err := hub.Register(7, nil)
	require.NoError(t, err)

	pusher.Push(context.Background(), 7, &models.Notification{
		ID:     1,
		UserID: 7,
		Type:   models.NotifyBookingConfirmed,
		Title:  "Booking confirmed",
	})

	require.Len(t, client.Send, 1)

	var envelope struct {
		Type    string              `json:"type"`
		Payload models.Notification `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(<-client.Send, &envelope))
	assert.Equal(t, "notification", envelope.Type)
	assert.Equal(t, models.NotifyBookingConfirmed, envelope.Payload.Type)

	_ = hub.Shutdown(context.Background())
}

func TestPusher_PublishesThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewHub(rdb)
	n := NewNotifier(rdb)
	pusher := NewPusher(hub, n)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	client, err := hub.Register(9, nil)
	require.NoError(t, err)

	pusher.Push(ctx, 9, &models.Notification{ID: 2, UserID: 9, Type: models.NotifyNewBooking, Title: "New booking"})

	assert.Eventually(t, func() bool {
		return len(client.Send) == 1
	}, testEventuallyTimeout, testPollInterval)

	_ = hub.Shutdown(context.Background())
}

func TestChatPublisher_LocalFallbackBroadcasts(t *testing.T) {
	hub := NewChatHub()
	publisher := NewChatPublisher(hub, nil)

	client, err := hub.Register(4, nil)
	require.NoError(t, err)
	drain(client)
	hub.JoinConversation(4, 11)

	publisher.PublishMessage(context.Background(), 11, &models.Message{
		ID:             3,
		ConversationID: 11,
		SenderID:       4,
		Content:        "see you there",
	})

	require.Len(t, client.Send, 1)

	var got ChatMessage
	require.NoError(t, json.Unmarshal(<-client.Send, &got))
	assert.Equal(t, "message", got.Type)
	assert.Equal(t, uint(11), got.ConversationID)
	assert.Equal(t, uint(4), got.UserID)
}
