package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "payload"))
	assert.NoError(t, n.PublishChatMessage(context.Background(), 1, "payload"))
	assert.NoError(t, n.PublishBroadcast(context.Background(), "payload"))
	assert.NoError(t, n.StartUserSubscriber(context.Background(), nil))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notify:user:1"},
		{100, "notify:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestConversationChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "chat:conv:5", ConversationChannel(5))
}

func TestNotifier_ChatSubscriberReceivesTyping(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channels := make(chan string, 2)
	require.NoError(t, n.StartChatSubscriber(ctx, func(channel, _ string) {
		channels <- channel
	}))

	require.NoError(t, n.PublishTypingIndicator(ctx, 8, 3, "maria", true))

	select {
	case ch := <-channels:
		assert.Equal(t, "typing:conv:8", ch)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("timed out waiting for typing indicator")
	}
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())

	payloads := make(chan string, 2)
	require.NoError(t, n.StartUserSubscriber(ctx, func(_, payload string) {
		payloads <- payload
	}))

	require.NoError(t, n.PublishUser(ctx, 12, "first"))
	select {
	case got := <-payloads:
		assert.Equal(t, "first", got)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("timed out waiting for first payload")
	}

	cancel()

	// After cancellation no further payloads should arrive.
	_ = n.PublishUser(context.Background(), 12, "second")
	assert.Never(t, func() bool {
		return len(payloads) > 0
	}, 20*testPollInterval, testPollInterval)
}
