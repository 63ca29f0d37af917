package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix                 = "user:%d"
	AccommodationKeyPrefix        = "accommodation:%d"
	AccommodationListPrefix       = "accommodations:%s"
	ConversationMessagesKeyPrefix = "conversation:%d:messages"
	ReelFeedKeyPrefix             = "reels:feed:%s"
	FeeConfigKey                  = "feeconfig:active"
	CurrencyRatesKey              = "currencies:rates"
)

const (
	UserTTL                 = 5 * time.Minute
	AccommodationTTL        = 10 * time.Minute
	AccommodationListTTL    = 2 * time.Minute
	ConversationMessagesTTL = 2 * time.Minute
	ReelFeedTTL             = 1 * time.Minute
	FeeConfigTTL            = 15 * time.Minute
	CurrencyRatesTTL        = 30 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func AccommodationKey(accommodationID uint) string {
	return fmt.Sprintf(AccommodationKeyPrefix, accommodationID)
}

// AccommodationListKey keys a filtered listing page by its canonical filter string.
func AccommodationListKey(filterHash string) string {
	return fmt.Sprintf(AccommodationListPrefix, filterHash)
}

func ConversationMessagesKey(conversationID uint) string {
	return fmt.Sprintf(ConversationMessagesKeyPrefix, conversationID)
}

func ReelFeedKey(scope string) string {
	return fmt.Sprintf(ReelFeedKeyPrefix, scope)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateAccommodation(ctx context.Context, accommodationID uint) {
	Invalidate(ctx, AccommodationKey(accommodationID))
}

func InvalidateConversation(ctx context.Context, conversationID uint) {
	Invalidate(ctx, ConversationMessagesKey(conversationID))
}

func InvalidateFeeConfig(ctx context.Context) {
	Invalidate(ctx, FeeConfigKey)
}
