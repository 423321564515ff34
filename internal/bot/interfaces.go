package bot

import (
	"context"

	"gopkg.in/telebot.v4"
)

type API interface {
	// Handle lets you set the handler for some command name or one of the supported endpoints. It also applies middleware if such passed to the function.
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
	// Start brings bot into motion by consuming incoming updates (see Bot.Updates channel).
	Start()
	// Stop gracefully shuts the poller down.
	Stop()

	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// SubscriptionRepository stores the chats that receive price alerts.
type SubscriptionRepository interface {
	SubscribeChat(ctx context.Context, chatID int64) (bool, error)
	UnsubscribeChat(ctx context.Context, chatID int64) (bool, error)
	GetSubscribedChats(ctx context.Context) ([]int64, error)
}
