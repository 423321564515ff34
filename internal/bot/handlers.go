package bot

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v4"
)

const (
	msgGreeting       = "Hello! Send /subscribe to get price drop alerts for analyzed products."
	msgSubscribed     = "You are subscribed to price drop alerts."
	msgAlreadyIn      = "You are already subscribed."
	msgUnsubscribed   = "You will no longer receive price drop alerts."
	msgNotSubscribed  = "You are not subscribed."
	msgSomethingWrong = "Something went wrong, please try again later."
)

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	b.log.Info("User started the bot", "username", ctx.Sender().Username)

	if err := ctx.Send(msgGreeting); err != nil {
		return fmt.Errorf("failed to send greeting message: %w", err)
	}

	return nil
}

func (b *Bot) subscribeHandler(ctx telebot.Context) error {
	if err := ctx.Send(b.subscribe(context.Background(), ctx.Chat().ID)); err != nil {
		return fmt.Errorf("failed to send subscribe reply: %w", err)
	}
	return nil
}

func (b *Bot) unsubscribeHandler(ctx telebot.Context) error {
	if err := ctx.Send(b.unsubscribe(context.Background(), ctx.Chat().ID)); err != nil {
		return fmt.Errorf("failed to send unsubscribe reply: %w", err)
	}
	return nil
}

// subscribe adds chatID to the alert list and returns the reply text.
func (b *Bot) subscribe(ctx context.Context, chatID int64) string {
	added, err := b.subs.SubscribeChat(ctx, chatID)
	if err != nil {
		b.log.ErrorContext(ctx, "Failed to subscribe chat", "chat_id", chatID, "error", err)
		return msgSomethingWrong
	}
	if !added {
		return msgAlreadyIn
	}

	b.log.InfoContext(ctx, "Chat subscribed", "chat_id", chatID)
	return msgSubscribed
}

func (b *Bot) unsubscribe(ctx context.Context, chatID int64) string {
	removed, err := b.subs.UnsubscribeChat(ctx, chatID)
	if err != nil {
		b.log.ErrorContext(ctx, "Failed to unsubscribe chat", "chat_id", chatID, "error", err)
		return msgSomethingWrong
	}
	if !removed {
		return msgNotSubscribed
	}

	b.log.InfoContext(ctx, "Chat unsubscribed", "chat_id", chatID)
	return msgUnsubscribed
}
