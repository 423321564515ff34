package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Houeta/buywise/internal/models"
	"gopkg.in/telebot.v4"
)

// NotifyPriceChange sends a price drop alert to every subscribed chat. Price
// increases are not announced. Chats that blocked the bot are unsubscribed.
func (b *Bot) NotifyPriceChange(ctx context.Context, change models.PriceChange) error {
	const opn = "bot.NotifyPriceChange"
	log := b.log.With("op", opn, "product_id", change.ExternalID)

	if !change.Dropped() {
		log.DebugContext(ctx, "Price did not drop, skipping alert", "old", change.Old, "new", change.New)
		return nil
	}

	chats, err := b.subs.GetSubscribedChats(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to get subscribed chats: %w", opn, err)
	}

	text := formatPriceDrop(change)

	var errs []error
	for _, chatID := range chats {
		_, err = b.bot.Send(&telebot.Chat{ID: chatID}, text)
		if err == nil {
			continue
		}

		if errors.Is(err, telebot.ErrBlockedByUser) {
			log.WarnContext(ctx, "Bot blocked by chat, unsubscribing", "chat_id", chatID)
			if _, uerr := b.subs.UnsubscribeChat(ctx, chatID); uerr != nil {
				errs = append(errs, fmt.Errorf("unsubscribe chat %d: %w", chatID, uerr))
			}
			continue
		}

		errs = append(errs, fmt.Errorf("send to chat %d: %w", chatID, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", opn, errors.Join(errs...))
	}

	log.InfoContext(ctx, "Price drop alert sent", "chats", len(chats))
	return nil
}

func formatPriceDrop(change models.PriceChange) string {
	var sb strings.Builder

	name := change.Name
	if name == "" {
		name = change.ExternalID
	}
	sb.WriteString("📉 Price drop: " + name + "\n")
	sb.WriteString("₹" + formatPrice(change.Old) + " → ₹" + formatPrice(change.New))
	if change.Link != "" {
		sb.WriteString("\n" + change.Link)
	}

	return sb.String()
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
