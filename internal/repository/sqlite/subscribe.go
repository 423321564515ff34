package sqlite

import (
	"context"
	"fmt"
)

// SubscribeChat adds the chat ID to the price-alert list. It reports false
// when the chat was already subscribed.
func (r *Repository) SubscribeChat(ctx context.Context, chatID int64) (bool, error) {
	const opn = "repository.sqlite.SubscribeChat"

	res, err := r.q.ExecContext(ctx, "INSERT OR IGNORE INTO subscriptions (chat_id) VALUES (?)", chatID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", opn, err)
	}

	return affectedAny(opn, res.RowsAffected)
}

// UnsubscribeChat deletes the chat ID. It reports false when nothing was removed.
func (r *Repository) UnsubscribeChat(ctx context.Context, chatID int64) (bool, error) {
	const opn = "repository.sqlite.UnsubscribeChat"

	res, err := r.q.ExecContext(ctx, "DELETE FROM subscriptions WHERE chat_id = ?", chatID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", opn, err)
	}

	return affectedAny(opn, res.RowsAffected)
}

// GetSubscribedChats returns a slice of all subscribed chat IDs.
func (r *Repository) GetSubscribedChats(ctx context.Context) ([]int64, error) {
	const opn = "repository.sqlite.GetSubscribedChats"

	rows, err := r.q.QueryContext(ctx, "SELECT chat_id FROM subscriptions ORDER BY chat_id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	defer rows.Close()

	var chatIDs []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: failed to scan chat_id: %w", opn, err)
		}
		chatIDs = append(chatIDs, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return chatIDs, nil
}

func affectedAny(opn string, rowsAffected func() (int64, error)) (bool, error) {
	n, err := rowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: failed to read affected rows: %w", opn, err)
	}
	return n > 0, nil
}
