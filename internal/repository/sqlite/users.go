package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Houeta/buywise/internal/models"
	"github.com/Houeta/buywise/internal/repository"
)

// FindUserByEmail looks a user up by email, case-insensitively.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const opn = "repository.sqlite.FindUserByEmail"

	var user models.User
	err := r.q.QueryRowContext(ctx,
		"SELECT id, email FROM users WHERE lower(email) = ?",
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&user.ID, &user.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return &user, nil
}
