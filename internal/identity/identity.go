// Package identity resolves the user behind a request. Resolution is a
// chain of strategies tried in order; the first that yields an email wins.
// Failing every strategy means an anonymous caller, never an error.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Houeta/buywise/internal/models"
	"github.com/Houeta/buywise/internal/repository"
	"github.com/gin-gonic/gin"
)

const CtxClaimsKey = "auth_claims"

// anonymousEmail is what upstream auth layers put in place of a real principal.
const anonymousEmail = "anonymousUser"

// Strategy extracts a caller email from a request.
type Strategy func(c *gin.Context) (string, bool)

type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Resolver struct {
	log        *slog.Logger
	users      UserFinder
	strategies []Strategy
}

func NewResolver(log *slog.Logger, users UserFinder, strategies ...Strategy) *Resolver {
	return &Resolver{log: log, users: users, strategies: strategies}
}

// Chain is the default order: claims already on the request, then the bearer token.
func Chain(tokens TokenService) []Strategy {
	return []Strategy{FromContextClaims(), FromBearer(tokens)}
}

// Resolve returns the known user behind c, or nil for anonymous callers.
func (r *Resolver) Resolve(c *gin.Context) *models.User {
	const opn = "identity.Resolve"
	log := r.log.With("op", opn)
	ctx := c.Request.Context()

	for i, strategy := range r.strategies {
		email, ok := strategy(c)
		if !ok || email == anonymousEmail {
			continue
		}

		user, err := r.users.FindUserByEmail(ctx, email)
		if err == nil {
			log.DebugContext(ctx, "Caller resolved", "strategy", i, "user_id", user.ID)
			return user
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			log.WarnContext(ctx, "Authenticated email is not a known user", "strategy", i)
			continue
		}
		log.ErrorContext(ctx, "Failed to look up user", "error", err)
	}

	return nil
}

// FromContextClaims reads claims placed on the request by Authenticate.
func FromContextClaims() Strategy {
	return func(c *gin.Context) (string, bool) {
		v, ok := c.Get(CtxClaimsKey)
		if !ok {
			return "", false
		}
		claims, _ := v.(*Claims)
		if claims == nil || claims.Email == "" {
			return "", false
		}
		return claims.Email, true
	}
}

// FromBearer verifies the Authorization header directly.
func FromBearer(tokens TokenService) Strategy {
	return func(c *gin.Context) (string, bool) {
		raw, ok := bearer(c)
		if !ok {
			return "", false
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			return "", false
		}
		return claims.Email, claims.Email != ""
	}
}

// Authenticate attaches verified claims to the request when a valid bearer
// token is present. Requests without one pass through untouched.
func Authenticate(tokens TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearer(c); ok {
			if claims, err := tokens.Parse(raw); err == nil {
				c.Set(CtxClaimsKey, claims)
			}
		}
		c.Next()
	}
}

func bearer(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(h[len("Bearer "):])
	return raw, raw != ""
}
