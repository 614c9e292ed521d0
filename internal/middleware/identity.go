package middleware

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/scuti-ai/seocanvas/internal/config"
	"github.com/scuti-ai/seocanvas/internal/service"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Identity is what the console knows about the caller. A missing identity
// never blocks a turn: the anonymous fallback supports the unauthenticated
// widget variant.
type Identity struct {
	OwnerID    string
	Role       string
	TelegramID int64
}

// GetIdentity extracts the caller identity from context, falling back to
// the anonymous viewer.
func GetIdentity(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey).(Identity); ok {
		return id
	}
	return Identity{OwnerID: service.AnonymousOwnerID, Role: config.RoleViewer}
}

// IdentityLoader returns middleware that resolves the caller's owner id and
// role from the Telegram sender.
func IdentityLoader(cfg *config.Config) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var from *models.User
			if update.Message != nil {
				from = update.Message.From
			} else if update.CallbackQuery != nil {
				from = &update.CallbackQuery.From
			}

			if from != nil {
				ctx = context.WithValue(ctx, identityKey, Identity{
					OwnerID:    fmt.Sprintf("tg:%d", from.ID),
					Role:       cfg.RoleFor(from.ID),
					TelegramID: from.ID,
				})
			}

			next(ctx, b, update)
		}
	}
}
