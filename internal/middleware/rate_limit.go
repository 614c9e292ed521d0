package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/scuti-ai/seocanvas/internal/config"
)

type rateWindow struct {
	start time.Time
	count int
}

// RateLimit returns middleware enforcing a per-chat messages-per-minute
// limit. Counters live in memory; the console has no database of its own.
func RateLimit(perMinute int) bot.Middleware {
	if perMinute <= 0 {
		perMinute = config.RateLimitPerMinute
	}

	var mu sync.Mutex
	windows := make(map[int64]*rateWindow)

	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			// Only rate limit messages, not callbacks
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			now := time.Now()

			mu.Lock()
			w, ok := windows[chatID]
			if !ok || now.Sub(w.start) >= time.Minute {
				w = &rateWindow{start: now}
				windows[chatID] = w
			}
			w.count++
			exceeded := w.count > perMinute
			mu.Unlock()

			if exceeded {
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Demasiadas solicitudes. Espera un momento.",
				})
				return
			}

			next(ctx, b, update)
		}
	}
}
