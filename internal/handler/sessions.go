package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/scuti-ai/seocanvas/internal/config"
	"github.com/scuti-ai/seocanvas/internal/domain"
	"github.com/scuti-ai/seocanvas/internal/middleware"
	tg "github.com/scuti-ai/seocanvas/internal/telegram"
)

func (h *Handler) handleSessions(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	id := middleware.GetIdentity(ctx)
	console := h.console(chatID, id)

	sessions, err := console.Store().List(ctx, id.OwnerID, config.DefaultSessionLimit)
	if err != nil {
		slog.Error("list sessions", "error", err, "chat_id", chatID)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ No se pudieron cargar las conversaciones.",
		})
		return
	}

	if len(sessions) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        "No hay conversaciones todavía.",
			ReplyMarkup: tg.InlineKeyboard(tg.ButtonRow(tg.InlineButton("➕ Nueva", "new_session"))),
		})
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🗂 Conversaciones (%d)\n", len(sessions)))

	var rows [][]models.InlineKeyboardButton
	shown := sessions
	if len(shown) > config.SessionsPerPage {
		shown = shown[:config.SessionsPerPage]
	}
	for _, s := range shown {
		label := s.Title
		if s.Pinned {
			label = "📌 " + label
		}
		if !s.IsActive {
			label = label + " (archivada)"
		}
		rows = append(rows, tg.ButtonRow(tg.InlineButton(label, "open_session_"+s.ID)))
	}
	rows = append(rows, tg.ButtonRow(tg.InlineButton("➕ Nueva", "new_session")))

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ReplyMarkup: tg.InlineKeyboard(rows...),
	})
}

func (h *Handler) handleOpenSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.answerCallback(ctx, b, update)
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return
	}

	chatID := update.CallbackQuery.Message.Message.Chat.ID
	sessionID := strings.TrimPrefix(update.CallbackQuery.Data, "open_session_")

	id := middleware.GetIdentity(ctx)
	console := h.console(chatID, id)

	// Reuse the listed copy when it already carries messages: Select only
	// fetches when the list entry came back without its timeline.
	var sess *domain.Session
	var err error
	if listed := console.Store().Find(sessionID); listed != nil {
		sess, err = console.Store().Select(ctx, *listed)
	} else {
		sess, err = console.Store().Load(ctx, sessionID)
	}
	if err != nil {
		slog.Error("open session", "error", err, "session", sessionID)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ No se pudo abrir la conversación.",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf("💬 %s — %d mensajes. Escribe para continuar.", sess.Title, len(sess.Messages)),
	})
}

func (h *Handler) handleNew(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.startNewSession(ctx, b, update.Message.Chat.ID)
}

func (h *Handler) handleNewSessionCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.answerCallback(ctx, b, update)
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return
	}
	h.startNewSession(ctx, b, update.CallbackQuery.Message.Message.Chat.ID)
}

func (h *Handler) startNewSession(ctx context.Context, b *bot.Bot, chatID int64) {
	id := middleware.GetIdentity(ctx)
	console := h.console(chatID, id)
	console.Store().NewEphemeral(id.OwnerID)

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "🆕 Nueva conversación. Escribe tu mensaje.",
	})
}

func (h *Handler) handleEnd(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	id := middleware.GetIdentity(ctx)
	console := h.console(chatID, id)

	active := console.Store().Active()
	if active == nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "No hay conversación activa.",
		})
		return
	}

	if active.IsEphemeral() {
		// Nothing to archive on the gateway yet
		console.Store().NewEphemeral(id.OwnerID)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "🔄 Conversación reiniciada.",
		})
		return
	}

	if err := console.Store().Complete(ctx, active.ID); err != nil {
		slog.Error("complete session", "error", err, "session", active.ID)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ No se pudo archivar la conversación.",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "✅ Conversación archivada.",
	})
}
