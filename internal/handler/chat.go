package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/scuti-ai/seocanvas/internal/domain"
	"github.com/scuti-ai/seocanvas/internal/middleware"
	"github.com/scuti-ai/seocanvas/internal/service"
	tg "github.com/scuti-ai/seocanvas/internal/telegram"
)

// HandleText processes free text as a chat turn against the agent gateway.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	chatID := update.Message.Chat.ID
	h.runTurn(ctx, b, chatID, update.Message.Text)
}

func (h *Handler) runTurn(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	id := middleware.GetIdentity(ctx)
	console := h.console(chatID, id)

	stopTyping := tg.StartTyping(ctx, b, chatID)
	defer stopTyping()

	assistant, err := console.SendTurn(ctx, text)
	if err != nil {
		h.renderTurnError(ctx, b, chatID, text, err)
		return
	}

	if err := tg.SendLongMessage(ctx, b, chatID, assistant.Content, h.categoryKeyboard(assistant.Content)); err != nil {
		slog.Error("send assistant message", "error", err, "chat_id", chatID)
	}

	if canvas := console.Canvas(); canvas.Visible && canvas.Content != nil {
		h.renderCanvas(ctx, b, chatID, canvas)
	}
}

func (h *Handler) renderTurnError(ctx context.Context, b *bot.Bot, chatID int64, text string, err error) {
	var rateErr *service.RateLimitError

	switch {
	case errors.Is(err, domain.ErrEmptyMessage):
		return
	case errors.Is(err, domain.ErrTurnInFlight):
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "⏳ Espera la respuesta anterior antes de enviar otro mensaje.",
		})
	case errors.As(err, &rateErr):
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("⏳ Demasiadas solicitudes. Intenta de nuevo en %d segundos.", int(rateErr.Wait.Seconds())),
		})
	default:
		slog.Error("chat turn failed", "error", err, "chat_id", chatID)
		// The optimistic message was rolled back; offer a retry that
		// re-sends the same text without duplicating it.
		h.setLastFailed(chatID, text)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        "❌ No se pudo procesar el mensaje.",
			ReplyMarkup: tg.InlineKeyboard(tg.ButtonRow(tg.InlineButton("🔁 Reintentar", "retry_turn"))),
		})
	}
}

func (h *Handler) handleRetryTurn(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.answerCallback(ctx, b, update)
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return
	}

	chatID := update.CallbackQuery.Message.Message.Chat.ID
	text := h.takeLastFailed(chatID)
	if text == "" {
		return
	}
	h.runTurn(ctx, b, chatID, text)
}

// renderCanvas shows the secondary content panel as a formatted message.
func (h *Handler) renderCanvas(ctx context.Context, b *bot.Bot, chatID int64, canvas service.CanvasState) {
	content := canvas.Content

	var sb strings.Builder
	switch content.Kind {
	case domain.CanvasKindList:
		sb.WriteString("🗂 Resultados")
		if content.Meta.ItemCount > 0 {
			sb.WriteString(fmt.Sprintf(" (%d)", content.Meta.ItemCount))
		}
	case domain.CanvasKindBlogPreview:
		sb.WriteString("📝 Vista previa del blog")
	case domain.CanvasKindBlogCreation:
		sb.WriteString("✍️ Creación guiada de blog")
	case domain.CanvasKindSEOAnalysis:
		sb.WriteString("📊 Análisis SEO")
	default:
		sb.WriteString("📄 Vista previa")
	}
	if content.Title != "" {
		sb.WriteString("\n\n" + content.Title)
	}
	if blog := canvas.Sticky.ActiveBlog; blog != nil && blog.Title != "" {
		sb.WriteString("\n\n📌 Blog activo: " + blog.Title)
	}

	keyboard := tg.InlineKeyboard(tg.ButtonRow(tg.InlineButton("✖️ Cerrar panel", "close_canvas")))
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ReplyMarkup: keyboard,
	})
}

// handleCloseCanvas hides the panel. The active blog reference is kept:
// closing the panel does not change the topic of conversation.
func (h *Handler) handleCloseCanvas(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.answerCallback(ctx, b, update)
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return
	}

	chatID := update.CallbackQuery.Message.Message.Chat.ID
	id := middleware.GetIdentity(ctx)
	h.console(chatID, id).CloseCanvas()

	b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: update.CallbackQuery.Message.Message.ID,
		Text:      "Panel cerrado.",
	})
}
