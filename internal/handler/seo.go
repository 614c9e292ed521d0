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
	tg "github.com/scuti-ai/seocanvas/internal/telegram"
)

// analysisResult is the most recent analysis per chat, kept so the save
// button knows what to persist.
type analysisResult struct {
	URL      string
	Analysis map[string]any
}

func (h *Handler) handleSEO(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	args := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/seo"))
	if args == "" {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Uso: /seo <url>",
		})
		return
	}

	id := middleware.GetIdentity(ctx)

	stopTyping := tg.StartTyping(ctx, b, chatID)
	defer stopTyping()

	analysis, err := h.seo.AnalyzePage(ctx, id.Role, args)
	if err != nil {
		if errors.Is(err, domain.ErrPermission) {
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "🔒 El análisis SEO requiere rol de editor.",
			})
			return
		}
		slog.Error("seo analysis", "error", err, "url", args)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ No se pudo completar el análisis.",
		})
		return
	}

	h.mu.Lock()
	h.lastAnalysis[chatID] = analysisResult{URL: args, Analysis: analysis}
	h.mu.Unlock()

	keyboard := tg.InlineKeyboard(tg.ButtonRow(tg.InlineButton("💾 Guardar análisis", "save_analysis")))
	if err := tg.SendLongMessage(ctx, b, chatID, formatAnalysis(args, analysis), keyboard); err != nil {
		slog.Error("send analysis", "error", err, "chat_id", chatID)
	}
}

func (h *Handler) handleSaveAnalysis(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.answerCallback(ctx, b, update)
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return
	}

	chatID := update.CallbackQuery.Message.Message.Chat.ID

	h.mu.Lock()
	result, ok := h.lastAnalysis[chatID]
	h.mu.Unlock()
	if !ok {
		return
	}

	title := result.URL
	if t, tok := result.Analysis["title"].(string); tok && t != "" {
		title = t
	}

	entry, err := h.exports.Save(title, result.URL, result.Analysis)
	if err != nil {
		slog.Error("save analysis", "error", err, "chat_id", chatID)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ No se pudo guardar el análisis.",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "💾 Análisis guardado: " + entry.Title,
	})
}

func (h *Handler) handleExports(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	entries, err := h.exports.List()
	if err != nil {
		slog.Error("list exports", "error", err)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ No se pudieron cargar los análisis guardados.",
		})
		return
	}
	if len(entries) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "No hay análisis guardados.",
		})
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💾 Análisis guardados (%d)\n", len(entries)))
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("\n• %s — %s", e.Title, e.CreatedAt.Format("02.01.2006 15:04")))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   sb.String(),
	})
}

func formatAnalysis(url string, analysis map[string]any) string {
	var sb strings.Builder
	sb.WriteString("📊 Análisis SEO\n")
	sb.WriteString(url + "\n")

	if score, ok := analysis["score"].(float64); ok {
		sb.WriteString(fmt.Sprintf("\nPuntuación: %.0f/100\n", score))
	}
	if summary, ok := analysis["summary"].(string); ok {
		sb.WriteString("\n" + summary + "\n")
	}
	if recs, ok := analysis["recommendations"].([]any); ok && len(recs) > 0 {
		sb.WriteString("\nRecomendaciones:\n")
		for _, r := range recs {
			if text, ok := r.(string); ok {
				sb.WriteString("• " + text + "\n")
			}
		}
	}
	return sb.String()
}
