package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/scuti-ai/seocanvas/internal/config"
	"github.com/scuti-ai/seocanvas/internal/middleware"
)

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	id := middleware.GetIdentity(ctx)
	text := "👋 Hola, soy SCUTI AI.\n\n" +
		"Escríbeme y coordino a los agentes por ti. Comandos:\n" +
		"/sessions — tus conversaciones\n" +
		"/new — empezar de cero\n" +
		"/end — archivar la conversación actual\n" +
		"/seo <url> — análisis SEO de una página\n" +
		"/exports — análisis guardados\n" +
		"/status — estado del sistema"
	if id.Role != config.RoleViewer {
		text += fmt.Sprintf("\n\nRol: %s", id.Role)
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
}

func (h *Handler) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	id := middleware.GetIdentity(ctx)
	console := h.console(chatID, id)

	status, err := console.Store().SystemStatus(ctx)
	if err != nil {
		slog.Error("system status", "error", err, "chat_id", chatID)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ El estado del sistema no está disponible.",
		})
		return
	}

	var sb strings.Builder
	sb.WriteString("🩺 Estado del sistema\n")
	if state, ok := status["status"].(string); ok {
		sb.WriteString("\nEstado: " + state)
	}
	if agents, ok := status["agents"].([]any); ok {
		sb.WriteString(fmt.Sprintf("\nAgentes activos: %d", len(agents)))
	}
	if version, ok := status["version"].(string); ok {
		sb.WriteString("\nVersión: " + version)
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   sb.String(),
	})
}
