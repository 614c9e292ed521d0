package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	tg "github.com/scuti-ai/seocanvas/internal/telegram"
)

// serviceCategories maps keywords the services agent tends to use in its
// listings to category labels. The detection below is a best-effort
// presentation heuristic over natural-language text, not a contract the
// backend satisfies; false positives and negatives are accepted.
var serviceCategories = []struct {
	Label    string
	Keywords []string
}{
	{"SEO", []string{"seo", "posicionamiento"}},
	{"Diseño web", []string{"diseño", "web", "página"}},
	{"Contenido", []string{"contenido", "blog", "redacción"}},
	{"Marketing", []string{"marketing", "publicidad", "campaña"}},
}

var listMarkers = []string{"🔹", "📋", "•", "servicios disponibles", "nuestros servicios"}

// SuggestCategories scans an assistant reply that looks like a services
// listing and returns category labels worth offering as buttons.
func SuggestCategories(text string) []string {
	lowered := strings.ToLower(text)

	listing := false
	for _, marker := range listMarkers {
		if strings.Contains(lowered, marker) {
			listing = true
			break
		}
	}
	if !listing {
		return nil
	}

	var labels []string
	for _, cat := range serviceCategories {
		for _, kw := range cat.Keywords {
			if strings.Contains(lowered, kw) {
				labels = append(labels, cat.Label)
				break
			}
		}
	}
	if len(labels) < 2 {
		// a single hit is as likely noise as signal
		return nil
	}
	return labels
}

func (h *Handler) categoryKeyboard(text string) models.ReplyMarkup {
	labels := SuggestCategories(text)
	if labels == nil {
		return nil
	}

	var row []models.InlineKeyboardButton
	for _, label := range labels {
		row = append(row, tg.InlineButton(label, "cat_"+label))
	}
	return tg.InlineKeyboard(row)
}

// handleCategory turns a category button press into a follow-up chat turn.
func (h *Handler) handleCategory(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.answerCallback(ctx, b, update)
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return
	}

	chatID := update.CallbackQuery.Message.Message.Chat.ID
	label := strings.TrimPrefix(update.CallbackQuery.Data, "cat_")
	h.runTurn(ctx, b, chatID, "Cuéntame más sobre "+label)
}
