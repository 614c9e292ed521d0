package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Register registers all command and callback handlers on the bot instance.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/sessions", bot.MatchTypePrefix, h.handleSessions)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/new", bot.MatchTypePrefix, h.handleNew)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/end", bot.MatchTypePrefix, h.handleEnd)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypePrefix, h.handleStatus)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/seo", bot.MatchTypePrefix, h.handleSEO)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/exports", bot.MatchTypePrefix, h.handleExports)

	// Session callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "open_session_", bot.MatchTypePrefix, h.handleOpenSession)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "new_session", bot.MatchTypePrefix, h.handleNewSessionCallback)

	// Chat callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "close_canvas", bot.MatchTypePrefix, h.handleCloseCanvas)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "retry_turn", bot.MatchTypePrefix, h.handleRetryTurn)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "cat_", bot.MatchTypePrefix, h.handleCategory)

	// Analysis callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "save_analysis", bot.MatchTypePrefix, h.handleSaveAnalysis)
}

func (h *Handler) answerCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
		})
	}
}
