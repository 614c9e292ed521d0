package handler

import (
	"sync"

	"github.com/go-telegram/bot"
	"github.com/scuti-ai/seocanvas/internal/config"
	"github.com/scuti-ai/seocanvas/internal/middleware"
	"github.com/scuti-ai/seocanvas/internal/service"
)

// Handler holds all dependencies needed by command and callback handlers.
// Each Telegram chat gets its own console: sticky context and canvas state
// are conversation-level, not global.
type Handler struct {
	bot     *bot.Bot
	cfg     *config.Config
	gateway *service.GatewayClient
	seo     *service.SEOService
	exports *service.ExportStore

	mu           sync.Mutex
	consoles     map[int64]*service.Console
	lastFailed   map[int64]string
	lastAnalysis map[int64]analysisResult
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot     *bot.Bot
	Cfg     *config.Config
	Gateway *service.GatewayClient
	SEO     *service.SEOService
	Exports *service.ExportStore
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:          deps.Bot,
		cfg:          deps.Cfg,
		gateway:      deps.Gateway,
		seo:          deps.SEO,
		exports:      deps.Exports,
		consoles:     make(map[int64]*service.Console),
		lastFailed:   make(map[int64]string),
		lastAnalysis: make(map[int64]analysisResult),
	}
}

// console returns the chat's console, creating it on first contact.
func (h *Handler) console(chatID int64, id middleware.Identity) *service.Console {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.consoles[chatID]; ok {
		return c
	}

	fresh := service.NewFreshnessCache(config.FreshnessTTL, nil)
	store := service.NewSessionStore(h.gateway, fresh)
	c := service.NewConsole(h.gateway, store, id.OwnerID, id.Role, "console")
	h.consoles[chatID] = c
	return c
}

func (h *Handler) setLastFailed(chatID int64, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastFailed[chatID] = text
}

func (h *Handler) takeLastFailed(chatID int64) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	text := h.lastFailed[chatID]
	delete(h.lastFailed, chatID)
	return text
}
