package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/scuti-ai/seocanvas/internal/config"
	"github.com/scuti-ai/seocanvas/internal/handler"
	"github.com/scuti-ai/seocanvas/internal/middleware"
	"github.com/scuti-ai/seocanvas/internal/service"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	gateway := service.NewGatewayClient(cfg.GatewayURL, cfg.GatewayToken)
	seoService := service.NewSEOService(gateway)
	exportStore := service.NewExportStore(cfg.ExportDir)

	var h *handler.Handler

	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.RateLimit(config.RateLimitPerMinute),
			middleware.IdentityLoader(cfg),
		),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}

	h = handler.New(handler.Deps{
		Bot:     b,
		Cfg:     cfg,
		Gateway: gateway,
		SEO:     seoService,
		Exports: exportStore,
	})
	h.Register()

	// Default text handler: everything that is not a command is a chat turn
	b.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}
		if len(update.Message.Text) > 0 && update.Message.Text[0] == '/' {
			return
		}
		h.HandleText(ctx, b, update)
	})

	slog.Info("starting console", "username", me.Username, "id", me.ID, "gateway", cfg.GatewayURL)
	b.Start(ctx)

	slog.Info("console stopped gracefully")
}
