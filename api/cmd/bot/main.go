package main

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"study-booster/api/internal/analysis"
	"study-booster/api/internal/app"
	"study-booster/api/internal/config"
	"study-booster/api/internal/handle"
	"study-booster/api/internal/httpserver"
	"study-booster/api/internal/logger"
	"study-booster/api/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	logger.New(cfg.LogLevel, cfg.LogJSON || cfg.IsProduction())

	if strings.TrimSpace(cfg.TelegramBotToken) == "" {
		slog.Error("TELEGRAM_BOT_TOKEN is empty")
		os.Exit(1)
	}
	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8080"
	}

	a, err := app.Build(cfg)
	if err != nil {
		slog.Error("startup", "err", err)
		os.Exit(1)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		slog.Error("telegram init", "err", err)
		os.Exit(1)
	}
	bot.Debug = false
	slog.Info("telegram bot authorized", "username", bot.Self.UserName)

	r := &telegram.Router{
		Bot:        bot,
		EngManager: analysis.NewManager(a.Analyzer.Engine),
		Engines:    a.Engines,
		Pipeline:   a.Pipeline,
		Analyzer:   a.Analyzer,
		Limiter:    a.Limiter,
	}

	// HTTP API вместе с ботом на DefaultServeMux: ListenForWebhook регистрируется туда же
	h := handle.New(a.Pipeline, a.Analyzer, a.Engines).WithPromptFile(cfg.PromptFile)
	httpserver.Register(http.DefaultServeMux, h, a.Limiter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := "0.0.0.0:" + cfg.Port
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Limiter.Run(gctx)
		return nil
	})

	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		updates, err := setupWebhook(bot, webhookURL)
		if err != nil {
			slog.Error("webhook setup", "err", err)
			os.Exit(1)
		}
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case upd, ok := <-updates:
					if !ok {
						slog.Warn("webhook updates channel closed")
						return nil
					}
					r.HandleUpdate(gctx, upd)
				}
			}
		})
	} else {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			slog.Warn("delete webhook", "err", err)
		}
		g.Go(func() error {
			runPolling(gctx, bot, func(upd tgbotapi.Update) { r.HandleUpdate(gctx, upd) })
			return nil
		})
	}

	g.Go(func() error {
		return httpserver.Serve(gctx, addr, httpserver.WithLogging(http.DefaultServeMux))
	})

	if err := g.Wait(); err != nil {
		slog.Error("bot stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("bot stopped")
}

func setupWebhook(bot *tgbotapi.BotAPI, baseURL string) (tgbotapi.UpdatesChannel, error) {
	// секретный путь вебхука
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return nil, err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return nil, err
	}
	slog.Info("webhook registered", "path", path)
	return bot.ListenForWebhook(path), nil
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 от Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	offset := 0
	const (
		baseDelay = 1 * time.Second
		maxDelay  = 15 * time.Second
	)

	for {
		if ctx.Err() != nil {
			slog.Info("polling stopped")
			return
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling, сек

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			slog.Warn("polling error", "err", err, "retry_in", d)
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}
		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// shortHash — стабильный некриптографический хэш токена для пути вебхука.
func shortHash(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%016x", h.Sum64())
}
