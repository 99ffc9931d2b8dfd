package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/co-fun/mapscontacts/api"
	"github.com/co-fun/mapscontacts/api/handler"
	"github.com/co-fun/mapscontacts/cache"
	"github.com/co-fun/mapscontacts/config"
	"github.com/co-fun/mapscontacts/engine"
	"github.com/co-fun/mapscontacts/extractor"
	"github.com/co-fun/mapscontacts/llm"
	"github.com/co-fun/mapscontacts/scraper"
	"github.com/co-fun/mapscontacts/telegram"
	"github.com/co-fun/mapscontacts/webhook"
)

var errNoCards = errors.New("page holds no result cards")

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("mapscontacts starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Initialise scraper (launches browser) ────────────────────
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	// ── 3b. Initialise multi-engine dispatcher ─────────────────────
	if cfg.Engine.EnableMultiEngine {
		var engines []engine.Engine
		if cfg.Engine.EnableHTTP {
			engines = append(engines, engine.NewHTTPEngine(engine.HTTPOptions{
				Timeout: cfg.Engine.HTTPTimeout,
				Proxy:   cfg.Browser.DefaultProxy,
			}))
		}
		// Browser tiers call Render directly so the dispatcher never
		// re-enters itself.
		engines = append(engines,
			engine.NewBrowserEngine(sc.Render, false),
			engine.NewBrowserEngine(sc.Render, true),
		)

		memory := engine.NewMemory(cfg.Engine.MemoryTTL)
		defer memory.Stop()

		dispatcher := engine.NewDispatcher(engines, cfg.Engine.EscalationDelays, memory, hasCards)
		sc.SetDispatcher(dispatcher)
		slog.Info("multi-engine dispatcher enabled",
			"engines", len(engines),
			"delays", cfg.Engine.EscalationDelays,
		)
	}

	// ── 4. Initialise cache and outbound clients ────────────────────
	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	defer cc.Stop()

	answerer := llm.NewClient(nil, llm.AskParams{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
	}, cfg.LLM.Timeout)
	messenger := telegram.NewClient(nil, cfg.Telegram.BaseURL, cfg.Telegram.Timeout)

	// ── 5. Setup router ─────────────────────────────────────────────
	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	router := api.NewRouter(rootCtx, api.Deps{
		Config:    cfg,
		Collector: handler.NewCollector(sc, cc),
		Pool:      sc,
		Answerer:  answerer,
		Messenger: messenger,
		Batches:   handler.NewBatchStore(rootCtx),
		Webhooks:  webhook.NewSender(nil, nil),
		StartTime: time.Now(),
	})

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("mapscontacts stopped")
}

// hasCards accepts a fetched page only when it already holds result cards.
func hasCards(r *engine.FetchResult) error {
	if extractor.CountCards(r.HTML) == 0 {
		return errNoCards
	}
	return nil
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
