package api

import (
	"context"
	"time"

	"github.com/co-fun/mapscontacts/api/handler"
	"github.com/co-fun/mapscontacts/api/middleware"
	"github.com/co-fun/mapscontacts/config"
	"github.com/co-fun/mapscontacts/telegram"
	"github.com/co-fun/mapscontacts/webhook"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps are the services the routes are wired to.
type Deps struct {
	Config    *config.Config
	Collector *handler.Collector
	Pool      handler.PoolReporter
	Answerer  handler.Answerer
	Messenger handler.Messenger
	Batches   *handler.BatchStore
	Webhooks  *webhook.Sender
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
// Background sweepers started here stop with ctx.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	cfg := d.Config
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORS.AllowOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Authorization", "X-API-Key"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        cfg.CORS.MaxAge,
	}))

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(d.Pool, d.StartTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	tgDefaults := telegram.Credentials{BotToken: cfg.Telegram.BotToken, ChatID: cfg.Telegram.ChatID}

	protected.POST("/collect", handler.Collect(d.Collector))
	protected.POST("/ask", handler.Ask(d.Collector, d.Answerer, d.Messenger, tgDefaults))
	protected.POST("/telegram/send", handler.TelegramSend(d.Messenger, tgDefaults))
	protected.POST("/export", handler.Export(d.Collector))

	protected.POST("/batch/collect", handler.PostBatch(d.Collector, d.Batches, d.Webhooks, cfg.Scraper.BatchConcurrency))
	protected.GET("/batch/:id", handler.GetBatch(d.Batches))

	return r
}
