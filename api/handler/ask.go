package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/co-fun/mapscontacts/listing"
	"github.com/co-fun/mapscontacts/llm"
	"github.com/co-fun/mapscontacts/models"
	"github.com/co-fun/mapscontacts/telegram"
	"github.com/gin-gonic/gin"
)

// Answerer answers a question about a listing table. *llm.Client implements it.
type Answerer interface {
	Ask(ctx context.Context, table, question string, params llm.AskParams) (*llm.AskResult, error)
}

// Messenger posts a message to a Telegram chat. *telegram.Client implements it.
type Messenger interface {
	Send(ctx context.Context, creds telegram.Credentials, text string) error
}

// Ask returns a handler for POST /api/v1/ask.
//
//  1. Parse & validate; when forwarding, check Telegram credentials first.
//  2. Collector.Collect → sorted listings.
//  3. Answerer.Ask on the plain-text table → answer.
//  4. Forward "Q: …\nA: …" to Telegram; its outcome never fails the request.
func Ask(col *Collector, answerer Answerer, messenger Messenger, tgDefaults telegram.Credentials) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()
		var timing models.AskTimingInfo
		fail := func(err error) {
			detail, status := failure(err)
			timing.TotalMs = time.Since(totalStart).Milliseconds()
			c.JSON(status, models.AskResponse{Success: false, Error: detail, Timing: timing})
		}

		// ── 1. Parse request ────────────────────────────────────────
		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.AskResponse{Success: false, Error: invalidInput(err)})
			return
		}
		req.Defaults()

		creds := resolveCredentials(req.Telegram, tgDefaults)
		if req.ForwardToTelegram {
			if se := telegram.ValidateCredentials(creds); se != nil {
				fail(se)
				return
			}
		}

		// ── 2. Collect ──────────────────────────────────────────────
		out, err := col.Collect(c.Request.Context(), &req.ListingSource)
		if out != nil {
			timing.NavigationMs = out.NavigationMs
			timing.ExtractionMs = out.ExtractionMs
		}
		if err != nil {
			fail(err)
			return
		}

		// ── 3. Answer ───────────────────────────────────────────────
		answerStart := time.Now()
		result, err := answerer.Ask(c.Request.Context(), listing.Table(out.Listings), req.Question, llm.AskParams{
			APIKey:  req.LLMAPIKey,
			Model:   req.LLMModel,
			BaseURL: req.LLMBaseURL,
		})
		timing.AnswerMs = time.Since(answerStart).Milliseconds()
		if err != nil {
			fail(err)
			return
		}

		resp := models.AskResponse{
			Success:  true,
			Answer:   result.Answer,
			Total:    len(out.Listings),
			LLMUsage: result.Usage,
		}

		// ── 4. Forward ──────────────────────────────────────────────
		if req.ForwardToTelegram {
			tgStart := time.Now()
			resp.Telegram = forward(c.Request.Context(), messenger, creds, telegram.FormatAnswer(req.Question, result.Answer))
			timing.TelegramMs = time.Since(tgStart).Milliseconds()
		}

		timing.TotalMs = time.Since(totalStart).Milliseconds()
		resp.Timing = timing
		c.JSON(http.StatusOK, resp)
	}
}

// TelegramSend returns a handler for POST /api/v1/telegram/send, which
// re-sends an answer that is already known.
func TelegramSend(messenger Messenger, tgDefaults telegram.Credentials) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TelegramSendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.TelegramSendResponse{Success: false, Error: invalidInput(err)})
			return
		}

		creds := resolveCredentials(&req.TelegramCredentials, tgDefaults)
		if se := telegram.Validate(creds, req.Text); se != nil {
			detail, status := failure(se)
			c.JSON(status, models.TelegramSendResponse{Success: false, Error: detail})
			return
		}

		if err := messenger.Send(c.Request.Context(), creds, req.Text); err != nil {
			detail, status := failure(err)
			c.JSON(status, models.TelegramSendResponse{Success: false, Error: detail})
			return
		}
		c.JSON(http.StatusOK, models.TelegramSendResponse{Success: true})
	}
}

func forward(ctx context.Context, messenger Messenger, creds telegram.Credentials, text string) *models.TelegramStatus {
	if err := messenger.Send(ctx, creds, text); err != nil {
		slog.Warn("telegram forwarding failed", "error", err)
		detail, _ := failure(err)
		return &models.TelegramStatus{Sent: false, Error: detail}
	}
	return &models.TelegramStatus{Sent: true}
}

// resolveCredentials fills fields missing from the request with the
// server-side defaults.
func resolveCredentials(req *models.TelegramCredentials, defaults telegram.Credentials) telegram.Credentials {
	creds := defaults
	if req == nil {
		return creds
	}
	if req.BotToken != "" {
		creds.BotToken = req.BotToken
	}
	if req.ChatID != "" {
		creds.ChatID = req.ChatID
	}
	return creds
}
