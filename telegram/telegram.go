// Package telegram posts answers to a chat through the Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/co-fun/mapscontacts/models"
)

// Defaults for the Bot API.
const (
	DefaultBaseURL = "https://api.telegram.org"
	DefaultTimeout = 15 * time.Second
)

// Credentials identify the bot and the chat to post into.
type Credentials struct {
	BotToken string
	ChatID   string
}

// Client sends messages through the Bot API sendMessage method.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// NewClient creates a Telegram client. Pass nil to use a fresh http.Client,
// an empty baseURL for DefaultBaseURL and a zero timeout for DefaultTimeout.
func NewClient(httpClient *http.Client, baseURL string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
	}
}

// sendResult is the subset of the Bot API response we read.
type sendResult struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// FormatAnswer composes the message forwarded for a question and its answer.
func FormatAnswer(question, answer string) string {
	return fmt.Sprintf("Q: %s\nA: %s", question, answer)
}

// ValidateCredentials reports missing bot token or chat ID.
func ValidateCredentials(creds Credentials) *models.ScrapeError {
	if strings.TrimSpace(creds.BotToken) == "" || strings.TrimSpace(creds.ChatID) == "" {
		return models.NewScrapeError(models.ErrCodeMissingCredentials, "Please enter your Telegram Bot Token and Chat ID.", nil)
	}
	return nil
}

// Validate checks credentials and text without touching the network.
func Validate(creds Credentials, text string) *models.ScrapeError {
	if se := ValidateCredentials(creds); se != nil {
		return se
	}
	if strings.TrimSpace(text) == "" {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "No answer to send.", nil)
	}
	return nil
}

// Send posts text to the chat. It makes a single attempt bounded by the
// client timeout.
func (c *Client) Send(ctx context.Context, creds Credentials, text string) error {
	if se := Validate(creds, text); se != nil {
		return se
	}
	token := strings.TrimSpace(creds.BotToken)
	chatID := strings.TrimSpace(creds.ChatID)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("chat_id", chatID)
	q.Set("text", text)
	endpoint := c.baseURL + "/bot" + token + "/sendMessage?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return sendFailure(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the bot token; report the cause only.
		if ue, ok := err.(*url.Error); ok {
			err = ue.Err
		}
		return sendFailure(err)
	}
	defer resp.Body.Close()

	var res sendResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return sendFailure(err)
	}
	if !res.OK {
		desc := res.Description
		if desc == "" {
			desc = "Unknown error"
		}
		return models.NewScrapeError(models.ErrCodeTelegramFailure, "Telegram error: "+desc, nil)
	}

	slog.Info("telegram message sent", "chat_id", chatID, "chars", len(text))
	return nil
}

func sendFailure(err error) *models.ScrapeError {
	return models.NewScrapeError(models.ErrCodeTelegramFailure, "Failed to send to Telegram: "+err.Error(), err)
}
