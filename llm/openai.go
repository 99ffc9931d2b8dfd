package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/co-fun/mapscontacts/models"
)

// Defaults for the chat-completion endpoint.
const (
	DefaultBaseURL = "https://api.mistral.ai/v1"
	DefaultModel   = "mistral-small-latest"
	DefaultTimeout = 60 * time.Second
)

// Client is a lightweight OpenAI-compatible chat-completion client.
// It uses net/http directly, no third-party SDK needed.
type Client struct {
	httpClient *http.Client
	defaults   AskParams
	timeout    time.Duration
}

// NewClient creates a new LLM client. Pass nil to use a fresh http.Client.
// Empty fields of defaults fall back to DefaultBaseURL and DefaultModel; a
// zero timeout means DefaultTimeout.
func NewClient(httpClient *http.Client, defaults AskParams, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if defaults.BaseURL == "" {
		defaults.BaseURL = DefaultBaseURL
	}
	if defaults.Model == "" {
		defaults.Model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{httpClient: httpClient, defaults: defaults, timeout: timeout}
}

// AskParams holds per-request LLM configuration (BYOK). Empty fields use
// the client defaults.
type AskParams struct {
	APIKey  string
	Model   string
	BaseURL string // e.g. "https://api.mistral.ai/v1"
}

func (c *Client) resolve(p AskParams) AskParams {
	if p.APIKey == "" {
		p.APIKey = c.defaults.APIKey
	}
	if p.Model == "" {
		p.Model = c.defaults.Model
	}
	if p.BaseURL == "" {
		p.BaseURL = c.defaults.BaseURL
	}
	return p
}

// chatRequest is the OpenAI chat completion request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the minimal chat completion response we need. Content is
// kept raw so a missing or non-string value can be told apart from "".
type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// complete posts messages to {BaseURL}/chat/completions and returns the
// first choice's content. All failures are *models.ScrapeError.
func (c *Client) complete(ctx context.Context, messages []chatMessage, p AskParams) (string, *models.LLMUsage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	bodyBytes, err := json.Marshal(chatRequest{Model: p.Model, Messages: messages})
	if err != nil {
		return "", nil, models.NewScrapeError(models.ErrCodeInternal, "marshal request", err)
	}

	endpoint := strings.TrimRight(p.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", nil, models.NewScrapeError(models.ErrCodeLLMFailure, "Error: "+err.Error(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, transportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, classifyLLMError(resp.StatusCode, respBody)
	}

	if !json.Valid(respBody) {
		return "", nil, models.NewScrapeError(models.ErrCodeLLMFailure, "Malformed response from AI API.", nil)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", nil, errUnexpectedStructure
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message == nil {
		return "", nil, errUnexpectedStructure
	}
	raw := bytes.TrimSpace(chatResp.Choices[0].Message.Content)
	if len(raw) == 0 || raw[0] != '"' {
		return "", nil, errUnexpectedStructure
	}
	var content string
	if err := json.Unmarshal(raw, &content); err != nil {
		return "", nil, errUnexpectedStructure
	}

	var usage *models.LLMUsage
	if u := chatResp.Usage; u != nil {
		usage = &models.LLMUsage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return content, usage, nil
}

var errUnexpectedStructure = models.NewScrapeError(models.ErrCodeLLMFailure, "Unexpected API response structure.", nil)

func transportError(err error) *models.ScrapeError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return models.NewScrapeError(models.ErrCodeLLMTimeout, "Request timed out", err)
	}
	return models.NewScrapeError(models.ErrCodeLLMFailure, "Error: "+err.Error(), err)
}

// classifyLLMError maps HTTP status codes to error codes. The message keeps
// the provider's body verbatim.
func classifyLLMError(statusCode int, body []byte) *models.ScrapeError {
	msg := fmt.Sprintf("API error: %d %s. %s", statusCode, http.StatusText(statusCode), strings.TrimSpace(string(body)))

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewScrapeError(models.ErrCodeLLMAuthFailure, msg, nil)
	case http.StatusTooManyRequests:
		return models.NewScrapeError(models.ErrCodeLLMRateLimited, msg, nil)
	default:
		return models.NewScrapeError(models.ErrCodeLLMFailure, msg, nil)
	}
}
