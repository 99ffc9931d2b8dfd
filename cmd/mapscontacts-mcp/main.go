package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// apiError mirrors the API error detail.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) String() string {
	if e == nil {
		return "unknown error"
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// collectResponse mirrors the collect API response.
type collectResponse struct {
	Success     bool      `json:"success"`
	Total       int       `json:"total"`
	SourceURL   string    `json:"source_url"`
	EngineUsed  string    `json:"engine_used"`
	CacheStatus string    `json:"cache_status"`
	Table       string    `json:"table"`
	Error       *apiError `json:"error"`
}

// askResponse mirrors the ask API response.
type askResponse struct {
	Success  bool   `json:"success"`
	Answer   string `json:"answer"`
	Total    int    `json:"total"`
	Telegram *struct {
		Sent  bool      `json:"sent"`
		Error *apiError `json:"error"`
	} `json:"telegram"`
	Error *apiError `json:"error"`
}

// sendResponse mirrors the telegram/send API response.
type sendResponse struct {
	Success bool      `json:"success"`
	Error   *apiError `json:"error"`
}

// batchResponse mirrors the batch API response.
type batchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// batchStatusResponse mirrors the batch status API response.
type batchStatusResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Results   []*collectResponse `json:"results"`
}

func main() {
	apiURL := os.Getenv("MAPSCONTACTS_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("MAPSCONTACTS_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "MAPSCONTACTS_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"mapscontacts",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	collectTool := mcp.NewTool("collect_listings",
		mcp.WithDescription("Collect business listings (name, phone, website, opening status, address, rating, directions) from a Google Maps search and return them as a Markdown table, best rated first."),
		mcp.WithString("query",
			mcp.Description("Free-text search, e.g. 'pizzeria near Naples'. Either query or url is required."),
		),
		mcp.WithString("url",
			mcp.Description("A Google Maps search results URL (https://www.google.com/maps/search/...)"),
		),
		mcp.WithNumber("scroll",
			mcp.Description("How many times to scroll the results list to load more places (default: server setting, max: 50)"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Reuse a cached result younger than this many milliseconds"),
		),
	)
	s.AddTool(collectTool, handleCollect(apiURL, apiKey))

	askTool := mcp.NewTool("ask_listings",
		mcp.WithDescription("Collect listings from a Google Maps search and answer a question about them with an LLM. Optionally forwards the answer to Telegram."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer about the listings"),
		),
		mcp.WithString("query",
			mcp.Description("Free-text search. Either query or url is required."),
		),
		mcp.WithString("url",
			mcp.Description("A Google Maps search results URL"),
		),
		mcp.WithBoolean("forward_to_telegram",
			mcp.Description("Post 'Q: ...\\nA: ...' to the configured Telegram chat"),
		),
	)
	s.AddTool(askTool, handleAsk(apiURL, apiKey))

	sendTool := mcp.NewTool("send_telegram",
		mcp.WithDescription("Send a text message to a Telegram chat through the server's bot."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The message to send"),
		),
		mcp.WithString("chat_id",
			mcp.Description("Target chat ID (default: server setting)"),
		),
	)
	s.AddTool(sendTool, handleSendTelegram(apiURL, apiKey))

	batchTool := mcp.NewTool("batch_collect",
		mcp.WithDescription("Collect listings from several Google Maps search URLs in parallel and summarise each result."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of Google Maps search URLs"),
		),
	)
	s.AddTool(batchTool, handleBatchCollect(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the API and decodes the JSON response into out.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// pollJobCompletion polls a job endpoint until status is no longer "processing" or context is cancelled.
func pollJobCompletion(ctx context.Context, client *http.Client, apiURL, apiKey, endpoint string) ([]byte, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+endpoint, nil)
			if err != nil {
				return nil, fmt.Errorf("create poll request: %w", err)
			}
			req.Header.Set("X-API-Key", apiKey)

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}

			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read poll response: %w", err)
			}

			var status struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}

			if status.Status != "processing" {
				return body, nil
			}
		}
	}
}

// sourcePayload builds the query-or-url part of a request.
func sourcePayload(request mcp.CallToolRequest) (map[string]any, error) {
	query := request.GetString("query", "")
	url := request.GetString("url", "")
	switch {
	case query == "" && url == "":
		return nil, fmt.Errorf("either query or url is required")
	case query != "" && url != "":
		return nil, fmt.Errorf("give either query or url, not both")
	case query != "":
		return map[string]any{"query": query}, nil
	default:
		return map[string]any{"url": url}, nil
	}
}

func handleCollect(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 180 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload, err := sourcePayload(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		payload["output_format"] = "markdown"

		args := request.GetArguments()
		if scroll, ok := args["scroll"]; ok {
			payload["scroll"] = scroll
		}
		if maxAge, ok := args["max_age"]; ok {
			payload["max_age"] = maxAge
		}

		var resp collectResponse
		if err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/collect", payload, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(resp.Error.String()), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Source: %s\nListings: %d (engine: %s", resp.SourceURL, resp.Total, resp.EngineUsed)
		if resp.CacheStatus != "" {
			fmt.Fprintf(&sb, ", cache: %s", resp.CacheStatus)
		}
		sb.WriteString(")\n\n")
		sb.WriteString(resp.Table)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleAsk(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 240 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError("question is required"), nil
		}
		payload, err := sourcePayload(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		payload["question"] = question
		payload["forward_to_telegram"] = request.GetBool("forward_to_telegram", false)

		var resp askResponse
		if err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/ask", payload, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(resp.Error.String()), nil
		}

		result := resp.Answer + fmt.Sprintf("\n\n---\nListings considered: %d", resp.Total)
		if tg := resp.Telegram; tg != nil {
			if tg.Sent {
				result += "\nForwarded to Telegram."
			} else {
				result += "\nTelegram forwarding failed: " + tg.Error.String()
			}
		}
		return mcp.NewToolResultText(result), nil
	}
}

func handleSendTelegram(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		payload := map[string]any{"text": text}
		if chatID := request.GetString("chat_id", ""); chatID != "" {
			payload["chat_id"] = chatID
		}

		var resp sendResponse
		if err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/telegram/send", payload, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(resp.Error.String()), nil
		}
		return mcp.NewToolResultText("Sent."), nil
	}
}

func handleBatchCollect(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		var batchResp batchResponse
		if err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/batch/collect", map[string]any{"urls": urls}, &batchResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch request failed: %v", err)), nil
		}
		if batchResp.ID == "" {
			return mcp.NewToolResultError("batch job creation failed"), nil
		}

		resultBody, err := pollJobCompletion(ctx, client, apiURL, apiKey, "/api/v1/batch/"+batchResp.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling batch job failed: %v", err)), nil
		}

		var statusResp batchStatusResponse
		if err := json.Unmarshal(resultBody, &statusResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch status: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Batch %s: %s (%d/%d completed)\n\n", statusResp.ID, statusResp.Status, statusResp.Completed, statusResp.Total)
		for i, r := range statusResp.Results {
			switch {
			case r == nil:
				fmt.Fprintf(&sb, "[%d] %s: not collected\n", i+1, urls[i])
			case r.Success:
				fmt.Fprintf(&sb, "[%d] %s: %d listings\n", i+1, urls[i], r.Total)
			default:
				fmt.Fprintf(&sb, "[%d] %s: FAILED %s\n", i+1, urls[i], r.Error.String())
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
