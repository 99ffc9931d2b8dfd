package models

// CollectResponse is the response for POST /api/v1/collect.
type CollectResponse struct {
	// Success indicates whether the collection completed without errors.
	Success bool `json:"success"`

	// Listings are sorted by score, then review count, then name.
	Listings []Listing `json:"listings"`

	// Total is len(Listings).
	Total int `json:"total"`

	// SourceURL is the page the listings were collected from, if any.
	SourceURL string `json:"source_url,omitempty"`

	// EngineUsed indicates which fetch engine produced the page
	// (e.g. "http", "rod", "rod-stealth", "input").
	EngineUsed string `json:"engine_used,omitempty"`

	// CacheStatus is "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Table is the rendered Markdown table when output_format=markdown.
	Table string `json:"table,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	TotalMs      int64 `json:"total_ms"`
	NavigationMs int64 `json:"navigation_ms"`
	ExtractionMs int64 `json:"extraction_ms"`
}

// AskResponse is the response for POST /api/v1/ask.
type AskResponse struct {
	Success bool `json:"success"`

	// Answer is the model's answer, verbatim.
	Answer string `json:"answer,omitempty"`

	// Total is the number of listings the question was asked about.
	Total int `json:"total"`

	// Telegram reports the forwarding outcome, independent of Success.
	Telegram *TelegramStatus `json:"telegram,omitempty"`

	Timing AskTimingInfo `json:"timing"`

	// LLMUsage reports the LLM token consumption.
	LLMUsage *LLMUsage `json:"llm_usage,omitempty"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// AskTimingInfo extends TimingInfo with the answer and forwarding phases.
type AskTimingInfo struct {
	TotalMs      int64 `json:"total_ms"`
	NavigationMs int64 `json:"navigation_ms"`
	ExtractionMs int64 `json:"extraction_ms"`
	AnswerMs     int64 `json:"answer_ms"`
	TelegramMs   int64 `json:"telegram_ms,omitempty"`
}

// LLMUsage reports token consumption from the LLM call.
type LLMUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// TelegramStatus is the outcome of forwarding an answer.
type TelegramStatus struct {
	Sent  bool         `json:"sent"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// TelegramSendResponse is the response for POST /api/v1/telegram/send.
type TelegramSendResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
