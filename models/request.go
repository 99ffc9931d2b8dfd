package models

// ListingSource says where listings come from. Exactly one of URL, Query,
// HTML or Listings must be set.
type ListingSource struct {
	// URL is a live Google Maps search-results page.
	URL string `json:"url,omitempty" binding:"omitempty,url"`

	// Query builds the search URL from a free-text query, optionally
	// centred on Latitude/Longitude at Zoom.
	Query     string   `json:"query,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" binding:"omitempty,longitude"`
	Zoom      float64  `json:"zoom,omitempty" binding:"omitempty,min=1,max=21"`

	// HTML is an already rendered results page. PageURL, if given, is used
	// to resolve relative links.
	HTML    string `json:"html,omitempty"`
	PageURL string `json:"page_url,omitempty" binding:"omitempty,url"`

	// Listings skips collection entirely (ask/export on a previous result).
	Listings []Listing `json:"listings,omitempty"`

	// Timeout is the max duration in seconds for fetching the page.
	// Default: 45. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot-detection evasions.
	Stealth bool `json:"stealth,omitempty"`

	// FetchMode controls the fetching strategy.
	// "auto" (default), "http", "browser".
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`

	// Scroll caps how many times the results feed is scrolled to load more
	// cards. Nil uses the server default.
	Scroll *int `json:"scroll,omitempty" binding:"omitempty,min=0,max=50"`

	// MaxAge enables the listing cache: a cached result younger than MaxAge
	// milliseconds is returned without fetching.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (s *ListingSource) Defaults() {
	if s.Timeout == 0 {
		s.Timeout = 45
	}
	if s.FetchMode == "" {
		s.FetchMode = "auto"
	}
}

// Validate checks that exactly one source is set.
func (s *ListingSource) Validate() *ScrapeError {
	n := 0
	for _, set := range []bool{s.URL != "", s.Query != "", s.HTML != "", s.Listings != nil} {
		if set {
			n++
		}
	}
	switch {
	case n == 0:
		return NewScrapeError(ErrCodeInvalidInput, "one of url, query, html or listings is required", nil)
	case n > 1:
		return NewScrapeError(ErrCodeInvalidInput, "url, query, html and listings are mutually exclusive", nil)
	case (s.Latitude == nil) != (s.Longitude == nil):
		return NewScrapeError(ErrCodeInvalidInput, "latitude and longitude must be given together", nil)
	}
	return nil
}

// CollectRequest is the payload for POST /api/v1/collect.
type CollectRequest struct {
	ListingSource

	// OutputFormat adds a rendered table to the response.
	// Allowed: "json" (default, listings only), "markdown".
	OutputFormat string `json:"output_format,omitempty" binding:"omitempty,oneof=json markdown"`
}

// Defaults applies default values to unset fields.
func (r *CollectRequest) Defaults() {
	r.ListingSource.Defaults()
	if r.OutputFormat == "" {
		r.OutputFormat = "json"
	}
}

// TelegramCredentials identify the bot and the chat to post into.
type TelegramCredentials struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

// AskRequest is the payload for POST /api/v1/ask.
type AskRequest struct {
	ListingSource

	// Question is the natural-language question about the listings. Required.
	Question string `json:"question" binding:"required"`

	// LLMAPIKey overrides the server-side key (BYOK).
	LLMAPIKey string `json:"llm_api_key,omitempty"`

	// LLMModel overrides the configured model.
	LLMModel string `json:"llm_model,omitempty"`

	// LLMBaseURL overrides the configured OpenAI-compatible base URL.
	LLMBaseURL string `json:"llm_base_url,omitempty" binding:"omitempty,url"`

	// ForwardToTelegram posts "Q: …\nA: …" to the Telegram chat once the
	// answer is available.
	ForwardToTelegram bool `json:"forward_to_telegram,omitempty"`

	// Telegram overrides the server-side bot credentials.
	Telegram *TelegramCredentials `json:"telegram,omitempty"`
}

// TelegramSendRequest is the payload for POST /api/v1/telegram/send.
type TelegramSendRequest struct {
	TelegramCredentials
	Text string `json:"text"`
}

// ExportRequest is the payload for POST /api/v1/export.
type ExportRequest struct {
	ListingSource

	// Format is the attachment format: "csv" (default), "xlsx", "markdown".
	Format string `json:"format,omitempty" binding:"omitempty,oneof=csv xlsx markdown"`

	// FileName is sanitized into the attachment name.
	FileName string `json:"filename,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *ExportRequest) Defaults() {
	r.ListingSource.Defaults()
	if r.Format == "" {
		r.Format = "csv"
	}
}
