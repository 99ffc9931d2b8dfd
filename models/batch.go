package models

// BatchRequest is the payload for POST /api/v1/batch/collect.
type BatchRequest struct {
	// URLs is the list of search pages to collect. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=50,dive,url"`

	// Options contains shared fetch options applied to all URLs.
	Options BatchOptions `json:"options"`

	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// BatchOptions are the shared fetch settings applied to every URL in a batch.
type BatchOptions struct {
	Timeout   int    `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`
	Stealth   bool   `json:"stealth,omitempty"`
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`
	Scroll    *int   `json:"scroll,omitempty" binding:"omitempty,min=0,max=50"`
}

// BatchResponse is the immediate response for POST /api/v1/batch/collect.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Results   []*CollectResponse `json:"results,omitempty"`
}

// BatchJob tracks an in-progress batch collection.
type BatchJob struct {
	ID            string
	Status        string // "processing", "completed", "failed", "partial"
	Total         int
	Completed     int
	Results       []*CollectResponse
	CreatedAt     int64 // unix timestamp
	WebhookURL    string
	WebhookSecret string
}
