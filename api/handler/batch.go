package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/co-fun/mapscontacts/models"
	"github.com/co-fun/mapscontacts/webhook"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// batchTTL is how long finished jobs stay queryable.
const batchTTL = time.Hour

// BatchStore holds in-flight and finished batch jobs.
type BatchStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.BatchJob
}

// NewBatchStore creates a store and starts a goroutine that drops jobs
// older than an hour until ctx is done.
func NewBatchStore(ctx context.Context) *BatchStore {
	s := &BatchStore{jobs: make(map[string]*models.BatchJob)}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.expire(now)
			}
		}
	}()
	return s
}

func (s *BatchStore) put(job *models.BatchJob) {
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
}

// snapshot copies a job under the read lock.
func (s *BatchStore) snapshot(id string) (models.BatchStatusResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.BatchStatusResponse{}, false
	}
	return models.BatchStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Completed: job.Completed,
		Total:     job.Total,
		Results:   append([]*models.CollectResponse(nil), job.Results...),
	}, true
}

func (s *BatchStore) update(id string, fn func(*models.BatchJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

func (s *BatchStore) expire(now time.Time) {
	cutoff := now.Add(-batchTTL).Unix()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if job.CreatedAt < cutoff {
			delete(s.jobs, id)
		}
	}
}

// PostBatch returns a handler for POST /api/v1/batch/collect. It registers
// a job, collects every URL in the background with at most concurrency
// collections running at once, and answers immediately.
func PostBatch(col *Collector, store *BatchStore, sender *webhook.Sender, concurrency int) gin.HandlerFunc {
	if concurrency <= 0 {
		concurrency = 1
	}
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": invalidInput(err)})
			return
		}

		job := &models.BatchJob{
			ID:            "batch-" + uuid.NewString(),
			Status:        "processing",
			Total:         len(req.URLs),
			Results:       make([]*models.CollectResponse, len(req.URLs)),
			CreatedAt:     time.Now().Unix(),
			WebhookURL:    req.WebhookURL,
			WebhookSecret: req.WebhookSecret,
		}
		store.put(job)

		go runBatch(col, store, sender, job.ID, req, concurrency)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     job.ID,
			Status: job.Status,
			Total:  job.Total,
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch(store *BatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, ok := store.snapshot(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": models.ErrorDetail{
					Code:    models.ErrCodeJobNotFound,
					Message: "batch job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func runBatch(col *Collector, store *BatchStore, sender *webhook.Sender, jobID string, req models.BatchRequest, concurrency int) {
	sem := make(chan struct{}, concurrency)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)

	for i, rawURL := range req.URLs {
		wg.Add(1)
		go func(idx int, target string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			resp := collectOne(col, target, req.Options)

			mu.Lock()
			if !resp.Success {
				failed++
			}
			mu.Unlock()
			store.update(jobID, func(job *models.BatchJob) {
				job.Results[idx] = resp
				job.Completed++
			})
		}(i, rawURL)
	}
	wg.Wait()

	var hookURL, hookSecret string
	store.update(jobID, func(job *models.BatchJob) {
		switch {
		case failed == job.Total:
			job.Status = "failed"
		case failed > 0:
			job.Status = "partial"
		default:
			job.Status = "completed"
		}
		hookURL, hookSecret = job.WebhookURL, job.WebhookSecret
	})
	final, _ := store.snapshot(jobID)

	slog.Info("batch job finished",
		"id", jobID, "status", final.Status, "failed", failed, "total", final.Total)

	if hookURL != "" && sender != nil {
		sender.DeliverAsync(hookURL, hookSecret, &webhook.Event{
			Type:      webhook.EventBatchCompleted,
			JobID:     jobID,
			Timestamp: time.Now().Unix(),
			Data:      final,
		})
	}
}

// collectOne collects one URL with the batch's shared options.
func collectOne(col *Collector, target string, opts models.BatchOptions) *models.CollectResponse {
	start := time.Now()
	src := models.ListingSource{
		URL:       target,
		Timeout:   opts.Timeout,
		Stealth:   opts.Stealth,
		FetchMode: opts.FetchMode,
		Scroll:    opts.Scroll,
	}
	src.Defaults()

	out, err := col.Collect(context.Background(), &src)
	timing := models.TimingInfo{}
	if out != nil {
		timing.NavigationMs = out.NavigationMs
		timing.ExtractionMs = out.ExtractionMs
	}
	timing.TotalMs = time.Since(start).Milliseconds()
	if err != nil {
		detail, _ := failure(err)
		return &models.CollectResponse{Success: false, SourceURL: target, Error: detail, Timing: timing}
	}

	listings := out.Listings
	if listings == nil {
		listings = []models.Listing{}
	}
	return &models.CollectResponse{
		Success:    true,
		Listings:   listings,
		Total:      len(listings),
		SourceURL:  out.SourceURL,
		EngineUsed: out.EngineUsed,
		Timing:     timing,
	}
}
