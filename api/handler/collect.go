package handler

import (
	"net/http"
	"time"

	"github.com/co-fun/mapscontacts/listing"
	"github.com/co-fun/mapscontacts/models"
	"github.com/gin-gonic/gin"
)

// Collect returns a handler for POST /api/v1/collect.
//
//  1. Parse & validate request, apply defaults.
//  2. Collector.Collect → sorted listings  (navigation_ms, extraction_ms)
//  3. Render the Markdown table when output_format=markdown.
func Collect(col *Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.CollectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.CollectResponse{Success: false, Error: invalidInput(err)})
			return
		}
		req.Defaults()

		out, err := col.Collect(c.Request.Context(), &req.ListingSource)
		timing := models.TimingInfo{}
		if out != nil {
			timing.NavigationMs = out.NavigationMs
			timing.ExtractionMs = out.ExtractionMs
		}
		if err != nil {
			detail, status := failure(err)
			timing.TotalMs = time.Since(totalStart).Milliseconds()
			c.JSON(status, models.CollectResponse{Success: false, Error: detail, Timing: timing})
			return
		}

		resp := models.CollectResponse{
			Success:     true,
			Listings:    out.Listings,
			Total:       len(out.Listings),
			SourceURL:   out.SourceURL,
			EngineUsed:  out.EngineUsed,
			CacheStatus: out.CacheStatus,
		}
		if resp.Listings == nil {
			resp.Listings = []models.Listing{}
		}
		if req.OutputFormat == "markdown" {
			table, err := listing.Markdown(out.Listings)
			if err != nil {
				detail, status := failure(models.NewScrapeError(models.ErrCodeExportFailed, "failed to render table", err))
				c.JSON(status, models.CollectResponse{Success: false, Error: detail, Timing: timing})
				return
			}
			resp.Table = table
		}

		timing.TotalMs = time.Since(totalStart).Milliseconds()
		resp.Timing = timing
		c.JSON(http.StatusOK, resp)
	}
}
