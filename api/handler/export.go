package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/co-fun/mapscontacts/listing"
	"github.com/co-fun/mapscontacts/models"
	"github.com/gin-gonic/gin"
)

type exportFormat struct {
	ext         string
	contentType string
	write       func(*bytes.Buffer, []models.Listing) error
}

var exportFormats = map[string]exportFormat{
	"csv": {"csv", "text/csv; charset=utf-8", func(b *bytes.Buffer, r []models.Listing) error {
		return listing.WriteCSV(b, r)
	}},
	"xlsx": {"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", func(b *bytes.Buffer, r []models.Listing) error {
		return listing.WriteXLSX(b, r)
	}},
	"markdown": {"md", "text/markdown; charset=utf-8", func(b *bytes.Buffer, r []models.Listing) error {
		md, err := listing.Markdown(r)
		if err != nil {
			return err
		}
		b.WriteString(md)
		return nil
	}},
}

// Export returns a handler for POST /api/v1/export. It collects the
// listings and responds with a downloadable CSV, XLSX or Markdown file.
func Export(col *Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ExportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.CollectResponse{Success: false, Error: invalidInput(err)})
			return
		}
		req.Defaults()

		out, err := col.Collect(c.Request.Context(), &req.ListingSource)
		if err != nil {
			detail, status := failure(err)
			c.JSON(status, models.CollectResponse{Success: false, Error: detail})
			return
		}

		format := exportFormats[req.Format]
		var buf bytes.Buffer
		if err := format.write(&buf, out.Listings); err != nil {
			detail, status := failure(models.NewScrapeError(models.ErrCodeExportFailed, "failed to write "+req.Format+" export", err))
			c.JSON(status, models.CollectResponse{Success: false, Error: detail})
			return
		}

		name := listing.FileName(req.FileName, format.ext)
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
		c.Data(http.StatusOK, format.contentType, buf.Bytes())
	}
}
