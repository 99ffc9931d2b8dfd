package listing

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/co-fun/mapscontacts/models"
)

// DefaultFileName is the base name used when the caller gives none.
const DefaultFileName = "google-maps-data"

const sheetName = "Listings"

var unsafeFileChars = regexp.MustCompile(`(?i)[^a-z0-9]`)

// FileName turns user input into a download name: surrounding whitespace is
// trimmed, every character outside [a-z0-9] becomes '_', the result is
// lowercased and ext is appended.
func FileName(input, ext string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return DefaultFileName + "." + ext
	}
	return strings.ToLower(unsafeFileChars.ReplaceAllString(input, "_")) + "." + ext
}

// CSV renders records with a display-name header row. Every value is
// quoted, embedded quotes are doubled and rows are joined with "\n".
func CSV(records []models.Listing) string {
	rows := make([]string, 0, len(records)+1)
	rows = append(rows, csvRow(models.ListingHeaders))
	for _, r := range records {
		rows = append(rows, csvRow(r.Values()))
	}
	return strings.Join(rows, "\n")
}

func csvRow(values []string) string {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	return strings.Join(cells, ",")
}

// WriteCSV writes CSV(records) to w.
func WriteCSV(w io.Writer, records []models.Listing) error {
	_, err := io.WriteString(w, CSV(records))
	return err
}

// WriteXLSX writes records as a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, records []models.Listing) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, h := range models.ListingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(models.ListingHeaders), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return err
	}

	for r, rec := range records {
		for c, v := range rec.Values() {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}

	for i := 1; i <= len(models.ListingHeaders); i++ {
		col, _ := excelize.ColumnNumberToName(i)
		_ = f.SetColWidth(sheetName, col, col, 32)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
