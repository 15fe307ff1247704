// Package export renders catalog data to files handed out as admin
// downloads.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"studiosite/internal/domain"
)

// Supported export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var downloadHeader = []string{
	"id", "uuid", "title", "description", "brand", "category",
	"file_type", "file_size", "download_count", "is_featured",
	"is_public", "sort_order", "created_at", "updated_at",
}

type downloadRecord struct {
	ID            int64  `json:"id"`
	UUID          string `json:"uuid"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Brand         string `json:"brand"`
	Category      string `json:"category"`
	FileType      string `json:"fileType"`
	FileSize      string `json:"fileSize"`
	DownloadCount int64  `json:"downloadCount"`
	IsFeatured    string `json:"isFeatured"`
	IsPublic      string `json:"isPublic"`
	SortOrder     int    `json:"sortOrder"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

func record(d domain.Download) downloadRecord {
	return downloadRecord{
		ID:            d.ID,
		UUID:          d.UUID,
		Title:         d.Title,
		Description:   d.Description,
		Brand:         d.Brand,
		Category:      d.Category,
		FileType:      d.FileType,
		FileSize:      d.FormattedFileSize(),
		DownloadCount: d.DownloadCount,
		IsFeatured:    yesNo(d.IsFeatured),
		IsPublic:      yesNo(d.IsPublic),
		SortOrder:     d.SortOrder,
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     d.UpdatedAt.Format(time.RFC3339),
	}
}

// Downloads writes the given rows to a temp file in the requested format and
// returns its path. The caller removes the file once served.
func Downloads(downloads []domain.Download, format string) (string, error) {
	f, err := os.CreateTemp("", "downloads-export-*."+format)
	if err != nil {
		return "", err
	}
	defer f.Close()

	switch format {
	case FormatCSV:
		err = writeCSV(f, downloads)
	case FormatJSON:
		err = writeJSON(f, downloads)
	default:
		err = fmt.Errorf("export: unsupported format %q", format)
	}
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func writeCSV(f *os.File, downloads []domain.Download) error {
	w := csv.NewWriter(f)
	if err := w.Write(downloadHeader); err != nil {
		return err
	}
	for _, d := range downloads {
		r := record(d)
		row := []string{
			strconv.FormatInt(r.ID, 10), r.UUID, r.Title, r.Description,
			r.Brand, r.Category, r.FileType, r.FileSize,
			strconv.FormatInt(r.DownloadCount, 10), r.IsFeatured,
			r.IsPublic, strconv.Itoa(r.SortOrder), r.CreatedAt, r.UpdatedAt,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(f *os.File, downloads []domain.Download) error {
	records := make([]downloadRecord, 0, len(downloads))
	for _, d := range downloads {
		records = append(records, record(d))
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// FileName suggests a download name for the exported file.
func FileName(format string) string {
	return fmt.Sprintf("downloads_%s.%s", strings.ReplaceAll(time.Now().Format("2006-01-02 15:04:05"), " ", "_"), format)
}
