package domain

import (
	"fmt"
	"time"
)

// Media collection names.
const (
	CollectionPoster    = "poster"
	CollectionGallery   = "gallery"
	CollectionDocuments = "documents"
	CollectionFile      = "file"
	CollectionFiles     = "files"
)

// Media owner types.
const (
	OwnerProject  = "project"
	OwnerDownload = "download"
	OwnerQuote    = "quote"
	OwnerCustomer = "customer"
)

// MediaAttachment is one stored file owned by exactly one entity instance
// under a named collection.
type MediaAttachment struct {
	ID          string    `json:"id"`
	OwnerType   string    `json:"-"`
	OwnerID     int64     `json:"-"`
	Collection  string    `json:"collection"`
	FileName    string    `json:"fileName"`
	StoragePath string    `json:"-"`
	MimeType    string    `json:"mimeType"`
	SizeBytes   int64     `json:"sizeBytes"`
	SortOrder   int       `json:"sortOrder"`
	Featured    bool      `json:"featured"`
	URL         string    `json:"url,omitempty"`
	ThumbURL    string    `json:"thumbUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FormattedSize renders SizeBytes for display (e.g. "2.4 MB").
func (m MediaAttachment) FormattedSize() string {
	return FormatSize(m.SizeBytes)
}

// FormatSize renders a byte count in binary units with one decimal.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
