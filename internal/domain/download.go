package domain

import "time"

// Download is a public brand asset (logo pack, press kit, brochure). The
// UUID doubles as the public route key.
type Download struct {
	ID              int64            `json:"-"`
	UUID            string           `json:"uuid"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	Brand           string           `json:"brand,omitempty"`
	Category        string           `json:"category,omitempty"`
	FileType        string           `json:"fileType,omitempty"`
	FileSize        int64            `json:"fileSize"`
	DownloadCount   int64            `json:"downloadCount"`
	IsFeatured      bool             `json:"isFeatured"`
	IsPublic        bool             `json:"isPublic"`
	SortOrder       int              `json:"sortOrder"`
	MetaTitle       string           `json:"metaTitle,omitempty"`
	MetaDescription string           `json:"metaDescription,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	Poster          *MediaAttachment `json:"poster,omitempty"`
	File            *MediaAttachment `json:"file,omitempty"`
	DeletedAt       *time.Time       `json:"-"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// FormattedFileSize renders the payload size for display.
func (d Download) FormattedFileSize() string {
	return FormatSize(d.FileSize)
}

// DownloadStats aggregates download counters for the admin dashboard.
type DownloadStats struct {
	Total          int64 `json:"total"`
	Public         int64 `json:"public"`
	Featured       int64 `json:"featured"`
	TotalDownloads int64 `json:"totalDownloads"`
}
