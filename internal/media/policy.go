package media

import (
	"fmt"

	"studiosite/internal/domain"
)

const (
	maxImageBytes      = 10 << 20 // 10MB canonical image ceiling
	maxDocumentBytes   = 25 << 20
	maxAttachmentBytes = 10 << 20
)

var imageMimes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"}

var documentMimes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
	"application/zip",
}

// Rule is the accept policy for one collection.
type Rule struct {
	MaxBytes int64
	Mimes    []string // empty means any type
	Single   bool
}

// CollectionRules maps collection name to its accept policy. One canonical
// limit per collection; nothing is negotiated per endpoint.
var CollectionRules = map[string]Rule{
	domain.CollectionPoster:    {MaxBytes: maxImageBytes, Mimes: imageMimes, Single: true},
	domain.CollectionGallery:   {MaxBytes: maxImageBytes, Mimes: imageMimes},
	domain.CollectionDocuments: {MaxBytes: maxDocumentBytes, Mimes: documentMimes},
	domain.CollectionFile:      {MaxBytes: maxDocumentBytes, Single: true},
	domain.CollectionFiles:     {MaxBytes: maxAttachmentBytes, Mimes: append(append([]string{}, imageMimes...), documentMimes...)},
}

// ValidateUpload checks an upload against the collection policy. Violations
// come back as field-keyed validation errors.
func ValidateUpload(collection string, up Upload) error {
	rule, ok := CollectionRules[collection]
	if !ok {
		return domain.NewValidationError("collection", fmt.Sprintf("unknown collection %q", collection))
	}
	if int64(len(up.Data)) > rule.MaxBytes {
		return domain.NewValidationError("file", fmt.Sprintf("%s exceeds the %s limit", up.FileName, domain.FormatSize(rule.MaxBytes)))
	}
	if len(rule.Mimes) == 0 {
		return nil
	}
	for _, m := range rule.Mimes {
		if m == up.MimeType {
			return nil
		}
	}
	return domain.NewValidationError("file", fmt.Sprintf("type %s is not accepted for %s", up.MimeType, collection))
}
