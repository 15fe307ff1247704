package httpserver

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"studiosite/internal/media"
	"studiosite/internal/query"
)

// listParams collects paging, sorting and the named filter keys from the
// query string. Unknown parameters are ignored.
func listParams(c *gin.Context, filterKeys ...string) query.Params {
	p := query.Params{
		SortBy:  c.Query("sortBy"),
		SortDir: c.Query("sortDir"),
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("perPage")); err == nil {
		p.PerPage = v
	}
	for _, key := range filterKeys {
		if v, ok := c.GetQuery(key); ok {
			if p.Filters == nil {
				p.Filters = map[string]string{}
			}
			p.Filters[key] = v
		}
	}
	return p
}

// includes parses the comma-separated include parameter.
func includes(c *gin.Context) []string {
	raw := c.Query("include")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readUpload materializes one multipart file into an Upload.
func readUpload(fh *multipart.FileHeader) (media.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return media.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return media.Upload{}, err
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return media.Upload{FileName: fh.Filename, MimeType: mimeType, Data: data}, nil
}
