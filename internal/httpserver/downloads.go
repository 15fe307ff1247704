package httpserver

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"studiosite/internal/domain"
	"studiosite/internal/export"
	dlrepo "studiosite/internal/repository/download"
	"studiosite/internal/service/download"
)

var downloadFilterKeys = []string{
	"search", "brand", "category", "file_type", "featured", "public",
}

func (h *handlers) listPublicDownloads(c *gin.Context) {
	p := listParams(c, "search", "brand", "category", "file_type", "featured")
	downloads, meta, err := h.deps.Downloads.ListPublic(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, downloads, meta)
}

func (h *handlers) getPublicDownload(c *gin.Context) {
	out, err := h.deps.Downloads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !out.IsPublic {
		h.respondError(c, domain.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, out)
}

// processDownload hands out the file URL and bumps the counter.
func (h *handlers) processDownload(c *gin.Context) {
	url, count, err := h.deps.Downloads.ProcessDownload(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "downloadCount": count})
}

func (h *handlers) listDownloads(c *gin.Context) {
	p := listParams(c, downloadFilterKeys...)
	downloads, meta, err := h.deps.Downloads.List(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, downloads, meta)
}

func (h *handlers) getDownload(c *gin.Context) {
	out, err := h.deps.Downloads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) createDownload(c *gin.Context) {
	var in download.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	out, err := h.deps.Downloads.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.deps.Dashboard.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, out)
}

func (h *handlers) updateDownload(c *gin.Context) {
	var in download.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	out, err := h.deps.Downloads.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) deleteDownload(c *gin.Context) {
	if err := h.deps.Downloads.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	h.deps.Dashboard.Invalidate(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *handlers) uploadDownloadPoster(c *gin.Context) {
	up, ok := h.singleUpload(c, "poster")
	if !ok {
		return
	}
	out, err := h.deps.Downloads.UploadPoster(c.Request.Context(), c.Param("id"), up)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *handlers) uploadDownloadFile(c *gin.Context) {
	up, ok := h.singleUpload(c, "file")
	if !ok {
		return
	}
	out, err := h.deps.Downloads.UploadFile(c.Request.Context(), c.Param("id"), up)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *handlers) duplicateDownload(c *gin.Context) {
	out, err := h.deps.Downloads.Duplicate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *handlers) reorderDownloads(c *gin.Context) {
	var req struct {
		Items []domain.ReorderItem `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		badRequest(c, "items are required")
		return
	}
	out, err := h.deps.Downloads.Reorder(c.Request.Context(), req.Items)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) bulkUpdateDownloads(c *gin.Context) {
	var req struct {
		IDs    []string          `json:"ids"`
		Fields dlrepo.BulkFields `json:"fields"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	n, err := h.deps.Downloads.BulkUpdate(c.Request.Context(), req.IDs, req.Fields)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (h *handlers) bulkDeleteDownloads(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	n, err := h.deps.Downloads.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.deps.Dashboard.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *handlers) downloadStats(c *gin.Context) {
	out, err := h.deps.Downloads.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// exportDownloads streams the filtered catalog as a CSV or JSON file.
func (h *handlers) exportDownloads(c *gin.Context) {
	format := c.DefaultQuery("format", export.FormatCSV)
	p := listParams(c, downloadFilterKeys...)
	path, err := h.deps.Downloads.Export(c.Request.Context(), p, format)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer os.Remove(path)
	c.FileAttachment(path, export.FileName(format))
}
