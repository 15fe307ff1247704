package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studiosite/internal/domain"
	"studiosite/internal/media"
	"studiosite/internal/service/project"
)

var projectFilterKeys = []string{
	"search", "status", "priority", "customer_id", "production_type",
	"category", "featured", "public", "start_date", "end_date",
}

// listPortfolio is the public portfolio listing: public projects only.
func (h *handlers) listPortfolio(c *gin.Context) {
	p := listParams(c, "search", "production_type", "category", "featured")
	projects, meta, err := h.deps.Projects.ListPublic(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, projects, meta)
}

func (h *handlers) getPortfolioProject(c *gin.Context) {
	out, err := h.deps.Projects.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) getRelatedProjects(c *gin.Context) {
	p, err := h.deps.Projects.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	related, err := h.deps.Projects.GetRelated(c.Request.Context(), p.PublicID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": related})
}

func (h *handlers) listProjects(c *gin.Context) {
	p := listParams(c, projectFilterKeys...)
	projects, meta, err := h.deps.Projects.List(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, projects, meta)
}

func (h *handlers) getProject(c *gin.Context) {
	out, err := h.deps.Projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) createProject(c *gin.Context) {
	var in project.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	out, err := h.deps.Projects.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.deps.Dashboard.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, out)
}

func (h *handlers) updateProject(c *gin.Context) {
	var in project.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	out, err := h.deps.Projects.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.deps.Dashboard.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, out)
}

func (h *handlers) deleteProject(c *gin.Context) {
	if err := h.deps.Projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	h.deps.Dashboard.Invalidate(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *handlers) uploadProjectPoster(c *gin.Context) {
	up, ok := h.singleUpload(c, "poster")
	if !ok {
		return
	}
	out, err := h.deps.Projects.UploadPoster(c.Request.Context(), c.Param("id"), up)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *handlers) uploadProjectGallery(c *gin.Context) {
	ups, ok := h.multiUpload(c, "images")
	if !ok {
		return
	}
	out, err := h.deps.Projects.UploadGallery(c.Request.Context(), c.Param("id"), ups)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": out})
}

func (h *handlers) uploadProjectDocuments(c *gin.Context) {
	ups, ok := h.multiUpload(c, "documents")
	if !ok {
		return
	}
	out, err := h.deps.Projects.UploadDocuments(c.Request.Context(), c.Param("id"), ups)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": out})
}

func (h *handlers) removeProjectMedia(c *gin.Context) {
	if err := h.deps.Projects.RemoveMedia(c.Request.Context(), c.Param("id"), c.Param("mediaId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) reorderProjects(c *gin.Context) {
	var req struct {
		Items []domain.ReorderItem `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		badRequest(c, "items are required")
		return
	}
	out, err := h.deps.Projects.Reorder(c.Request.Context(), req.Items)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) projectStats(c *gin.Context) {
	out, err := h.deps.Projects.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// singleUpload reads the one expected multipart file from field.
func (h *handlers) singleUpload(c *gin.Context, field string) (media.Upload, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		badRequest(c, field+" file is required")
		return media.Upload{}, false
	}
	up, err := readUpload(fh)
	if err != nil {
		badRequest(c, "unreadable upload")
		return media.Upload{}, false
	}
	return up, true
}

// multiUpload reads every multipart file posted under field.
func (h *handlers) multiUpload(c *gin.Context, field string) ([]media.Upload, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "multipart form expected")
		return nil, false
	}
	files := form.File[field]
	if len(files) == 0 {
		badRequest(c, "at least one "+field+" file is required")
		return nil, false
	}
	ups := make([]media.Upload, 0, len(files))
	for _, fh := range files {
		up, err := readUpload(fh)
		if err != nil {
			badRequest(c, "unreadable upload")
			return nil, false
		}
		ups = append(ups, up)
	}
	return ups, true
}
