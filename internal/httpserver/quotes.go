package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studiosite/internal/service/quote"
)

// submitQuote accepts either a JSON body or a multipart form with up to five
// attached files.
func (h *handlers) submitQuote(c *gin.Context) {
	var in quote.SubmitInput

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			badRequest(c, "malformed multipart form")
			return
		}
		value := func(key string) string {
			if vs := form.Value[key]; len(vs) > 0 {
				return vs[0]
			}
			return ""
		}
		in = quote.SubmitInput{
			Name:        value("name"),
			Email:       value("email"),
			Phone:       value("phone"),
			Company:     value("company"),
			ProjectType: value("projectType"),
			BudgetRange: value("budgetRange"),
			Timeline:    value("timeline"),
			Description: value("description"),
			Goals:       value("goals"),
		}
		for _, fh := range form.File["files"] {
			up, err := readUpload(fh)
			if err != nil {
				badRequest(c, "unreadable upload")
				return
			}
			in.Files = append(in.Files, up)
		}
	} else if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "malformed request body")
		return
	}

	out, err := h.deps.Quotes.Submit(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.deps.Dashboard.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, out)
}

func (h *handlers) listQuotes(c *gin.Context) {
	p := listParams(c, "search", "status", "project_type")
	quotes, meta, err := h.deps.Quotes.List(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, quotes, meta)
}

func (h *handlers) getQuote(c *gin.Context) {
	out, err := h.deps.Quotes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) updateQuoteStatus(c *gin.Context) {
	var req struct {
		Status     string `json:"status" binding:"required"`
		AdminNotes string `json:"adminNotes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	out, err := h.deps.Quotes.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.AdminNotes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.deps.Dashboard.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, out)
}

func (h *handlers) getDashboard(c *gin.Context) {
	out, err := h.deps.Dashboard.Get(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) refreshDashboard(c *gin.Context) {
	h.deps.Dashboard.Invalidate(c.Request.Context())
	out, err := h.deps.Dashboard.Get(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
