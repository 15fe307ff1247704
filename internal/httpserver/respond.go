package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studiosite/internal/domain"
	"studiosite/internal/query"
	"studiosite/internal/service/auth"
)

// listResponse is the envelope for every paginated listing.
type listResponse struct {
	Data any        `json:"data"`
	Meta query.Meta `json:"meta"`
}

func respondList(c *gin.Context, data any, meta query.Meta) {
	c.JSON(http.StatusOK, listResponse{Data: data, Meta: meta})
}

// respondError maps service errors to status codes. Validation details are
// returned field-keyed; everything unexpected collapses to a generic 500.
func (h *handlers) respondError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, domain.ErrHasDependents):
		c.JSON(http.StatusConflict, gin.H{"error": "has dependent records"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, auth.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
	default:
		h.logger.Printf("http: internal error method=%s path=%s err=%v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
