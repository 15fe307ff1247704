package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studiosite/internal/domain"
)

const userContextKey = "authenticatedUser"

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	sess, err := h.deps.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.deps.Auth.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// requireAuth resolves the bearer token and aborts with 401 when it does not
// map to a live session.
func (h *handlers) requireAuth(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	u, err := h.deps.Auth.Lookup(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	c.Set(userContextKey, u)
	c.Next()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return header[7:]
	}
	return ""
}

func currentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(userContextKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
