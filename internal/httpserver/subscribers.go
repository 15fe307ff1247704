package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studiosite/internal/domain"
	"studiosite/internal/service/subscriber"
)

func (h *handlers) subscribe(c *gin.Context) {
	var in subscriber.SubscribeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	in.IPAddress = c.ClientIP()
	in.UserAgent = c.Request.UserAgent()

	sub, err := h.deps.Subscribers.Subscribe(c.Request.Context(), in)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Do not leak whether an address is on the list.
		c.JSON(http.StatusOK, gin.H{"status": "pending"})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": sub.Status})
}

// confirmSubscription serves both the emailed confirmation link (GET with
// query params) and API clients (POST with a JSON body).
func (h *handlers) confirmSubscription(c *gin.Context) {
	email := c.Query("email")
	token := c.Query("token")
	if email == "" || token == "" {
		var req struct {
			Email string `json:"email" binding:"required"`
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "email and token are required")
			return
		}
		email, token = req.Email, req.Token
	}
	sub, err := h.deps.Subscribers.Confirm(c.Request.Context(), email, token)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *handlers) unsubscribe(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email is required")
		return
	}
	if err := h.deps.Subscribers.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unsubscribed"})
}

func (h *handlers) listSubscribers(c *gin.Context) {
	p := listParams(c, "search", "status", "source")
	subs, meta, err := h.deps.Subscribers.List(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, subs, meta)
}

func (h *handlers) subscriberStats(c *gin.Context) {
	out, err := h.deps.Subscribers.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) markSubscriberBounced(c *gin.Context) {
	if err := h.deps.Subscribers.MarkBounced(c.Request.Context(), c.Param("email")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) markSubscriberComplained(c *gin.Context) {
	if err := h.deps.Subscribers.MarkComplained(c.Request.Context(), c.Param("email")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
