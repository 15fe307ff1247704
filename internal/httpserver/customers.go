package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studiosite/internal/service/customer"
)

func (h *handlers) listCustomers(c *gin.Context) {
	p := listParams(c, "search", "status", "company_name")
	customers, meta, err := h.deps.Customers.List(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, customers, meta)
}

func (h *handlers) getCustomer(c *gin.Context) {
	out, err := h.deps.Customers.Get(c.Request.Context(), c.Param("id"), includes(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) createCustomer(c *gin.Context) {
	var in customer.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	out, err := h.deps.Customers.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.deps.Dashboard.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, out)
}

func (h *handlers) updateCustomer(c *gin.Context) {
	var in customer.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	out, err := h.deps.Customers.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.deps.Dashboard.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, out)
}

func (h *handlers) deleteCustomer(c *gin.Context) {
	if err := h.deps.Customers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	h.deps.Dashboard.Invalidate(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *handlers) customerStats(c *gin.Context) {
	out, err := h.deps.Customers.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
