package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *handlers) trends(c *gin.Context) {
	points, err := h.deps.Dashboard.Trends(c.Request.Context(), ownerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": points})
}

func (h *handlers) stats(c *gin.Context) {
	stats, err := h.deps.Dashboard.Stats(c.Request.Context(), ownerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handlers) expiring(c *gin.Context) {
	items, err := h.deps.Dashboard.Expiring(c.Request.Context(), ownerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": items})
}

func (h *handlers) popular(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		badRequest(c, "limit must be a positive integer")
		return
	}
	list, err := h.deps.Dashboard.Popular(c.Request.Context(), ownerID(c), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": list})
}

func (h *handlers) categories(c *gin.Context) {
	list, err := h.deps.Dashboard.Categories(c.Request.Context(), ownerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": list})
}

func (h *handlers) export(c *gin.Context) {
	data, err := h.deps.Export.ExportInventoryXLSX(c.Request.Context(), ownerID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	name := fmt.Sprintf("pantry-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *handlers) health(c *gin.Context) {
	if h.deps.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.deps.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
