package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/extract"
)

const msgAnalysisFailed = "画像の解析に失敗しました"

func (h *handlers) fail(c *gin.Context, err error) {
	var exhausted *extract.ExhaustedError
	if errors.As(err, &exhausted) {
		h.logger.Error("http.extract.exhausted", "req_id", common.RequestIDFromContext(c.Request.Context()), "attempts", exhausted.Attempts, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": msgAnalysisFailed})
		return
	}

	status := common.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("http.error", "req_id", common.RequestIDFromContext(c.Request.Context()), "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": common.PublicMessage(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
