package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/services/inventory"
)

var (
	msgImageRequired = "画像ファイルが必要です"
	msgImageOnly     = "画像ファイルのみ受け付けます"
	msgImageTooLarge = fmt.Sprintf("ファイルサイズは%dMB以下にしてください", constants.MaxImageMB)
)

// uploadImage runs extraction synchronously and returns the stored ingredients.
func (h *handlers) uploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)

	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(c, msgImageTooLarge)
			return
		}
		badRequest(c, msgImageRequired)
		return
	}
	if fh.Size > constants.MaxImageBytes {
		badRequest(c, msgImageTooLarge)
		return
	}
	mediaType := fh.Header.Get("Content-Type")
	if !constants.IsImageMediaType(mediaType) {
		badRequest(c, msgImageOnly)
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(data) == 0 {
		badRequest(c, msgImageRequired)
		return
	}

	res, err := h.deps.Ingredients.Intake(c.Request.Context(), ownerID(c), inventory.IntakeRequest{
		Filename:  fh.Filename,
		MediaType: mediaType,
		Data:      data,
		Prompt:    c.PostForm("prompt"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	body := gin.H{"ingredients": res.Ingredients}
	if res.ArchiveKey != "" {
		body["archive_key"] = res.ArchiveKey
	}
	c.JSON(http.StatusCreated, body)
}

func (h *handlers) listIngredients(c *gin.Context) {
	items, err := h.deps.Ingredients.List(c.Request.Context(), ownerID(c), c.Query("status"), c.Query("category"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": items})
}

func (h *handlers) useIngredient(c *gin.Context) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		badRequest(c, "id must be a UUID")
		return
	}
	ing, err := h.deps.Ingredients.MarkUsed(c.Request.Context(), ownerID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ing)
}
