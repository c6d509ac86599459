package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

const defaultRecipeLimit = 50

// createRecipe answers 202 as soon as the job row exists; clients poll GET /recipes/:id.
func (h *handlers) createRecipe(c *gin.Context) {
	var body entity.RecipeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	id, err := h.deps.Recipes.Request(c.Request.Context(), ownerID(c), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id})
}

func (h *handlers) listRecipes(c *gin.Context) {
	limit := defaultRecipeLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := h.deps.Recipes.List(c.Request.Context(), ownerID(c), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": list})
}

func (h *handlers) getRecipe(c *gin.Context) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		badRequest(c, "id must be a UUID")
		return
	}
	rec, err := h.deps.Recipes.Get(c.Request.Context(), ownerID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
