package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateshare/backend/internal/service"
	"github.com/plateshare/backend/internal/types"
)

type RecipeHandler struct {
	recipes   *service.RecipeService
	relations *service.RelationService
	shopping  *service.ShoppingListService
}

func NewRecipeHandler(recipes *service.RecipeService, relations *service.RelationService, shopping *service.ShoppingListService) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		relations: relations,
		shopping:  shopping,
	}
}

// ListRecipes returns recipes newest first, optionally filtered by
// author and tag slugs. Anonymous readers get both membership flags
// false.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	viewerID, _ := currentUserID(c)

	filter := types.RecipeFilter{
		TagSlugs: c.QueryArray("tags"),
		Limit:    intQuery(c, "limit"),
		Offset:   intQuery(c, "offset"),
	}
	if author := c.Query("author"); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id"})
			return
		}
		filter.AuthorID = id
	}

	views, err := h.recipes.List(c.Request.Context(), viewerID, filter)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": views})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipeID, ok := pathID(c)
	if !ok {
		return
	}
	viewerID, _ := currentUserID(c)

	view, err := h.recipes.Get(c.Request.Context(), viewerID, recipeID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var payload types.RecipeWritePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.recipes.Create(c.Request.Context(), userID, &payload)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	recipeID, ok := pathID(c)
	if !ok {
		return
	}

	var payload types.RecipeWritePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.recipes.Update(c.Request.Context(), userID, recipeID, &payload)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	recipeID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), userID, recipeID); err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) FavoriteRecipe(c *gin.Context) {
	h.addRelation(c, h.relations.AddFavorite)
}

func (h *RecipeHandler) UnfavoriteRecipe(c *gin.Context) {
	h.removeRelation(c, h.relations.RemoveFavorite)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	h.addRelation(c, h.relations.AddShoppingListEntry)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	h.removeRelation(c, h.relations.RemoveShoppingListEntry)
}

// DownloadShoppingList renders the merged shopping list as a text file
// attachment. An empty shopping list downloads an empty file, not an
// error.
func (h *RecipeHandler) DownloadShoppingList(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	items, err := h.shopping.Aggregate(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+service.ShoppingListFilename)
	c.Data(http.StatusOK, "text/plain", service.Render(items))
}

func (h *RecipeHandler) addRelation(c *gin.Context, add func(ctx context.Context, userID, recipeID uuid.UUID) (*types.RecipeShort, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	recipeID, ok := pathID(c)
	if !ok {
		return
	}

	short, err := add(c.Request.Context(), userID, recipeID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, short)
}

func (h *RecipeHandler) removeRelation(c *gin.Context, remove func(ctx context.Context, userID, recipeID uuid.UUID) error) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	recipeID, ok := pathID(c)
	if !ok {
		return
	}

	if err := remove(c.Request.Context(), userID, recipeID); err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func intQuery(c *gin.Context, key string) int {
	v := c.Query(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
