package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateshare/backend/internal/models"
	"github.com/plateshare/backend/internal/service"
	"github.com/plateshare/backend/internal/types"
)

type UserHandler struct {
	authService *service.AuthService
	relations   *service.RelationService
}

func NewUserHandler(authService *service.AuthService, relations *service.RelationService) *UserHandler {
	return &UserHandler{
		authService: authService,
		relations:   relations,
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	viewerID, _ := currentUserID(c)
	views := make([]types.UserView, 0, len(users))
	for i := range users {
		view, err := h.userView(c, viewerID, &users[i])
		if err != nil {
			abortWithServiceError(c, err)
			return
		}
		views = append(views, *view)
	}

	c.JSON(http.StatusOK, gin.H{"users": views})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	viewerID, _ := currentUserID(c)
	view, err := h.userView(c, viewerID, user)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	view, err := h.userView(c, userID, user)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Subscribe follows the author in the path. The optional recipes_limit
// query parameter truncates the recipes embedded in the response;
// recipes_count stays the full total.
func (h *UserHandler) Subscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	authorID, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.relations.Follow(c.Request.Context(), userID, authorID, intQuery(c, "recipes_limit"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	authorID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.relations.Unfollow(c.Request.Context(), userID, authorID); err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	views, err := h.relations.Subscriptions(c.Request.Context(), userID, intQuery(c, "recipes_limit"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": views})
}

func (h *UserHandler) userView(c *gin.Context, viewerID uuid.UUID, user *models.User) (*types.UserView, error) {
	isSubscribed, err := h.relations.IsFollowing(c.Request.Context(), viewerID, user.ID)
	if err != nil {
		return nil, err
	}
	return &types.UserView{
		Email:        user.Email,
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: isSubscribed,
	}, nil
}
