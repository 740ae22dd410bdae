package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateshare/backend/internal/service"
)

// currentUserID extracts the authenticated user identity stored by the
// auth middleware. The second return is false for anonymous requests.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// abortWithServiceError maps the service error taxonomy onto HTTP
// statuses. Validation and relation-guard failures are client errors;
// anything unrecognized is a 500 without leaking internals.
func abortWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateRelation),
		errors.Is(err, service.ErrRelationNotFound),
		errors.Is(err, service.ErrSelfFollow),
		errors.Is(err, service.ErrMissingTags),
		errors.Is(err, service.ErrMissingIngredients),
		errors.Is(err, service.ErrDuplicateIngredient),
		errors.Is(err, service.ErrNonPositiveAmount),
		errors.Is(err, service.ErrNonPositiveCookingTime),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
