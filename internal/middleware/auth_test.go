package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/plateshare/backend/internal/types"
)

type fakeValidator struct {
	claims *types.TokenClaims
	err    error
}

func (v fakeValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	return v.claims, v.err
}

func authTestRouter(validator TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", AuthMiddleware(validator), func(c *gin.Context) {
		id, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	router.GET("/open", OptionalAuthMiddleware(validator), func(c *gin.Context) {
		_, authenticated := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"authenticated": authenticated})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	valid := fakeValidator{claims: &types.TokenClaims{UserID: userID, Username: "cook"}}

	tests := []struct {
		name      string
		validator TokenValidator
		header    string
		wantCode  int
	}{
		{"valid token", valid, "Bearer good-token", http.StatusOK},
		{"missing header", valid, "", http.StatusUnauthorized},
		{"malformed header", valid, "good-token", http.StatusUnauthorized},
		{"wrong scheme", valid, "Basic good-token", http.StatusUnauthorized},
		{"rejected token", fakeValidator{err: errors.New("token expired")}, "Bearer stale-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := authTestRouter(tt.validator)
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	router := authTestRouter(fakeValidator{claims: &types.TokenClaims{UserID: userID, Username: "cook"}})

	// anonymous requests pass through
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	// a valid token sets the identity
	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)

	// an invalid token stays anonymous instead of failing the request
	bad := authTestRouter(fakeValidator{err: errors.New("token expired")})
	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	w = httptest.NewRecorder()
	bad.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)
}
