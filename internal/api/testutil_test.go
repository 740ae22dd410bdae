package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/plateshare/backend/internal/middleware"
	"github.com/plateshare/backend/internal/models"
	"github.com/plateshare/backend/internal/service"
	"github.com/plateshare/backend/internal/types"
)

type testEnv struct {
	db   *gorm.DB
	auth *service.AuthService
}

type passthroughImages struct{}

func (passthroughImages) Store(_ context.Context, image string) (string, error) {
	return image, nil
}

// setupTestRouter wires the handlers onto the same route table the
// application uses, backed by an in-memory database.
func setupTestRouter(t *testing.T) (*gin.Engine, *testEnv) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Ingredient{},
		&models.Tag{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.ShoppingListEntry{},
		&models.Follow{},
	))

	authService := service.NewAuthService(db, "test-secret")
	relationService := service.NewRelationService(db)
	recipeService := service.NewRecipeService(db, passthroughImages{})
	shoppingService := service.NewShoppingListService(db)
	catalogService := service.NewCatalogService(db)

	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(authService, relationService)
	recipeHandler := NewRecipeHandler(recipeService, relationService, shoppingService)
	catalogHandler := NewCatalogHandler(catalogService)

	requireAuth := middleware.AuthMiddleware(authService)
	optionalAuth := middleware.OptionalAuthMiddleware(authService)

	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)

	users := v1.Group("/users")
	users.GET("", optionalAuth, userHandler.ListUsers)
	users.GET("/me", requireAuth, userHandler.Me)
	users.GET("/subscriptions", requireAuth, userHandler.Subscriptions)
	users.GET("/:id", optionalAuth, userHandler.GetUser)
	users.POST("/:id/subscribe", requireAuth, userHandler.Subscribe)
	users.DELETE("/:id/subscribe", requireAuth, userHandler.Unsubscribe)

	recipes := v1.Group("/recipes")
	recipes.GET("", optionalAuth, recipeHandler.ListRecipes)
	recipes.GET("/download_shopping_cart", requireAuth, recipeHandler.DownloadShoppingList)
	recipes.GET("/:id", optionalAuth, recipeHandler.GetRecipe)
	recipes.POST("", requireAuth, recipeHandler.CreateRecipe)
	recipes.PATCH("/:id", requireAuth, recipeHandler.UpdateRecipe)
	recipes.DELETE("/:id", requireAuth, recipeHandler.DeleteRecipe)
	recipes.POST("/:id/favorite", requireAuth, recipeHandler.FavoriteRecipe)
	recipes.DELETE("/:id/favorite", requireAuth, recipeHandler.UnfavoriteRecipe)
	recipes.POST("/:id/shopping_cart", requireAuth, recipeHandler.AddToShoppingCart)
	recipes.DELETE("/:id/shopping_cart", requireAuth, recipeHandler.RemoveFromShoppingCart)

	v1.GET("/ingredients", catalogHandler.ListIngredients)
	v1.GET("/ingredients/:id", catalogHandler.GetIngredient)
	v1.GET("/tags", catalogHandler.ListTags)
	v1.GET("/tags/:id", catalogHandler.GetTag)

	return router, &testEnv{db: db, auth: authService}
}

// registerUser creates an account through the HTTP surface and returns
// the bearer token plus the stored user row.
func registerUser(t *testing.T, router *gin.Engine, env *testEnv, email, username string) (string, *models.User) {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/api/v1/auth/register", "", types.RegisterRequest{
		Email:     email,
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	token := resp["token"]
	require.NotEmpty(t, token)

	var user models.User
	require.NoError(t, env.db.First(&user, "email = ?", email).Error)
	return token, &user
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedTag(t *testing.T, env *testEnv, name string) *models.Tag {
	t.Helper()
	tag := models.Tag{Name: name, Color: "#49B64E", Slug: name}
	require.NoError(t, env.db.Create(&tag).Error)
	return &tag
}

func seedIngredient(t *testing.T, env *testEnv, name, unit string) *models.Ingredient {
	t.Helper()
	ing := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, env.db.Create(&ing).Error)
	return &ing
}

func recipeBody(name string, tagIDs []uuid.UUID, lines ...types.IngredientLinePayload) types.RecipeWritePayload {
	return types.RecipeWritePayload{
		Name:        name,
		Image:       "https://example.com/" + name + ".png",
		Text:        "instructions for " + name,
		CookingTime: 15,
		Tags:        tagIDs,
		Ingredients: lines,
	}
}

func createRecipeHTTP(t *testing.T, router *gin.Engine, token string, body types.RecipeWritePayload) types.RecipeView {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/api/v1/recipes", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view types.RecipeView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}
