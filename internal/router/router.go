package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plateshare/backend/internal/api"
	"github.com/plateshare/backend/internal/middleware"
)

// Handlers bundles the resource handlers wired into the route table
type Handlers struct {
	Auth    *api.AuthHandler
	Users   *api.UserHandler
	Recipes *api.RecipeHandler
	Catalog *api.CatalogHandler
}

// SetupRouter configures the application routes. Every operation is an
// explicitly registered handler method; there is no verb-based dispatch
// inside handlers.
func SetupRouter(
	h Handlers,
	validator middleware.TokenValidator,
	rateLimiter *middleware.RateLimiter,
	allowedOrigins []string,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS(allowedOrigins))

	registry := prometheus.NewRegistry()
	metrics := middleware.NewHTTPMetrics(registry)
	router.Use(metrics.Middleware())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
	}

	requireAuth := middleware.AuthMiddleware(validator)
	optionalAuth := middleware.OptionalAuthMiddleware(validator)

	users := v1.Group("/users")
	{
		users.GET("", optionalAuth, h.Users.ListUsers)
		users.GET("/me", requireAuth, h.Users.Me)
		users.GET("/subscriptions", requireAuth, h.Users.Subscriptions)
		users.GET("/:id", optionalAuth, h.Users.GetUser)
		users.POST("/:id/subscribe", requireAuth, h.Users.Subscribe)
		users.DELETE("/:id/subscribe", requireAuth, h.Users.Unsubscribe)
	}

	mutate := []gin.HandlerFunc{requireAuth}
	if rateLimiter != nil {
		mutate = append(mutate, rateLimiter.RateLimitMiddleware())
	}

	recipes := v1.Group("/recipes")
	{
		recipes.GET("", optionalAuth, h.Recipes.ListRecipes)
		recipes.GET("/download_shopping_cart", requireAuth, h.Recipes.DownloadShoppingList)
		recipes.GET("/:id", optionalAuth, h.Recipes.GetRecipe)
		recipes.POST("", append(mutate, h.Recipes.CreateRecipe)...)
		recipes.PATCH("/:id", append(mutate, h.Recipes.UpdateRecipe)...)
		recipes.DELETE("/:id", append(mutate, h.Recipes.DeleteRecipe)...)
		recipes.POST("/:id/favorite", requireAuth, h.Recipes.FavoriteRecipe)
		recipes.DELETE("/:id/favorite", requireAuth, h.Recipes.UnfavoriteRecipe)
		recipes.POST("/:id/shopping_cart", requireAuth, h.Recipes.AddToShoppingCart)
		recipes.DELETE("/:id/shopping_cart", requireAuth, h.Recipes.RemoveFromShoppingCart)
	}

	ingredients := v1.Group("/ingredients")
	{
		ingredients.GET("", h.Catalog.ListIngredients)
		ingredients.GET("/:id", h.Catalog.GetIngredient)
	}

	tags := v1.Group("/tags")
	{
		tags.GET("", h.Catalog.ListTags)
		tags.GET("/:id", h.Catalog.GetTag)
	}

	return router
}
