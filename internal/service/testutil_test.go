package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/plateshare/backend/internal/models"
	"github.com/plateshare/backend/internal/types"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database
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
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "not-a-real-hash",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(&ingredient).Error)
	return &ingredient
}

func createTestTag(t *testing.T, db *gorm.DB, name string) *models.Tag {
	t.Helper()
	tag := models.Tag{Name: name, Color: "#49B64E", Slug: name}
	require.NoError(t, db.Create(&tag).Error)
	return &tag
}

type testLine struct {
	ingredient *models.Ingredient
	amount     int
}

func createTestRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, tag *models.Tag, lines ...testLine) *models.Recipe {
	t.Helper()
	recipe := models.Recipe{
		Name:        name,
		AuthorID:    author.ID,
		Image:       "https://example.com/" + name + ".png",
		Text:        "instructions for " + name,
		CookingTime: 30,
	}
	require.NoError(t, db.Create(&recipe).Error)
	require.NoError(t, db.Model(&recipe).Association("Tags").Replace([]models.Tag{*tag}))
	for _, line := range lines {
		require.NoError(t, db.Create(&models.RecipeIngredient{
			RecipeID:     recipe.ID,
			IngredientID: line.ingredient.ID,
			Amount:       line.amount,
		}).Error)
	}
	return &recipe
}

// stubImageStore passes image references through without touching S3
type stubImageStore struct{}

func (stubImageStore) Store(_ context.Context, image string) (string, error) {
	return image, nil
}

func writePayload(name string, tagIDs []uuid.UUID, lines ...types.IngredientLinePayload) *types.RecipeWritePayload {
	return &types.RecipeWritePayload{
		Name:        name,
		Image:       "https://example.com/" + name + ".png",
		Text:        "instructions for " + name,
		CookingTime: 20,
		Tags:        tagIDs,
		Ingredients: lines,
	}
}
