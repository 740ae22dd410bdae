package database

import (
	"gorm.io/gorm"

	"github.com/plateshare/backend/internal/models"
)

// Migrate brings the schema up to date for every entity, including the
// composite unique indexes the relation guard depends on.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Ingredient{},
		&models.Tag{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.ShoppingListEntry{},
		&models.Follow{},
	)
}
