package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShoppingListFilename is the fixed download filename for the report
const ShoppingListFilename = "shopping-list.txt"

// AggregatedIngredient is one merged group of the shopping list report
type AggregatedIngredient struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// ShoppingListService merges ingredient quantities across the recipes a
// user has saved for shopping.
type ShoppingListService struct {
	db *gorm.DB
}

// NewShoppingListService creates a new ShoppingListService instance
func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Aggregate fetches every ingredient line of the user's shopping-list
// recipes in one join and merges amounts by (name, unit) identity.
// Groups are ordered by name then unit so repeated calls over unchanged
// input render identically. An empty shopping list is not an error.
func (s *ShoppingListService) Aggregate(ctx context.Context, userID uuid.UUID) ([]AggregatedIngredient, error) {
	var items []AggregatedIngredient
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_list_entries ON shopping_list_entries.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_list_entries.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Render produces the textual report, one line per merged group
func Render(items []AggregatedIngredient) []byte {
	var buf bytes.Buffer
	for _, item := range items {
		fmt.Fprintf(&buf, "%s (%s) - %d\n", item.Name, item.MeasurementUnit, item.Amount)
	}
	return buf.Bytes()
}
