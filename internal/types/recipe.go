package types

import (
	"time"

	"github.com/google/uuid"
)

// RecipeShort is the reduced projection returned from relation mutations
// and embedded in subscription listings.
type RecipeShort struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

// IngredientLineView is the read shape of one ingredient line of a recipe
type IngredientLineView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

// TagView is the read shape of a tag
type TagView struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
	Slug  string    `json:"slug"`
}

// RecipeView is the full read shape of a recipe. The two membership
// booleans are computed relative to the requesting identity and are
// always false for an anonymous reader.
type RecipeView struct {
	ID                uuid.UUID            `json:"id"`
	Tags              []TagView            `json:"tags"`
	Author            UserView             `json:"author"`
	Ingredients       []IngredientLineView `json:"ingredients"`
	IsFavorited       bool                 `json:"is_favorited"`
	IsInShoppingCart  bool                 `json:"is_in_shopping_cart"`
	Name              string               `json:"name"`
	Image             string               `json:"image"`
	Text              string               `json:"text"`
	CookingTime       int                  `json:"cooking_time"`
	PubDate           time.Time            `json:"pub_date"`
}

// IngredientLinePayload is one submitted ingredient line of a recipe
// write payload. IDs are compared as submitted, before resolution.
type IngredientLinePayload struct {
	ID     uuid.UUID `json:"id" binding:"required"`
	Amount int       `json:"amount"`
}

// RecipeWritePayload is the write shape of a recipe. Author and publish
// timestamp are never part of it; they are immutable after creation.
type RecipeWritePayload struct {
	Name        string                  `json:"name" binding:"required"`
	Image       string                  `json:"image"`
	Text        string                  `json:"text"`
	CookingTime int                     `json:"cooking_time"`
	Tags        []uuid.UUID             `json:"tags"`
	Ingredients []IngredientLinePayload `json:"ingredients"`
}

// RecipeFilter narrows recipe listings
type RecipeFilter struct {
	AuthorID uuid.UUID
	TagSlugs []string
	Limit    int
	Offset   int
}
