package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateshare/backend/internal/models"
	"github.com/plateshare/backend/internal/types"
)

// ImageStore resolves a submitted image field into a stored file
// reference. Implemented by ImageService; stubbed in tests.
type ImageStore interface {
	Store(ctx context.Context, image string) (string, error)
}

// RecipeService validates and persists recipe write payloads and builds
// read views with viewer-relative membership flags.
type RecipeService struct {
	db     *gorm.DB
	images ImageStore
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images ImageStore) *RecipeService {
	return &RecipeService{db: db, images: images}
}

// ValidateWritePayload checks a proposed recipe payload. Every failure
// aborts the whole create/update; nothing is partially applied.
func ValidateWritePayload(p *types.RecipeWritePayload) error {
	if len(p.Tags) == 0 {
		return ErrMissingTags
	}
	if len(p.Ingredients) == 0 {
		return ErrMissingIngredients
	}
	seen := make(map[uuid.UUID]struct{}, len(p.Ingredients))
	for _, line := range p.Ingredients {
		if _, dup := seen[line.ID]; dup {
			return ErrDuplicateIngredient
		}
		seen[line.ID] = struct{}{}
		if line.Amount <= 0 {
			return ErrNonPositiveAmount
		}
	}
	if p.CookingTime <= 0 {
		return ErrNonPositiveCookingTime
	}
	return nil
}

// Create validates the payload and persists a new recipe owned by
// authorID. The recipe row, its ingredient lines and its tag set are
// written in a single transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, p *types.RecipeWritePayload) (*types.RecipeView, error) {
	if err := ValidateWritePayload(p); err != nil {
		return nil, err
	}

	tags, err := s.resolveTags(ctx, p.Tags)
	if err != nil {
		return nil, err
	}
	if err := s.checkIngredientsExist(ctx, p.Ingredients); err != nil {
		return nil, err
	}

	image, err := s.images.Store(ctx, p.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		Name:        p.Name,
		AuthorID:    authorID,
		Image:       image,
		Text:        p.Text,
		CookingTime: p.CookingTime,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		rows := lineRows(recipe.ID, p.Ingredients)
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		return tx.Model(&recipe).Association("Tags").Replace(tags)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, authorID, recipe.ID)
}

// Update validates the payload and atomically replaces the mutable
// fields of the recipe: name, image, text, cooking_time, the full
// ingredient-line set (delete-all-then-insert, never a partial merge)
// and the tag set. Author and publish timestamp are immutable.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID uuid.UUID, p *types.RecipeWritePayload) (*types.RecipeView, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrForbidden
	}

	if err := ValidateWritePayload(p); err != nil {
		return nil, err
	}

	tags, err := s.resolveTags(ctx, p.Tags)
	if err != nil {
		return nil, err
	}
	if err := s.checkIngredientsExist(ctx, p.Ingredients); err != nil {
		return nil, err
	}

	image := recipe.Image
	if p.Image != "" {
		image, err = s.images.Store(ctx, p.Image)
		if err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":         p.Name,
			"image":        image,
			"text":         p.Text,
			"cooking_time": p.CookingTime,
		}
		if err := tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		rows := lineRows(recipeID, p.Ingredients)
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		return tx.Model(&recipe).Association("Tags").Replace(tags)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID, recipeID)
}

// Delete removes a recipe; only its author may do so. Ingredient lines
// and tag links go with it.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID uuid.UUID) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if recipe.AuthorID != userID {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", recipeID).Error
	})
}

// Get returns the read view of one recipe for the given viewer.
// A nil viewer (uuid.Nil) reads with both membership flags false.
func (s *RecipeService) Get(ctx context.Context, viewerID, recipeID uuid.UUID) (*types.RecipeView, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		First(&recipe, "id = ?", recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	views, err := s.buildViews(ctx, viewerID, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns recipe read views ordered by publish date descending,
// optionally filtered by author and tag slugs.
func (s *RecipeService) List(ctx context.Context, viewerID uuid.UUID, filter types.RecipeFilter) ([]types.RecipeView, error) {
	query := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		Order("pub_date DESC")

	if filter.AuthorID != uuid.Nil {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs).
			Distinct("recipes.*")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return s.buildViews(ctx, viewerID, recipes)
}

func (s *RecipeService) resolveTags(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, ErrNotFound
	}
	return tags, nil
}

func (s *RecipeService) checkIngredientsExist(ctx context.Context, lines []types.IngredientLinePayload) error {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ID)
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return ErrNotFound
	}
	return nil
}

func lineRows(recipeID uuid.UUID, lines []types.IngredientLinePayload) []models.RecipeIngredient {
	rows := make([]models.RecipeIngredient, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: line.ID,
			Amount:       line.Amount,
		})
	}
	return rows
}

// buildViews assembles read views, computing is_favorited and
// is_in_shopping_cart membership for the viewer in two set queries
// instead of one pair of queries per recipe.
func (s *RecipeService) buildViews(ctx context.Context, viewerID uuid.UUID, recipes []models.Recipe) ([]types.RecipeView, error) {
	favorited := map[uuid.UUID]struct{}{}
	inCart := map[uuid.UUID]struct{}{}
	following := map[uuid.UUID]struct{}{}

	if viewerID != uuid.Nil {
		var ids []uuid.UUID
		if err := s.db.WithContext(ctx).Model(&models.Favorite{}).
			Where("user_id = ?", viewerID).Pluck("recipe_id", &ids).Error; err != nil {
			return nil, err
		}
		for _, id := range ids {
			favorited[id] = struct{}{}
		}

		ids = nil
		if err := s.db.WithContext(ctx).Model(&models.ShoppingListEntry{}).
			Where("user_id = ?", viewerID).Pluck("recipe_id", &ids).Error; err != nil {
			return nil, err
		}
		for _, id := range ids {
			inCart[id] = struct{}{}
		}

		ids = nil
		if err := s.db.WithContext(ctx).Model(&models.Follow{}).
			Where("user_id = ?", viewerID).Pluck("author_id", &ids).Error; err != nil {
			return nil, err
		}
		for _, id := range ids {
			following[id] = struct{}{}
		}
	}

	views := make([]types.RecipeView, 0, len(recipes))
	for _, r := range recipes {
		tagViews := make([]types.TagView, 0, len(r.Tags))
		for _, t := range r.Tags {
			tagViews = append(tagViews, types.TagView{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug})
		}

		lineViews := make([]types.IngredientLineView, 0, len(r.Ingredients))
		for _, line := range r.Ingredients {
			lineViews = append(lineViews, types.IngredientLineView{
				ID:              line.IngredientID,
				Name:            line.Ingredient.Name,
				MeasurementUnit: line.Ingredient.MeasurementUnit,
				Amount:          line.Amount,
			})
		}

		_, isSubscribed := following[r.AuthorID]
		_, isFav := favorited[r.ID]
		_, isCart := inCart[r.ID]

		views = append(views, types.RecipeView{
			ID:   r.ID,
			Tags: tagViews,
			Author: types.UserView{
				Email:        r.Author.Email,
				ID:           r.Author.ID,
				Username:     r.Author.Username,
				FirstName:    r.Author.FirstName,
				LastName:     r.Author.LastName,
				IsSubscribed: isSubscribed,
			},
			Ingredients:      lineViews,
			IsFavorited:      isFav,
			IsInShoppingCart: isCart,
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			PubDate:          r.PubDate,
		})
	}
	return views, nil
}
