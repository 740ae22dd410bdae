package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateshare/backend/internal/models"
	"github.com/plateshare/backend/internal/types"
)

// RelationService enforces add/remove semantics for favorites, shopping
// list entries and follows. All relation rows are created and deleted
// here and nowhere else, so the storage uniqueness constraints stay the
// single source of truth for duplicate prevention: an add is a plain
// insert, and a concurrent duplicate surfaces as gorm.ErrDuplicatedKey
// instead of slipping through a check-then-insert window.
type RelationService struct {
	db *gorm.DB
}

// NewRelationService creates a new RelationService instance
func NewRelationService(db *gorm.DB) *RelationService {
	return &RelationService{db: db}
}

// AddFavorite records (user, recipe) as a favorite and returns the short
// recipe projection.
func (s *RelationService) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) (*types.RecipeShort, error) {
	return s.addRecipeRelation(ctx, userID, recipeID, func() interface{} {
		return &models.Favorite{UserID: userID, RecipeID: recipeID}
	})
}

// RemoveFavorite deletes the (user, recipe) favorite
func (s *RelationService) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeRecipeRelation(ctx, userID, recipeID, &models.Favorite{})
}

// AddShoppingListEntry saves (user, recipe) for shopping and returns the
// short recipe projection.
func (s *RelationService) AddShoppingListEntry(ctx context.Context, userID, recipeID uuid.UUID) (*types.RecipeShort, error) {
	return s.addRecipeRelation(ctx, userID, recipeID, func() interface{} {
		return &models.ShoppingListEntry{UserID: userID, RecipeID: recipeID}
	})
}

// RemoveShoppingListEntry deletes the (user, recipe) shopping list entry
func (s *RelationService) RemoveShoppingListEntry(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeRecipeRelation(ctx, userID, recipeID, &models.ShoppingListEntry{})
}

func (s *RelationService) addRecipeRelation(ctx context.Context, userID, recipeID uuid.UUID, record func() interface{}) (*types.RecipeShort, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(record()).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateRelation
		}
		return nil, err
	}

	return &types.RecipeShort{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}, nil
}

func (s *RelationService) removeRecipeRelation(ctx context.Context, userID, recipeID uuid.UUID, model interface{}) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Select("id").First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRelationNotFound
	}
	return nil
}

// Follow subscribes userID to authorID and returns the subscription
// projection, with the author's recipes truncated to recipesLimit when
// the limit is positive.
func (s *RelationService) Follow(ctx context.Context, userID, authorID uuid.UUID, recipesLimit int) (*types.SubscriptionView, error) {
	if userID == authorID {
		return nil, ErrSelfFollow
	}

	var author models.User
	if err := s.db.WithContext(ctx).First(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	follow := models.Follow{UserID: userID, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Create(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateRelation
		}
		return nil, err
	}

	return s.subscriptionView(ctx, &author, recipesLimit)
}

// Unfollow removes the subscription of userID to authorID
func (s *RelationService) Unfollow(ctx context.Context, userID, authorID uuid.UUID) error {
	var author models.User
	if err := s.db.WithContext(ctx).Select("id").First(&author, "id = ?", authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRelationNotFound
	}
	return nil
}

// Subscriptions lists the authors userID is subscribed to, oldest
// subscription first.
func (s *RelationService) Subscriptions(ctx context.Context, userID uuid.UUID, recipesLimit int) ([]types.SubscriptionView, error) {
	var follows []models.Follow
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&follows).Error; err != nil {
		return nil, err
	}

	views := make([]types.SubscriptionView, 0, len(follows))
	for _, f := range follows {
		var author models.User
		if err := s.db.WithContext(ctx).First(&author, "id = ?", f.AuthorID).Error; err != nil {
			return nil, err
		}
		view, err := s.subscriptionView(ctx, &author, recipesLimit)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// IsFollowing reports whether userID is subscribed to authorID
func (s *RelationService) IsFollowing(ctx context.Context, userID, authorID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

func (s *RelationService) subscriptionView(ctx context.Context, author *models.User, recipesLimit int) (*types.SubscriptionView, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ?", author.ID).
		Count(&count).Error; err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Where("author_id = ?", author.ID).
		Order("pub_date DESC")
	if recipesLimit > 0 {
		query = query.Limit(recipesLimit)
	}
	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}

	shorts := make([]types.RecipeShort, 0, len(recipes))
	for _, r := range recipes {
		shorts = append(shorts, types.RecipeShort{
			ID:          r.ID,
			Name:        r.Name,
			Image:       r.Image,
			CookingTime: r.CookingTime,
		})
	}

	return &types.SubscriptionView{
		Email:        author.Email,
		ID:           author.ID,
		Username:     author.Username,
		FirstName:    author.FirstName,
		LastName:     author.LastName,
		IsSubscribed: true,
		Recipes:      shorts,
		RecipesCount: count,
	}, nil
}
