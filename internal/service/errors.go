package service

import "errors"

// Relation guard errors
var (
	ErrDuplicateRelation = errors.New("relation already exists")
	ErrRelationNotFound  = errors.New("relation does not exist")
	ErrSelfFollow        = errors.New("subscribing to yourself is not allowed")
)

// Recipe payload validation errors
var (
	ErrMissingTags            = errors.New("recipe must have at least one tag")
	ErrMissingIngredients     = errors.New("recipe must have at least one ingredient")
	ErrDuplicateIngredient    = errors.New("ingredients must not repeat within a recipe")
	ErrNonPositiveAmount      = errors.New("ingredient amount must be greater than zero")
	ErrNonPositiveCookingTime = errors.New("cooking time must be greater than zero")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("no permission to edit this recipe")
	ErrEmailTaken   = errors.New("a user with this email already exists")
	ErrInvalidImage = errors.New("invalid embedded image payload")
)
