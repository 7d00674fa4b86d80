package services

import (
	"github.com/viixen/nix-client/internal/entities"
)

// CategoryService handles the categories resource used to organize every
// content type.
type CategoryService struct {
	*Resilient[entities.Category]
}

func NewCategoryService(deps Deps) *CategoryService {
	return &CategoryService{newResilient("categories", deps, synthesizeCategory)}
}

func synthesizeCategory(payload Payload, slug string, prior *entities.Category) entities.Category {
	category := entities.Category{}
	if prior != nil {
		category = *prior
	}
	if category.ID == "" {
		category.ID = newLocalID()
	}

	if name, ok := payload["name"].(string); ok {
		category.Name = name
	}
	if description, ok := payload["description"].(string); ok {
		category.Description = description
	}

	category.Slug = resolveSlug(slug, category.Slug, category.Name)
	return category
}
