package services

import (
	"time"

	"github.com/viixen/nix-client/internal/entities"
	"github.com/viixen/nix-client/internal/utils"
)

// ArticleService handles the articles resource, including its comment tree
// and the featured/views/favorite counters.
type ArticleService struct {
	*Resilient[entities.Article]
}

func NewArticleService(deps Deps) *ArticleService {
	return &ArticleService{newResilient("articles", deps, synthesizeArticle)}
}

func synthesizeArticle(payload Payload, slug string, prior *entities.Article) entities.Article {
	now := time.Now()

	article := entities.Article{CreatedAt: now}
	if prior != nil {
		article = *prior
	}
	if article.ID == "" {
		article.ID = newLocalID()
	}

	if title, ok := payload["title"].(string); ok {
		article.Title = title
	}
	if content, ok := payload["content"].(string); ok {
		article.Content = content
	}
	if featured, ok := payload["featured"].(bool); ok {
		article.Featured = featured
	}
	if cover, ok := payload["cover_image"].(string); ok {
		article.CoverImage = cover
	}

	article.Slug = resolveSlug(slug, article.Slug, article.Title)
	article.UpdatedAt = now
	return article
}

// resolveSlug keeps an already-assigned slug stable and derives a fresh one
// from the title only for brand-new local entities.
func resolveSlug(requested, existing, title string) string {
	if requested != "" {
		return requested
	}
	if existing != "" {
		return existing
	}
	base := utils.Slugify(title)
	if base == "" {
		base = "untitled"
	}
	return base + "-" + utils.RandomSuffix(4)
}
