package services

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/viixen/nix-client/internal/api"
	"github.com/viixen/nix-client/internal/entities"
)

// MangaService handles the mangas resource plus chapter reading and the
// per-chapter comment threads.
type MangaService struct {
	*Resilient[entities.Manga]
}

func NewMangaService(deps Deps) *MangaService {
	return &MangaService{newResilient("mangas", deps, synthesizeManga)}
}

func synthesizeManga(payload Payload, slug string, prior *entities.Manga) entities.Manga {
	now := time.Now()

	manga := entities.Manga{CreatedAt: now}
	if prior != nil {
		manga = *prior
	}
	if manga.ID == "" {
		manga.ID = newLocalID()
	}

	if title, ok := payload["title"].(string); ok {
		manga.Title = title
	}
	if author, ok := payload["author"].(string); ok {
		manga.Author = author
	}
	if description, ok := payload["description"].(string); ok {
		manga.Description = description
	}
	if cover, ok := payload["cover_image"].(string); ok {
		manga.CoverImage = cover
	}

	manga.Slug = resolveSlug(slug, manga.Slug, manga.Title)
	manga.UpdatedAt = now
	return manga
}

// GetChapter fetches one chapter of a manga by number.
func (s *MangaService) GetChapter(ctx context.Context, mangaSlug string, number int) (entities.Chapter, error) {
	var chapter entities.Chapter
	vars := api.Vars{"slug": mangaSlug, "number": strconv.Itoa(number)}
	err := s.client.Do(ctx, api.Op("mangas", "chapter"), vars, nil, nil, &chapter)
	if err != nil {
		return entities.Chapter{}, err
	}
	return chapter, nil
}

// ChapterComments returns the comment thread of one chapter.
func (s *MangaService) ChapterComments(ctx context.Context, chapterID entities.ID) ([]entities.Comment, error) {
	var comments []entities.Comment
	vars := api.Vars{"id": chapterID.String()}
	err := s.client.Do(ctx, api.Op("mangas", "chapter-comments"), vars, nil, nil, &comments)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// MarkChapterRead records reading progress. Best-effort like the view
// counters: a failure is logged and swallowed.
func (s *MangaService) MarkChapterRead(ctx context.Context, mangaSlug string, number int) {
	vars := api.Vars{"slug": mangaSlug, "number": strconv.Itoa(number)}
	body := Payload{"manga_slug": mangaSlug, "number": number}
	if err := s.client.Do(ctx, api.Op("mangas", "mark-read"), vars, nil, body, nil); err != nil {
		log.Printf("mangas mark-read %s #%d: ignored failure: %v", mangaSlug, number, err)
	}
}
