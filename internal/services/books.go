package services

import (
	"time"

	"github.com/viixen/nix-client/internal/entities"
)

// BookService handles the books resource, whose entries carry PDF and
// audio files alongside the usual metadata.
type BookService struct {
	*Resilient[entities.Book]
}

func NewBookService(deps Deps) *BookService {
	return &BookService{newResilient("books", deps, synthesizeBook)}
}

func synthesizeBook(payload Payload, slug string, prior *entities.Book) entities.Book {
	now := time.Now()

	book := entities.Book{CreatedAt: now}
	if prior != nil {
		book = *prior
	}
	if book.ID == "" {
		book.ID = newLocalID()
	}

	if title, ok := payload["title"].(string); ok {
		book.Title = title
	}
	if author, ok := payload["author"].(string); ok {
		book.Author = author
	}
	if description, ok := payload["description"].(string); ok {
		book.Description = description
	}
	if cover, ok := payload["cover_image"].(string); ok {
		book.CoverImage = cover
	}
	if pdf, ok := payload["pdf_file"].(string); ok {
		book.PDFFile = pdf
	}
	if audio, ok := payload["audio_file"].(string); ok {
		book.AudioFile = audio
	}

	book.Slug = resolveSlug(slug, book.Slug, book.Title)
	book.UpdatedAt = now
	return book
}
