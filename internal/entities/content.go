package entities

import (
	"encoding/json"
	"time"
)

// ID identifies an entity on the server. The backend assigns numeric ids,
// while locally synthesized entities carry generated UUID strings, so the
// type accepts both JSON representations.
type ID string

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Content is implemented by every slug-addressable entity the domain
// services operate on. Slug is the external addressing key; ID is the
// internal identity key.
type Content interface {
	GetSlug() string
	GetID() ID
}

type Category struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

func (c Category) GetSlug() string { return c.Slug }
func (c Category) GetID() ID       { return c.ID }

type Tag struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Article struct {
	ID             ID        `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Content        string    `json:"content"`
	CoverImage     string    `json:"cover_image,omitempty"`
	Featured       bool      `json:"featured"`
	ViewsCount     int64     `json:"views_count"`
	FavoritesCount int64     `json:"favorites_count"`
	Category       *Category `json:"category,omitempty"`
	Tags           []Tag     `json:"tags,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (a Article) GetSlug() string { return a.Slug }
func (a Article) GetID() ID       { return a.ID }

type Book struct {
	ID             ID        `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Author         string    `json:"author,omitempty"`
	Description    string    `json:"description,omitempty"`
	CoverImage     string    `json:"cover_image,omitempty"`
	PDFFile        string    `json:"pdf_file,omitempty"`
	AudioFile      string    `json:"audio_file,omitempty"`
	ViewsCount     int64     `json:"views_count"`
	FavoritesCount int64     `json:"favorites_count"`
	Category       *Category `json:"category,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (b Book) GetSlug() string { return b.Slug }
func (b Book) GetID() ID       { return b.ID }

type Manga struct {
	ID             ID        `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	Author         string    `json:"author,omitempty"`
	Description    string    `json:"description,omitempty"`
	CoverImage     string    `json:"cover_image,omitempty"`
	ViewsCount     int64     `json:"views_count"`
	FavoritesCount int64     `json:"favorites_count"`
	ChaptersCount  int       `json:"chapters_count"`
	Category       *Category `json:"category,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (m Manga) GetSlug() string { return m.Slug }
func (m Manga) GetID() ID       { return m.ID }

// Chapter is a single readable unit of a manga, addressed by its manga's
// slug plus the chapter number.
type Chapter struct {
	ID        ID        `json:"id"`
	MangaSlug string    `json:"manga_slug"`
	Number    int       `json:"number"`
	Title     string    `json:"title,omitempty"`
	Pages     []string  `json:"pages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID        ID        `json:"id"`
	Username  string    `json:"username"`
	Slug      string    `json:"slug"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Position  string    `json:"position,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) GetSlug() string { return u.Slug }
func (u User) GetID() ID       { return u.ID }
