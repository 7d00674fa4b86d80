package entities

import "time"

// Comment belongs to exactly one parent entity and optionally to one parent
// comment, forming a tree. A reply can only reference a comment that already
// exists on the same entity, so cycles cannot be created.
type Comment struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Text      string    `json:"text"`
	Parent    *ID       `json:"parent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentInput is the payload for creating or editing a comment.
type CommentInput struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Text   string `json:"text"`
	Parent *ID    `json:"parent,omitempty"`
}
