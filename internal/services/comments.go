package services

import (
	"context"
	"log"
	"time"

	"github.com/viixen/nix-client/internal/api"
	"github.com/viixen/nix-client/internal/entities"
)

// Comments returns the comment tree for the entity at slug: server comments
// first, then local comments the server has not confirmed, de-duplicated
// by id.
func (r *Resilient[T]) Comments(ctx context.Context, slug string) ([]entities.Comment, error) {
	var server []entities.Comment
	err := r.client.Do(ctx, api.Op(r.resource, "comments"), api.Vars{"slug": slug}, nil, nil, &server)

	var local []entities.Comment
	r.overrides.Get(r.commentsType(), slug, &local)

	if err != nil {
		if local == nil {
			return nil, err
		}
		log.Printf("%s comments %s: server unavailable, serving %d local comments: %v",
			r.resource, slug, len(local), err)
		return local, nil
	}

	seen := make(map[entities.ID]bool, len(server))
	for _, c := range server {
		seen[c.ID] = true
	}
	merged := server
	for _, c := range local {
		if !seen[c.ID] {
			merged = append(merged, c)
		}
	}
	return merged, nil
}

// AddComment posts a comment on the entity at slug. When the server cannot
// confirm the write, the comment is synthesized locally and appended to the
// entity's local comment list. A reply must reference a comment already
// known on the same entity.
func (r *Resilient[T]) AddComment(ctx context.Context, slug string, input entities.CommentInput) (entities.Comment, error) {
	var created entities.Comment
	err := r.client.Do(ctx, api.Op(r.resource, "comment-add"), api.Vars{"slug": slug}, nil, input, &created)
	if err == nil && created.ID != "" {
		return created, nil
	}
	if err != nil && serverRejected(err) {
		return entities.Comment{}, err
	}

	var local []entities.Comment
	r.overrides.Get(r.commentsType(), slug, &local)

	if input.Parent != nil {
		if !r.parentKnown(ctx, slug, local, *input.Parent) {
			return entities.Comment{}, &api.APIError{
				Status:  400,
				Message: "parent: comment does not exist on this entity",
			}
		}
	}

	now := time.Now()
	comment := entities.Comment{
		ID:        newLocalID(),
		Name:      input.Name,
		Email:     input.Email,
		Text:      input.Text,
		Parent:    input.Parent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if comment.Name == "" {
		comment.Name = "Anonymous"
	}

	local = append(local, comment)
	r.overrides.Put(r.commentsType(), slug, local)
	if err != nil {
		log.Printf("%s comment on %s: server unavailable, kept locally: %v", r.resource, slug, err)
	}
	return comment, nil
}

// UpdateComment edits a comment by id. A locally synthesized comment is
// edited in place in the entity's local list when the server fails.
func (r *Resilient[T]) UpdateComment(ctx context.Context, slug string, id entities.ID, input entities.CommentInput) (entities.Comment, error) {
	var updated entities.Comment
	err := r.client.Do(ctx, api.Op(r.resource, "comment-update"), api.Vars{"id": id.String()}, nil, input, &updated)
	if err == nil {
		return updated, nil
	}
	if serverRejected(err) {
		return entities.Comment{}, err
	}

	var local []entities.Comment
	if r.overrides.Get(r.commentsType(), slug, &local) {
		for i := range local {
			if local[i].ID == id {
				local[i].Text = input.Text
				local[i].UpdatedAt = time.Now()
				r.overrides.Put(r.commentsType(), slug, local)
				return local[i], nil
			}
		}
	}
	return entities.Comment{}, err
}

// DeleteComment removes a comment by id, falling back to removing it from
// the local list when the server fails.
func (r *Resilient[T]) DeleteComment(ctx context.Context, slug string, id entities.ID) error {
	err := r.client.Do(ctx, api.Op(r.resource, "comment-delete"), api.Vars{"id": id.String()}, nil, nil, nil)
	if err == nil {
		return nil
	}
	if serverRejected(err) {
		return err
	}

	var local []entities.Comment
	if r.overrides.Get(r.commentsType(), slug, &local) {
		// Drop the comment and its entire reply subtree, so no surviving
		// comment points at a removed parent.
		removed := map[entities.ID]bool{id: true}
		for {
			grew := false
			for _, c := range local {
				if removed[c.ID] || c.Parent == nil || !removed[*c.Parent] {
					continue
				}
				removed[c.ID] = true
				grew = true
			}
			if !grew {
				break
			}
		}
		kept := local[:0]
		for _, c := range local {
			if !removed[c.ID] {
				kept = append(kept, c)
			}
		}
		r.overrides.Put(r.commentsType(), slug, kept)
		return nil
	}
	return err
}

// parentKnown reports whether the parent id exists among the comments of
// the entity, checking the local list first and the server only when the
// local list does not settle it.
func (r *Resilient[T]) parentKnown(ctx context.Context, slug string, local []entities.Comment, parent entities.ID) bool {
	for _, c := range local {
		if c.ID == parent {
			return true
		}
	}
	var server []entities.Comment
	if err := r.client.Do(ctx, api.Op(r.resource, "comments"), api.Vars{"slug": slug}, nil, nil, &server); err != nil {
		return false
	}
	for _, c := range server {
		if c.ID == parent {
			return true
		}
	}
	return false
}
