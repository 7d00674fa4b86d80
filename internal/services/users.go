package services

import (
	"context"
	"time"

	"github.com/viixen/nix-client/internal/api"
	"github.com/viixen/nix-client/internal/entities"
)

// UserService handles user accounts and the current-user endpoints.
type UserService struct {
	*Resilient[entities.User]
}

func NewUserService(deps Deps) *UserService {
	return &UserService{newResilient("users", deps, synthesizeUser)}
}

func synthesizeUser(payload Payload, slug string, prior *entities.User) entities.User {
	now := time.Now()

	user := entities.User{CreatedAt: now}
	if prior != nil {
		user = *prior
	}
	if user.ID == "" {
		user.ID = newLocalID()
	}

	if username, ok := payload["username"].(string); ok {
		user.Username = username
	}
	if email, ok := payload["email"].(string); ok {
		user.Email = email
	}
	if first, ok := payload["first_name"].(string); ok {
		user.FirstName = first
	}
	if last, ok := payload["last_name"].(string); ok {
		user.LastName = last
	}
	if position, ok := payload["position"].(string); ok {
		user.Position = position
	}
	if bio, ok := payload["bio"].(string); ok {
		user.Bio = bio
	}

	user.Slug = resolveSlug(slug, user.Slug, user.Username)
	user.UpdatedAt = now
	return user
}

// Me returns the authenticated user's profile. Never served from an
// override: identity must come from the server.
func (s *UserService) Me(ctx context.Context) (entities.User, error) {
	var user entities.User
	if err := s.client.Do(ctx, api.Op("users", "me"), nil, nil, nil, &user); err != nil {
		return entities.User{}, err
	}
	return user, nil
}

// ChangePassword updates the current user's password.
func (s *UserService) ChangePassword(ctx context.Context, current, next string) error {
	body := Payload{"current_password": current, "new_password": next}
	return s.client.Do(ctx, api.Op("users", "change-password"), nil, nil, body, nil)
}
