package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viixen/nix-client/internal/api"
	"github.com/viixen/nix-client/internal/entities"
)

func TestComments_MergesServerAndLocal(t *testing.T) {
	svc, backend, deps := setupArticleService(t)

	backend.respondJSON(http.StatusOK, `[{"id": "1", "name": "Server", "text": "From the server"}]`)
	deps.Overrides.Put("articles:comments", "hello", []entities.Comment{
		{ID: "local-1", Name: "Local", Text: "Pending"},
	})

	comments, err := svc.Comments(context.Background(), "hello")
	require.NoError(t, err)

	require.Len(t, comments, 2)
	assert.Equal(t, entities.ID("1"), comments[0].ID)
	assert.Equal(t, entities.ID("local-1"), comments[1].ID)
}

func TestComments_DeduplicatesById(t *testing.T) {
	svc, backend, deps := setupArticleService(t)

	backend.respondJSON(http.StatusOK, `[{"id": "42", "name": "Server", "text": "Confirmed copy"}]`)
	deps.Overrides.Put("articles:comments", "hello", []entities.Comment{
		{ID: "42", Name: "Local", Text: "Stale local copy"},
	})

	comments, err := svc.Comments(context.Background(), "hello")
	require.NoError(t, err)

	require.Len(t, comments, 1)
	assert.Equal(t, "Confirmed copy", comments[0].Text)
}

func TestComments_LocalOnlyWhenServerDown(t *testing.T) {
	svc, backend, deps := setupArticleService(t)

	backend.down()
	deps.Overrides.Put("articles:comments", "hello", []entities.Comment{
		{ID: "local-1", Text: "Survives outages"},
	})

	comments, err := svc.Comments(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Survives outages", comments[0].Text)
}

func TestComments_ErrorWithoutLocalFallback(t *testing.T) {
	svc, backend, _ := setupArticleService(t)

	backend.down()

	_, err := svc.Comments(context.Background(), "hello")
	require.Error(t, err)
}

func TestAddComment_ServerConfirmed(t *testing.T) {
	svc, backend, deps := setupArticleService(t)

	backend.respondJSON(http.StatusCreated, `{"id": "7", "name": "Reader", "text": "Nice"}`)

	created, err := svc.AddComment(context.Background(), "hello", entities.CommentInput{Name: "Reader", Text: "Nice"})
	require.NoError(t, err)
	assert.Equal(t, entities.ID("7"), created.ID)

	var local []entities.Comment
	assert.False(t, deps.Overrides.Get("articles:comments", "hello", &local))
}

func TestAddComment_SynthesizedWhenServerDown(t *testing.T) {
	svc, backend, deps := setupArticleService(t)

	backend.down()

	created, err := svc.AddComment(context.Background(), "hello", entities.CommentInput{Text: "Posted offline"})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Anonymous", created.Name, "missing author defaults to Anonymous")
	assert.False(t, created.CreatedAt.IsZero())

	var local []entities.Comment
	require.True(t, deps.Overrides.Get("articles:comments", "hello", &local))
	require.Len(t, local, 1)
	assert.Equal(t, created.ID, local[0].ID)
}

func TestAddComment_RejectionPropagates(t *testing.T) {
	svc, backend, _ := setupArticleService(t)

	backend.respondJSON(http.StatusBadRequest, `{"text": ["This field is required."]}`)

	_, err := svc.AddComment(context.Background(), "hello", entities.CommentInput{})
	require.Error(t, err)
	assert.True(t, api.IsValidation(err))
}

func TestAddComment_ReplyRequiresKnownParent(t *testing.T) {
	svc, backend, deps := setupArticleService(t)

	backend.down()

	t.Run("unknown parent is rejected", func(t *testing.T) {
		parent := entities.ID("missing")
		_, err := svc.AddComment(context.Background(), "hello",
			entities.CommentInput{Text: "Reply", Parent: &parent})
		require.Error(t, err)
		assert.True(t, api.IsValidation(err))
	})

	t.Run("reply to a local comment is accepted", func(t *testing.T) {
		root, err := svc.AddComment(context.Background(), "hello", entities.CommentInput{Text: "Root"})
		require.NoError(t, err)

		reply, err := svc.AddComment(context.Background(), "hello",
			entities.CommentInput{Text: "Reply", Parent: &root.ID})
		require.NoError(t, err)
		require.NotNil(t, reply.Parent)
		assert.Equal(t, root.ID, *reply.Parent)

		var local []entities.Comment
		require.True(t, deps.Overrides.Get("articles:comments", "hello", &local))
		assert.Len(t, local, 2)
	})
}

func TestUpdateComment_EditsLocalCopyWhenServerDown(t *testing.T) {
	svc, backend, _ := setupArticleService(t)

	backend.down()

	created, err := svc.AddComment(context.Background(), "hello", entities.CommentInput{Text: "Original"})
	require.NoError(t, err)

	updated, err := svc.UpdateComment(context.Background(), "hello", created.ID,
		entities.CommentInput{Text: "Edited"})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Text)

	comments, err := svc.Comments(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Edited", comments[0].Text)
}

func TestDeleteComment_RemovesCommentAndDirectReplies(t *testing.T) {
	svc, backend, _ := setupArticleService(t)

	backend.down()

	root, err := svc.AddComment(context.Background(), "hello", entities.CommentInput{Text: "Root"})
	require.NoError(t, err)
	_, err = svc.AddComment(context.Background(), "hello",
		entities.CommentInput{Text: "Reply", Parent: &root.ID})
	require.NoError(t, err)
	bystander, err := svc.AddComment(context.Background(), "hello", entities.CommentInput{Text: "Unrelated"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteComment(context.Background(), "hello", root.ID))

	comments, err := svc.Comments(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, bystander.ID, comments[0].ID)
}

func TestDeleteComment_RemovesNestedReplies(t *testing.T) {
	svc, backend, _ := setupArticleService(t)

	backend.down()

	root, err := svc.AddComment(context.Background(), "hello", entities.CommentInput{Text: "Root"})
	require.NoError(t, err)
	child, err := svc.AddComment(context.Background(), "hello",
		entities.CommentInput{Text: "Child", Parent: &root.ID})
	require.NoError(t, err)
	_, err = svc.AddComment(context.Background(), "hello",
		entities.CommentInput{Text: "Grandchild", Parent: &child.ID})
	require.NoError(t, err)
	bystander, err := svc.AddComment(context.Background(), "hello", entities.CommentInput{Text: "Unrelated"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteComment(context.Background(), "hello", root.ID))

	comments, err := svc.Comments(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, bystander.ID, comments[0].ID)
	for _, c := range comments {
		if c.Parent != nil {
			assert.NotEqual(t, root.ID, *c.Parent)
			assert.NotEqual(t, child.ID, *c.Parent)
		}
	}
}
