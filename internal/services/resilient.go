// Package services exposes one domain service per content type. Every
// service composes the same resilience pipeline: cache, endpoint fallback
// through the request executor, and reconciliation with the local override
// store. The override store belongs exclusively to this layer; nothing
// above it writes there directly.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/viixen/nix-client/internal/api"
	"github.com/viixen/nix-client/internal/cache"
	"github.com/viixen/nix-client/internal/entities"
	"github.com/viixen/nix-client/internal/overrides"
)

// Payload carries the fields of a create or update request.
type Payload map[string]any

// Deps bundles the collaborators injected into every domain service.
type Deps struct {
	Client    *api.Client
	Overrides *overrides.Store
	Cache     *cache.Cache
	CacheTTL  time.Duration
}

// Synthesizer builds a local entity from a request payload when the server
// could not confirm the write. slug is empty on create; prior carries the
// previous local copy on update, when one exists.
type Synthesizer[T entities.Content] func(payload Payload, slug string, prior *T) T

// Resilient is the generic service shared by all content types. It owns
// the decision of whether the server or the override store is
// authoritative for each read.
type Resilient[T entities.Content] struct {
	resource   string
	client     *api.Client
	overrides  *overrides.Store
	cache      *cache.Cache
	synthesize Synthesizer[T]
	cachedGet  func(ctx context.Context, slug string) (T, error)
}

func newResilient[T entities.Content](resource string, deps Deps, synthesize Synthesizer[T]) *Resilient[T] {
	r := &Resilient[T]{
		resource:   resource,
		client:     deps.Client,
		overrides:  deps.Overrides,
		cache:      deps.Cache,
		synthesize: synthesize,
	}
	r.cachedGet = cache.Wrap(deps.Cache,
		func(slug string) string { return r.cacheKey(slug) },
		deps.CacheTTL,
		r.fetchBySlug,
	)
	return r
}

// EntityType names the resource, used as the override store key prefix.
func (r *Resilient[T]) EntityType() string {
	return r.resource
}

func (r *Resilient[T]) cacheKey(slug string) string {
	return r.resource + ":get:" + slug
}

func (r *Resilient[T]) commentsType() string {
	return r.resource + ":comments"
}

// List fetches the server collection and reconciles it with local
// overrides. On total endpoint failure the call degrades to the
// override-backed result when one exists instead of failing hard.
func (r *Resilient[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	var serverList []T
	err := r.client.Do(ctx, api.Op(r.resource, "list"), nil, query, nil, &serverList)

	records := r.overrides.List(r.resource)
	deleted := r.overrides.DeletedSlugs(r.resource)

	if err != nil {
		if len(records) == 0 {
			return nil, err
		}
		log.Printf("%s list: server unavailable, serving %d local overrides: %v",
			r.resource, len(records), err)
		serverList = nil
	}

	return overrides.MergeList(serverList, records, deleted, func(item T) string {
		return item.GetSlug()
	}), nil
}

// GetBySlug returns the entity for slug, cached per the configured TTL.
// The server copy wins; the override is consulted only when every endpoint
// candidate failed.
func (r *Resilient[T]) GetBySlug(ctx context.Context, slug string) (T, error) {
	return r.cachedGet(ctx, slug)
}

func (r *Resilient[T]) fetchBySlug(ctx context.Context, slug string) (T, error) {
	var zero T

	if r.overrides.IsDeleted(r.resource, slug) {
		return zero, &api.APIError{
			Status:  http.StatusNotFound,
			Message: "The requested resource was not found.",
		}
	}

	var item T
	err := r.client.Do(ctx, api.Op(r.resource, "get"), api.Vars{"slug": slug}, nil, nil, &item)
	if err == nil {
		return item, nil
	}

	var fromOverride T
	if r.overrides.Get(r.resource, slug, &fromOverride) {
		log.Printf("%s get %s: server unavailable, serving local override: %v", r.resource, slug, err)
		return fromOverride, nil
	}
	return zero, err
}

// Create submits the payload, using multipart encoding when files are
// attached. If the server is unreachable or failing, a local entity is
// synthesized, recorded as an override, and returned; an authoritative
// server rejection (validation, auth, conflict) propagates instead.
func (r *Resilient[T]) Create(ctx context.Context, payload Payload, files map[string]api.File) (T, error) {
	op := api.Op(r.resource, "create")

	var created T
	var err error
	if len(files) > 0 {
		err = r.client.DoMultipart(ctx, op, nil, formFields(payload), files, &created)
	} else {
		err = r.client.Do(ctx, op, nil, nil, payload, &created)
	}

	if err == nil && created.GetSlug() != "" {
		return created, nil
	}
	if err != nil && serverRejected(err) {
		var zero T
		return zero, err
	}

	// Server absent or its answer unverifiable: synthesize locally.
	local := r.synthesize(payload, "", nil)
	r.overrides.Put(r.resource, local.GetSlug(), local)
	if err != nil {
		log.Printf("%s create: server unavailable, synthesized %s locally: %v",
			r.resource, local.GetSlug(), err)
	}
	return local, nil
}

// Update writes the payload to the server and invalidates the cached read
// either way. On server failure the edit is kept as a local override so it
// stays visible until the background sync confirms it.
func (r *Resilient[T]) Update(ctx context.Context, slug string, payload Payload) (T, error) {
	var updated T
	err := r.client.Do(ctx, api.Op(r.resource, "update"), api.Vars{"slug": slug}, nil, payload, &updated)
	r.cache.Invalidate(r.cacheKey(slug))

	if err == nil {
		// Server confirmed: the override, if any, is superseded.
		r.overrides.Clear(r.resource, slug)
		return updated, nil
	}
	if serverRejected(err) {
		var zero T
		return zero, err
	}

	var prior *T
	var existing T
	if r.overrides.Get(r.resource, slug, &existing) {
		prior = &existing
	}
	local := r.synthesize(payload, slug, prior)
	r.overrides.Put(r.resource, slug, local)
	log.Printf("%s update %s: server unavailable, edit kept locally: %v", r.resource, slug, err)
	return local, nil
}

// Delete removes the entity. The slug is tombstoned locally so no
// reconciliation ever resurrects it; a 404 from the server counts as
// success since the entity is already gone.
func (r *Resilient[T]) Delete(ctx context.Context, slug string) error {
	err := r.client.Do(ctx, api.Op(r.resource, "delete"), api.Vars{"slug": slug}, nil, nil, nil)
	if err != nil && serverRejected(err) {
		return err
	}

	r.overrides.Clear(r.resource, slug)
	r.overrides.MarkDeleted(r.resource, slug)
	r.cache.Invalidate(r.cacheKey(slug))
	if err != nil && !api.IsNotFound(err) {
		log.Printf("%s delete %s: server unavailable, deleted locally: %v", r.resource, slug, err)
	}
	return nil
}

// IncrementViews bumps the server-side view counter. Best-effort: any
// failure yields a zero result, never an error.
func (r *Resilient[T]) IncrementViews(ctx context.Context, slug string) entities.ViewResult {
	var result entities.ViewResult
	err := r.client.Do(ctx, api.Op(r.resource, "increment-views"), api.Vars{"slug": slug}, nil, nil, &result)
	if err != nil {
		log.Printf("%s increment-views %s: ignored failure: %v", r.resource, slug, err)
		return entities.ViewResult{}
	}
	return result
}

// ToggleFavorite flips the favorite flag for the current user. Best-effort
// like IncrementViews.
func (r *Resilient[T]) ToggleFavorite(ctx context.Context, slug string) entities.FavoriteResult {
	var result entities.FavoriteResult
	err := r.client.Do(ctx, api.Op(r.resource, "toggle-favorite"), api.Vars{"slug": slug}, nil, nil, &result)
	if err != nil {
		log.Printf("%s toggle-favorite %s: ignored failure: %v", r.resource, slug, err)
		return entities.FavoriteResult{}
	}
	return result
}

// PushOverride attempts to persist a pending local override on the server.
// Called by the background sync queue; a confirmed write clears the
// override (Edited-Locally back to Fetched).
func (r *Resilient[T]) PushOverride(ctx context.Context, slug string) error {
	var local T
	if !r.overrides.Get(r.resource, slug, &local) {
		return nil // already confirmed or removed
	}

	var updated T
	err := r.client.Do(ctx, api.Op(r.resource, "update"), api.Vars{"slug": slug}, nil, local, &updated)
	if api.IsNotFound(err) {
		// Entity never reached the server: create instead.
		err = r.client.Do(ctx, api.Op(r.resource, "create"), nil, nil, local, &updated)
	}
	if err != nil {
		return fmt.Errorf("push %s override %s: %w", r.resource, slug, err)
	}

	r.overrides.Clear(r.resource, slug)
	r.cache.Invalidate(r.cacheKey(slug))
	log.Printf("%s override %s confirmed by server", r.resource, slug)
	return nil
}

// serverRejected distinguishes an authoritative server rejection from the
// server simply being unavailable. Only the latter justifies falling back
// to a local override. A 404 on a write is not a rejection here: it
// typically means the endpoint generation is missing server-side, which is
// exactly the gap the override store papers over.
func serverRejected(err error) bool {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

func formFields(payload Payload) map[string]string {
	fields := make(map[string]string, len(payload))
	for key, value := range payload {
		fields[key] = fmt.Sprint(value)
	}
	return fields
}

func newLocalID() entities.ID {
	return entities.ID(uuid.NewString())
}
