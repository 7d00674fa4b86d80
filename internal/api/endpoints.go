package api

import (
	"net/http"
	"strings"
)

// Operation names a logical API call ("articles.get", "stats.global").
// Each operation maps to an ordered candidate list: the simplified endpoint
// family first, the legacy router endpoint as fallback. Candidates are
// always tried from the first entry; nothing sticky is learned from
// earlier calls.
type Operation string

// Op builds the operation name for a resource action.
func Op(resource, action string) Operation {
	return Operation(resource + "." + action)
}

// Endpoint is one candidate URL template for an operation. Path templates
// use {name} placeholders filled from call parameters.
type Endpoint struct {
	Method string
	Path   string
}

var registry = map[Operation][]Endpoint{}

func register(op Operation, candidates ...Endpoint) {
	registry[op] = candidates
}

// Candidates returns the ordered endpoint list for op.
func Candidates(op Operation) ([]Endpoint, bool) {
	eps, ok := registry[op]
	return eps, ok
}

// registerResource wires the shared CRUD surface of one content resource.
// simple is the simplified endpoint prefix ("articles-simple"), app/name
// locate the legacy router ("v1/articles/articles").
func registerResource(resource, simple, app, name string) {
	simpleBase := "/api/" + simple
	legacyBase := "/api/" + app + "/" + name

	register(Op(resource, "list"),
		Endpoint{http.MethodGet, simpleBase + "/"},
		Endpoint{http.MethodGet, legacyBase + "/"},
	)
	register(Op(resource, "get"),
		Endpoint{http.MethodGet, simpleBase + "/{slug}/"},
		Endpoint{http.MethodGet, legacyBase + "/{slug}/"},
	)
	register(Op(resource, "create"),
		Endpoint{http.MethodPost, simpleBase + "/create/"},
		Endpoint{http.MethodPost, legacyBase + "/"},
	)
	register(Op(resource, "update"),
		Endpoint{http.MethodPut, simpleBase + "/{slug}/update/"},
		Endpoint{http.MethodPut, legacyBase + "/{slug}/"},
	)
	register(Op(resource, "delete"),
		Endpoint{http.MethodDelete, simpleBase + "/{slug}/delete/"},
		Endpoint{http.MethodDelete, legacyBase + "/{slug}/"},
	)
	register(Op(resource, "increment-views"),
		Endpoint{http.MethodPost, simpleBase + "/{slug}/increment-views/"},
		Endpoint{http.MethodPost, legacyBase + "/{slug}/increment_views/"},
	)
	register(Op(resource, "toggle-favorite"),
		Endpoint{http.MethodPost, simpleBase + "/{slug}/toggle-favorite/"},
		Endpoint{http.MethodPost, legacyBase + "/{slug}/toggle_favorite/"},
	)
	register(Op(resource, "comments"),
		Endpoint{http.MethodGet, simpleBase + "/{slug}/comments/"},
		Endpoint{http.MethodGet, "/api/" + app + "/comments/?slug={slug}"},
	)
	register(Op(resource, "comment-add"),
		Endpoint{http.MethodPost, simpleBase + "/{slug}/comments/add/"},
		Endpoint{http.MethodPost, "/api/" + app + "/comments/"},
	)
	register(Op(resource, "comment-update"),
		Endpoint{http.MethodPut, simpleBase + "/comments/{id}/"},
		Endpoint{http.MethodPut, "/api/" + app + "/comments/{id}/"},
	)
	register(Op(resource, "comment-delete"),
		Endpoint{http.MethodDelete, simpleBase + "/comments/{id}/"},
		Endpoint{http.MethodDelete, "/api/" + app + "/comments/{id}/"},
	)
}

func init() {
	registerResource("articles", "articles-simple", "v1/articles", "articles")
	registerResource("books", "books-simple", "v1/books", "books")
	registerResource("mangas", "mangas-simple", "v1/mangas", "mangas")
	registerResource("categories", "categories-simple", "v1/categories", "categories")
	registerResource("users", "users-simple", "v1/accounts", "users")

	// Manga chapters and reading history
	register(Op("mangas", "chapter"),
		Endpoint{http.MethodGet, "/api/mangas-simple/{slug}/chapters/{number}/"},
		Endpoint{http.MethodGet, "/api/v1/mangas/chapters/?manga_slug={slug}&number={number}"},
	)
	register(Op("mangas", "chapter-comments"),
		Endpoint{http.MethodGet, "/api/mangas-simple/chapters/{id}/comments/"},
		Endpoint{http.MethodGet, "/api/v1/mangas/comments/?chapter={id}"},
	)
	register(Op("mangas", "mark-read"),
		Endpoint{http.MethodPost, "/api/mangas-simple/{slug}/chapters/{number}/read/"},
		Endpoint{http.MethodPost, "/api/v1/mangas/history/"},
	)

	// Current user
	register(Op("users", "me"),
		Endpoint{http.MethodGet, "/api/v1/accounts/users/me/"},
	)
	register(Op("users", "change-password"),
		Endpoint{http.MethodPut, "/api/v1/accounts/users/change-password/"},
	)

	// Global statistics and health
	register(Op("stats", "global"),
		Endpoint{http.MethodGet, "/api/v1/global-stats/"},
	)
	register(Op("health", "check"),
		Endpoint{http.MethodGet, "/api/v1/health/"},
	)

	// JWT auth
	register(Op("auth", "login"),
		Endpoint{http.MethodPost, "/api/v1/auth/jwt/create/"},
	)
	register(Op("auth", "refresh"),
		Endpoint{http.MethodPost, "/api/v1/auth/jwt/refresh/"},
	)
}

// Vars fills {name} placeholders in an endpoint path template.
type Vars map[string]string

func expandPath(template string, vars Vars) string {
	path := template
	for name, value := range vars {
		path = strings.ReplaceAll(path, "{"+name+"}", value)
	}
	return path
}
