// Command mockapi runs a small in-memory stand-in for the NIX backend.
// It serves the simplified endpoint family plus the legacy health, stats
// and JWT routes, which is enough to exercise the client end to end
// during development without a real backend.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var signingKey = []byte("mockapi-dev-key")

type store struct {
	mu        sync.RWMutex
	items     map[string]map[string]gin.H // resource -> slug -> item
	order     map[string][]string         // resource -> slugs in insertion order
	comments  map[string][]gin.H          // resource/slug -> comments
	favorites map[string]bool             // resource/slug -> favorited
}

func newStore() *store {
	s := &store{
		items:     make(map[string]map[string]gin.H),
		order:     make(map[string][]string),
		comments:  make(map[string][]gin.H),
		favorites: make(map[string]bool),
	}
	s.seed()
	return s
}

func (s *store) seed() {
	now := time.Now().UTC().Format(time.RFC3339)
	seedItems := map[string][]gin.H{
		"articles": {
			{"id": "1", "title": "Welcome to NIX", "slug": "welcome-to-nix", "content": "First post.", "views_count": 42, "created_at": now},
			{"id": "2", "title": "Release Notes", "slug": "release-notes", "content": "What changed.", "views_count": 7, "created_at": now},
		},
		"books": {
			{"id": "1", "title": "The Left Hand of Darkness", "slug": "left-hand-of-darkness", "author": "Ursula K. Le Guin", "views_count": 15, "created_at": now},
		},
		"mangas": {
			{"id": "1", "title": "Planetes", "slug": "planetes", "author": "Makoto Yukimura", "chapters_count": 26, "views_count": 31, "created_at": now},
		},
		"categories": {
			{"id": "1", "name": "Fiction", "slug": "fiction", "created_at": now},
			{"id": "2", "name": "Technology", "slug": "technology", "created_at": now},
		},
		"users": {
			{"id": "1", "username": "admin", "slug": "admin", "email": "admin@example.com", "created_at": now},
		},
	}
	for resource, items := range seedItems {
		s.items[resource] = make(map[string]gin.H)
		for _, item := range items {
			slug := item["slug"].(string)
			s.items[resource][slug] = item
			s.order[resource] = append(s.order[resource], slug)
		}
	}
	s.comments["articles/welcome-to-nix"] = []gin.H{
		{"id": "1", "name": "Reader", "email": "reader@example.com", "text": "Nice one!", "parent": nil, "created_at": now},
	}
}

func (s *store) list(resource string) []gin.H {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]gin.H, 0, len(s.order[resource]))
	for _, slug := range s.order[resource] {
		out = append(out, s.items[resource][slug])
	}
	return out
}

func (s *store) get(resource, slug string) (gin.H, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[resource][slug]
	return item, ok
}

func (s *store) put(resource, slug string, item gin.H) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[resource][slug]; !exists {
		s.order[resource] = append(s.order[resource], slug)
	}
	s.items[resource][slug] = item
}

func (s *store) delete(resource, slug string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[resource][slug]; !exists {
		return false
	}
	delete(s.items[resource], slug)
	remaining := s.order[resource][:0]
	for _, existing := range s.order[resource] {
		if existing != slug {
			remaining = append(remaining, existing)
		}
	}
	s.order[resource] = remaining
	return true
}

// asInt64 reads a counter that may be a seeded Go int or a float64 decoded
// from a JSON request body.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

func slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return '-'
	}, slug)
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

func registerResource(r *gin.Engine, s *store, resource string) {
	base := "/api/" + resource + "-simple"

	r.GET(base+"/", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.list(resource))
	})

	r.GET(base+"/:slug/", func(c *gin.Context) {
		item, ok := s.get(resource, c.Param("slug"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		c.JSON(http.StatusOK, item)
	})

	r.POST(base+"/create/", func(c *gin.Context) {
		var payload gin.H
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Malformed JSON body."})
			return
		}
		title, _ := payload["title"].(string)
		for _, alt := range []string{"name", "username"} {
			if title != "" {
				break
			}
			title, _ = payload[alt].(string)
		}
		if title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"title": []string{"This field is required."}})
			return
		}
		slug, _ := payload["slug"].(string)
		if slug == "" {
			slug = slugify(title)
		}
		payload["id"] = uuid.NewString()
		payload["slug"] = slug
		payload["created_at"] = time.Now().UTC().Format(time.RFC3339)
		s.put(resource, slug, payload)
		c.JSON(http.StatusCreated, payload)
	})

	r.PUT(base+"/:slug/update/", func(c *gin.Context) {
		slug := c.Param("slug")
		item, ok := s.get(resource, slug)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		var payload gin.H
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Malformed JSON body."})
			return
		}
		for k, v := range payload {
			if k == "id" || k == "slug" {
				continue
			}
			item[k] = v
		}
		item["updated_at"] = time.Now().UTC().Format(time.RFC3339)
		s.put(resource, slug, item)
		c.JSON(http.StatusOK, item)
	})

	r.DELETE(base+"/:slug/delete/", func(c *gin.Context) {
		if !s.delete(resource, c.Param("slug")) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.POST(base+"/:slug/increment-views/", func(c *gin.Context) {
		slug := c.Param("slug")
		item, ok := s.get(resource, slug)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		count := asInt64(item["views_count"]) + 1
		item["views_count"] = count
		s.put(resource, slug, item)
		c.JSON(http.StatusOK, gin.H{"views_count": count})
	})

	r.POST(base+"/:slug/toggle-favorite/", func(c *gin.Context) {
		slug := c.Param("slug")
		if _, ok := s.get(resource, slug); !ok {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		key := resource + "/" + slug
		s.mu.Lock()
		s.favorites[key] = !s.favorites[key]
		favorited := s.favorites[key]
		s.mu.Unlock()
		count := int64(0)
		if favorited {
			count = 1
		}
		c.JSON(http.StatusOK, gin.H{"is_favorite": favorited, "favorites_count": count})
	})

	r.GET(base+"/:slug/comments/", func(c *gin.Context) {
		s.mu.RLock()
		comments := s.comments[resource+"/"+c.Param("slug")]
		s.mu.RUnlock()
		if comments == nil {
			comments = []gin.H{}
		}
		c.JSON(http.StatusOK, comments)
	})

	r.POST(base+"/:slug/comments/add/", func(c *gin.Context) {
		slug := c.Param("slug")
		if _, ok := s.get(resource, slug); !ok {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		var payload gin.H
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Malformed JSON body."})
			return
		}
		text, _ := payload["text"].(string)
		if text == "" {
			c.JSON(http.StatusBadRequest, gin.H{"text": []string{"This field is required."}})
			return
		}
		payload["id"] = uuid.NewString()
		payload["created_at"] = time.Now().UTC().Format(time.RFC3339)
		key := resource + "/" + slug
		s.mu.Lock()
		s.comments[key] = append(s.comments[key], payload)
		s.mu.Unlock()
		c.JSON(http.StatusCreated, payload)
	})
}

func tokenPair() gin.H {
	now := time.Now()
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": now.Add(5 * time.Minute).Unix(),
		"iat": now.Unix(),
	})
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": now.Add(24 * time.Hour).Unix(),
		"iat": now.Unix(),
	})
	accessStr, _ := access.SignedString(signingKey)
	refreshStr, _ := refresh.SignedString(signingKey)
	return gin.H{"access": accessStr, "refresh": refreshStr}
}

func main() {
	addr := flag.String("addr", ":8000", "Listen address")
	flag.Parse()

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	s := newStore()

	for _, resource := range []string{"articles", "books", "mangas", "categories", "users"} {
		registerResource(r, s, resource)
	}

	r.GET("/api/v1/health/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	r.GET("/api/v1/global-stats/", func(c *gin.Context) {
		stats := gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339)}
		var totalContent, totalViews int64
		for _, resource := range []string{"articles", "books", "mangas"} {
			items := s.list(resource)
			var views int64
			for _, item := range items {
				views += asInt64(item["views_count"])
			}
			totalContent += int64(len(items))
			totalViews += views
			stats[resource] = gin.H{"total": len(items), "views": views, "recent": 0, "most_viewed": []gin.H{}}
		}
		stats["users"] = gin.H{"total": len(s.list("users")), "active": 1}
		stats["general"] = gin.H{"total_content": totalContent, "total_views": totalViews}
		c.JSON(http.StatusOK, stats)
	})

	r.POST("/api/v1/auth/jwt/create/", func(c *gin.Context) {
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&creds); err != nil || creds.Username == "" || creds.Password == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "No active account found with the given credentials"})
			return
		}
		c.JSON(http.StatusOK, tokenPair())
	})

	r.POST("/api/v1/auth/jwt/refresh/", func(c *gin.Context) {
		var body struct {
			Refresh string `json:"refresh"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Refresh == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Token is invalid or expired", "code": "token_not_valid"})
			return
		}
		c.JSON(http.StatusOK, tokenPair())
	})

	fmt.Printf("Mock NIX API listening on %s\n", *addr)
	if err := r.Run(*addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
