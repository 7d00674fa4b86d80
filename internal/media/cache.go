// Package media keeps local copies of cover images and other remote
// assets referenced by content entities, so detail views render while
// the server is away.
package media

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// extByMediaType maps the media types the platform serves to on-disk
// extensions. The source URL is consulted only when the server does not
// declare a usable type.
var extByMediaType = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/svg+xml":   ".svg",
	"application/pdf": ".pdf",
}

// Cache stores fetched media files under a stable per-slug name, so an
// entity's assets can be looked up and evicted together.
type Cache struct {
	dir    string
	client *http.Client
}

func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create media cache dir: %w", err)
	}

	return &Cache{
		dir:    dir,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Get returns the local path of the cached file for (slug, sourceURL),
// downloading it first when not yet present. An empty sourceURL yields
// an empty path without error.
func (c *Cache) Get(ctx context.Context, slug, sourceURL string) (string, error) {
	if sourceURL == "" {
		return "", nil
	}

	stem := c.stem(slug, sourceURL)
	if existing := c.lookup(stem); existing != "" {
		return existing, nil
	}
	return c.download(ctx, sourceURL, stem)
}

// Invalidate removes every cached file for slug, used when the entity's
// media fields change.
func (c *Cache) Invalidate(slug string) error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "media_"+slug+"_*"))
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// stem is the filename without extension. The extension is only known
// once the response headers arrive, so lookups match on the stem alone.
func (c *Cache) stem(slug, sourceURL string) string {
	hash := sha256.Sum256([]byte(sourceURL))
	return fmt.Sprintf("media_%s_%x", slug, hash[:8])
}

func (c *Cache) lookup(stem string) string {
	matches, err := filepath.Glob(filepath.Join(c.dir, stem+".*"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}

func (c *Cache) download(ctx context.Context, sourceURL, stem string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "NixClient/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode)
	}

	target := filepath.Join(c.dir, stem+extensionFor(resp.Header.Get("Content-Type"), sourceURL))

	// Write through a temp file in the same directory so a partial
	// download never becomes visible under the final name.
	tmp, err := os.CreateTemp(c.dir, "download_*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return "", err
	}
	return target, nil
}

// extensionFor picks a file extension from the declared content type,
// falling back to the URL path and finally to a generic suffix.
func extensionFor(contentType, sourceURL string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := extByMediaType[mediaType]; ok {
			return ext
		}
	}
	if u, err := url.Parse(sourceURL); err == nil {
		if ext := filepath.Ext(u.Path); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	return ".bin"
}
