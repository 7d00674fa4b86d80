package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viixen/nix-client/internal/events"
)

type staticTokens struct {
	token string
}

func (s staticTokens) AccessToken() (string, bool) {
	return s.token, s.token != ""
}

func newTestClient(baseURL string, tokens TokenSource) *Client {
	normalizer := NewNormalizer(events.NewBus(), nil, nil)
	return NewClient(baseURL, 0, tokens, normalizer)
}

func TestClient_Do_FallsBackToLegacyEndpoint(t *testing.T) {
	var simpleHits, legacyHits int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/articles-simple/hello/":
			atomic.AddInt32(&simpleHits, 1)
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail": "Not found."}`))
		case "/api/v1/articles/articles/hello/":
			atomic.AddInt32(&legacyHits, 1)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"title": "Hello", "slug": "hello"}`))
		default:
			t.Errorf("unexpected request path %s", r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)

	var out struct {
		Title string `json:"title"`
		Slug  string `json:"slug"`
	}
	err := client.Do(context.Background(), Op("articles", "get"), Vars{"slug": "hello"}, nil, nil, &out)
	require.NoError(t, err)

	assert.Equal(t, "Hello", out.Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(&simpleHits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&legacyHits))
}

func TestClient_Do_StopsAtFirstSuccess(t *testing.T) {
	var simpleHits, legacyHits int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/articles-simple/":
			atomic.AddInt32(&simpleHits, 1)
			w.Write([]byte(`[]`))
		default:
			atomic.AddInt32(&legacyHits, 1)
			w.Write([]byte(`[]`))
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)

	var out []json.RawMessage
	err := client.Do(context.Background(), Op("articles", "list"), nil, nil, nil, &out)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&simpleHits))
	assert.Equal(t, int32(0), atomic.LoadInt32(&legacyHits), "legacy endpoint must not be touched after a success")
}

func TestClient_Do_SurfacesLastCandidateError(t *testing.T) {
	var requests int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)

	err := client.Do(context.Background(), Op("articles", "list"), nil, nil, nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests), "every candidate is tried exactly once")
}

func TestClient_Do_ResendsBodyPerCandidate(t *testing.T) {
	var bodies []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)

	body := map[string]string{"title": "Draft"}
	err := client.Do(context.Background(), Op("articles", "create"), nil, nil, body, nil)
	require.Error(t, err)

	require.Len(t, bodies, 2)
	assert.JSONEq(t, `{"title": "Draft"}`, bodies[0])
	assert.JSONEq(t, `{"title": "Draft"}`, bodies[1])
}

func TestClient_Do_AttachesBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, staticTokens{token: "token-123"})

	err := client.Do(context.Background(), Op("articles", "list"), nil, nil, nil, nil)
	require.NoError(t, err)
}

func TestClient_Do_AppendsQueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fiction", r.URL.Query().Get("category"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)

	query := url.Values{"category": []string{"fiction"}}
	err := client.Do(context.Background(), Op("books", "list"), nil, query, nil, nil)
	require.NoError(t, err)
}

func TestClient_Do_UnknownOperation(t *testing.T) {
	client := newTestClient("http://localhost:1", nil)

	err := client.Do(context.Background(), Operation("nope.nothing"), nil, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}

func TestClient_Do_NetworkErrorWhenUnreachable(t *testing.T) {
	// Reserved port with no listener.
	client := newTestClient("http://127.0.0.1:1", nil)

	err := client.Do(context.Background(), Op("articles", "list"), nil, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
}

func TestClient_Do_ContextCancellationReturnsDirectly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient("http://127.0.0.1:1", nil)

	err := client.Do(ctx, Op("articles", "list"), nil, nil, nil, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsNetwork(err))
}

func TestClient_DoMultipart_SendsFieldsAndFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Cover Art", r.FormValue("title"))

		file, header, err := r.FormFile("cover_image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "cover.png", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, []byte{1, 2, 3}, data)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"slug": "cover-art"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, nil)

	files := map[string]File{
		"cover_image": {Name: "cover.png", ContentType: "image/png", Data: []byte{1, 2, 3}},
	}
	var out struct {
		Slug string `json:"slug"`
	}
	err := client.DoMultipart(context.Background(), Op("articles", "create"),
		nil, map[string]string{"title": "Cover Art"}, files, &out)
	require.NoError(t, err)
	assert.Equal(t, "cover-art", out.Slug)
}

func TestCandidates_SimplifiedComesFirst(t *testing.T) {
	for _, resource := range []string{"articles", "books", "mangas", "categories", "users"} {
		eps, ok := Candidates(Op(resource, "get"))
		require.True(t, ok, resource)
		require.Len(t, eps, 2)
		assert.Contains(t, eps[0].Path, resource+"-simple", resource)
		assert.Contains(t, eps[1].Path, "/api/v1/", resource)
	}
}
