// Package api implements the HTTP request executor, endpoint registry and
// error normalizer behind the domain services. Every logical operation has
// an ordered candidate list of endpoints; candidates are tried strictly
// sequentially, each exactly once, and the caller sees the last candidate's
// normalized error when all of them fail.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// TokenSource supplies the bearer token attached to outgoing requests.
type TokenSource interface {
	AccessToken() (string, bool)
}

// Client executes logical operations against the NIX backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	normalizer *Normalizer
}

// NewClient creates an executor for the API at baseURL. tokens may be nil
// for unauthenticated use.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, normalizer *Normalizer) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		normalizer: normalizer,
	}
}

// Normalizer exposes the client's error normalizer to callers that need to
// produce matching errors themselves.
func (c *Client) Normalizer() *Normalizer {
	return c.normalizer
}

// File is an upload attached to a multipart request.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Do executes op with a JSON body. Candidates are attempted in registry
// order; a non-2xx status or transport failure moves on to the next
// candidate. out, when non-nil, receives the decoded 2xx response body.
func (c *Client) Do(ctx context.Context, op Operation, vars Vars, query url.Values, body any, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = data
	}

	return c.attempt(ctx, op, vars, query, out, func() (io.Reader, string) {
		if payload == nil {
			return nil, ""
		}
		return bytes.NewReader(payload), "application/json"
	})
}

// DoMultipart executes op with a multipart/form-data body, used for
// file-bearing creates and updates (cover images, avatars, PDFs, audio).
func (c *Client) DoMultipart(ctx context.Context, op Operation, vars Vars, fields map[string]string, files map[string]File, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("write form field %s: %w", name, err)
		}
	}
	for field, file := range files {
		part, err := writer.CreateFormFile(field, file.Name)
		if err != nil {
			return fmt.Errorf("create form file %s: %w", field, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return fmt.Errorf("write form file %s: %w", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	payload := buf.Bytes()
	contentType := writer.FormDataContentType()

	return c.attempt(ctx, op, vars, nil, out, func() (io.Reader, string) {
		return bytes.NewReader(payload), contentType
	})
}

// attempt walks the candidate list for op. bodyFn produces a fresh body
// reader per candidate, since a request body is consumed by each send.
func (c *Client) attempt(ctx context.Context, op Operation, vars Vars, query url.Values, out any, bodyFn func() (io.Reader, string)) error {
	candidates, ok := Candidates(op)
	if !ok {
		return fmt.Errorf("unknown operation %q", op)
	}

	var lastErr error
	for _, ep := range candidates {
		reqURL := c.buildURL(ep.Path, vars, query)

		body, contentType := bodyFn()
		req, err := http.NewRequestWithContext(ctx, ep.Method, reqURL, body)
		if err != nil {
			return fmt.Errorf("create request for %s: %w", op, err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", "application/json")
		if c.tokens != nil {
			if token, ok := c.tokens.AccessToken(); ok {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Context cancellation is the caller's decision, not a
			// candidate failure.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = c.normalizer.Network(err)
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = c.normalizer.Network(readErr)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out != nil && len(data) > 0 {
				if err := json.Unmarshal(data, out); err != nil {
					return fmt.Errorf("decode response for %s: %w", op, err)
				}
			}
			return nil
		}

		lastErr = c.normalizer.Normalize(resp.StatusCode, data)
	}

	return lastErr
}

func (c *Client) buildURL(template string, vars Vars, query url.Values) string {
	path := expandPath(template, vars)
	reqURL := c.baseURL + path
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(reqURL, "?") {
			sep = "&"
		}
		reqURL += sep + query.Encode()
	}
	return reqURL
}
