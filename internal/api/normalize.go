package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/viixen/nix-client/internal/events"
)

// TokenClearer removes any locally stored session tokens.
type TokenClearer interface {
	Clear() error
}

// OfflineProbe reports whether the client currently has no network
// connectivity.
type OfflineProbe func() bool

const offlineMessage = "You appear to be offline. Check your connection and try again."

// Normalizer maps HTTP status plus response body into a single error value
// with a user-facing message, independent of which endpoint produced it.
// A 401 has the one global side effect in the system: it clears stored
// tokens and publishes a session-expired event on the bus.
type Normalizer struct {
	bus     *events.Bus
	tokens  TokenClearer
	offline OfflineProbe
}

func NewNormalizer(bus *events.Bus, tokens TokenClearer, offline OfflineProbe) *Normalizer {
	return &Normalizer{bus: bus, tokens: tokens, offline: offline}
}

// bodyShape classifies the parsed error body before the status switch
// runs, so the rules below never duck-type raw JSON.
type bodyShape int

const (
	bodyEmpty bodyShape = iota
	bodyDetail
	bodyFieldErrors
	bodyNonField
	bodyOpaque
)

type errorBody struct {
	shape    bodyShape
	detail   string
	fields   map[string][]string
	nonField []string
	raw      map[string]any
}

// parseErrorBody coerces any response body into one of the known error
// shapes. Non-JSON input becomes a detail body holding the raw text.
func parseErrorBody(data []byte) errorBody {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return errorBody{shape: bodyEmpty}
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return errorBody{
			shape:  bodyDetail,
			detail: text,
			raw:    map[string]any{"detail": text},
		}
	}

	body := errorBody{raw: raw}
	if detail, ok := raw["detail"].(string); ok {
		body.detail = detail
	}
	if values, ok := raw["non_field_errors"].([]any); ok {
		body.nonField = stringValues(values)
	}
	fields := map[string][]string{}
	for key, value := range raw {
		if key == "detail" || key == "non_field_errors" {
			continue
		}
		if values, ok := value.([]any); ok {
			if msgs := stringValues(values); len(msgs) > 0 {
				fields[key] = msgs
			}
		}
	}
	if len(fields) > 0 {
		body.fields = fields
	}

	// Classification priority when several keys coexist: per-field errors
	// beat non_field_errors, which beat a detail string.
	switch {
	case len(body.fields) > 0:
		body.shape = bodyFieldErrors
	case len(body.nonField) > 0:
		body.shape = bodyNonField
	case body.detail != "":
		body.shape = bodyDetail
	default:
		body.shape = bodyOpaque
	}
	return body
}

func stringValues(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Normalize converts a non-2xx response into an *APIError.
func (n *Normalizer) Normalize(status int, data []byte) error {
	body := parseErrorBody(data)

	apiErr := &APIError{
		Status: status,
		Data:   body.raw,
	}

	switch status {
	case http.StatusUnauthorized:
		apiErr.Message = n.handleUnauthorized(body)
	case http.StatusForbidden:
		apiErr.Message = "You do not have permission to perform this action."
		if body.detail != "" {
			apiErr.Message = body.detail
		}
	case http.StatusBadRequest:
		apiErr.Message = validationMessage(body)
	case http.StatusNotFound:
		apiErr.Message = detailOr(body, "The requested resource was not found.")
	case http.StatusConflict:
		apiErr.Message = detailOr(body, "The request conflicts with the current state of the resource.")
	case http.StatusUnprocessableEntity:
		apiErr.Message = detailOr(body, "The request could not be processed.")
	case http.StatusTooManyRequests:
		apiErr.Message = detailOr(body, "Too many requests. Please slow down and try again.")
	case http.StatusInternalServerError:
		apiErr.Message = "Internal server error. Please try again later."
	case http.StatusBadGateway:
		apiErr.Message = "Bad gateway. The server is not responding correctly."
	case http.StatusServiceUnavailable:
		apiErr.Message = "The service is temporarily unavailable."
	case http.StatusGatewayTimeout:
		apiErr.Message = "The server took too long to respond."
	default:
		apiErr.Message = "An unexpected error occurred. Please try again."
	}

	if n.offline != nil && n.offline() {
		apiErr.Message = offlineMessage
		apiErr.Offline = true
	}

	return apiErr
}

// Network wraps a transport-level failure (no response obtained).
func (n *Normalizer) Network(err error) error {
	netErr := &NetworkError{
		Err:     err,
		Message: "Could not reach the server. Please try again.",
	}
	if n.offline != nil && n.offline() {
		netErr.Message = offlineMessage
		netErr.Offline = true
	}
	return netErr
}

// Recognized markers in a 401 detail that indicate the stored session is
// no longer usable.
var authFailureMarkers = []string{
	"token_not_valid",
	"token not valid",
	"token is invalid",
	"token is expired",
	"authentication_failed",
	"not_authenticated",
	"credentials were not provided",
}

func (n *Normalizer) handleUnauthorized(body errorBody) string {
	message := "Authentication required. Please log in."
	detail := strings.ToLower(body.detail)
	if code, ok := body.raw["code"].(string); ok {
		detail += " " + strings.ToLower(code)
	}
	for _, marker := range authFailureMarkers {
		if strings.Contains(detail, marker) {
			message = "Your session has expired. Please log in again."
			break
		}
	}

	if n.tokens != nil {
		if err := n.tokens.Clear(); err != nil {
			log.Printf("Failed to clear stored tokens: %v", err)
		}
	}
	if n.bus != nil {
		n.bus.Publish(events.TopicSessionExpired, message)
	}
	return message
}

func validationMessage(body errorBody) string {
	switch body.shape {
	case bodyFieldErrors:
		names := make([]string, 0, len(body.fields))
		for name := range body.fields {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, name+": "+strings.Join(body.fields[name], ", "))
		}
		return strings.Join(parts, "; ")
	case bodyNonField:
		return strings.Join(body.nonField, ", ")
	case bodyDetail:
		return body.detail
	default:
		return "Invalid request. Please check the submitted data."
	}
}

func detailOr(body errorBody, fallback string) string {
	if body.detail != "" {
		return body.detail
	}
	return fallback
}
