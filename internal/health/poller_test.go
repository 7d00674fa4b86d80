package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viixen/nix-client/internal/api"
	"github.com/viixen/nix-client/internal/events"
)

func newTestPoller(t *testing.T, handler http.HandlerFunc, bus *events.Bus) *Poller {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	normalizer := api.NewNormalizer(bus, nil, nil)
	client := api.NewClient(server.URL, 5*time.Second, nil, normalizer)
	return NewPoller(client, bus, 15*time.Second)
}

func TestPoller_Check_Healthy(t *testing.T) {
	p := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/health/", r.URL.Path)
		w.Write([]byte(`{"status": "healthy"}`))
	}, events.NewBus())

	status := p.Check(context.Background())

	assert.Equal(t, StateHealthy, status.State)
	assert.Empty(t, status.Message)
	assert.False(t, status.CheckedAt.IsZero())
}

func TestPoller_Check_DegradedStatus(t *testing.T) {
	p := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "degraded"}`))
	}, events.NewBus())

	status := p.Check(context.Background())

	assert.Equal(t, StateUnhealthy, status.State)
	assert.Equal(t, "degraded", status.Message)
}

func TestPoller_Check_ServerError(t *testing.T) {
	p := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, events.NewBus())

	status := p.Check(context.Background())

	assert.Equal(t, StateUnhealthy, status.State)
	assert.NotEmpty(t, status.Message)
}

func TestPoller_Check_Unreachable(t *testing.T) {
	normalizer := api.NewNormalizer(events.NewBus(), nil, nil)
	client := api.NewClient("http://127.0.0.1:1", time.Second, nil, normalizer)
	p := NewPoller(client, events.NewBus(), 15*time.Second)

	status := p.Check(context.Background())

	assert.Equal(t, StateUnreachable, status.State)
}

func TestPoller_PollPublishesTransitions(t *testing.T) {
	bus := events.NewBus()
	p := newTestPoller(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "healthy"}`))
	}, bus)

	var changes []Status
	bus.Subscribe(events.TopicHealthChanged, func(payload any) {
		changes = append(changes, payload.(Status))
	})

	p.poll()
	require.Len(t, changes, 1, "unknown -> healthy publishes")
	assert.Equal(t, StateHealthy, changes[0].State)

	p.poll()
	assert.Len(t, changes, 1, "a repeat of the same state stays quiet")

	assert.Equal(t, StateHealthy, p.Last().State)
}
