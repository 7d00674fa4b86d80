// Package health polls the backend health endpoint on a fixed schedule and
// publishes state transitions on the event bus, backing the status
// indicator shown to the user.
package health

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/viixen/nix-client/internal/api"
	"github.com/viixen/nix-client/internal/events"
)

type State string

const (
	StateUnknown     State = "unknown"
	StateHealthy     State = "healthy"
	StateUnhealthy   State = "unhealthy"
	StateUnreachable State = "unreachable"
)

// Status is one observation of the backend's health.
type Status struct {
	State     State
	Latency   time.Duration
	CheckedAt time.Time
	Message   string
}

// Poller runs the periodic health check.
type Poller struct {
	client   *api.Client
	bus      *events.Bus
	interval time.Duration
	cron     *cron.Cron

	mu        sync.RWMutex
	last      Status
	isRunning bool
}

func NewPoller(client *api.Client, bus *events.Bus, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		bus:      bus,
		interval: interval,
		cron:     cron.New(),
		last:     Status{State: StateUnknown},
	}
}

// Start schedules the poll and runs an immediate first check.
func (p *Poller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return nil
	}

	spec := fmt.Sprintf("@every %s", p.interval)
	if _, err := p.cron.AddFunc(spec, p.poll); err != nil {
		return fmt.Errorf("failed to schedule health poll: %w", err)
	}
	p.cron.Start()
	p.isRunning = true

	go p.poll()

	log.Printf("Health poller started (every %s)", p.interval)
	return nil
}

// Stop halts the schedule. A poll already in flight finishes.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return
	}
	p.cron.Stop()
	p.isRunning = false
	log.Printf("Health poller stopped")
}

// Last returns the most recent observation.
func (p *Poller) Last() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

type healthBody struct {
	Status string `json:"status"`
}

// Check performs a single health probe.
func (p *Poller) Check(ctx context.Context) Status {
	start := time.Now()

	var body healthBody
	err := p.client.Do(ctx, api.Op("health", "check"), nil, nil, nil, &body)
	status := Status{
		Latency:   time.Since(start),
		CheckedAt: time.Now(),
	}

	switch {
	case err == nil && body.Status == "healthy":
		status.State = StateHealthy
	case err == nil:
		status.State = StateUnhealthy
		status.Message = body.Status
	case api.IsNetwork(err):
		status.State = StateUnreachable
		status.Message = err.Error()
	default:
		// The server answered, just not happily.
		status.State = StateUnhealthy
		status.Message = err.Error()
	}
	return status
}

func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	status := p.Check(ctx)

	p.mu.Lock()
	previous := p.last
	p.last = status
	p.mu.Unlock()

	if previous.State != status.State {
		log.Printf("Backend health: %s -> %s", previous.State, status.State)
		if p.bus != nil {
			p.bus.Publish(events.TopicHealthChanged, status)
		}
	}
}
