package services

import (
	"context"

	"github.com/viixen/nix-client/internal/api"
	"github.com/viixen/nix-client/internal/cache"
	"github.com/viixen/nix-client/internal/entities"
)

// StatisticsService serves the global statistics snapshot: totals, view
// counts and the top most-viewed entries per content type.
type StatisticsService struct {
	client *api.Client
	cached func(ctx context.Context, key struct{}) (entities.Statistics, error)
}

func NewStatisticsService(deps Deps) *StatisticsService {
	s := &StatisticsService{client: deps.Client}
	s.cached = cache.Wrap(deps.Cache,
		func(struct{}) string { return "stats:global" },
		deps.CacheTTL,
		func(ctx context.Context, _ struct{}) (entities.Statistics, error) {
			return s.fetch(ctx)
		},
	)
	return s
}

// Global returns the statistics snapshot, cached per the configured TTL.
func (s *StatisticsService) Global(ctx context.Context) (entities.Statistics, error) {
	return s.cached(ctx, struct{}{})
}

func (s *StatisticsService) fetch(ctx context.Context) (entities.Statistics, error) {
	var stats entities.Statistics
	if err := s.client.Do(ctx, api.Op("stats", "global"), nil, nil, nil, &stats); err != nil {
		return entities.Statistics{}, err
	}
	return stats, nil
}
