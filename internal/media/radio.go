package media

import (
	"context"

	"go.uber.org/zap"

	"harmonia/internal/cache"
	"harmonia/internal/database"
	"harmonia/internal/eventbus"
	"harmonia/internal/models"
	"harmonia/internal/provider"
)

// NewRadioController builds the radio library controller. Radios match by
// exact sort_name only; there is no musicbrainz/isrc identity for a live stream.
func NewRadioController(repo *database.Repository[*models.Radio], registry *provider.Registry, bus eventbus.Bus, c *cache.Cache, logger *zap.Logger) *Controller[*models.Radio] {
	return NewController(Config[*models.Radio]{
		Repo: repo, MediaType: models.MediaTypeRadio, Registry: registry, Bus: bus, Cache: c, Logger: logger,
		Fetch: func(ctx context.Context, p provider.Provider, itemID string) (*models.Radio, error) {
			return p.GetRadio(ctx, itemID)
		},
		Match: func(ctx context.Context, repo *database.Repository[*models.Radio], candidate *models.Radio) (*models.Radio, bool, error) {
			if existing, err := repo.FindOneWhere(ctx, "sort_name = ?", candidate.SortName); err == nil {
				return existing, true, nil
			}
			return nil, false, nil
		},
		Merge: func(target, incoming *models.Radio) *models.Radio {
			target.Metadata = target.Metadata.Merge(incoming.Metadata, false)
			target.ProviderMappings = mergeMappings(target.ProviderMappings, incoming.ProviderMappings)
			if target.DurationSeconds == 0 {
				target.DurationSeconds = incoming.DurationSeconds
			}
			return target
		},
	})
}
