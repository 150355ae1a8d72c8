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

// NewAudiobookController builds the audiobook library controller. Audiobooks
// match by sort_name plus author-set intersection; resume positions always
// take the most recent non-zero value so progress follows the user across
// providers.
func NewAudiobookController(repo *database.Repository[*models.Audiobook], registry *provider.Registry, bus eventbus.Bus, c *cache.Cache, logger *zap.Logger) *Controller[*models.Audiobook] {
	return NewController(Config[*models.Audiobook]{
		Repo: repo, MediaType: models.MediaTypeAudiobook, Registry: registry, Bus: bus, Cache: c, Logger: logger,
		Fetch: func(ctx context.Context, p provider.Provider, itemID string) (*models.Audiobook, error) {
			return p.GetAudiobook(ctx, itemID)
		},
		Match: func(ctx context.Context, repo *database.Repository[*models.Audiobook], candidate *models.Audiobook) (*models.Audiobook, bool, error) {
			candidates, err := repo.FindAllWhere(ctx, "sort_name = ?", candidate.SortName)
			if err == nil {
				for _, cand := range candidates {
					if compareArtists(candidate.Authors.Slice(), cand.Authors.Slice(), true) {
						return cand, true, nil
					}
				}
			}
			return nil, false, nil
		},
		Merge: func(target, incoming *models.Audiobook) *models.Audiobook {
			target.Metadata = target.Metadata.Merge(incoming.Metadata, false)
			target.ProviderMappings = mergeMappings(target.ProviderMappings, incoming.ProviderMappings)
			target.Authors = target.Authors.Union(incoming.Authors)
			target.Narrators = target.Narrators.Union(incoming.Narrators)
			if len(target.Chapters) == 0 {
				target.Chapters = incoming.Chapters
			}
			if incoming.ResumePositionMs > 0 {
				target.ResumePositionMs = incoming.ResumePositionMs
			}
			if target.DurationSeconds == 0 {
				target.DurationSeconds = incoming.DurationSeconds
			}
			return target
		},
	})
}

// NewPodcastController builds the podcast library controller.
func NewPodcastController(repo *database.Repository[*models.Podcast], registry *provider.Registry, bus eventbus.Bus, c *cache.Cache, logger *zap.Logger) *Controller[*models.Podcast] {
	return NewController(Config[*models.Podcast]{
		Repo: repo, MediaType: models.MediaTypePodcast, Registry: registry, Bus: bus, Cache: c, Logger: logger,
		Fetch: func(ctx context.Context, p provider.Provider, itemID string) (*models.Podcast, error) {
			return p.GetPodcast(ctx, itemID)
		},
		Match: func(ctx context.Context, repo *database.Repository[*models.Podcast], candidate *models.Podcast) (*models.Podcast, bool, error) {
			candidates, err := repo.FindAllWhere(ctx, "sort_name = ?", candidate.SortName)
			if err == nil {
				for _, cand := range candidates {
					if compareArtists(candidate.Authors.Slice(), cand.Authors.Slice(), true) {
						return cand, true, nil
					}
				}
			}
			return nil, false, nil
		},
		Merge: func(target, incoming *models.Podcast) *models.Podcast {
			target.Metadata = target.Metadata.Merge(incoming.Metadata, false)
			target.ProviderMappings = mergeMappings(target.ProviderMappings, incoming.ProviderMappings)
			target.Authors = target.Authors.Union(incoming.Authors)
			return target
		},
	})
}

// NewEpisodeController builds the episode library controller. Episodes are
// scoped to their podcast, so matching requires both the exact sort_name and
// the parent podcast item id to agree.
func NewEpisodeController(repo *database.Repository[*models.Episode], registry *provider.Registry, bus eventbus.Bus, c *cache.Cache, logger *zap.Logger) *Controller[*models.Episode] {
	return NewController(Config[*models.Episode]{
		Repo: repo, MediaType: models.MediaTypeEpisode, Registry: registry, Bus: bus, Cache: c, Logger: logger,
		Fetch: func(ctx context.Context, p provider.Provider, itemID string) (*models.Episode, error) {
			return p.GetEpisode(ctx, itemID)
		},
		Match: func(ctx context.Context, repo *database.Repository[*models.Episode], candidate *models.Episode) (*models.Episode, bool, error) {
			candidates, err := repo.FindAllWhere(ctx, "sort_name = ? AND podcast_item_id = ?", candidate.SortName, candidate.PodcastItemID)
			if err == nil && len(candidates) > 0 {
				return candidates[0], true, nil
			}
			return nil, false, nil
		},
		Merge: func(target, incoming *models.Episode) *models.Episode {
			target.Metadata = target.Metadata.Merge(incoming.Metadata, false)
			target.ProviderMappings = mergeMappings(target.ProviderMappings, incoming.ProviderMappings)
			if incoming.ResumePositionMs > 0 {
				target.ResumePositionMs = incoming.ResumePositionMs
			}
			if target.DurationSeconds == 0 {
				target.DurationSeconds = incoming.DurationSeconds
			}
			return target
		},
	})
}
