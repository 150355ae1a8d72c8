package media

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"harmonia/internal/cache"
	"harmonia/internal/database"
	"harmonia/internal/eventbus"
	"harmonia/internal/models"
	"harmonia/internal/provider"
)

// NewPlaylistController builds the playlist library controller. Playlists
// never cross-match between providers: a playlist is owned by exactly one
// provider mapping, so matching is by (provider, item_id) identity only.
func NewPlaylistController(repo *database.Repository[*models.Playlist], registry *provider.Registry, bus eventbus.Bus, c *cache.Cache, logger *zap.Logger) *Controller[*models.Playlist] {
	return NewController(Config[*models.Playlist]{
		Repo: repo, MediaType: models.MediaTypePlaylist, Registry: registry, Bus: bus, Cache: c, Logger: logger,
		Fetch: func(ctx context.Context, p provider.Provider, itemID string) (*models.Playlist, error) {
			return p.GetPlaylist(ctx, itemID)
		},
		Match: func(ctx context.Context, repo *database.Repository[*models.Playlist], candidate *models.Playlist) (*models.Playlist, bool, error) {
			for _, m := range candidate.ProviderMappings {
				if existing, err := repo.GetByProviderMapping(ctx, m.ProviderInstance, m.ItemID); err == nil {
					return existing, true, nil
				}
			}
			return nil, false, nil
		},
		Merge: func(target, incoming *models.Playlist) *models.Playlist {
			target.Metadata = target.Metadata.Merge(incoming.Metadata, false)
			target.ProviderMappings = mergeMappings(target.ProviderMappings, incoming.ProviderMappings)
			target.Owner = incoming.Owner
			target.IsEditable = incoming.IsEditable
			if incoming.Checksum != "" {
				target.Checksum = incoming.Checksum
			}
			return target
		},
	})
}

// PlaylistEditor forwards track edits to the single provider mapping that
// owns a playlist, bumping the checksum so cached track listings are
// invalidated.
type PlaylistEditor struct {
	playlists *Controller[*models.Playlist]
	tracks    *Controller[*models.Track]
	registry  *provider.Registry
	cache     *cache.Cache
	logger    *zap.Logger
}

// NewPlaylistEditor builds a PlaylistEditor.
func NewPlaylistEditor(playlists *Controller[*models.Playlist], tracks *Controller[*models.Track], registry *provider.Registry, c *cache.Cache, logger *zap.Logger) *PlaylistEditor {
	return &PlaylistEditor{playlists: playlists, tracks: tracks, registry: registry, cache: c, logger: logger}
}

// PlaylistTrackEditor is the subset of provider behaviour playlist edits
// need; providers supporting PLAYLIST_TRACKS_EDIT implement it in addition
// to the base Provider interface.
type PlaylistTrackEditor interface {
	AddPlaylistTracks(ctx context.Context, playlistID string, trackURIs []string) error
	RemovePlaylistTracks(ctx context.Context, playlistID string, positions []int) error
}

// AddTracks resolves each track URI to the best mapping on the playlist's
// owning provider and forwards the add. Edits against a non-editable
// playlist return a typed UnsupportedOperation error rather than silently
// dropping the request. Foreign URIs added to a filesystem-backed playlist
// are stored verbatim.
func (e *PlaylistEditor) AddTracks(ctx context.Context, playlistDBID int64, trackURIs []string) error {
	playlist, owner, editor, err := e.editable(ctx, playlistDBID)
	if err != nil {
		return err
	}

	ownerMapping := playlist.ProviderMappings[0]
	resolved := make([]string, 0, len(trackURIs))
	for _, uri := range trackURIs {
		if owner.Type() == provider.TypeFilesystem {
			resolved = append(resolved, uri)
			continue
		}
		resolved = append(resolved, e.resolveForProvider(ctx, uri, owner))
	}

	if err := editor.AddPlaylistTracks(ctx, ownerMapping.ItemID, resolved); err != nil {
		return err
	}
	return e.bumpChecksum(ctx, playlist)
}

// RemoveTracks forwards a positional removal to the owning provider and
// bumps the checksum.
func (e *PlaylistEditor) RemoveTracks(ctx context.Context, playlistDBID int64, positions []int) error {
	playlist, _, editor, err := e.editable(ctx, playlistDBID)
	if err != nil {
		return err
	}
	if err := editor.RemovePlaylistTracks(ctx, playlist.ProviderMappings[0].ItemID, positions); err != nil {
		return err
	}
	return e.bumpChecksum(ctx, playlist)
}

func (e *PlaylistEditor) editable(ctx context.Context, playlistDBID int64) (*models.Playlist, provider.Provider, PlaylistTrackEditor, error) {
	playlist, err := e.playlists.repo.GetByID(ctx, playlistDBID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !playlist.IsEditable {
		return nil, nil, nil, provider.NewUnsupportedOperation(playlist.Provider,
			fmt.Sprintf("playlist %s is not editable", playlist.Name))
	}
	if len(playlist.ProviderMappings) == 0 {
		return nil, nil, nil, provider.NewMediaNotFound(playlist.Provider, "playlist has no provider mapping")
	}
	owner, err := e.registry.Get(playlist.ProviderMappings[0].ProviderInstance)
	if err != nil {
		return nil, nil, nil, provider.NewProviderUnavailable(playlist.ProviderMappings[0].ProviderInstance, "playlist owner offline", err)
	}
	if !owner.Capabilities().Has(provider.CapabilityPlaylistTracksEdit) {
		return nil, nil, nil, provider.NewUnsupportedFeature(owner.InstanceID(), provider.CapabilityPlaylistTracksEdit)
	}
	editor, ok := owner.(PlaylistTrackEditor)
	if !ok {
		return nil, nil, nil, provider.NewUnsupportedFeature(owner.InstanceID(), provider.CapabilityPlaylistTracksEdit)
	}
	return playlist, owner, editor, nil
}

// resolveForProvider maps a canonical track URI onto the highest-quality
// mapping the target playlist's provider holds for that track; unknown
// tracks fall through with the original URI.
func (e *PlaylistEditor) resolveForProvider(ctx context.Context, uri string, target provider.Provider) string {
	parsed, err := models.ParseURI(uri)
	if err != nil || parsed.MediaType != models.MediaTypeTrack {
		return uri
	}
	track, err := e.tracks.repo.GetByProviderMapping(ctx, parsed.Provider, parsed.ItemID)
	if err != nil {
		return uri
	}
	var best *models.ProviderMapping
	for i, m := range track.ProviderMappings {
		if m.ProviderInstance != target.InstanceID() && m.ProviderDomain != target.Domain() {
			continue
		}
		if !m.Available {
			continue
		}
		if best == nil || m.QualityScore() > best.QualityScore() {
			best = &track.ProviderMappings[i]
		}
	}
	if best == nil {
		return uri
	}
	return fmt.Sprintf("%s://%s/%s", models.MediaTypeTrack, best.ProviderInstance, best.ItemID)
}

func (e *PlaylistEditor) bumpChecksum(ctx context.Context, playlist *models.Playlist) error {
	playlist.Checksum = fmt.Sprintf("%d", time.Now().UnixNano())
	if e.cache != nil {
		// Key by the owning mapping, the same identity PlaylistTracks
		// caches under.
		owner := playlist.ProviderMappings[0]
		key := playlistTracksCacheKey(owner.ProviderInstance, owner.ItemID)
		if err := e.cache.Delete(ctx, key); err != nil {
			e.logger.Warn("playlist track cache invalidation failed", zap.Error(err))
		}
	}
	return e.playlists.repo.Update(ctx, playlist)
}
