package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"harmonia/internal/cache"
	"harmonia/internal/database"
	"harmonia/internal/eventbus"
	"harmonia/internal/models"
	"harmonia/internal/provider"
)

// refreshInterval is the staleness window before Get re-fetches from the
// provider instead of trusting the stored row.
const refreshInterval = 30 * 24 * time.Hour

// MatchFunc resolves a just-fetched provider item against existing DB
// rows: by musicbrainz id, then isrc/upc, then sort_name plus an
// entity-specific fuzzy compare. It returns the matched row (for merging)
// or !found for insert.
type MatchFunc[T models.MediaItem] func(ctx context.Context, repo *database.Repository[T], candidate T) (existing T, found bool, err error)

// MergeFunc folds a freshly fetched provider item into an existing DB row:
// merge metadata, union provider mappings, union artists/albums lists,
// extend the isrc set. It mutates and returns target.
type MergeFunc[T models.MediaItem] func(target, incoming T) T

// FetchFunc retrieves one full entity from a provider by its provider-scoped id.
type FetchFunc[T models.MediaItem] func(ctx context.Context, p provider.Provider, itemID string) (T, error)

// Controller is the generic per-entity library controller: CRUD plus
// cross-provider dedup/match, generalised over the MediaItem variant so the
// add()/get() critical-section algorithm is written once.
type Controller[T models.MediaItem] struct {
	repo      *database.Repository[T]
	mediaType models.MediaType
	registry  *provider.Registry
	bus       eventbus.Bus
	cache     *cache.Cache
	logger    *zap.Logger

	match MatchFunc[T]
	merge MergeFunc[T]
	fetch FetchFunc[T]

	// matchHook, when set, receives every entity Add writes unless the
	// caller suppressed matching (the re-entrant fold-back path). The
	// sync engine installs it to post cross-provider match jobs.
	matchHook func(T)

	dbAddLock sync.Mutex
}

// SetMatchHook installs the cross-provider match-job hook invoked after
// every non-suppressed Add.
func (c *Controller[T]) SetMatchHook(hook func(T)) { c.matchHook = hook }

// Config bundles a Controller's constructor dependencies.
type Config[T models.MediaItem] struct {
	Repo      *database.Repository[T]
	MediaType models.MediaType
	Registry  *provider.Registry
	Bus       eventbus.Bus
	Cache     *cache.Cache
	Logger    *zap.Logger
	Match     MatchFunc[T]
	Merge     MergeFunc[T]
	Fetch     FetchFunc[T]
}

// NewController builds a Controller from Config.
func NewController[T models.MediaItem](cfg Config[T]) *Controller[T] {
	return &Controller[T]{
		repo: cfg.Repo, mediaType: cfg.MediaType, registry: cfg.Registry,
		bus: cfg.Bus, cache: cfg.Cache, logger: cfg.Logger,
		match: cfg.Match, merge: cfg.Merge, fetch: cfg.Fetch,
	}
}

// GetOptions controls get()'s resolution behaviour.
type GetOptions struct {
	ForceRefresh  bool
	Lazy          bool
	AddToDB       bool
	SuppressMatch bool             // re-entrant fold-back from a match job
	Details       models.MediaItem // pre-fetched provider entity, if already known
}

// Get implements the controller's get() resolution order:
// a "database" provider means "return the DB row directly"; otherwise it
// looks up an existing mapping, trusts it unless stale or force-refreshed,
// and otherwise fetches from the provider and writes through add().
func (c *Controller[T]) Get(ctx context.Context, itemID, providerID string, opts GetOptions) (T, error) {
	var zero T

	if providerID == "database" {
		return c.repo.GetByID(ctx, mustParseID(itemID))
	}

	existing, err := c.repo.GetByProviderMapping(ctx, providerID, itemID)
	if err == nil {
		lastRefresh := existing.Base().Metadata.LastRefresh
		fresh := lastRefresh != 0 && time.Since(time.Unix(lastRefresh, 0)) <= refreshInterval
		if fresh && !opts.ForceRefresh {
			return existing, nil
		}
	}

	var fetched T
	if opts.Details != nil {
		var ok bool
		fetched, ok = opts.Details.(T)
		if !ok {
			return zero, fmt.Errorf("media: details type mismatch for %s", c.mediaType)
		}
	} else {
		p, err := c.registry.Get(providerID)
		if err != nil {
			return zero, provider.NewMediaNotFound(providerID, err.Error())
		}
		fetched, err = c.fetch(ctx, p, itemID)
		if err != nil {
			return zero, err
		}
	}

	if opts.Lazy {
		go func() {
			bg := context.Background()
			if _, err := c.Add(bg, fetched, opts.SuppressMatch); err != nil {
				c.logger.Warn("background add failed", zap.String("media_type", string(c.mediaType)), zap.Error(err))
			}
		}()
		return fetched, nil
	}

	return c.Add(ctx, fetched, opts.SuppressMatch)
}

// Add deduplicates one provider item into a canonical row, serialised
// per-controller via dbAddLock across match -> insert/update ->
// mapping-index rewrite, so racing adds can neither create duplicate rows
// nor leave the mapping index stale. suppressMatch prevents posting a
// cross-provider match job, breaking the recursion a match fold-back
// would otherwise cause.
func (c *Controller[T]) Add(ctx context.Context, item T, suppressMatch bool) (T, error) {
	var zero T

	c.dbAddLock.Lock()
	defer c.dbAddLock.Unlock()

	base := item.Base()
	base.EnsureDerived(c.mediaType)
	base.Metadata.LastRefresh = time.Now().Unix()

	existing, found, err := c.match(ctx, c.repo, item)
	if err != nil {
		return zero, fmt.Errorf("media: match %s: %w", c.mediaType, err)
	}

	var result T
	var topic eventbus.Topic
	if found {
		merged := c.merge(existing, item)
		if err := c.repo.Update(ctx, merged); err != nil {
			return zero, err
		}
		result = merged
		topic = eventbus.TopicMediaItemUpdated
	} else {
		id, err := c.repo.Create(ctx, item)
		if err != nil {
			return zero, err
		}
		item.Base().DBID = id
		result = item
		topic = eventbus.TopicMediaItemAdded
	}

	if c.bus != nil {
		c.bus.Publish(eventbus.Event{Topic: topic, Payload: result})
	}

	if !suppressMatch && c.matchHook != nil {
		c.matchHook(result)
	}

	return result, nil
}

// Delete removes the row and its mapping index rows .
// Controllers with child references (tracks on an album, episodes on a
// podcast) override cascading behaviour at a higher layer; this method does
// not cascade by default.
func (c *Controller[T]) Delete(ctx context.Context, dbID int64) error {
	if err := c.repo.Delete(ctx, dbID); err != nil {
		return err
	}
	c.bus.Publish(eventbus.Event{Topic: eventbus.TopicMediaItemDeleted, Payload: dbID})
	return nil
}

// RemoveProviderMapping removes only the mappings belonging to
// providerInstance; an entity that loses its last mapping is deleted,
// since nothing can play it anymore.
func (c *Controller[T]) RemoveProviderMapping(ctx context.Context, dbID int64, providerInstance string) error {
	item, err := c.repo.GetByID(ctx, dbID)
	if err != nil {
		return err
	}
	base := item.Base()
	base.ProviderMappings.Remove(providerInstance)

	if !base.ProviderMappings.Available() && len(base.ProviderMappings) == 0 {
		return c.Delete(ctx, dbID)
	}
	return c.repo.Update(ctx, item)
}

// LibraryAdd marks the entity favourited, flipping in_library and asking
// every registered provider that holds a mapping and supports library edit
// for this media type to also favourite it.
func (c *Controller[T]) LibraryAdd(ctx context.Context, dbID int64) error {
	return c.setLibrary(ctx, dbID, true)
}

// LibraryRemove un-favourites the entity .
func (c *Controller[T]) LibraryRemove(ctx context.Context, dbID int64) error {
	return c.setLibrary(ctx, dbID, false)
}

func (c *Controller[T]) setLibrary(ctx context.Context, dbID int64, inLibrary bool) error {
	item, err := c.repo.GetByID(ctx, dbID)
	if err != nil {
		return err
	}
	base := item.Base()
	base.InLibrary = inLibrary

	for _, m := range base.ProviderMappings {
		p, err := c.registry.Get(m.ProviderInstance)
		if err != nil {
			continue
		}
		if !p.Capabilities().Has(libraryEditCapability(c.mediaType)) {
			continue
		}
		var editErr error
		if inLibrary {
			_, editErr = p.LibraryAdd(ctx, m.ItemID, c.mediaType)
		} else {
			_, editErr = p.LibraryRemove(ctx, m.ItemID, c.mediaType)
		}
		if editErr != nil {
			c.logger.Warn("library edit failed", zap.String("provider", m.ProviderInstance), zap.Error(editErr))
		}
	}

	if err := c.repo.Update(ctx, item); err != nil {
		return err
	}
	c.bus.Publish(eventbus.Event{Topic: eventbus.TopicMediaItemUpdated, Payload: item})
	return nil
}

func libraryEditCapability(mt models.MediaType) provider.Capability {
	switch mt {
	case models.MediaTypeArtist:
		return provider.CapabilityLibraryArtistsEdit
	case models.MediaTypeAlbum:
		return provider.CapabilityLibraryAlbumsEdit
	default:
		return provider.CapabilityLibraryTracksEdit
	}
}

func mustParseID(s string) int64 {
	var id int64
	fmt.Sscanf(s, "%d", &id)
	return id
}
