// Package sync reconciles each provider's remote library with the local
// canonical copy on a fixed interval, one job per (provider instance,
// entity type) with at most one job running per tag. Jobs are goroutines
// tracked by a WaitGroup and stopped through context cancellation, with a
// mutex-guarded running set enforcing the tag rule.
package sync

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"harmonia/internal/database"
	"harmonia/internal/eventbus"
	"harmonia/internal/media"
	"harmonia/internal/metrics"
	"harmonia/internal/models"
	"harmonia/internal/provider"
	"harmonia/pkg/lazy"
)

// DefaultInterval is how often a full sync pass runs.
const DefaultInterval = 3 * time.Hour

// JobStatus is the MUSIC_SYNC_STATUS payload: the snapshot of running jobs
// at the moment a job starts or finishes.
type JobStatus struct {
	JobID    string   `json:"job_id"`
	Tag      string   `json:"tag"`
	Finished bool     `json:"finished"`
	Running  []string `json:"running"`
}

// Engine owns the periodic per-provider sync loop.
type Engine struct {
	lib      *media.Library
	registry *provider.Registry
	bus      eventbus.Bus
	logger   *zap.Logger
	interval time.Duration

	mu      sync.Mutex
	running map[string]string // tag -> job id

	wg     sync.WaitGroup
	cancel context.CancelFunc

	matcher *Matcher
}

// NewEngine builds the sync engine and installs the cross-provider match
// hooks on the track and album controllers.
func NewEngine(lib *media.Library, registry *provider.Registry, bus eventbus.Bus, logger *zap.Logger, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	e := &Engine{
		lib: lib, registry: registry, bus: bus, logger: logger,
		interval: interval,
		running:  make(map[string]string),
	}
	e.matcher = newMatcher(e)
	lib.Tracks.SetMatchHook(e.matcher.enqueueTrack)
	lib.Albums.SetMatchHook(e.matcher.enqueueAlbum)
	return e
}

// Start launches the periodic loop plus the match worker. Stop unwinds both.
func (e *Engine) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	e.matcher.start(ctx, &e.wg)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.SyncAll(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for in-flight jobs to drain.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

// SyncAll launches one sync job per (provider, supported entity type).
func (e *Engine) SyncAll(ctx context.Context) {
	for _, p := range e.registry.All() {
		e.SyncProvider(ctx, p)
	}
}

// SyncProvider launches the per-entity jobs one provider instance supports.
func (e *Engine) SyncProvider(ctx context.Context, p provider.Provider) {
	caps := p.Capabilities()
	if caps.Has(provider.CapabilityLibraryArtists) {
		launchJob(e, ctx, p, "artists", e.lib.Artists, p.GetLibraryArtists)
	}
	if caps.Has(provider.CapabilityLibraryAlbums) {
		launchJob(e, ctx, p, "albums", e.lib.Albums, p.GetLibraryAlbums)
	}
	if caps.Has(provider.CapabilityLibraryTracks) {
		launchJob(e, ctx, p, "tracks", e.lib.Tracks, p.GetLibraryTracks)
	}
	if caps.Has(provider.CapabilityLibraryPlaylists) {
		launchJob(e, ctx, p, "playlists", e.lib.Playlists, p.GetLibraryPlaylists)
	}
	if caps.Has(provider.CapabilityLibraryRadios) {
		launchJob(e, ctx, p, "radios", e.lib.Radios, p.GetLibraryRadios)
	}
	if caps.Has(provider.CapabilityLibraryAudiobooks) {
		launchJob(e, ctx, p, "audiobooks", e.lib.Audiobooks, p.GetLibraryAudiobooks)
	}
	if caps.Has(provider.CapabilityLibraryPodcasts) {
		launchJob(e, ctx, p, "podcasts", e.lib.Podcasts, p.GetLibraryPodcasts)
	}
}

// RunningJobs returns the sorted tags of currently running jobs.
func (e *Engine) RunningJobs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.running))
	for tag := range e.running {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// tryStart claims a job tag, enforcing the at-most-one rule. A
// duplicate launch returns ok=false and must be dropped by the caller.
func (e *Engine) tryStart(tag string) (jobID string, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.running[tag]; exists {
		return "", false
	}
	jobID = uuid.NewString()
	e.running[tag] = jobID
	return jobID, true
}

func (e *Engine) finish(tag string) {
	e.mu.Lock()
	delete(e.running, tag)
	e.mu.Unlock()
}

func (e *Engine) publishStatus(jobID, tag string, finished bool) {
	e.bus.Publish(eventbus.Event{
		Topic: eventbus.TopicMusicSyncStatus,
		Payload: JobStatus{
			JobID: jobID, Tag: tag, Finished: finished, Running: e.RunningJobs(),
		},
	})
}

// launchJob spawns one tagged reconciliation job unless one with the same
// tag is already running. It is a free function because Go methods cannot
// carry their own type parameters.
func launchJob[T models.MediaItem](e *Engine, ctx context.Context, p provider.Provider, entity string,
	ctrl *media.Controller[T], list func(ctx context.Context) (*lazy.Seq[T], error)) {

	tag := p.InstanceID() + ":" + entity
	jobID, ok := e.tryStart(tag)
	if !ok {
		e.logger.Info("sync job already running, dropped", zap.String("tag", tag))
		return
	}

	e.wg.Add(1)
	go func() {
		started := time.Now()
		defer e.wg.Done()
		defer func() {
			e.finish(tag)
			e.publishStatus(jobID, tag, true)
			metrics.SyncJobDuration.WithLabelValues(p.Domain(), entity).Observe(time.Since(started).Seconds())
		}()
		e.publishStatus(jobID, tag, false)

		if err := runJob(e, ctx, p, ctrl, list); err != nil {
			e.logger.Warn("sync job failed", zap.String("tag", tag), zap.Error(err))
		}
	}()
}

// runJob is the per-job reconciliation: snapshot the previously
// in-library ids, stream the provider listing writing each item through
// the controller, then provider-locally un-library everything the listing
// no longer contains.
func runJob[T models.MediaItem](e *Engine, ctx context.Context, p provider.Provider,
	ctrl *media.Controller[T], list func(ctx context.Context) (*lazy.Seq[T], error)) error {

	prev, err := ctrl.Repo().InLibraryItemIDs(ctx, p.InstanceID())
	if err != nil {
		return err
	}

	seq, err := list(ctx)
	if err != nil {
		return err
	}

	cur := make(map[int64]struct{})
	err = seq.ForEach(func(item T) error {
		item.Base().InLibrary = true
		dbItem, err := ctrl.Get(ctx, item.Base().ItemID, p.InstanceID(), media.GetOptions{Details: item})
		if err != nil {
			// One item failing must not fail the whole job.
			e.logger.Warn("sync item write failed",
				zap.String("provider", p.InstanceID()),
				zap.String("item_id", item.Base().ItemID),
				zap.Error(err))
			return nil
		}
		base := dbItem.Base()
		if !base.InLibrary {
			base.InLibrary = true
			if err := ctrl.Repo().Update(ctx, dbItem); err != nil {
				return err
			}
		}
		cur[base.DBID] = struct{}{}
		return nil
	}, func() bool { return ctx.Err() != nil })
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// prev \ cur: gone from the remote library; flip the local flag only,
	// never touching the remote side.
	for dbID := range prev {
		if _, still := cur[dbID]; still {
			continue
		}
		if err := localLibraryRemove(ctx, ctrl.Repo(), dbID); err != nil {
			e.logger.Warn("sync library remove failed", zap.Int64("db_id", dbID), zap.Error(err))
		}
	}
	return nil
}

func localLibraryRemove[T models.MediaItem](ctx context.Context, repo *database.Repository[T], dbID int64) error {
	item, err := repo.GetByID(ctx, dbID)
	if err != nil {
		return err
	}
	item.Base().InLibrary = false
	return repo.Update(ctx, item)
}
