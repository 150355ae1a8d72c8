package sync

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"harmonia/internal/media"
	"harmonia/internal/models"
	"harmonia/internal/provider"
)

// matchQueueDepth bounds pending match jobs; the hook runs inside the
// controller's add critical section, so it must never block.
const matchQueueDepth = 256

type matchJob struct {
	fingerprint string
	run         func(ctx context.Context)
}

// Matcher runs cross-provider match jobs posted by controller adds.
// Per-fingerprint singleflight prevents duplicate concurrent work on the
// same entity.
type Matcher struct {
	engine *Engine
	jobs   chan matchJob
	group  singleflight.Group

	mu       sync.Mutex
	inFlight map[string]struct{} // fingerprints with a job queued or running
}

func newMatcher(e *Engine) *Matcher {
	return &Matcher{
		engine:   e,
		jobs:     make(chan matchJob, matchQueueDepth),
		inFlight: make(map[string]struct{}),
	}
}

func (m *Matcher) start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-m.jobs:
				m.group.Do(job.fingerprint, func() (interface{}, error) {
					job.run(ctx)
					return nil, nil
				})
				// Release once the job ran so a later add of the same
				// entity (new provider registered, metadata refresh)
				// can post a fresh match job. The claim only dedups
				// concurrent work, it is not a one-shot latch.
				m.release(job.fingerprint)
			}
		}
	}()
}

// enqueueTrack posts a match job for a just-added track. Called from inside
// the track controller's add critical section, so it only enqueues.
func (m *Matcher) enqueueTrack(track *models.Track) {
	fp := fingerprint(models.MediaTypeTrack, track.SortName, firstArtist(track.Artists))
	if !m.claim(fp) {
		return
	}
	select {
	case m.jobs <- matchJob{fingerprint: fp, run: func(ctx context.Context) { m.matchTrack(ctx, track) }}:
	default:
		m.release(fp)
		m.engine.logger.Warn("match queue full, dropping job", zap.String("fingerprint", fp))
	}
}

// enqueueAlbum posts a match job for a just-added album.
func (m *Matcher) enqueueAlbum(album *models.Album) {
	fp := fingerprint(models.MediaTypeAlbum, album.SortName, firstArtist(album.Artists))
	if !m.claim(fp) {
		return
	}
	select {
	case m.jobs <- matchJob{fingerprint: fp, run: func(ctx context.Context) { m.matchAlbum(ctx, album) }}:
	default:
		m.release(fp)
		m.engine.logger.Warn("match queue full, dropping job", zap.String("fingerprint", fp))
	}
}

func (m *Matcher) claim(fp string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.inFlight[fp]; exists {
		return false
	}
	m.inFlight[fp] = struct{}{}
	return true
}

func (m *Matcher) release(fp string) {
	m.mu.Lock()
	delete(m.inFlight, fp)
	m.mu.Unlock()
}

// matchTrack searches every provider that does not yet hold a mapping for
// the track, strict pass first then loose, folding accepted hits back
// through get with the suppression flag set so the re-entrant add cannot
// recurse into another match job.
func (m *Matcher) matchTrack(ctx context.Context, track *models.Track) {
	mapped := mappedInstances(track.ProviderMappings)
	query := matchQuery(firstArtist(track.Artists), track.Name, track.Version)

	for _, p := range m.engine.registry.ProvidersSupporting(provider.CapabilitySearch) {
		if _, has := mapped[p.InstanceID()]; has {
			continue
		}
		results, err := p.Search(ctx, query, []models.MediaType{models.MediaTypeTrack}, 10)
		if err != nil {
			m.engine.logger.Debug("match search failed", zap.String("provider", p.InstanceID()), zap.Error(err))
			continue
		}

		hit := pickTrack(track, results.Tracks, media.StrictCompareTracks)
		if hit == nil {
			hit = pickTrack(track, results.Tracks, media.CompareTracks)
		}
		if hit == nil {
			continue
		}
		if _, err := m.engine.lib.Tracks.Get(ctx, hit.ItemID, p.InstanceID(),
			media.GetOptions{Details: hit, SuppressMatch: true}); err != nil {
			m.engine.logger.Warn("match fold-back failed", zap.String("provider", p.InstanceID()), zap.Error(err))
		}
	}
}

func (m *Matcher) matchAlbum(ctx context.Context, album *models.Album) {
	mapped := mappedInstances(album.ProviderMappings)
	query := matchQuery(firstArtist(album.Artists), album.Name, album.Version)

	for _, p := range m.engine.registry.ProvidersSupporting(provider.CapabilitySearch) {
		if _, has := mapped[p.InstanceID()]; has {
			continue
		}
		results, err := p.Search(ctx, query, []models.MediaType{models.MediaTypeAlbum}, 10)
		if err != nil {
			continue
		}
		for _, hit := range results.Albums {
			if !media.LooseMatch(hit.Name, album.Name) || !media.ArtistsIntersect(hit.Artists, album.Artists) {
				continue
			}
			if _, err := m.engine.lib.Albums.Get(ctx, hit.ItemID, p.InstanceID(),
				media.GetOptions{Details: hit, SuppressMatch: true}); err != nil {
				m.engine.logger.Warn("match fold-back failed", zap.String("provider", p.InstanceID()), zap.Error(err))
			}
			break
		}
	}
}

func pickTrack(base *models.Track, hits []*models.Track, accept func(a, b *models.Track) bool) *models.Track {
	for _, hit := range hits {
		if accept(base, hit) {
			return hit
		}
	}
	return nil
}

func mappedInstances(set models.ProviderMappingSet) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for _, pm := range set {
		out[pm.ProviderInstance] = struct{}{}
	}
	return out
}

func matchQuery(artist, name, version string) string {
	var b strings.Builder
	if artist != "" {
		b.WriteString(artist)
		b.WriteString(" - ")
	}
	b.WriteString(name)
	if version != "" {
		b.WriteString(", ")
		b.WriteString(version)
	}
	return b.String()
}

func fingerprint(mt models.MediaType, sortName, artist string) string {
	return string(mt) + ":" + sortName + ":" + strings.ToLower(artist)
}

func firstArtist(artists models.ItemMappingList) string {
	if len(artists) == 0 {
		return ""
	}
	return artists[0].Name
}
