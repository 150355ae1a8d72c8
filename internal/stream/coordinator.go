// Package stream resolves a queue item into StreamDetails: pick the best
// available provider mapping, compute replay-gain correction from the
// loudness table, and mint the per-item transport URL the external stream
// endpoint serves.
package stream

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"harmonia/internal/config"
	"harmonia/internal/database"
	"harmonia/internal/metrics"
	"harmonia/internal/models"
	"harmonia/internal/provider"
)

// detailsTTL is how long a resolved StreamDetails stays retrievable by the
// stream endpoint before it must be re-resolved.
const detailsTTL = 4 * time.Hour

// Coordinator picks provider mappings and owns the queue-item ->
// StreamDetails registry the stream endpoint reads from.
type Coordinator struct {
	registry *provider.Registry
	loudness *database.LoudnessStore
	cfg      config.StreamConfig
	logger   *zap.Logger

	mu      sync.Mutex
	details map[string]*models.StreamDetails // queue_item_id -> resolved details
}

// NewCoordinator builds a Coordinator.
func NewCoordinator(registry *provider.Registry, loudness *database.LoudnessStore, cfg config.StreamConfig, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		registry: registry, loudness: loudness, cfg: cfg, logger: logger,
		details: make(map[string]*models.StreamDetails),
	}
}

// Resolve chooses a mapping for the queue item's track and returns the
// populated StreamDetails plus the transport URL the player should
// fetch.
func (c *Coordinator) Resolve(ctx context.Context, playerID string, item models.QueueItem, mappings models.ProviderMappingSet) (*models.StreamDetails, string, error) {
	details, err := c.selectMapping(ctx, item, mappings)
	if err != nil {
		return nil, "", err
	}

	details.QueueID = item.QueueItemID
	if details.Expires == 0 {
		details.Expires = time.Now().Add(detailsTTL).Unix()
	}
	details.GainCorrect = c.gainCorrect(ctx, details)

	c.mu.Lock()
	c.details[item.QueueItemID] = details
	c.mu.Unlock()

	metrics.StreamsStarted.WithLabelValues(details.Provider).Inc()

	url := fmt.Sprintf("http://%s:%d/stream/%s/%s", c.cfg.Host, c.cfg.Port, playerID, item.QueueItemID)
	return details, url, nil
}

// Details returns the stored StreamDetails for a queue item id, consumed
// by the external stream endpoint when the player fetches its audio.
func (c *Coordinator) Details(queueItemID string) (*models.StreamDetails, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.details[queueItemID]
	if !ok {
		return nil, false
	}
	if d.Expires != 0 && time.Now().Unix() > d.Expires {
		delete(c.details, queueItemID)
		return nil, false
	}
	return d, true
}

// Forget drops a queue item's stored details once its playback finished.
func (c *Coordinator) Forget(queueItemID string) {
	c.mu.Lock()
	delete(c.details, queueItemID)
	c.mu.Unlock()
}

// selectMapping implements the §4.4 ranking: available mappings only,
// prefer-file tier before the rest, quality score within each tier,
// instance-id lexicographic tie break, first provider that actually
// returns stream details wins.
func (c *Coordinator) selectMapping(ctx context.Context, item models.QueueItem, mappings models.ProviderMappingSet) (*models.StreamDetails, error) {
	ranked := RankMappings(mappings)
	if len(ranked) == 0 {
		return nil, provider.NewMediaNotFound("", fmt.Sprintf("no available mapping for %s", item.MediaItemRef.URI))
	}

	var lastErr error
	for _, m := range ranked {
		p, err := c.registry.Get(m.ProviderInstance)
		if err != nil {
			continue
		}
		callCtx, cancel := provider.WithDeadline(ctx)
		details, err := p.GetStreamDetails(callCtx, m.ItemID, item.MediaItemRef.MediaType)
		cancel()
		if err != nil {
			c.logger.Warn("stream details failed, trying next mapping",
				zap.String("provider", m.ProviderInstance), zap.Error(err))
			lastErr = err
			continue
		}
		if details.Provider == "" {
			details.Provider = m.ProviderInstance
		}
		return details, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, provider.NewMediaNotFound("", fmt.Sprintf("no provider could stream %s", item.MediaItemRef.URI))
}

// RankMappings orders mappings per the two-tier quality ranking; it ranks
// without resolving, and selectMapping walks the result in order.
func RankMappings(mappings models.ProviderMappingSet) []models.ProviderMapping {
	var ranked []models.ProviderMapping
	for _, m := range mappings {
		if m.Available {
			ranked = append(ranked, m)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.PreferFile() != b.PreferFile() {
			return a.PreferFile()
		}
		if a.QualityScore() != b.QualityScore() {
			return a.QualityScore() > b.QualityScore()
		}
		return a.ProviderInstance < b.ProviderInstance
	})
	return ranked
}

// gainCorrect computes the replay-gain correction: zero when
// normalisation is off, target minus observed loudness when the
// loudness table holds an observation, else the configured fallback.
func (c *Coordinator) gainCorrect(ctx context.Context, details *models.StreamDetails) float64 {
	if !c.cfg.NormalizationEnabled {
		return 0
	}
	loudness, ok, err := c.loudness.Get(ctx, details.Provider, details.ItemID)
	if err != nil {
		c.logger.Warn("loudness lookup failed", zap.Error(err))
		return c.cfg.FallbackGain
	}
	if !ok {
		return c.cfg.FallbackGain
	}
	details.Loudness = &loudness
	return math.Round((c.cfg.TargetVolumeLUFS-loudness)*100) / 100
}

// ReportLoudness records a loudness observation from the decode pipeline at
// stream end, feeding future gain computations.
func (c *Coordinator) ReportLoudness(ctx context.Context, providerID, itemID string, loudnessLUFS float64) error {
	return c.loudness.Set(ctx, providerID, itemID, loudnessLUFS)
}

// ReportStreamed accumulates seconds_streamed on the stored details and
// notifies the owning provider's played callback on every report, passing
// the accumulated seconds and whether the item completed.
func (c *Coordinator) ReportStreamed(ctx context.Context, queueItemID string, seconds float64, fullyPlayed bool) {
	c.mu.Lock()
	d, ok := c.details[queueItemID]
	if ok {
		d.SecondsStreamed += seconds
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	p, err := c.registry.Get(d.Provider)
	if err != nil {
		return
	}
	if err := p.OnPlayed(ctx, d.MediaType, d.ItemID, fullyPlayed, d.SecondsStreamed); err != nil {
		c.logger.Debug("played callback failed", zap.String("provider", d.Provider), zap.Error(err))
	}
}
