package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"harmonia/internal/eventbus"
	"harmonia/internal/metrics"
	"harmonia/internal/models"
	"harmonia/internal/queue"
)

// pollInterval is the base tick of the poll loop; players not in PLAYING
// refresh every pollEvery ticks.
const (
	pollInterval = 1 * time.Second
	pollEvery    = 10
)

// Manager owns the player roster and command dispatch.
type Manager struct {
	queues *queue.Manager
	bus    eventbus.Bus
	logger *zap.Logger

	mu       sync.RWMutex
	players  map[string]*models.Player
	drivers  map[string]Driver  // provider id -> driver
	controls map[string]Control // control id -> control

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewManager builds the player manager and installs the queue->player
// hooks so queue transitions drive the underlying devices.
func NewManager(queues *queue.Manager, bus eventbus.Bus, logger *zap.Logger) *Manager {
	m := &Manager{
		queues:   queues,
		bus:      bus,
		logger:   logger,
		players:  make(map[string]*models.Player),
		drivers:  make(map[string]Driver),
		controls: make(map[string]Control),
	}
	queues.SetPlayerHooks(queue.PlayerHooks{
		Play: m.playURL,
		Stop: m.Stop,
	})
	return m
}

// RegisterDriver attaches a provider's player driver.
func (m *Manager) RegisterDriver(d Driver) {
	m.mu.Lock()
	m.drivers[d.ProviderID()] = d
	m.mu.Unlock()
}

// RegisterControl attaches an external power/volume control; its readings
// override the driver-reported state on the next update.
func (m *Manager) RegisterControl(c Control) {
	m.mu.Lock()
	m.controls[c.ID] = c
	m.mu.Unlock()
	m.bus.Publish(eventbus.Event{Topic: eventbus.TopicPlayerControlRegistered, Payload: c.ID})
}

// AddPlayer registers a player, creating its queue on first sight and
// emitting PLAYER_ADDED.
func (m *Manager) AddPlayer(p models.Player) {
	p.ClampVolume()
	m.mu.Lock()
	_, existed := m.players[p.PlayerID]
	m.applyControlOverridesLocked(&p)
	m.players[p.PlayerID] = &p
	m.mu.Unlock()

	m.queues.Get(p.PlayerID)
	metrics.PlayersRegistered.Set(float64(m.Count()))

	topic := eventbus.TopicPlayerAdded
	if existed {
		topic = eventbus.TopicPlayerChanged
	}
	m.bus.Publish(eventbus.Event{Topic: topic, Payload: p})
}

// UpdatePlayer recomputes a player's derived state from a fresh driver
// report and emits PLAYER_CHANGED.
func (m *Manager) UpdatePlayer(p models.Player) {
	p.ClampVolume()
	m.mu.Lock()
	existing, ok := m.players[p.PlayerID]
	if ok {
		// A powered-off player's elapsed_time is frozen.
		if existing.State == models.PlayerStateOff {
			p.ElapsedTime = existing.ElapsedTime
		}
	}
	m.applyControlOverridesLocked(&p)
	m.players[p.PlayerID] = &p
	m.mu.Unlock()

	m.bus.Publish(eventbus.Event{Topic: eventbus.TopicPlayerChanged, Payload: p})
}

// RemovePlayer drops a player and its queue, emitting PLAYER_REMOVED.
func (m *Manager) RemovePlayer(playerID string) {
	m.mu.Lock()
	delete(m.players, playerID)
	m.mu.Unlock()
	m.queues.Remove(playerID)
	metrics.PlayersRegistered.Set(float64(m.Count()))
	m.bus.Publish(eventbus.Event{Topic: eventbus.TopicPlayerRemoved, Payload: playerID})
}

// Get returns a copy of the player state.
func (m *Manager) Get(playerID string) (models.Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[playerID]
	if !ok {
		return models.Player{}, false
	}
	return *p, true
}

// All returns a copy of every registered player.
func (m *Manager) All() []models.Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, *p)
	}
	return out
}

// Count returns the roster size.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// Queue returns the player's queue.
func (m *Manager) Queue(playerID string) *queue.Queue {
	return m.queues.Get(playerID)
}

func (m *Manager) applyControlOverridesLocked(p *models.Player) {
	for _, c := range m.controls {
		if c.PlayerID != p.PlayerID {
			continue
		}
		if c.GetPower != nil {
			p.Powered = c.GetPower()
			if !p.Powered {
				p.State = models.PlayerStateOff
			}
		}
		if c.GetVolume != nil {
			p.VolumeLevel = c.GetVolume()
			p.ClampVolume()
		}
	}
}

// driverFor returns the driver for an available player; unavailable
// players degrade every command to a no-op.
func (m *Manager) driverFor(playerID string) (Driver, *models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[playerID]
	if !ok {
		return nil, nil, fmt.Errorf("player: unknown player %q", playerID)
	}
	if !p.Available {
		return nil, p, nil
	}
	d, ok := m.drivers[p.ProviderID]
	if !ok {
		return nil, p, nil
	}
	return d, p, nil
}

func (m *Manager) playURL(ctx context.Context, playerID, streamURL string) error {
	d, p, err := m.driverFor(playerID)
	if err != nil || d == nil {
		return err
	}
	if err := d.Play(ctx, playerID, streamURL); err != nil {
		return err
	}
	p2 := *p
	p2.State = models.PlayerStatePlaying
	p2.CurrentURL = streamURL
	m.UpdatePlayer(p2)
	return nil
}

// Play resumes the player's queue.
func (m *Manager) Play(ctx context.Context, playerID string) error {
	m.mu.RLock()
	p, ok := m.players[playerID]
	var state models.PlayerState
	if ok {
		state = p.State
	}
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("player: unknown player %q", playerID)
	}

	if state == models.PlayerStatePaused {
		d, pl, err := m.driverFor(playerID)
		if err != nil || d == nil {
			return err
		}
		if err := d.Play(ctx, playerID, pl.CurrentURL); err != nil {
			return err
		}
		p2 := *pl
		p2.State = models.PlayerStatePlaying
		m.UpdatePlayer(p2)
		return nil
	}
	return m.queues.Get(playerID).Resume(ctx)
}

// Pause pauses playback.
func (m *Manager) Pause(ctx context.Context, playerID string) error {
	d, p, err := m.driverFor(playerID)
	if err != nil || d == nil {
		return err
	}
	if err := d.Pause(ctx, playerID); err != nil {
		return err
	}
	p2 := *p
	p2.State = models.PlayerStatePaused
	m.UpdatePlayer(p2)
	return nil
}

// PlayPause toggles between PLAYING and PAUSED.
func (m *Manager) PlayPause(ctx context.Context, playerID string) error {
	p, ok := m.Get(playerID)
	if !ok {
		return fmt.Errorf("player: unknown player %q", playerID)
	}
	if p.State == models.PlayerStatePlaying {
		return m.Pause(ctx, playerID)
	}
	return m.Play(ctx, playerID)
}

// Stop halts playback and returns the player to IDLE.
func (m *Manager) Stop(ctx context.Context, playerID string) error {
	d, p, err := m.driverFor(playerID)
	if err != nil || d == nil {
		return err
	}
	if err := d.Stop(ctx, playerID); err != nil {
		return err
	}
	p2 := *p
	p2.State = models.PlayerStateIdle
	p2.CurrentURL = ""
	m.UpdatePlayer(p2)
	return nil
}

// Next advances the player's queue.
func (m *Manager) Next(ctx context.Context, playerID string) error {
	return m.queues.Get(playerID).Next(ctx)
}

// Previous steps the player's queue back.
func (m *Manager) Previous(ctx context.Context, playerID string) error {
	return m.queues.Get(playerID).Previous(ctx)
}

// PowerOn powers the player (or its control override) on; group players
// cascade to their children.
func (m *Manager) PowerOn(ctx context.Context, playerID string) error {
	return m.setPower(ctx, playerID, true)
}

// PowerOff powers the player off, freezing its queue and elapsed time;
// group players cascade to their children.
func (m *Manager) PowerOff(ctx context.Context, playerID string) error {
	return m.setPower(ctx, playerID, false)
}

// PowerToggle flips the player's powered state.
func (m *Manager) PowerToggle(ctx context.Context, playerID string) error {
	p, ok := m.Get(playerID)
	if !ok {
		return fmt.Errorf("player: unknown player %q", playerID)
	}
	return m.setPower(ctx, playerID, !p.Powered)
}

func (m *Manager) setPower(ctx context.Context, playerID string, on bool) error {
	p, ok := m.Get(playerID)
	if !ok {
		return fmt.Errorf("player: unknown player %q", playerID)
	}

	// An attached power control overrides the driver path.
	m.mu.RLock()
	var ctl *Control
	for _, c := range m.controls {
		if c.PlayerID == playerID && c.SetPower != nil {
			cc := c
			ctl = &cc
			break
		}
	}
	m.mu.RUnlock()

	if ctl != nil {
		if err := ctl.SetPower(ctx, on); err != nil {
			return err
		}
		m.bus.Publish(eventbus.Event{Topic: eventbus.TopicPlayerControlUpdated, Payload: ctl.ID})
	} else {
		d, _, err := m.driverFor(playerID)
		if err != nil {
			return err
		}
		if d != nil {
			var derr error
			if on {
				derr = d.PowerOn(ctx, playerID)
			} else {
				derr = d.PowerOff(ctx, playerID)
			}
			if derr != nil {
				return derr
			}
		}
	}

	p2 := p
	p2.Powered = on
	if on {
		if p2.State == models.PlayerStateOff {
			p2.State = models.PlayerStateIdle
		}
	} else {
		p2.State = models.PlayerStateOff
	}
	m.UpdatePlayer(p2)

	// Power cascades to group children; the queue is preserved.
	if p.IsGroup {
		for _, childID := range p.GroupChilds {
			if err := m.setPower(ctx, childID, on); err != nil {
				m.logger.Warn("group power cascade failed",
					zap.String("group", playerID), zap.String("child", childID), zap.Error(err))
			}
		}
	}
	return nil
}

// VolumeSet sets a player's volume; on a group player, children are
// rescaled proportionally.
func (m *Manager) VolumeSet(ctx context.Context, playerID string, level int) error {
	p, ok := m.Get(playerID)
	if !ok {
		return fmt.Errorf("player: unknown player %q", playerID)
	}
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	if level == p.VolumeLevel {
		return nil
	}

	if p.IsGroup {
		return m.setGroupVolume(ctx, p, level)
	}
	return m.setSingleVolume(ctx, playerID, level)
}

func (m *Manager) setSingleVolume(ctx context.Context, playerID string, level int) error {
	m.mu.RLock()
	var ctl *Control
	for _, c := range m.controls {
		if c.PlayerID == playerID && c.SetVolume != nil {
			cc := c
			ctl = &cc
			break
		}
	}
	m.mu.RUnlock()

	if ctl != nil {
		if err := ctl.SetVolume(ctx, level); err != nil {
			return err
		}
		m.bus.Publish(eventbus.Event{Topic: eventbus.TopicPlayerControlUpdated, Payload: ctl.ID})
	} else {
		d, _, err := m.driverFor(playerID)
		if err != nil {
			return err
		}
		if d != nil {
			if err := d.SetVolume(ctx, playerID, level); err != nil {
				return err
			}
		}
	}

	p, ok := m.Get(playerID)
	if !ok {
		return nil
	}
	p.VolumeLevel = level
	m.UpdatePlayer(p)
	return nil
}

func (m *Manager) setGroupVolume(ctx context.Context, group models.Player, level int) error {
	allZero := true
	childLevels := make(map[string]int, len(group.GroupChilds))
	for _, childID := range group.GroupChilds {
		child, ok := m.Get(childID)
		if !ok {
			continue
		}
		childLevels[childID] = child.VolumeLevel
		if child.VolumeLevel != 0 {
			allZero = false
		}
	}

	for childID, current := range childLevels {
		newLevel := models.GroupChildVolume(current, group.VolumeLevel, level, allZero)
		if newLevel == current {
			continue
		}
		if err := m.setSingleVolume(ctx, childID, newLevel); err != nil {
			m.logger.Warn("group volume rescale failed",
				zap.String("group", group.PlayerID), zap.String("child", childID), zap.Error(err))
		}
	}

	group.VolumeLevel = level
	m.UpdatePlayer(group)
	return nil
}

// VolumeUp raises the volume by 5.
func (m *Manager) VolumeUp(ctx context.Context, playerID string) error {
	p, ok := m.Get(playerID)
	if !ok {
		return fmt.Errorf("player: unknown player %q", playerID)
	}
	return m.VolumeSet(ctx, playerID, p.VolumeLevel+5)
}

// VolumeDown lowers the volume by 5.
func (m *Manager) VolumeDown(ctx context.Context, playerID string) error {
	p, ok := m.Get(playerID)
	if !ok {
		return fmt.Errorf("player: unknown player %q", playerID)
	}
	return m.VolumeSet(ctx, playerID, p.VolumeLevel-5)
}

// VolumeMute sets the mute flag.
func (m *Manager) VolumeMute(ctx context.Context, playerID string, muted bool) error {
	d, p, err := m.driverFor(playerID)
	if err != nil {
		return err
	}
	if d != nil {
		if err := d.SetMute(ctx, playerID, muted); err != nil {
			return err
		}
	}
	if p == nil {
		return nil
	}
	p2 := *p
	p2.Muted = muted
	m.UpdatePlayer(p2)
	return nil
}

// StartPolling runs the poll loop over players marked should_poll: those in
// PLAYING refresh every tick, the others every pollEvery ticks.
func (m *Manager) StartPolling() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		tick := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick++
				m.pollOnce(ctx, tick)
			}
		}
	}()
}

// StopPolling cancels the poll loop and waits for it to exit.
func (m *Manager) StopPolling() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Manager) pollOnce(ctx context.Context, tick int) {
	for _, p := range m.All() {
		if !p.ShouldPoll {
			continue
		}
		if p.State != models.PlayerStatePlaying && tick%pollEvery != 0 {
			continue
		}
		m.mu.RLock()
		d := m.drivers[p.ProviderID]
		m.mu.RUnlock()
		if d == nil {
			continue
		}
		fresh, err := d.Poll(ctx, p.PlayerID)
		if err != nil {
			m.logger.Debug("player poll failed", zap.String("player", p.PlayerID), zap.Error(err))
			continue
		}
		if fresh != nil {
			m.UpdatePlayer(*fresh)
			if fresh.State == models.PlayerStatePlaying {
				m.queues.Get(p.PlayerID).UpdateElapsed(ctx, fresh.ElapsedTime, currentItemDuration(m, p.PlayerID))
			}
		}
	}
}

// currentItemDuration is a poll-loop helper: the crossfade check needs the
// playing item's duration, which lives on the canonical track. A zero
// duration disables the crossfade trigger for that tick.
func currentItemDuration(m *Manager, playerID string) float64 {
	snap := m.queues.Get(playerID).Snapshot()
	cur := snap.Current()
	if cur == nil {
		return 0
	}
	track, err := m.queues.Library().GetTrackByURI(context.Background(), cur.MediaItemRef.URI)
	if err != nil {
		return 0
	}
	return track.DurationSeconds
}
