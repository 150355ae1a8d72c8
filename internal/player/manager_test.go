package player

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"harmonia/internal/config"
	"harmonia/internal/database"
	"harmonia/internal/eventbus"
	"harmonia/internal/media"
	"harmonia/internal/models"
	"harmonia/internal/provider"
	"harmonia/internal/queue"
	"harmonia/internal/stream"
)

// fakeDriver records every command it receives.
type fakeDriver struct {
	mu       sync.Mutex
	provider string
	volumes  map[string][]int
	powered  map[string]bool
	commands []string
}

func newFakeDriver(providerID string) *fakeDriver {
	return &fakeDriver{
		provider: providerID,
		volumes:  make(map[string][]int),
		powered:  make(map[string]bool),
	}
}

func (d *fakeDriver) ProviderID() string { return d.provider }

func (d *fakeDriver) record(cmd string) {
	d.mu.Lock()
	d.commands = append(d.commands, cmd)
	d.mu.Unlock()
}

func (d *fakeDriver) Play(ctx context.Context, playerID, streamURL string) error {
	d.record("play:" + playerID)
	return nil
}
func (d *fakeDriver) Pause(ctx context.Context, playerID string) error {
	d.record("pause:" + playerID)
	return nil
}
func (d *fakeDriver) Stop(ctx context.Context, playerID string) error {
	d.record("stop:" + playerID)
	return nil
}
func (d *fakeDriver) SetVolume(ctx context.Context, playerID string, level int) error {
	d.mu.Lock()
	d.volumes[playerID] = append(d.volumes[playerID], level)
	d.mu.Unlock()
	return nil
}
func (d *fakeDriver) SetMute(ctx context.Context, playerID string, muted bool) error {
	d.record("mute:" + playerID)
	return nil
}
func (d *fakeDriver) PowerOn(ctx context.Context, playerID string) error {
	d.mu.Lock()
	d.powered[playerID] = true
	d.mu.Unlock()
	return nil
}
func (d *fakeDriver) PowerOff(ctx context.Context, playerID string) error {
	d.mu.Lock()
	d.powered[playerID] = false
	d.mu.Unlock()
	return nil
}
func (d *fakeDriver) Poll(ctx context.Context, playerID string) (*models.Player, error) {
	return nil, nil
}

func (d *fakeDriver) volumeCommands(playerID string) []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.volumes[playerID]...)
}

func newTestPlayerManager(t *testing.T) (*Manager, *fakeDriver, *eventbus.InMemoryBus) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	registry := provider.NewRegistry()
	bus := eventbus.New()
	lib := media.NewLibrary(db, registry, bus, nil, zap.NewNop())
	coord := stream.NewCoordinator(registry, database.NewLoudnessStore(db), config.StreamConfig{}, zap.NewNop())
	queues := queue.NewManager(lib, coord, zap.NewNop())

	m := NewManager(queues, bus, zap.NewNop())
	driver := newFakeDriver("sonos")
	m.RegisterDriver(driver)
	return m, driver, bus
}

func addPlayer(m *Manager, id string, volume int, groupChilds ...string) {
	m.AddPlayer(models.Player{
		PlayerID:    id,
		ProviderID:  "sonos",
		Name:        id,
		State:       models.PlayerStateIdle,
		Powered:     true,
		Available:   true,
		VolumeLevel: volume,
		IsGroup:     len(groupChilds) > 0,
		GroupChilds: groupChilds,
	})
}

func TestAddPlayerEmitsEventAndCreatesQueue(t *testing.T) {
	m, _, bus := newTestPlayerManager(t)

	var topics []eventbus.Topic
	unsub := bus.SubscribeAll(func(e eventbus.Event) { topics = append(topics, e.Topic) })
	defer unsub()

	addPlayer(m, "p1", 40)
	require.Contains(t, topics, eventbus.TopicPlayerAdded)
	assert.NotNil(t, m.Queue("p1"))

	addPlayer(m, "p1", 45)
	assert.Contains(t, topics, eventbus.TopicPlayerChanged, "second sight is an update")
}

func TestGroupVolumeProportionalRescale(t *testing.T) {
	m, driver, _ := newTestPlayerManager(t)
	addPlayer(m, "c1", 40)
	addPlayer(m, "c2", 80)
	addPlayer(m, "g", 50, "c1", "c2")

	require.NoError(t, m.VolumeSet(context.Background(), "g", 25))

	assert.Equal(t, []int{20}, driver.volumeCommands("c1"))
	assert.Equal(t, []int{40}, driver.volumeCommands("c2"))

	g, _ := m.Get("g")
	assert.Equal(t, 25, g.VolumeLevel)
}

func TestGroupVolumeUnchangedSendsNothing(t *testing.T) {
	m, driver, _ := newTestPlayerManager(t)
	addPlayer(m, "c1", 40)
	addPlayer(m, "g", 50, "c1")

	require.NoError(t, m.VolumeSet(context.Background(), "g", 50))
	assert.Empty(t, driver.volumeCommands("c1"), "V_new == V_old sends no child command")
}

func TestGroupVolumeAllChildrenAtZero(t *testing.T) {
	m, driver, _ := newTestPlayerManager(t)
	addPlayer(m, "c1", 0)
	addPlayer(m, "c2", 0)
	addPlayer(m, "g", 0, "c1", "c2")

	require.NoError(t, m.VolumeSet(context.Background(), "g", 50))

	// Children restart from silence at the new group volume.
	assert.Equal(t, []int{50}, driver.volumeCommands("c1"))
	assert.Equal(t, []int{50}, driver.volumeCommands("c2"))
}

func TestPowerOffCascadesToGroupChildren(t *testing.T) {
	m, driver, _ := newTestPlayerManager(t)
	addPlayer(m, "c1", 40)
	addPlayer(m, "c2", 40)
	addPlayer(m, "g", 50, "c1", "c2")

	require.NoError(t, m.PowerOff(context.Background(), "g"))

	for _, id := range []string{"g", "c1", "c2"} {
		p, ok := m.Get(id)
		require.True(t, ok)
		assert.False(t, p.Powered, id)
		assert.Equal(t, models.PlayerStateOff, p.State, id)
	}
	driver.mu.Lock()
	defer driver.mu.Unlock()
	assert.False(t, driver.powered["c1"])
	assert.False(t, driver.powered["c2"])
}

func TestElapsedTimeFrozenWhileOff(t *testing.T) {
	m, _, _ := newTestPlayerManager(t)
	addPlayer(m, "p1", 40)

	p, _ := m.Get("p1")
	p.State = models.PlayerStateOff
	p.ElapsedTime = 42
	m.UpdatePlayer(p)

	// A stale driver report cannot advance a powered-off player.
	p.ElapsedTime = 99
	m.UpdatePlayer(p)

	got, _ := m.Get("p1")
	assert.Equal(t, 42.0, got.ElapsedTime)
}

func TestPowerOnReturnsToIdle(t *testing.T) {
	m, _, _ := newTestPlayerManager(t)
	addPlayer(m, "p1", 40)

	require.NoError(t, m.PowerOff(context.Background(), "p1"))
	p, _ := m.Get("p1")
	require.Equal(t, models.PlayerStateOff, p.State)

	require.NoError(t, m.PowerOn(context.Background(), "p1"))
	p, _ = m.Get("p1")
	assert.Equal(t, models.PlayerStateIdle, p.State)
	assert.True(t, p.Powered)
}

func TestControlOverridesPowerAndVolume(t *testing.T) {
	m, _, _ := newTestPlayerManager(t)

	power := false
	volume := 33
	m.RegisterControl(Control{
		ID:       "ctl-1",
		PlayerID: "p1",
		GetPower: func() bool { return power },
		GetVolume: func() int { return volume },
		SetPower: func(ctx context.Context, on bool) error { power = on; return nil },
		SetVolume: func(ctx context.Context, level int) error { volume = level; return nil },
	})

	addPlayer(m, "p1", 80)
	p, _ := m.Get("p1")
	assert.Equal(t, 33, p.VolumeLevel, "volume control overrides the driver report")
	assert.False(t, p.Powered, "power control overrides the driver report")
	assert.Equal(t, models.PlayerStateOff, p.State)

	require.NoError(t, m.PowerOn(context.Background(), "p1"))
	assert.True(t, power, "power command routed through the control")
}

func TestUnavailablePlayerCommandsAreNoops(t *testing.T) {
	m, driver, _ := newTestPlayerManager(t)
	m.AddPlayer(models.Player{PlayerID: "p1", ProviderID: "sonos", Available: false})

	require.NoError(t, m.Pause(context.Background(), "p1"))
	require.NoError(t, m.Stop(context.Background(), "p1"))
	driver.mu.Lock()
	defer driver.mu.Unlock()
	assert.Empty(t, driver.commands)
}

func TestPollLoopStopsCleanly(t *testing.T) {
	m, _, _ := newTestPlayerManager(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m.StartPolling()
	m.StopPolling()
}
