// Package player maintains the player roster, dispatches playback commands
// to per-provider drivers, aggregates group-player state and runs the poll
// loop.
package player

import (
	"context"

	"harmonia/internal/models"
)

// Driver is the per-provider control surface a player backend implements.
// Every command is best-effort: an unavailable player degrades to a no-op
// at the manager layer before the driver is ever invoked.
type Driver interface {
	// ProviderID identifies which players this driver serves.
	ProviderID() string

	Play(ctx context.Context, playerID, streamURL string) error
	Pause(ctx context.Context, playerID string) error
	Stop(ctx context.Context, playerID string) error
	SetVolume(ctx context.Context, playerID string, level int) error
	SetMute(ctx context.Context, playerID string, muted bool) error
	PowerOn(ctx context.Context, playerID string) error
	PowerOff(ctx context.Context, playerID string) error

	// Poll refreshes a player's state from the device; drivers for push
	// protocols may return the last pushed state.
	Poll(ctx context.Context, playerID string) (*models.Player, error)
}

// Control is an external on/off or volume control attached to a player by
// id; a registered power control overrides the driver's powered state and
// a volume control overrides volume_level.
type Control struct {
	ID       string
	PlayerID string
	Name     string

	SetPower  func(ctx context.Context, on bool) error
	GetPower  func() bool
	SetVolume func(ctx context.Context, level int) error
	GetVolume func() int
}
