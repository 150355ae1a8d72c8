package media

import (
	"context"

	"harmonia/internal/database"
	"harmonia/internal/models"
)

// List returns one page of the controller's table for the control surface.
func (c *Controller[T]) List(ctx context.Context, inLibrary bool, search string, limit, offset int, orderBy string) (*database.Page[T], error) {
	return c.repo.ListPaged(ctx, inLibrary, search, limit, offset, orderBy)
}

// Repo exposes the controller's repository for collaborators that need raw
// row access (the sync engine's prev-snapshot, the playlist editor).
func (c *Controller[T]) Repo() *database.Repository[T] { return c.repo }

// MediaType returns the entity type this controller owns.
func (c *Controller[T]) MediaType() models.MediaType { return c.mediaType }
