package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"harmonia/internal/models"
)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// Repository is a generic CRUD layer over one entity table, parameterised
// by the concrete MediaItem variant. Each entity supplies its extra
// columns via columns/scanArgs/insertArgs, so the shared
// Create/GetByID/scan machinery is written once instead of once per
// entity type.
type Repository[T models.MediaItem] struct {
	db         *DB
	table      string
	mediaType  models.MediaType
	newItem    func() T
	columns    []string
	scanArgs   func(item T, id *int64) []interface{}
	insertCols []string
	insertArgs func(item T) []interface{}
}

// NewRepository constructs a Repository for one entity table.
func NewRepository[T models.MediaItem](db *DB, table string, mediaType models.MediaType,
	newItem func() T,
	columns []string,
	scanArgs func(item T, id *int64) []interface{},
	insertCols []string,
	insertArgs func(item T) []interface{},
) *Repository[T] {
	return &Repository[T]{
		db: db, table: table, mediaType: mediaType, newItem: newItem,
		columns: columns, scanArgs: scanArgs, insertCols: insertCols, insertArgs: insertArgs,
	}
}

func (r *Repository[T]) selectQuery(where string) string {
	cols := "id"
	for _, c := range r.columns {
		cols += ", " + c
	}
	q := fmt.Sprintf("SELECT %s FROM %s", cols, r.table)
	if where != "" {
		q += " WHERE " + where
	}
	return q
}

func (r *Repository[T]) scanOne(row scanner) (T, error) {
	item := r.newItem()
	var id int64
	args := append([]interface{}{&id}, r.scanArgs(item, &id)...)
	if err := row.Scan(args...); err != nil {
		var zero T
		return zero, err
	}
	item.Base().DBID = id
	item.Base().EnsureDerived(r.mediaType)
	return item, nil
}

// GetByID fetches the row with the given database id.
func (r *Repository[T]) GetByID(ctx context.Context, id int64) (T, error) {
	row := r.db.QueryRow(ctx, r.selectQuery("id = ?"), id)
	return r.scanOne(row)
}

// FindOneWhere fetches the first row matching an arbitrary WHERE clause,
// used by entity-specific matchers (e.g. by musicbrainz_id, isrc, upc)
// that the generic CRUD surface does not anticipate.
func (r *Repository[T]) FindOneWhere(ctx context.Context, where string, args ...interface{}) (T, error) {
	row := r.db.QueryRow(ctx, r.selectQuery(where), args...)
	return r.scanOne(row)
}

// FindAllWhere fetches every row matching an arbitrary WHERE clause.
func (r *Repository[T]) FindAllWhere(ctx context.Context, where string, args ...interface{}) ([]T, error) {
	return r.FindAllWhereOrdered(ctx, where, args...)
}

// FindAllWhereOrdered fetches every row matching where, in id order.
func (r *Repository[T]) FindAllWhereOrdered(ctx context.Context, where string, args ...interface{}) ([]T, error) {
	rows, err := r.db.Query(ctx, r.selectQuery(where)+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// GetByProviderMapping finds the entity whose provider_mappings index
// contains (providerInstance, itemID), per the Media Controller's get()
// resolution order.
func (r *Repository[T]) GetByProviderMapping(ctx context.Context, providerInstance, itemID string) (T, error) {
	query := fmt.Sprintf(
		`SELECT e.id FROM %s e JOIN provider_mappings pm
		 ON pm.media_type = ? AND pm.item_id = e.id
		 WHERE pm.provider_instance = ? AND pm.provider_item_id = ?`, r.table)
	var dbID int64
	err := r.db.QueryRow(ctx, query, r.mediaType, providerInstance, itemID).Scan(&dbID)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.GetByID(ctx, dbID)
}

// Create inserts item as a new row and assigns its DBID. The provider
// mapping index rows are rewritten in the same transaction.
func (r *Repository[T]) Create(ctx context.Context, item T) (int64, error) {
	base := item.Base()
	now := time.Now().Unix()
	if base.TimestampAdded == 0 {
		base.TimestampAdded = now
	}
	base.TimestampModified = now
	base.EnsureDerived(r.mediaType)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	cols := "item_id, provider, name, sort_name, uri, in_library, provider_mappings, metadata, timestamp_added, timestamp_modified"
	for _, c := range r.insertCols {
		cols += ", " + c
	}
	placeholders := "?, ?, ?, ?, ?, ?, ?, ?, ?, ?"
	for range r.insertCols {
		placeholders += ", ?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", r.table, cols, placeholders)

	args := []interface{}{
		base.ItemID, base.Provider, base.Name, base.SortName, base.URI, base.InLibrary,
		base.ProviderMappings, base.Metadata, base.TimestampAdded, base.TimestampModified,
	}
	args = append(args, r.insertArgs(item)...)

	id, err := r.db.TxInsertReturningID(ctx, tx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("database: create %s: %w", r.table, err)
	}
	base.DBID = id

	if err := r.rewriteMappingIndex(ctx, tx, id, base.ProviderMappings); err != nil {
		return 0, err
	}

	return id, tx.Commit()
}

// Update overwrites an existing row by DBID, rewriting the provider
// mapping index in the same transaction.
func (r *Repository[T]) Update(ctx context.Context, item T) error {
	base := item.Base()
	base.TimestampModified = time.Now().Unix()
	base.EnsureDerived(r.mediaType)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	set := "item_id = ?, provider = ?, name = ?, sort_name = ?, uri = ?, in_library = ?, provider_mappings = ?, metadata = ?, timestamp_modified = ?"
	for _, c := range r.insertCols {
		set += fmt.Sprintf(", %s = ?", c)
	}
	query := r.db.rewritePlaceholders(fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", r.table, set))

	args := []interface{}{
		base.ItemID, base.Provider, base.Name, base.SortName, base.URI, base.InLibrary,
		base.ProviderMappings, base.Metadata, base.TimestampModified,
	}
	args = append(args, r.insertArgs(item)...)
	args = append(args, base.DBID)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("database: update %s: %w", r.table, err)
	}

	if err := r.rewriteMappingIndex(ctx, tx, base.DBID, base.ProviderMappings); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes the row and its mapping index rows .
func (r *Repository[T]) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.db.rewritePlaceholders(fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.table)), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, r.db.rewritePlaceholders(
		"DELETE FROM provider_mappings WHERE media_type = ? AND item_id = ?"), r.mediaType, id); err != nil {
		return err
	}
	return tx.Commit()
}

// rewriteMappingIndex clears then reinserts the provider_mappings index
// rows for one entity, so the index table stays an exact image of the
// union of all rows' mapping sets.
func (r *Repository[T]) rewriteMappingIndex(ctx context.Context, tx *sql.Tx, dbID int64, mappings models.ProviderMappingSet) error {
	if _, err := tx.ExecContext(ctx, r.db.rewritePlaceholders(
		"DELETE FROM provider_mappings WHERE media_type = ? AND item_id = ?"), r.mediaType, dbID); err != nil {
		return err
	}
	insertQuery := r.db.rewritePlaceholders(
		"INSERT INTO provider_mappings (media_type, item_id, provider_instance, provider_domain, provider_item_id) VALUES (?, ?, ?, ?, ?)")
	for _, m := range mappings {
		if _, err := tx.ExecContext(ctx, insertQuery, r.mediaType, dbID, m.ProviderInstance, m.ProviderDomain, m.ItemID); err != nil {
			return err
		}
	}
	return nil
}
