package database

import (
	"context"
	"fmt"
)

// Page is one page of a library listing, in the shape the control surface
// returns.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Count  int   `json:"count"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// listOrderColumns whitelists order_by values so the listing query never
// interpolates caller input into SQL.
var listOrderColumns = map[string]string{
	"":                   "sort_name",
	"name":               "sort_name",
	"sort_name":          "sort_name",
	"timestamp_added":    "timestamp_added DESC",
	"timestamp_modified": "timestamp_modified DESC",
}

// ListPaged returns one page of the table, optionally filtered to
// in-library rows and/or a name substring search.
func (r *Repository[T]) ListPaged(ctx context.Context, inLibrary bool, search string, limit, offset int, orderBy string) (*Page[T], error) {
	order, ok := listOrderColumns[orderBy]
	if !ok {
		return nil, fmt.Errorf("database: unsupported order_by %q", orderBy)
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := "1 = 1"
	var args []interface{}
	if inLibrary {
		where += " AND in_library = 1"
	}
	if search != "" {
		where += " AND (name LIKE ? OR sort_name LIKE ?)"
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", r.table, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := r.selectQuery(where) + fmt.Sprintf(" ORDER BY %s LIMIT %d OFFSET %d", order, limit, offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := &Page[T]{Limit: limit, Offset: offset, Total: total}
	for rows.Next() {
		item, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, item)
	}
	page.Count = len(page.Items)
	return page, rows.Err()
}

// InLibraryItemIDs snapshots the db ids of every in-library row holding a
// mapping for providerInstance, the `prev` set of a sync job.
func (r *Repository[T]) InLibraryItemIDs(ctx context.Context, providerInstance string) (map[int64]struct{}, error) {
	query := fmt.Sprintf(`SELECT e.id FROM %s e JOIN provider_mappings pm
		ON pm.media_type = ? AND pm.item_id = e.id
		WHERE e.in_library = 1 AND pm.provider_instance = ?`, r.table)
	rows, err := r.db.Query(ctx, query, r.mediaType, providerInstance)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}
