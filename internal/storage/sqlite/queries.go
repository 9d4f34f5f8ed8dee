package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

// buildFilter translates an ItemFilter into a WHERE clause and args.
func buildFilter(itemType types.ItemType, filter types.ItemFilter) (string, []interface{}, error) {
	if !filter.OrderBy.IsValid() {
		return "", nil, fmt.Errorf("invalid order: %s", filter.OrderBy)
	}
	var conds []string
	var args []interface{}

	if filter.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.ParentID != nil {
		col, ok := parentColumn(itemType)
		if !ok {
			return "", nil, fmt.Errorf("%s items have no parent", itemType)
		}
		conds = append(conds, col+" = ?")
		args = append(args, *filter.ParentID)
	}
	if filter.Owner != nil {
		conds = append(conds, "owner = ?")
		args = append(args, *filter.Owner)
	}
	if filter.CreatedAfter != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		conds = append(conds, "created_at < ?")
		args = append(args, *filter.CreatedBefore)
	}
	if filter.PointsMin != nil {
		conds = append(conds, "points >= ?")
		args = append(args, *filter.PointsMin)
	}
	if filter.PointsMax != nil {
		conds = append(conds, "points <= ?")
		args = append(args, *filter.PointsMax)
	}

	var sb strings.Builder
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	order := "created_at, id"
	switch filter.OrderBy {
	case types.OrderByUpdated:
		order = "updated_at, id"
	case types.OrderByID:
		order = "id"
	}
	sb.WriteString(" ORDER BY " + order)

	if filter.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", filter.Limit))
		if filter.Offset > 0 {
			sb.WriteString(fmt.Sprintf(" OFFSET %d", filter.Offset))
		}
	} else if filter.Offset > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT -1 OFFSET %d", filter.Offset))
	}

	return sb.String(), args, nil
}

// ListItems returns all items of a type matching the filter, materialized.
func (s *Store) ListItems(ctx context.Context, itemType types.ItemType, filter types.ItemFilter) ([]*types.WorkItem, error) {
	var items []*types.WorkItem
	err := s.EachItem(ctx, itemType, filter, func(item *types.WorkItem) error {
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// EachItem streams items matching the filter to fn in order. A non-nil error
// from fn stops iteration and is returned to the caller.
func (s *Store) EachItem(ctx context.Context, itemType types.ItemType, filter types.ItemFilter, fn func(*types.WorkItem) error) error {
	table, err := tableFor(itemType)
	if err != nil {
		return err
	}
	where, args, err := buildFilter(itemType, filter)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s", selectCols(itemType), table, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return wrapDBError("list "+string(itemType), err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows, itemType)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", itemType, err)
		}
		if err := fn(item); err != nil {
			return err
		}
	}
	return rows.Err()
}
