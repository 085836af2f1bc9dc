package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listOrderCatalog = `-- name: ListOrderCatalog :many
SELECT mi.id, mi.name, mi.base_price,
       og.id, og.name, og.selection_type, og.is_required,
       o.id, o.label, o.price_delta
FROM menu_items mi
LEFT JOIN menu_item_option_groups miog ON miog.menu_item_id = mi.id
LEFT JOIN option_groups og ON og.id = miog.option_group_id AND og.is_active
LEFT JOIN options o ON o.option_group_id = og.id AND o.is_active
WHERE mi.id = ANY($1::bigint[]) AND mi.is_active
ORDER BY mi.id, og.sort_order, og.id, o.sort_order, o.id`

// ListOrderCatalogRow is one (item, group, option) combination. Group and
// option columns are NULL for items without mapped active groups, and option
// columns are NULL for active groups without active options.
type ListOrderCatalogRow struct {
	MenuItemID    int64          `json:"menu_item_id"`
	MenuItemName  string         `json:"menu_item_name"`
	BasePrice     pgtype.Numeric `json:"base_price"`
	GroupID       pgtype.Int8    `json:"group_id"`
	GroupName     pgtype.Text    `json:"group_name"`
	SelectionType pgtype.Text    `json:"selection_type"`
	IsRequired    pgtype.Bool    `json:"is_required"`
	OptionID      pgtype.Int8    `json:"option_id"`
	OptionLabel   pgtype.Text    `json:"option_label"`
	PriceDelta    pgtype.Numeric `json:"price_delta"`
}

func (q *Queries) ListOrderCatalog(ctx context.Context, menuItemIDs []int64) ([]ListOrderCatalogRow, error) {
	rows, err := q.db.Query(ctx, listOrderCatalog, menuItemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListOrderCatalogRow{}
	for rows.Next() {
		var i ListOrderCatalogRow
		if err := rows.Scan(
			&i.MenuItemID,
			&i.MenuItemName,
			&i.BasePrice,
			&i.GroupID,
			&i.GroupName,
			&i.SelectionType,
			&i.IsRequired,
			&i.OptionID,
			&i.OptionLabel,
			&i.PriceDelta,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listMenu = `-- name: ListMenu :many
SELECT c.id, c.name, c.sort_order,
       mi.id, mi.name, mi.description, mi.base_price, mi.image_url,
       og.id, og.name, og.selection_type, og.is_required,
       o.id, o.label, o.price_delta
FROM categories c
LEFT JOIN menu_items mi ON mi.category_id = c.id AND mi.is_active
LEFT JOIN menu_item_option_groups miog ON miog.menu_item_id = mi.id
LEFT JOIN option_groups og ON og.id = miog.option_group_id AND og.is_active
LEFT JOIN options o ON o.option_group_id = og.id AND o.is_active
WHERE c.is_active
ORDER BY c.sort_order, c.id, mi.id, og.sort_order, og.id, o.sort_order, o.id`

type ListMenuRow struct {
	CategoryID        int64          `json:"category_id"`
	CategoryName      string         `json:"category_name"`
	CategorySortOrder int32          `json:"category_sort_order"`
	MenuItemID        pgtype.Int8    `json:"menu_item_id"`
	MenuItemName      pgtype.Text    `json:"menu_item_name"`
	Description       pgtype.Text    `json:"description"`
	BasePrice         pgtype.Numeric `json:"base_price"`
	ImageUrl          pgtype.Text    `json:"image_url"`
	GroupID           pgtype.Int8    `json:"group_id"`
	GroupName         pgtype.Text    `json:"group_name"`
	SelectionType     pgtype.Text    `json:"selection_type"`
	IsRequired        pgtype.Bool    `json:"is_required"`
	OptionID          pgtype.Int8    `json:"option_id"`
	OptionLabel       pgtype.Text    `json:"option_label"`
	PriceDelta        pgtype.Numeric `json:"price_delta"`
}

func (q *Queries) ListMenu(ctx context.Context) ([]ListMenuRow, error) {
	rows, err := q.db.Query(ctx, listMenu)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListMenuRow{}
	for rows.Next() {
		var i ListMenuRow
		if err := rows.Scan(
			&i.CategoryID,
			&i.CategoryName,
			&i.CategorySortOrder,
			&i.MenuItemID,
			&i.MenuItemName,
			&i.Description,
			&i.BasePrice,
			&i.ImageUrl,
			&i.GroupID,
			&i.GroupName,
			&i.SelectionType,
			&i.IsRequired,
			&i.OptionID,
			&i.OptionLabel,
			&i.PriceDelta,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
