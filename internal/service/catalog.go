package service

import (
	"context"

	"github.com/bobabar/api/internal/database"
	"github.com/shopspring/decimal"
)

// CatalogReader loads the orderable part of the catalog.
// Satisfied by *database.Queries; narrow interface for testability.
type CatalogReader interface {
	ListOrderCatalog(ctx context.Context, menuItemIDs []int64) ([]database.ListOrderCatalogRow, error)
}

// Catalog is the snapshot of active menu items keyed by id. Requested ids that
// are missing or inactive are absent.
type Catalog map[int64]*CatalogItem

// CatalogItem is an active menu item with its mapped active option groups,
// in sort order.
type CatalogItem struct {
	ID        int64
	Name      string
	BasePrice decimal.Decimal
	Groups    []*CatalogGroup
}

type CatalogGroup struct {
	ID            int64
	Name          string
	SelectionType string
	IsRequired    bool
	Options       []CatalogOption
}

type CatalogOption struct {
	ID         int64
	Label      string
	PriceDelta decimal.Decimal
}

// LoadCatalog fetches the snapshot for the given menu item ids.
func LoadCatalog(ctx context.Context, r CatalogReader, menuItemIDs []int64) (Catalog, error) {
	rows, err := r.ListOrderCatalog(ctx, menuItemIDs)
	if err != nil {
		return nil, err
	}
	return buildCatalog(rows), nil
}

// buildCatalog folds the flattened (item, group, option) rows back into a tree.
// Rows arrive grouped by item and sorted by group then option.
func buildCatalog(rows []database.ListOrderCatalogRow) Catalog {
	cat := make(Catalog)
	groups := make(map[[2]int64]*CatalogGroup)

	for _, row := range rows {
		item, ok := cat[row.MenuItemID]
		if !ok {
			item = &CatalogItem{
				ID:        row.MenuItemID,
				Name:      row.MenuItemName,
				BasePrice: database.ToDecimal(row.BasePrice),
			}
			cat[row.MenuItemID] = item
		}
		if !row.GroupID.Valid {
			continue
		}

		key := [2]int64{row.MenuItemID, row.GroupID.Int64}
		group, ok := groups[key]
		if !ok {
			group = &CatalogGroup{
				ID:            row.GroupID.Int64,
				Name:          row.GroupName.String,
				SelectionType: row.SelectionType.String,
				IsRequired:    row.IsRequired.Bool,
			}
			groups[key] = group
			item.Groups = append(item.Groups, group)
		}
		if !row.OptionID.Valid {
			continue
		}
		group.Options = append(group.Options, CatalogOption{
			ID:         row.OptionID.Int64,
			Label:      row.OptionLabel.String,
			PriceDelta: database.ToDecimal(row.PriceDelta),
		})
	}
	return cat
}

// distinctMenuItemIDs returns each requested id once, in first-seen order.
func distinctMenuItemIDs(lines []LineRequest) []int64 {
	seen := make(map[int64]bool, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if seen[l.MenuItemID] {
			continue
		}
		seen[l.MenuItemID] = true
		ids = append(ids, l.MenuItemID)
	}
	return ids
}
