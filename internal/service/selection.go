package service

import (
	"fmt"

	"github.com/bobabar/api/internal/enum"
	"github.com/shopspring/decimal"
)

// LineRequest is one requested cart line.
type LineRequest struct {
	MenuItemID        int64
	Quantity          int32
	SelectedOptionIDs []int64
}

// SelectedOption is an option resolved against the item's mapped groups.
type SelectedOption struct {
	OptionID   int64
	GroupID    int64
	GroupName  string
	Label      string
	PriceDelta decimal.Decimal
}

// ValidatedLine is a request line whose item and options are all known to be
// orderable. Options keep the order in which they were selected.
type ValidatedLine struct {
	Item     *CatalogItem
	Quantity int32
	Options  []SelectedOption
}

type optionRef struct {
	group  *CatalogGroup
	option CatalogOption
}

// ValidateSelections checks every line against the snapshot. Duplicate option
// ids within a line count as a single selection.
func ValidateSelections(cat Catalog, lines []LineRequest) ([]ValidatedLine, error) {
	out := make([]ValidatedLine, 0, len(lines))
	for i, line := range lines {
		vl, err := validateLine(cat, line)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		out = append(out, vl)
	}
	return out, nil
}

func validateLine(cat Catalog, line LineRequest) (ValidatedLine, error) {
	item, ok := cat[line.MenuItemID]
	if !ok {
		return ValidatedLine{}, fmt.Errorf("%w: menuItemId %d", ErrInvalidMenuItem, line.MenuItemID)
	}

	lookup := make(map[int64]optionRef)
	for _, g := range item.Groups {
		for _, o := range g.Options {
			lookup[o.ID] = optionRef{group: g, option: o}
		}
	}

	seen := make(map[int64]bool, len(line.SelectedOptionIDs))
	perGroup := make(map[int64]int)
	selected := make([]SelectedOption, 0, len(line.SelectedOptionIDs))

	for _, optID := range line.SelectedOptionIDs {
		if seen[optID] {
			continue
		}
		seen[optID] = true

		ref, ok := lookup[optID]
		if !ok {
			return ValidatedLine{}, fmt.Errorf("%w: optionId %d for menuItemId %d", ErrInvalidOption, optID, line.MenuItemID)
		}
		perGroup[ref.group.ID]++
		selected = append(selected, SelectedOption{
			OptionID:   ref.option.ID,
			GroupID:    ref.group.ID,
			GroupName:  ref.group.Name,
			Label:      ref.option.Label,
			PriceDelta: ref.option.PriceDelta,
		})
	}

	for _, g := range item.Groups {
		if g.SelectionType == enum.SelectionSingle && perGroup[g.ID] > 1 {
			return ValidatedLine{}, fmt.Errorf("%w %q on %s", ErrTooManySelections, g.Name, item.Name)
		}
	}
	for _, g := range item.Groups {
		if g.IsRequired && perGroup[g.ID] < 1 {
			return ValidatedLine{}, fmt.Errorf("%w %q on %s", ErrMissingRequiredGroup, g.Name, item.Name)
		}
	}

	return ValidatedLine{Item: item, Quantity: line.Quantity, Options: selected}, nil
}
