package handler

import (
	"context"
	"net/http"

	"github.com/bobabar/api/internal/database"
	"github.com/go-chi/chi/v5"
)

// MenuStore defines the database methods needed by the public menu.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenu(ctx context.Context) ([]database.ListMenuRow, error)
}

// MenuHandler serves the customer-facing menu.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.Get)
}

// --- Response types ---

type menuCategoryResponse struct {
	ID    int64              `json:"id"`
	Name  string             `json:"name"`
	Items []menuItemResponse `json:"items"`
}

type menuItemResponse struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	Description  *string             `json:"description"`
	BasePrice    string              `json:"basePrice"`
	ImageURL     *string             `json:"imageUrl"`
	OptionGroups []menuGroupResponse `json:"optionGroups"`
}

type menuGroupResponse struct {
	ID            int64                `json:"id"`
	Name          string               `json:"name"`
	SelectionType string               `json:"selectionType"`
	IsRequired    bool                 `json:"isRequired"`
	Options       []menuOptionResponse `json:"options"`
}

type menuOptionResponse struct {
	ID         int64  `json:"id"`
	Label      string `json:"label"`
	PriceDelta string `json:"priceDelta"`
}

// --- Handlers ---

// Get returns active categories with their active items, mapped option
// groups and options, in display order.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListMenu(r.Context())
	if err != nil {
		writeInternalError(w, "list menu", err)
		return
	}
	writeJSON(w, http.StatusOK, buildMenu(rows))
}

// buildMenu folds the flat, already ordered join rows into the nested menu.
// Rows for one category, item and group are contiguous.
func buildMenu(rows []database.ListMenuRow) []menuCategoryResponse {
	menu := []menuCategoryResponse{}
	for _, row := range rows {
		if n := len(menu); n == 0 || menu[n-1].ID != row.CategoryID {
			menu = append(menu, menuCategoryResponse{
				ID:    row.CategoryID,
				Name:  row.CategoryName,
				Items: []menuItemResponse{},
			})
		}
		cat := &menu[len(menu)-1]
		if !row.MenuItemID.Valid {
			continue
		}

		if n := len(cat.Items); n == 0 || cat.Items[n-1].ID != row.MenuItemID.Int64 {
			cat.Items = append(cat.Items, menuItemResponse{
				ID:           row.MenuItemID.Int64,
				Name:         row.MenuItemName.String,
				Description:  textPtr(row.Description),
				BasePrice:    database.Money(row.BasePrice),
				ImageURL:     textPtr(row.ImageUrl),
				OptionGroups: []menuGroupResponse{},
			})
		}
		item := &cat.Items[len(cat.Items)-1]
		if !row.GroupID.Valid {
			continue
		}

		if n := len(item.OptionGroups); n == 0 || item.OptionGroups[n-1].ID != row.GroupID.Int64 {
			item.OptionGroups = append(item.OptionGroups, menuGroupResponse{
				ID:            row.GroupID.Int64,
				Name:          row.GroupName.String,
				SelectionType: row.SelectionType.String,
				IsRequired:    row.IsRequired.Bool,
				Options:       []menuOptionResponse{},
			})
		}
		group := &item.OptionGroups[len(item.OptionGroups)-1]
		if !row.OptionID.Valid {
			continue
		}

		group.Options = append(group.Options, menuOptionResponse{
			ID:         row.OptionID.Int64,
			Label:      row.OptionLabel.String,
			PriceDelta: database.Money(row.PriceDelta),
		})
	}
	return menu
}
