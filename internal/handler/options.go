package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bobabar/api/internal/database"
	"github.com/bobabar/api/internal/enum"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Request / Response types ---

type createOptionGroupRequest struct {
	Name          string `json:"name"`
	SelectionType string `json:"selectionType"`
	IsRequired    bool   `json:"isRequired"`
	SortOrder     int32  `json:"sortOrder"`
}

type updateOptionGroupRequest struct {
	Name          *string `json:"name"`
	SelectionType *string `json:"selectionType"`
	IsRequired    *bool   `json:"isRequired"`
	SortOrder     *int32  `json:"sortOrder"`
	IsActive      *bool   `json:"isActive"`
}

type optionGroupResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SelectionType string `json:"selectionType"`
	IsRequired    bool   `json:"isRequired"`
	SortOrder     int32  `json:"sortOrder"`
	IsActive      bool   `json:"isActive"`
}

func toOptionGroupResponse(g database.OptionGroup) optionGroupResponse {
	return optionGroupResponse{
		ID:            g.ID,
		Name:          g.Name,
		SelectionType: g.SelectionType,
		IsRequired:    g.IsRequired,
		SortOrder:     g.SortOrder,
		IsActive:      g.IsActive,
	}
}

type createOptionRequest struct {
	OptionGroupID int64  `json:"optionGroupId"`
	Label         string `json:"label"`
	PriceDelta    string `json:"priceDelta"`
	SortOrder     int32  `json:"sortOrder"`
}

type updateOptionRequest struct {
	OptionGroupID *int64  `json:"optionGroupId"`
	Label         *string `json:"label"`
	PriceDelta    *string `json:"priceDelta"`
	SortOrder     *int32  `json:"sortOrder"`
	IsActive      *bool   `json:"isActive"`
}

type optionResponse struct {
	ID            int64  `json:"id"`
	OptionGroupID int64  `json:"optionGroupId"`
	Label         string `json:"label"`
	PriceDelta    string `json:"priceDelta"`
	SortOrder     int32  `json:"sortOrder"`
	IsActive      bool   `json:"isActive"`
}

func toOptionResponse(o database.Option) optionResponse {
	return optionResponse{
		ID:            o.ID,
		OptionGroupID: o.OptionGroupID,
		Label:         o.Label,
		PriceDelta:    database.Money(o.PriceDelta),
		SortOrder:     o.SortOrder,
		IsActive:      o.IsActive,
	}
}

type itemOptionGroupsRequest struct {
	OptionGroupIDs []int64 `json:"optionGroupIds"`
}

type itemOptionGroupsResponse struct {
	MenuItemID     int64   `json:"menuItemId"`
	OptionGroupIDs []int64 `json:"optionGroupIds"`
}

// --- Option group handlers ---

func (h *CatalogHandler) ListOptionGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.ListOptionGroups(r.Context())
	if err != nil {
		writeInternalError(w, "list option groups", err)
		return
	}

	resp := make([]optionGroupResponse, len(groups))
	for i, g := range groups {
		resp[i] = toOptionGroupResponse(g)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) CreateOptionGroup(w http.ResponseWriter, r *http.Request) {
	var req createOptionGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !enum.IsSelectionType(req.SelectionType) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "selectionType must be single or multi"})
		return
	}

	group, err := h.store.CreateOptionGroup(r.Context(), database.CreateOptionGroupParams{
		Name:          name,
		SelectionType: req.SelectionType,
		IsRequired:    req.IsRequired,
		SortOrder:     req.SortOrder,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "option group name already exists"})
			return
		}
		writeInternalError(w, "create option group", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOptionGroupResponse(group))
}

func (h *CatalogHandler) UpdateOptionGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "option group")
	if !ok {
		return
	}

	var req updateOptionGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == nil && req.SelectionType == nil && req.IsRequired == nil && req.SortOrder == nil && req.IsActive == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no fields provided to update"})
		return
	}

	arg := database.UpdateOptionGroupParams{ID: id}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name cannot be empty"})
			return
		}
		arg.Name = database.Text(name)
	}
	if req.SelectionType != nil {
		if !enum.IsSelectionType(*req.SelectionType) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "selectionType must be single or multi"})
			return
		}
		arg.SelectionType = database.Text(*req.SelectionType)
	}
	if req.IsRequired != nil {
		arg.IsRequired = pgtype.Bool{Bool: *req.IsRequired, Valid: true}
	}
	if req.SortOrder != nil {
		arg.SortOrder = pgtype.Int4{Int32: *req.SortOrder, Valid: true}
	}
	if req.IsActive != nil {
		arg.IsActive = pgtype.Bool{Bool: *req.IsActive, Valid: true}
	}

	group, err := h.store.UpdateOptionGroup(r.Context(), arg)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "option group not found"})
		case isUniqueViolation(err):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "option group name already exists"})
		default:
			writeInternalError(w, "update option group", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toOptionGroupResponse(group))
}

// --- Option handlers ---

func (h *CatalogHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.store.ListOptions(r.Context())
	if err != nil {
		writeInternalError(w, "list options", err)
		return
	}

	resp := make([]optionResponse, len(options))
	for i, o := range options {
		resp[i] = toOptionResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) CreateOption(w http.ResponseWriter, r *http.Request) {
	var req createOptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	label := strings.TrimSpace(req.Label)
	if req.OptionGroupID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "optionGroupId is required and must be a positive integer"})
		return
	}
	if label == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "label is required"})
		return
	}
	if req.PriceDelta == "" {
		req.PriceDelta = "0"
	}
	delta, err := parsePrice(req.PriceDelta)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "priceDelta must be a decimal string e.g. 15.00"})
		return
	}

	option, err := h.store.CreateOption(r.Context(), database.CreateOptionParams{
		OptionGroupID: req.OptionGroupID,
		Label:         label,
		PriceDelta:    delta,
		SortOrder:     req.SortOrder,
	})
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid optionGroupId"})
		case isUniqueViolation(err):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "option label already exists in this group"})
		default:
			writeInternalError(w, "create option", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toOptionResponse(option))
}

func (h *CatalogHandler) UpdateOption(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "option")
	if !ok {
		return
	}

	var req updateOptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OptionGroupID == nil && req.Label == nil && req.PriceDelta == nil && req.SortOrder == nil && req.IsActive == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no fields provided to update"})
		return
	}

	arg := database.UpdateOptionParams{ID: id}
	if req.OptionGroupID != nil {
		if *req.OptionGroupID <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "optionGroupId must be a positive integer"})
			return
		}
		arg.OptionGroupID = pgtype.Int8{Int64: *req.OptionGroupID, Valid: true}
	}
	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		if label == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "label cannot be empty"})
			return
		}
		arg.Label = database.Text(label)
	}
	if req.PriceDelta != nil {
		delta, err := parsePrice(*req.PriceDelta)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "priceDelta must be a decimal string e.g. 15.00"})
			return
		}
		arg.PriceDelta = delta
	}
	if req.SortOrder != nil {
		arg.SortOrder = pgtype.Int4{Int32: *req.SortOrder, Valid: true}
	}
	if req.IsActive != nil {
		arg.IsActive = pgtype.Bool{Bool: *req.IsActive, Valid: true}
	}

	option, err := h.store.UpdateOption(r.Context(), arg)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "option not found"})
		case isForeignKeyViolation(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid optionGroupId"})
		case isUniqueViolation(err):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "option label already exists in this group"})
		default:
			writeInternalError(w, "update option", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toOptionResponse(option))
}

// --- Item mapping handlers ---

func (h *CatalogHandler) GetItemOptionGroups(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "item")
	if !ok {
		return
	}

	ids, err := h.store.ListMenuItemOptionGroupIDs(r.Context(), id)
	if err != nil {
		writeInternalError(w, "list item option groups", err)
		return
	}

	writeJSON(w, http.StatusOK, itemOptionGroupsResponse{MenuItemID: id, OptionGroupIDs: ids})
}

var (
	errMenuItemNotFound   = errors.New("menu item not found")
	errInvalidOptionGroup = errors.New("one or more optionGroupIds are invalid")
)

// SetItemOptionGroups replaces the item's option groups in one transaction.
// Duplicate IDs collapse, keeping first-occurrence order.
func (h *CatalogHandler) SetItemOptionGroups(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "item")
	if !ok {
		return
	}

	var req itemOptionGroupsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ids := make([]int64, 0, len(req.OptionGroupIDs))
	seen := make(map[int64]bool, len(req.OptionGroupIDs))
	for _, gid := range req.OptionGroupIDs {
		if gid <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": errInvalidOptionGroup.Error()})
			return
		}
		if !seen[gid] {
			seen[gid] = true
			ids = append(ids, gid)
		}
	}

	if err := h.replaceMapping(r, id, ids); err != nil {
		switch {
		case errors.Is(err, errMenuItemNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": errMenuItemNotFound.Error()})
		case errors.Is(err, errInvalidOptionGroup):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": errInvalidOptionGroup.Error()})
		default:
			writeInternalError(w, "set item option groups", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, itemOptionGroupsResponse{MenuItemID: id, OptionGroupIDs: ids})
}

func (h *CatalogHandler) replaceMapping(r *http.Request, menuItemID int64, groupIDs []int64) error {
	ctx := r.Context()

	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	qtx := h.newMappingStore(tx)

	if _, err := qtx.GetMenuItem(ctx, menuItemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errMenuItemNotFound
		}
		return fmt.Errorf("get menu item: %w", err)
	}

	if err := qtx.DeleteMenuItemOptionGroups(ctx, menuItemID); err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}

	for _, gid := range groupIDs {
		err := qtx.AddMenuItemOptionGroup(ctx, database.AddMenuItemOptionGroupParams{
			MenuItemID:    menuItemID,
			OptionGroupID: gid,
		})
		if err != nil {
			if isForeignKeyViolation(err) {
				return errInvalidOptionGroup
			}
			return fmt.Errorf("add mapping %d: %w", gid, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
