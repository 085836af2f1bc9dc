package handler

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/bobabar/api/internal/database"
	"github.com/bobabar/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// CatalogStore defines the database methods needed by admin catalog handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error)
	UpdateCategory(ctx context.Context, arg database.UpdateCategoryParams) (database.Category, error)
	SetCategoryActive(ctx context.Context, arg database.SetActiveParams) (database.Category, error)

	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	SetMenuItemActive(ctx context.Context, arg database.SetActiveParams) (database.MenuItem, error)
	ListMenuItemOptionGroupIDs(ctx context.Context, menuItemID int64) ([]int64, error)

	ListOptionGroups(ctx context.Context) ([]database.OptionGroup, error)
	CreateOptionGroup(ctx context.Context, arg database.CreateOptionGroupParams) (database.OptionGroup, error)
	UpdateOptionGroup(ctx context.Context, arg database.UpdateOptionGroupParams) (database.OptionGroup, error)

	ListOptions(ctx context.Context) ([]database.Option, error)
	CreateOption(ctx context.Context, arg database.CreateOptionParams) (database.Option, error)
	UpdateOption(ctx context.Context, arg database.UpdateOptionParams) (database.Option, error)
}

// MappingStore defines the DB methods used to replace an item's option groups.
// Satisfied by *database.Queries (and its WithTx variant).
type MappingStore interface {
	GetMenuItem(ctx context.Context, id int64) (database.MenuItem, error)
	DeleteMenuItemOptionGroups(ctx context.Context, menuItemID int64) error
	AddMenuItemOptionGroup(ctx context.Context, arg database.AddMenuItemOptionGroupParams) error
}

// NewMappingStore creates a MappingStore from a DBTX (pool or tx).
type NewMappingStore func(db database.DBTX) MappingStore

// CatalogHandler handles admin catalog endpoints: categories, items,
// option groups, options and the item to option group mapping.
type CatalogHandler struct {
	store           CatalogStore
	pool            service.TxBeginner
	newMappingStore NewMappingStore
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(store CatalogStore, pool service.TxBeginner, newMappingStore NewMappingStore) *CatalogHandler {
	return &CatalogHandler{store: store, pool: pool, newMappingStore: newMappingStore}
}

// RegisterRoutes registers admin catalog endpoints on the given Chi router.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)
	r.Patch("/categories/{id}", h.UpdateCategory)
	r.Patch("/categories/{id}/active", h.SetCategoryActive)

	r.Get("/items", h.ListItems)
	r.Post("/items", h.CreateItem)
	r.Patch("/items/{id}", h.UpdateItem)
	r.Patch("/items/{id}/active", h.SetItemActive)
	r.Get("/items/{id}/option-groups", h.GetItemOptionGroups)
	r.Post("/items/{id}/option-groups", h.SetItemOptionGroups)

	r.Get("/option-groups", h.ListOptionGroups)
	r.Post("/option-groups", h.CreateOptionGroup)
	r.Patch("/option-groups/{id}", h.UpdateOptionGroup)

	r.Get("/options", h.ListOptions)
	r.Post("/options", h.CreateOption)
	r.Patch("/options/{id}", h.UpdateOption)
}

// --- Request / Response types ---

type createCategoryRequest struct {
	Name      string `json:"name"`
	SortOrder int32  `json:"sortOrder"`
}

type updateCategoryRequest struct {
	Name      *string `json:"name"`
	SortOrder *int32  `json:"sortOrder"`
}

type setActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

type categoryResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SortOrder int32     `json:"sortOrder"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func toCategoryResponse(c database.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		SortOrder: c.SortOrder,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
	}
}

type createItemRequest struct {
	CategoryID  int64   `json:"categoryId"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	BasePrice   string  `json:"basePrice"`
	ImageURL    *string `json:"imageUrl"`
}

type updateItemRequest struct {
	CategoryID  *int64  `json:"categoryId"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	BasePrice   *string `json:"basePrice"`
	ImageURL    *string `json:"imageUrl"`
}

type itemResponse struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"categoryId"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	BasePrice   string    `json:"basePrice"`
	ImageURL    *string   `json:"imageUrl"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toItemResponse(m database.MenuItem) itemResponse {
	return itemResponse{
		ID:          m.ID,
		CategoryID:  m.CategoryID,
		Name:        m.Name,
		Description: textPtr(m.Description),
		BasePrice:   database.Money(m.BasePrice),
		ImageURL:    textPtr(m.ImageUrl),
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
	}
}

// --- Category handlers ---

// ListCategories returns every category, active or not, in display order.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		writeInternalError(w, "list categories", err)
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = toCategoryResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	category, err := h.store.CreateCategory(r.Context(), database.CreateCategoryParams{
		Name:      name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "category name already exists"})
			return
		}
		writeInternalError(w, "create category", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "category")
	if !ok {
		return
	}

	var req updateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == nil && req.SortOrder == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no fields provided to update"})
		return
	}

	arg := database.UpdateCategoryParams{ID: id}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name cannot be empty"})
			return
		}
		arg.Name = database.Text(name)
	}
	if req.SortOrder != nil {
		arg.SortOrder = pgtype.Int4{Int32: *req.SortOrder, Valid: true}
	}

	category, err := h.store.UpdateCategory(r.Context(), arg)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
		case isUniqueViolation(err):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "category name already exists"})
		default:
			writeInternalError(w, "update category", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

// SetCategoryActive hides or restores a category. Items keep their own flag.
func (h *CatalogHandler) SetCategoryActive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "category")
	if !ok {
		return
	}

	active, ok := decodeActive(w, r)
	if !ok {
		return
	}

	category, err := h.store.SetCategoryActive(r.Context(), database.SetActiveParams{ID: id, IsActive: active})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		writeInternalError(w, "set category active", err)
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

// --- Item handlers ---

func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		writeInternalError(w, "list menu items", err)
		return
	}

	resp := make([]itemResponse, len(items))
	for i, m := range items {
		resp[i] = toItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if req.CategoryID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "categoryId is required and must be a positive integer"})
		return
	}
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	price, err := parsePrice(req.BasePrice)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "basePrice must be a decimal string e.g. 150.00"})
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		CategoryID:  req.CategoryID,
		Name:        name,
		Description: database.Text(strings.TrimSpace(deref(req.Description))),
		BasePrice:   price,
		ImageUrl:    database.Text(strings.TrimSpace(deref(req.ImageURL))),
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid categoryId"})
			return
		}
		writeInternalError(w, "create menu item", err)
		return
	}

	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

func (h *CatalogHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "item")
	if !ok {
		return
	}

	var req updateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CategoryID == nil && req.Name == nil && req.Description == nil && req.BasePrice == nil && req.ImageURL == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no fields provided to update"})
		return
	}

	arg := database.UpdateMenuItemParams{ID: id}
	if req.CategoryID != nil {
		if *req.CategoryID <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "categoryId must be a positive integer"})
			return
		}
		arg.CategoryID = pgtype.Int8{Int64: *req.CategoryID, Valid: true}
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name cannot be empty"})
			return
		}
		arg.Name = database.Text(name)
	}
	if req.Description != nil {
		arg.Description = database.Text(strings.TrimSpace(*req.Description))
	}
	if req.BasePrice != nil {
		price, err := parsePrice(*req.BasePrice)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "basePrice must be a decimal string e.g. 150.00"})
			return
		}
		arg.BasePrice = price
	}
	if req.ImageURL != nil {
		arg.ImageUrl = database.Text(strings.TrimSpace(*req.ImageURL))
	}

	item, err := h.store.UpdateMenuItem(r.Context(), arg)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		case isForeignKeyViolation(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid categoryId"})
		default:
			writeInternalError(w, "update menu item", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// SetItemActive takes an item off the menu. Existing orders keep their
// snapshots; new orders referencing it fail validation.
func (h *CatalogHandler) SetItemActive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "item")
	if !ok {
		return
	}

	active, ok := decodeActive(w, r)
	if !ok {
		return
	}

	item, err := h.store.SetMenuItemActive(r.Context(), database.SetActiveParams{ID: id, IsActive: active})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		writeInternalError(w, "set menu item active", err)
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// --- Helpers ---

var priceRe = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

var errInvalidPrice = errors.New("invalid price")

// parsePrice accepts non-negative decimal strings with at most two
// fractional digits, e.g. "150" or "150.50".
func parsePrice(s string) (pgtype.Numeric, error) {
	s = strings.TrimSpace(s)
	if !priceRe.MatchString(s) {
		return pgtype.Numeric{}, errInvalidPrice
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	return database.ToNumeric(d), nil
}

func decodeActive(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var req setActiveRequest
	if !decodeJSON(w, r, &req) {
		return false, false
	}
	if req.IsActive == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "isActive must be boolean"})
		return false, false
	}
	return *req.IsActive, true
}
