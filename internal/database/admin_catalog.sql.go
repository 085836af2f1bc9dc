package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Categories ---

const categoryColumns = `id, name, sort_order, is_active, created_at, updated_at`

func scanCategory(row pgx.Row) (Category, error) {
	var i Category
	err := row.Scan(&i.ID, &i.Name, &i.SortOrder, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listCategories = `-- name: ListCategories :many
SELECT ` + categoryColumns + ` FROM categories ORDER BY sort_order, id`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Category{}
	for rows.Next() {
		i, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (name, sort_order) VALUES ($1, $2)
RETURNING ` + categoryColumns

type CreateCategoryParams struct {
	Name      string `json:"name"`
	SortOrder int32  `json:"sort_order"`
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, createCategory, arg.Name, arg.SortOrder))
}

const updateCategory = `-- name: UpdateCategory :one
UPDATE categories
SET name = COALESCE($2, name),
    sort_order = COALESCE($3, sort_order),
    updated_at = now()
WHERE id = $1
RETURNING ` + categoryColumns

type UpdateCategoryParams struct {
	ID        int64       `json:"id"`
	Name      pgtype.Text `json:"name"`
	SortOrder pgtype.Int4 `json:"sort_order"`
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, updateCategory, arg.ID, arg.Name, arg.SortOrder))
}

const setCategoryActive = `-- name: SetCategoryActive :one
UPDATE categories SET is_active = $2, updated_at = now() WHERE id = $1
RETURNING ` + categoryColumns

type SetActiveParams struct {
	ID       int64 `json:"id"`
	IsActive bool  `json:"is_active"`
}

func (q *Queries) SetCategoryActive(ctx context.Context, arg SetActiveParams) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, setCategoryActive, arg.ID, arg.IsActive))
}

// --- Menu items ---

const menuItemColumns = `id, category_id, name, description, base_price, image_url, is_active, created_at, updated_at`

func scanMenuItem(row pgx.Row) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.CategoryID,
		&i.Name,
		&i.Description,
		&i.BasePrice,
		&i.ImageUrl,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listMenuItems = `-- name: ListMenuItems :many
SELECT ` + menuItemColumns + ` FROM menu_items ORDER BY category_id, id`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getMenuItem = `-- name: GetMenuItem :one
SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`

func (q *Queries) GetMenuItem(ctx context.Context, id int64) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu_items (category_id, name, description, base_price, image_url)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + menuItemColumns

type CreateMenuItemParams struct {
	CategoryID  int64          `json:"category_id"`
	Name        string         `json:"name"`
	Description pgtype.Text    `json:"description"`
	BasePrice   pgtype.Numeric `json:"base_price"`
	ImageUrl    pgtype.Text    `json:"image_url"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem,
		arg.CategoryID,
		arg.Name,
		arg.Description,
		arg.BasePrice,
		arg.ImageUrl,
	))
}

const updateMenuItem = `-- name: UpdateMenuItem :one
UPDATE menu_items
SET category_id = COALESCE($2, category_id),
    name = COALESCE($3, name),
    description = COALESCE($4, description),
    base_price = COALESCE($5, base_price),
    image_url = COALESCE($6, image_url),
    updated_at = now()
WHERE id = $1
RETURNING ` + menuItemColumns

type UpdateMenuItemParams struct {
	ID          int64          `json:"id"`
	CategoryID  pgtype.Int8    `json:"category_id"`
	Name        pgtype.Text    `json:"name"`
	Description pgtype.Text    `json:"description"`
	BasePrice   pgtype.Numeric `json:"base_price"`
	ImageUrl    pgtype.Text    `json:"image_url"`
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.CategoryID,
		arg.Name,
		arg.Description,
		arg.BasePrice,
		arg.ImageUrl,
	))
}

const setMenuItemActive = `-- name: SetMenuItemActive :one
UPDATE menu_items SET is_active = $2, updated_at = now() WHERE id = $1
RETURNING ` + menuItemColumns

func (q *Queries) SetMenuItemActive(ctx context.Context, arg SetActiveParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, setMenuItemActive, arg.ID, arg.IsActive))
}

// --- Option groups ---

const optionGroupColumns = `id, name, selection_type, is_required, sort_order, is_active, created_at, updated_at`

func scanOptionGroup(row pgx.Row) (OptionGroup, error) {
	var i OptionGroup
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.SelectionType,
		&i.IsRequired,
		&i.SortOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listOptionGroups = `-- name: ListOptionGroups :many
SELECT ` + optionGroupColumns + ` FROM option_groups ORDER BY sort_order, id`

func (q *Queries) ListOptionGroups(ctx context.Context) ([]OptionGroup, error) {
	rows, err := q.db.Query(ctx, listOptionGroups)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OptionGroup{}
	for rows.Next() {
		i, err := scanOptionGroup(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createOptionGroup = `-- name: CreateOptionGroup :one
INSERT INTO option_groups (name, selection_type, is_required, sort_order)
VALUES ($1, $2, $3, $4)
RETURNING ` + optionGroupColumns

type CreateOptionGroupParams struct {
	Name          string `json:"name"`
	SelectionType string `json:"selection_type"`
	IsRequired    bool   `json:"is_required"`
	SortOrder     int32  `json:"sort_order"`
}

func (q *Queries) CreateOptionGroup(ctx context.Context, arg CreateOptionGroupParams) (OptionGroup, error) {
	return scanOptionGroup(q.db.QueryRow(ctx, createOptionGroup,
		arg.Name,
		arg.SelectionType,
		arg.IsRequired,
		arg.SortOrder,
	))
}

const updateOptionGroup = `-- name: UpdateOptionGroup :one
UPDATE option_groups
SET name = COALESCE($2, name),
    selection_type = COALESCE($3, selection_type),
    is_required = COALESCE($4, is_required),
    sort_order = COALESCE($5, sort_order),
    is_active = COALESCE($6, is_active),
    updated_at = now()
WHERE id = $1
RETURNING ` + optionGroupColumns

type UpdateOptionGroupParams struct {
	ID            int64       `json:"id"`
	Name          pgtype.Text `json:"name"`
	SelectionType pgtype.Text `json:"selection_type"`
	IsRequired    pgtype.Bool `json:"is_required"`
	SortOrder     pgtype.Int4 `json:"sort_order"`
	IsActive      pgtype.Bool `json:"is_active"`
}

func (q *Queries) UpdateOptionGroup(ctx context.Context, arg UpdateOptionGroupParams) (OptionGroup, error) {
	return scanOptionGroup(q.db.QueryRow(ctx, updateOptionGroup,
		arg.ID,
		arg.Name,
		arg.SelectionType,
		arg.IsRequired,
		arg.SortOrder,
		arg.IsActive,
	))
}

// --- Options ---

const optionColumns = `id, option_group_id, label, price_delta, sort_order, is_active, created_at, updated_at`

func scanOption(row pgx.Row) (Option, error) {
	var i Option
	err := row.Scan(
		&i.ID,
		&i.OptionGroupID,
		&i.Label,
		&i.PriceDelta,
		&i.SortOrder,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listOptions = `-- name: ListOptions :many
SELECT ` + optionColumns + ` FROM options ORDER BY option_group_id, sort_order, id`

func (q *Queries) ListOptions(ctx context.Context) ([]Option, error) {
	rows, err := q.db.Query(ctx, listOptions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Option{}
	for rows.Next() {
		i, err := scanOption(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const createOption = `-- name: CreateOption :one
INSERT INTO options (option_group_id, label, price_delta, sort_order)
VALUES ($1, $2, $3, $4)
RETURNING ` + optionColumns

type CreateOptionParams struct {
	OptionGroupID int64          `json:"option_group_id"`
	Label         string         `json:"label"`
	PriceDelta    pgtype.Numeric `json:"price_delta"`
	SortOrder     int32          `json:"sort_order"`
}

func (q *Queries) CreateOption(ctx context.Context, arg CreateOptionParams) (Option, error) {
	return scanOption(q.db.QueryRow(ctx, createOption,
		arg.OptionGroupID,
		arg.Label,
		arg.PriceDelta,
		arg.SortOrder,
	))
}

const updateOption = `-- name: UpdateOption :one
UPDATE options
SET option_group_id = COALESCE($2, option_group_id),
    label = COALESCE($3, label),
    price_delta = COALESCE($4, price_delta),
    sort_order = COALESCE($5, sort_order),
    is_active = COALESCE($6, is_active),
    updated_at = now()
WHERE id = $1
RETURNING ` + optionColumns

type UpdateOptionParams struct {
	ID            int64          `json:"id"`
	OptionGroupID pgtype.Int8    `json:"option_group_id"`
	Label         pgtype.Text    `json:"label"`
	PriceDelta    pgtype.Numeric `json:"price_delta"`
	SortOrder     pgtype.Int4    `json:"sort_order"`
	IsActive      pgtype.Bool    `json:"is_active"`
}

func (q *Queries) UpdateOption(ctx context.Context, arg UpdateOptionParams) (Option, error) {
	return scanOption(q.db.QueryRow(ctx, updateOption,
		arg.ID,
		arg.OptionGroupID,
		arg.Label,
		arg.PriceDelta,
		arg.SortOrder,
		arg.IsActive,
	))
}

// --- Item <-> option group mapping ---

const deleteMenuItemOptionGroups = `-- name: DeleteMenuItemOptionGroups :exec
DELETE FROM menu_item_option_groups WHERE menu_item_id = $1`

func (q *Queries) DeleteMenuItemOptionGroups(ctx context.Context, menuItemID int64) error {
	_, err := q.db.Exec(ctx, deleteMenuItemOptionGroups, menuItemID)
	return err
}

const addMenuItemOptionGroup = `-- name: AddMenuItemOptionGroup :exec
INSERT INTO menu_item_option_groups (menu_item_id, option_group_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING`

type AddMenuItemOptionGroupParams struct {
	MenuItemID    int64 `json:"menu_item_id"`
	OptionGroupID int64 `json:"option_group_id"`
}

func (q *Queries) AddMenuItemOptionGroup(ctx context.Context, arg AddMenuItemOptionGroupParams) error {
	_, err := q.db.Exec(ctx, addMenuItemOptionGroup, arg.MenuItemID, arg.OptionGroupID)
	return err
}

const listMenuItemOptionGroupIDs = `-- name: ListMenuItemOptionGroupIDs :many
SELECT option_group_id FROM menu_item_option_groups WHERE menu_item_id = $1 ORDER BY option_group_id`

func (q *Queries) ListMenuItemOptionGroupIDs(ctx context.Context, menuItemID int64) ([]int64, error) {
	rows, err := q.db.Query(ctx, listMenuItemOptionGroupIDs, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
