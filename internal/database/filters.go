package database

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// OrderFilter narrows the admin order list. Zero values mean "no filter";
// To is exclusive.
type OrderFilter struct {
	Status string
	From   time.Time
	To     time.Time
	Limit  uint64
	Offset uint64
}

func (f OrderFilter) apply(b sq.SelectBuilder) sq.SelectBuilder {
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	if !f.From.IsZero() {
		b = b.Where(sq.GtOrEq{"created_at": f.From})
	}
	if !f.To.IsZero() {
		b = b.Where(sq.Lt{"created_at": f.To})
	}
	return b
}

// ListOrdersFiltered returns one page of orders, newest first.
func (q *Queries) ListOrdersFiltered(ctx context.Context, f OrderFilter) ([]Order, error) {
	b := f.apply(psql.Select(orderColumns).From("orders")).
		OrderBy("created_at DESC", "id DESC")
	if f.Limit > 0 {
		b = b.Limit(f.Limit)
	}
	if f.Offset > 0 {
		b = b.Offset(f.Offset)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list orders query: %w", err)
	}

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// CountOrdersFiltered ignores Limit and Offset.
func (q *Queries) CountOrdersFiltered(ctx context.Context, f OrderFilter) (int64, error) {
	query, args, err := f.apply(psql.Select("count(*)").From("orders")).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count orders query: %w", err)
	}
	var count int64
	err = q.db.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

// SalesRange bounds a sales report; zero values are open ends, To is exclusive.
type SalesRange struct {
	From time.Time
	To   time.Time
}

func (r SalesRange) apply(b sq.SelectBuilder, col string) sq.SelectBuilder {
	b = b.Where(sq.NotEq{"o.status": "CANCELLED"})
	if !r.From.IsZero() {
		b = b.Where(sq.GtOrEq{col: r.From})
	}
	if !r.To.IsZero() {
		b = b.Where(sq.Lt{col: r.To})
	}
	return b
}

type SalesSummaryRow struct {
	TotalOrders int64          `json:"total_orders"`
	Revenue     pgtype.Numeric `json:"revenue"`
}

// GetSalesSummary excludes cancelled orders.
func (q *Queries) GetSalesSummary(ctx context.Context, r SalesRange) (SalesSummaryRow, error) {
	query, args, err := r.apply(
		psql.Select("count(*)", "COALESCE(sum(o.subtotal), 0)").From("orders o"),
		"o.created_at",
	).ToSql()
	if err != nil {
		return SalesSummaryRow{}, fmt.Errorf("build sales summary query: %w", err)
	}
	var i SalesSummaryRow
	err = q.db.QueryRow(ctx, query, args...).Scan(&i.TotalOrders, &i.Revenue)
	return i, err
}

type TopItemRow struct {
	ItemName string         `json:"item_name"`
	Quantity int64          `json:"quantity"`
	Revenue  pgtype.Numeric `json:"revenue"`
}

// ListTopItems groups line items by their name snapshot so renamed or
// deleted catalog items still report under the name they were sold as.
func (q *Queries) ListTopItems(ctx context.Context, r SalesRange, limit uint64) ([]TopItemRow, error) {
	b := r.apply(
		psql.Select("oi.item_name_snapshot", "sum(oi.quantity)", "sum(oi.line_total)").
			From("order_items oi").
			Join("orders o ON o.id = oi.order_id"),
		"o.created_at",
	).
		GroupBy("oi.item_name_snapshot").
		OrderBy("sum(oi.line_total) DESC", "oi.item_name_snapshot").
		Limit(limit)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build top items query: %w", err)
	}

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []TopItemRow{}
	for rows.Next() {
		var i TopItemRow
		if err := rows.Scan(&i.ItemName, &i.Quantity, &i.Revenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
