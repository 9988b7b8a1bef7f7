package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, table_id, table_number, customer_name, total, status,
	payment_status, checkout_session_id, special_instructions, is_package,
	created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.TableID, &o.TableNumber, &o.CustomerName, &o.Total,
		&o.Status, &o.PaymentStatus, &o.CheckoutSessionID,
		&o.SpecialInstructions, &o.IsPackage, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

type CreateOrderParams struct {
	TableID             uuid.UUID
	TableNumber         int32
	CustomerName        string
	Total               pgtype.Numeric
	Status              string
	PaymentStatus       string
	SpecialInstructions pgtype.Text
	IsPackage           bool
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (table_id, table_number, customer_name, total, status,
			payment_status, special_instructions, is_package)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+orderColumns,
		arg.TableID, arg.TableNumber, arg.CustomerName, arg.Total,
		arg.Status, arg.PaymentStatus, arg.SpecialInstructions, arg.IsPackage,
	)
	return scanOrder(row)
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

type ListOrdersParams struct {
	// Statuses filters by status when non-empty.
	Statuses []string
	// TableID filters by table when valid.
	TableID pgtype.UUID
}

// ListOrders returns orders newest first, optionally filtered by status set
// and table.
func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE (cardinality($1::text[]) = 0 OR status = ANY($1::text[]))
		  AND ($2::uuid IS NULL OR table_id = $2)
		ORDER BY created_at DESC`,
		arg.Statuses, arg.TableID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID             uuid.UUID
	Status         string
	ExpectedStatus string
}

// UpdateOrderStatus is a compare-and-swap: it only writes when the stored
// status still matches ExpectedStatus, and returns pgx.ErrNoRows otherwise.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING `+orderColumns,
		arg.ID, arg.Status, arg.ExpectedStatus,
	)
	return scanOrder(row)
}

type UpdateOrderPaymentStatusParams struct {
	ID            uuid.UUID
	PaymentStatus string
}

func (q *Queries) UpdateOrderPaymentStatus(ctx context.Context, arg UpdateOrderPaymentStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET payment_status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.PaymentStatus,
	)
	return scanOrder(row)
}

type SetOrderCheckoutSessionParams struct {
	ID                uuid.UUID
	CheckoutSessionID pgtype.Text
}

func (q *Queries) SetOrderCheckoutSession(ctx context.Context, arg SetOrderCheckoutSessionParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET checkout_session_id = $2, payment_status = 'pending', updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.CheckoutSessionID,
	)
	return scanOrder(row)
}

func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteCompletedOrdersByTable removes all completed orders for a table and
// returns how many were deleted. Order items cascade.
func (q *Queries) DeleteCompletedOrdersByTable(ctx context.Context, tableID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM orders WHERE table_id = $1 AND status = 'completed'`, tableID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type CountActiveOrdersParams struct {
	TableID  uuid.UUID
	Statuses []string
}

func (q *Queries) CountActiveOrders(ctx context.Context, arg CountActiveOrdersParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM orders
		WHERE table_id = $1 AND status = ANY($2::text[])`,
		arg.TableID, arg.Statuses,
	).Scan(&count)
	return count, err
}

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID pgtype.UUID
	Name       string
	UnitPrice  pgtype.Numeric
	Quantity   int32
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, menu_item_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, order_id, menu_item_id, name, unit_price, quantity`,
		arg.OrderID, arg.MenuItemID, arg.Name, arg.UnitPrice, arg.Quantity,
	).Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.UnitPrice, &it.Quantity)
	return it, err
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, menu_item_id, name, unit_price, quantity
		FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type OrderItemTotalsRow struct {
	MenuItemID    uuid.UUID
	OrderCount    int64
	TotalQuantity int64
}

// ListOrderItemTotals aggregates how often each menu item has been ordered,
// across all orders. Feeds the statistics endpoint.
func (q *Queries) ListOrderItemTotals(ctx context.Context) ([]OrderItemTotalsRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT menu_item_id, count(*), coalesce(sum(quantity), 0)
		FROM order_items
		WHERE menu_item_id IS NOT NULL
		GROUP BY menu_item_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []OrderItemTotalsRow
	for rows.Next() {
		var t OrderItemTotalsRow
		if err := rows.Scan(&t.MenuItemID, &t.OrderCount, &t.TotalQuantity); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
