package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
)

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrCustomerNameRequired = errors.New("customer_name is required")
	ErrItemNameRequired     = errors.New("item name is required")
	ErrInvalidQuantity      = errors.New("quantity must be >= 1")
	ErrInvalidUnitPrice     = errors.New("invalid unit_price")
	ErrInvalidMenuItemID    = errors.New("invalid menu_item_id")
	ErrTableNotFound        = errors.New("table not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrStatusConflict       = errors.New("order status changed, please retry")
)

// Event types published on order/table mutations.
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventOrderDeleted = "order.deleted"
	EventTableUpdated = "table.updated"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetSettings(ctx context.Context) (database.Settings, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	GetTableByNumber(ctx context.Context, number int32) (database.Table, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.Table, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	DeleteCompletedOrdersByTable(ctx context.Context, tableID uuid.UUID) (int64, error)
	CountActiveOrders(ctx context.Context, arg database.CountActiveOrdersParams) (int64, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// EventPublisher fans order/table mutations out to dashboard clients.
// Publishing is fire-and-forget; the polling refresh loop remains the
// consistency mechanism.
type EventPublisher interface {
	Publish(eventType string, payload any)
}

// CreateOrderRequest is the validated input for a customer order submission.
type CreateOrderRequest struct {
	TableNumber         int32
	CustomerName        string
	SpecialInstructions string
	IsPackage           bool
	Items               []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single line in the order. UnitPrice is the
// price quoted to the customer at browse time; the stored total is derived
// from it and never recomputed from live menu prices.
type CreateOrderItemRequest struct {
	MenuItemID string
	Name       string
	UnitPrice  string
	Quantity   int32
}

// CreateOrderResult is the created order with its items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// PurgeResult reports what a completed-order purge did.
type PurgeResult struct {
	DeletedCount       int64
	TableStatusUpdated bool
}

// OrderService owns the order lifecycle: creation, status transitions,
// deletion, and the completed-order purge. Every mutation that can change a
// table's occupancy triggers the reconciler as a best-effort side effect.
type OrderService struct {
	pool      TxBeginner
	store     OrderStore // pool-backed, for single-statement operations
	newStore  NewOrderStore
	occupancy *Occupancy
	events    EventPublisher
}

// NewOrderService creates a new OrderService. events may be nil.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore, occupancy *Occupancy, events EventPublisher) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore, occupancy: occupancy, events: events}
}

// processedItem holds a prepared order item insert.
type processedItem struct {
	params database.CreateOrderItemParams
}

// CreateOrder validates the submission, computes the total from the
// submitted unit prices, and writes the order atomically. The table is
// reconciled to occupied after commit.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	// --- Validate + price items ---
	total := decimal.Zero
	items := make([]processedItem, 0, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if item.Name == "" {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrItemNameRequired)
		}
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil || unitPrice.IsNegative() {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidUnitPrice)
		}

		menuItemID := pgtype.UUID{}
		if item.MenuItemID != "" {
			mid, err := uuid.Parse(item.MenuItemID)
			if err != nil {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidMenuItemID)
			}
			menuItemID = pgtype.UUID{Bytes: mid, Valid: true}
		}

		total = total.Add(unitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
		items = append(items, processedItem{
			params: database.CreateOrderItemParams{
				MenuItemID: menuItemID,
				Name:       item.Name,
				UnitPrice:  decimalToNumeric(unitPrice),
				Quantity:   item.Quantity,
			},
		})
	}

	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Apply restaurant settings ---
	requireName := true
	allowInstructions := true
	settings, err := store.GetSettings(ctx)
	switch {
	case err == nil:
		requireName = settings.RequireCustomerName
		allowInstructions = settings.EnableSpecialInstructions
	case errors.Is(err, pgx.ErrNoRows):
		// Unconfigured restaurant keeps the defaults.
	default:
		return nil, fmt.Errorf("get settings: %w", err)
	}

	if requireName && req.CustomerName == "" {
		return nil, ErrCustomerNameRequired
	}

	instructions := pgtype.Text{}
	if allowInstructions && req.SpecialInstructions != "" {
		instructions = pgtype.Text{String: req.SpecialInstructions, Valid: true}
	}

	// --- Resolve table and denormalize its number ---
	table, err := store.GetTableByNumber(ctx, req.TableNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}

	// --- Insert order + items ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		TableID:             table.ID,
		TableNumber:         table.Number,
		CustomerName:        req.CustomerName,
		Total:               decimalToNumeric(total),
		Status:              enum.OrderStatusPending,
		PaymentStatus:       enum.PaymentStatusPending,
		SpecialInstructions: instructions,
		IsPackage:           req.IsPackage,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	created := make([]database.OrderItem, 0, len(items))
	for _, pi := range items {
		pi.params.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, pi.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		created = append(created, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	// A fresh pending order always makes the table occupied.
	s.reconcile(ctx, order.TableID)
	s.publish(EventOrderCreated, order)

	return &CreateOrderResult{Order: order, Items: created}, nil
}

// allowedTransitions defines valid status transitions. Completed and
// cancelled are terminal; cancellation is reachable from any other state.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPending:   {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusCancelled},
	enum.OrderStatusReady:     {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
}

func validateTransition(current, next string) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
}

// SetStatus moves an order through its lifecycle. The write is a
// compare-and-swap against the status read here, so two staff members
// racing on the same order surface ErrStatusConflict instead of a silent
// lost update. Reaching a terminal status triggers occupancy reconciliation.
func (s *OrderService) SetStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (database.Order, error) {
	if !enum.IsValidOrderStatus(newStatus) {
		return database.Order{}, ErrInvalidStatus
	}

	store := s.store

	current, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if err := validateTransition(current.Status, newStatus); err != nil {
		return database.Order{}, err
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:             orderID,
		Status:         newStatus,
		ExpectedStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrStatusConflict
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if enum.IsTerminal(newStatus) {
		s.reconcile(ctx, updated.TableID)
	}
	s.publish(EventOrderUpdated, updated)

	return updated, nil
}

// Delete removes a single order and reconciles its table afterwards.
func (s *OrderService) Delete(ctx context.Context, orderID uuid.UUID) error {
	store := s.store

	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order: %w", err)
	}

	if err := store.DeleteOrder(ctx, orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("delete order: %w", err)
	}

	s.reconcile(ctx, order.TableID)
	s.publish(EventOrderDeleted, order)
	return nil
}

// PurgeCompleted deletes every completed order for the table, then frees the
// table when no pending or preparing orders remain. "ready" is deliberately
// not counted here, whatever the reconciler's configured ActiveSet says.
func (s *OrderService) PurgeCompleted(ctx context.Context, tableID uuid.UUID) (PurgeResult, error) {
	store := s.store

	table, err := store.GetTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurgeResult{}, ErrTableNotFound
		}
		return PurgeResult{}, fmt.Errorf("get table: %w", err)
	}

	deleted, err := store.DeleteCompletedOrdersByTable(ctx, tableID)
	if err != nil {
		return PurgeResult{}, fmt.Errorf("delete completed orders: %w", err)
	}

	active, err := store.CountActiveOrders(ctx, database.CountActiveOrdersParams{
		TableID:  tableID,
		Statuses: enum.ActiveStatuses,
	})
	if err != nil {
		return PurgeResult{}, fmt.Errorf("count active orders: %w", err)
	}

	result := PurgeResult{DeletedCount: deleted}
	if active == 0 && table.Status != enum.TableStatusAvailable {
		freed, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
			ID:     tableID,
			Status: enum.TableStatusAvailable,
		})
		if err != nil {
			return result, fmt.Errorf("free table: %w", err)
		}
		result.TableStatusUpdated = true
		s.publish(EventTableUpdated, freed)
	}

	return result, nil
}

// reconcile runs occupancy reconciliation as a best-effort side effect.
// Failures are logged by the reconciler and never abort the caller.
func (s *OrderService) reconcile(ctx context.Context, tableID uuid.UUID) {
	if s.occupancy == nil {
		return
	}
	res, err := s.occupancy.Reconcile(ctx, tableID)
	if err == nil && res.Changed {
		s.publish(EventTableUpdated, res.Table)
	}
}

func (s *OrderService) publish(eventType string, payload any) {
	if s.events != nil {
		s.events.Publish(eventType, payload)
	}
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
