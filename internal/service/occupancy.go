package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/logger"
)

// OccupancyStore defines the DB methods needed by the reconciler.
// Satisfied by *database.Queries.
type OccupancyStore interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	CountActiveOrders(ctx context.Context, arg database.CountActiveOrdersParams) (int64, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.Table, error)
}

// ReconcileResult reports the table state after reconciliation.
type ReconcileResult struct {
	Table        database.Table
	ActiveOrders int64
	Changed      bool
}

// Occupancy derives a table's status from its orders. It is the only writer
// that computes Table.status from Order.status aggregates.
//
// Reconciliation is best-effort relative to the order mutation that
// triggered it: failures are logged here and callers are free to ignore the
// returned error.
type Occupancy struct {
	store OccupancyStore
	log   *logger.Logger

	// ActiveSet holds the order statuses that keep a table occupied.
	// Defaults to {pending, preparing}; deployments that want "ready" to
	// hold the table include it via config.
	ActiveSet []string
}

// NewOccupancy creates a reconciler. activeSet nil means the default set.
func NewOccupancy(store OccupancyStore, log *logger.Logger, activeSet []string) *Occupancy {
	if activeSet == nil {
		activeSet = enum.ActiveStatuses
	}
	return &Occupancy{store: store, log: log, ActiveSet: activeSet}
}

// Reconcile recomputes the table's status:
//
//   - any order in the ActiveSet -> occupied
//   - none, and the table was occupied -> available
//   - none, and the table was manually reserved -> left alone
//
// Calling it twice without intervening order changes yields the same status.
func (o *Occupancy) Reconcile(ctx context.Context, tableID uuid.UUID) (ReconcileResult, error) {
	table, err := o.store.GetTable(ctx, tableID)
	if err != nil {
		o.logError("reconcile: get table", err, tableID)
		return ReconcileResult{}, fmt.Errorf("get table: %w", err)
	}

	active, err := o.store.CountActiveOrders(ctx, database.CountActiveOrdersParams{
		TableID:  tableID,
		Statuses: o.ActiveSet,
	})
	if err != nil {
		o.logError("reconcile: count active orders", err, tableID)
		return ReconcileResult{}, fmt.Errorf("count active orders: %w", err)
	}

	desired := table.Status
	switch {
	case active > 0:
		desired = enum.TableStatusOccupied
	case table.Status == enum.TableStatusOccupied:
		desired = enum.TableStatusAvailable
	}

	result := ReconcileResult{Table: table, ActiveOrders: active}
	if desired == table.Status {
		return result, nil
	}

	updated, err := o.store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
		ID:     tableID,
		Status: desired,
	})
	if err != nil {
		o.logError("reconcile: update table status", err, tableID)
		return result, fmt.Errorf("update table status: %w", err)
	}

	result.Table = updated
	result.Changed = true
	return result, nil
}

func (o *Occupancy) logError(msg string, err error, tableID uuid.UUID) {
	if o.log != nil {
		o.log.Error(msg, err, "table_id", tableID.String())
	}
}
