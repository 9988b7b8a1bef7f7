package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
)

type mockOccupancyStore struct {
	table       database.Table
	tableErr    error
	active      int64
	activeErr   error
	updates     []string
	lastCounted []string
}

func (m *mockOccupancyStore) GetTable(ctx context.Context, id uuid.UUID) (database.Table, error) {
	return m.table, m.tableErr
}

func (m *mockOccupancyStore) CountActiveOrders(ctx context.Context, arg database.CountActiveOrdersParams) (int64, error) {
	m.lastCounted = arg.Statuses
	return m.active, m.activeErr
}

func (m *mockOccupancyStore) UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.Table, error) {
	m.updates = append(m.updates, arg.Status)
	updated := m.table
	updated.Status = arg.Status
	return updated, nil
}

func TestReconcileOccupiesTableWithActiveOrders(t *testing.T) {
	store := &mockOccupancyStore{
		table:  database.Table{ID: uuid.New(), Status: enum.TableStatusAvailable},
		active: 2,
	}
	o := NewOccupancy(store, nil, nil)

	result, err := o.Reconcile(context.Background(), store.table.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !result.Changed {
		t.Error("expected a status change")
	}
	if result.Table.Status != enum.TableStatusOccupied {
		t.Errorf("status = %s, want occupied", result.Table.Status)
	}
	if result.ActiveOrders != 2 {
		t.Errorf("active = %d, want 2", result.ActiveOrders)
	}
}

func TestReconcileFreesOccupiedTableWithoutActiveOrders(t *testing.T) {
	store := &mockOccupancyStore{
		table:  database.Table{ID: uuid.New(), Status: enum.TableStatusOccupied},
		active: 0,
	}
	o := NewOccupancy(store, nil, nil)

	result, err := o.Reconcile(context.Background(), store.table.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !result.Changed || result.Table.Status != enum.TableStatusAvailable {
		t.Errorf("got changed=%v status=%s, want changed available", result.Changed, result.Table.Status)
	}
}

func TestReconcilePreservesReservedTable(t *testing.T) {
	store := &mockOccupancyStore{
		table:  database.Table{ID: uuid.New(), Status: enum.TableStatusReserved},
		active: 0,
	}
	o := NewOccupancy(store, nil, nil)

	result, err := o.Reconcile(context.Background(), store.table.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Changed {
		t.Error("reserved table was touched")
	}
	if len(store.updates) != 0 {
		t.Errorf("writes = %v, want none", store.updates)
	}
}

func TestReconcileReservedTableWithOrdersBecomesOccupied(t *testing.T) {
	store := &mockOccupancyStore{
		table:  database.Table{ID: uuid.New(), Status: enum.TableStatusReserved},
		active: 1,
	}
	o := NewOccupancy(store, nil, nil)

	result, err := o.Reconcile(context.Background(), store.table.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !result.Changed || result.Table.Status != enum.TableStatusOccupied {
		t.Errorf("got changed=%v status=%s, want occupied", result.Changed, result.Table.Status)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := &mockOccupancyStore{
		table:  database.Table{ID: uuid.New(), Status: enum.TableStatusOccupied},
		active: 1,
	}
	o := NewOccupancy(store, nil, nil)

	for i := 0; i < 2; i++ {
		result, err := o.Reconcile(context.Background(), store.table.ID)
		if err != nil {
			t.Fatalf("Reconcile #%d: %v", i+1, err)
		}
		if result.Changed {
			t.Errorf("Reconcile #%d reported a change with stable inputs", i+1)
		}
	}
	if len(store.updates) != 0 {
		t.Errorf("writes = %v, want none", store.updates)
	}
}

func TestReconcileActiveSetDefaultsExcludeReady(t *testing.T) {
	store := &mockOccupancyStore{
		table: database.Table{ID: uuid.New(), Status: enum.TableStatusAvailable},
	}
	o := NewOccupancy(store, nil, nil)

	if _, err := o.Reconcile(context.Background(), store.table.ID); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	for _, s := range store.lastCounted {
		if s == enum.OrderStatusReady {
			t.Fatalf("default active set %v includes ready", store.lastCounted)
		}
	}
}

func TestReconcileActiveSetCanIncludeReady(t *testing.T) {
	store := &mockOccupancyStore{
		table: database.Table{ID: uuid.New(), Status: enum.TableStatusAvailable},
	}
	o := NewOccupancy(store, nil, enum.ActiveStatusesWithReady)

	if _, err := o.Reconcile(context.Background(), store.table.ID); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	found := false
	for _, s := range store.lastCounted {
		if s == enum.OrderStatusReady {
			found = true
		}
	}
	if !found {
		t.Fatalf("configured active set %v missing ready", store.lastCounted)
	}
}

func TestReconcileTableLookupError(t *testing.T) {
	store := &mockOccupancyStore{tableErr: pgx.ErrNoRows}
	o := NewOccupancy(store, nil, nil)

	if _, err := o.Reconcile(context.Background(), uuid.New()); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("err = %v, want wrapped pgx.ErrNoRows", err)
	}
}
