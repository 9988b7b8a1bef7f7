package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/service"
)

type mockTableStore struct {
	tables       []database.Table
	created      *database.CreateTableParams
	statusUpdate *database.UpdateTableStatusParams
	notFound     bool
}

func (m *mockTableStore) CreateTable(ctx context.Context, arg database.CreateTableParams) (database.Table, error) {
	m.created = &arg
	return database.Table{ID: uuid.New(), Number: arg.Number, Capacity: arg.Capacity, Status: arg.Status}, nil
}

func (m *mockTableStore) GetTable(ctx context.Context, id uuid.UUID) (database.Table, error) {
	if m.notFound {
		return database.Table{}, pgx.ErrNoRows
	}
	return database.Table{ID: id, Number: 1, Capacity: 4, Status: enum.TableStatusAvailable}, nil
}

func (m *mockTableStore) ListTables(ctx context.Context) ([]database.Table, error) {
	return m.tables, nil
}

func (m *mockTableStore) UpdateTable(ctx context.Context, arg database.UpdateTableParams) (database.Table, error) {
	if m.notFound {
		return database.Table{}, pgx.ErrNoRows
	}
	return database.Table{ID: arg.ID, Number: arg.Number, Capacity: arg.Capacity, Status: arg.Status}, nil
}

func (m *mockTableStore) UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.Table, error) {
	if m.notFound {
		return database.Table{}, pgx.ErrNoRows
	}
	m.statusUpdate = &arg
	return database.Table{ID: arg.ID, Status: arg.Status}, nil
}

func (m *mockTableStore) DeleteTable(ctx context.Context, id uuid.UUID) error {
	if m.notFound {
		return pgx.ErrNoRows
	}
	return nil
}

type mockReconciler struct {
	result service.ReconcileResult
	err    error
}

func (m *mockReconciler) Reconcile(ctx context.Context, tableID uuid.UUID) (service.ReconcileResult, error) {
	return m.result, m.err
}

func tableTestRouter(h *TableHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/tables", h.RegisterRoutes)
	return r
}

func TestCreateTableDefaultsToAvailable(t *testing.T) {
	store := &mockTableStore{}
	h := NewTableHandler(store, &mockReconciler{})

	req := httptest.NewRequest(http.MethodPost, "/tables",
		bytes.NewBufferString(`{"number":3,"capacity":4}`))
	rec := httptest.NewRecorder()
	tableTestRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	if store.created.Status != enum.TableStatusAvailable {
		t.Errorf("status = %s, want available", store.created.Status)
	}
}

func TestCreateTableValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero number", `{"number":0,"capacity":4}`},
		{"zero capacity", `{"number":1,"capacity":0}`},
		{"bad status", `{"number":1,"capacity":4,"status":"broken"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTableHandler(&mockTableStore{}, &mockReconciler{})

			req := httptest.NewRequest(http.MethodPost, "/tables", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			tableTestRouter(h).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestUpdateTableStatusDefaultsToOccupied(t *testing.T) {
	store := &mockTableStore{}
	h := NewTableHandler(store, &mockReconciler{})

	req := httptest.NewRequest(http.MethodPatch, "/tables/"+uuid.NewString()+"/status",
		bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	tableTestRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if store.statusUpdate.Status != enum.TableStatusOccupied {
		t.Errorf("status = %s, want occupied", store.statusUpdate.Status)
	}
}

func TestReconcileEndpoint(t *testing.T) {
	tableID := uuid.New()
	rc := &mockReconciler{
		result: service.ReconcileResult{
			Table:        database.Table{ID: tableID, Number: 5, Status: enum.TableStatusAvailable},
			ActiveOrders: 0,
			Changed:      true,
		},
	}
	h := NewTableHandler(&mockTableStore{}, rc)

	req := httptest.NewRequest(http.MethodPost, "/tables/"+tableID.String()+"/reconcile", nil)
	rec := httptest.NewRecorder()
	tableTestRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp reconcileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Changed || resp.Table.Status != enum.TableStatusAvailable {
		t.Errorf("resp = %+v", resp)
	}
}

func TestTableNotFoundMapping(t *testing.T) {
	store := &mockTableStore{notFound: true}
	h := NewTableHandler(store, &mockReconciler{err: pgx.ErrNoRows})
	id := uuid.NewString()

	requests := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/tables/"+id, nil),
		httptest.NewRequest(http.MethodPut, "/tables/"+id,
			bytes.NewBufferString(`{"number":1,"capacity":4,"status":"available"}`)),
		httptest.NewRequest(http.MethodPatch, "/tables/"+id+"/status",
			bytes.NewBufferString(`{"status":"occupied"}`)),
		httptest.NewRequest(http.MethodPost, "/tables/"+id+"/reconcile", nil),
		httptest.NewRequest(http.MethodDelete, "/tables/"+id, nil),
	}

	for _, req := range requests {
		rec := httptest.NewRecorder()
		tableTestRouter(h).ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want 404", req.Method, req.URL.Path, rec.Code)
		}
	}
}
