package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	SetStatus(ctx context.Context, orderID uuid.UUID, newStatus string) (database.Order, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	PurgeCompleted(ctx context.Context, tableID uuid.UUID) (service.PurgeResult, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableNumber         int32                    `json:"table_number"`
	CustomerName        string                   `json:"customer_name"`
	SpecialInstructions string                   `json:"special_instructions"`
	IsPackage           bool                     `json:"is_package"`
	Items               []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	UnitPrice  string `json:"unit_price"`
	Quantity   int32  `json:"quantity"`
}

type orderResponse struct {
	ID                  uuid.UUID           `json:"id"`
	TableID             uuid.UUID           `json:"table_id"`
	TableNumber         int32               `json:"table_number"`
	CustomerName        string              `json:"customer_name"`
	Items               []orderItemResponse `json:"items"`
	Total               string              `json:"total"`
	Status              string              `json:"status"`
	PaymentStatus       string              `json:"payment_status"`
	SpecialInstructions *string             `json:"special_instructions"`
	IsPackage           bool                `json:"is_package"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

type orderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID *string   `json:"menu_item_id"`
	Name       string    `json:"name"`
	UnitPrice  string    `json:"unit_price"`
	Quantity   int32     `json:"quantity"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type purgeResponse struct {
	DeletedCount       int64 `json:"deleted_count"`
	TableStatusUpdated bool  `json:"table_status_updated"`
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:                  o.ID,
		TableID:             o.TableID,
		TableNumber:         o.TableNumber,
		CustomerName:        o.CustomerName,
		Total:               numericToString(o.Total),
		Status:              o.Status,
		PaymentStatus:       o.PaymentStatus,
		SpecialInstructions: textPtr(o.SpecialInstructions),
		IsPackage:           o.IsPackage,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}

	resp.Items = make([]orderItemResponse, len(items))
	for i, it := range items {
		resp.Items[i] = toOrderItemResponse(it)
	}
	return resp
}

func toOrderItemResponse(it database.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:        it.ID,
		Name:      it.Name,
		UnitPrice: numericToString(it.UnitPrice),
		Quantity:  it.Quantity,
	}
	if it.MenuItemID.Valid {
		s := uuid.UUID(it.MenuItemID.Bytes).String()
		resp.MenuItemID = &s
	}
	return resp
}

// --- Handlers ---

// Create handles POST /orders (customer order submission).
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.TableNumber <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_number is required"})
		return
	}

	items := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.CreateOrderItemRequest{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		TableNumber:         req.TableNumber,
		CustomerName:        req.CustomerName,
		SpecialInstructions: req.SpecialInstructions,
		IsPackage:           req.IsPackage,
		Items:               items,
	})
	if err != nil {
		if errors.Is(err, service.ErrTableNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		if isOrderValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order, result.Items))
}

// List handles GET /orders. The status filter accepts a comma-separated set,
// e.g. ?status=pending,preparing,ready.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListOrdersParams{}

	if s := r.URL.Query().Get("status"); s != "" {
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if !enum.IsValidOrderStatus(part) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter: " + part})
				return
			}
			params.Statuses = append(params.Statuses, part)
		}
	}

	if s := r.URL.Query().Get("table_id"); s != "" {
		tid, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table_id"})
			return
		}
		params.TableID = pgtype.UUID{Bytes: tid, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items, err := h.store.ListOrderItemsByOrder(r.Context(), o.ID)
		if err != nil {
			log.Printf("ERROR: list order items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp = append(resp, toOrderResponse(o, items))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	updated, err := h.svc.SetStatus(r.Context(), orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrStatusConflict):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(updated, items))
}

// Delete handles DELETE /orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	if err := h.svc.Delete(r.Context(), orderID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: delete order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// PurgeCompleted handles DELETE /orders/completed?table_id=...
// Irreversible: the caller's UI must confirm before hitting this.
func (h *OrderHandler) PurgeCompleted(w http.ResponseWriter, r *http.Request) {
	tidStr := r.URL.Query().Get("table_id")
	if tidStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_id is required"})
		return
	}

	tableID, err := uuid.Parse(tidStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table_id"})
		return
	}

	result, err := h.svc.PurgeCompleted(r.Context(), tableID)
	if err != nil {
		if errors.Is(err, service.ErrTableNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: purge completed orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, purgeResponse{
		DeletedCount:       result.DeletedCount,
		TableStatusUpdated: result.TableStatusUpdated,
	})
}

// isOrderValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrCustomerNameRequired) ||
		errors.Is(err, service.ErrItemNameRequired) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidUnitPrice) ||
		errors.Is(err, service.ErrInvalidMenuItemID)
}
