package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/payment"
	"github.com/tableside-pos/api/internal/service"
)

// PaymentStore defines the database methods needed by payment handlers.
// Satisfied by *database.Queries.
type PaymentStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	SetOrderCheckoutSession(ctx context.Context, arg database.SetOrderCheckoutSessionParams) (database.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, arg database.UpdateOrderPaymentStatusParams) (database.Order, error)
}

// PaymentHandler bridges orders to the hosted-checkout provider and ingests
// its webhooks. With no provider configured the checkout endpoints answer 503
// and orders stay payable at the counter.
type PaymentHandler struct {
	store         PaymentStore
	provider      payment.Provider
	webhookSecret string
	events        service.EventPublisher
}

// NewPaymentHandler creates a new PaymentHandler. provider and events may be nil.
func NewPaymentHandler(store PaymentStore, provider payment.Provider, webhookSecret string, events service.EventPublisher) *PaymentHandler {
	return &PaymentHandler{
		store:         store,
		provider:      provider,
		webhookSecret: webhookSecret,
		events:        events,
	}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/checkout-session", h.CreateCheckoutSession)
	r.Post("/webhook", h.Webhook)
	r.Get("/verify", h.Verify)
}

type createCheckoutSessionRequest struct {
	OrderID    string `json:"order_id"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type checkoutSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CreateCheckoutSession handles POST /payments/checkout-session. The stored
// line items are priced as submitted at order time, so the checkout charges
// exactly what the customer saw.
func (h *PaymentHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "online payments are not enabled"})
		return
	}

	var req createCheckoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
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

	if order.PaymentStatus == enum.PaymentStatusPaid {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order is already paid"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	lines := make([]payment.LineItem, 0, len(items))
	for _, it := range items {
		price, err := decimal.NewFromString(numericToString(it.UnitPrice))
		if err != nil {
			log.Printf("ERROR: parse unit price for order item %s: %v", it.ID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		lines = append(lines, payment.LineItem{
			Name:      it.Name,
			UnitPrice: price,
			Quantity:  it.Quantity,
		})
	}

	session, err := h.provider.CreateCheckoutSession(r.Context(), payment.CreateSessionParams{
		OrderID:    orderID,
		Items:      lines,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "online payments are not enabled"})
			return
		}
		log.Printf("ERROR: create checkout session: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "payment provider error"})
		return
	}

	if _, err := h.store.SetOrderCheckoutSession(r.Context(), database.SetOrderCheckoutSessionParams{
		ID:                orderID,
		CheckoutSessionID: pgtype.Text{String: session.ID, Valid: true},
	}); err != nil {
		log.Printf("ERROR: store checkout session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, checkoutSessionResponse{SessionID: session.ID, URL: session.URL})
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		SessionID string `json:"session_id"`
		OrderID   string `json:"order_id"`
	} `json:"data"`
}

// Webhook handles POST /payments/webhook. The payload must carry a valid
// HMAC signature; unsigned or tampered events are rejected before parsing.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !payment.VerifySignature(h.webhookSecret, body, r.Header.Get("X-Webhook-Signature")) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event payload"})
		return
	}

	var paymentStatus string
	switch event.Type {
	case "checkout.session.completed":
		paymentStatus = enum.PaymentStatusPaid
	case "checkout.session.failed", "checkout.session.expired":
		paymentStatus = enum.PaymentStatusFailed
	default:
		// Unrecognized events are acknowledged so the provider stops retrying.
		writeJSON(w, http.StatusOK, map[string]string{"message": "ignored"})
		return
	}

	orderID, err := uuid.Parse(event.Data.OrderID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
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

	// The event must reference the session stored on the order.
	if !order.CheckoutSessionID.Valid || order.CheckoutSessionID.String != event.Data.SessionID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session mismatch"})
		return
	}

	updated, err := h.store.UpdateOrderPaymentStatus(r.Context(), database.UpdateOrderPaymentStatusParams{
		ID:            orderID,
		PaymentStatus: paymentStatus,
	})
	if err != nil {
		log.Printf("ERROR: update payment status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if h.events != nil {
		h.events.Publish(service.EventOrderUpdated, updated)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "processed"})
}

type verifyPaymentResponse struct {
	OrderID       uuid.UUID `json:"order_id"`
	PaymentStatus string    `json:"payment_status"`
	SessionStatus string    `json:"session_status"`
}

// Verify handles GET /payments/verify?order_id=...&session_id=... It is the
// success-page fallback for when the webhook has not landed yet.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "online payments are not enabled"})
		return
	}

	orderID, err := uuid.Parse(r.URL.Query().Get("order_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
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

	if !order.CheckoutSessionID.Valid || order.CheckoutSessionID.String != sessionID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session mismatch"})
		return
	}

	session, err := h.provider.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, payment.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "checkout session not found"})
			return
		}
		log.Printf("ERROR: get checkout session: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "payment provider error"})
		return
	}

	paymentStatus := order.PaymentStatus
	if session.Status == payment.SessionStatusComplete && paymentStatus != enum.PaymentStatusPaid {
		updated, err := h.store.UpdateOrderPaymentStatus(r.Context(), database.UpdateOrderPaymentStatusParams{
			ID:            orderID,
			PaymentStatus: enum.PaymentStatusPaid,
		})
		if err != nil {
			log.Printf("ERROR: update payment status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		paymentStatus = updated.PaymentStatus
		if h.events != nil {
			h.events.Publish(service.EventOrderUpdated, updated)
		}
	}

	writeJSON(w, http.StatusOK, verifyPaymentResponse{
		OrderID:       orderID,
		PaymentStatus: paymentStatus,
		SessionStatus: session.Status,
	})
}
