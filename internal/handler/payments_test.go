package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/payment"
)

type mockPaymentStore struct {
	order            database.Order
	orderErr         error
	items            []database.OrderItem
	sessionSet       *database.SetOrderCheckoutSessionParams
	paymentStatusSet *database.UpdateOrderPaymentStatusParams
}

func (m *mockPaymentStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if m.orderErr != nil {
		return database.Order{}, m.orderErr
	}
	return m.order, nil
}

func (m *mockPaymentStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	return m.items, nil
}

func (m *mockPaymentStore) SetOrderCheckoutSession(ctx context.Context, arg database.SetOrderCheckoutSessionParams) (database.Order, error) {
	m.sessionSet = &arg
	updated := m.order
	updated.CheckoutSessionID = arg.CheckoutSessionID
	return updated, nil
}

func (m *mockPaymentStore) UpdateOrderPaymentStatus(ctx context.Context, arg database.UpdateOrderPaymentStatusParams) (database.Order, error) {
	m.paymentStatusSet = &arg
	updated := m.order
	updated.PaymentStatus = arg.PaymentStatus
	return updated, nil
}

type mockProvider struct {
	session    payment.Session
	sessionErr error
	created    *payment.CreateSessionParams
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, params payment.CreateSessionParams) (payment.Session, error) {
	m.created = &params
	return m.session, m.sessionErr
}

func (m *mockProvider) GetSession(ctx context.Context, sessionID string) (payment.Session, error) {
	if m.sessionErr != nil {
		return payment.Session{}, m.sessionErr
	}
	return m.session, nil
}

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateCheckoutSession(t *testing.T) {
	orderID := uuid.New()
	store := &mockPaymentStore{
		order: database.Order{ID: orderID, PaymentStatus: enum.PaymentStatusPending},
		items: []database.OrderItem{
			{ID: uuid.New(), Name: "Pizza", UnitPrice: testNumeric(t, "12.00"), Quantity: 1},
		},
	}
	provider := &mockProvider{
		session: payment.Session{ID: "cs_123", URL: "https://pay.example/cs_123"},
	}
	h := NewPaymentHandler(store, provider, "whsec", nil)

	body, _ := json.Marshal(createCheckoutSessionRequest{OrderID: orderID.String()})
	req := httptest.NewRequest(http.MethodPost, "/checkout-session", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateCheckoutSession(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if provider.created == nil || len(provider.created.Items) != 1 {
		t.Fatalf("provider called with %+v", provider.created)
	}
	if store.sessionSet == nil || store.sessionSet.CheckoutSessionID.String != "cs_123" {
		t.Fatalf("session not stored: %+v", store.sessionSet)
	}

	var resp checkoutSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.URL != "https://pay.example/cs_123" {
		t.Errorf("url = %s", resp.URL)
	}
}

func TestCreateCheckoutSessionNoProvider(t *testing.T) {
	h := NewPaymentHandler(&mockPaymentStore{}, nil, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/checkout-session",
		bytes.NewBufferString(`{"order_id":"`+uuid.NewString()+`"}`))
	rec := httptest.NewRecorder()
	h.CreateCheckoutSession(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestCreateCheckoutSessionAlreadyPaid(t *testing.T) {
	store := &mockPaymentStore{
		order: database.Order{ID: uuid.New(), PaymentStatus: enum.PaymentStatusPaid},
	}
	h := NewPaymentHandler(store, &mockProvider{}, "whsec", nil)

	req := httptest.NewRequest(http.MethodPost, "/checkout-session",
		bytes.NewBufferString(`{"order_id":"`+store.order.ID.String()+`"}`))
	rec := httptest.NewRecorder()
	h.CreateCheckoutSession(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestWebhookMarksOrderPaid(t *testing.T) {
	orderID := uuid.New()
	store := &mockPaymentStore{
		order: database.Order{
			ID:                orderID,
			PaymentStatus:     enum.PaymentStatusPending,
			CheckoutSessionID: pgtype.Text{String: "cs_123", Valid: true},
		},
	}
	h := NewPaymentHandler(store, &mockProvider{}, "whsec", nil)

	payload, _ := json.Marshal(map[string]any{
		"type": "checkout.session.completed",
		"data": map[string]string{"session_id": "cs_123", "order_id": orderID.String()},
	})
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("X-Webhook-Signature", signPayload("whsec", payload))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if store.paymentStatusSet == nil || store.paymentStatusSet.PaymentStatus != enum.PaymentStatusPaid {
		t.Fatalf("payment status write = %+v, want paid", store.paymentStatusSet)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	store := &mockPaymentStore{}
	h := NewPaymentHandler(store, &mockProvider{}, "whsec", nil)

	payload := []byte(`{"type":"checkout.session.completed","data":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("X-Webhook-Signature", signPayload("wrong-secret", payload))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if store.paymentStatusSet != nil {
		t.Error("payment status changed despite bad signature")
	}
}

func TestWebhookRejectsSessionMismatch(t *testing.T) {
	orderID := uuid.New()
	store := &mockPaymentStore{
		order: database.Order{
			ID:                orderID,
			CheckoutSessionID: pgtype.Text{String: "cs_123", Valid: true},
		},
	}
	h := NewPaymentHandler(store, &mockProvider{}, "whsec", nil)

	payload, _ := json.Marshal(map[string]any{
		"type": "checkout.session.completed",
		"data": map[string]string{"session_id": "cs_other", "order_id": orderID.String()},
	})
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("X-Webhook-Signature", signPayload("whsec", payload))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWebhookFailedEventMarksFailed(t *testing.T) {
	orderID := uuid.New()
	store := &mockPaymentStore{
		order: database.Order{
			ID:                orderID,
			CheckoutSessionID: pgtype.Text{String: "cs_123", Valid: true},
		},
	}
	h := NewPaymentHandler(store, &mockProvider{}, "whsec", nil)

	payload, _ := json.Marshal(map[string]any{
		"type": "checkout.session.failed",
		"data": map[string]string{"session_id": "cs_123", "order_id": orderID.String()},
	})
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("X-Webhook-Signature", signPayload("whsec", payload))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.paymentStatusSet == nil || store.paymentStatusSet.PaymentStatus != enum.PaymentStatusFailed {
		t.Fatalf("payment status write = %+v, want failed", store.paymentStatusSet)
	}
}

func TestWebhookIgnoresUnknownEvents(t *testing.T) {
	store := &mockPaymentStore{}
	h := NewPaymentHandler(store, &mockProvider{}, "whsec", nil)

	payload := []byte(`{"type":"invoice.created","data":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("X-Webhook-Signature", signPayload("whsec", payload))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.paymentStatusSet != nil {
		t.Error("payment status changed for an unknown event")
	}
}

func TestVerifyPaymentUpdatesFromSession(t *testing.T) {
	orderID := uuid.New()
	store := &mockPaymentStore{
		order: database.Order{
			ID:                orderID,
			PaymentStatus:     enum.PaymentStatusPending,
			CheckoutSessionID: pgtype.Text{String: "cs_123", Valid: true},
		},
	}
	provider := &mockProvider{
		session: payment.Session{ID: "cs_123", Status: payment.SessionStatusComplete},
	}
	h := NewPaymentHandler(store, provider, "whsec", nil)

	req := httptest.NewRequest(http.MethodGet,
		"/verify?order_id="+orderID.String()+"&session_id=cs_123", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp verifyPaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PaymentStatus != enum.PaymentStatusPaid {
		t.Errorf("payment status = %s, want paid", resp.PaymentStatus)
	}
}
