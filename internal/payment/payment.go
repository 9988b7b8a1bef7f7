package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by payment providers.
var (
	ErrNotConfigured   = errors.New("payment provider not configured")
	ErrSessionNotFound = errors.New("checkout session not found")
)

// Checkout session statuses reported by the provider.
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
)

// LineItem is a single priced line sent to the provider.
type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int32
}

// CreateSessionParams describes the checkout to open for an order.
type CreateSessionParams struct {
	OrderID    uuid.UUID
	Items      []LineItem
	SuccessURL string
	CancelURL  string
}

// Session is a provider-side checkout session.
type Session struct {
	ID            string
	URL           string
	Status        string
	PaymentStatus string
	OrderID       uuid.UUID
}

// Provider abstracts the hosted-checkout payment processor. Implementations
// wrap a real gateway SDK; the API only ever stores the session id and reacts
// to webhooks.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (Session, error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
}

// VerifySignature checks a webhook payload against its HMAC-SHA256 hex
// signature. Comparison is constant time.
func VerifySignature(secret string, payload []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
