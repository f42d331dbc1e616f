package adapter

import (
	"context"

	"course-payments/internal/domain/model"
)

// CheckoutPreference is the purchase request handed to MercadoPago. The
// metadata travels opaquely through the gateway and is echoed back on the
// payment object the webhook later fetches.
type CheckoutPreference struct {
	Title       string
	Quantity    int
	UnitPrice   int64
	Currency    string
	ExternalRef string
	SuccessURL  string
	FailureURL  string
	PendingURL  string
	NotifyURL   string
	Metadata    model.PurchaseMetadata
}

// GatewayPayment is the full payment detail fetched from MercadoPago by id.
// The webhook body itself is minimal and possibly spoofable, so handlers act
// only on this re-fetched view.
type GatewayPayment struct {
	ID            string
	Status        string // approved | pending | in_process | rejected | cancelled ...
	StatusDetail  string
	Amount        int64
	Currency      string
	PaymentMethod string
	PayerEmail    string
	Metadata      model.PurchaseMetadata
}

// MercadoPagoAPI is the push-style gateway client.
type MercadoPagoAPI interface {
	// CreatePreference registers the purchase and returns the preference id
	// and the redirect target for the buyer's browser.
	CreatePreference(ctx context.Context, pref *CheckoutPreference) (prefID, initPoint string, err error)
	// GetPayment fetches the authoritative payment detail by external id.
	GetPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
}

// WebpayCommitResult is the verdict returned by Webpay's commit call, the
// only point where this gateway's true outcome is knowable.
type WebpayCommitResult struct {
	BuyOrder          string
	SessionID         string
	Status            string // AUTHORIZED | FAILED ...
	ResponseCode      int    // 0 means accepted
	Amount            int64
	AuthorizationCode string
	PaymentTypeCode   string
	CardLastFour      string
}

// Approved reports whether the commit represents a captured charge.
func (r *WebpayCommitResult) Approved() bool {
	return r != nil && r.Status == "AUTHORIZED" && r.ResponseCode == 0
}

// WebpayAPI is the redirect/commit-style gateway client.
type WebpayAPI interface {
	// CreateTransaction opens a transaction and returns the one-time token
	// plus the gateway form URL the buyer is redirected to.
	CreateTransaction(ctx context.Context, buyOrder, sessionID string, amount int64, returnURL string) (token, url string, err error)
	// CommitTransaction confirms the transaction identified by the token the
	// buyer's browser carried back. Must not be retried internally; the
	// token is single-shot.
	CommitTransaction(ctx context.Context, token string) (*WebpayCommitResult, error)
}
