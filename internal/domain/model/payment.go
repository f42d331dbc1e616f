package model

import (
	"time"

	"course-payments/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusApproved  PaymentStatus = "approved"  // gateway reported a final successful charge
	PaymentStatusPending   PaymentStatus = "pending"   // gateway still processing (e.g. offline methods)
	PaymentStatusRejected  PaymentStatus = "rejected"  // charge declined
	PaymentStatusCancelled PaymentStatus = "cancelled" // buyer or gateway cancelled before capture
)

type GatewayKind string

const (
	GatewayMercadoPago GatewayKind = "mercadopago"
	GatewayWebpay      GatewayKind = "webpay"
)

// Payment is one row of the append-only ledger of gateway verdicts.
// ExternalID is the gateway's payment identifier (MercadoPago payment id, or
// the Webpay transaction token, which is the only stable id that gateway has).
// A row is written once per ExternalID and never updated afterwards; the
// unique constraint on external_id is the idempotency backstop for retried
// webhooks and replayed return URLs.
type Payment struct {
	ID         string // UUID, internal
	ExternalID string
	UserID     string
	CourseID   string
	Amount     int64 // CLP, integer pesos
	Currency   string
	Status     PaymentStatus
	Method     string // card type / payment method code as reported by the gateway
	Gateway    GatewayKind
	CreatedAt  time.Time
}

func NewPayment(id, externalID, userID, courseID string, amount int64, currency string, status PaymentStatus, method string, gateway GatewayKind, now time.Time) (*Payment, error) {
	if id == "" || externalID == "" || userID == "" || courseID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if currency == "" {
		currency = "CLP"
	}
	return &Payment{
		ID:         id,
		ExternalID: externalID,
		UserID:     userID,
		CourseID:   courseID,
		Amount:     amount,
		Currency:   currency,
		Status:     status,
		Method:     method,
		Gateway:    gateway,
		CreatedAt:  now,
	}, nil
}
