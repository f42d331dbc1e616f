package model

import (
	"strconv"
	"strings"
	"time"

	"course-payments/internal/domain"
)

// DefaultMonths is the access duration assumed when a purchase carries no
// explicit duration.
const DefaultMonths = 1

// ParseMonths decodes the string-encoded duration attached to a purchase.
//
// The encoding is an upstream convention shared with the checkout frontend
// and both gateways' metadata channels:
//   - absent / empty  => DefaultMonths
//   - literal "0"     => 0, meaning LIFETIME access (not "no duration")
//   - anything else   => parsed integer months
//
// "0" looks like a bug at first sight; it is intentional and must not be
// normalized away. Unparseable or negative values fall back to DefaultMonths.
func ParseMonths(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultMonths
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return DefaultMonths
	}
	return n
}

// PurchaseMetadata carries the purchase facts through a gateway that echoes
// caller metadata back (MercadoPago preference -> payment metadata). Keys are
// lower_snake because MercadoPago lowercases metadata keys on the way back.
type PurchaseMetadata struct {
	CourseID       string   `json:"course_id"`
	UserID         string   `json:"user_id"`
	PlanID         string   `json:"plan_id"`
	Months         string   `json:"months"` // see ParseMonths
	AddonCourseIDs []string `json:"addon_course_ids"`
	AddonsTotal    int64    `json:"addons_total"`
}

// PurchaseIntent is the ephemeral pre-payment record for gateways that cannot
// carry caller metadata (Webpay). It lives in the pending-transaction store
// keyed by BuyOrder, is consumed exactly once on the terminal redirect and
// expires after IntentTTL even if never consumed.
type PurchaseIntent struct {
	BuyOrder       string   `json:"buy_order"`
	SessionID      string   `json:"session_id"`
	UserID         string   `json:"user_id"`
	CourseID       string   `json:"course_id"`
	PlanID         string   `json:"plan_id"`
	Months         int      `json:"months"`
	AddonCourseIDs []string `json:"addon_course_ids"`
	AddonsTotal    int64    `json:"addons_total"`
	Amount         int64    `json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}

// IntentTTL bounds how long an unconsumed intent survives. Webpay sessions
// die well before this.
const IntentTTL = time.Hour

func (i *PurchaseIntent) Validate() error {
	if i == nil || i.BuyOrder == "" || i.UserID == "" || i.CourseID == "" {
		return domain.ErrInvalidArgument
	}
	return nil
}

// AppliedPurchase is the gateway-agnostic command produced by either ingestion
// handler once a verdict is known. Both gateways converge on this single
// shape so the ledger/entitlement logic exists exactly once.
type AppliedPurchase struct {
	ExternalID     string
	Gateway        GatewayKind
	Status         PaymentStatus
	UserID         string
	CourseID       string
	PlanID         string
	Months         int
	AddonCourseIDs []string
	Amount         int64
	Currency       string
	Method         string
}

func (c *AppliedPurchase) Validate() error {
	if c == nil || c.ExternalID == "" || c.UserID == "" || c.CourseID == "" {
		return domain.ErrInvalidArgument
	}
	return nil
}
