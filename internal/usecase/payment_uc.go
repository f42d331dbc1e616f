package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
	"course-payments/internal/domain/ports/repository"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// CheckoutRequest is the gateway-agnostic purchase request coming from the
// checkout form. Either UserID or the Guest* fields must be present.
type CheckoutRequest struct {
	UserID         string
	GuestEmail     string
	GuestFirstName string
	GuestLastName  string
	CourseID       string
	PlanID         string
	Price          int64
	Months         string // string-encoded duration, see model.ParseMonths
	AddonCourseIDs []string
	AddonsTotal    int64
	TotalPrice     int64
}

// InitResult is what the checkout endpoint returns to the browser: where to
// redirect, the gateway token, and a fresh session when a guest account was
// just created.
type InitResult struct {
	URL     string
	Token   string
	UserID  string
	Session *adapter.IdentitySession
}

// PaymentUseCase builds gateway-specific purchase requests. The MercadoPago
// variant attaches the purchase facts as preference metadata; the Webpay
// variant persists a PurchaseIntent locally because that gateway cannot echo
// metadata back.
type PaymentUseCase interface {
	InitiateMercadoPago(ctx context.Context, req *CheckoutRequest) (*InitResult, error)
	InitiateWebpay(ctx context.Context, req *CheckoutRequest) (*InitResult, error)
}

type paymentUC struct {
	guests    GuestUseCase
	courses   repository.CourseRepository
	intents   repository.IntentRepository
	mp        adapter.MercadoPagoAPI
	wp        adapter.WebpayAPI
	analytics adapter.Analytics
	clock     adapter.Clock
	baseURL   string
	log       *zerolog.Logger
	entropy   *ulid.MonotonicEntropy
}

func NewPaymentUseCase(
	guests GuestUseCase,
	courses repository.CourseRepository,
	intents repository.IntentRepository,
	mp adapter.MercadoPagoAPI,
	wp adapter.WebpayAPI,
	analytics adapter.Analytics,
	clock adapter.Clock,
	baseURL string,
	logger *zerolog.Logger,
) *paymentUC {
	ucLog := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		guests:    guests,
		courses:   courses,
		intents:   intents,
		mp:        mp,
		wp:        wp,
		analytics: analytics,
		clock:     clock,
		baseURL:   baseURL,
		log:       &ucLog,
		entropy:   ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (uc *paymentUC) InitiateMercadoPago(ctx context.Context, req *CheckoutRequest) (*InitResult, error) {
	if uc.mp == nil {
		return nil, domain.ErrGatewayNotConfigured
	}
	buyerID, session, err := uc.resolveBuyer(ctx, req)
	if err != nil {
		return nil, err
	}
	course, err := uc.courses.FindByID(ctx, nil, req.CourseID)
	if err != nil {
		return nil, domain.ErrInvalidArgument
	}

	pref := &adapter.CheckoutPreference{
		Title:       course.Title,
		Quantity:    1,
		UnitPrice:   uc.total(req),
		Currency:    "CLP",
		ExternalRef: uuid.NewString(),
		SuccessURL:  uc.baseURL + "/payment/success",
		FailureURL:  uc.baseURL + "/payment/failure",
		PendingURL:  uc.baseURL + "/payment/pending",
		NotifyURL:   uc.baseURL + "/webhook/mercadopago",
		Metadata: model.PurchaseMetadata{
			CourseID:       req.CourseID,
			UserID:         buyerID,
			PlanID:         req.PlanID,
			Months:         req.Months, // pass through untouched, including "0" == lifetime
			AddonCourseIDs: req.AddonCourseIDs,
			AddonsTotal:    req.AddonsTotal,
		},
	}

	prefID, initPoint, err := uc.mp.CreatePreference(ctx, pref)
	if err != nil {
		uc.log.Error().Err(err).Str("course_id", req.CourseID).Msg("mercadopago preference creation failed")
		return nil, fmt.Errorf("payment service error: %w", err)
	}

	uc.analytics.TrackInitiateCheckout(ctx, buyerID, req.CourseID, uc.total(req), "CLP")

	return &InitResult{URL: initPoint, Token: prefID, UserID: buyerID, Session: session}, nil
}

func (uc *paymentUC) InitiateWebpay(ctx context.Context, req *CheckoutRequest) (*InitResult, error) {
	if uc.wp == nil {
		return nil, domain.ErrGatewayNotConfigured
	}
	buyerID, session, err := uc.resolveBuyer(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := uc.courses.FindByID(ctx, nil, req.CourseID); err != nil {
		return nil, domain.ErrInvalidArgument
	}

	now := uc.clock.Now()
	buyOrder := ulid.MustNew(ulid.Timestamp(now), uc.entropy).String()
	sessionID := uuid.NewString()
	amount := uc.total(req)

	intent := &model.PurchaseIntent{
		BuyOrder:       buyOrder,
		SessionID:      sessionID,
		UserID:         buyerID,
		CourseID:       req.CourseID,
		PlanID:         req.PlanID,
		Months:         model.ParseMonths(req.Months),
		AddonCourseIDs: req.AddonCourseIDs,
		AddonsTotal:    req.AddonsTotal,
		Amount:         amount,
		CreatedAt:      now,
	}
	if err := uc.intents.Put(ctx, intent); err != nil {
		return nil, fmt.Errorf("persist purchase intent: %w", err)
	}

	token, url, err := uc.wp.CreateTransaction(ctx, buyOrder, sessionID, amount, uc.baseURL+"/payment/webpay/return")
	if err != nil {
		// The stranded intent is harmless; the TTL evicts it.
		uc.log.Error().Err(err).Str("buy_order", buyOrder).Msg("webpay transaction creation failed")
		return nil, fmt.Errorf("payment service error: %w", err)
	}

	uc.analytics.TrackInitiateCheckout(ctx, buyerID, req.CourseID, amount, "CLP")

	return &InitResult{URL: url, Token: token, UserID: buyerID, Session: session}, nil
}

// resolveBuyer enforces the identity precondition: an authenticated buyer id,
// or enough guest fields to create/reuse an account before any gateway call.
func (uc *paymentUC) resolveBuyer(ctx context.Context, req *CheckoutRequest) (string, *adapter.IdentitySession, error) {
	if req == nil || req.CourseID == "" {
		return "", nil, domain.ErrInvalidArgument
	}
	if req.UserID != "" {
		return req.UserID, nil, nil
	}
	if req.GuestEmail == "" {
		return "", nil, domain.ErrInvalidArgument
	}
	res, err := uc.guests.Resolve(ctx, req.GuestEmail, req.GuestFirstName, req.GuestLastName)
	if err != nil {
		return "", nil, err
	}
	return res.UserID, res.Session, nil
}

func (uc *paymentUC) total(req *CheckoutRequest) int64 {
	if req.TotalPrice > 0 {
		return req.TotalPrice
	}
	return req.Price + req.AddonsTotal
}
