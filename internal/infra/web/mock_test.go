//go:build !integration

package web_test

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
	"course-payments/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type MockPaymentUC struct {
	InitiateMercadoPagoFunc func(ctx context.Context, req *usecase.CheckoutRequest) (*usecase.InitResult, error)
	InitiateWebpayFunc      func(ctx context.Context, req *usecase.CheckoutRequest) (*usecase.InitResult, error)
}

func (m *MockPaymentUC) InitiateMercadoPago(ctx context.Context, req *usecase.CheckoutRequest) (*usecase.InitResult, error) {
	if m.InitiateMercadoPagoFunc != nil {
		return m.InitiateMercadoPagoFunc(ctx, req)
	}
	return &usecase.InitResult{URL: "https://mp.example/init", Token: "pref-1", UserID: req.UserID}, nil
}

func (m *MockPaymentUC) InitiateWebpay(ctx context.Context, req *usecase.CheckoutRequest) (*usecase.InitResult, error) {
	if m.InitiateWebpayFunc != nil {
		return m.InitiateWebpayFunc(ctx, req)
	}
	return &usecase.InitResult{URL: "https://webpay.example/form", Token: "tok-1", UserID: req.UserID}, nil
}

// MockCheckoutUC records every applied command.
type MockCheckoutUC struct {
	mu      sync.Mutex
	applied []*model.AppliedPurchase

	AlreadyProcessedFunc func(ctx context.Context, externalID string) (bool, error)
	ApplyFunc            func(ctx context.Context, cmd *model.AppliedPurchase) (*usecase.ApplyResult, error)
}

func (m *MockCheckoutUC) AlreadyProcessed(ctx context.Context, externalID string) (bool, error) {
	if m.AlreadyProcessedFunc != nil {
		return m.AlreadyProcessedFunc(ctx, externalID)
	}
	return false, nil
}

func (m *MockCheckoutUC) Apply(ctx context.Context, cmd *model.AppliedPurchase) (*usecase.ApplyResult, error) {
	m.mu.Lock()
	m.applied = append(m.applied, cmd)
	m.mu.Unlock()
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, cmd)
	}
	return &usecase.ApplyResult{}, nil
}

func (m *MockCheckoutUC) Applied() []*model.AppliedPurchase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.AppliedPurchase(nil), m.applied...)
}

type MockMercadoPago struct {
	GetPaymentFunc func(ctx context.Context, paymentID string) (*adapter.GatewayPayment, error)
}

func (m *MockMercadoPago) CreatePreference(ctx context.Context, pref *adapter.CheckoutPreference) (string, string, error) {
	return "pref-1", "https://mp.example/init", nil
}

func (m *MockMercadoPago) GetPayment(ctx context.Context, paymentID string) (*adapter.GatewayPayment, error) {
	if m.GetPaymentFunc != nil {
		return m.GetPaymentFunc(ctx, paymentID)
	}
	return nil, domain.ErrNotFound
}

type MockWebpay struct {
	CommitTransactionFunc func(ctx context.Context, token string) (*adapter.WebpayCommitResult, error)
}

func (m *MockWebpay) CreateTransaction(ctx context.Context, buyOrder, sessionID string, amount int64, returnURL string) (string, string, error) {
	return "tok-1", "https://webpay.example/form", nil
}

func (m *MockWebpay) CommitTransaction(ctx context.Context, token string) (*adapter.WebpayCommitResult, error) {
	if m.CommitTransactionFunc != nil {
		return m.CommitTransactionFunc(ctx, token)
	}
	return &adapter.WebpayCommitResult{Status: "AUTHORIZED", ResponseCode: 0}, nil
}

type MockIntentRepo struct {
	mu   sync.Mutex
	rows map[string]*model.PurchaseIntent
}

func NewMockIntentRepo(intents ...*model.PurchaseIntent) *MockIntentRepo {
	m := &MockIntentRepo{rows: make(map[string]*model.PurchaseIntent)}
	for _, i := range intents {
		m.rows[i.BuyOrder] = i
	}
	return m
}

func (m *MockIntentRepo) Put(ctx context.Context, intent *model.PurchaseIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.rows[intent.BuyOrder]; dup {
		return domain.ErrAlreadyExists
	}
	m.rows[intent.BuyOrder] = intent
	return nil
}

func (m *MockIntentRepo) Consume(ctx context.Context, buyOrder string) (*model.PurchaseIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	intent, ok := m.rows[buyOrder]
	if !ok {
		return nil, domain.ErrIntentNotFound
	}
	delete(m.rows, buyOrder)
	return intent, nil
}
