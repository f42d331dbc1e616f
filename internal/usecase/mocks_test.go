//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
	"course-payments/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// ---- Enrollment repo ----

type MockEnrollmentRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Enrollment // userID|courseID

	FindFunc   func(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error)
	UpsertFunc func(ctx context.Context, tx repository.Tx, e *model.Enrollment) error
}

func NewMockEnrollmentRepo() *MockEnrollmentRepo {
	return &MockEnrollmentRepo{rows: make(map[string]*model.Enrollment)}
}

func enrKey(userID, courseID string) string { return userID + "|" + courseID }

func (m *MockEnrollmentRepo) FindByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, tx, userID, courseID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[enrKey(userID, courseID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MockEnrollmentRepo) Upsert(ctx context.Context, tx repository.Tx, e *model.Enrollment) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.rows[enrKey(e.UserID, e.CourseID)] = &cp
	return nil
}

func (m *MockEnrollmentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Enrollment
	for _, e := range m.rows {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockEnrollmentRepo) Get(userID, courseID string) *model.Enrollment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[enrKey(userID, courseID)]
}

// ---- Payment ledger ----

type MockPaymentRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Payment // externalID

	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{rows: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.rows[p.ExternalID]; dup {
		return domain.ErrAlreadyExists
	}
	cp := *p
	m.rows[p.ExternalID] = &cp
	return nil
}

func (m *MockPaymentRepo) ExistsByExternalID(ctx context.Context, tx repository.Tx, externalID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[externalID]
	return ok, nil
}

func (m *MockPaymentRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.rows {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// ---- Courses ----

type MockCourseRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Course
}

func NewMockCourseRepo(courses ...*model.Course) *MockCourseRepo {
	m := &MockCourseRepo{rows: make(map[string]*model.Course)}
	for _, c := range courses {
		m.rows[c.ID] = c
	}
	return m
}

func (m *MockCourseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (m *MockCourseRepo) Exists(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	return ok, nil
}

// ---- Users ----

type MockUserRepo struct {
	mu   sync.Mutex
	rows map[string]*model.User
}

func NewMockUserRepo(users ...*model.User) *MockUserRepo {
	m := &MockUserRepo{rows: make(map[string]*model.User)}
	for _, u := range users {
		m.rows[u.ID] = u
	}
	return m
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ---- Outbox ----

type MockOutboxRepo struct {
	mu   sync.Mutex
	rows map[string]*model.PendingEntitlement

	SaveFunc func(ctx context.Context, tx repository.Tx, pe *model.PendingEntitlement) error
}

func NewMockOutboxRepo() *MockOutboxRepo {
	return &MockOutboxRepo{rows: make(map[string]*model.PendingEntitlement)}
}

func (m *MockOutboxRepo) Save(ctx context.Context, tx repository.Tx, pe *model.PendingEntitlement) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, pe)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pe
	m.rows[pe.ID] = &cp
	return nil
}

func (m *MockOutboxRepo) ListDue(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.PendingEntitlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PendingEntitlement
	for _, pe := range m.rows {
		if !pe.NextAttemptAt.After(now) {
			cp := *pe
			out = append(out, &cp)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepo) Reschedule(ctx context.Context, tx repository.Tx, id string, attempts int, nextAttemptAt time.Time, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pe, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	pe.Attempts = attempts
	pe.NextAttemptAt = nextAttemptAt
	pe.LastError = lastError
	return nil
}

func (m *MockOutboxRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *MockOutboxRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

// ---- Intent store ----

type MockIntentRepo struct {
	mu   sync.Mutex
	rows map[string]*model.PurchaseIntent
}

func NewMockIntentRepo() *MockIntentRepo {
	return &MockIntentRepo{rows: make(map[string]*model.PurchaseIntent)}
}

func (m *MockIntentRepo) Put(ctx context.Context, intent *model.PurchaseIntent) error {
	if err := intent.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.rows[intent.BuyOrder]; dup {
		return domain.ErrAlreadyExists
	}
	cp := *intent
	m.rows[intent.BuyOrder] = &cp
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

func (m *MockIntentRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// ---- Mailer ----

// MockMailer records sends on a channel so tests can wait for the detached
// notification goroutine instead of sleeping.
type MockMailer struct {
	Sent chan string // "confirmation:<to>" or "welcome:<to>"
}

func NewMockMailer() *MockMailer {
	return &MockMailer{Sent: make(chan string, 8)}
}

func (m *MockMailer) SendPurchaseConfirmation(ctx context.Context, to, courseTitle string) error {
	m.Sent <- "confirmation:" + to
	return nil
}

func (m *MockMailer) SendWelcome(ctx context.Context, to string) error {
	m.Sent <- "welcome:" + to
	return nil
}

func (m *MockMailer) Wait(t interface{ Fatalf(string, ...interface{}) }, want string) {
	select {
	case got := <-m.Sent:
		if got != want {
			t.Fatalf("expected mail %q, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for mail %q", want)
	}
}

// ---- Identity provider ----

type MockIdentity struct {
	SignUpFunc func(ctx context.Context, email, password string, meta map[string]string) (string, error)
	SignInFunc func(ctx context.Context, email, password string) (*adapter.IdentitySession, error)
}

func (m *MockIdentity) SignUp(ctx context.Context, email, password string, meta map[string]string) (string, error) {
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, email, password, meta)
	}
	return "identity-user", nil
}

func (m *MockIdentity) SignInWithPassword(ctx context.Context, email, password string) (*adapter.IdentitySession, error) {
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, email, password)
	}
	return &adapter.IdentitySession{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 3600}, nil
}

// ---- Analytics ----

type MockAnalytics struct {
	mu     sync.Mutex
	events int
}

func (m *MockAnalytics) TrackInitiateCheckout(ctx context.Context, userID, courseID string, value int64, currency string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events++
}

func (m *MockAnalytics) Events() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events
}

// ---- Gateways ----

type MockMercadoPago struct {
	CreatePreferenceFunc func(ctx context.Context, pref *adapter.CheckoutPreference) (string, string, error)
	GetPaymentFunc       func(ctx context.Context, paymentID string) (*adapter.GatewayPayment, error)
}

func (m *MockMercadoPago) CreatePreference(ctx context.Context, pref *adapter.CheckoutPreference) (string, string, error) {
	if m.CreatePreferenceFunc != nil {
		return m.CreatePreferenceFunc(ctx, pref)
	}
	return "pref-1", "https://mp.example/init/pref-1", nil
}

func (m *MockMercadoPago) GetPayment(ctx context.Context, paymentID string) (*adapter.GatewayPayment, error) {
	if m.GetPaymentFunc != nil {
		return m.GetPaymentFunc(ctx, paymentID)
	}
	return nil, domain.ErrNotFound
}

type MockWebpay struct {
	CreateTransactionFunc func(ctx context.Context, buyOrder, sessionID string, amount int64, returnURL string) (string, string, error)
	CommitTransactionFunc func(ctx context.Context, token string) (*adapter.WebpayCommitResult, error)
}

func (m *MockWebpay) CreateTransaction(ctx context.Context, buyOrder, sessionID string, amount int64, returnURL string) (string, string, error) {
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, buyOrder, sessionID, amount, returnURL)
	}
	return "tok-1", "https://webpay.example/form", nil
}

func (m *MockWebpay) CommitTransaction(ctx context.Context, token string) (*adapter.WebpayCommitResult, error) {
	if m.CommitTransactionFunc != nil {
		return m.CommitTransactionFunc(ctx, token)
	}
	return &adapter.WebpayCommitResult{Status: "AUTHORIZED", ResponseCode: 0}, nil
}
