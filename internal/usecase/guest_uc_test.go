//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
	"course-payments/internal/usecase"
)

func TestGuestUseCase_Resolve(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("fresh email creates an account and a session", func(t *testing.T) {
		var gotPassword string
		identity := &MockIdentity{
			SignUpFunc: func(ctx context.Context, email, password string, meta map[string]string) (string, error) {
				gotPassword = password
				if meta["first_name"] != "Ana" {
					t.Errorf("first name not forwarded, got %q", meta["first_name"])
				}
				return "new-user", nil
			},
		}
		users := NewMockUserRepo()
		uc := usecase.NewGuestUseCase(identity, users, testLogger)

		res, err := uc.Resolve(ctx, "ana@example.com", "Ana", "Rojas")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Created || res.UserID != "new-user" {
			t.Errorf("got created=%v id=%s", res.Created, res.UserID)
		}
		if res.Session == nil || res.Session.AccessToken == "" {
			t.Error("expected a minted session for a fresh guest")
		}
		if len(gotPassword) < 20 {
			t.Errorf("generated password too short: %d chars", len(gotPassword))
		}
		if _, err := users.FindByEmail(ctx, nil, "ana@example.com"); err != nil {
			t.Error("local buyer mirror not saved")
		}
	})

	t.Run("registered email reuses the existing account without a session", func(t *testing.T) {
		identity := &MockIdentity{
			SignUpFunc: func(ctx context.Context, email, password string, meta map[string]string) (string, error) {
				return "", domain.ErrAlreadyExists
			},
		}
		users := NewMockUserRepo(&model.User{ID: "user-7", Email: "ana@example.com"})
		uc := usecase.NewGuestUseCase(identity, users, testLogger)

		res, err := uc.Resolve(ctx, "ana@example.com", "Ana", "Rojas")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Created {
			t.Error("existing account must not report created")
		}
		if res.UserID != "user-7" {
			t.Errorf("got id %s, want user-7", res.UserID)
		}
		if res.Session != nil {
			t.Error("no session may be minted for an account the caller does not own")
		}
	})

	t.Run("registered email with no local mirror fails closed", func(t *testing.T) {
		identity := &MockIdentity{
			SignUpFunc: func(ctx context.Context, email, password string, meta map[string]string) (string, error) {
				return "", domain.ErrAlreadyExists
			},
		}
		uc := usecase.NewGuestUseCase(identity, NewMockUserRepo(), testLogger)

		if _, err := uc.Resolve(ctx, "ana@example.com", "Ana", "Rojas"); err != domain.ErrGuestResolution {
			t.Errorf("got %v, want ErrGuestResolution", err)
		}
	})

	t.Run("provider outage maps to guest resolution error", func(t *testing.T) {
		identity := &MockIdentity{
			SignUpFunc: func(ctx context.Context, email, password string, meta map[string]string) (string, error) {
				return "", errors.New("503 from provider")
			},
		}
		uc := usecase.NewGuestUseCase(identity, NewMockUserRepo(), testLogger)

		if _, err := uc.Resolve(ctx, "ana@example.com", "Ana", "Rojas"); err != domain.ErrGuestResolution {
			t.Errorf("got %v, want ErrGuestResolution", err)
		}
	})

	t.Run("sign-in failure after signup is tolerated", func(t *testing.T) {
		identity := &MockIdentity{
			SignInFunc: func(ctx context.Context, email, password string) (*adapter.IdentitySession, error) {
				return nil, errors.New("token endpoint down")
			},
		}
		uc := usecase.NewGuestUseCase(identity, NewMockUserRepo(), testLogger)

		res, err := uc.Resolve(ctx, "ana@example.com", "Ana", "Rojas")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Created || res.Session != nil {
			t.Errorf("got created=%v session=%v, want created with nil session", res.Created, res.Session)
		}
	})

	t.Run("empty email is invalid", func(t *testing.T) {
		uc := usecase.NewGuestUseCase(&MockIdentity{}, NewMockUserRepo(), testLogger)
		if _, err := uc.Resolve(ctx, "", "Ana", "Rojas"); err != domain.ErrInvalidArgument {
			t.Errorf("got %v, want ErrInvalidArgument", err)
		}
	})
}
