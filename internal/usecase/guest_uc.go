package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
	"course-payments/internal/domain/ports/repository"
	"course-payments/internal/infra/logging"
)

// Compile-time check
var _ GuestUseCase = (*guestUC)(nil)

// GuestResolution is the outcome of resolving a guest buyer before any
// gateway call. Session is nil when the address was already registered: the
// existing account is reused without minting a new session.
type GuestResolution struct {
	UserID  string
	Session *adapter.IdentitySession
	Created bool
}

// GuestUseCase creates or reuses a buyer account from checkout form fields.
// Accounts created here are durable even if the purchase is later abandoned;
// letting people pay before registering is worth the orphan accounts.
type GuestUseCase interface {
	Resolve(ctx context.Context, email, firstName, lastName string) (*GuestResolution, error)
}

type guestUC struct {
	identity adapter.IdentityProvider
	users    repository.UserRepository
	log      *zerolog.Logger
}

func NewGuestUseCase(identity adapter.IdentityProvider, users repository.UserRepository, logger *zerolog.Logger) *guestUC {
	ucLog := logger.With().Str("component", "GuestUC").Logger()
	return &guestUC{identity: identity, users: users, log: &ucLog}
}

func (uc *guestUC) Resolve(ctx context.Context, email, firstName, lastName string) (*GuestResolution, error) {
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}

	password, err := generatePassword()
	if err != nil {
		return nil, fmt.Errorf("generate guest password: %w", err)
	}

	userID, err := uc.identity.SignUp(ctx, email, password, map[string]string{
		"first_name": firstName,
		"last_name":  lastName,
	})
	switch {
	case err == nil:
		// Fresh account: mirror it locally and mint a session so the client
		// can hydrate before the redirect.
		u, uerr := model.NewUser(userID, email, firstName, lastName)
		if uerr == nil {
			if serr := uc.users.Save(ctx, nil, u); serr != nil {
				uc.log.Warn().Err(serr).Str("user_id", userID).Msg("local buyer mirror save failed")
			}
		}
		session, serr := uc.identity.SignInWithPassword(ctx, email, password)
		if serr != nil {
			uc.log.Warn().Err(serr).Str("email", logging.Redact(email)).Msg("guest sign-in after signup failed")
			session = nil
		}
		return &GuestResolution{UserID: userID, Session: session, Created: true}, nil

	case err == domain.ErrAlreadyExists:
		existing, ferr := uc.users.FindByEmail(ctx, nil, email)
		if ferr != nil {
			uc.log.Error().Err(ferr).Str("email", logging.Redact(email)).Msg("guest fallback lookup failed")
			return nil, domain.ErrGuestResolution
		}
		// No new session: the caller must already hold one, or the purchase
		// fails at the later required-field check.
		return &GuestResolution{UserID: existing.ID, Session: nil, Created: false}, nil

	default:
		uc.log.Error().Err(err).Str("email", logging.Redact(email)).Msg("guest signup failed")
		return nil, domain.ErrGuestResolution
	}
}

// generatePassword returns a high-entropy throwaway password for guest
// accounts; users reset it later through the normal flow.
func generatePassword() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
