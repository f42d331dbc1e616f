package adapter

import "context"

// IdentitySession is the provider-minted session handed back to the browser
// after a guest account is created mid-checkout.
type IdentitySession struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// IdentityProvider is the external auth backend (opaque to this subsystem).
// SignUp must fail with domain.ErrAlreadyExists when the address is
// registered; callers fall back to reusing the existing account.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, meta map[string]string) (userID string, err error)
	SignInWithPassword(ctx context.Context, email, password string) (*IdentitySession, error)
}
