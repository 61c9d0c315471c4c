package adapter

import "context"

// FederatedIdentity is the profile returned by a third-party sign-in provider.
// Optional fields are nil when the provider did not share them.
type FederatedIdentity struct {
	Provider     string
	Subject      string
	Email        *string
	FirstName    *string
	LastName     *string
	ProfilePhoto *string
}

type IdentityProvider interface {
	LoginURL(state string) string
	Exchange(ctx context.Context, code string) (*FederatedIdentity, error)
}
