package ports

import "context"

// CredentialStore owns the provider bearer token.
type CredentialStore interface {
	// Ready reports whether a token has been obtained at least once.
	Ready() bool
	// Refresh performs one token exchange and stores the result.
	Refresh(ctx context.Context) error
}
