// Package identity is the console's view of the external identity provider.
package identity

import (
	"context"
	"time"
)

// Credential is what the provider hands back after a successful sign-in.
type Credential struct {
	UID          string
	Email        string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

type Identity struct {
	UID   string
	Email string
}

// Provider lists the identity operations the console depends on. Credential
// storage, hashing and token issuance stay with the provider.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Credential, error)
	SignOut(ctx context.Context, idToken string) error
	// CreateIdentity provisions a new account. The provider treats the new
	// account as the signed-in one afterwards.
	CreateIdentity(ctx context.Context, email, password string) (Credential, error)
	// Lookup resolves a previously issued token; it fails when the provider
	// no longer honours it.
	Lookup(ctx context.Context, idToken string) (Identity, error)
	Reauthenticate(ctx context.Context, email, password string) (Credential, error)
	UpdateCredential(ctx context.Context, idToken, newPassword string) (Credential, error)
	Refresh(ctx context.Context, refreshToken string) (Credential, error)
}
