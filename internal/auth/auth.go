// Package auth covers credential verification and access-token lifecycle for
// administrators: bcrypt password hashing, HS256 tokens, and a revocation
// list consulted on every authenticated request.
package auth

import (
	"context"
	"time"

	"custodia/internal/identity"
	"custodia/internal/store"
	dErrors "custodia/pkg/domain-errors"
)

// Authenticator issues tokens for valid credentials and resolves tokens back
// to administrator ids.
type Authenticator struct {
	admins      store.IdentityStore
	hasher      identity.PasswordHasher
	tokens      *TokenService
	revocations RevocationList
	tokenTTL    time.Duration
}

func NewAuthenticator(admins store.IdentityStore, hasher identity.PasswordHasher, tokens *TokenService, revocations RevocationList, tokenTTL time.Duration) *Authenticator {
	return &Authenticator{
		admins:      admins,
		hasher:      hasher,
		tokens:      tokens,
		revocations: revocations,
		tokenTTL:    tokenTTL,
	}
}

// Login verifies the credentials and returns a signed access token. Unknown
// names, wrong passwords, and disabled accounts all fail identically so the
// response does not leak which part was wrong.
func (a *Authenticator) Login(ctx context.Context, name, password string) (string, error) {
	aggregate, err := a.admins.LoadAdmins(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admins")
	}
	admin := aggregate.AdminByName(name)
	if admin.IsEmpty() || !admin.Enabled() || !admin.VerifyPassword(a.hasher, password) {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	token, err := a.tokens.GenerateAccessToken(admin.ID(), admin.Name(), a.tokenTTL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return token, nil
}

// Authenticate resolves a bearer token to the administrator id, rejecting
// expired, malformed, and revoked tokens.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (int, error) {
	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		return 0, err
	}
	revoked, err := a.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "revocation check failed")
	}
	if revoked {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
	}
	return claims.AdminID, nil
}

// Logout revokes the token until its natural expiry.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		return err
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := a.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	return nil
}
