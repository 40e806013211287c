package entity

import (
	"fmt"
	"strings"
)

// AuthProvider discriminates how an account authenticates.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "LOCAL"
	ProviderGoogle AuthProvider = "GOOGLE"
	ProviderGithub AuthProvider = "GITHUB"
)

func ParseAuthProvider(s string) (AuthProvider, error) {
	switch p := AuthProvider(strings.ToUpper(strings.TrimSpace(s))); p {
	case ProviderLocal, ProviderGoogle, ProviderGithub:
		return p, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrInvalidProvider)
	}
}

// Authentication is a closed union of LocalAuthentication and OAuthAuthentication.
// Variant specific operations are reached through a type switch, never through the interface.
type Authentication interface {
	Provider() AuthProvider
	IsVerified() bool
	// MarkVerified moves the strategy to verified. Calling it again is a no-op.
	MarkVerified()

	sealed()
}

// LocalAuthentication holds a password hash.
type LocalAuthentication struct {
	passwordHash string
	verified     bool
}

func NewLocalAuthentication(passwordHash string) *LocalAuthentication {
	return &LocalAuthentication{passwordHash: passwordHash}
}

// RestoreLocalAuthentication rebuilds a stored local strategy.
func RestoreLocalAuthentication(passwordHash string, verified bool) *LocalAuthentication {
	return &LocalAuthentication{passwordHash: passwordHash, verified: verified}
}

func (a *LocalAuthentication) Provider() AuthProvider { return ProviderLocal }
func (a *LocalAuthentication) IsVerified() bool       { return a.verified }
func (a *LocalAuthentication) MarkVerified()          { a.verified = true }
func (a *LocalAuthentication) PasswordHash() string   { return a.passwordHash }

// ChangePassword replaces the hash unconditionally. Checking the old password
// is the caller's job.
func (a *LocalAuthentication) ChangePassword(newHash string) {
	a.passwordHash = newHash
}

func (a *LocalAuthentication) sealed() {}

// OAuthAuthentication is an identity issued by an external provider.
// It is verified from the start and never carries a password.
type OAuthAuthentication struct {
	provider   AuthProvider
	externalID string
	verified   bool
}

func NewOAuthAuthentication(provider AuthProvider, externalID string) (*OAuthAuthentication, error) {
	return RestoreOAuthAuthentication(provider, externalID, true)
}

// RestoreOAuthAuthentication rebuilds a stored OAuth strategy.
func RestoreOAuthAuthentication(provider AuthProvider, externalID string, verified bool) (*OAuthAuthentication, error) {
	if provider == ProviderLocal || provider == "" {
		return nil, fmt.Errorf("oauth provider %q: %w", provider, ErrInvalidProvider)
	}
	if strings.TrimSpace(externalID) == "" {
		return nil, ErrMissingOAuthID
	}
	return &OAuthAuthentication{provider: provider, externalID: externalID, verified: verified}, nil
}

func (a *OAuthAuthentication) Provider() AuthProvider { return a.provider }
func (a *OAuthAuthentication) IsVerified() bool       { return a.verified }
func (a *OAuthAuthentication) MarkVerified()          { a.verified = true }
func (a *OAuthAuthentication) ExternalID() string     { return a.externalID }

func (a *OAuthAuthentication) sealed() {}

// AuthenticationFromSnapshot resolves the concrete strategy from the stored
// provider discriminator.
func AuthenticationFromSnapshot(s UserSnapshot) (Authentication, error) {
	provider, err := ParseAuthProvider(string(s.Provider))
	if err != nil {
		return nil, err
	}
	if provider == ProviderLocal {
		hash := ""
		if s.PasswordHash != nil {
			hash = *s.PasswordHash
		}
		return RestoreLocalAuthentication(hash, s.IsVerified), nil
	}
	externalID := ""
	if s.ExternalID != nil {
		externalID = *s.ExternalID
	}
	return RestoreOAuthAuthentication(provider, externalID, s.IsVerified)
}
