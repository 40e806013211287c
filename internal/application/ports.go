package application

import (
	"context"
	"io"
	"time"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

// Cache is a shared expiring key-value store. Each call is a single atomic
// command; expiry is enforced by the backend.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get reports found=false for a missing or expired key.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Delete(ctx context.Context, key string) error
}

// Notifier delivers a one-time code to an email address.
type Notifier interface {
	SendCode(ctx context.Context, to, code, purpose string) error
}

// PasswordHasher is the credential-hash port.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(plain, hash string) bool
}

// TokenIssuer signs access and refresh tokens for a session.
type TokenIssuer interface {
	GenerateAccessToken(userID, sessionID, role string) (string, time.Time, error)
	GenerateRefreshToken(userID, sessionID, role string) (string, time.Time, error)
	ParseRefreshToken(token string) (*helpers.Claims, error)
}

// OAuthIdentity is the verified result of an external sign-in.
type OAuthIdentity struct {
	Provider   entity.AuthProvider
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	Picture    string
}

// OAuthVerifier validates an ID token issued by an external provider.
type OAuthVerifier interface {
	Verify(ctx context.Context, idToken string) (*OAuthIdentity, error)
}

// UserIndex keeps a searchable copy of public profile data.
type UserIndex interface {
	IndexUser(ctx context.Context, u *entity.User) error
	RemoveUser(ctx context.Context, id string) error
	SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// AvatarStore uploads avatar images and returns their public URL.
type AvatarStore interface {
	UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error)
}

// SessionStore tracks the single active session of a user.
type SessionStore interface {
	Save(ctx context.Context, s Session, ttl time.Duration) error
	// Get returns nil, nil when the user has no live session.
	Get(ctx context.Context, userID string) (*Session, error)
	Delete(ctx context.Context, userID string) error
}

// Session is the cached login state read by the auth middleware.
type Session struct {
	UserID    string
	SessionID string
	Email     string
	Username  string
	Role      string
	CreatedAt time.Time
}
