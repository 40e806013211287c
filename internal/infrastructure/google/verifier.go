package google

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

// ErrUnverifiedEmail is returned for Google accounts whose email Google has
// not verified. It counts as invalid credentials.
var ErrUnverifiedEmail = fmt.Errorf("google email not verified: %w", application.ErrInvalidCredentials)

// Verifier validates Google ID tokens issued for one client ID.
type Verifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID, validate: idtoken.Validate}
}

func (v *Verifier) Verify(ctx context.Context, token string) (*application.OAuthIdentity, error) {
	p, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", application.ErrInvalidCredentials, err)
	}
	return identityFromPayload(p)
}

func identityFromPayload(p *idtoken.Payload) (*application.OAuthIdentity, error) {
	email, _ := p.Claims["email"].(string)
	if verified, _ := p.Claims["email_verified"].(bool); !verified || email == "" {
		return nil, ErrUnverifiedEmail
	}
	first, _ := p.Claims["given_name"].(string)
	last, _ := p.Claims["family_name"].(string)
	picture, _ := p.Claims["picture"].(string)
	return &application.OAuthIdentity{
		Provider:   entity.ProviderGoogle,
		ExternalID: p.Subject,
		Email:      email,
		FirstName:  first,
		LastName:   last,
		Picture:    picture,
	}, nil
}

var _ application.OAuthVerifier = (*Verifier)(nil)
