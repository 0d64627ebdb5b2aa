package google

import (
	"context"
	"errors"

	"github.com/vncsmyrnk/predixarena/internal/core/ports"
	"google.golang.org/api/idtoken"
)

type GoogleVerifier struct{}

func NewVerifier() ports.TokenVerifier {
	return &GoogleVerifier{}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string, clientID string) (*ports.TokenPayload, error) {
	payload, err := idtoken.Validate(ctx, token, clientID)
	if err != nil {
		return nil, err
	}
	return payloadFromClaims(payload.Claims)
}

// payloadFromClaims requires a verified email. The display name is optional.
func payloadFromClaims(claims map[string]any) (*ports.TokenPayload, error) {
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return nil, errors.New("email not found in claims")
	}
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		return nil, errors.New("email not verified")
	}
	name, _ := claims["name"].(string)
	return &ports.TokenPayload{Email: email, Name: name}, nil
}
