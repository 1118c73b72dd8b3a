package service

import (
	"fmt"
	"time"

	"adgate-server/pkg/token"

	"github.com/google/uuid"
)

// TokenService issues short-lived verification tokens. The token is the only
// artifact the client carries between completing the external action and
// confirming; nothing is persisted at issuance.
type TokenService struct {
	secret string
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: secret,
		ttl:    ttl,
	}
}

// Issue signs a token for the device with a fresh verification nonce.
func (s *TokenService) Issue(deviceID string) (string, error) {
	if deviceID == "" {
		return "", fmt.Errorf("%w: device ID is required", ErrValidation)
	}
	if s.secret == "" {
		return "", fmt.Errorf("%w: signing secret is not set", ErrConfiguration)
	}

	nonce := uuid.New().String()

	tok, err := token.Issue(deviceID, nonce, s.ttl, s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return tok, nil
}
