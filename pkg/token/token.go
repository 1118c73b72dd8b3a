package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSecret is returned when no signing secret is configured.
	ErrNoSecret = errors.New("signing secret is not configured")
	// ErrExpired is returned when the token signature is valid but its TTL elapsed.
	ErrExpired = errors.New("token has expired")
	// ErrInvalid is returned for malformed tokens or bad signatures.
	ErrInvalid = errors.New("token is invalid")
)

// Claims carries the device identity inside a signed verification token.
// Nonce is the opaque verification nonce echoed into the stored record.
type Claims struct {
	DeviceID string `json:"deviceId"`
	Nonce    string `json:"verification_token,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a token for deviceID with the given TTL. The nonce may be empty
// when the protocol variant does not require nonce echo.
func Issue(deviceID, nonce string, ttl time.Duration, secret string) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}

	now := time.Now()
	claims := Claims{
		DeviceID: deviceID,
		Nonce:    nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify validates the signature and expiry of a token. Expired tokens are
// reported as ErrExpired, everything else wrong with the token as ErrInvalid,
// so callers can return distinct messages for the two cases.
func Verify(tokenString, secret string) (*Claims, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if !parsed.Valid {
		return nil, ErrInvalid
	}

	return claims, nil
}
