package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adgate-server/internal/config"
	"adgate-server/internal/domain"
	"adgate-server/internal/repository"
	"adgate-server/pkg/token"

	"github.com/sirupsen/logrus"
)

// DurationSource yields the currently effective verification duration.
// Implemented by the remote config client; tests supply a stub.
type DurationSource interface {
	Current(ctx context.Context) domain.DurationConfig
}

// VerificationService exchanges a valid token for a verification record.
// Every gate on this path fails closed: it changes state, so a backend
// failure must refuse the exchange rather than guess.
type VerificationService struct {
	store    repository.DeviceStore
	duration DurationSource
	secret   string
	protocol config.ProtocolConfig

	now func() time.Time
}

func NewVerificationService(store repository.DeviceStore, duration DurationSource, secret string, protocol config.ProtocolConfig) *VerificationService {
	return &VerificationService{
		store:    store,
		duration: duration,
		secret:   secret,
		protocol: protocol,
		now:      time.Now,
	}
}

// Confirm validates the token, re-checks block status, and overwrites the
// device's verification record with a freshly computed expiration. Confirming
// again with a still-valid token re-extends from the new now; with single-use
// tokens enabled a nonce replay is rejected instead.
func (s *VerificationService) Confirm(ctx context.Context, tokenString string) (string, error) {
	if tokenString == "" {
		return "", fmt.Errorf("%w: token is required", ErrValidation)
	}

	claims, err := token.Verify(tokenString, s.secret)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return "", fmt.Errorf("%w: %v", ErrExpiredToken, err)
		case errors.Is(err, token.ErrNoSecret):
			return "", fmt.Errorf("%w: %v", ErrConfiguration, err)
		default:
			return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	deviceID := claims.DeviceID
	if deviceID == "" {
		return "", fmt.Errorf("%w: token payload is missing device ID", ErrValidation)
	}
	if s.protocol.RequireNonce && claims.Nonce == "" {
		return "", fmt.Errorf("%w: token payload is missing verification nonce", ErrValidation)
	}

	// Block state may have changed between issuance and confirmation, so the
	// check is repeated here.
	blocked, err := s.store.IsBlocked(ctx, deviceID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if blocked {
		logrus.WithField("device_id", deviceID).Info("Verification refused for blocked device")
		return "", ErrForbidden
	}

	if s.protocol.SingleUseTokens && claims.Nonce != "" {
		existing, err := s.store.GetVerification(ctx, deviceID)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if existing != nil && existing.LastToken == claims.Nonce {
			return "", fmt.Errorf("%w: token already consumed", ErrInvalidToken)
		}
	}

	now := s.now()
	record := &domain.VerificationRecord{
		Expiration: ComputeExpiration(s.duration.Current(ctx), now.UnixMilli()),
		LastToken:  claims.Nonce,
		VerifiedAt: now.UnixMilli(),
	}

	if err := s.store.SetVerification(ctx, deviceID, record); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	logrus.WithFields(logrus.Fields{
		"device_id":  deviceID,
		"expiration": record.Expiration,
	}).Info("Device verified")

	return fmt.Sprintf("Successfully verified device: %s", deviceID), nil
}
