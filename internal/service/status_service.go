package service

import (
	"context"
	"fmt"
	"time"

	"adgate-server/internal/domain"
	"adgate-server/internal/repository"

	"github.com/sirupsen/logrus"
)

// StatusService answers the read-only status poll. Unlike the confirmation
// path it fails open: if the store is unreachable the client is told to show
// the verification dialog, so an outage can neither lock devices out for good
// nor grant access for free.
type StatusService struct {
	store         repository.DeviceStore
	expiredNotice bool

	now func() time.Time
}

func NewStatusService(store repository.DeviceStore, expiredNotice bool) *StatusService {
	return &StatusService{
		store:         store,
		expiredNotice: expiredNotice,
		now:           time.Now,
	}
}

// CheckStatus resolves the device's current action. The only hard error is a
// missing device ID.
func (s *StatusService) CheckStatus(ctx context.Context, deviceID string) (*domain.CheckStatusResponse, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device ID is required", ErrValidation)
	}

	blocked, err := s.store.IsBlocked(ctx, deviceID)
	if err != nil {
		return s.failOpen(deviceID, err), nil
	}
	if blocked {
		return &domain.CheckStatusResponse{
			Action:  domain.ActionDeviceBlocked,
			Message: "This device has been blocked.",
		}, nil
	}

	if s.expiredNotice {
		notice, err := s.store.HasExpiredNotice(ctx, deviceID)
		if err != nil {
			return s.failOpen(deviceID, err), nil
		}
		if notice {
			return &domain.CheckStatusResponse{
				Action:  domain.ActionShowExpiredUI,
				Message: "Verification has expired.",
			}, nil
		}
	}

	record, err := s.store.GetVerification(ctx, deviceID)
	if err != nil {
		return s.failOpen(deviceID, err), nil
	}

	switch Classify(false, record, s.expiredNotice, s.now().UnixMilli()) {
	case domain.ActionGrantAccess:
		return &domain.CheckStatusResponse{
			Action:    domain.ActionGrantAccess,
			Message:   "Access granted.",
			ExpiresAt: record.Expiration,
		}, nil
	case domain.ActionShowExpiredUI:
		return &domain.CheckStatusResponse{
			Action:  domain.ActionShowExpiredUI,
			Message: "Verification has expired.",
		}, nil
	default:
		return &domain.CheckStatusResponse{
			Action:  domain.ActionShowDialog,
			Message: "Verification required.",
		}, nil
	}
}

func (s *StatusService) failOpen(deviceID string, err error) *domain.CheckStatusResponse {
	logrus.WithFields(logrus.Fields{
		"device_id": deviceID,
	}).WithError(err).Warn("Status check failed, defaulting to dialog")

	return &domain.CheckStatusResponse{
		Action:  domain.ActionShowDialog,
		Message: "Server error, proceeding with verification.",
	}
}
