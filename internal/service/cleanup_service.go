package service

import (
	"context"
	"fmt"

	"adgate-server/internal/repository"

	"github.com/sirupsen/logrus"
)

// CleanupService removes verification records whose expiration has passed.
// The status gate already treats such records as expired, so the sweep only
// bounds store growth; it never needs to run at any particular moment.
type CleanupService struct {
	store repository.DeviceStore
}

func NewCleanupService(store repository.DeviceStore) *CleanupService {
	return &CleanupService{
		store: store,
	}
}

// Run deletes every record with 0 < expiration < now in one batch and returns
// the count. Records with no expiration are kept: a missing field means
// "never expire", not "always expired".
func (s *CleanupService) Run(ctx context.Context, now int64) (int, error) {
	devices, err := s.store.ScanVerifications(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var expired []string
	for _, d := range devices {
		if d.Record.Expiration != 0 && d.Record.Expiration < now {
			expired = append(expired, d.DeviceID)
		}
	}

	if len(expired) == 0 {
		logrus.Debug("Cleanup found no expired devices")
		return 0, nil
	}

	if err := s.store.DeleteMany(ctx, expired); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	logrus.WithField("deleted_count", len(expired)).Info("Cleanup deleted expired devices")
	return len(expired), nil
}
