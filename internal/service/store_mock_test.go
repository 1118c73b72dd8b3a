package service

import (
	"context"
	"errors"

	"adgate-server/internal/domain"
)

type mockDeviceStore struct {
	blocked        map[string]bool
	expiredNotices map[string]bool
	verifications  map[string]*domain.VerificationRecord
	failing        bool
	deleteBatches  int
}

func newMockDeviceStore() *mockDeviceStore {
	return &mockDeviceStore{
		blocked:        make(map[string]bool),
		expiredNotices: make(map[string]bool),
		verifications:  make(map[string]*domain.VerificationRecord),
	}
}

var errStoreDown = errors.New("store is down")

func (m *mockDeviceStore) IsBlocked(ctx context.Context, deviceID string) (bool, error) {
	if m.failing {
		return false, errStoreDown
	}
	return m.blocked[deviceID], nil
}

func (m *mockDeviceStore) HasExpiredNotice(ctx context.Context, deviceID string) (bool, error) {
	if m.failing {
		return false, errStoreDown
	}
	return m.expiredNotices[deviceID], nil
}

func (m *mockDeviceStore) GetVerification(ctx context.Context, deviceID string) (*domain.VerificationRecord, error) {
	if m.failing {
		return nil, errStoreDown
	}
	if record, ok := m.verifications[deviceID]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, nil
}

func (m *mockDeviceStore) SetVerification(ctx context.Context, deviceID string, record *domain.VerificationRecord) error {
	if m.failing {
		return errStoreDown
	}
	copied := *record
	m.verifications[deviceID] = &copied
	return nil
}

func (m *mockDeviceStore) ScanVerifications(ctx context.Context) ([]domain.VerifiedDevice, error) {
	if m.failing {
		return nil, errStoreDown
	}
	var devices []domain.VerifiedDevice
	for deviceID, record := range m.verifications {
		devices = append(devices, domain.VerifiedDevice{DeviceID: deviceID, Record: *record})
	}
	return devices, nil
}

func (m *mockDeviceStore) DeleteMany(ctx context.Context, deviceIDs []string) error {
	if m.failing {
		return errStoreDown
	}
	m.deleteBatches++
	for _, deviceID := range deviceIDs {
		delete(m.verifications, deviceID)
	}
	return nil
}
