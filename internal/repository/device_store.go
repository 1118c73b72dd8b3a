package repository

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"adgate-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// DeviceStore is the key-value view over the shared database. Collections are
// doc-ID prefixes inside one database: blocked:{deviceId}, verified:{deviceId},
// expired:{deviceId}. Writes are last-write-wins full replacements.
type DeviceStore interface {
	IsBlocked(ctx context.Context, deviceID string) (bool, error)
	HasExpiredNotice(ctx context.Context, deviceID string) (bool, error)
	GetVerification(ctx context.Context, deviceID string) (*domain.VerificationRecord, error)
	SetVerification(ctx context.Context, deviceID string, record *domain.VerificationRecord) error
	ScanVerifications(ctx context.Context) ([]domain.VerifiedDevice, error)
	DeleteMany(ctx context.Context, deviceIDs []string) error
}

const (
	blockedPrefix  = "blocked:"
	verifiedPrefix = "verified:"
	expiredPrefix  = "expired:"
)

type deviceStore struct {
	client *kivik.Client
	dbName string
}

func NewDeviceStore(client *kivik.Client, dbName string) DeviceStore {
	return &deviceStore{
		client: client,
		dbName: dbName,
	}
}

// IsBlocked reports whether a blocked marker doc exists. Any non-deleted doc
// counts; the marker's contents are written by an administrative process and
// never inspected here.
func (s *deviceStore) IsBlocked(ctx context.Context, deviceID string) (bool, error) {
	return s.docExists(ctx, blockedPrefix+deviceID)
}

func (s *deviceStore) HasExpiredNotice(ctx context.Context, deviceID string) (bool, error) {
	return s.docExists(ctx, expiredPrefix+deviceID)
}

func (s *deviceStore) docExists(ctx context.Context, docID string) (bool, error) {
	db := s.client.DB(s.dbName)

	var doc map[string]interface{}
	row := db.Get(ctx, docID)
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", docID, err)
	}

	return true, nil
}

func (s *deviceStore) GetVerification(ctx context.Context, deviceID string) (*domain.VerificationRecord, error) {
	db := s.client.DB(s.dbName)

	var record domain.VerificationRecord
	row := db.Get(ctx, verifiedPrefix+deviceID)
	if err := row.ScanDoc(&record); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read verification for %s: %w", deviceID, err)
	}

	return &record, nil
}

// SetVerification overwrites the device's verification record. Only the
// current revision is carried over; every application field is replaced.
func (s *deviceStore) SetVerification(ctx context.Context, deviceID string, record *domain.VerificationRecord) error {
	db := s.client.DB(s.dbName)
	docID := verifiedPrefix + deviceID

	doc := map[string]interface{}{
		"_id":         docID,
		"expiration":  record.Expiration,
		"last_token":  record.LastToken,
		"verified_at": record.VerifiedAt,
	}

	var existing map[string]interface{}
	row := db.Get(ctx, docID)
	if err := row.ScanDoc(&existing); err == nil {
		doc["_rev"] = existing["_rev"]
	} else if kivik.HTTPStatus(err) != http.StatusNotFound {
		return fmt.Errorf("failed to read verification for %s: %w", deviceID, err)
	}

	if _, err := db.Put(ctx, docID, doc); err != nil {
		return fmt.Errorf("failed to write verification for %s: %w", deviceID, err)
	}

	return nil
}

type verifiedDoc struct {
	ID  string `json:"_id"`
	Rev string `json:"_rev"`
	domain.VerificationRecord
}

// ScanVerifications returns every record in the verified collection. Used only
// by the cleanup sweep; not restartable.
func (s *deviceStore) ScanVerifications(ctx context.Context) ([]domain.VerifiedDevice, error) {
	db := s.client.DB(s.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"_id": map[string]interface{}{
				"$gte": verifiedPrefix,
				"$lt":  verifiedPrefix + "\ufff0",
			},
		},
	}

	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan verifications: %w", err)
	}
	defer rows.Close()

	var devices []domain.VerifiedDevice
	for rows.Next() {
		var doc verifiedDoc
		if err := rows.ScanDoc(&doc); err != nil {
			continue // Skip malformed docs
		}
		devices = append(devices, domain.VerifiedDevice{
			DeviceID: strings.TrimPrefix(doc.ID, verifiedPrefix),
			Record:   doc.VerificationRecord,
		})
	}

	return devices, nil
}

// DeleteMany removes verification records in a single _bulk_docs batch so a
// sweep is never half-applied. Devices whose record vanished since the scan
// are skipped.
func (s *deviceStore) DeleteMany(ctx context.Context, deviceIDs []string) error {
	if len(deviceIDs) == 0 {
		return nil
	}

	db := s.client.DB(s.dbName)

	var stubs []interface{}
	for _, deviceID := range deviceIDs {
		docID := verifiedPrefix + deviceID

		var doc map[string]interface{}
		row := db.Get(ctx, docID)
		if err := row.ScanDoc(&doc); err != nil {
			if kivik.HTTPStatus(err) == http.StatusNotFound {
				continue
			}
			return fmt.Errorf("failed to read %s for deletion: %w", docID, err)
		}

		stubs = append(stubs, map[string]interface{}{
			"_id":      docID,
			"_rev":     doc["_rev"],
			"_deleted": true,
		})
	}

	if len(stubs) == 0 {
		return nil
	}

	results, err := db.BulkDocs(ctx, stubs)
	if err != nil {
		return fmt.Errorf("failed to delete verifications: %w", err)
	}

	for _, result := range results {
		if result.Error != nil {
			return fmt.Errorf("failed to delete %s: %w", result.ID, result.Error)
		}
	}

	return nil
}
