package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adgate-server/internal/config"
	"adgate-server/internal/domain"
	"adgate-server/internal/middleware"
	"adgate-server/internal/repository"
	"adgate-server/internal/service"
	"adgate-server/pkg/hash"

	"github.com/gorilla/mux"
)

const testSecret = "handler-test-secret"

type mockStore struct {
	blocked       map[string]bool
	verifications map[string]*domain.VerificationRecord
	failing       bool
}

func newMockStore() *mockStore {
	return &mockStore{
		blocked:       make(map[string]bool),
		verifications: make(map[string]*domain.VerificationRecord),
	}
}

func (m *mockStore) IsBlocked(ctx context.Context, deviceID string) (bool, error) {
	if m.failing {
		return false, errors.New("store is down")
	}
	return m.blocked[deviceID], nil
}

func (m *mockStore) HasExpiredNotice(ctx context.Context, deviceID string) (bool, error) {
	return false, nil
}

func (m *mockStore) GetVerification(ctx context.Context, deviceID string) (*domain.VerificationRecord, error) {
	if m.failing {
		return nil, errors.New("store is down")
	}
	if record, ok := m.verifications[deviceID]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, nil
}

func (m *mockStore) SetVerification(ctx context.Context, deviceID string, record *domain.VerificationRecord) error {
	if m.failing {
		return errors.New("store is down")
	}
	copied := *record
	m.verifications[deviceID] = &copied
	return nil
}

func (m *mockStore) ScanVerifications(ctx context.Context) ([]domain.VerifiedDevice, error) {
	if m.failing {
		return nil, errors.New("store is down")
	}
	var devices []domain.VerifiedDevice
	for deviceID, record := range m.verifications {
		devices = append(devices, domain.VerifiedDevice{DeviceID: deviceID, Record: *record})
	}
	return devices, nil
}

func (m *mockStore) DeleteMany(ctx context.Context, deviceIDs []string) error {
	if m.failing {
		return errors.New("store is down")
	}
	for _, deviceID := range deviceIDs {
		delete(m.verifications, deviceID)
	}
	return nil
}

type staticDuration struct{}

func (staticDuration) Current(ctx context.Context) domain.DurationConfig {
	return domain.DurationConfig{DurationMinutes: 30}
}

type nullLinkRepo struct{}

func (nullLinkRepo) Get() (*domain.DailyLink, error)  { return nil, nil }
func (nullLinkRepo) Set(link *domain.DailyLink) error { return nil }

func newTestRouter(store repository.DeviceStore, secret, adminKeyHash string) *mux.Router {
	tokenService := service.NewTokenService(secret, 10*time.Minute)
	verificationService := service.NewVerificationService(store, staticDuration{}, secret, config.ProtocolConfig{RequireNonce: true})
	statusService := service.NewStatusService(store, false)
	cleanupService := service.NewCleanupService(store)
	linkService := service.NewLinkService(tokenService, nullLinkRepo{}, "http://gate.test", "http://gate.test/verify")

	tokenHandler := NewTokenHandler(tokenService)
	verificationHandler := NewVerificationHandler(verificationService)
	statusHandler := NewStatusHandler(statusService)
	adminHandler := NewAdminHandler(cleanupService, linkService)
	redirectHandler := NewRedirectHandler(linkService)

	r := mux.NewRouter()
	r.Use(middleware.CORSMiddleware("*", "POST,OPTIONS", "Content-Type,X-Admin-Key"))

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/request-token", tokenHandler.Request).Methods("POST", "OPTIONS")
	api.HandleFunc("/confirm-verification", verificationHandler.Confirm).Methods("POST", "OPTIONS")
	api.HandleFunc("/verify-pin", verificationHandler.Confirm).Methods("POST", "OPTIONS")
	api.HandleFunc("/check-status", statusHandler.Check).Methods("POST", "OPTIONS")

	internal := api.PathPrefix("/internal").Subrouter()
	internal.Use(middleware.AdminKeyMiddleware(adminKeyHash))
	internal.HandleFunc("/cleanup", adminHandler.RunCleanup).Methods("POST", "OPTIONS")
	internal.HandleFunc("/update-daily-link", adminHandler.UpdateDailyLink).Methods("POST", "OPTIONS")

	r.HandleFunc("/redirect", redirectHandler.Redirect).Methods("GET")

	return r
}

func doJSON(t *testing.T, router *mux.Router, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to encode request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestRequestToken(t *testing.T) {
	router := newTestRouter(newMockStore(), testSecret, "")

	rec := doJSON(t, router, "/api/v1/request-token", map[string]string{"deviceId": "abc"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp domain.TokenResponse
	decodeBody(t, rec, &resp)
	if resp.Token == "" {
		t.Error("response carries no token")
	}
}

func TestRequestTokenMissingDeviceID(t *testing.T) {
	router := newTestRouter(newMockStore(), testSecret, "")

	rec := doJSON(t, router, "/api/v1/request-token", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRequestTokenWithoutSecret(t *testing.T) {
	router := newTestRouter(newMockStore(), "", "")

	rec := doJSON(t, router, "/api/v1/request-token", map[string]string{"deviceId": "abc"})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

// Full flow: request a token, confirm it, poll the status.
func TestVerificationFlow(t *testing.T) {
	store := newMockStore()
	router := newTestRouter(store, testSecret, "")

	rec := doJSON(t, router, "/api/v1/request-token", map[string]string{"deviceId": "abc"})
	var tokenResp domain.TokenResponse
	decodeBody(t, rec, &tokenResp)

	rec = doJSON(t, router, "/api/v1/confirm-verification", map[string]string{"token": tokenResp.Token})
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var confirmResp domain.ConfirmVerificationResponse
	decodeBody(t, rec, &confirmResp)
	if confirmResp.Message != "Successfully verified device: abc" {
		t.Errorf("confirm message = %q", confirmResp.Message)
	}

	rec = doJSON(t, router, "/api/v1/check-status", map[string]string{"deviceId": "abc"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status status = %d", rec.Code)
	}
	var statusResp domain.CheckStatusResponse
	decodeBody(t, rec, &statusResp)
	if statusResp.Action != domain.ActionGrantAccess {
		t.Errorf("action = %s, want GRANT_ACCESS", statusResp.Action)
	}
	if statusResp.ExpiresAt <= time.Now().UnixMilli() {
		t.Errorf("expires_at = %d is not in the future", statusResp.ExpiresAt)
	}
}

func TestConfirmRejectsGarbageToken(t *testing.T) {
	router := newTestRouter(newMockStore(), testSecret, "")

	rec := doJSON(t, router, "/api/v1/confirm-verification", map[string]string{"token": "garbage"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestConfirmBlockedDevice(t *testing.T) {
	store := newMockStore()
	store.blocked["abc"] = true
	router := newTestRouter(store, testSecret, "")

	rec := doJSON(t, router, "/api/v1/request-token", map[string]string{"deviceId": "abc"})
	var tokenResp domain.TokenResponse
	decodeBody(t, rec, &tokenResp)

	rec = doJSON(t, router, "/api/v1/verify-pin", map[string]string{"token": tokenResp.Token})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestCheckStatusBlocked(t *testing.T) {
	store := newMockStore()
	store.blocked["abc"] = true
	router := newTestRouter(store, testSecret, "")

	rec := doJSON(t, router, "/api/v1/check-status", map[string]string{"deviceId": "abc"})
	var resp domain.CheckStatusResponse
	decodeBody(t, rec, &resp)
	if resp.Action != domain.ActionDeviceBlocked {
		t.Errorf("action = %s, want DEVICE_BLOCKED", resp.Action)
	}
}

// A store outage must not surface as an error on the status poll.
func TestCheckStatusFailsOpen(t *testing.T) {
	store := newMockStore()
	store.failing = true
	router := newTestRouter(store, testSecret, "")

	rec := doJSON(t, router, "/api/v1/check-status", map[string]string{"deviceId": "abc"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp domain.CheckStatusResponse
	decodeBody(t, rec, &resp)
	if resp.Action != domain.ActionShowDialog {
		t.Errorf("action = %s, want SHOW_DIALOG", resp.Action)
	}
}

func TestOptionsPreflights(t *testing.T) {
	router := newTestRouter(newMockStore(), testSecret, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/check-status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("OPTIONS status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("missing CORS headers on preflight")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(newMockStore(), testSecret, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/check-status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestCleanupEndpoint(t *testing.T) {
	adminKey := "cleanup-admin-key"
	keyHash, err := hash.Hash(adminKey)
	if err != nil {
		t.Fatalf("failed to hash admin key: %v", err)
	}

	store := newMockStore()
	store.verifications["expired"] = &domain.VerificationRecord{Expiration: 1}
	store.verifications["active"] = &domain.VerificationRecord{Expiration: time.Now().Add(time.Hour).UnixMilli()}

	router := newTestRouter(store, testSecret, keyHash)

	// Missing key.
	rec := doJSON(t, router, "/api/v1/internal/cleanup", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no-key status = %d, want 401", rec.Code)
	}

	// Wrong key.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/internal/cleanup", bytes.NewReader(nil))
	req.Header.Set("X-Admin-Key", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("bad-key status = %d, want 403", rec.Code)
	}

	// Correct key.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/internal/cleanup", bytes.NewReader(nil))
	req.Header.Set("X-Admin-Key", adminKey)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp domain.CleanupResponse
	decodeBody(t, rec, &resp)
	if resp.DeletedCount != 1 {
		t.Errorf("deleted_count = %d, want 1", resp.DeletedCount)
	}
	if _, ok := store.verifications["active"]; !ok {
		t.Error("active record must survive cleanup")
	}
}

func TestRedirect(t *testing.T) {
	router := newTestRouter(newMockStore(), testSecret, "")

	req := httptest.NewRequest(http.MethodGet, "/redirect?token=tok123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	want := fmt.Sprintf("%s?token=%s", "http://gate.test/verify", "tok123")
	if got := rec.Header().Get("Location"); got != want {
		t.Errorf("Location = %s, want %s", got, want)
	}

	req = httptest.NewRequest(http.MethodGet, "/redirect", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing token status = %d, want 400", rec.Code)
	}
}
