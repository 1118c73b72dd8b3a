package domain

// StatusAction tells the client what to do with the gated feature.
type StatusAction string

const (
	ActionGrantAccess   StatusAction = "GRANT_ACCESS"
	ActionShowDialog    StatusAction = "SHOW_DIALOG"
	ActionShowExpiredUI StatusAction = "SHOW_EXPIRED_UI"
	ActionDeviceBlocked StatusAction = "DEVICE_BLOCKED"
)

// VerificationRecord is the persisted state asserting a device is verified
// until Expiration. All timestamps are unix milliseconds. A record whose
// Expiration is in the past is expired even before the cleanup sweep removes
// it; a zero Expiration means the record never expires on its own.
type VerificationRecord struct {
	Expiration int64  `json:"expiration"`
	LastToken  string `json:"last_token,omitempty"`
	VerifiedAt int64  `json:"verified_at,omitempty"`
}

// VerifiedDevice pairs a device identifier with its stored record, as yielded
// by a full scan of the verified collection.
type VerifiedDevice struct {
	DeviceID string
	Record   VerificationRecord
}

// DurationConfig is the remote duration descriptor. The two modes are mutually
// exclusive: hours when UseHours is set, minutes otherwise. Zero values fall
// back to the defaults (48 hours / 60 minutes).
type DurationConfig struct {
	UseHours        bool  `json:"useHours"`
	DurationHours   int64 `json:"durationHours"`
	DurationMinutes int64 `json:"durationMinutes"`
}

// RemoteConfig is the shape of the remote JSON config resource.
type RemoteConfig struct {
	Verification DurationConfig `json:"verification"`
}

type RequestTokenRequest struct {
	DeviceID string `json:"deviceId" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type ConfirmVerificationRequest struct {
	Token string `json:"token" validate:"required"`
}

type ConfirmVerificationResponse struct {
	Message string `json:"message"`
}

type CheckStatusRequest struct {
	DeviceID string `json:"deviceId" validate:"required"`
}

type CheckStatusResponse struct {
	Action    StatusAction `json:"action"`
	Message   string       `json:"message"`
	ExpiresAt int64        `json:"expires_at,omitempty"`
}

type CleanupResponse struct {
	DeletedCount int    `json:"deleted_count"`
	Message      string `json:"message"`
}
