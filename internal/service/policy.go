package service

import "adgate-server/internal/domain"

const (
	millisPerMinute = int64(60 * 1000)
	millisPerHour   = int64(60 * 60 * 1000)

	defaultDurationHours   = int64(48)
	defaultDurationMinutes = int64(60)
)

// ComputeExpiration returns the absolute expiration instant (unix ms) for a
// verification granted at now. Hours mode and minutes mode are mutually
// exclusive; zero durations fall back to 48 hours or 60 minutes. Integer
// millisecond arithmetic only.
func ComputeExpiration(cfg domain.DurationConfig, now int64) int64 {
	// An entirely empty descriptor means the config was absent; use the
	// hardcoded 48 hour fallback rather than the minutes-mode default.
	if cfg == (domain.DurationConfig{}) {
		return now + defaultDurationHours*millisPerHour
	}

	if cfg.UseHours {
		hours := cfg.DurationHours
		if hours == 0 {
			hours = defaultDurationHours
		}
		return now + hours*millisPerHour
	}

	minutes := cfg.DurationMinutes
	if minutes == 0 {
		minutes = defaultDurationMinutes
	}
	return now + minutes*millisPerMinute
}

// Classify maps a device's stored state onto the client action. The block
// check short-circuits everything else; an expired record never grants access
// even while it is still present in the store. expiredUI selects the variant
// that shows a dedicated expired screen instead of the verification dialog.
func Classify(blocked bool, record *domain.VerificationRecord, expiredUI bool, now int64) domain.StatusAction {
	if blocked {
		return domain.ActionDeviceBlocked
	}

	if record == nil {
		return domain.ActionShowDialog
	}

	if record.Expiration > now {
		return domain.ActionGrantAccess
	}

	if expiredUI {
		return domain.ActionShowExpiredUI
	}
	return domain.ActionShowDialog
}
