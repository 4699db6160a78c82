package tracker

import (
	"context"
	"math"

	"github.com/boudmaker/oclock/internal/schema"
	"github.com/boudmaker/oclock/internal/store/local"
)

// Settings returns a copy of the current settings record.
func (t *Tracker) Settings() schema.UserSettings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

// SetHourlyRate changes the rate applied to sessions finalized from now
// on. Already-finalized sessions keep the rate captured at their stop.
func (t *Tracker) SetHourlyRate(rate float64) error {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		t.notifyError("Hourly rate must be a positive number")
		return ErrInvalidRate
	}
	t.mu.Lock()
	t.settings.HourlyRate = rate
	t.persistSettingsLocked(local.KeyHourlyRate, rate)
	t.mu.Unlock()
	return nil
}

// SetUserName changes the display name used in reports.
func (t *Tracker) SetUserName(name string) {
	t.mu.Lock()
	if name == "" {
		name = schema.DefaultUserName
	}
	t.settings.UserName = name
	t.persistSettingsLocked(local.KeyUserName, name)
	t.mu.Unlock()
}

// SetUserEmail changes the report recipient address.
func (t *Tracker) SetUserEmail(email string) {
	t.mu.Lock()
	t.settings.UserEmail = email
	t.persistSettingsLocked(local.KeyUserEmail, email)
	t.mu.Unlock()
}

// persistSettingsLocked routes a settings change to the active tier.
// Signed out each field lives under its own local key; signed in the
// whole record is upserted by owner. Caller holds t.mu.
func (t *Tracker) persistSettingsLocked(key string, value interface{}) {
	if t.remoteActiveLocked() {
		owner := t.principal
		record := t.settings
		t.settingsQ.enqueue(func(ctx context.Context) {
			if err := t.remoteDB.UpsertSettingsContext(ctx, owner, &record); err != nil {
				t.remoteWriteFailed("settings", err)
			}
		})
		return
	}
	t.writeLocalLocked(key, value, true)
}
