package tracker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/boudmaker/oclock/internal/schema"
	"github.com/boudmaker/oclock/internal/store/local"
)

// AddManual records a completed session of the given number of minutes,
// ending now, earning at the current hourly rate.
func (t *Tracker) AddManual(minutes float64) (*schema.WorkSession, error) {
	return t.addManualEntry(minutes, 1, "Manual entry")
}

// SubtractManual records a deduction: a session whose duration and
// earnings are negative, used to correct over-counted time.
func (t *Tracker) SubtractManual(minutes float64) (*schema.WorkSession, error) {
	return t.addManualEntry(minutes, -1, "Deduction")
}

func (t *Tracker) addManualEntry(minutes float64, sign float64, desc string) (*schema.WorkSession, error) {
	if minutes <= 0 || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		t.notifyError("Please enter a positive number of minutes")
		return nil, ErrInvalidAmount
	}
	dur := time.Duration(sign * minutes * float64(time.Minute))

	t.mu.Lock()
	// Manual entries are point-in-time records: both timestamps are
	// the moment of entry, only the duration carries the length.
	end := t.now()
	s := &schema.WorkSession{
		ID:          schema.NewID(),
		StartTime:   end,
		EndTime:     end,
		Duration:    dur.Milliseconds(),
		Earnings:    schema.EarningsFor(dur, t.settings.HourlyRate),
		HourlyRate:  t.settings.HourlyRate,
		IsManual:    true,
		TaskName:    schema.DefaultTaskName,
		Description: desc,
	}
	t.sessions = append([]*schema.WorkSession{s}, t.sessions...)
	t.persistSessionsLocked()
	out := *s
	t.mu.Unlock()

	if sign > 0 {
		t.notifyInfo(fmt.Sprintf("Added %.0f minutes", minutes))
	} else {
		t.notifyInfo(fmt.Sprintf("Subtracted %.0f minutes", minutes))
	}
	return &out, nil
}

// RenameTask sets the task name of the session with the given id. Blank
// names fall back to the default task name. Renaming an unknown id is a
// no-op.
func (t *Tracker) RenameTask(id, name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.findSessionLocked(id)
	if s == nil {
		return false
	}
	s.TaskName = normalizeTaskName(name)
	t.persistSessionsLocked()
	return true
}

// SetDescription sets the free-form description of a session.
func (t *Tracker) SetDescription(id, desc string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.findSessionLocked(id)
	if s == nil {
		return false
	}
	s.Description = desc
	t.persistSessionsLocked()
	return true
}

// DeleteSession removes one session. Deleting an unknown id is a no-op.
func (t *Tracker) DeleteSession(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	found := false
	kept := t.sessions[:0]
	for _, s := range t.sessions {
		if s.ID == id {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	t.sessions = kept
	if found {
		t.persistSessionsLocked()
	}
	return found
}

// ClearSessions removes every session. Signed out this deletes the
// local blob entirely; signed in it replaces the owner's rows with
// nothing.
func (t *Tracker) ClearSessions() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions = nil
	if t.remoteActiveLocked() {
		owner := t.principal
		t.sessionQ.enqueue(func(ctx context.Context) {
			if err := t.remoteDB.ReplaceSessions(ctx, owner, nil); err != nil {
				t.remoteWriteFailed("sessions", err)
			}
		})
		return nil
	}
	if err := t.localStore.Delete(local.KeyWorkSessions); err != nil {
		return fmt.Errorf("clearing sessions: %w", err)
	}
	return nil
}

// Sessions returns a snapshot of the session sequence, newest first.
func (t *Tracker) Sessions() []schema.WorkSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]schema.WorkSession, len(t.sessions))
	for i, s := range t.sessions {
		out[i] = *s
	}
	return out
}

// TotalEarnings sums the earnings of every finalized session.
func (t *Tracker) TotalEarnings() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total float64
	for _, s := range t.sessions {
		if s.Finalized() {
			total += s.Earnings
		}
	}
	return total
}

// TotalTime sums the durations of every finalized session.
func (t *Tracker) TotalTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total int64
	for _, s := range t.sessions {
		if s.Finalized() {
			total += s.Duration
		}
	}
	return time.Duration(total) * time.Millisecond
}

// persistSessionsLocked routes the whole session sequence to the active
// tier. Sessions are always written as a full replace, never per row.
// Caller holds t.mu.
func (t *Tracker) persistSessionsLocked() {
	if t.remoteActiveLocked() {
		owner := t.principal
		snapshot := make([]*schema.WorkSession, len(t.sessions))
		for i, s := range t.sessions {
			copied := *s
			snapshot[i] = &copied
		}
		t.sessionQ.enqueue(func(ctx context.Context) {
			if err := t.remoteDB.ReplaceSessions(ctx, owner, snapshot); err != nil {
				t.remoteWriteFailed("sessions", err)
			}
		})
		return
	}
	sessions := t.sessions
	if sessions == nil {
		sessions = []*schema.WorkSession{}
	}
	t.writeLocalLocked(local.KeyWorkSessions, sessions, t.sessionsHydrated)
}
