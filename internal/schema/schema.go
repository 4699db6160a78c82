// Package schema defines the record types shared by the oclock storage tiers.
//
// The same three collections exist in every tier: todo items, work
// sessions, and the per-user settings record. Records are flat JSON
// structures with last-write-wins semantics so the local blob store and
// the remote table store can exchange them without translation layers.
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task name constants used by the timer lifecycle.
const (
	// PlaceholderTaskName marks a session created at timer start and not
	// yet finalized.
	PlaceholderTaskName = "In Progress..."

	// DefaultTaskName is assigned when a session is finalized without a
	// name, or renamed to an empty string.
	DefaultTaskName = "Untitled Task"
)

// Defaults applied when no settings have been stored yet.
const (
	DefaultHourlyRate = 25.0
	DefaultUserName   = "User"
)

// NewID returns a fresh unique record identifier.
//
// IDs are UUIDv4 strings rather than clock-derived values so that rapid
// successive creations cannot collide within the same timestamp.
var NewID = uuid.NewString

// TodoItem is a single entry in the todo collection.
type TodoItem struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks that the item can be persisted.
func (t *TodoItem) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("text is required")
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	return nil
}

// WorkSession is a single unit of tracked (or manually entered) work.
//
// Timer sessions are created as placeholders at timer start with
// EndTime == StartTime and zero duration/earnings, then finalized in
// place at timer stop. Manual entries are created fully formed with
// StartTime == EndTime and the earnings amount set directly (negative
// for deductions).
type WorkSession struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	// Duration is EndTime - StartTime in milliseconds. Zero for manual
	// entries and for placeholders that have not been finalized yet.
	Duration int64 `json:"duration"`

	// Earnings is the signed currency amount for this session. For timer
	// sessions it equals (Duration in hours) * HourlyRate at the moment
	// of finalization; later rate changes do not rescale it.
	Earnings float64 `json:"earnings"`

	// HourlyRate is the rate captured when the session was finalized.
	HourlyRate float64 `json:"hourlyRate,omitempty"`

	IsManual    bool   `json:"isManual,omitempty"`
	TaskName    string `json:"taskName,omitempty"`
	Description string `json:"description,omitempty"`
}

// Validate checks that the session can be persisted.
func (s *WorkSession) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("id is required")
	}
	if s.StartTime.IsZero() {
		return fmt.Errorf("startTime is required")
	}
	if s.EndTime.IsZero() {
		return fmt.Errorf("endTime is required")
	}
	// Deductions are manual entries with negative duration; only timer
	// sessions must run forward.
	if !s.IsManual && s.Duration < 0 {
		return fmt.Errorf("duration must be non-negative (got %d)", s.Duration)
	}
	return nil
}

// Finalized reports whether this session has been completed. Placeholder
// sessions still carry the in-progress task name.
func (s *WorkSession) Finalized() bool {
	return s.TaskName != PlaceholderTaskName
}

// DurationValue returns the session duration as a time.Duration.
func (s *WorkSession) DurationValue() time.Duration {
	return time.Duration(s.Duration) * time.Millisecond
}

// Earnings computes the pay for working dur at the given hourly rate.
func EarningsFor(dur time.Duration, hourlyRate float64) float64 {
	return dur.Hours() * hourlyRate
}

// UserSettings is the singleton per-owner configuration record.
type UserSettings struct {
	HourlyRate float64 `json:"hourlyRate"`
	UserName   string  `json:"userName"`
	UserEmail  string  `json:"userEmail"`
}

// DefaultSettings returns the settings used before anything is stored.
func DefaultSettings() UserSettings {
	return UserSettings{
		HourlyRate: DefaultHourlyRate,
		UserName:   DefaultUserName,
	}
}

// Validate checks the settings record.
func (u *UserSettings) Validate() error {
	if u.HourlyRate <= 0 {
		return fmt.Errorf("hourly rate must be positive (got %v)", u.HourlyRate)
	}
	return nil
}
