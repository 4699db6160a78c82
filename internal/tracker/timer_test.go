package tracker

import (
	"errors"
	"testing"
	"time"

	"github.com/boudmaker/oclock/internal/schema"
	"github.com/boudmaker/oclock/internal/store/local"
)

func TestStartStopTimer(t *testing.T) {
	tr, _, clock := newLocalTracker(t)

	started, err := tr.StartTimer()
	if err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	if started.TaskName != schema.PlaceholderTaskName {
		t.Errorf("placeholder task name = %q", started.TaskName)
	}
	sessions := tr.Sessions()
	if len(sessions) != 1 || sessions[0].Finalized() {
		t.Fatalf("running sessions = %+v", sessions)
	}

	clock.Advance(time.Hour)
	stopped, err := tr.StopTimer()
	if err != nil {
		t.Fatalf("StopTimer: %v", err)
	}
	if stopped.ID != started.ID {
		t.Errorf("stopped id %s != started id %s", stopped.ID, started.ID)
	}
	if stopped.Duration != 3_600_000 {
		t.Errorf("duration = %d ms, want 3600000", stopped.Duration)
	}
	if stopped.Earnings != schema.DefaultHourlyRate {
		t.Errorf("earnings = %v, want %v (1h at default rate)", stopped.Earnings, schema.DefaultHourlyRate)
	}
	if stopped.HourlyRate != schema.DefaultHourlyRate {
		t.Errorf("captured rate = %v", stopped.HourlyRate)
	}
	if stopped.TaskName != schema.DefaultTaskName {
		t.Errorf("task name = %q, want %q", stopped.TaskName, schema.DefaultTaskName)
	}
	if tr.Timer().Running {
		t.Error("timer still running after stop")
	}
}

func TestStopWhenIdleIsNoop(t *testing.T) {
	tr, _, _ := newLocalTracker(t)
	if _, err := tr.StopTimer(); !errors.Is(err, ErrTimerIdle) {
		t.Fatalf("StopTimer error = %v, want ErrTimerIdle", err)
	}
	if got := tr.Sessions(); len(got) != 0 {
		t.Errorf("idle stop created sessions: %+v", got)
	}
}

func TestStartWhenRunningIsNoop(t *testing.T) {
	tr, _, _ := newLocalTracker(t)
	if _, err := tr.StartTimer(); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	if _, err := tr.StartTimer(); !errors.Is(err, ErrTimerRunning) {
		t.Fatalf("second StartTimer error = %v, want ErrTimerRunning", err)
	}
	if got := tr.Sessions(); len(got) != 1 {
		t.Errorf("double start created %d sessions", len(got))
	}
}

func TestRateCapturedAtStop(t *testing.T) {
	tr, _, clock := newLocalTracker(t)

	// An already-finalized session keeps its own rate.
	earlier, err := tr.AddManual(60)
	if err != nil {
		t.Fatalf("AddManual: %v", err)
	}

	if _, err := tr.StartTimer(); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	clock.Advance(30 * time.Minute)
	if err := tr.SetHourlyRate(100); err != nil {
		t.Fatalf("SetHourlyRate: %v", err)
	}
	clock.Advance(30 * time.Minute)
	stopped, err := tr.StopTimer()
	if err != nil {
		t.Fatalf("StopTimer: %v", err)
	}
	if stopped.Earnings != 100 {
		t.Errorf("earnings = %v, want 100 (1h at rate in effect at stop)", stopped.Earnings)
	}
	for _, s := range tr.Sessions() {
		if s.ID == earlier.ID && s.Earnings != 25 {
			t.Errorf("earlier session earnings changed to %v", s.Earnings)
		}
	}
}

func TestCountdownAutoStops(t *testing.T) {
	tr, _, clock := newLocalTracker(t)
	if err := tr.SetCountdownMode(true); err != nil {
		t.Fatalf("SetCountdownMode: %v", err)
	}
	if err := tr.SetCountdownTarget(15 * time.Minute); err != nil {
		t.Fatalf("SetCountdownTarget: %v", err)
	}
	if _, err := tr.StartTimer(); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}

	clock.Advance(15 * time.Minute)

	deadline := time.After(2 * time.Second)
	for tr.Timer().Running {
		select {
		case <-deadline:
			t.Fatal("countdown did not auto-stop")
		case <-time.After(5 * time.Millisecond):
		}
	}

	sessions := tr.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("sessions = %+v", sessions)
	}
	got := sessions[0]
	if got.Duration != 900_000 {
		t.Errorf("duration = %d ms, want 900000", got.Duration)
	}
	if !got.Finalized() {
		t.Errorf("session not finalized: %+v", got)
	}
}

func TestCountdownModeLockedWhileRunning(t *testing.T) {
	tr, _, _ := newLocalTracker(t)
	if _, err := tr.StartTimer(); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	if err := tr.SetCountdownMode(true); !errors.Is(err, ErrTimerRunning) {
		t.Errorf("SetCountdownMode error = %v, want ErrTimerRunning", err)
	}
	if _, err := tr.AdjustCountdown(15 * time.Minute); !errors.Is(err, ErrTimerRunning) {
		t.Errorf("AdjustCountdown error = %v, want ErrTimerRunning", err)
	}
}

func TestAdjustCountdownClampsAtZero(t *testing.T) {
	tr, _, _ := newLocalTracker(t)
	got, err := tr.AdjustCountdown(-2 * time.Hour)
	if err != nil {
		t.Fatalf("AdjustCountdown: %v", err)
	}
	if got != 0 {
		t.Errorf("target = %v, want 0", got)
	}
	got, err = tr.AdjustCountdown(15 * time.Minute)
	if err != nil {
		t.Fatalf("AdjustCountdown: %v", err)
	}
	if got != 15*time.Minute {
		t.Errorf("target = %v, want 15m", got)
	}
}

func TestActiveTimerSurvivesProcessRestart(t *testing.T) {
	store := newLocalStore(t)
	clock := newFakeClock()

	first := newTrackerOn(t, store, clock)
	started, err := first.StartTimer()
	if err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	clock.Advance(10 * time.Minute)
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := newTrackerOn(t, store, clock)
	snap := second.Timer()
	if !snap.Running || snap.SessionID != started.ID {
		t.Fatalf("resumed snapshot = %+v", snap)
	}
	clock.Advance(20 * time.Minute)
	stopped, err := second.StopTimer()
	if err != nil {
		t.Fatalf("StopTimer: %v", err)
	}
	if stopped.Duration != 30*60*1000 {
		t.Errorf("duration = %d ms, want 1800000", stopped.Duration)
	}
}

func TestFinalizeActive(t *testing.T) {
	tr, store, clock := newLocalTracker(t)
	if _, err := tr.StartTimer(); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	clock.Advance(45 * time.Minute)

	finalized, err := tr.FinalizeActive()
	if err != nil {
		t.Fatalf("FinalizeActive: %v", err)
	}
	if finalized == nil || finalized.Duration != 45*60*1000 {
		t.Fatalf("finalized = %+v", finalized)
	}

	var blob []*schema.WorkSession
	if found, _ := store.Get(local.KeyWorkSessions, &blob); !found || len(blob) != 1 || !blob[0].Finalized() {
		t.Fatalf("local blob after finalize = found=%v %+v", found, blob)
	}
	var rec activeTimerRecord
	if found, _ := store.Get(local.KeyActiveTimer, &rec); found {
		t.Error("active timer record still present after finalize")
	}

	again, err := tr.FinalizeActive()
	if err != nil || again != nil {
		t.Errorf("second FinalizeActive = %+v, %v, want nil, nil", again, err)
	}
}

func TestTimerSnapshotEarnings(t *testing.T) {
	tr, _, clock := newLocalTracker(t)
	if err := tr.SetHourlyRate(50); err != nil {
		t.Fatalf("SetHourlyRate: %v", err)
	}
	if _, err := tr.StartTimer(); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	clock.Advance(30 * time.Minute)
	snap := tr.Timer()
	if snap.Elapsed != 30*time.Minute {
		t.Errorf("elapsed = %v", snap.Elapsed)
	}
	if snap.Earnings != 25 {
		t.Errorf("running earnings = %v, want 25", snap.Earnings)
	}
}
