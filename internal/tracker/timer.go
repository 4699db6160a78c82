package tracker

import (
	"fmt"
	"time"

	"github.com/boudmaker/oclock/internal/schema"
	"github.com/boudmaker/oclock/internal/store/local"
)

// timerState is the running-timer portion of the tracker. The zero
// value is the idle state.
type timerState struct {
	running   bool
	countdown bool
	target    time.Duration
	start     time.Time
	sessionID string
}

// TimerSnapshot is a point-in-time view of the timer for display and
// dashboard broadcast.
type TimerSnapshot struct {
	Running   bool          `json:"running"`
	Countdown bool          `json:"countdown"`
	Target    time.Duration `json:"target"`
	StartTime time.Time     `json:"startTime"`
	Elapsed   time.Duration `json:"elapsed"`
	Remaining time.Duration `json:"remaining"`
	SessionID string        `json:"sessionId"`
	Earnings  float64       `json:"earnings"`
}

// SetTickFunc registers a callback invoked on every tick while a timer
// runs. Call it before starting a timer.
func (t *Tracker) SetTickFunc(fn func(TimerSnapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTick = fn
}

// Timer returns the current timer snapshot.
func (t *Tracker) Timer() TimerSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() TimerSnapshot {
	if !t.timer.running {
		return TimerSnapshot{Countdown: t.countdownMode, Target: t.countdownTarget}
	}
	elapsed := t.now().Sub(t.timer.start)
	snap := TimerSnapshot{
		Running:   true,
		Countdown: t.timer.countdown,
		Target:    t.timer.target,
		StartTime: t.timer.start,
		Elapsed:   elapsed,
		SessionID: t.timer.sessionID,
		Earnings:  schema.EarningsFor(elapsed, t.settings.HourlyRate),
	}
	if t.timer.countdown {
		remaining := t.timer.target - elapsed
		if remaining < 0 {
			remaining = 0
		}
		snap.Remaining = remaining
	}
	return snap
}

// StartTimer begins a new timer in the currently selected mode. A
// placeholder session is inserted immediately and the active timer is
// recorded in the local store for crash recovery.
func (t *Tracker) StartTimer() (*schema.WorkSession, error) {
	t.mu.Lock()
	if t.timer.running {
		t.mu.Unlock()
		t.notifyError("A timer is already running")
		return nil, ErrTimerRunning
	}
	start := t.now()
	s := &schema.WorkSession{
		ID:        schema.NewID(),
		StartTime: start,
		EndTime:   start,
		TaskName:  schema.PlaceholderTaskName,
	}
	t.sessions = append([]*schema.WorkSession{s}, t.sessions...)
	t.timer = timerState{
		running:   true,
		countdown: t.countdownMode,
		target:    t.countdownTarget,
		start:     start,
		sessionID: s.ID,
	}
	t.persistSessionsLocked()
	t.saveActiveTimerLocked()

	stop := make(chan struct{})
	t.tickStop = stop
	out := *s
	t.mu.Unlock()

	go t.runTicker(stop)
	t.notifyInfo("Timer started")
	return &out, nil
}

// StopTimer finalizes the active session in place, capturing the hourly
// rate in effect at this moment.
func (t *Tracker) StopTimer() (*schema.WorkSession, error) {
	t.mu.Lock()
	if !t.timer.running {
		t.mu.Unlock()
		t.notifyError("No timer is running")
		return nil, ErrTimerIdle
	}
	s := t.finalizeLocked(t.now())
	t.persistSessionsLocked()
	if err := t.localStore.Delete(local.KeyActiveTimer); err != nil {
		t.logger.Printf("clearing active timer: %v", err)
	}
	stop := t.tickStop
	t.tickStop = nil
	out := *s
	t.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	t.notifyInfo(fmt.Sprintf("Session saved: earned %.2f", out.Earnings))
	return &out, nil
}

// finalizeLocked turns the running timer's placeholder into a completed
// session and resets the timer state. Caller holds t.mu and is
// responsible for persistence and for closing the tick channel.
func (t *Tracker) finalizeLocked(end time.Time) *schema.WorkSession {
	s := t.findSessionLocked(t.timer.sessionID)
	if s == nil {
		// Placeholder lost (for example an external clear while
		// running); reinsert so the work is not dropped.
		s = &schema.WorkSession{ID: t.timer.sessionID, StartTime: t.timer.start}
		t.sessions = append([]*schema.WorkSession{s}, t.sessions...)
	}
	dur := end.Sub(t.timer.start)
	s.EndTime = end
	s.Duration = dur.Milliseconds()
	s.Earnings = schema.EarningsFor(dur, t.settings.HourlyRate)
	s.HourlyRate = t.settings.HourlyRate
	if s.TaskName == schema.PlaceholderTaskName || s.TaskName == "" {
		s.TaskName = schema.DefaultTaskName
	}
	t.timer = timerState{}
	return s
}

// FinalizeActive finalizes a running timer using only synchronous local
// writes. It is the teardown path for process exit: the finalized
// sequence is written to the local blob immediately, and when signed in
// a remote replace is additionally enqueued without being awaited.
func (t *Tracker) FinalizeActive() (*schema.WorkSession, error) {
	t.mu.Lock()
	if !t.timer.running {
		t.mu.Unlock()
		return nil, nil
	}
	s := t.finalizeLocked(t.now())
	stop := t.tickStop
	t.tickStop = nil

	sessions := t.sessions
	if sessions == nil {
		sessions = []*schema.WorkSession{}
	}
	if err := t.localStore.Put(local.KeyWorkSessions, sessions); err != nil {
		t.logger.Printf("finalizing to local store: %v", err)
	}
	if err := t.localStore.Delete(local.KeyActiveTimer); err != nil {
		t.logger.Printf("clearing active timer: %v", err)
	}
	if t.remoteActiveLocked() {
		t.persistSessionsLocked()
	}
	out := *s
	t.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	return &out, nil
}

// saveActiveTimerLocked records the running timer in the local store so
// a crash or a later CLI invocation can resume it. Caller holds t.mu.
func (t *Tracker) saveActiveTimerLocked() {
	rec := activeTimerRecord{
		SessionID: t.timer.sessionID,
		StartTime: t.timer.start,
		Countdown: t.timer.countdown,
	}
	if t.timer.countdown {
		rec.TargetMs = t.timer.target.Milliseconds()
	}
	if err := t.localStore.Put(local.KeyActiveTimer, rec); err != nil {
		t.logger.Printf("recording active timer: %v", err)
	}
}

// resumeActiveTimerLocked restores a timer recorded by a previous
// process. Caller holds t.mu; called once from New after hydration.
func (t *Tracker) resumeActiveTimerLocked() {
	var rec activeTimerRecord
	ok, err := t.localStore.Get(local.KeyActiveTimer, &rec)
	if err != nil {
		t.logger.Printf("reading active timer: %v", err)
		return
	}
	if !ok || rec.SessionID == "" {
		return
	}
	t.timer = timerState{
		running:   true,
		countdown: rec.Countdown,
		target:    time.Duration(rec.TargetMs) * time.Millisecond,
		start:     rec.StartTime,
		sessionID: rec.SessionID,
	}
	if t.findSessionLocked(rec.SessionID) == nil {
		t.sessions = append([]*schema.WorkSession{{
			ID:        rec.SessionID,
			StartTime: rec.StartTime,
			EndTime:   rec.StartTime,
			TaskName:  schema.PlaceholderTaskName,
		}}, t.sessions...)
	}
	stop := make(chan struct{})
	t.tickStop = stop
	go t.runTicker(stop)
	t.logger.Printf("resumed timer for session %s started %s", rec.SessionID, rec.StartTime.Format(time.RFC3339))
}

// runTicker drives the periodic tick while a timer runs. A countdown
// timer that reaches its target is finalized through the normal stop
// path.
func (t *Tracker) runTicker(stop chan struct{}) {
	ticker := time.NewTicker(t.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			snap, expired, fn := t.tickOnce()
			if fn != nil && snap.Running {
				fn(snap)
			}
			if expired {
				if _, err := t.StopTimer(); err == nil {
					t.notifyInfo("Time's up!")
				}
				return
			}
		}
	}
}

func (t *Tracker) tickOnce() (TimerSnapshot, bool, func(TimerSnapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.timer.running {
		return TimerSnapshot{}, false, nil
	}
	snap := t.snapshotLocked()
	expired := t.timer.countdown && snap.Elapsed >= t.timer.target
	return snap, expired, t.onTick
}

// SetCountdownMode selects between count-up and countdown for the next
// timer. The mode cannot change while a timer runs.
func (t *Tracker) SetCountdownMode(on bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer.running {
		return ErrTimerRunning
	}
	t.countdownMode = on
	return nil
}

// SetCountdownTarget sets the countdown duration for the next timer.
func (t *Tracker) SetCountdownTarget(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer.running {
		return ErrTimerRunning
	}
	if d <= 0 {
		return ErrInvalidAmount
	}
	t.countdownTarget = d
	return nil
}

// AdjustCountdown shifts the countdown target by delta, clamping at
// zero, and returns the new target.
func (t *Tracker) AdjustCountdown(delta time.Duration) (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer.running {
		return 0, ErrTimerRunning
	}
	target := t.countdownTarget + delta
	if target < 0 {
		target = 0
	}
	t.countdownTarget = target
	return target, nil
}
