package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/boudmaker/oclock/internal/auth"
	"github.com/boudmaker/oclock/internal/schema"
	"github.com/boudmaker/oclock/internal/store/local"
	"github.com/boudmaker/oclock/internal/store/remote"
)

const (
	defaultTickInterval    = 100 * time.Millisecond
	defaultCountdownTarget = 30 * time.Minute

	// hydrateTimeout bounds the remote reads performed on a principal
	// transition.
	hydrateTimeout = 10 * time.Second
)

var (
	// ErrBlankTodo is returned when a todo is added with no text.
	ErrBlankTodo = errors.New("todo text must not be blank")
	// ErrTimerRunning is returned by operations that require an idle timer.
	ErrTimerRunning = errors.New("timer already running")
	// ErrTimerIdle is returned by operations that require a running timer.
	ErrTimerIdle = errors.New("no timer running")
	// ErrInvalidAmount is returned for manual entries that are not a
	// positive finite number of minutes.
	ErrInvalidAmount = errors.New("amount must be a positive number of minutes")
	// ErrInvalidRate is returned when the hourly rate is set to a
	// non-positive value.
	ErrInvalidRate = errors.New("hourly rate must be positive")
)

// NotificationLevel classifies a user-facing notification.
type NotificationLevel int

const (
	LevelInfo NotificationLevel = iota
	LevelError
)

// Notification is a transient user-facing message emitted by tracker
// operations (successes, validation failures, background write errors).
type Notification struct {
	Level   NotificationLevel
	Message string
}

// NotifyFunc receives notifications. It is called outside the tracker
// lock and must not call back into the tracker synchronously.
type NotifyFunc func(Notification)

// Config carries the collaborators a Tracker needs.
type Config struct {
	// Local is the blob store used while signed out and for timer
	// recovery state. Required.
	Local *local.Store

	// Remote is the owner-scoped table store used while signed in.
	// When nil the tracker runs local-only regardless of auth state.
	Remote *remote.DB

	// Auth supplies the current principal and principal-change
	// callbacks. When nil the tracker behaves as permanently signed out.
	Auth *auth.Provider

	Logger *log.Logger
	Notify NotifyFunc

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time

	// TickInterval is the timer tick period. Defaults to 100ms.
	TickInterval time.Duration
}

// activeTimerRecord is the crash-recovery state persisted to the local
// store while a timer runs.
type activeTimerRecord struct {
	SessionID string    `json:"sessionId"`
	StartTime time.Time `json:"startTime"`
	Countdown bool      `json:"countdown,omitempty"`
	TargetMs  int64     `json:"targetMs,omitempty"`
}

// Tracker owns the in-memory collections and routes their writes to the
// tier the current principal implies. All exported methods are safe for
// concurrent use.
type Tracker struct {
	localStore *local.Store
	remoteDB   *remote.DB
	authp      *auth.Provider
	logger     *log.Logger
	notifyFn   NotifyFunc
	now        func() time.Time
	tickEvery  time.Duration

	mu        sync.Mutex
	principal string
	todos     []*schema.TodoItem
	sessions  []*schema.WorkSession
	settings  schema.UserSettings

	todosHydrated    bool
	sessionsHydrated bool

	timer    timerState
	tickStop chan struct{}
	onTick   func(TimerSnapshot)

	countdownMode   bool
	countdownTarget time.Duration

	todoQ     *writeQueue
	sessionQ  *writeQueue
	settingsQ *writeQueue

	closed bool
}

// New builds a Tracker, performs the initial hydration for the current
// principal, resumes any recorded active timer, and registers for
// principal-change callbacks.
func New(cfg Config) (*Tracker, error) {
	if cfg.Local == nil {
		return nil, fmt.Errorf("tracker: local store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[tracker] ", log.LstdFlags)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = defaultTickInterval
	}

	t := &Tracker{
		localStore:      cfg.Local,
		remoteDB:        cfg.Remote,
		authp:           cfg.Auth,
		logger:          logger,
		notifyFn:        cfg.Notify,
		now:             now,
		tickEvery:       tick,
		settings:        schema.DefaultSettings(),
		countdownTarget: defaultCountdownTarget,
		todoQ:           newWriteQueue("todos", logger),
		sessionQ:        newWriteQueue("sessions", logger),
		settingsQ:       newWriteQueue("settings", logger),
	}

	principal := ""
	if t.authp != nil {
		if p, ok := t.authp.CurrentPrincipal(); ok {
			principal = p
		}
	}

	t.mu.Lock()
	t.loadLocalSettingsLocked()
	t.hydrateLocked(principal)
	t.resumeActiveTimerLocked()
	t.mu.Unlock()

	if t.authp != nil {
		t.authp.OnChange(t.handlePrincipalChange)
	}
	return t, nil
}

// remoteActiveLocked reports whether writes should target the remote
// tier. Caller holds t.mu.
func (t *Tracker) remoteActiveLocked() bool {
	return t.principal != "" && t.remoteDB != nil
}

// Principal returns the owner the tracker is currently scoped to, or
// the empty string when signed out.
func (t *Tracker) Principal() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.principal
}

// handlePrincipalChange re-hydrates state from the tier the new
// principal implies. Mutations are blocked for the duration, so no
// write can interleave with the tier switch.
func (t *Tracker) handlePrincipalChange(principal string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger.Printf("principal changed to %q, rehydrating", principal)
	t.hydrateLocked(principal)
}

// hydrateLocked replaces the in-memory collections from the tier the
// given principal implies. Caller holds t.mu.
func (t *Tracker) hydrateLocked(principal string) {
	t.todosHydrated = false
	t.sessionsHydrated = false
	t.principal = principal

	if !t.remoteActiveLocked() {
		var todos []*schema.TodoItem
		if _, err := t.localStore.Get(local.KeyTodos, &todos); err != nil {
			t.logger.Printf("reading local todos: %v", err)
		}
		t.todos = todos
		var sessions []*schema.WorkSession
		if _, err := t.localStore.Get(local.KeyWorkSessions, &sessions); err != nil {
			t.logger.Printf("reading local sessions: %v", err)
		}
		t.sessions = sessions
		t.loadLocalSettingsLocked()
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), hydrateTimeout)
		defer cancel()

		todos, err := t.remoteDB.ListTodos(ctx, principal)
		if err != nil {
			t.logger.Printf("hydrating todos for %s: %v", principal, err)
			t.notifyError("Failed to load todos")
			todos = nil
		}
		t.todos = todos

		sessions, err := t.remoteDB.ListSessions(ctx, principal)
		if err != nil {
			t.logger.Printf("hydrating sessions for %s: %v", principal, err)
			t.notifyError("Failed to load work sessions")
			sessions = nil
		}
		t.sessions = sessions

		settings, err := t.remoteDB.GetSettings(ctx, principal)
		switch {
		case err == nil:
			if settings.UserName == "" {
				settings.UserName = schema.DefaultUserName
			}
			if settings.HourlyRate <= 0 {
				settings.HourlyRate = schema.DefaultHourlyRate
			}
			t.settings = *settings
		case errors.Is(err, sql.ErrNoRows):
			// No remote row yet: the current settings stand until the
			// first mutation upserts them.
		default:
			t.logger.Printf("hydrating settings for %s: %v", principal, err)
			t.notifyError("Failed to load settings")
		}
	}

	// A running timer survives the tier switch: its placeholder must
	// exist in the freshly hydrated sequence so stopTimer can finalize
	// it in place.
	if t.timer.running && t.findSessionLocked(t.timer.sessionID) == nil {
		t.sessions = append([]*schema.WorkSession{{
			ID:        t.timer.sessionID,
			StartTime: t.timer.start,
			EndTime:   t.timer.start,
			TaskName:  schema.PlaceholderTaskName,
		}}, t.sessions...)
	}

	t.todosHydrated = true
	t.sessionsHydrated = true
}

// loadLocalSettingsLocked reads the scalar settings keys from the local
// store, falling back to defaults for any missing or invalid value.
// Caller holds t.mu.
func (t *Tracker) loadLocalSettingsLocked() {
	s := schema.DefaultSettings()
	var rate float64
	if ok, err := t.localStore.Get(local.KeyHourlyRate, &rate); err != nil {
		t.logger.Printf("reading local hourly rate: %v", err)
	} else if ok && rate > 0 {
		s.HourlyRate = rate
	}
	var name string
	if ok, _ := t.localStore.Get(local.KeyUserName, &name); ok && name != "" {
		s.UserName = name
	}
	var email string
	if ok, _ := t.localStore.Get(local.KeyUserEmail, &email); ok {
		s.UserEmail = email
	}
	t.settings = s
}

// ReloadLocal re-reads one local key into memory. The serve daemon
// calls this when the filesystem watcher reports an external change.
// Signed-in state is remote-backed, so external local edits are
// ignored then.
func (t *Tracker) ReloadLocal(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.remoteActiveLocked() {
		return
	}
	switch key {
	case local.KeyTodos:
		var todos []*schema.TodoItem
		if _, err := t.localStore.Get(local.KeyTodos, &todos); err != nil {
			t.logger.Printf("reloading todos: %v", err)
			return
		}
		t.todos = todos
	case local.KeyWorkSessions:
		var sessions []*schema.WorkSession
		if _, err := t.localStore.Get(local.KeyWorkSessions, &sessions); err != nil {
			t.logger.Printf("reloading sessions: %v", err)
			return
		}
		t.sessions = sessions
	case local.KeyHourlyRate, local.KeyUserName, local.KeyUserEmail:
		t.loadLocalSettingsLocked()
	}
}

// Flush blocks until every queued remote write has completed or ctx
// expires. It is a no-op while signed out.
func (t *Tracker) Flush(ctx context.Context) error {
	if err := t.todoQ.flush(ctx); err != nil {
		return err
	}
	if err := t.sessionQ.flush(ctx); err != nil {
		return err
	}
	return t.settingsQ.flush(ctx)
}

// Close stops the tick goroutine and the write queues. A running timer
// is left recorded in the local store so a later process can resume it;
// queued remote writes that have not landed are abandoned.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	stop := t.tickStop
	t.tickStop = nil
	t.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	t.todoQ.close()
	t.sessionQ.close()
	t.settingsQ.close()
	return nil
}

func (t *Tracker) notify(n Notification) {
	if t.notifyFn != nil {
		t.notifyFn(n)
	}
}

func (t *Tracker) notifyInfo(msg string) {
	t.notify(Notification{Level: LevelInfo, Message: msg})
}

func (t *Tracker) notifyError(msg string) {
	t.notify(Notification{Level: LevelError, Message: msg})
}

// remoteWriteFailed records a background write failure. In-memory state
// is not rolled back; the user is told and the durable tier catches up
// on the next successful write.
func (t *Tracker) remoteWriteFailed(what string, err error) {
	t.logger.Printf("remote %s write failed: %v", what, err)
	t.notifyError(fmt.Sprintf("Failed to save %s", what))
}

// writeLocalLocked persists one key to the local store, honoring the
// hydration guard. Caller holds t.mu.
func (t *Tracker) writeLocalLocked(key string, v interface{}, hydrated bool) {
	if !hydrated {
		t.logger.Printf("skipping local write of %s before hydration", key)
		return
	}
	if err := t.localStore.Put(key, v); err != nil {
		t.logger.Printf("writing local %s: %v", key, err)
		t.notifyError("Failed to save data locally")
	}
}

func (t *Tracker) findSessionLocked(id string) *schema.WorkSession {
	for _, s := range t.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func normalizeTaskName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return schema.DefaultTaskName
	}
	return trimmed
}
