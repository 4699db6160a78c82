package local

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boudmaker/oclock/internal/schema"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	start := time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC)
	sessions := []*schema.WorkSession{
		{
			ID:         "s1",
			StartTime:  start,
			EndTime:    start.Add(time.Hour),
			Duration:   3_600_000,
			Earnings:   25,
			HourlyRate: 25,
			TaskName:   "Invoicing",
		},
		{
			ID:          "s2",
			StartTime:   start,
			EndTime:     start,
			Earnings:    -20,
			IsManual:    true,
			Description: "Deduction",
		},
	}

	if err := store.Put(KeyWorkSessions, sessions); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var loaded []*schema.WorkSession
	found, err := store.Get(KeyWorkSessions, &loaded)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("expected key to exist")
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(loaded))
	}

	for i := range sessions {
		if loaded[i].ID != sessions[i].ID ||
			!loaded[i].StartTime.Equal(sessions[i].StartTime) ||
			!loaded[i].EndTime.Equal(sessions[i].EndTime) ||
			loaded[i].Duration != sessions[i].Duration ||
			loaded[i].Earnings != sessions[i].Earnings ||
			loaded[i].IsManual != sessions[i].IsManual ||
			loaded[i].TaskName != sessions[i].TaskName ||
			loaded[i].Description != sessions[i].Description {
			t.Errorf("session %d mismatch: got %+v, want %+v", i, loaded[i], sessions[i])
		}
	}
}

func TestGetAbsentKey(t *testing.T) {
	store := openTestStore(t)

	var todos []*schema.TodoItem
	found, err := store.Get(KeyTodos, &todos)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("expected absent key to report not found")
	}
}

func TestGetCorruptBlobTreatedAsAbsent(t *testing.T) {
	store := openTestStore(t)

	if err := os.WriteFile(store.Path(KeyTodos), []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write corrupt blob: %v", err)
	}

	var todos []*schema.TodoItem
	found, err := store.Get(KeyTodos, &todos)
	if err != nil {
		t.Fatalf("Get on corrupt blob should not error, got: %v", err)
	}
	if found {
		t.Error("corrupt blob should be treated as absent")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	store := openTestStore(t)

	if err := store.Put(KeyHourlyRate, 30.0); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Delete(KeyHourlyRate); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(KeyHourlyRate); err != nil {
		t.Fatalf("Delete of missing key should be nil, got: %v", err)
	}

	var rate float64
	found, err := store.Get(KeyHourlyRate, &rate)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("deleted key still present")
	}
}

func TestScalarKeys(t *testing.T) {
	store := openTestStore(t)

	if err := store.Put(KeyUserName, "Alex"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(KeyHourlyRate, 42.5); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	var name string
	if found, _ := store.Get(KeyUserName, &name); !found || name != "Alex" {
		t.Errorf("userName = %q (found=%v), want Alex", name, found)
	}
	var rate float64
	if found, _ := store.Get(KeyHourlyRate, &rate); !found || rate != 42.5 {
		t.Errorf("hourlyRate = %v (found=%v), want 42.5", rate, found)
	}
}

func TestWatcherSeesExternalWrite(t *testing.T) {
	store := openTestStore(t)

	watcher, err := store.Watch()
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer watcher.Close()

	// Simulate another process writing the todos blob directly.
	external := filepath.Join(store.Dir(), KeyTodos+".json")
	if err := os.WriteFile(external, []byte(`[]`), 0644); err != nil {
		t.Fatalf("external write failed: %v", err)
	}

	select {
	case key := <-watcher.Events():
		if key != KeyTodos {
			t.Errorf("expected event for %q, got %q", KeyTodos, key)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher event")
	}
}

func TestWatcherSuppressesOwnWrites(t *testing.T) {
	store := openTestStore(t)

	watcher, err := store.Watch()
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer watcher.Close()

	if err := store.Put(KeyTodos, []*schema.TodoItem{}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	select {
	case key := <-watcher.Events():
		t.Errorf("own write produced event for %q", key)
	case <-time.After(400 * time.Millisecond):
		// No event is the expected outcome.
	}
}
