package schema

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTodoItemValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		item    TodoItem
		wantErr bool
	}{
		{"valid", TodoItem{ID: "a", Text: "buy milk", CreatedAt: now}, false},
		{"missing id", TodoItem{Text: "buy milk", CreatedAt: now}, true},
		{"blank text", TodoItem{ID: "a", Text: "   ", CreatedAt: now}, true},
		{"missing created_at", TodoItem{ID: "a", Text: "buy milk"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWorkSessionValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		session WorkSession
		wantErr bool
	}{
		{"valid", WorkSession{ID: "s1", StartTime: now, EndTime: now}, false},
		{"missing id", WorkSession{StartTime: now, EndTime: now}, true},
		{"negative timer duration", WorkSession{ID: "s1", StartTime: now, EndTime: now, Duration: -1}, true},
		{"negative manual deduction", WorkSession{ID: "s1", StartTime: now, EndTime: now, Duration: -1, IsManual: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEarningsFor(t *testing.T) {
	tests := []struct {
		dur  time.Duration
		rate float64
		want float64
	}{
		{time.Hour, 25, 25},
		{30 * time.Minute, 25, 12.5},
		{0, 25, 0},
		{90 * time.Minute, 20, 30},
	}

	for _, tt := range tests {
		if got := EarningsFor(tt.dur, tt.rate); got != tt.want {
			t.Errorf("EarningsFor(%v, %v) = %v, want %v", tt.dur, tt.rate, got, tt.want)
		}
	}
}

func TestWorkSessionJSONRoundTrip(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	original := WorkSession{
		ID:         NewID(),
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		Duration:   3_600_000,
		Earnings:   25,
		HourlyRate: 25,
		TaskName:   "Design review",
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded WorkSession
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !decoded.StartTime.Equal(original.StartTime) || !decoded.EndTime.Equal(original.EndTime) {
		t.Errorf("timestamps changed in round trip: got %v/%v", decoded.StartTime, decoded.EndTime)
	}
	decoded.StartTime = original.StartTime
	decoded.EndTime = original.EndTime
	if decoded != original {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestFinalized(t *testing.T) {
	s := WorkSession{TaskName: PlaceholderTaskName}
	if s.Finalized() {
		t.Error("placeholder session reported as finalized")
	}
	s.TaskName = DefaultTaskName
	if !s.Finalized() {
		t.Error("finalized session reported as placeholder")
	}
}
