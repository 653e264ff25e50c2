package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewEmitter_CreatesFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "events.jsonl")

	em, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter(%q): %v", path, err)
	}
	defer em.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist at %q: %v", path, err)
	}
}

func TestNewEmitter_ErrorOnBadPath(t *testing.T) {
	t.Parallel()
	_, err := NewEmitter("/nonexistent/dir/events.jsonl")
	if err == nil {
		t.Fatal("expected error for bad path, got nil")
	}
	if !strings.Contains(err.Error(), "telemetry: open") {
		t.Errorf("expected wrapped error, got: %v", err)
	}
}

func TestEmit_RoundTripsThroughReadAll(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "events.jsonl")

	em, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}

	events := []Event{
		{Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Kind: KindCacheMiss, ChartID: "c1"},
		{Timestamp: time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC), Kind: KindChartComputed, ChartID: "c1", Source: "natal.toml", Data: map[string]any{"aspects": 12}},
		{Timestamp: time.Date(2025, 1, 1, 0, 2, 0, 0, time.UTC), Kind: KindChartSaved, ChartID: "c1"},
	}
	for _, evt := range events {
		if err := em.Emit(evt); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	if err := em.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	decoded, err := ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(decoded) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(decoded))
	}
	for i, got := range decoded {
		if got.Kind != events[i].Kind {
			t.Errorf("event %d: kind=%q, want %q", i, got.Kind, events[i].Kind)
		}
		if got.ChartID != events[i].ChartID {
			t.Errorf("event %d: chart=%q, want %q", i, got.ChartID, events[i].ChartID)
		}
		if !got.Timestamp.Equal(events[i].Timestamp) {
			t.Errorf("event %d: ts=%v, want %v", i, got.Timestamp, events[i].Timestamp)
		}
	}
}

func TestEmit_StampsZeroTimestamp(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "stamp.jsonl")

	em, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	em.now = func() time.Time { return fixed }
	if err := em.Emit(Event{Kind: KindFileChanged}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	em.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	events, err := ReadAll(strings.NewReader(string(data)))
	if err != nil || len(events) != 1 {
		t.Fatalf("ReadAll = %v, %v", events, err)
	}
	if !events[0].Timestamp.Equal(fixed) {
		t.Errorf("ts = %v, want %v", events[0].Timestamp, fixed)
	}
}

func TestEmit_ConcurrentSafety(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "concurrent.jsonl")

	em, err := NewEmitter(path)
	if err != nil {
		t.Fatalf("NewEmitter: %v", err)
	}

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func(idx int) {
			defer wg.Done()
			evt := Event{
				Kind:   KindAPIRequest,
				Source: "/v1/charts",
				Data:   map[string]int{"idx": idx},
			}
			if err := em.Emit(evt); err != nil {
				t.Errorf("Emit from goroutine %d: %v", idx, err)
			}
		}(i)
	}
	wg.Wait()

	if err := em.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != n {
		t.Fatalf("expected %d lines, got %d", n, len(lines))
	}
	for i, line := range lines {
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			t.Errorf("line %d: invalid JSON: %v", i, err)
		}
	}
}

func TestNilEmitter_NoOp(t *testing.T) {
	t.Parallel()
	var em *Emitter

	if err := em.Emit(Event{Kind: KindChartComputed}); err != nil {
		t.Errorf("nil Emit: %v", err)
	}
	if err := em.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

func TestReadAll_MalformedLine(t *testing.T) {
	t.Parallel()

	in := `{"ts":"2025-01-01T00:00:00Z","kind":"cache_hit"}

not json
`
	events, err := ReadAll(strings.NewReader(in))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected error naming line 3, got %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected the good event before the bad line, got %d", len(events))
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	evt := Event{
		Timestamp: time.Date(2025, 1, 1, 9, 30, 5, 0, time.UTC),
		Kind:      KindChartComputed,
		ChartID:   "abc",
		Source:    "natal.toml",
		Data:      map[string]any{"positions": 10, "aspects": 7},
	}
	want := "[09:30:05] chart_computed chart=abc source=natal.toml aspects=7 positions=10"
	if got := Format(evt); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	bare := Format(Event{Timestamp: evt.Timestamp, Kind: KindCacheHit, Data: []int{1, 2}})
	if bare != "[09:30:05] cache_hit [1,2]" {
		t.Errorf("Format() = %q", bare)
	}
}

func TestEventKinds_AreDistinct(t *testing.T) {
	t.Parallel()
	kinds := []string{
		KindChartComputed,
		KindBodyUnresolved,
		KindHouseFailure,
		KindCacheHit,
		KindCacheMiss,
		KindChartSaved,
		KindChartDeleted,
		KindFileChanged,
		KindAPIRequest,
	}
	seen := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		if k == "" {
			t.Errorf("empty kind constant found")
		}
		if seen[k] {
			t.Errorf("duplicate kind: %q", k)
		}
		seen[k] = true
	}
}

func TestEvent_OmitsEmptyFields(t *testing.T) {
	t.Parallel()
	evt := Event{
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Kind:      KindChartComputed,
	}
	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	for _, field := range []string{`"chart"`, `"source"`, `"data"`} {
		if strings.Contains(s, field) {
			t.Errorf("expected %s to be omitted, got: %s", field, s)
		}
	}
}
