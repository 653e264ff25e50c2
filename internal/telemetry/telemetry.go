// Package telemetry records chart activity as a JSONL event stream: every
// computation, cache lookup, archive write and watched file change becomes
// one structured line that can be tailed or replayed.
package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Event kinds identify the type of telemetry event.
const (
	KindChartComputed  = "chart_computed"
	KindBodyUnresolved = "body_unresolved"
	KindHouseFailure   = "house_failure"
	KindCacheHit       = "cache_hit"
	KindCacheMiss      = "cache_miss"
	KindChartSaved     = "chart_saved"
	KindChartDeleted   = "chart_deleted"
	KindFileChanged    = "file_changed"
	KindAPIRequest     = "api_request"
)

// Event is a single telemetry record. ChartID is the archive ID or the
// configuration fingerprint; Source is the definition file or request path
// that triggered it.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	ChartID   string    `json:"chart,omitempty"`
	Source    string    `json:"source,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes telemetry events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
	now  func() time.Time
}

// NewEmitter creates an Emitter appending to the file at path, creating it
// when missing.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		file: f,
		enc:  json.NewEncoder(f),
		now:  time.Now,
	}, nil
}

// Emit writes a single event, stamping it with the current time when
// Timestamp is zero. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if evt.Timestamp.IsZero() {
		evt.Timestamp = e.now().UTC()
	}
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close closes the underlying file. Calling Close on a nil Emitter is a
// no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}

// ReadAll decodes every event in r. Blank lines are skipped; the first
// malformed line stops decoding with an error naming its line number.
func ReadAll(r io.Reader) ([]Event, error) {
	var out []Event
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			return out, fmt.Errorf("telemetry: line %d: %w", n, err)
		}
		out = append(out, evt)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("telemetry: read: %w", err)
	}
	return out, nil
}

// Format renders an event on one line: time, kind, identifiers and the data
// fields as sorted key=value pairs.
func Format(evt Event) string {
	parts := []string{fmt.Sprintf("[%s]", evt.Timestamp.Format(time.TimeOnly)), evt.Kind}
	if evt.ChartID != "" {
		parts = append(parts, "chart="+evt.ChartID)
	}
	if evt.Source != "" {
		parts = append(parts, "source="+evt.Source)
	}
	if evt.Data != nil {
		if m, ok := evt.Data.(map[string]any); ok {
			parts = append(parts, formatDataMap(m))
		} else {
			data, _ := json.Marshal(evt.Data)
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, " ")
}

func formatDataMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, m[k])
	}
	return b.String()
}
