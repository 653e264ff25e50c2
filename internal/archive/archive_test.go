package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/papapumpkin/astrolabe/internal/calendar"
	"github.com/papapumpkin/astrolabe/internal/chart"
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// testStore creates a temporary archive and registers cleanup. Saved charts
// get timestamps one minute apart.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open(%q): %v", path, err)
	}
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot(jd float64) *chart.Snapshot {
	return &chart.Snapshot{
		Timestamp:   calendar.FromJulianDay(jd, 0),
		JulianDay:   jd,
		HouseSystem: zodiac.WholeSign,
		Bodies:      []zodiac.Body{zodiac.Sun},
		Positions: []chart.PlanetPosition{
			{Body: zodiac.Sun, Longitude: 346.311, Speed: 1.0, House: 10},
		},
		Elements: map[zodiac.Element]int{zodiac.Water: 2},
	}
}

func TestOpen_EnablesWAL(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestOpen_BadPath(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "a.db"))
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}

func TestSaveAndGet(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	entry, err := s.Save(ctx, "budapest", "fp-1", testSnapshot(2445400.9546875))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("Save returned empty ID")
	}
	if entry.HouseSystem != "whole_sign" {
		t.Errorf("house system = %q", entry.HouseSystem)
	}

	rec, err := s.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Name != "budapest" || rec.Fingerprint != "fp-1" {
		t.Errorf("entry = %+v", rec.Entry)
	}
	if !rec.SavedAt.Equal(entry.SavedAt) {
		t.Errorf("saved_at = %v, want %v", rec.SavedAt, entry.SavedAt)
	}
	sun, ok := rec.Snapshot.Planet(zodiac.Sun)
	if !ok {
		t.Fatal("decoded snapshot lost the Sun")
	}
	if sun.House != 10 || sun.Sign() != zodiac.Pisces {
		t.Errorf("sun = %+v", sun)
	}
	if rec.Snapshot.Elements[zodiac.Water] != 2 {
		t.Errorf("elements = %v", rec.Snapshot.Elements)
	}
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(nope) error = %v, want ErrNotFound", err)
	}
}

func TestFindByFingerprint_Newest(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "first", "same", testSnapshot(2451545)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := s.Save(ctx, "second", "same", testSnapshot(2451545))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec, err := s.FindByFingerprint(ctx, "same")
	if err != nil {
		t.Fatalf("FindByFingerprint: %v", err)
	}
	if rec.ID != second.ID {
		t.Errorf("found %s (%s), want newest %s", rec.ID, rec.Name, second.ID)
	}

	if _, err := s.FindByFingerprint(ctx, "other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByFingerprint(other) error = %v", err)
	}
}

func TestListAndDelete(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	empty, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty archive, got %d", len(empty))
	}

	var ids []string
	for i, name := range []string{"a", "b", "c"} {
		e, err := s.Save(ctx, name, name, testSnapshot(2451545+float64(i)))
		if err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
		ids = append(ids, e.ID)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(list))
	}
	if list[0].Name != "c" || list[2].Name != "a" {
		t.Errorf("order = %s, %s, %s; want newest first", list[0].Name, list[1].Name, list[2].Name)
	}

	if err := s.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, ids[1]); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
	list, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 entries after delete, got %d", len(list))
	}
}

func TestSave_CancelledContext(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Save(ctx, "x", "x", testSnapshot(2451545)); err == nil {
		t.Error("expected error from cancelled context")
	}
}
