package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/papapumpkin/astrolabe/internal/calendar"
	"github.com/papapumpkin/astrolabe/internal/chart"
	"github.com/papapumpkin/astrolabe/internal/ephemeris"
	"github.com/papapumpkin/astrolabe/internal/houses"
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

func budapest(t *testing.T, system zodiac.HouseSystem) *chart.Snapshot {
	t.Helper()
	ts, err := calendar.New(1983, 3, 7, 11, 54, 45, 1)
	if err != nil {
		t.Fatal(err)
	}
	coords, err := chart.NewGeoCoordinate(19.03991, 47.49801, 100)
	if err != nil {
		t.Fatal(err)
	}
	m := chart.New(ephemeris.New())
	if err := m.SetTimestamp(ts); err != nil {
		t.Fatal(err)
	}
	if err := m.SetCoordinates(coords); err != nil {
		t.Fatal(err)
	}
	if err := m.SetHouseSystem(system); err != nil {
		t.Fatal(err)
	}
	m.AddAllPlanets()
	snap, err := m.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestChart_NoColor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, WithNoColor()).Chart("budapest", budapest(t, zodiac.Placidus))
	out := buf.String()

	if strings.Contains(out, "\033[") {
		t.Errorf("no-color output contains ANSI escapes:\n%s", out)
	}
	for _, want := range []string{
		"budapest",
		"1983-03-07 11:54:45 +01:00",
		"47°29'53\" N, 19°02'24\" E, 100 m",
		"Positions", "Angles", "Houses", "Aspects", "Moon", "Balance",
		"Sun", "Pisces", "Neptune",
		"Ascendant", "Cancer",
		"fire", "cardinal",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestChart_HouseFailureReplacesCusps(t *testing.T) {
	t.Parallel()

	snap := budapest(t, zodiac.Placidus)
	snap.Cusps = nil
	snap.HouseError = "latitude beyond the house system's critical latitude"

	var buf bytes.Buffer
	New(&buf, WithNoColor()).Chart("polar", snap)
	out := buf.String()

	if !strings.Contains(out, "critical latitude") {
		t.Errorf("house failure not shown:\n%s", out)
	}
	if strings.Contains(out, "Cusp") {
		t.Errorf("cusp table rendered despite failure:\n%s", out)
	}
}

func TestChart_UnresolvedBodies(t *testing.T) {
	t.Parallel()

	snap := budapest(t, zodiac.WholeSign)
	snap.Unresolved = []chart.Unresolved{{Body: zodiac.Chiron, Reason: "no ephemeris"}}

	var buf bytes.Buffer
	New(&buf, WithNoColor()).Chart("partial", snap)

	if !strings.Contains(buf.String(), "✗ Chiron unresolved: no ephemeris") {
		t.Errorf("unresolved body not reported:\n%s", buf.String())
	}
}

func TestHouses(t *testing.T) {
	t.Parallel()

	angles := houses.Angles{Ascendant: 103.4212, Midheaven: 346.2276}
	cusps := make([]houses.Cusp, 12)
	for i := range cusps {
		cusps[i] = houses.Cusp{House: i + 1, Longitude: float64((90 + 30*i) % 360)}
	}

	var buf bytes.Buffer
	p := New(&buf, WithNoColor())
	p.Houses(zodiac.WholeSign, angles, cusps, nil)
	out := buf.String()
	for _, want := range []string{"Ascendant", "13°25'16\"", "House", "12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	p.Houses(zodiac.Placidus, angles, nil, errors.New("polar"))
	if !strings.Contains(buf.String(), "✗ polar") {
		t.Errorf("failure not reported:\n%s", buf.String())
	}
}

func TestFieldsAlignLabels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, WithNoColor()).Fields(Field{"JD", "1"}, Field{"Timestamp", "2"})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if strings.Index(lines[0], "1") != strings.Index(lines[1], "2") {
		t.Errorf("values not aligned:\n%s", buf.String())
	}
}

func TestStatusLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := New(&buf, WithNoColor())
	p.OK("%s valid", "natal.toml")
	p.Fail("%s invalid", "broken.toml")
	p.Error(errors.New("boom"))

	want := "✓ natal.toml valid\n✗ broken.toml invalid\nerror: boom\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTableContainsCells(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, WithNoColor()).Table([]string{"ID", "Name"}, [][]string{{"abc", "natal"}})
	out := buf.String()
	for _, want := range []string{"ID", "Name", "abc", "natal", "╭"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCoordinates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		g    chart.GeoCoordinate
		want string
	}{
		{chart.GeoCoordinate{Longitude: 19.0402, Latitude: 47.4979}, "47°29'52\" N, 19°02'25\" E"},
		{chart.GeoCoordinate{Longitude: -74.006, Latitude: -33.5, Altitude: 120}, "33°30'00\" S, 74°00'22\" W, 120 m"},
	}
	for _, tt := range tests {
		if got := formatCoordinates(tt.g); got != tt.want {
			t.Errorf("formatCoordinates(%+v) = %q, want %q", tt.g, got, tt.want)
		}
	}
}
