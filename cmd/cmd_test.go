package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/papapumpkin/astrolabe/internal/engine"
	"github.com/papapumpkin/astrolabe/internal/telemetry"
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

const budapestAt = "1983-03-07T11:54:45+01:00"

const budapestTOML = `name = "natal"
house_system = "whole_sign"

[time]
year = 1983
month = 3
day = 7
hour = 11
minute = 54
second = 45
timezone = 1.0

[location]
longitude = 19.03991
latitude = 47.49801
`

// execute runs the root command with args and returns everything it wrote.
// Flags are reset afterwards because cobra commands keep their state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--no-color"))
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// isolate points every file the commands write into a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ASTROLABE_ARCHIVE_PATH", filepath.Join(dir, "archive.db"))
	t.Setenv("ASTROLABE_TELEMETRY_PATH", filepath.Join(dir, "telemetry.jsonl"))
	t.Setenv("ASTROLABE_METRICS_TEXTFILE", filepath.Join(dir, "astrolabe.prom"))
	return dir
}

func TestCommands_Registered(t *testing.T) {
	t.Parallel()

	want := []string{"chart", "houses", "jd", "archive", "watch", "telemetry", "validate", "serve"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %q subcommand to be registered on rootCmd", name)
		}
	}
}

func TestCommands_Flags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cmd   *cobra.Command
		flags []string
	}{
		{chartCmd, []string{"at", "lat", "lon", "alt", "houses", "name", "bodies", "json", "save", "write"}},
		{housesCmd, []string{"at", "lat", "lon", "alt", "houses"}},
		{jdCmd, []string{"at", "from", "tz", "json"}},
		{archiveShowCmd, []string{"json"}},
		{watchCmd, []string{"save", "debounce"}},
		{telemetryCmd, []string{"file", "follow", "kind"}},
		{serveCmd, []string{"addr", "no-archive"}},
	}
	for _, tt := range tests {
		for _, flag := range tt.flags {
			if tt.cmd.Flags().Lookup(flag) == nil {
				t.Errorf("expected flag %q to be registered on %s", flag, tt.cmd.Name())
			}
		}
	}
	for _, flag := range []string{"config", "verbose", "no-color"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected persistent flag %q on root", flag)
		}
	}
}

func TestJD_FromTime(t *testing.T) {
	out, err := execute(t, "jd", "--at", budapestAt, "--json")
	if err != nil {
		t.Fatalf("jd: %v\n%s", err, out)
	}
	var res jdResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if math.Abs(res.JulianDay-2445400.9546875) > 1e-7 {
		t.Errorf("julian_day = %f", res.JulianDay)
	}
	if res.Timestamp.TZOffset != 1 {
		t.Errorf("tz offset = %v", res.Timestamp.TZOffset)
	}
}

func TestJD_FromJulianDay(t *testing.T) {
	out, err := execute(t, "jd", "--from", "2451545", "--tz", "2")
	if err != nil {
		t.Fatalf("jd: %v\n%s", err, out)
	}
	if !strings.Contains(out, "2000-01-01 14:00:00 +02:00") {
		t.Errorf("output = %q", out)
	}
}

func TestJD_InvalidTime(t *testing.T) {
	if _, err := execute(t, "jd", "--at", "yesterday"); err == nil {
		t.Fatal("expected error for unparseable --at")
	}
}

func TestChart_JSONFromFlags(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, "chart", "--at", budapestAt, "--lat", "47.49801", "--lon", "19.03991", "--json")
	if err != nil {
		t.Fatalf("chart: %v\n%s", err, out)
	}
	var res engine.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Name != "chart" || res.Fingerprint == "" {
		t.Errorf("result = %+v", res)
	}
	if math.Abs(res.Snapshot.Angles.Ascendant-103.4212) > 0.01 {
		t.Errorf("ascendant = %f", res.Snapshot.Angles.Ascendant)
	}
	if res.Snapshot.HouseSystem != zodiac.Placidus {
		t.Errorf("house system = %s, want the configured default", res.Snapshot.HouseSystem)
	}

	f, err := os.Open(filepath.Join(dir, "telemetry.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	events, err := telemetry.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) == 0 || events[0].Kind != telemetry.KindCacheMiss {
		t.Errorf("events = %+v", events)
	}
	if _, err := os.Stat(filepath.Join(dir, "astrolabe.prom")); err != nil {
		t.Errorf("metrics textfile not written: %v", err)
	}
}

func TestChart_UnreachableRedisFallsBackToMemory(t *testing.T) {
	isolate(t)
	t.Setenv("ASTROLABE_CACHE_REDIS_ADDR", "127.0.0.1:1")

	out, err := execute(t, "chart", "--at", budapestAt, "--lat", "47.49801", "--lon", "19.03991", "--json")
	if err != nil {
		t.Fatalf("chart: %v\n%s", err, out)
	}
	var res engine.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if res.Snapshot == nil || len(res.Snapshot.Positions) == 0 {
		t.Errorf("no positions computed: %+v", res)
	}
}

func TestChart_FileSaveListDelete(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "natal.toml")
	if err := os.WriteFile(path, []byte(budapestTOML), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "chart", path, "--save")
	if err != nil {
		t.Fatalf("chart: %v\n%s", err, out)
	}
	for _, want := range []string{"natal", "Whole Sign", "Positions", "Aspects"} {
		if !strings.Contains(out, want) {
			t.Errorf("chart output missing %q", want)
		}
	}
	m := regexp.MustCompile(`saved as ([0-9a-f-]{36})`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no archive id in output:\n%s", out)
	}
	id := m[1]

	out, err = execute(t, "chart", path, "--save")
	if err != nil {
		t.Fatalf("chart again: %v", err)
	}
	if !strings.Contains(out, "saved as "+id) {
		t.Errorf("saving the same chart again did not reuse %s:\n%s", id, out)
	}

	out, err = execute(t, "archive", "list")
	if err != nil {
		t.Fatalf("archive list: %v", err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "natal") {
		t.Errorf("list output:\n%s", out)
	}
	if n := strings.Count(out, "natal"); n != 1 {
		t.Errorf("list shows natal %d times, want 1:\n%s", n, out)
	}

	out, err = execute(t, "archive", "show", id, "--json")
	if err != nil {
		t.Fatalf("archive show: %v", err)
	}
	if !strings.Contains(out, `"name": "natal"`) {
		t.Errorf("show output:\n%s", out)
	}

	if _, err := execute(t, "archive", "delete", id); err != nil {
		t.Fatalf("archive delete: %v", err)
	}
	if _, err := execute(t, "archive", "show", id); err == nil {
		t.Error("expected error showing a deleted chart")
	}
}

func TestChart_WriteDefinition(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "out.yaml")

	if _, err := execute(t, "chart", "--at", budapestAt, "--lat", "47.5", "--lon", "19", "--name", "saved", "--write", path); err != nil {
		t.Fatalf("chart: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "name: saved") {
		t.Errorf("written definition:\n%s", data)
	}
}

func TestHouses_AllSystemsAtPolarLatitude(t *testing.T) {
	isolate(t)

	out, err := execute(t, "houses", "--at", budapestAt, "--lat", "80", "--lon", "19", "--houses", "all")
	if err != nil {
		t.Fatalf("houses: %v\n%s", err, out)
	}
	for _, want := range []string{"Placidus", "Koch", "Equal", "Whole Sign", "Porphyry", "✗", "critical latitude"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidate(t *testing.T) {
	dir := isolate(t)
	defs := filepath.Join(dir, "charts")
	if err := os.Mkdir(defs, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(defs, "good.toml"), []byte(budapestTOML), 0o644); err != nil {
		t.Fatal(err)
	}
	bad := strings.Replace(budapestTOML, "day = 7", "day = 31\nmonth_extra = 1", 1)
	if err := os.WriteFile(filepath.Join(defs, "bad.toml"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "validate", defs)
	if !errors.Is(err, errValidation) {
		t.Fatalf("err = %v, want errValidation", err)
	}
	if !strings.Contains(out, "✓ "+filepath.Join(defs, "good.toml")) {
		t.Errorf("good file not reported:\n%s", out)
	}
	if !strings.Contains(out, "✗ "+filepath.Join(defs, "bad.toml")) {
		t.Errorf("bad file not reported:\n%s", out)
	}

	out, err = execute(t, "validate", filepath.Join(defs, "good.toml"))
	if err != nil {
		t.Fatalf("validate good: %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓ config") {
		t.Errorf("config not reported:\n%s", out)
	}
}

func TestTelemetry_FiltersByKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.jsonl")
	lines := `{"ts":"2026-01-02T09:30:05Z","kind":"cache_hit","chart":"abc"}
{"ts":"2026-01-02T09:30:06Z","kind":"chart_computed","chart":"def"}
not json
`
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "telemetry", "--file", path)
	if err != nil {
		t.Fatalf("telemetry: %v", err)
	}
	want := "[09:30:05] cache_hit chart=abc\n[09:30:06] chart_computed chart=def\n??? not json\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}

	out, err = execute(t, "telemetry", "--file", path, "--kind", "chart_computed")
	if err != nil {
		t.Fatalf("telemetry: %v", err)
	}
	if out != "[09:30:06] chart_computed chart=def\n??? not json\n" {
		t.Errorf("filtered output = %q", out)
	}
}

func TestTelemetry_NoFile(t *testing.T) {
	t.Setenv("ASTROLABE_TELEMETRY_PATH", "")
	if _, err := execute(t, "telemetry"); err == nil {
		t.Fatal("expected error without a telemetry file")
	}
}

func TestHouseSystems(t *testing.T) {
	t.Parallel()

	got, err := houseSystems("", "koch")
	if err != nil || len(got) != 1 || got[0] != zodiac.Koch {
		t.Errorf("fallback = %v, %v", got, err)
	}
	got, err = houseSystems("all", "koch")
	if err != nil || len(got) != len(zodiac.HouseSystems()) {
		t.Errorf("all = %v, %v", got, err)
	}
	if _, err := houseSystems("campanus", "koch"); !errors.Is(err, zodiac.ErrUnsupportedHouseSystem) {
		t.Errorf("unknown system err = %v", err)
	}
}
