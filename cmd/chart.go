package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/astrolabe/internal/archive"
	"github.com/papapumpkin/astrolabe/internal/calendar"
	"github.com/papapumpkin/astrolabe/internal/chartfile"
	"github.com/papapumpkin/astrolabe/internal/engine"
	"github.com/papapumpkin/astrolabe/internal/telemetry"
)

var chartCmd = &cobra.Command{
	Use:   "chart [FILE]",
	Short: "Compute a chart from a definition file or flags",
	Long: `Computes positions, houses, aspects, antiscia and moon phase.

With FILE, the chart is read from a TOML or YAML definition. Otherwise it is
described by flags; --at defaults to the current time.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChart,
}

func init() {
	addMomentFlags(chartCmd)
	chartCmd.Flags().String("name", "chart", "chart name")
	chartCmd.Flags().StringSlice("bodies", nil, `bodies to compute, or "planets" / "all" (default from config)`)
	chartCmd.Flags().Bool("json", false, "print the result as JSON")
	chartCmd.Flags().Bool("save", false, "store the chart in the archive")
	chartCmd.Flags().String("write", "", "write the definition to a TOML or YAML file")
	rootCmd.AddCommand(chartCmd)
}

// addMomentFlags registers the flags that describe a moment and place.
func addMomentFlags(cmd *cobra.Command) {
	cmd.Flags().String("at", "", "time as RFC 3339, e.g. 1983-03-07T11:54:45+01:00 (default now)")
	cmd.Flags().Float64("lat", 0, "latitude in degrees, north positive")
	cmd.Flags().Float64("lon", 0, "longitude in degrees, east positive")
	cmd.Flags().Float64("alt", 0, "altitude in metres")
	cmd.Flags().String("houses", "", "house system (default from config)")
}

// momentFlags reads the flags added by addMomentFlags.
func momentFlags(cmd *cobra.Command) (chartfile.Definition, error) {
	at, _ := cmd.Flags().GetString("at")
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	alt, _ := cmd.Flags().GetFloat64("alt")
	system, _ := cmd.Flags().GetString("houses")

	tm := time.Now()
	if at != "" {
		var err error
		tm, err = time.Parse(time.RFC3339, at)
		if err != nil {
			return chartfile.Definition{}, fmt.Errorf("invalid --at: %w", err)
		}
	}
	return chartfile.Definition{
		Time:        chartfile.TimeOf(calendar.FromTime(tm)),
		Location:    chartfile.Location{Longitude: lon, Latitude: lat, Altitude: alt},
		HouseSystem: system,
	}, nil
}

func runChart(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	def, err := chartDefinition(cmd, args)
	if err != nil {
		return err
	}
	if err := a.engine.Complete(&def); err != nil {
		return err
	}

	ctx := cmd.Context()
	res, err := a.engine.Compute(ctx, def)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("write"); path != "" {
		if err := chartfile.Write(path, def); err != nil {
			return err
		}
		a.logger.Info().Str("path", path).Msg("definition written")
	}

	var id string
	if save, _ := cmd.Flags().GetBool("save"); save {
		id, err = saveChart(cmd, a, res)
		if err != nil {
			return err
		}
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd, res)
	}
	a.printer.Chart(res.Name, res.Snapshot)
	if id != "" {
		a.printer.OK("saved as %s", id)
	}
	return nil
}

func chartDefinition(cmd *cobra.Command, args []string) (chartfile.Definition, error) {
	if len(args) == 1 {
		return chartfile.Load(args[0])
	}
	def, err := momentFlags(cmd)
	if err != nil {
		return def, err
	}
	def.Name, _ = cmd.Flags().GetString("name")
	def.Bodies, _ = cmd.Flags().GetStringSlice("bodies")
	return def, nil
}

// saveChart archives res and returns its ID. A chart already saved under the
// same name and fingerprint is not stored twice.
func saveChart(cmd *cobra.Command, a *app, res engine.Result) (string, error) {
	store, err := a.archive(cmd.Context())
	if err != nil {
		return "", err
	}
	existing, err := store.FindByFingerprint(cmd.Context(), res.Fingerprint)
	switch {
	case err == nil && existing.Name == res.Name:
		return existing.ID, nil
	case err != nil && !errors.Is(err, archive.ErrNotFound):
		return "", err
	}
	entry, err := store.Save(cmd.Context(), res.Name, res.Fingerprint, res.Snapshot)
	if err != nil {
		return "", err
	}
	a.engine.Emit(telemetry.Event{
		Kind:    telemetry.KindChartSaved,
		ChartID: entry.ID,
		Data:    map[string]any{"name": entry.Name, "fingerprint": entry.Fingerprint},
	})
	return entry.ID, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
