package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/astrolabe/internal/calendar"
	"github.com/papapumpkin/astrolabe/internal/ui"
)

var jdCmd = &cobra.Command{
	Use:   "jd",
	Short: "Convert between civil time and Julian Day",
	Long: `Prints the Julian Day of --at (default now), or with --from the civil time
of a Julian Day in the --tz offset.`,
	Args: cobra.NoArgs,
	RunE: runJD,
}

func init() {
	jdCmd.Flags().String("at", "", "time as RFC 3339 (default now)")
	jdCmd.Flags().Float64("from", 0, "Julian Day to convert to civil time")
	jdCmd.Flags().Float64("tz", 0, "UTC offset in hours for --from")
	jdCmd.Flags().Bool("json", false, "print the result as JSON")
	rootCmd.AddCommand(jdCmd)
}

type jdResult struct {
	JulianDay float64            `json:"julian_day"`
	Timestamp calendar.Timestamp `json:"timestamp"`
}

func runJD(cmd *cobra.Command, _ []string) error {
	res, err := julianDay(cmd)
	if err != nil {
		return err
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd, res)
	}
	newPrinter(cmd).Fields(
		ui.Field{Label: "Julian Day", Value: strconv.FormatFloat(res.JulianDay, 'f', 6, 64)},
		ui.Field{Label: "Time", Value: res.Timestamp.String()},
	)
	return nil
}

func julianDay(cmd *cobra.Command) (jdResult, error) {
	if cmd.Flags().Changed("from") {
		jd, _ := cmd.Flags().GetFloat64("from")
		tz, _ := cmd.Flags().GetFloat64("tz")
		return jdResult{JulianDay: jd, Timestamp: calendar.FromJulianDay(jd, tz)}, nil
	}

	tm := time.Now()
	if at, _ := cmd.Flags().GetString("at"); at != "" {
		var err error
		tm, err = time.Parse(time.RFC3339, at)
		if err != nil {
			return jdResult{}, fmt.Errorf("invalid --at: %w", err)
		}
	}
	ts := calendar.FromTime(tm)
	jd, err := ts.JulianDay()
	if err != nil {
		return jdResult{}, err
	}
	return jdResult{JulianDay: jd, Timestamp: ts}, nil
}
