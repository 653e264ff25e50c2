package cmd

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/astrolabe/internal/telemetry"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect and manage archived charts",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived charts, newest first",
	Args:  cobra.NoArgs,
	RunE:  runArchiveList,
}

var archiveShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print an archived chart",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveShow,
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Remove a chart from the archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveDelete,
}

func init() {
	archiveShowCmd.Flags().Bool("json", false, "print the record as JSON")
	archiveCmd.AddCommand(archiveListCmd, archiveShowCmd, archiveDeleteCmd)
	rootCmd.AddCommand(archiveCmd)
}

func runArchiveList(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	store, err := a.archive(cmd.Context())
	if err != nil {
		return err
	}
	entries, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		a.printer.Note("archive is empty")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID,
			e.Name,
			strconv.FormatFloat(e.JulianDay, 'f', 5, 64),
			e.HouseSystem,
			e.SavedAt.Local().Format(time.DateTime),
		})
	}
	a.printer.Table([]string{"ID", "Name", "Julian Day", "Houses", "Saved"}, rows)
	return nil
}

func runArchiveShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	store, err := a.archive(cmd.Context())
	if err != nil {
		return err
	}
	rec, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd, rec)
	}
	a.printer.Chart(rec.Name, &rec.Snapshot)
	return nil
}

func runArchiveDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	store, err := a.archive(cmd.Context())
	if err != nil {
		return err
	}
	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	a.engine.Emit(telemetry.Event{Kind: telemetry.KindChartDeleted, ChartID: args[0]})
	a.printer.OK("deleted %s", args[0])
	return nil
}
