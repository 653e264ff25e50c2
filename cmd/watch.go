package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/astrolabe/internal/chartfile"
	"github.com/papapumpkin/astrolabe/internal/telemetry"
	"github.com/papapumpkin/astrolabe/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Recompute charts whenever their definition files change",
	Long: `Computes every TOML/YAML definition in DIR, then watches the directory and
recomputes a chart each time its file is written. Invalid files are reported
and skipped. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Bool("save", false, "archive every recomputed chart")
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a change is processed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	dir := args[0]
	debounce, _ := cmd.Flags().GetDuration("debounce")
	w, err := watch.New(dir, watch.WithDebounce(debounce))
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() && w.Matches(e.Name()) {
			recompute(ctx, cmd, a, filepath.Join(dir, e.Name()))
		}
	}
	a.printer.Note("watching %s", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ch, ok := <-w.Changes:
			if !ok {
				return nil
			}
			a.engine.Emit(telemetry.Event{
				Kind:   telemetry.KindFileChanged,
				Source: ch.File,
				Data:   map[string]any{"change": ch.Kind.String()},
			})
			if ch.Kind == watch.ChangeRemoved {
				a.printer.Note("%s removed", ch.File)
				continue
			}
			recompute(ctx, cmd, a, ch.File)
		}
	}
}

// recompute loads and computes one definition file. Failures are printed,
// never returned, so one bad file does not stop the watch.
func recompute(ctx context.Context, cmd *cobra.Command, a *app, path string) {
	def, err := chartfile.Load(path)
	if err == nil {
		err = a.engine.Complete(&def)
	}
	if err != nil {
		a.printer.Fail("%s: %v", path, err)
		return
	}
	res, err := a.engine.Compute(ctx, def)
	if err != nil {
		a.printer.Fail("%s: %v", path, err)
		return
	}
	a.printer.Chart(res.Name, res.Snapshot)
	if save, _ := cmd.Flags().GetBool("save"); save {
		id, err := saveChart(cmd, a, res)
		if err != nil {
			a.printer.Fail("%s: %v", path, err)
			return
		}
		a.printer.OK("saved as %s", id)
	}
}
