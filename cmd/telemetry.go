package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/astrolabe/internal/config"
	"github.com/papapumpkin/astrolabe/internal/telemetry"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "View the JSONL telemetry event stream",
	Long: `Reads and formats the telemetry file configured as telemetry.path, or the
file given with --file.

With --follow (-f), watches the file for new events (like tail -f).`,
	Args: cobra.NoArgs,
	RunE: runTelemetry,
}

func init() {
	telemetryCmd.Flags().String("file", "", "telemetry file (default telemetry.path)")
	telemetryCmd.Flags().BoolP("follow", "f", false, "follow the file for new events")
	telemetryCmd.Flags().String("kind", "", "only show events of this kind")
	rootCmd.AddCommand(telemetryCmd)
}

func runTelemetry(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	follow, _ := cmd.Flags().GetBool("follow")
	kind, _ := cmd.Flags().GetString("kind")

	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path = cfg.Telemetry.Path
	}
	if path == "" {
		return errors.New("telemetry: no file; set telemetry.path or pass --file")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	defer f.Close()

	w := cmd.OutOrStdout()
	reader := bufio.NewReader(f)
	if err := printLines(w, reader, kind); err != nil {
		return fmt.Errorf("telemetry: read %s: %w", path, err)
	}

	if !follow {
		return nil
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tailFollow(ctx, w, reader, path, kind)
}

// tailFollow watches the file for new data using fsnotify and prints new
// events until ctx is done.
func tailFollow(ctx context.Context, w io.Writer, reader *bufio.Reader, path, kind string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("telemetry: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("telemetry: watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) {
				continue
			}
			if err := printLines(w, reader, kind); err != nil {
				return fmt.Errorf("telemetry: read %s: %w", path, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("telemetry: watch %s: %w", path, err)
		}
	}
}

// printLines prints every line available from reader. The emitter writes
// whole lines, so a line cut off at EOF is printed as it stands.
func printLines(w io.Writer, reader *bufio.Reader, kind string) error {
	for {
		line, err := reader.ReadString('\n')
		printEvent(w, line, kind)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// printEvent decodes a JSONL line and prints a human-readable representation.
func printEvent(w io.Writer, line, kind string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	var evt telemetry.Event
	if err := json.Unmarshal([]byte(line), &evt); err != nil {
		fmt.Fprintf(w, "??? %s\n", line)
		return
	}
	if kind != "" && evt.Kind != kind {
		return
	}
	fmt.Fprintln(w, telemetry.Format(evt))
}
