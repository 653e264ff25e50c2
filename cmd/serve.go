package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/astrolabe/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chart API over HTTP",
	Long: `Starts the HTTP API: chart computation, house cusps and Julian Day
conversion under /v1, the chart archive, /healthz and Prometheus /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default server.addr)")
	serveCmd.Flags().Bool("no-archive", false, "disable the archive endpoints")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []api.Option
	if noArchive, _ := cmd.Flags().GetBool("no-archive"); !noArchive {
		store, err := a.archive(ctx)
		if err != nil {
			return err
		}
		opts = append(opts, api.WithArchive(store))
	}
	return api.New(a.engine, a.cfg.Server, opts...).ListenAndServe(ctx)
}
