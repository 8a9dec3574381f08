package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/order-reports/internal/server"
	"github.com/ginjaninja78/order-reports/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports from the order store over HTTP",
	Long: `Serve the report catalogue over HTTP.

Endpoints:
  GET /reports          Report index (HTML, or JSON with Accept: application/json)
  GET /reports/{name}   A report; query: format, distributor, supplier, state, from, to
  GET /metrics          Prometheus metrics
  GET /healthz          Liveness`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := store.New(mainConfig.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()
		logger.Info("Storage initialized", "database", mainConfig.DatabasePath)

		cfg := mainConfig.Server
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		srv := server.New(st, nil, mainConfig.ReportSettings(), cfg, logger)
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr from the config)")
}
