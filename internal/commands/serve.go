package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/balkashynov/trakr/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the JSON API on server.addr until interrupted. When server.stop_on_exit
is set, every open session is stopped on shutdown.

Examples:
  trakr serve
  trakr serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			e.cfg.Server.Addr = addr
		}

		srv := api.NewServer(e.cfg.Server, e.ledger, e.loc, e.log.Logger)
		pterm.Info.Printfln("trakr API listening on http://%s (Ctrl+C to stop)", e.cfg.Server.Addr)

		if err := srv.Run(ctx); err != nil {
			return err
		}
		pterm.Info.Println("Server stopped")
		return nil
	}),
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address, overrides server.addr")
}
