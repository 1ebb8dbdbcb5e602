package cli

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gts-labs/gts/internal/config"
	"github.com/gts-labs/gts/internal/ops"
	"github.com/gts-labs/gts/internal/server"
)

func newServeCommand(opsRef func() *ops.Ops, cfgRef func() *config.Config) *cobra.Command {
	var host string
	var port int
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the GTS HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := cfgRef()
			if !cmd.Flags().Changed("host") && cfg.Host != "" {
				host = cfg.Host
			}
			if !cmd.Flags().Changed("port") && cfg.Port != 0 {
				port = cfg.Port
			}

			srv := server.New(server.Config{
				Ops:   opsRef(),
				Host:  host,
				Port:  port,
				Watch: watch,
				Paths: cfg.Paths,
			})

			fmt.Fprintf(cmd.OutOrStdout(), "starting the server @ http://%s\n", srv.Addr())
			if cfg.Verbose == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "use --verbose to see server logs")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", config.DefaultHost, "listen host")
	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "listen port")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload entities when files change")
	return cmd
}
