// Package cli provides the gts command-line interface.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gts-labs/gts/internal/config"
	"github.com/gts-labs/gts/internal/ops"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile string
		cfg     *config.Config
		gtsOps  *ops.Ops
	)

	rootCmd := &cobra.Command{
		Use:   "gts",
		Short: "GTS - Global Type System registry",
		Long: `gts manages hierarchical versioned identifiers for JSON and YAML
entities: parsing and matching identifiers, validating entities against
their schemas, checking schema compatibility and casting instances
between versions.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			setupLogging(cfg.Verbose)
			if cfg.Verbose > 0 && cfg.ConfigFileUsed != "" {
				slog.Info("using config file", "path", cfg.ConfigFileUsed)
			}

			gtsOps, err = ops.New(ops.Options{
				Paths:  cfg.Paths,
				Config: cfg.EntityConfig(),
			})
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./gts.yaml)")
	rootCmd.PersistentFlags().StringSlice("path", nil, "files or directories with JSON and YAML entities")
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity")

	opsRef := func() *ops.Ops { return gtsOps }
	cfgRef := func() *config.Config { return cfg }

	rootCmd.AddCommand(newIDCommand(opsRef))
	rootCmd.AddCommand(newValidateCommand(opsRef))
	rootCmd.AddCommand(newGraphCommand(opsRef))
	rootCmd.AddCommand(newCompatCommand(opsRef))
	rootCmd.AddCommand(newCastCommand(opsRef))
	rootCmd.AddCommand(newQueryCommand(opsRef))
	rootCmd.AddCommand(newGetCommand(opsRef))
	rootCmd.AddCommand(newListCommand(opsRef))
	rootCmd.AddCommand(newAttrCommand(opsRef))
	rootCmd.AddCommand(newAddCommand(opsRef))
	rootCmd.AddCommand(newServeCommand(opsRef, cfgRef))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// setupLogging wires slog to stderr at a level picked by -v count.
func setupLogging(verbosity int) {
	level := slog.LevelWarn
	switch {
	case verbosity >= 2:
		level = slog.LevelDebug
	case verbosity == 1:
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
