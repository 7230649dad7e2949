package main

import (
	"fmt"

	"github.com/martinberglund/Visma.Net/pkg/config"
	"github.com/martinberglund/Visma.Net/pkg/vismanet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what the subcommands share. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	debug  bool
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "vismanet",
		Short:         "Command line client for the Visma.net ERP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err := cfg.NewLogger(a.debug)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "log at debug level in development format")

	rootCmd.AddCommand(
		newGetCmd(a),
		newExportCmd(a),
		newSyncCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// client builds a Visma.net client from the VISMANET_* environment
func (a *app) client() (*vismanet.VismaNet, error) {
	cfg, err := vismanet.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load Visma.net config: %w", err)
	}
	return vismanet.NewVismaNetWithLogger(cfg, a.logger)
}
