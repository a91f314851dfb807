package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"asvco2cli/internal/config"
	"asvco2cli/internal/infrastructure"
	"asvco2cli/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "Validate ASVCO2 instrument logs against reference gases",
		Version:      contracts.GetFullVersionString(),
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file (optional)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override logging.level: debug|info|warn|error")

	cmd.AddCommand(
		newRunCmd(opts),
		newCheckCmd(opts),
		newSessionCmd(opts),
		newLimitsCmd(opts),
	)
	return cmd
}

// setup loads configuration and installs the process logger. The returned
// cleanup closes the log file.
func (o *rootOptions) setup() (*config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		if err := infrastructure.CloseLogFile(); err != nil {
			slog.Warn("Failed to close log file", slog.String("error", err.Error()))
		}
	}
	return cfg, logger, cleanup, nil
}
