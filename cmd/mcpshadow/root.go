package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"mcpshadow/internal/app"
	"mcpshadow/internal/domain"
	"mcpshadow/internal/infra/probe"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type cliOptions struct {
	settingsPath     string
	manifestPath     string
	logLevel         string
	probeTimeout     int
	probeConcurrency int
	probeMode        string
	settings         domain.Settings
	logger           *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		manifestPath:     domain.DefaultManifestPath,
		logLevel:         domain.DefaultLogLevel,
		probeTimeout:     domain.DefaultProbeTimeoutSeconds,
		probeConcurrency: domain.DefaultProbeConcurrency,
		probeMode:        string(domain.DefaultProbeMode),
		logger:           zap.NewNop(),
	}

	root := &cobra.Command{
		Use:           "mcpshadow",
		Short:         "Discover configured and running MCP servers on this host",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadRuntime(cmd, &opts)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.settingsPath, "settings", "", "settings file (yaml, toml or json)")
	root.PersistentFlags().StringVar(&opts.manifestPath, "manifest", opts.manifestPath, "path to the client manifest")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().IntVar(&opts.probeTimeout, "probe-timeout", opts.probeTimeout, "tools/list probe timeout in seconds")
	root.PersistentFlags().IntVar(&opts.probeConcurrency, "probe-concurrency", opts.probeConcurrency, "maximum concurrent probes")
	root.PersistentFlags().StringVar(&opts.probeMode, "probe-mode", opts.probeMode, "probe mode (rpc or session)")

	root.AddCommand(
		newScanCmd(&opts),
		newWatchCmd(&opts),
		newManifestCmd(&opts),
	)

	return root
}

// loadRuntime resolves settings and builds the logger. Only flags the user
// set explicitly override the settings file and environment.
func loadRuntime(cmd *cobra.Command, opts *cliOptions) error {
	overrides := flagOverrides(cmd.Flags())
	if path, ok := overrides["settings"]; ok {
		opts.settingsPath, _ = path.(string)
		delete(overrides, "settings")
	}

	settings, err := app.LoadSettings(app.SettingsOptions{
		Path:      opts.settingsPath,
		Overrides: overrides,
	})
	if err != nil {
		return exitError{code: exitCodeFailure, message: err.Error()}
	}

	logger, err := app.BuildLogger(settings.LogLevel)
	if err != nil {
		return exitError{code: exitCodeFailure, message: err.Error()}
	}

	probe.ClientVersion = Version
	opts.settings = settings
	opts.logger = logger
	return nil
}

func flagOverrides(flags *pflag.FlagSet) map[string]any {
	overrides := make(map[string]any)
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "settings":
			overrides["settings"], _ = flags.GetString("settings")
		case "manifest":
			overrides["manifest"], _ = flags.GetString("manifest")
		case "log-level":
			overrides["logLevel"], _ = flags.GetString("log-level")
		case "probe-timeout":
			overrides["probe.timeoutSeconds"], _ = flags.GetInt("probe-timeout")
		case "probe-concurrency":
			overrides["probe.concurrency"], _ = flags.GetInt("probe-concurrency")
		case "probe-mode":
			overrides["probe.mode"], _ = flags.GetString("probe-mode")
		}
	})
	return overrides
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
