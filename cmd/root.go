package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"docsdiff/internal/config"
	"docsdiff/internal/observability"
	"docsdiff/internal/ui"
	"docsdiff/pkg/models"
)

var (
	cfgFile string

	// populated by loadConfig before any command runs
	v               *viper.Viper
	cfg             *models.Config
	logger          zerolog.Logger
	shutdownTracing observability.ShutdownFunc

	rootCmd = &cobra.Command{
		Use:   "docsdiff",
		Short: "Record documentation changes as dated diffs",
		Long: `docsdiff tracks every repository of a documentation organization.
Each run clones new repositories, advances existing clones to the newest
commit at or before the cutoff and commits the unified diffs into the
diff archive, one commit per run.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
		RunE:              runSync,
	}
)

// flagBindings maps persistent flags onto configuration keys
var flagBindings = map[string]string{
	"content_root":     "content-root",
	"github.org":       "org",
	"git.backend":      "backend",
	"sync.on_error":    "on-error",
	"log.level":        "log-level",
	"metrics.textfile": "metrics-textfile",
	"tracing.file":     "trace-file",
}

// Execute runs the command selected by the arguments and exits with status
// 1 after printing the error when it fails
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx); err != nil {
		ui.SetOutput(os.Stderr)
		ui.ShowError(err)
		stop()
		os.Exit(1)
	}
}

// execute runs the command tree, then flushes spans exported by the run
func execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if shutdownTracing != nil {
		if serr := shutdownTracing(context.Background()); serr != nil {
			logger.Warn().Err(serr).Msg("failed to flush traces")
		}
		shutdownTracing = nil
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().AddFlagSet(configFlags())
	rootCmd.Flags().AddFlagSet(syncFlags())
}

// configFlags holds the flags that override configuration values
func configFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.StringVar(&cfgFile, "config", "", "config file (default ./docsdiff.yaml or $HOME/.docsdiff/config.yaml)")
	fs.String("content-root", "", "directory holding docs/ and diffs/")
	fs.String("org", "", "organization whose repositories are tracked")
	fs.String("backend", "", "git backend: gogit or exec")
	fs.String("on-error", "", "failure policy: abort or continue")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.String("metrics-textfile", "", "write pass metrics to this Prometheus textfile")
	fs.String("trace-file", "", "append OpenTelemetry spans as JSON to this file")
	return fs
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	v, err = config.New(cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Root().PersistentFlags()
	for key, name := range flagBindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return err
		}
	}

	cfg, err = config.Load(v)
	if err != nil {
		return err
	}

	logger, err = observability.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	shutdownTracing, err = observability.SetupTracing(cfg.Tracing)
	if err != nil {
		return err
	}

	ui.SetOutput(cmd.OutOrStdout())
	logger.Debug().Str("config_file", v.ConfigFileUsed()).Msg("configuration loaded")
	return nil
}
