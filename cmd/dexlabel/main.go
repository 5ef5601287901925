package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/youruser/dexlabel/internal/config"
	"github.com/youruser/dexlabel/internal/logger"
)

// cli holds what every subcommand shares once the root has run.
type cli struct {
	cfgPath  string
	logLevel string
	outDir   string

	cfg    *config.Config
	log    *slog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "dexlabel",
		Short: "Render two-sided creature labels",
		Long: `dexlabel looks a creature up by name or number and renders an 825×237
front and back label for it: type-colored background, name plate, badges,
sprite, description, habitat and a QR code linking to the creature's cry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "init" {
				return nil
			}
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.closer != nil {
				_ = c.closer.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.cfgPath, "config", "c", config.DefaultPath, "config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&c.outDir, "out", "o", "", "output directory (default from config)")

	root.AddCommand(newRenderCmd(c))
	root.AddCommand(newBatchCmd(c))
	root.AddCommand(newWatchCmd(c))
	root.AddCommand(newConfigCmd(c))
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.cfgPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.outDir != "" {
		cfg.Output.Dir = c.outDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	c.log, c.closer = logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Console:    cmd.ErrOrStderr(),
	})
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
