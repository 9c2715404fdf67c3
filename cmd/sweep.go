package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skiptow/dispatch/app"
	"github.com/skiptow/dispatch/config"
	"github.com/skiptow/dispatch/infra/logger"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the scheduled maintenance sweeps once and exit",
	RunE:  runSweeps,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweeps(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	logg := logger.New("sweep-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	if err := svc.Sweeper.RunAll(ctx); err != nil {
		return fmt.Errorf("sweeps encountered errors: %w", err)
	}
	logg.Infof("sweeps completed")
	return nil
}
