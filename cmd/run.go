package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/personafin/personafin/internal/config"
	"github.com/personafin/personafin/internal/dependency"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the persona bot on all enabled channels",
	RunE:  runBot,
}

func runBot(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	container, err := dependency.New(cfg, cfgPath)
	if err != nil {
		return err
	}

	fmt.Printf("%s Starting personafin...\n", logo)

	if enabled := container.Channels().EnabledChannels(); len(enabled) > 0 {
		fmt.Printf("✓ Channels enabled: %s\n", strings.Join(enabled, ", "))
	} else {
		fmt.Println("Warning: no channels enabled")
	}

	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return container.Loop().Run(gctx) })
	g.Go(func() error { return container.Channels().StartAll(gctx) })
	if cfg.Sweep.Enabled {
		g.Go(func() error { return container.Sweeper().Start(gctx) })
	}

	fmt.Printf("%s Bot running. Press Ctrl+C to stop.\n", logo)

	if err := g.Wait(); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "run error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
