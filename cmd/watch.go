package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/cachebust/internal/watcher"
)

const defaultDebounce = 300 * time.Millisecond

func runWatch(cmd *cobra.Command, mode string, flags *pipelineFlags) error {
	p, err := loadPipeline(cmd, mode, flags)
	if err != nil {
		return err
	}

	delay, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fileWatcher, err := watcher.NewFileWatcher(delay, p.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	for _, root := range p.sourceRoots() {
		fileWatcher.AddFilter(watcher.IgnoreFilter(root, p.patterns.Ignore))
	}
	fileWatcher.AddFilter(watcher.ExcludeFilter(p.buildRoots()...))

	fileWatcher.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		p.logger.Info(ctx, "changes detected", "count", len(events))
		for _, event := range events {
			p.logger.Debug(ctx, "change", "type", event.Type.String(), "path", event.Path)
		}
		// A failed build is reported and watching goes on.
		if err := buildOnce(ctx, cmd.ErrOrStderr(), p); err != nil {
			p.logger.Error(ctx, err, "rebuild failed")
		}
		return nil
	})

	for _, root := range p.sourceRoots() {
		if err := fileWatcher.AddRecursive(root); err != nil {
			p.logger.Warn(ctx, err, "failed to watch source root", "root", root)
			continue
		}
		p.logger.Info(ctx, "watching", "root", root)
	}

	if err := buildOnce(ctx, cmd.ErrOrStderr(), p); err != nil {
		p.logger.Error(ctx, err, "initial build failed")
	}

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	<-ctx.Done()
	p.logger.Info(context.Background(), "stopping file watcher")

	return nil
}
