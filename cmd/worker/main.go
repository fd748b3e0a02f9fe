// Command stackapp-worker receives Pub/Sub push deliveries and runs the matching job handler.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/charlesng35/stackapp/internal/app"
	"github.com/charlesng35/stackapp/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()

	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "stackapp-worker: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("stackapp-worker", flag.ContinueOnError)
	configPath := flags.String("config", "", "configuration file or directory containing config.yaml")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := app.LoadConfigFrom(*configPath)
	if err != nil {
		return err
	}
	if err := app.ConfigureLogging(cfg.Server); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.WithModule("worker")
	stack, err := bootstrapWorker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
		defer cancel()
		if err := stack.Close(closeCtx); err != nil {
			log.Warn("runtime shutdown", zap.Error(err))
		}
	}()

	log.Info("job handlers registered", zap.Strings("job_types", stack.Dispatcher.Types()))
	return app.ListenAndServe(ctx, cfg.Worker.Port, stack.Router, logger.WithModule("http"))
}
