package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/skobkin/trafficview/internal/app"
	"github.com/skobkin/trafficview/internal/ui"
)

type launchOptions struct {
	StartHidden bool
	Connect     bool
}

func main() {
	opts, err := parseLaunchOptions(os.Args[1:])
	if err != nil {
		slog.Error("parse launch options", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Initialize(ctx)
	if err != nil {
		slog.Error("initialize app runtime", "error", err)
		os.Exit(1)
	}

	var closeOnce sync.Once
	closeRuntime := func() {
		closeOnce.Do(func() {
			_ = rt.Close()
		})
	}
	defer closeRuntime()

	dep := ui.BuildRuntimeDependencies(rt, ui.LaunchOptions{StartHidden: opts.StartHidden, Connect: opts.Connect}, func() {
		stop()
		closeRuntime()
	})
	if err := ui.Run(dep); err != nil {
		slog.Error("run ui", "error", err)
		closeRuntime()
		os.Exit(1)
	}
}

func parseLaunchOptions(args []string) (launchOptions, error) {
	var opts launchOptions

	fs := flag.NewFlagSet(app.Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&opts.StartHidden, "start-hidden", false, "start with the main window hidden in the tray")
	fs.BoolVar(&opts.Connect, "connect", false, "connect to the light on startup")
	if err := fs.Parse(args); err != nil {
		return launchOptions{}, err
	}
	if fs.NArg() > 0 {
		return launchOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	return opts, nil
}
