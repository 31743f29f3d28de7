package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skobkin/trafficview/internal/app"
)

func newRootCmd() *cobra.Command {
	conn := &connectionFlags{}

	root := &cobra.Command{
		Use:   "trafficctl",
		Short: "Traffic light client for the terminal",
		Long: `Reads the line-oriented JSON records a traffic light controller prints
over its serial link and shows, dumps or re-publishes them.

Connection flags override the saved configuration for one run only.`,
		Version:       app.BuildVersionWithDate(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	conn.register(root)

	root.AddCommand(
		newWatchCmd(conn),
		newDumpCmd(conn),
		newPortsCmd(),
		newSimulateCmd(),
		newServeCmd(conn),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", app.Name, app.BuildVersionWithDate())
		},
	}
}

// signalContext stops on SIGINT/SIGTERM as well as on the command context.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}

	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func initRuntime(ctx context.Context, conn *connectionFlags, console io.Writer, disableMirrors bool) (*app.Runtime, error) {
	if err := conn.validate(); err != nil {
		return nil, err
	}

	rt, err := app.InitializeWithOptions(ctx, app.Options{
		Console:        console,
		QuietConsole:   console == nil,
		Override:       conn.apply,
		DisableMirrors: disableMirrors,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize runtime: %w", err)
	}

	return rt, nil
}
