package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skobkin/trafficview/internal/transport"
)

var listPorts = transport.ListPorts

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := listPorts()
			if err != nil {
				return fmt.Errorf("list serial ports: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(ports) == 0 {
				fmt.Fprintln(out, "No serial ports found.")

				return nil
			}
			for _, port := range ports {
				fmt.Fprintln(out, port)
			}

			return nil
		},
	}
}
