// Trafficctl is the terminal companion of the traffic light viewer.
//
// It watches the device in a terminal UI, dumps decoded records for
// scripting, lists serial ports, runs a firmware simulator and serves the
// state mirrors without a window.
//
// Usage:
//
//	trafficctl [command] [flags]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
