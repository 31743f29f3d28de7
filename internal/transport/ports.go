package transport

import (
	"fmt"
	"sort"

	"go.bug.st/serial"
)

// ListPorts returns the serial ports currently present on the host, sorted by name.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	sort.Strings(ports)

	return ports, nil
}
