package serialcomm

import (
	"fmt"
	"sort"

	bugst "go.bug.st/serial"
)

var listPorts = bugst.GetPortsList

// Ports returns the serial devices visible to the OS, sorted by name.
func Ports() ([]string, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}
