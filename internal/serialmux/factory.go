package serialmux

import (
	"fmt"

	"go.bug.st/serial"
)

// NewRealLink opens the serial port at path with the given options and
// returns a Link exchanging raw bytes over it.
func NewRealLink(path string, opts PortOptions) (*Link[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("reset %s: %w", path, err)
	}

	return NewLink[serial.Port](port, nil), nil
}

// ListPorts returns the serial ports present on this machine.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
