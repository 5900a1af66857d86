package serialmux

import (
	"io"
	"os"
)

// SerialPorter defines the minimal interface needed for a port.
// This abstraction enables unit testing without real serial hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// ConsolePort joins a reader and a writer into a port, for driving the
// engine by hand or from a script.
type ConsolePort struct {
	io.Reader
	io.Writer
}

// Close is a no-op; the console outlives the link.
func (ConsolePort) Close() error { return nil }

// NewConsoleLink returns a Link exchanging text lines on stdin and stdout.
func NewConsoleLink() *Link[ConsolePort] {
	return NewTextLink(os.Stdin, os.Stdout)
}

// NewTextLink returns a Link exchanging text lines on r and w.
func NewTextLink(r io.Reader, w io.Writer) *Link[ConsolePort] {
	port := ConsolePort{Reader: r, Writer: w}
	return NewLink(port, NewTextFramer(r, w))
}
