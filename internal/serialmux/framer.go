package serialmux

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/mazesolver/internal/explore"
)

// ErrBadFrame is returned by TextFramer for lines that are not a sensor
// byte.
var ErrBadFrame = errors.New("malformed frame")

// Frame is one request from the robot: a sensor byte plus whatever the
// transport could carry about visual victims.
type Frame struct {
	Reading  byte
	Sighting explore.Sighting
}

// Framer splits a byte stream into requests and writes responses.
type Framer interface {
	ReadFrame() (Frame, error)
	WriteFrame(b byte) error
}

// RawFramer exchanges single raw bytes, as the motor controller does.
type RawFramer struct {
	rw io.ReadWriter
}

// NewRawFramer frames rw one byte per request.
func NewRawFramer(rw io.ReadWriter) *RawFramer {
	return &RawFramer{rw: rw}
}

func (f *RawFramer) ReadFrame() (Frame, error) {
	var buf [1]byte
	if _, err := io.ReadFull(f.rw, buf[:]); err != nil {
		return Frame{}, err
	}
	return Frame{Reading: buf[0]}, nil
}

func (f *RawFramer) WriteFrame(b byte) error {
	n, err := f.rw.Write([]byte{b})
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrWriteFailed
	}
	return nil
}

// TextFramer exchanges one line per request. A request line is the sensor
// byte in binary, optionally followed by sighting tokens:
//
//	00000110 R=H L=S,green
//
// Responses are written as eight binary digits. Blank lines are skipped.
type TextFramer struct {
	scan *bufio.Scanner
	w    io.Writer
}

// NewTextFramer reads requests from r and writes responses to w.
func NewTextFramer(r io.Reader, w io.Writer) *TextFramer {
	return &TextFramer{scan: bufio.NewScanner(r), w: w}
}

func (f *TextFramer) ReadFrame() (Frame, error) {
	for f.scan.Scan() {
		line := strings.TrimSpace(f.scan.Text())
		if line == "" {
			continue
		}
		return ParseLine(line)
	}
	if err := f.scan.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{}, io.EOF
}

func (f *TextFramer) WriteFrame(b byte) error {
	_, err := io.WriteString(f.w, FormatByte(b)+"\n")
	return err
}

// FormatByte renders b as eight binary digits.
func FormatByte(b byte) string {
	return fmt.Sprintf("%08b", b)
}

// ParseLine parses a TextFramer request line.
func ParseLine(line string) (Frame, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Frame{}, fmt.Errorf("empty line: %w", ErrBadFrame)
	}
	if len(fields[0]) != 8 {
		return Frame{}, fmt.Errorf("sensor byte %q must have 8 binary digits: %w", fields[0], ErrBadFrame)
	}
	v, err := strconv.ParseUint(fields[0], 2, 8)
	if err != nil {
		return Frame{}, fmt.Errorf("sensor byte %q: %w", fields[0], ErrBadFrame)
	}

	fr := Frame{Reading: byte(v)}
	for _, tok := range fields[1:] {
		key, val, ok := strings.Cut(tok, "=")
		if !ok {
			return Frame{}, fmt.Errorf("token %q: %w", tok, ErrBadFrame)
		}
		side, err := explore.ParseSide(val)
		if err != nil {
			return Frame{}, fmt.Errorf("token %q: %v: %w", tok, err, ErrBadFrame)
		}
		switch strings.ToUpper(key) {
		case "R":
			fr.Sighting.Right = side
		case "L":
			fr.Sighting.Left = side
		default:
			return Frame{}, fmt.Errorf("token %q: unknown side: %w", tok, ErrBadFrame)
		}
	}
	return fr, nil
}
