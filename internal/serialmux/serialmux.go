// Package serialmux carries the robot's one-byte request/response exchange
// over a serial port or a text console, and lets multiple clients subscribe
// to the exchanges as they happen.
package serialmux

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/banshee-data/mazesolver/internal/explore"
	"github.com/banshee-data/mazesolver/internal/monitoring"
	"github.com/banshee-data/mazesolver/internal/timeutil"
)

var ErrWriteFailed = fmt.Errorf("failed to write to serial port")

// Handler decides the response to one sensor byte. It reports false once
// the mission is over; the response is still sent.
type Handler func(in byte, seen explore.Sighting) (bool, byte, error)

// Exchange is one request/response pair as published to subscribers.
type Exchange struct {
	Step     int              `json:"step"`
	At       time.Time        `json:"at"`
	In       byte             `json:"in"`
	Out      byte             `json:"out"`
	Continue bool             `json:"continue"`
	Sighting explore.Sighting `json:"sighting"`
	Latency  time.Duration    `json:"latency_ns"`
}

func (e Exchange) String() string {
	return fmt.Sprintf("step %d: %s -> %s", e.Step, FormatByte(e.In), FormatByte(e.Out))
}

// Link drives a Handler from the frames arriving on a port. Subscribers
// receive one JSON line per exchange.
type Link[T SerialPorter] struct {
	port   T
	framer Framer
	clock  timeutil.Clock

	subscribers  map[string]chan string
	subscriberMu sync.Mutex

	pending   explore.Sighting
	pendingMu sync.Mutex

	closing   bool
	closingMu sync.Mutex
}

// LinkInterface is the transport surface the mission runner depends on.
type LinkInterface interface {
	// Subscribe creates a new channel receiving one event per exchange. The
	// channel ID is used to identify the channel when unsubscribing.
	Subscribe() (string, chan string)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// QueueSighting attaches a visual identification to the next request.
	QueueSighting(explore.Sighting)
	// Serve runs the request/response loop until the handler ends the
	// mission, the context is cancelled or the port fails.
	Serve(context.Context, Handler) error
	// Close closes all subscribed channels and closes the port.
	Close() error
}

// NewLink returns a Link reading frames from port through framer. A nil
// framer exchanges raw bytes.
func NewLink[T SerialPorter](port T, framer Framer) *Link[T] {
	if framer == nil {
		framer = NewRawFramer(port)
	}
	return &Link[T]{
		port:        port,
		framer:      framer,
		clock:       timeutil.RealClock{},
		subscribers: make(map[string]chan string),
	}
}

// SetClock replaces the clock used to timestamp exchanges.
func (l *Link[T]) SetClock(c timeutil.Clock) { l.clock = c }

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (l *Link[T]) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string, 16)
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	l.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the link.
func (l *Link[T]) Unsubscribe(id string) {
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	if ch, ok := l.subscribers[id]; ok {
		close(ch)
		delete(l.subscribers, id)
	}
}

// QueueSighting stores s for the next request. Sides already queued are
// replaced only by non-empty sides of s.
func (l *Link[T]) QueueSighting(s explore.Sighting) {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()
	l.pending = mergeSighting(l.pending, s)
}

func (l *Link[T]) takeSighting() explore.Sighting {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()
	s := l.pending
	l.pending = explore.Sighting{}
	return s
}

func mergeSighting(base, over explore.Sighting) explore.Sighting {
	if over.Right != (explore.Side{}) {
		base.Right = over.Right
	}
	if over.Left != (explore.Side{}) {
		base.Left = over.Left
	}
	return base
}

// Serve reads frames and answers each one with the handler's response. It
// returns nil once the handler ends the mission.
func (l *Link[T]) Serve(ctx context.Context, h Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan Frame)
	readErr := make(chan error, 1)

	// The blocking read runs on its own goroutine so cancellation is not
	// held up by a quiet port. Close unblocks it.
	go func() {
		defer close(frames)
		for {
			f, err := l.framer.ReadFrame()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	step := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case f, ok := <-frames:
			if !ok {
				return l.readFailed(<-readErr)
			}
			if l.isClosing() {
				return nil
			}
			step++
			start := l.clock.Now()
			seen := mergeSighting(l.takeSighting(), f.Sighting)
			cont, out, err := h(f.Reading, seen)
			if err != nil {
				return fmt.Errorf("step %d: %w", step, err)
			}
			if err := l.framer.WriteFrame(out); err != nil {
				return fmt.Errorf("step %d: write response: %w", step, err)
			}
			l.publish(Exchange{
				Step:     step,
				At:       start,
				In:       f.Reading,
				Out:      out,
				Continue: cont,
				Sighting: seen,
				Latency:  l.clock.Since(start),
			})
			if !cont {
				monitoring.Logf("mission ended after %d exchanges", step)
				return nil
			}
		}
	}
}

func (l *Link[T]) readFailed(err error) error {
	if l.isClosing() {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("port closed before the mission ended: %w", io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("read frame: %w", err)
}

func (l *Link[T]) publish(e Exchange) {
	monitoring.Tracef("%s", e)
	payload, err := json.Marshal(e)
	if err != nil {
		monitoring.Logf("serialmux: encode exchange: %v", err)
		return
	}
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	for _, ch := range l.subscribers {
		select {
		case ch <- string(payload):
		default:
			// if the channel is full/blocking skip so as not to stall the robot
		}
	}
}

func (l *Link[T]) isClosing() bool {
	l.closingMu.Lock()
	defer l.closingMu.Unlock()
	return l.closing
}

func (l *Link[T]) Close() error {
	l.closingMu.Lock()
	if l.closing {
		l.closingMu.Unlock()
		return nil
	}
	l.closing = true
	l.closingMu.Unlock()

	l.subscriberMu.Lock()
	for id, ch := range l.subscribers {
		close(ch)
		delete(l.subscribers, id)
	}
	l.subscriberMu.Unlock()
	return l.port.Close()
}
