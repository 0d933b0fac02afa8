// Package ingest reads decoded UAT messages from a dump978-style
// json-port (or stdin) and hands them to the tracker.
package ingest

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/unklstewy/uatfeed/pkg/uat"
)

// Handler receives each successfully parsed message together with its
// receive time.
type Handler func(msg uat.Message, now time.Time)

// maxLineSize bounds one JSON message line; decoded downlink messages are
// far smaller than this.
const maxLineSize = 64 * 1024

// Client maintains a TCP connection to a json-port, reconnecting with
// exponential backoff when the feed drops.
type Client struct {
	addr     string
	handler  Handler
	maxDelay time.Duration

	// dialLimiter caps reconnection attempts so a flapping upstream
	// cannot turn the client into a dial loop.
	dialLimiter *rate.Limiter

	messages  atomic.Int64
	parseErrs atomic.Int64
	connected atomic.Bool
}

// NewClient creates a client for addr ("host:port"). maxDelay caps the
// reconnect backoff; zero selects 60 seconds.
func NewClient(addr string, maxDelay time.Duration, handler Handler) *Client {
	if maxDelay <= 0 {
		maxDelay = 60 * time.Second
	}
	return &Client{
		addr:        addr,
		handler:     handler,
		maxDelay:    maxDelay,
		dialLimiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// Stats is a point-in-time view of ingest activity.
type Stats struct {
	Messages    int64 `json:"messages"`
	ParseErrors int64 `json:"parse_errors"`
	Connected   bool  `json:"connected"`
}

// Stats returns cumulative ingest counters. Safe to call from any
// goroutine.
func (c *Client) Stats() Stats {
	return Stats{
		Messages:    c.messages.Load(),
		ParseErrors: c.parseErrs.Load(),
		Connected:   c.connected.Load(),
	}
}

// Run connects and reads until ctx is cancelled, reconnecting with
// exponential backoff after connection failures.
func (c *Client) Run(ctx context.Context) error {
	delay := time.Second

	for {
		if err := c.dialLimiter.Wait(ctx); err != nil {
			return err
		}

		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", c.addr)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Failed to connect to %s: %v (retrying in %v)", c.addr, err, delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
			continue
		}

		log.Printf("Connected to message feed at %s", c.addr)
		delay = time.Second
		c.connected.Store(true)

		// Close the connection when ctx is cancelled so the read loop
		// unblocks.
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-done:
			}
		}()

		err = c.readLines(conn)
		close(done)
		conn.Close()
		c.connected.Store(false)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, io.EOF) {
			log.Printf("Message feed read error: %v", err)
		} else {
			log.Printf("Message feed at %s closed, reconnecting", c.addr)
		}
	}
}

// RunReader consumes messages from an already-open stream (e.g. stdin)
// until EOF or cancellation. There is no reconnection: when a piped
// demodulator exits, so do we.
func (c *Client) RunReader(ctx context.Context, r io.Reader) error {
	type result struct{ err error }
	ch := make(chan result, 1)
	go func() {
		ch <- result{c.readLines(r)}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.err
	}
}

func (c *Client) readLines(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		msg, err := uat.ParseMessage(line)
		if err != nil {
			n := c.parseErrs.Add(1)
			if n%100 == 1 {
				log.Printf("Error parsing message: %v (%d parse errors so far)", err, n)
			}
			continue
		}

		c.messages.Add(1)
		c.handler(msg, time.Now())
	}
	return scanner.Err()
}
