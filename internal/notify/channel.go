package notify

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/keywarden/keywarden/internal/logging"
)

// Handler processes the payload of one received message. A returned error is
// reported through the logger and never propagated back to the sender.
type Handler func(payload string) error

// Channel is the passive notification endpoint owned by the running
// instance. It is created and bound before arbitration begins so its address
// can be published if the instance proceeds; Serve is only started once the
// proceed decision is made.
//
// Deliveries are dispatched by kind through a handler table and handled to
// completion one at a time.
type Channel struct {
	logger *logging.Logger

	mu       sync.Mutex
	handlers map[uint32]Handler

	ln     net.Listener
	addr   string
	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewChannel creates an unbound Channel.
func NewChannel(logger *logging.Logger) *Channel {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Channel{
		logger:   logger.WithComponent("notify"),
		handlers: make(map[uint32]Handler),
	}
}

// Handle registers the handler for a message kind. Registrations must happen
// before Serve; later registrations replace earlier ones.
func (c *Channel) Handle(kind uint32, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[kind] = h
}

// Listen binds the channel to a Unix socket path. A leftover socket file
// from a crashed run is removed first; the handle registry has no
// invalidation, so stale socket files are expected.
func (c *Channel) Listen(socketPath string) error {
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("notify: remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("notify: listen on %s: %w", socketPath, err)
	}

	c.ln = ln
	c.addr = socketPath
	return nil
}

// Addr returns the bound socket path, the address published into the handle
// registry. Empty until Listen succeeds.
func (c *Channel) Addr() string {
	return c.addr
}

// Serve starts accepting deliveries in a background goroutine. Each
// connection is drained to completion before the next is accepted, so
// message handlers never run in parallel.
func (c *Channel) Serve() {
	if c.ln == nil {
		c.logger.Error("serve called before listen")
		return
	}

	c.wg.Go(func() {
		for {
			conn, err := c.ln.Accept()
			if err != nil {
				if c.closed.Load() || errors.Is(err, net.ErrClosed) {
					return
				}
				c.logger.Warn("accept failed", "error", err)
				continue
			}
			c.handleConn(conn)
		}
	})
}

// handleConn reads newline-delimited messages from one connection and
// dispatches each in order.
func (c *Channel) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxEncodedLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		msg, err := decodeMessage(line)
		if err != nil {
			c.logger.Warn("dropping undecodable message", "error", err)
			continue
		}
		c.dispatch(msg)
	}
	if err := scanner.Err(); err != nil {
		c.logger.Debug("connection read ended", "error", err)
	}
}

// dispatch routes one message through the handler table. Unknown kinds are
// logged and dropped; handler failures are reported, not propagated.
func (c *Channel) dispatch(msg Message) {
	c.mu.Lock()
	h, ok := c.handlers[msg.Kind]
	c.mu.Unlock()

	if !ok {
		c.logger.Warn("dropping message of unknown kind", "kind", KindName(msg.Kind))
		return
	}

	c.logger.Info("message received", "kind", KindName(msg.Kind))
	if err := h(msg.Payload); err != nil {
		c.logger.Error("message handler failed",
			"kind", KindName(msg.Kind),
			"error", err,
		)
	}
}

// Close stops the accept loop, waits for any in-flight delivery, and removes
// the socket file. Safe to call once after Listen, whether or not Serve ran.
func (c *Channel) Close() error {
	if c.ln == nil {
		return nil
	}
	c.closed.Store(true)

	err := c.ln.Close()
	c.wg.Wait()

	if rmErr := os.Remove(c.addr); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}
