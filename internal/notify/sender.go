package notify

import (
	"net"
	"time"

	kerrors "github.com/keywarden/keywarden/internal/errors"
	"github.com/keywarden/keywarden/internal/logging"
	"github.com/keywarden/keywarden/internal/procscan"
)

const (
	// ReadinessWait bounds how long a sender waits for the sibling to
	// accept a connection. The only timeout in the arbitration core.
	ReadinessWait = 10 * time.Second

	// dialRetryInterval is the pause between connection attempts while
	// waiting for readiness.
	dialRetryInterval = 200 * time.Millisecond
)

// Sender transmits messages to a sibling's notification channel with
// best-effort semantics: no delivery confirmation, no retry, every failure
// swallowed. Send blocks the caller for up to the readiness bound.
type Sender struct {
	logger *logging.Logger
	wait   time.Duration
}

// NewSender creates a Sender with the default readiness bound.
func NewSender(logger *logging.Logger) *Sender {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Sender{
		logger: logger.WithComponent("notify"),
		wait:   ReadinessWait,
	}
}

// SetReadinessWait overrides the readiness bound. Zero or negative values
// are ignored.
func (s *Sender) SetReadinessWait(d time.Duration) {
	if d > 0 {
		s.wait = d
	}
}

// Send transmits one message to the sibling recorded in ref. If ref holds no
// sibling or no resolved channel address, Send does nothing. The caller
// never learns whether delivery succeeded; failures are debug-logged only.
func (s *Sender) Send(ref procscan.SiblingRef, kind uint32, payload string) {
	if ref.Sibling == nil || ref.ChannelAddr == "" {
		return
	}

	conn, ok := s.awaitReady(ref.ChannelAddr)
	if !ok {
		s.logger.Debug("abandoning send",
			"error", kerrors.NewTimeoutError("waiting for sibling readiness", s.wait).
				Error(),
			"addr", ref.ChannelAddr,
			"kind", KindName(kind),
		)
		return
	}
	defer func() { _ = conn.Close() }()

	data, err := encodeMessage(Message{Kind: kind, Payload: payload})
	if err != nil {
		s.logger.Debug("abandoning send",
			"error", kerrors.NewDeliveryError("encode failed", err).WithKind(kind).Error(),
		)
		return
	}

	_ = conn.SetWriteDeadline(time.Now().Add(s.wait))
	if _, err := conn.Write(data); err != nil {
		s.logger.Debug("abandoning send",
			"error", kerrors.NewDeliveryError("write failed", err).
				WithAddr(ref.ChannelAddr).WithKind(kind).Error(),
		)
		return
	}

	s.logger.Info("message sent",
		"kind", KindName(kind),
		"sibling_pid", ref.Sibling.PID,
	)
}

// awaitReady dials the target until it accepts or the readiness bound
// expires. A successful dial is the sibling's readiness signal.
func (s *Sender) awaitReady(addr string) (net.Conn, bool) {
	deadline := time.Now().Add(s.wait)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, false
		}
		conn, err := net.DialTimeout("unix", addr, remaining)
		if err == nil {
			return conn, true
		}
		if time.Now().Add(dialRetryInterval).After(deadline) {
			return nil, false
		}
		time.Sleep(dialRetryInterval)
	}
}
