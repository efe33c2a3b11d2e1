package notify

import (
	"encoding/json"
	"fmt"
	"strings"

	kerrors "github.com/keywarden/keywarden/internal/errors"
)

// Message kinds. Sparse identifiers reduce accidental collision with
// unrelated data arriving on the same socket.
const (
	// KindImportRequest asks the running instance to import the credential
	// file named by the payload.
	KindImportRequest uint32 = 0x7A31

	// KindForegroundRequest asks the running instance to bring itself to
	// the foreground. The payload is empty.
	KindForegroundRequest uint32 = 0x7A67
)

// MaxPayload bounds the payload length in bytes.
const MaxPayload = 4096

// maxEncodedLine bounds one wire line. JSON escaping expands a payload byte
// to at most six bytes (\u00XX for control characters), and the envelope
// around the payload is small; the receive buffer must admit any line the
// encoder can legally produce.
const maxEncodedLine = 6*MaxPayload + 64

// Message is one typed notification. Transient: it exists only for the
// duration of a single delivery.
type Message struct {
	Kind    uint32 `json:"kind"`
	Payload string `json:"payload"`
}

// KindName returns a log-friendly name for a message kind.
func KindName(kind uint32) string {
	switch kind {
	case KindImportRequest:
		return "import-request"
	case KindForegroundRequest:
		return "foreground-request"
	default:
		return fmt.Sprintf("unknown(0x%X)", kind)
	}
}

// encodeMessage renders a message as one newline-terminated JSON line.
func encodeMessage(msg Message) ([]byte, error) {
	if len(msg.Payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", kerrors.ErrPayloadTooLarge, len(msg.Payload))
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("notify: marshal message: %w", err)
	}
	if len(data)+1 > maxEncodedLine {
		return nil, fmt.Errorf("%w: encoded line is %d bytes", kerrors.ErrPayloadTooLarge, len(data)+1)
	}
	return append(data, '\n'), nil
}

// decodeMessage parses one JSON line into a Message. The payload is cloned
// into instance-local memory: the input buffer is only valid for the
// duration of the delivery read.
func decodeMessage(line []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return Message{}, fmt.Errorf("notify: unmarshal message: %w", err)
	}
	if len(msg.Payload) > MaxPayload {
		return Message{}, fmt.Errorf("%w: %d bytes", kerrors.ErrPayloadTooLarge, len(msg.Payload))
	}

	msg.Payload = strings.Clone(msg.Payload)
	return msg, nil
}
