package notify

import (
	"strings"
	"testing"

	kerrors "github.com/keywarden/keywarden/internal/errors"
)

func TestEncodeMessage_RejectsOversizedPayload(t *testing.T) {
	_, err := encodeMessage(Message{
		Kind:    KindImportRequest,
		Payload: strings.Repeat("x", MaxPayload+1),
	})
	if !kerrors.Is(err, kerrors.ErrPayloadTooLarge) {
		t.Errorf("error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestEncodeMessage_MaximalPayloadsFitReceiveBuffer(t *testing.T) {
	// The receive buffer must admit every line the encoder can produce,
	// for each JSON escape expansion class.
	tests := []struct {
		name string
		fill string
	}{
		{"plain", "x"},
		{"quote", "\""},
		{"backslash", "\\"},
		{"control", "\x01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := encodeMessage(Message{
				Kind:    KindImportRequest,
				Payload: strings.Repeat(tt.fill, MaxPayload),
			})
			if err != nil {
				t.Fatalf("encodeMessage() error = %v", err)
			}
			if len(data) > maxEncodedLine {
				t.Errorf("encoded line is %d bytes, exceeds receive bound %d", len(data), maxEncodedLine)
			}
		})
	}
}

func TestDecodeMessage_RejectsOversizedPayload(t *testing.T) {
	line := []byte(`{"kind":31281,"payload":"` + strings.Repeat("x", MaxPayload+1) + `"}`)
	_, err := decodeMessage(line)
	if !kerrors.Is(err, kerrors.ErrPayloadTooLarge) {
		t.Errorf("error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestDecodeMessage_ClonesPayload(t *testing.T) {
	line := []byte(`{"kind":31281,"payload":"/tmp/x.cred"}`)

	msg, err := decodeMessage(line)
	if err != nil {
		t.Fatalf("decodeMessage() error = %v", err)
	}

	// Scribble over the delivery buffer; the decoded payload must survive.
	for i := range line {
		line[i] = '!'
	}
	if msg.Payload != "/tmp/x.cred" {
		t.Errorf("payload = %q, want %q", msg.Payload, "/tmp/x.cred")
	}
}

func TestDecodeMessage_Malformed(t *testing.T) {
	if _, err := decodeMessage([]byte("not json")); err == nil {
		t.Error("expected error for malformed line, got nil")
	}
}

func TestKindName(t *testing.T) {
	tests := []struct {
		kind uint32
		want string
	}{
		{KindImportRequest, "import-request"},
		{KindForegroundRequest, "foreground-request"},
		{0xBEEF, "unknown(0xBEEF)"},
	}
	for _, tt := range tests {
		if got := KindName(tt.kind); got != tt.want {
			t.Errorf("KindName(0x%X) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKindIdentifiersAreSparse(t *testing.T) {
	// The two kinds must be distinct and well separated so a stray word of
	// unrelated traffic is unlikely to land on either.
	if KindImportRequest == KindForegroundRequest {
		t.Fatal("kind identifiers collide")
	}
	diff := int64(KindForegroundRequest) - int64(KindImportRequest)
	if diff < 0 {
		diff = -diff
	}
	if diff < 16 {
		t.Errorf("kind identifiers too close: distance %d", diff)
	}
}
