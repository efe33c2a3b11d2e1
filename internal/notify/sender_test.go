package notify

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/keywarden/keywarden/internal/procscan"
)

func TestSender_NoSiblingIsNoop(t *testing.T) {
	s := NewSender(nil)
	// Must return immediately and not panic.
	s.Send(procscan.SiblingRef{Classification: procscan.ClassNone}, KindForegroundRequest, "")
}

func TestSender_NoAddrIsNoop(t *testing.T) {
	s := NewSender(nil)
	ref := siblingRef("")
	start := time.Now()
	s.Send(ref, KindForegroundRequest, "")
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Send without address blocked for %v", elapsed)
	}
}

func TestSender_ReturnsWithinReadinessBound(t *testing.T) {
	// Nothing listens on this address; the sibling never signals readiness.
	dead := filepath.Join(t.TempDir(), "nobody.sock")

	s := NewSender(nil)
	s.SetReadinessWait(500 * time.Millisecond)

	start := time.Now()
	s.Send(siblingRef(dead), KindImportRequest, "/tmp/x.cred")
	elapsed := time.Since(start)

	if elapsed > 3*time.Second {
		t.Errorf("Send blocked for %v, want return near the 500ms bound", elapsed)
	}
}

func TestSender_OversizedPayloadSwallowed(t *testing.T) {
	sock := testSocket(t)

	ch := NewChannel(nil)
	if err := ch.Listen(sock); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ch.Close()
	ch.Serve()

	s := NewSender(nil)
	s.SetReadinessWait(2 * time.Second)
	// Must not panic and must not surface an error to the caller.
	s.Send(siblingRef(sock), KindImportRequest, strings.Repeat("x", MaxPayload+1))
}

func TestSetReadinessWait_IgnoresNonPositive(t *testing.T) {
	s := NewSender(nil)
	s.SetReadinessWait(0)
	if s.wait != ReadinessWait {
		t.Errorf("wait = %v, want default %v", s.wait, ReadinessWait)
	}
	s.SetReadinessWait(-time.Second)
	if s.wait != ReadinessWait {
		t.Errorf("wait = %v, want default %v", s.wait, ReadinessWait)
	}
}
