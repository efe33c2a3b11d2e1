// Package identity captures immutable process identity snapshots: the
// process ID, executable name, owning user, and login session of a running
// process. Snapshots are taken once at scan time and discarded after the
// sibling classification decision has been made.
package identity

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Process is an immutable identity snapshot of a running process.
// It is never mutated after capture.
type Process struct {
	// PID is the operating system process ID.
	PID int
	// Executable is the base name of the process executable.
	Executable string
	// OwnerUID is the UID of the security principal that launched the process.
	OwnerUID string
	// SessionID is the login session the process belongs to. A user may have
	// several concurrent sessions.
	SessionID int
}

// Current captures the calling process's identity.
func Current() (Process, error) {
	exe, err := os.Executable()
	if err != nil {
		return Process{}, fmt.Errorf("resolve executable: %w", err)
	}

	u, err := user.Current()
	if err != nil {
		return Process{}, fmt.Errorf("resolve current user: %w", err)
	}

	sid, err := unix.Getsid(0)
	if err != nil {
		return Process{}, fmt.Errorf("resolve session: %w", err)
	}

	return Process{
		PID:        os.Getpid(),
		Executable: filepath.Base(exe),
		OwnerUID:   u.Uid,
		SessionID:  sid,
	}, nil
}

// SameOwner reports whether both processes were launched by the same
// security principal.
func (p Process) SameOwner(other Process) bool {
	return p.OwnerUID == other.OwnerUID
}

// SameSession reports whether both processes belong to the same login session.
func (p Process) SameSession(other Process) bool {
	return p.SessionID == other.SessionID
}

// String returns a compact human-readable form used in logs.
func (p Process) String() string {
	return fmt.Sprintf("%s[pid=%d uid=%s sid=%d]", p.Executable, p.PID, p.OwnerUID, p.SessionID)
}
