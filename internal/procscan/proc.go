package procscan

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/keywarden/keywarden/internal/identity"
)

// procRoot is the default mount point of the proc filesystem.
const procRoot = "/proc"

// Lister enumerates running processes that share a given executable name.
// The production implementation walks the proc filesystem; tests substitute
// synthetic process lists.
type Lister interface {
	// Snapshot returns identity snapshots of every running process whose
	// executable matches the given name, excluding the given PID. The order
	// of the returned slice is the enumeration order applied by Classify.
	Snapshot(executable string, excludePID int) ([]identity.Process, error)
}

// ProcLister enumerates processes by reading the proc filesystem.
type ProcLister struct {
	root string
}

// NewProcLister returns a Lister backed by /proc.
func NewProcLister() *ProcLister {
	return &ProcLister{root: procRoot}
}

// newProcListerAt returns a Lister rooted at an arbitrary directory.
// Used by tests with a fabricated proc tree.
func newProcListerAt(root string) *ProcLister {
	return &ProcLister{root: root}
}

// Snapshot implements Lister. Candidates that disappear or are unreadable
// mid-scan are skipped rather than failing the whole enumeration.
func (l *ProcLister) Snapshot(executable string, excludePID int) ([]identity.Process, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("read proc root: %w", err)
	}

	var procs []identity.Process
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid == excludePID {
			continue
		}

		p, err := l.read(pid)
		if err != nil {
			continue
		}
		if p.Executable != executable {
			continue
		}
		procs = append(procs, p)
	}
	return procs, nil
}

// read assembles an identity snapshot for a single PID from its proc entries.
func (l *ProcLister) read(pid int) (identity.Process, error) {
	dir := filepath.Join(l.root, strconv.Itoa(pid))

	comm, err := os.ReadFile(filepath.Join(dir, "comm"))
	if err != nil {
		return identity.Process{}, err
	}

	sid, err := l.readSessionID(filepath.Join(dir, "stat"))
	if err != nil {
		return identity.Process{}, err
	}

	uid, err := l.readOwnerUID(filepath.Join(dir, "status"))
	if err != nil {
		return identity.Process{}, err
	}

	return identity.Process{
		PID:        pid,
		Executable: strings.TrimSpace(string(comm)),
		OwnerUID:   uid,
		SessionID:  sid,
	}, nil
}

// readSessionID extracts the session ID from a proc stat file. The comm
// field may contain spaces and parentheses, so fields are counted from the
// last closing parenthesis: state, ppid, pgrp, session.
func (l *ProcLister) readSessionID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	idx := bytes.LastIndexByte(data, ')')
	if idx < 0 || idx+1 >= len(data) {
		return 0, fmt.Errorf("malformed stat file %s", path)
	}

	fields := strings.Fields(string(data[idx+1:]))
	if len(fields) < 4 {
		return 0, fmt.Errorf("malformed stat file %s", path)
	}

	sid, err := strconv.Atoi(fields[3])
	if err != nil {
		return 0, fmt.Errorf("parse session id: %w", err)
	}
	return sid, nil
}

// readOwnerUID extracts the real UID from a proc status file.
func (l *ProcLister) readOwnerUID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "Uid:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		return fields[1], nil
	}
	return "", fmt.Errorf("no Uid line in %s", path)
}
