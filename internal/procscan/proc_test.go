package procscan

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// writeProcEntry fabricates a minimal proc entry for one process.
func writeProcEntry(t *testing.T, root string, pid int, comm string, uid string, sid int) {
	t.Helper()

	dir := filepath.Join(root, strconv.Itoa(pid))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir proc entry: %v", err)
	}

	writeFile(t, filepath.Join(dir, "comm"), comm+"\n")
	stat := fmt.Sprintf("%d (%s) S 1 %d %d 0 -1 4194560 100 0 0 0", pid, comm, pid, sid)
	writeFile(t, filepath.Join(dir, "stat"), stat)
	status := fmt.Sprintf("Name:\t%s\nUid:\t%s\t%s\t%s\t%s\nGid:\t%s\t%s\t%s\t%s\n",
		comm, uid, uid, uid, uid, uid, uid, uid, uid)
	writeFile(t, filepath.Join(dir, "status"), status)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestProcLister_Snapshot(t *testing.T) {
	root := t.TempDir()
	writeProcEntry(t, root, 100, "keywarden", "1000", 5)
	writeProcEntry(t, root, 200, "keywarden", "1000", 5)
	writeProcEntry(t, root, 300, "keywarden", "1001", 7)
	writeProcEntry(t, root, 400, "otherapp", "1000", 5)

	// Non-process entries in the proc root must be skipped.
	if err := os.MkdirAll(filepath.Join(root, "sys"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	l := newProcListerAt(root)
	procs, err := l.Snapshot("keywarden", 100)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if len(procs) != 2 {
		t.Fatalf("expected 2 processes, got %d", len(procs))
	}

	byPID := map[int]bool{}
	for _, p := range procs {
		byPID[p.PID] = true
		if p.Executable != "keywarden" {
			t.Errorf("Executable = %q, want %q", p.Executable, "keywarden")
		}
	}
	if byPID[100] {
		t.Error("Snapshot included the excluded PID")
	}
	if !byPID[200] || !byPID[300] {
		t.Errorf("Snapshot missing expected PIDs, got %v", byPID)
	}
}

func TestProcLister_Snapshot_FieldParsing(t *testing.T) {
	root := t.TempDir()
	writeProcEntry(t, root, 200, "keywarden", "1042", 17)

	l := newProcListerAt(root)
	procs, err := l.Snapshot("keywarden", 100)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(procs) != 1 {
		t.Fatalf("expected 1 process, got %d", len(procs))
	}

	p := procs[0]
	if p.OwnerUID != "1042" {
		t.Errorf("OwnerUID = %q, want %q", p.OwnerUID, "1042")
	}
	if p.SessionID != 17 {
		t.Errorf("SessionID = %d, want %d", p.SessionID, 17)
	}
}

func TestProcLister_Snapshot_CommWithParens(t *testing.T) {
	root := t.TempDir()

	// A comm containing ") S 1 2" must not confuse stat parsing; fields are
	// counted from the last closing parenthesis.
	dir := filepath.Join(root, "200")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "comm"), "key) S 1 2\n")
	writeFile(t, filepath.Join(dir, "stat"), "200 (key) S 1 2) S 1 200 33 0 -1")
	writeFile(t, filepath.Join(dir, "status"), "Uid:\t1000\t1000\t1000\t1000\n")

	l := newProcListerAt(root)
	procs, err := l.Snapshot("key) S 1 2", 100)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(procs) != 1 {
		t.Fatalf("expected 1 process, got %d", len(procs))
	}
	if procs[0].SessionID != 33 {
		t.Errorf("SessionID = %d, want %d", procs[0].SessionID, 33)
	}
}

func TestProcLister_Snapshot_SkipsUnreadableEntries(t *testing.T) {
	root := t.TempDir()
	writeProcEntry(t, root, 200, "keywarden", "1000", 5)

	// Entry with a missing status file: skipped, not fatal.
	dir := filepath.Join(root, "300")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "comm"), "keywarden\n")

	l := newProcListerAt(root)
	procs, err := l.Snapshot("keywarden", 100)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(procs) != 1 {
		t.Fatalf("expected 1 process, got %d", len(procs))
	}
	if procs[0].PID != 200 {
		t.Errorf("PID = %d, want 200", procs[0].PID)
	}
}

func TestProcLister_Snapshot_MissingRoot(t *testing.T) {
	l := newProcListerAt(filepath.Join(t.TempDir(), "nope"))
	if _, err := l.Snapshot("keywarden", 100); err == nil {
		t.Error("expected error for missing proc root, got nil")
	}
}
