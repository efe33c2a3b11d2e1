package identity

import (
	"os"
	"testing"
)

func TestCurrent(t *testing.T) {
	p, err := Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}

	if p.PID != os.Getpid() {
		t.Errorf("PID = %d, want %d", p.PID, os.Getpid())
	}
	if p.Executable == "" {
		t.Error("Executable is empty")
	}
	if p.OwnerUID == "" {
		t.Error("OwnerUID is empty")
	}
}

func TestSameOwner(t *testing.T) {
	tests := []struct {
		name string
		a, b Process
		want bool
	}{
		{"same uid", Process{OwnerUID: "1000"}, Process{OwnerUID: "1000"}, true},
		{"different uid", Process{OwnerUID: "1000"}, Process{OwnerUID: "1001"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.SameOwner(tt.b); got != tt.want {
				t.Errorf("SameOwner() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSameSession(t *testing.T) {
	tests := []struct {
		name string
		a, b Process
		want bool
	}{
		{"same session", Process{SessionID: 42}, Process{SessionID: 42}, true},
		{"different session", Process{SessionID: 42}, Process{SessionID: 43}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.SameSession(tt.b); got != tt.want {
				t.Errorf("SameSession() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	p := Process{PID: 7, Executable: "keywarden", OwnerUID: "1000", SessionID: 3}
	want := "keywarden[pid=7 uid=1000 sid=3]"
	if got := p.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
