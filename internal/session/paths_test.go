package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := Dir("main")
	want := filepath.Join(home, ".boosthub", "sessions", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestDBPath(t *testing.T) {
	got := DBPath("test")
	if !strings.HasSuffix(got, filepath.Join("sessions", "test", "boosthub.db")) {
		t.Errorf("DBPath(test) = %q, want suffix sessions/test/boosthub.db", got)
	}
}

func TestLockPath(t *testing.T) {
	got := LockPath("test")
	if !strings.HasSuffix(got, filepath.Join("sessions", "test", "LOCK")) {
		t.Errorf("LockPath(test) = %q, want suffix sessions/test/LOCK", got)
	}
}

func TestIdentityPath(t *testing.T) {
	got := IdentityPath("test")
	if !strings.HasSuffix(got, filepath.Join("sessions", "test", "identity.json")) {
		t.Errorf("IdentityPath(test) = %q, want suffix sessions/test/identity.json", got)
	}
}

func TestConfigPath(t *testing.T) {
	got := ConfigPath()
	if !strings.HasSuffix(got, filepath.Join(".boosthub", "config.toml")) {
		t.Errorf("ConfigPath() = %q, want suffix .boosthub/config.toml", got)
	}
}
