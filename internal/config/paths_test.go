package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDataDirEnvOverride(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv(EnvHome, tmp)

	d, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir(): %v", err)
	}
	if d != tmp {
		t.Fatalf("expected %s got %s", tmp, d)
	}
}

func TestDBPathEnvOverride(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "custom.db")
	t.Setenv(EnvDB, tmp)

	p, err := DBPath()
	if err != nil {
		t.Fatalf("DBPath(): %v", err)
	}
	if p != tmp {
		t.Fatalf("expected %s got %s", tmp, p)
	}
}

func TestDBPathDefaultsUnderDataDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv(EnvHome, tmp)
	t.Setenv(EnvDB, "")

	p, err := DBPath()
	if err != nil {
		t.Fatalf("DBPath(): %v", err)
	}
	if p != filepath.Join(tmp, "mstpkit.db") {
		t.Fatalf("unexpected db path %s", p)
	}
}

func TestEnsureDataDirCreatesDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv(EnvHome, "")
	t.Setenv("HOME", tmp)
	t.Setenv("USERPROFILE", tmp)

	d, err := EnsureDataDir()
	if err != nil {
		t.Fatalf("EnsureDataDir(): %v", err)
	}
	if _, err := os.Stat(d); err != nil {
		t.Fatalf("expected dir %s to exist: %v", d, err)
	}
}

func TestActiveConfigDir(t *testing.T) {
	got := ActiveConfigDir("/srv/common")
	want := filepath.Join("/srv/common", "solutions", "activeConfiguration", "BACnet")
	if got != want {
		t.Fatalf("expected %s got %s", want, got)
	}

	t.Setenv(EnvSnapCommon, "/tmp/snapcommon")
	if got := ActiveConfigDir(""); got != filepath.Join("/tmp/snapcommon", "solutions", "activeConfiguration", "BACnet") {
		t.Fatalf("SNAP_COMMON not honoured: %s", got)
	}
}
