package security

import (
	"strings"
	"testing"
)

func TestCheckAllowed(t *testing.T) {
	bad := []string{
		"rm -rf /",
		"rm -rf / --no-preserve-root",
		"rm -fr /*",
		"rm -rf $SNAP_COMMON",
		"rm -rf ${SNAP_DATA}/",
		"mkfs.ext4 /dev/sda",
		"dd if=/dev/zero of=/dev/sda bs=4096",
		":(){ :|:& };:",
		"wipefs -a /dev/sda",
		"sudo snap remove ctrlx-bacnet-mstp",
		"apt-get purge python3",
		"cat /dev/urandom > /dev/ttyUSB0",
	}
	for _, s := range bad {
		if err := CheckAllowed(s); err == nil {
			t.Fatalf("expected %q to be blocked", s)
		}
	}

	good := []string{
		"echo hello",
		"snapcraft clean",
		"snapcraft --build-for=arm64",
		"venv/bin/pip install -e provider-source",
		"rm -rf build/",
		"rm -rf $SNAP_COMMON/tmp",
		"stty -F /dev/ttyUSB0 38400",
	}
	for _, s := range good {
		if err := CheckAllowed(s); err != nil {
			t.Fatalf("expected %q to be allowed: %v", s, err)
		}
	}
}

func TestCheckAllowedNamesRule(t *testing.T) {
	err := CheckAllowed("snap remove foo")
	if err == nil || !strings.Contains(err.Error(), "remove snap") {
		t.Fatalf("expected rule name in error, got %v", err)
	}
	if err := CheckAllowed("   "); err == nil {
		t.Fatalf("expected error for empty command")
	}
}
