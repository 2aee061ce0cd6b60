package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvHome overrides the data directory (defaults to ~/.mstpkit).
	EnvHome = "MSTPKIT_HOME"
	// EnvDB overrides the history database path.
	EnvDB = "MSTPKIT_DB"
	// EnvSnapCommon is set by snapd for the writable, revision-independent
	// snap data directory.
	EnvSnapCommon = "SNAP_COMMON"

	// DefaultSnapCommon is used when SNAP_COMMON is not set.
	DefaultSnapCommon = "/var/snap/ctrlx-bacnet-mstp/common"
)

// DataDir returns the directory used to store mstpkit data.
func DataDir() (string, error) {
	if v := os.Getenv(EnvHome); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mstpkit"), nil
}

// EnsureDataDir returns DataDir after creating it.
func EnsureDataDir() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(d, 0o755); err != nil {
		return "", err
	}
	return d, nil
}

// DBPath returns the full path to the SQLite history database.
func DBPath() (string, error) {
	if v := os.Getenv(EnvDB); v != "" {
		return v, nil
	}
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "mstpkit.db"), nil
}

// SnapCommon returns the writable runtime directory of the snap.
func SnapCommon() string {
	if v := os.Getenv(EnvSnapCommon); v != "" {
		return v
	}
	return DefaultSnapCommon
}

// ActiveConfigDir is where the provider reads bc.ini and bacnet_defines.json
// from at runtime.
func ActiveConfigDir(snapCommon string) string {
	if snapCommon == "" {
		snapCommon = SnapCommon()
	}
	return filepath.Join(snapCommon, "solutions", "activeConfiguration", "BACnet")
}
