package mstpenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseINIColonDelimitersAndAliases(t *testing.T) {
	cfg, err := ParseINI([]byte(`
[BACpypes]
objectName: Betelgeuse
address: 25
interface: /dev/ttyS0
max_masters: 64
maxinfo: 3
baudrate: 19200
objectIdentifier: 599001
vendorIdentifier: 15
`))
	require.NoError(t, err)
	assert.Equal(t, Env{Iface: "/dev/ttyS0", Baud: 19200, MAC: 25, MaxInfoFrames: 3, MaxMaster: 64}, cfg.Env)
	assert.Equal(t, "Betelgeuse", cfg.Device.ObjectName)
	assert.Equal(t, 599001, cfg.Device.ObjectIdentifier)
	assert.Equal(t, 1024, cfg.Device.MaxAPDULength)
	assert.Equal(t, "noSegmentation", cfg.Device.Segmentation)
	assert.Equal(t, "/tmp", cfg.MSTPDir)
}

func TestParseINISeparateSectionsAndDefaults(t *testing.T) {
	cfg, err := ParseINI([]byte(`
[mstp]
_address = 7
_interface = /dev/ttyUSB1
_mstp_dir = /run/mstp

[device]
device_id = 42
`))
	require.NoError(t, err)
	assert.Equal(t, DefaultBaud, cfg.Env.Baud)
	assert.Equal(t, DefaultMaxMaster, cfg.Env.MaxMaster)
	assert.Equal(t, DefaultMaxInfoFrames, cfg.Env.MaxInfoFrames)
	assert.Equal(t, 7, cfg.Env.MAC)
	assert.Equal(t, "/run/mstp", cfg.MSTPDir)
	assert.Equal(t, 42, cfg.Device.ObjectIdentifier)
	assert.Equal(t, "MSTP-Client", cfg.Device.ObjectName)
	assert.Equal(t, 15, cfg.Device.VendorIdentifier)
}

func TestParseINIErrors(t *testing.T) {
	_, err := ParseINI([]byte("[other]\nkey=1\n"))
	assert.Error(t, err)

	_, err = ParseINI([]byte("[mstp]\naddress=1\n"))
	assert.Error(t, err)

	_, err = ParseINI([]byte("[mstp]\naddress=one\ninterface=/dev/ttyS0\n"))
	assert.Error(t, err)
}

func TestLoadINIFromFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bc.ini")
	require.NoError(t, os.WriteFile(p, []byte("[MSTP]\naddress=3\ninterface=/dev/ttyS3\n"), 0o644))

	cfg, err := LoadINI(p)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyS3", cfg.Env.Iface)

	_, err = LoadINI(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

func TestParseINIKeysIgnoreCase(t *testing.T) {
	cfg, err := ParseINI([]byte(`
[mstp]
Address: 5
Interface: /dev/ttyS0
BaudRate: 76800

[device]
objectname: Plant
vendoridentifier: 7
ObjectIdentifier: 1200
`))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Env.MAC)
	assert.Equal(t, "/dev/ttyS0", cfg.Env.Iface)
	assert.Equal(t, 76800, cfg.Env.Baud)
	assert.Equal(t, "Plant", cfg.Device.ObjectName)
	assert.Equal(t, 7, cfg.Device.VendorIdentifier)
	assert.Equal(t, 1200, cfg.Device.ObjectIdentifier)
}
