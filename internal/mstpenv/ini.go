package mstpenv

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/ini.v1"
)

// Device is the local BACnet device identity from the [device] section.
type Device struct {
	ObjectName       string
	ObjectIdentifier int
	MaxAPDULength    int
	Segmentation     string
	VendorIdentifier int
}

// INIConfig is everything LoadINI extracts from bc.ini.
type INIConfig struct {
	Env     Env
	Device  Device
	MSTPDir string
}

// Option names are case-insensitive; section names are not.
var iniOptions = ini.LoadOptions{KeyValueDelimiters: "=:", InsensitiveKeys: true}

var (
	mstpSections   = []string{"mstp", "MSTP", "BACpypes"}
	deviceSections = []string{"device", "Device", "BACpypes"}
)

// LoadINI reads a bc.ini file. Keys may be separated by '=' or ':' and
// several historical spellings are accepted for each key.
func LoadINI(path string) (*INIConfig, error) {
	f, err := ini.LoadSources(iniOptions, path)
	if err != nil {
		return nil, eris.Wrapf(err, "could not read ini file %s", path)
	}
	return parseINI(f)
}

// ParseINI is LoadINI over in-memory data.
func ParseINI(data []byte) (*INIConfig, error) {
	f, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return nil, eris.Wrap(err, "could not parse ini data")
	}
	return parseINI(f)
}

func parseINI(f *ini.File) (*INIConfig, error) {
	mstp := firstSection(f, mstpSections...)
	if mstp == nil {
		return nil, eris.New("no [mstp]/[MSTP]/[BACpypes] section found for MS/TP settings")
	}
	dev := firstSection(f, deviceSections...)

	cfg := &INIConfig{}
	var err error

	iface := opt(mstp, "_interface", "interface", "port", "serial_port")
	addr := opt(mstp, "_address", "address", "mstp_address")
	if iface == "" || addr == "" {
		return nil, eris.New("missing 'address' or 'interface' in the MS/TP section")
	}
	cfg.Env.Iface = iface
	if cfg.Env.MAC, err = atoi(addr, "address"); err != nil {
		return nil, err
	}
	if cfg.Env.Baud, err = optInt(mstp, DefaultBaud, "_baudrate", "baudrate", "baud"); err != nil {
		return nil, err
	}
	if cfg.Env.MaxMaster, err = optInt(mstp, DefaultMaxMaster, "_max_masters", "max_masters", "maxmasters"); err != nil {
		return nil, err
	}
	if cfg.Env.MaxInfoFrames, err = optInt(mstp, DefaultMaxInfoFrames, "_maxinfo", "max_info_frames", "maxinfo", "maxinfoframes"); err != nil {
		return nil, err
	}
	cfg.MSTPDir = opt(mstp, "_mstp_dir", "mstp_dir", "mstp_directory")
	if cfg.MSTPDir == "" {
		cfg.MSTPDir = "/tmp"
	}

	cfg.Device.ObjectName = opt(dev, "objectName", "object_name")
	if cfg.Device.ObjectName == "" {
		cfg.Device.ObjectName = "MSTP-Client"
	}
	if cfg.Device.ObjectIdentifier, err = optInt(dev, 599, "objectIdentifier", "device_id"); err != nil {
		return nil, err
	}
	if cfg.Device.MaxAPDULength, err = optInt(dev, 1024, "maxApduLengthAccepted", "max_apdu"); err != nil {
		return nil, err
	}
	cfg.Device.Segmentation = opt(dev, "segmentationSupported", "segmentation")
	if cfg.Device.Segmentation == "" {
		cfg.Device.Segmentation = "noSegmentation"
	}
	if cfg.Device.VendorIdentifier, err = optInt(dev, 15, "vendorIdentifier", "vendor_id"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstSection(f *ini.File, names ...string) *ini.Section {
	for _, n := range names {
		if s, err := f.GetSection(n); err == nil {
			return s
		}
	}
	return nil
}

func opt(sec *ini.Section, keys ...string) string {
	if sec == nil {
		return ""
	}
	for _, k := range keys {
		k = strings.ToLower(k)
		if sec.HasKey(k) {
			return strings.TrimSpace(sec.Key(k).String())
		}
	}
	return ""
}

func optInt(sec *ini.Section, def int, keys ...string) (int, error) {
	v := opt(sec, keys...)
	if v == "" {
		return def, nil
	}
	return atoi(v, keys[len(keys)-1])
}

func atoi(v, name string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, eris.Wrapf(err, "ini key %s: not an integer: %q", name, v)
	}
	return n, nil
}
