// Package mstpenv models the environment consumed by the BACnet MS/TP
// stack: serial interface, baud rate, station address and token-passing
// limits.
package mstpenv

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/rotisserie/eris"
)

// Variable names read by the MS/TP data link.
const (
	KeyIface         = "BACNET_IFACE"
	KeyBaud          = "BACNET_MSTP_BAUD"
	KeyMAC           = "BACNET_MSTP_MAC"
	KeyMaxInfoFrames = "BACNET_MAX_INFO_FRAMES"
	KeyMaxMaster     = "BACNET_MAX_MASTER"
)

// Keys lists every variable in export order.
var Keys = []string{KeyIface, KeyBaud, KeyMAC, KeyMaxInfoFrames, KeyMaxMaster}

// Literal defaults.
const (
	DefaultIface         = "/dev/ttyUSB0"
	DefaultBaud          = 38400
	DefaultMAC           = 127
	DefaultMaxInfoFrames = 1
	DefaultMaxMaster     = 127

	// MaxMAC is the highest master station address on an MS/TP segment.
	MaxMAC = 127
)

// SupportedBauds are the rates allowed for MS/TP.
var SupportedBauds = []int{9600, 19200, 38400, 57600, 76800, 115200}

// Env is the MS/TP configuration handed to the stack.
type Env struct {
	Iface         string `json:"iface"`
	Baud          int    `json:"baud"`
	MAC           int    `json:"mac"`
	MaxInfoFrames int    `json:"max_info_frames"`
	MaxMaster     int    `json:"max_master"`
}

// Pair is a single environment assignment.
type Pair struct {
	Key   string
	Value string
}

// Defaults returns the literal defaults.
func Defaults() Env {
	return Env{
		Iface:         DefaultIface,
		Baud:          DefaultBaud,
		MAC:           DefaultMAC,
		MaxInfoFrames: DefaultMaxInfoFrames,
		MaxMaster:     DefaultMaxMaster,
	}
}

// Pairs returns all five assignments in Keys order.
func (e Env) Pairs() []Pair {
	return []Pair{
		{KeyIface, e.Iface},
		{KeyBaud, strconv.Itoa(e.Baud)},
		{KeyMAC, strconv.Itoa(e.MAC)},
		{KeyMaxInfoFrames, strconv.Itoa(e.MaxInfoFrames)},
		{KeyMaxMaster, strconv.Itoa(e.MaxMaster)},
	}
}

// Apply sets every variable through setenv, whatever the variable held
// before.
func (e Env) Apply(setenv func(key, value string) error) error {
	for _, p := range e.Pairs() {
		if err := setenv(p.Key, p.Value); err != nil {
			return eris.Wrapf(err, "set %s", p.Key)
		}
	}
	return nil
}

// Export writes one POSIX `export` line per variable, suitable for eval.
func (e Env) Export(w io.Writer) error {
	for _, p := range e.Pairs() {
		if _, err := fmt.Fprintf(w, "export %s=%s\n", p.Key, shellquote.Join(p.Value)); err != nil {
			return err
		}
	}
	return nil
}

// Environ returns base with the MS/TP variables replaced by e's values.
func (e Env) Environ(base []string) []string {
	out := make([]string, 0, len(base)+len(Keys))
	for _, kv := range base {
		if isKey(kv) {
			continue
		}
		out = append(out, kv)
	}
	for _, p := range e.Pairs() {
		out = append(out, p.Key+"="+p.Value)
	}
	return out
}

func isKey(kv string) bool {
	for _, k := range Keys {
		if strings.HasPrefix(kv, k+"=") {
			return true
		}
	}
	return false
}

// FromLookup overlays values found through lookup (e.g. os.LookupEnv) on
// the defaults. Empty values count as unset.
func FromLookup(lookup func(string) (string, bool)) (Env, error) {
	return Defaults().Overlay(lookup)
}

// Overlay returns e with every variable lookup finds replaced.
func (e Env) Overlay(lookup func(string) (string, bool)) (Env, error) {
	if v, ok := lookup(KeyIface); ok && strings.TrimSpace(v) != "" {
		e.Iface = strings.TrimSpace(v)
	}
	ints := []struct {
		key string
		dst *int
	}{
		{KeyBaud, &e.Baud},
		{KeyMAC, &e.MAC},
		{KeyMaxInfoFrames, &e.MaxInfoFrames},
		{KeyMaxMaster, &e.MaxMaster},
	}
	for _, f := range ints {
		v, ok := lookup(f.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return e, eris.Wrapf(err, "%s: not an integer: %q", f.key, v)
		}
		*f.dst = n
	}
	return e, nil
}

// FromMap is FromLookup over a map.
func FromMap(m map[string]string) (Env, error) {
	return FromLookup(MapLookup(m))
}

// MapLookup adapts a map to the lookup signature.
func MapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// Validate checks the values against MS/TP limits.
func (e Env) Validate() error {
	if strings.TrimSpace(e.Iface) == "" {
		return eris.Errorf("%s: interface cannot be empty", KeyIface)
	}
	if !supportedBaud(e.Baud) {
		return eris.Errorf("%s: unsupported baud rate %d (want one of %v)", KeyBaud, e.Baud, SupportedBauds)
	}
	if e.MAC < 0 || e.MAC > MaxMAC {
		return eris.Errorf("%s: address %d out of range 0-%d", KeyMAC, e.MAC, MaxMAC)
	}
	if e.MaxMaster < 1 || e.MaxMaster > MaxMAC {
		return eris.Errorf("%s: %d out of range 1-%d", KeyMaxMaster, e.MaxMaster, MaxMAC)
	}
	if e.MAC > e.MaxMaster {
		return eris.Errorf("%s: address %d is above %s=%d and would never receive the token", KeyMAC, e.MAC, KeyMaxMaster, e.MaxMaster)
	}
	if e.MaxInfoFrames < 1 || e.MaxInfoFrames > 255 {
		return eris.Errorf("%s: %d out of range 1-255", KeyMaxInfoFrames, e.MaxInfoFrames)
	}
	return nil
}

func supportedBaud(b int) bool {
	for _, s := range SupportedBauds {
		if s == b {
			return true
		}
	}
	return false
}
