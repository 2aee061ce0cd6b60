// Package serialport checks that the MS/TP serial interface can be opened
// and optionally listens for token-passing traffic on it.
package serialport

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.bug.st/serial"
)

// Probe failure kinds.
var (
	ErrNotFound   = eris.New("serial port not found")
	ErrBusy       = eris.New("serial port busy")
	ErrPermission = eris.New("permission denied on serial port")
)

// Port is the subset of serial.Port a probe needs.
type Port interface {
	io.ReadCloser
	SetReadTimeout(t time.Duration) error
}

// Opener opens a named port with the given mode.
type Opener func(name string, mode *serial.Mode) (Port, error)

// OpenSerial opens a real device through go.bug.st/serial.
func OpenSerial(name string, mode *serial.Mode) (Port, error) {
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Result describes a successful probe.
type Result struct {
	Iface     string
	Options   PortOptions
	Listened  time.Duration
	BytesRead int
	// Preambles counts MS/TP frame preambles (0x55 0xFF) seen while listening.
	Preambles int
}

// Probe opens iface with opts, listens for up to listen (zero skips
// listening) and closes the port.
func Probe(open Opener, iface string, opts PortOptions, listen time.Duration) (*Result, error) {
	if iface == "" {
		return nil, eris.New("no serial interface configured")
	}
	norm, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	mode, err := norm.SerialMode()
	if err != nil {
		return nil, err
	}
	if open == nil {
		open = OpenSerial
	}
	p, err := open(iface, mode)
	if err != nil {
		return nil, mapOpenError(iface, err)
	}
	res := &Result{Iface: iface, Options: norm}
	if listen > 0 {
		if err := sniff(p, listen, res); err != nil {
			_ = p.Close()
			return nil, eris.Wrapf(err, "read %s", iface)
		}
	}
	if err := p.Close(); err != nil {
		return nil, eris.Wrapf(err, "close %s", iface)
	}
	return res, nil
}

func sniff(p Port, window time.Duration, res *Result) error {
	if err := p.SetReadTimeout(100 * time.Millisecond); err != nil {
		return err
	}
	start := time.Now()
	buf := make([]byte, 256)
	var prev byte
	for time.Since(start) < window {
		n, err := p.Read(buf)
		if err != nil && err != io.EOF {
			return err
		}
		for _, b := range buf[:n] {
			if prev == 0x55 && b == 0xFF {
				res.Preambles++
			}
			prev = b
		}
		res.BytesRead += n
		if err == io.EOF {
			break
		}
	}
	res.Listened = time.Since(start)
	return nil
}

func mapOpenError(iface string, err error) error {
	var pe *serial.PortError
	if errors.As(err, &pe) {
		switch pe.Code() {
		case serial.PortNotFound:
			return eris.Wrapf(ErrNotFound, "%s", iface)
		case serial.PortBusy:
			return eris.Wrapf(ErrBusy, "%s", iface)
		case serial.PermissionDenied:
			return eris.Wrapf(ErrPermission, "%s", iface)
		}
	}
	switch {
	case os.IsNotExist(err):
		return eris.Wrapf(ErrNotFound, "%s", iface)
	case os.IsPermission(err):
		return eris.Wrapf(ErrPermission, "%s", iface)
	}
	return eris.Wrapf(err, "open %s", iface)
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, eris.Wrap(err, "list serial ports")
	}
	return ports, nil
}
