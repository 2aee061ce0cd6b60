package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// ConsoleWriter renders zerolog JSON events as single colored lines.
type ConsoleWriter struct {
	out    io.Writer
	buffer strings.Builder
	lock   sync.Mutex
	colors colorstring.Colorize
}

// NewConsoleWriter returns a ConsoleWriter writing to out.
func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	return &ConsoleWriter{
		out: out,
		colors: colorstring.Colorize{
			Colors: colorstring.DefaultColors,
			Reset:  true,
		},
	}
}

// DisableColor strips color codes, e.g. when output is not a terminal.
func (w *ConsoleWriter) DisableColor() {
	w.lock.Lock()
	w.colors.Disable = true
	w.lock.Unlock()
}

var skipFields = map[string]bool{
	"level": true, "message": true, "time": true, "error": true, "pipeline": true, "step": true,
}

func (w *ConsoleWriter) Write(p []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	if err := d.Decode(&evt); err != nil {
		return 0, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	w.buffer.Reset()
	switch evt["level"] {
	case "fatal", "error":
		w.buffer.WriteString("[red]")
	case "warn":
		w.buffer.WriteString("[yellow]")
	case "debug", "trace":
		w.buffer.WriteString("[blue]")
	default:
		w.buffer.WriteString("[green]")
	}

	if pl, ok := evt["pipeline"].(string); ok {
		w.buffer.WriteString(pl)
		if st, ok := evt["step"].(string); ok {
			w.buffer.WriteString("/" + st)
		}
		w.buffer.WriteString(": ")
	}
	if evt["level"] == "error" {
		w.buffer.WriteString("Error: ")
	}
	if msg, ok := evt["message"].(string); ok {
		w.buffer.WriteString(msg)
	}

	keys := make([]string, 0, len(evt))
	for k := range evt {
		if !skipFields[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.buffer.WriteString(fmt.Sprintf(" %s=%v", k, evt[k]))
	}

	if details, ok := evt["error"].(string); ok {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(details)
	}
	w.buffer.WriteString("[reset]\n")

	if _, err := io.WriteString(w.out, w.colors.Color(w.buffer.String())); err != nil {
		return 0, err
	}
	return len(p), nil
}
