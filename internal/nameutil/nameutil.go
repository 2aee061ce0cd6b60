// Package nameutil validates pipeline and step names.
package nameutil

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLen is the longest accepted name.
const MaxLen = 64

// ValidateName checks whether name is usable as a pipeline name. Names are
// stored in the history database and typed on the command line, so they are
// restricted to lowercase letters, digits, '.', '_' and '-', and must start
// with a letter or digit.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("invalid name: name cannot be empty")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("invalid name: contains invalid encoding")
	}
	if len(name) > MaxLen {
		return fmt.Errorf("invalid name: longer than %d characters", MaxLen)
	}
	for i, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("invalid name: contains control character U+%04X (%q)", r, r)
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case (r == '.' || r == '_' || r == '-') && i > 0:
		default:
			return fmt.Errorf("invalid name %q: unexpected character %q", name, r)
		}
	}
	return nil
}

// StepName derives a display name from a step command: the base name of
// the program plus its first argument, e.g. "snapcraft clean".
func StepName(fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	prog := fields[0]
	if i := strings.LastIndexAny(prog, `/\`); i >= 0 {
		prog = prog[i+1:]
	}
	if len(fields) > 1 && !strings.HasPrefix(fields[1], "-") {
		return prog + " " + fields[1]
	}
	return prog
}
