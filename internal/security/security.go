// Package security screens project pipeline commands before they run.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is one blocked command pattern.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

var rules = []Rule{
	{"remove root", regexp.MustCompile(`(?i)\brm\s+-(rf|fr)\s+/(\s|$)`)},
	{"remove root", regexp.MustCompile(`(?i)\brm\s+-(rf|fr)\s+/\*`)},
	{"remove snap data", regexp.MustCompile(`(?i)\brm\s+-(rf|fr)\s+\S*\$\{?SNAP_(COMMON|DATA)\}?/?(\s|$)`)},
	{"format filesystem", regexp.MustCompile(`(?i)\bmkfs\b`)},
	{"wipe disk", regexp.MustCompile(`(?i)\bwipefs\b`)},
	{"raw disk write", regexp.MustCompile(`(?i)\bdd\s+.*\bof=/dev/`)},
	{"fork bomb", regexp.MustCompile(`:\(\)\s*\{`)},
	{"remove snap", regexp.MustCompile(`(?i)\bsnap\s+remove\b`)},
	{"remove packages", regexp.MustCompile(`(?i)\b(apt-get|apt|yum|dnf)\s+(remove|purge)\s+`)},
	{"clobber serial device", regexp.MustCompile(`>\s*/dev/tty(S|USB|ACM|AMA)\d+`)},
}

// CheckAllowed returns nil if the command is allowed to run, or an error
// naming the rule that blocked it. Checking is conservative and not
// exhaustive.
func CheckAllowed(command string) error {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return fmt.Errorf("empty command")
	}
	for _, r := range rules {
		if r.Pattern.MatchString(cmd) {
			return fmt.Errorf("command blocked (%s): %q", r.Name, cmd)
		}
	}
	return nil
}
