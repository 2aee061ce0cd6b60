// Package utils provides small interactive helpers for the CLI.
package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm writes msg to w and reads a y/n answer from r. Anything other
// than y or yes, including EOF on a non-interactive stdin, is a no.
func Confirm(r io.Reader, w io.Writer, msg string) bool {
	_, _ = fmt.Fprintf(w, "%s [y/N]: ", msg)
	line, _ := bufio.NewReader(r).ReadString('\n')
	resp := strings.TrimSpace(strings.ToLower(line))
	return resp == "y" || resp == "yes"
}
