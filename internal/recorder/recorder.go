// Package recorder captures shell commands typed or piped on stdin and
// stores them as a project pipeline.
package recorder

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/VoxDroid/mstpkit/internal/config"
)

var sentinels = map[string]bool{":end": true, ":save": true, ":quit": true}

// RecordCommands reads lines from r and returns non-empty, non-comment
// lines. Reading stops at EOF, at Ctrl+Z (or a typed "^Z") and at a line
// holding only :end, :save or :quit. Lines starting with '#' are comments.
func RecordCommands(r io.Reader) ([]string, error) {
	s := bufio.NewScanner(r)
	var out []string
	for s.Scan() {
		line := s.Text()
		stop := false
		for _, eof := range []string{"\x1A", "^Z"} {
			if i := strings.Index(line, eof); i >= 0 {
				line, stop = line[:i], true
			}
		}
		line = strings.TrimSpace(line)
		if sentinels[line] {
			break
		}
		if line != "" && !strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
		if stop {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	return out, nil
}

// SaveRecorded adds a pipeline built from commands to the project file at
// path, creating the file from defaults when it does not exist yet.
func SaveRecorded(path, name, description string, commands []string) (*config.PipelineConfig, error) {
	if len(commands) == 0 {
		return nil, fmt.Errorf("no commands recorded")
	}
	cfg := config.DefaultProject()
	if _, err := os.Stat(path); err == nil {
		loaded, err := config.ReadProjectFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	pc := config.PipelineConfig{Name: name, Description: description}
	for _, c := range commands {
		pc.Steps = append(pc.Steps, config.StepConfig{Run: c})
	}
	if err := cfg.AddPipeline(pc); err != nil {
		return nil, err
	}
	if err := config.SaveProject(cfg, path); err != nil {
		return nil, err
	}
	return cfg.Pipeline(name), nil
}
