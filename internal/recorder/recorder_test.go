package recorder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/VoxDroid/mstpkit/internal/config"
)

func TestRecordCommands_IgnoresBlankAndComments(t *testing.T) {
	input := "# comment line\necho one\n\n# another comment\necho two  \n"
	cmds, err := RecordCommands(strings.NewReader(input))
	if err != nil {
		t.Fatalf("RecordCommands: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if cmds[0] != "echo one" || cmds[1] != "echo two" {
		t.Fatalf("unexpected commands: %+v", cmds)
	}
}

func TestRecordCommands_StopsOnCtrlZAlone(t *testing.T) {
	// Ctrl+Z alone should be treated as EOF
	cmds, err := RecordCommands(strings.NewReader("\x1A"))
	if err != nil {
		t.Fatalf("RecordCommands ctrl+Z: %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("expected 0 commands, got %d", len(cmds))
	}
}

func TestRecordCommands_StopsOnCtrlZMidInput(t *testing.T) {
	// Data after Ctrl+Z should be ignored
	input := "echo before\x1Aecho after\n"
	cmds, err := RecordCommands(strings.NewReader(input))
	if err != nil {
		t.Fatalf("RecordCommands ctrl+Z mid: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if cmds[0] != "echo before" {
		t.Fatalf("unexpected command: %+v", cmds)
	}
}

func TestRecordCommands_StopsOnCaretZAlone(t *testing.T) {
	// '^Z' on its own (as typed in some consoles) should be treated as EOF
	cmds, err := RecordCommands(strings.NewReader("^Z\n"))
	if err != nil {
		t.Fatalf("RecordCommands ^Z: %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("expected 0 commands, got %d", len(cmds))
	}
}

func TestRecordCommands_StopsOnCaretZMidInput(t *testing.T) {
	// Data after '^Z' within a line should be ignored
	input := "echo before^Zecho after\n"
	cmds, err := RecordCommands(strings.NewReader(input))
	if err != nil {
		t.Fatalf("RecordCommands ^Z mid: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if cmds[0] != "echo before" {
		t.Fatalf("unexpected command: %+v", cmds)
	}
}

func TestRecordCommands_StopsOnSentinelAlone(t *testing.T) {
	cmds, err := RecordCommands(strings.NewReader(":end\n"))
	if err != nil {
		t.Fatalf("RecordCommands sentinel :end: %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("expected 0 commands, got %d", len(cmds))
	}
}

func TestRecordCommands_StopsOnSentinelAliases(t *testing.T) {
	for _, s := range []string{":save\n", ":quit\n", "  :end  \n"} {
		cmds, err := RecordCommands(strings.NewReader(s))
		if err != nil {
			t.Fatalf("RecordCommands sentinel alias %s: %v", s, err)
		}
		if len(cmds) != 0 {
			t.Fatalf("expected 0 commands for %s, got %d", s, len(cmds))
		}
	}
}

func TestRecordCommands_SentinelStopsMidStream(t *testing.T) {
	input := "echo one\n:end\necho two\n"
	cmds, err := RecordCommands(strings.NewReader(input))
	if err != nil {
		t.Fatalf("RecordCommands sentinel mid: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if cmds[0] != "echo one" {
		t.Fatalf("unexpected commands: %+v", cmds)
	}
}

func TestRecordCommands_SentinelNotMatchedWithExtraText(t *testing.T) {
	input := "echo :end something\n"
	cmds, err := RecordCommands(strings.NewReader(input))
	if err != nil {
		t.Fatalf("RecordCommands sentinel extra: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if cmds[0] != "echo :end something" {
		t.Fatalf("unexpected command: %+v", cmds)
	}
}

func TestSaveRecordedCreatesProjectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mstpkit.yaml")
	pc, err := SaveRecorded(path, "flash", "flash the gateway", []string{"echo one", "echo two"})
	if err != nil {
		t.Fatalf("SaveRecorded: %v", err)
	}
	if len(pc.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(pc.Steps))
	}
	cfg, err := config.LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	got := cfg.Pipeline("flash")
	if got == nil || got.Steps[1].Run != "echo two" || got.Description != "flash the gateway" {
		t.Fatalf("unexpected saved pipeline: %+v", got)
	}
	if cfg.Snap.Arch != "arm64" {
		t.Fatalf("defaults not preserved: %+v", cfg.Snap)
	}
}

func TestSaveRecordedAppendsAndRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mstpkit.yaml")
	if _, err := SaveRecorded(path, "one", "", []string{"echo 1"}); err != nil {
		t.Fatalf("SaveRecorded: %v", err)
	}
	if _, err := SaveRecorded(path, "two", "", []string{"echo 2"}); err != nil {
		t.Fatalf("SaveRecorded: %v", err)
	}
	if _, err := SaveRecorded(path, "one", "", []string{"echo again"}); err == nil {
		t.Fatalf("expected duplicate pipeline error")
	}
	if _, err := SaveRecorded(path, "snap", "", []string{"echo x"}); err == nil {
		t.Fatalf("expected reserved name error")
	}
	if _, err := SaveRecorded(path, "empty", "", nil); err == nil {
		t.Fatalf("expected error for no commands")
	}
	cfg, err := config.LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if len(cfg.Pipelines) != 2 {
		t.Fatalf("expected 2 pipelines, got %d", len(cfg.Pipelines))
	}
}

func TestSaveRecordedIgnoresEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mstpkit.yaml")
	if err := os.WriteFile(path, []byte("snap:\n  arch: amd64\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvSnapArch, "riscv64")
	t.Setenv(config.EnvLogFile, "/tmp/one-off.log")

	if _, err := SaveRecorded(path, "flash", "", []string{"echo one"}); err != nil {
		t.Fatalf("SaveRecorded: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	saved := string(b)
	if strings.Contains(saved, "riscv64") || strings.Contains(saved, "one-off.log") {
		t.Fatalf("environment overrides written to project file:\n%s", saved)
	}
	if !strings.Contains(saved, "arch: amd64") {
		t.Fatalf("file arch lost:\n%s", saved)
	}
}
