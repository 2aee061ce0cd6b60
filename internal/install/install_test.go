package install

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func setupHome(t *testing.T) string {
	t.Helper()
	t.Setenv("MSTPKIT_HOME", t.TempDir())
	return t.TempDir()
}

func TestPlanInstallDryRun(t *testing.T) {
	sc := setupHome(t)
	opts := Options{SnapCommon: sc, DryRun: true}
	actions, err := PlanInstall(opts)
	if err != nil {
		t.Fatalf("PlanInstall: %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("expected 3 actions, got %v", actions)
	}
	if !strings.Contains(actions[1], "Copy bundled bc.ini") {
		t.Fatalf("unexpected action: %s", actions[1])
	}
	if _, err := os.Stat(filepath.Join(sc, "solutions")); !os.IsNotExist(err) {
		t.Fatalf("plan must not create directories")
	}
}

func TestExecuteInstallCopiesDefaults(t *testing.T) {
	sc := setupHome(t)
	outcomes, err := ExecuteInstall(Options{SnapCommon: sc})
	if err != nil {
		t.Fatalf("ExecuteInstall: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	dir := filepath.Join(sc, "solutions", "activeConfiguration", "BACnet")
	for _, name := range []string{INIFile, DefinesFile} {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
		want, _ := DefaultContent(name)
		if string(got) != string(want) {
			t.Fatalf("%s content differs from bundled default", name)
		}
	}
	for _, o := range outcomes {
		if !o.Copied {
			t.Fatalf("expected copy for %s", o.Target)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestExecuteInstallIsIdempotent(t *testing.T) {
	sc := setupHome(t)
	dir := filepath.Join(sc, "solutions", "activeConfiguration", "BACnet")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	custom := "[mstp]\naddress: 5\ninterface: /dev/ttyS1\n"
	if err := os.WriteFile(filepath.Join(dir, INIFile), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		outcomes, err := ExecuteInstall(Options{SnapCommon: sc})
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if outcomes[0].Copied {
			t.Fatalf("run %d: existing bc.ini was copied over", i)
		}
		if i > 0 && outcomes[1].Copied {
			t.Fatalf("run %d: defines copied twice", i)
		}
	}
	got, _ := os.ReadFile(filepath.Join(dir, INIFile))
	if string(got) != custom {
		t.Fatalf("existing file overwritten: %q", got)
	}
}

func TestExecuteInstallDryRunCopiesNothing(t *testing.T) {
	sc := setupHome(t)
	outcomes, err := ExecuteInstall(Options{SnapCommon: sc, DryRun: true})
	if err != nil {
		t.Fatalf("ExecuteInstall: %v", err)
	}
	if len(outcomes) != 2 || !outcomes[0].Copied {
		t.Fatalf("expected planned copies, got %+v", outcomes)
	}
	if _, err := os.Stat(filepath.Join(sc, "solutions")); !os.IsNotExist(err) {
		t.Fatalf("dry run must not touch the filesystem")
	}
}

func TestExecuteInstallCustomSource(t *testing.T) {
	sc := setupHome(t)
	src := filepath.Join(t.TempDir(), "site.ini")
	if err := os.WriteFile(src, []byte("[mstp]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outcomes, err := ExecuteInstall(Options{SnapCommon: sc, Files: []File{{Source: src, Target: "site.ini"}}})
	if err != nil {
		t.Fatalf("ExecuteInstall: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Source != src {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
}

func TestExecuteInstallMissingSourceStops(t *testing.T) {
	sc := setupHome(t)
	files := []File{
		{Source: filepath.Join(sc, "missing.ini"), Target: "a.ini"},
		{Target: INIFile},
	}
	outcomes, err := ExecuteInstall(Options{SnapCommon: sc, Files: files})
	if err == nil {
		t.Fatalf("expected error for missing source")
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected no outcomes after first failure, got %+v", outcomes)
	}
	dir := filepath.Join(sc, "solutions", "activeConfiguration", "BACnet")
	if _, err := os.Stat(filepath.Join(dir, INIFile)); !os.IsNotExist(err) {
		t.Fatalf("later files must not be copied after a failure")
	}
}

func TestGetStatus(t *testing.T) {
	sc := setupHome(t)
	st, err := GetStatus(Options{SnapCommon: sc})
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.Installed() || st.MetadataFound {
		t.Fatalf("expected nothing installed: %+v", st)
	}
	if _, err := ExecuteInstall(Options{SnapCommon: sc}); err != nil {
		t.Fatalf("ExecuteInstall: %v", err)
	}
	st, err = GetStatus(Options{SnapCommon: sc})
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !st.Installed() || !st.MetadataFound || st.LastRun == nil {
		t.Fatalf("expected installed with metadata: %+v", st)
	}
	if len(st.LastRun.Outcomes) != 2 {
		t.Fatalf("unexpected metadata: %+v", st.LastRun)
	}
}

func TestSnapCommonFromEnv(t *testing.T) {
	sc := setupHome(t)
	t.Setenv("SNAP_COMMON", sc)
	st, err := GetStatus(Options{})
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !strings.HasPrefix(st.StorageDir, sc) {
		t.Fatalf("expected storage under %s, got %s", sc, st.StorageDir)
	}
}

func TestBundledINIParses(t *testing.T) {
	b, err := DefaultContent(INIFile)
	if err != nil {
		t.Fatalf("DefaultContent: %v", err)
	}
	if !strings.Contains(string(b), "baudrate: 38400") {
		t.Fatalf("unexpected bundled bc.ini: %s", b)
	}
	if _, err := DefaultContent("nope.txt"); err == nil {
		t.Fatalf("expected error for unknown default")
	}
}

func TestGetStatusDoesNotCreateDataDir(t *testing.T) {
	home := filepath.Join(t.TempDir(), "absent")
	t.Setenv("MSTPKIT_HOME", home)
	st, err := GetStatus(Options{SnapCommon: t.TempDir()})
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.MetadataFound {
		t.Fatalf("expected no metadata")
	}
	if _, err := os.Stat(home); !os.IsNotExist(err) {
		t.Fatalf("GetStatus created %s", home)
	}
}

func TestExecuteInstallMetadataFailureOnlyWarns(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "home")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MSTPKIT_HOME", filepath.Join(blocker, "data"))
	sc := t.TempDir()

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	outcomes, err := ExecuteInstall(Options{SnapCommon: sc, Log: &log})
	if err != nil {
		t.Fatalf("ExecuteInstall: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	dir := filepath.Join(sc, "solutions", "activeConfiguration", "BACnet")
	if _, err := os.Stat(filepath.Join(dir, INIFile)); err != nil {
		t.Fatalf("expected %s copied: %v", INIFile, err)
	}
	if !strings.Contains(buf.String(), "install metadata") {
		t.Fatalf("expected a warning, got %q", buf.String())
	}
}
