// Package install implements the post-install hook that seeds the snap's
// writable configuration directory with bundled defaults.
package install

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/VoxDroid/mstpkit/internal/config"
)

//go:embed defaults/bc.ini defaults/bacnet_defines.json
var defaultsFS embed.FS

// Bundled default file names.
const (
	INIFile     = "bc.ini"
	DefinesFile = "bacnet_defines.json"
)

// File is one configuration file the hook seeds. An empty Source selects
// the bundled default with the same base name as Target.
type File struct {
	Source string
	Target string
}

// Options controls the hook.
type Options struct {
	// SnapCommon is the writable runtime directory; empty means $SNAP_COMMON
	// or the snap's default location.
	SnapCommon string
	DryRun     bool
	// Log receives warnings that do not fail the hook; nil discards them.
	Log *zerolog.Logger
	// Files overrides the default set of seeded files. Relative targets are
	// resolved against the storage location.
	Files []File
}

// Outcome describes what happened to one file.
type Outcome struct {
	Target string `json:"target"`
	Copied bool   `json:"copied"`
	Source string `json:"source"`
}

func (o Options) storageDir() string {
	sc := o.SnapCommon
	if sc == "" {
		sc = config.SnapCommon()
	}
	return config.ActiveConfigDir(sc)
}

func (o Options) files() []File {
	dir := o.storageDir()
	files := o.Files
	if len(files) == 0 {
		files = []File{{Target: INIFile}, {Target: DefinesFile}}
	}
	out := make([]File, 0, len(files))
	for _, f := range files {
		if !filepath.IsAbs(f.Target) {
			f.Target = filepath.Join(dir, f.Target)
		}
		out = append(out, f)
	}
	return out
}

func sourceLabel(f File) string {
	if f.Source == "" {
		return "bundled " + filepath.Base(f.Target)
	}
	return f.Source
}

// DefaultContent returns the bundled default for name.
func DefaultContent(name string) ([]byte, error) {
	b, err := defaultsFS.ReadFile("defaults/" + name)
	if err != nil {
		return nil, eris.Wrapf(err, "no bundled default named %q", name)
	}
	return b, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// PlanInstall returns a list of human-readable actions that would be performed.
func PlanInstall(opts Options) ([]string, error) {
	dir := opts.storageDir()
	actions := []string{fmt.Sprintf("Ensure directory exists: %s", dir)}
	for _, f := range opts.files() {
		present, err := exists(f.Target)
		if err != nil {
			return nil, eris.Wrapf(err, "stat %s", f.Target)
		}
		if present {
			actions = append(actions, fmt.Sprintf("Keep %s (already present)", f.Target))
			continue
		}
		actions = append(actions, fmt.Sprintf("Copy %s -> %s", sourceLabel(f), f.Target))
	}
	return actions, nil
}

// ExecuteInstall ensures the storage location exists and copies every
// missing file into place. Files that already exist are never touched.
// The first error stops the hook.
func ExecuteInstall(opts Options) ([]Outcome, error) {
	files := opts.files()
	outcomes := make([]Outcome, 0, len(files))
	if opts.DryRun {
		for _, f := range files {
			present, err := exists(f.Target)
			if err != nil {
				return nil, eris.Wrapf(err, "stat %s", f.Target)
			}
			outcomes = append(outcomes, Outcome{Target: f.Target, Copied: !present, Source: sourceLabel(f)})
		}
		return outcomes, nil
	}
	if err := os.MkdirAll(opts.storageDir(), 0o755); err != nil {
		return nil, eris.Wrap(err, "create storage location")
	}
	for _, f := range files {
		copied, err := copyIfAbsent(f)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, Outcome{Target: f.Target, Copied: copied, Source: sourceLabel(f)})
	}
	if err := saveMetadata(outcomes); err != nil {
		if opts.Log != nil {
			opts.Log.Warn().Err(err).Msg("could not save install metadata")
		}
	}
	return outcomes, nil
}

func openSource(f File) (io.ReadCloser, error) {
	if f.Source == "" {
		return defaultsFS.Open("defaults/" + filepath.Base(f.Target))
	}
	return os.Open(f.Source)
}

// copyIfAbsent writes the source to a temp file next to the target and
// moves it into place. An existing target is left untouched.
func copyIfAbsent(f File) (bool, error) {
	present, err := exists(f.Target)
	if err != nil {
		return false, eris.Wrapf(err, "stat %s", f.Target)
	}
	if present {
		return false, nil
	}
	in, err := openSource(f)
	if err != nil {
		return false, eris.Wrapf(err, "open source %s", sourceLabel(f))
	}
	defer func() { _ = in.Close() }()

	dir := filepath.Dir(f.Target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, eris.Wrapf(err, "create %s", dir)
	}
	tmpFile, err := os.CreateTemp(dir, ".mstpkit_tmp_")
	if err != nil {
		return false, eris.Wrap(err, "create temp file")
	}
	tmp := tmpFile.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := io.Copy(tmpFile, in); err != nil {
		_ = tmpFile.Close()
		return false, eris.Wrap(err, "copy")
	}
	if err := tmpFile.Close(); err != nil {
		return false, eris.Wrap(err, "close temp file")
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return false, eris.Wrap(err, "set mode")
	}
	return placeNoReplace(tmp, f.Target)
}

// placeNoReplace moves tmp to dst unless dst exists. A hard link fails with
// EEXIST instead of overwriting; filesystems without links fall back to a
// checked rename.
func placeNoReplace(tmp, dst string) (bool, error) {
	err := os.Link(tmp, dst)
	if err == nil {
		return true, nil
	}
	if os.IsExist(err) {
		return false, nil
	}
	present, serr := exists(dst)
	if serr != nil {
		return false, eris.Wrapf(serr, "stat %s", dst)
	}
	if present {
		return false, nil
	}
	if rerr := os.Rename(tmp, dst); rerr != nil {
		return false, eris.Wrapf(rerr, "rename to %s", dst)
	}
	return true, nil
}

// Status reports which targets are present.
type Status struct {
	StorageDir    string
	Targets       map[string]bool
	MetadataFound bool
	LastRun       *Metadata
}

// Installed reports whether every target is present.
func (s *Status) Installed() bool {
	for _, ok := range s.Targets {
		if !ok {
			return false
		}
	}
	return len(s.Targets) > 0
}

// GetStatus inspects the storage location without changing anything.
func GetStatus(opts Options) (*Status, error) {
	st := &Status{StorageDir: opts.storageDir(), Targets: map[string]bool{}}
	for _, f := range opts.files() {
		present, err := exists(f.Target)
		if err != nil {
			return nil, eris.Wrapf(err, "stat %s", f.Target)
		}
		st.Targets[f.Target] = present
	}
	if m, err := loadMetadata(); err == nil {
		st.MetadataFound = true
		st.LastRun = m
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	return st, nil
}

// Metadata records what the last hook run did.
type Metadata struct {
	Outcomes []Outcome `json:"outcomes"`
	RanAt    time.Time `json:"ran_at"`
}

const metadataFile = "install_metadata.json"

func saveMetadata(outcomes []Outcome) error {
	d, err := config.EnsureDataDir()
	if err != nil {
		return eris.Wrap(err, "create data dir")
	}
	m := Metadata{Outcomes: outcomes, RanAt: time.Now()}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode install metadata")
	}
	return os.WriteFile(filepath.Join(d, metadataFile), b, 0o600)
}

// loadMetadata never creates the data directory.
func loadMetadata() (*Metadata, error) {
	d, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	p := filepath.Join(d, metadataFile)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
