package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/VoxDroid/mstpkit/internal/nameutil"
)

const (
	// EnvConfig points at the project file.
	EnvConfig = "MSTPKIT_CONFIG"
	// EnvLogFile enables the rotating log file.
	EnvLogFile = "MSTPKIT_LOG_FILE"
	// EnvSnapArch overrides the snap build architecture.
	EnvSnapArch = "MSTPKIT_SNAP_ARCH"

	// DefaultProjectFile is looked up in the working directory.
	DefaultProjectFile = "mstpkit.yaml"
)

// Project is the optional mstpkit.yaml file.
type Project struct {
	Snap      SnapConfig        `yaml:"snap"`
	Bootstrap BootstrapConfig   `yaml:"bootstrap"`
	Pipelines []PipelineConfig  `yaml:"pipelines"`
	Env       map[string]string `yaml:"env"`
	Log       LogConfig         `yaml:"log"`
}

// SnapConfig configures the snap packaging pipeline.
type SnapConfig struct {
	Arch string `yaml:"arch"`
	Dir  string `yaml:"dir"`
}

// BootstrapConfig configures the virtual environment bootstrap.
type BootstrapConfig struct {
	Venv    string `yaml:"venv"`
	Python  string `yaml:"python"`
	Package string `yaml:"package"`
	Native  string `yaml:"native"`
}

// PipelineConfig declares an additional fail-fast pipeline.
type PipelineConfig struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Steps       []StepConfig `yaml:"steps"`
}

// StepConfig is one shell command of a pipeline.
type StepConfig struct {
	Name string `yaml:"name"`
	Run  string `yaml:"run"`
	Dir  string `yaml:"dir"`
}

// LogConfig configures the optional log file.
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
}

var reservedPipelines = map[string]bool{"snap": true, "bootstrap": true}

// LoadProject builds the project configuration: defaults, then the project
// file, then environment overrides. An explicit path (argument or
// MSTPKIT_CONFIG) must exist; the implicit ./mstpkit.yaml is optional.
func LoadProject(path string) (*Project, error) {
	cfg := DefaultProject()

	explicit := true
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path = DefaultProjectFile
		explicit = false
	}
	if err := loadProjectFile(cfg, path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("load project file %s: %w", path, err)
		}
	}

	applyProjectEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("project validation failed: %w", err)
	}
	return cfg, nil
}

// DefaultProject returns the configuration used without a project file.
func DefaultProject() *Project {
	return &Project{
		Snap: SnapConfig{Arch: "arm64", Dir: "."},
		Bootstrap: BootstrapConfig{
			Venv:    "venv",
			Python:  "python3",
			Package: "provider-source",
			Native:  "misty",
		},
		Env: map[string]string{},
		Log: LogConfig{Level: "info", MaxSizeMB: 10, MaxBackups: 3},
	}
}

// ReadProjectFile reads path over the defaults and validates it, without
// environment overrides. Use it when the result is written back.
func ReadProjectFile(path string) (*Project, error) {
	cfg := DefaultProject()
	if err := loadProjectFile(cfg, path); err != nil {
		return nil, fmt.Errorf("load project file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("project validation failed: %w", err)
	}
	return cfg, nil
}

func loadProjectFile(cfg *Project, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyProjectEnv(cfg *Project) {
	if v := os.Getenv(EnvSnapArch); v != "" {
		cfg.Snap.Arch = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.Log.File = v
	}
}

// Validate checks pipeline declarations and required fields.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Snap.Arch) == "" {
		return fmt.Errorf("snap.arch cannot be empty")
	}
	if strings.TrimSpace(p.Bootstrap.Venv) == "" {
		return fmt.Errorf("bootstrap.venv cannot be empty")
	}
	seen := map[string]bool{}
	for i, pl := range p.Pipelines {
		if err := nameutil.ValidateName(pl.Name); err != nil {
			return fmt.Errorf("pipelines[%d]: %w", i, err)
		}
		if reservedPipelines[pl.Name] {
			return fmt.Errorf("pipelines[%d]: name %q is reserved", i, pl.Name)
		}
		if seen[pl.Name] {
			return fmt.Errorf("pipelines[%d]: duplicate name %q", i, pl.Name)
		}
		seen[pl.Name] = true
		if len(pl.Steps) == 0 {
			return fmt.Errorf("pipeline %q has no steps", pl.Name)
		}
		for j, st := range pl.Steps {
			if strings.TrimSpace(st.Run) == "" {
				return fmt.Errorf("pipeline %q step %d: run cannot be empty", pl.Name, j+1)
			}
		}
	}
	return nil
}

// Pipeline returns the declared pipeline with the given name, or nil.
func (p *Project) Pipeline(name string) *PipelineConfig {
	for i := range p.Pipelines {
		if p.Pipelines[i].Name == name {
			return &p.Pipelines[i]
		}
	}
	return nil
}

// AddPipeline appends pc after validating the result.
func (p *Project) AddPipeline(pc PipelineConfig) error {
	if p.Pipeline(pc.Name) != nil {
		return fmt.Errorf("pipeline %q already exists", pc.Name)
	}
	p.Pipelines = append(p.Pipelines, pc)
	if err := p.Validate(); err != nil {
		p.Pipelines = p.Pipelines[:len(p.Pipelines)-1]
		return err
	}
	return nil
}

// SaveProject writes cfg as YAML to path.
func SaveProject(cfg *Project, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write project file %s: %w", path, err)
	}
	return nil
}
