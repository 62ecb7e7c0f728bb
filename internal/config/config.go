// Package config loads minipack.toml, the project manifest.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"minipack/internal/graph"
	"minipack/internal/lower"
	"minipack/internal/metafile"
)

// FileName is the manifest looked up from the working directory upwards.
const FileName = "minipack.toml"

// Manifest is a decoded minipack.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the manifest sections.
type Config struct {
	Build   BuildConfig   `toml:"build"`
	Graph   GraphConfig   `toml:"graph"`
	Runtime RuntimeConfig `toml:"runtime"`
}

type BuildConfig struct {
	Entries        []string `toml:"entries"`
	OutDir         string   `toml:"outdir"`
	Target         string   `toml:"target"`
	Metafile       bool     `toml:"metafile"`
	MetafileFormat string   `toml:"metafile_format"`
}

type GraphConfig struct {
	Dedupe     bool `toml:"dedupe"`
	MaxModules int  `toml:"max_modules"`
}

type RuntimeConfig struct {
	Memoize bool `toml:"memoize"`
}

// Default returns the values used for keys the manifest leaves out.
func Default() Config {
	return Config{
		Build: BuildConfig{
			OutDir:         "dist",
			Target:         lower.DefaultTarget,
			MetafileFormat: metafile.FormatJSON.String(),
		},
		Graph: GraphConfig{
			Dedupe:     true,
			MaxModules: graph.DefaultMaxModules,
		},
		Runtime: RuntimeConfig{Memoize: true},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and decodes the manifest. ok is false when none exists.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadFile decodes and validates one manifest file.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("build") {
		return Config{}, fmt.Errorf("%s: missing [build]", path)
	}
	if meta.IsDefined("build", "entries") && len(cfg.Build.Entries) == 0 {
		return Config{}, fmt.Errorf("%s: [build].entries is empty", path)
	}
	for i, e := range cfg.Build.Entries {
		if strings.TrimSpace(e) == "" {
			return Config{}, fmt.Errorf("%s: [build].entries[%d] is blank", path, i)
		}
	}
	if _, err := lower.ParseTarget(cfg.Build.Target); err != nil {
		return Config{}, fmt.Errorf("%s: [build].target: %w", path, err)
	}
	if _, err := metafile.ParseFormat(cfg.Build.MetafileFormat); err != nil {
		return Config{}, fmt.Errorf("%s: [build].metafile_format: %w", path, err)
	}
	if cfg.Graph.MaxModules <= 0 {
		return Config{}, fmt.Errorf("%s: [graph].max_modules must be positive", path)
	}
	return cfg, nil
}

// EntryPaths returns the manifest entries resolved against the manifest root.
func (m *Manifest) EntryPaths() []string {
	out := make([]string, len(m.Config.Build.Entries))
	for i, e := range m.Config.Build.Entries {
		out[i] = m.resolve(e)
	}
	return out
}

// OutDir returns [build].outdir resolved against the manifest root.
func (m *Manifest) OutDir() string {
	return m.resolve(m.Config.Build.OutDir)
}

func (m *Manifest) resolve(p string) string {
	p = filepath.FromSlash(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, p)
}

// Policy maps [graph].dedupe onto a graph policy.
func (c Config) Policy() graph.Policy {
	if c.Graph.Dedupe {
		return graph.PolicyDedupe
	}
	return graph.PolicyLiteral
}
