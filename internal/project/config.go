package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the decoded capsule.toml.
type Config struct {
	Package     Package     `toml:"package"`
	Analysis    Analysis    `toml:"analysis"`
	Diagnostics Diagnostics `toml:"diagnostics"`
}

type Package struct {
	Name string `toml:"name"`
}

// Analysis toggles the elaboration rules that are left open by the
// language.
type Analysis struct {
	// MoveKeepsTrait stores `move` captures by value but lets the call
	// trait follow how the body uses them.
	MoveKeepsTrait bool `toml:"move_keeps_trait"`
	// StrictAliasing treats a Read overlapping a live Write as a conflict.
	StrictAliasing bool `toml:"strict_aliasing"`
}

type Diagnostics struct {
	Max       int    `toml:"max"`
	Format    string `toml:"format"`
	WithNotes bool   `toml:"with_notes"`
}

// Formats lists the accepted [diagnostics].format values.
var Formats = []string{"pretty", "short", "json", "sarif"}

// Manifest is a loaded configuration and where it came from.
type Manifest struct {
	Path   string
	Root   string
	Config Config
	// Unknown lists keys present in the file that no field decodes.
	Unknown []string
}

var ErrPackageNameMissing = errors.New("missing [package].name")

// Default returns the settings used without a capsule.toml.
func Default() Config {
	return Config{
		Diagnostics: Diagnostics{Max: 100, Format: "pretty"},
	}
}

// LoadConfig decodes path over Default and validates it.
func LoadConfig(path string) (*Manifest, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if meta.IsDefined("package") && strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m := &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}
	for _, key := range meta.Undecoded() {
		m.Unknown = append(m.Unknown, key.String())
	}
	return m, nil
}

// Discover finds and loads the capsule.toml governing startPath. ok is
// false when none exists; the caller falls back to Default.
func Discover(startPath string) (m *Manifest, ok bool, err error) {
	path, ok, err := FindManifest(startPath)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err = LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Diagnostics.Max < 0 {
		return fmt.Errorf("[diagnostics].max must not be negative, got %d", c.Diagnostics.Max)
	}
	if c.Diagnostics.Format != "" && !slices.Contains(Formats, c.Diagnostics.Format) {
		return fmt.Errorf("[diagnostics].format must be one of %s, got %q", strings.Join(Formats, "|"), c.Diagnostics.Format)
	}
	return nil
}

// Template renders the file written by `capsule init`.
func Template(name string) string {
	return fmt.Sprintf(`# capsule configuration
[package]
name = %q

[analysis]
# true: `+"`move`"+` stores captures by value but the trait follows body use
move_keeps_trait = false
# true: a Read overlapping a live Write is a conflict
strict_aliasing = false

[diagnostics]
max = 100
format = "pretty"
with_notes = false
`, name)
}
