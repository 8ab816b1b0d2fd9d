// Package config loads and validates the pipeline configuration from
// a TOML file, filling in repository defaults for anything not set.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir    string `toml:"work_dir"`    // where stage outputs and the run ledger live
	StructFile string `toml:"struct_file"` // input CIF with the pristine unit cell
}

// Supercell contains the supercell construction and doping settings.
type Supercell struct {
	Factors [3]int `toml:"factors"`
	Dopant  string `toml:"dopant"`  // substituting species
	Host    string `toml:"host"`    // substituted species
	Count   int    `toml:"count"`   // how many substitutions
	Seed    int64  `toml:"seed"`    // 0 draws a random seed
}

// DFT contains the settings handed to the external DFT engine.
type DFT struct {
	Command     string  `toml:"command"`
	NCPU        int     `toml:"ncpu"`
	Mode        string  `toml:"mode"`
	Basis       string  `toml:"basis"`
	XC          string  `toml:"xc"`
	Kpts        [3]int  `toml:"kpts"`
	ConvEnergy  float64 `toml:"conv_energy"`
	ConvDensity float64 `toml:"conv_density"`
	ConvEigen   float64 `toml:"conv_eigenstates"`
	Fmax        float64 `toml:"fmax"`
	MaxSteps    int     `toml:"max_steps"`
}

// STEM contains the settings handed to the image simulation engine.
type STEM struct {
	Command        string  `toml:"command"`
	Voltage        float64 `toml:"voltage"`         // kV
	Semiangle      float64 `toml:"semiangle"`       // mrad
	HAADFInner     float64 `toml:"haadf_inner"`     // mrad
	HAADFOuter     float64 `toml:"haadf_outer"`     // mrad
	Sampling       float64 `toml:"sampling"`        // Å
	SliceThickness float64 `toml:"slice_thickness"` // Å
	FrozenPhonons  int     `toml:"frozen_phonons"`
}

// Analysis contains the distance analysis and plotting settings.
type Analysis struct {
	Species   string `toml:"species"`    // species whose neighbor distances are reported
	HistoBins int    `toml:"histo_bins"` // bins of the distance histogram
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"` // console or json
	Level  string `toml:"level"`  // debug, info, warn or error
}

// Config encapsulates all configuration values for the pipeline.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Supercell Supercell `toml:"supercell"`
	DFT       DFT       `toml:"dft"`
	STEM      STEM      `toml:"stem"`
	Analysis  Analysis  `toml:"analysis"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default
// configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/gocrystal/config.toml")
}

// Load locates, parses and validates a configuration file. An empty
// path checks the default location and then ./gocrystal.toml; a
// missing file just yields the defaults. It returns the config, the
// resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs("gocrystal.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir)
	if err != nil {
		return err
	}
	if c.Paths.StructFile != "" {
		c.Paths.StructFile, err = expandPath(c.Paths.StructFile)
		if err != nil {
			return err
		}
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		pathValue = filepath.Join(home, strings.TrimPrefix(pathValue, "~"))
	}
	return filepath.Abs(pathValue)
}

// WriteSample writes the embedded sample configuration to path,
// refusing to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return err
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}
