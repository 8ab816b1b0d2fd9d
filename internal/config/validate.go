package config

import (
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSupercell(); err != nil {
		return err
	}
	if err := c.validateDFT(); err != nil {
		return err
	}
	if err := c.validateSTEM(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSupercell() error {
	for i, f := range c.Supercell.Factors {
		if f < 1 {
			return fmt.Errorf("supercell.factors[%d] must be at least 1, got %d", i, f)
		}
	}
	if c.Supercell.Count < 0 {
		return fmt.Errorf("supercell.count must not be negative, got %d", c.Supercell.Count)
	}
	if c.Supercell.Count > 0 {
		if c.Supercell.Dopant == "" {
			return fmt.Errorf("supercell.dopant is required when supercell.count > 0")
		}
		if c.Supercell.Host == "" {
			return fmt.Errorf("supercell.host is required when supercell.count > 0")
		}
	}
	return nil
}

func (c *Config) validateDFT() error {
	if c.DFT.Command == "" {
		return fmt.Errorf("dft.command is required")
	}
	if c.DFT.NCPU < 1 {
		return fmt.Errorf("dft.ncpu must be at least 1, got %d", c.DFT.NCPU)
	}
	switch c.DFT.Mode {
	case "lcao", "fd", "pw":
	default:
		return fmt.Errorf("dft.mode must be lcao, fd or pw, got %q", c.DFT.Mode)
	}
	for i, k := range c.DFT.Kpts {
		if k < 1 {
			return fmt.Errorf("dft.kpts[%d] must be at least 1, got %d", i, k)
		}
	}
	if c.DFT.ConvEnergy <= 0 || c.DFT.ConvDensity <= 0 || c.DFT.ConvEigen <= 0 {
		return fmt.Errorf("dft convergence thresholds must be positive")
	}
	if c.DFT.Fmax <= 0 {
		return fmt.Errorf("dft.fmax must be positive, got %g", c.DFT.Fmax)
	}
	if c.DFT.MaxSteps < 1 {
		return fmt.Errorf("dft.max_steps must be at least 1, got %d", c.DFT.MaxSteps)
	}
	return nil
}

func (c *Config) validateSTEM() error {
	if c.STEM.Command == "" {
		return fmt.Errorf("stem.command is required")
	}
	if c.STEM.Voltage <= 0 {
		return fmt.Errorf("stem.voltage must be positive, got %g", c.STEM.Voltage)
	}
	if c.STEM.Sampling <= 0 {
		return fmt.Errorf("stem.sampling must be positive, got %g", c.STEM.Sampling)
	}
	if c.STEM.HAADFInner >= c.STEM.HAADFOuter {
		return fmt.Errorf("stem.haadf_inner (%g) must be below stem.haadf_outer (%g)",
			c.STEM.HAADFInner, c.STEM.HAADFOuter)
	}
	if c.STEM.FrozenPhonons < 0 {
		return fmt.Errorf("stem.frozen_phonons must not be negative, got %d", c.STEM.FrozenPhonons)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.Species == "" {
		return fmt.Errorf("analysis.species is required")
	}
	if c.Analysis.HistoBins < 1 {
		return fmt.Errorf("analysis.histo_bins must be at least 1, got %d", c.Analysis.HistoBins)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
