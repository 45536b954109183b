// Package config provides configuration loading and management for holoscope.
// It handles loading configuration from YAML files and provides default values.
//
// User-facing units follow the bench conventions (µm, nm, cm); the helpers
// on each section convert them to the meters used by the reconstruction core.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"holoscope/pkg/propagation"
)

// Unit conversion factors to meters
const (
	Centimeter = 1e-2
	Micrometer = 1e-6
	Nanometer  = 1e-9
)

// Optics describes the holographic microscope
type Optics struct {
	// PixelPitchUm is the sensor pixel spacing along x in micrometers
	PixelPitchUm float64 `yaml:"pixelPitchUm"`

	// PixelPitchYUm is the spacing along y; zero means square pixels
	PixelPitchYUm float64 `yaml:"pixelPitchYUm"`

	// WavelengthNm is the illumination wavelength in nanometers
	WavelengthNm float64 `yaml:"wavelengthNm"`

	// DistanceCm is the reconstruction distance in centimeters
	DistanceCm float64 `yaml:"distanceCm"`
}

// Params converts the optics section to propagation parameters in meters.
func (o Optics) Params() propagation.Params {
	return propagation.Params{
		PixelPitch:  o.PixelPitchUm * Micrometer,
		PixelPitchY: o.PixelPitchYUm * Micrometer,
		Wavelength:  o.WavelengthNm * Nanometer,
		Distance:    o.DistanceCm * Centimeter,
	}
}

// Calibration holds the reference used to derive the pixel scale
type Calibration struct {
	// KnownDistanceUm is the true length of the reference line in micrometers
	KnownDistanceUm float64 `yaml:"knownDistanceUm"`
}

// KnownDistance returns the reference line length in meters.
func (c Calibration) KnownDistance() float64 {
	return c.KnownDistanceUm * Micrometer
}

// Config represents the application configuration loaded from YAML
type Config struct {
	Optics Optics `yaml:"optics"`

	// Processing parameters
	Processing struct {
		// Method is the propagation algorithm: "fresnel" or "angular_spectrum"
		Method string `yaml:"method"`

		// NumCores bounds how many hologram pairs are reconstructed at once
		NumCores int `yaml:"numCores"`

		// CropSize crops frames to the top-left CropSize x CropSize square; 0 disables
		CropSize int `yaml:"cropSize"`

		// CropSquare crops frames to their centered square when CropSize is 0
		CropSquare bool `yaml:"cropSquare"`

		// Resolution resamples the contrast to Resolution x Resolution before
		// propagation; 0 keeps the native resolution
		Resolution int `yaml:"resolution"`
	} `yaml:"processing"`

	// Denoise controls the DC bias removal performed before propagation
	Denoise struct {
		// TrimmedMean subtracts a trimmed mean of the contrast when set
		TrimmedMean bool `yaml:"trimmedMean"`

		// TrimFraction is the proportion cut from each end of the sorted samples
		TrimFraction float64 `yaml:"trimFraction"`
	} `yaml:"denoise"`

	// Segmentation parameters
	Segmentation struct {
		// Source selects the field thresholded: "phase", "amplitude" or "intensity"
		Source string `yaml:"source"`

		// Clean applies 3x3 closing then opening to the mask
		Clean bool `yaml:"clean"`
	} `yaml:"segmentation"`

	// Calibration parameters
	Calibration Calibration `yaml:"calibration"`

	// Output parameters
	Output struct {
		// SaveIntermediaryResults determines whether to save intermediary images
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where intermediary images are written
		IntermediaryDir string `yaml:"intermediaryDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Bench defaults: 3.45 µm pixels, 532 nm laser, 5 cm reconstruction distance
	cfg.Optics.PixelPitchUm = 3.45
	cfg.Optics.WavelengthNm = 532
	cfg.Optics.DistanceCm = 5

	cfg.Processing.Method = propagation.AngularSpectrum.String()
	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.CropSize = 0
	cfg.Processing.CropSquare = true
	cfg.Processing.Resolution = 0

	cfg.Denoise.TrimmedMean = true
	cfg.Denoise.TrimFraction = propagation.DefaultTrimFraction

	cfg.Segmentation.Source = "phase"
	cfg.Segmentation.Clean = true

	cfg.Calibration.KnownDistanceUm = 10

	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"
	cfg.Output.Verbose = true

	return cfg
}

// Validate checks the configuration for values the pipeline cannot use
func (c *Config) Validate() error {
	if _, err := propagation.ParseMethod(c.Processing.Method); err != nil {
		return err
	}
	if err := c.Optics.Params().Validate(); err != nil {
		return fmt.Errorf("optics: %w", err)
	}
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("processing.numCores must be at least 1, got %d", c.Processing.NumCores)
	}
	if c.Processing.CropSize < 0 || c.Processing.Resolution < 0 {
		return fmt.Errorf("processing.cropSize and processing.resolution must be non-negative")
	}
	if c.Denoise.TrimFraction < 0 || c.Denoise.TrimFraction >= 0.5 {
		return fmt.Errorf("denoise.trimFraction must be in [0, 0.5), got %g", c.Denoise.TrimFraction)
	}
	switch c.Segmentation.Source {
	case "phase", "amplitude", "intensity":
	default:
		return fmt.Errorf("segmentation.source must be phase, amplitude or intensity, got %q", c.Segmentation.Source)
	}
	if c.Calibration.KnownDistanceUm <= 0 {
		return fmt.Errorf("calibration.knownDistanceUm must be positive, got %g", c.Calibration.KnownDistanceUm)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
