package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultStartPosition = 50
	defaultFormat        = "text"
	defaultMoveSpeedMs   = 2
	defaultMicrostepping = 1
	defaultPulseMs       = 50
)

// MaxConfigFileBytes bounds the size of a config file accepted by Load.
const MaxConfigFileBytes = 64 * 1024

// DialConfig describes the dial and how input is consumed.
type DialConfig struct {
	StartPosition *int `yaml:"start_position"` // 0-99, default 50
	SkipInvalid   bool `yaml:"skip_invalid"`   // skip unparsable lines instead of aborting
}

// ReportConfig selects the output format.
type ReportConfig struct {
	Format string `yaml:"format"` // "text" (default) or "json"
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio"`   // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// StepperConfig holds the wiring of the knob motor.
type StepperConfig struct {
	StepPin       int  `yaml:"step_pin"`
	DirPin        int  `yaml:"dir_pin"`
	EnablePin     int  `yaml:"enable_pin"` // A4988 ENABLE pin (BCM). 0 = not used. Active LOW.
	StepsPerRev   int  `yaml:"steps_per_rev"`
	Microstepping int  `yaml:"microstepping"`
	Invert        bool `yaml:"invert"`
}

// ActuatorConfig mirrors the dial on a stepper-driven knob.
type ActuatorConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MoveSpeedMs int           `yaml:"move_speed_ms"` // delay between motor steps
	Stepper     StepperConfig `yaml:"stepper"`
}

// IndicatorConfig drives an LED or buzzer once per zero crossing.
type IndicatorConfig struct {
	Enabled   bool `yaml:"enabled"`
	Pin       int  `yaml:"pin"`
	PulseMs   int  `yaml:"pulse_ms"`
	MaxBlinks int  `yaml:"max_blinks"` // per rotation, 0 = unlimited
}

// Config aggregates all application configuration.
type Config struct {
	Dial      DialConfig      `yaml:"dial"`
	Report    ReportConfig    `yaml:"report"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
	Actuator  ActuatorConfig  `yaml:"actuator"`
	Indicator IndicatorConfig `yaml:"indicator"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Defaults: DefaultsConfig{MockGPIO: true},
	}
	if err := cfg.finish(); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if info.Size() > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file %s is %d bytes, limit is %d", path, info.Size(), MaxConfigFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, then applies defaults and validates the result.
// Unknown keys are ignored.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	if c.Dial.StartPosition == nil {
		start := defaultStartPosition
		c.Dial.StartPosition = &start
	}
	if p := *c.Dial.StartPosition; p < 0 || p > 99 {
		return fmt.Errorf("dial.start_position must be between 0 and 99, got %d", p)
	}

	if c.Report.Format == "" {
		c.Report.Format = defaultFormat
	}
	if c.Report.Format != "text" && c.Report.Format != "json" {
		return fmt.Errorf("report.format must be text or json, got %q", c.Report.Format)
	}

	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}

	if c.Actuator.MoveSpeedMs <= 0 {
		c.Actuator.MoveSpeedMs = defaultMoveSpeedMs
	}
	if c.Actuator.Stepper.Microstepping <= 0 {
		c.Actuator.Stepper.Microstepping = defaultMicrostepping
	}
	if c.Actuator.Enabled {
		st := c.Actuator.Stepper
		if st.StepPin <= 0 || st.DirPin <= 0 {
			return fmt.Errorf("actuator.stepper.step_pin and dir_pin are required when the actuator is enabled")
		}
		if st.StepsPerRev <= 0 {
			return fmt.Errorf("actuator.stepper.steps_per_rev must be > 0")
		}
	}

	if c.Indicator.PulseMs <= 0 {
		c.Indicator.PulseMs = defaultPulseMs
	}
	if c.Indicator.MaxBlinks < 0 {
		return fmt.Errorf("indicator.max_blinks must be >= 0, got %d", c.Indicator.MaxBlinks)
	}
	if c.Indicator.Enabled && c.Indicator.Pin <= 0 {
		return fmt.Errorf("indicator.pin is required when the indicator is enabled")
	}
	return nil
}

// ValidateConfigPath accepts only .yaml files directly inside a configs/
// directory, with no ".." segments.
func ValidateConfigPath(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain '..'", path)
		}
	}
	clean := filepath.Clean(path)
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	if filepath.Base(filepath.Dir(clean)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// StartPosition returns the dial position at the start of a run.
func (c *Config) StartPosition() int {
	return *c.Dial.StartPosition
}

// MoveSpeed returns the duration between two motor steps.
func (c *Config) MoveSpeed() time.Duration {
	return time.Duration(c.Actuator.MoveSpeedMs) * time.Millisecond
}

// PulseWidth returns how long the indicator stays on per blink.
func (c *Config) PulseWidth() time.Duration {
	return time.Duration(c.Indicator.PulseMs) * time.Millisecond
}

// NeedsGPIO reports whether any hardware output is enabled.
func (c *Config) NeedsGPIO() bool {
	return c.Actuator.Enabled || c.Indicator.Enabled
}
